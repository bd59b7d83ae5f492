// SPDX-License-Identifier: EPL-2.0

package effect

import "github.com/ik5/sonora/param"

var (
	distortionDriveID param.ID
	distortionMixID   param.ID
)

func init() {
	distortionDriveID, _ = param.NewID("driv")
	distortionMixID, _ = param.NewID("mix")
}

// Distortion applies a tanh-shaped waveshaper driven by a gain stage
// ahead of it, blended against the dry signal by Mix.
type Distortion struct {
	drive, mix float64
}

// NewDistortion returns a Distortion effect at unity drive and full
// wet mix.
func NewDistortion() *Distortion {
	return &Distortion{drive: 1, mix: 1}
}

func (d *Distortion) Process(io []float32, channels, sampleRate int) {
	_ = channels
	_ = sampleRate
	drive := float32(d.drive)
	mix := float32(d.mix)
	for i, x := range io {
		driven := x * drive
		shaped := tanhApprox(driven)
		io[i] = x*(1-mix) + shaped*mix
	}
}

// tanhApprox is a rational approximation to tanh, cheap enough for
// per-sample waveshaping without a transcendental call. The formula
// reaches exactly ±1 with zero slope at x = ±3 and grows past it beyond,
// so the result is held at ±1 for |x| >= 3.
func tanhApprox(x float32) float32 {
	if x >= 3 {
		return 1
	}
	if x <= -3 {
		return -1
	}
	x2 := x * x
	return x * (27 + x2) / (27 + 9*x2)
}

func (d *Distortion) SetParameter(id param.ID, normalized float64, smoothing param.Smoothing) error {
	_ = smoothing
	switch id {
	case distortionDriveID:
		d.drive = param.Exponential.ToRaw(normalized, 1, 20)
	case distortionMixID:
		d.mix = param.Linear.ToRaw(normalized, 0, 1)
	}
	return nil
}

func (d *Distortion) Reset() {}

func (d *Distortion) ParameterSchema() []param.Description {
	return []param.Description{
		{ID: distortionDriveID, Name: "Drive", Kind: param.KindFloat, Min: 1, Max: 20, Default: 1, Curve: param.Exponential},
		{ID: distortionMixID, Name: "Mix", Kind: param.KindFloat, Min: 0, Max: 1, Default: 1, Curve: param.Linear, Unit: param.UnitPercent},
	}
}
