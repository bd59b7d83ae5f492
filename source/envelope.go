// SPDX-License-Identifier: EPL-2.0

package source

// EnvelopeStage names one segment of an AHDSR (attack/hold/decay/
// sustain/release) envelope.
type EnvelopeStage int

const (
	StageIdle EnvelopeStage = iota
	StageAttack
	StageHold
	StageDecay
	StageSustain
	StageRelease
)

// EnvelopeParams holds the AHDSR timing/level parameters, in sample
// frames for time segments and normalized [0,1] for the sustain level.
// This is a supplemented feature: spec.md's Generator source names only
// "generator" without specifying an envelope shape; AHDSR is the
// conventional synthesis envelope original_source's note generators
// implied but the distillation dropped.
type EnvelopeParams struct {
	AttackFrames  int
	HoldFrames    int
	DecayFrames   int
	SustainLevel  float64
	ReleaseFrames int
}

// Envelope advances an AHDSR contour sample-by-sample.
type Envelope struct {
	params EnvelopeParams
	stage  EnvelopeStage
	pos    int
	level  float64 // level at the start of the current stage, for release ramp-down
	value  float64
}

// NewEnvelope returns an idle Envelope using params.
func NewEnvelope(params EnvelopeParams) *Envelope {
	return &Envelope{params: params}
}

// NoteOn (re)starts the envelope from the attack stage, regardless of
// its current stage — a retrigger, not a queued restart.
func (e *Envelope) NoteOn() {
	e.stage = StageAttack
	e.pos = 0
}

// NoteOff moves the envelope into its release stage from wherever it
// currently is, capturing the current output level as the release
// ramp's starting point.
func (e *Envelope) NoteOff() {
	if e.stage == StageIdle || e.stage == StageRelease {
		return
	}
	e.stage = StageRelease
	e.pos = 0
	e.level = e.value
}

// Stage reports the envelope's current stage.
func (e *Envelope) Stage() EnvelopeStage { return e.stage }

// Done reports whether the envelope has fully released to silence.
func (e *Envelope) Done() bool { return e.stage == StageIdle }

// Advance steps the envelope by one frame and returns its current
// output level in [0,1].
func (e *Envelope) Advance() float64 {
	p := &e.params
	switch e.stage {
	case StageIdle:
		e.value = 0
	case StageAttack:
		if p.AttackFrames <= 0 {
			e.value = 1
			e.enter(StageHold)
			break
		}
		e.value = float64(e.pos) / float64(p.AttackFrames)
		e.pos++
		if e.pos >= p.AttackFrames {
			e.value = 1
			e.enter(StageHold)
		}
	case StageHold:
		e.value = 1
		e.pos++
		if e.pos >= p.HoldFrames {
			e.enter(StageDecay)
		}
	case StageDecay:
		if p.DecayFrames <= 0 {
			e.value = p.SustainLevel
			e.enter(StageSustain)
			break
		}
		t := float64(e.pos) / float64(p.DecayFrames)
		e.value = 1 - t*(1-p.SustainLevel)
		e.pos++
		if e.pos >= p.DecayFrames {
			e.value = p.SustainLevel
			e.enter(StageSustain)
		}
	case StageSustain:
		e.value = p.SustainLevel
	case StageRelease:
		if p.ReleaseFrames <= 0 {
			e.value = 0
			e.stage = StageIdle
			break
		}
		t := float64(e.pos) / float64(p.ReleaseFrames)
		if t > 1 {
			t = 1
		}
		e.value = e.level * (1 - t)
		e.pos++
		if e.pos >= p.ReleaseFrames {
			e.value = 0
			e.stage = StageIdle
		}
	}
	return e.value
}

func (e *Envelope) enter(stage EnvelopeStage) {
	e.stage = stage
	e.pos = 0
}
