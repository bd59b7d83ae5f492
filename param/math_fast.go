//go:build fastmath

// SPDX-License-Identifier: EPL-2.0

package param

import "github.com/meko-christian/algo-approx"

// onePoleCoefficient computes exp(-1/timeConstantSamples) via
// algo-approx's fast exponential, trading a little accuracy in the
// smoothing coefficient for lower per-parameter setup cost when a
// build opts into the fastmath tag.
func onePoleCoefficient(timeConstantSamples float64) float64 {
	return approx.FastExp(-1 / timeConstantSamples)
}
