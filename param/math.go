//go:build !fastmath

// SPDX-License-Identifier: EPL-2.0

package param

import "math"

// onePoleCoefficient computes exp(-1/timeConstantSamples) using the
// standard library. See math_fast.go for the fastmath build's
// approximated variant.
func onePoleCoefficient(timeConstantSamples float64) float64 {
	return math.Exp(-1 / timeConstantSamples)
}
