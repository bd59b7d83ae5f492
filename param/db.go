//go:build !fastmath

// SPDX-License-Identifier: EPL-2.0

package param

import "math"

// linearToDB and dbToLinear back Unit's dB formatting with the
// standard library. See db_fast.go for the fastmath build's
// approximated variant.
func linearToDB(linear float64) float64 {
	if linear <= 0 {
		return -200
	}
	return 20 * math.Log10(linear)
}

func dbToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}
