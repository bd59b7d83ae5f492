//go:build fastmath

// SPDX-License-Identifier: EPL-2.0

package param

import "github.com/meko-christian/algo-approx"

const ln10Over20 = 0.1151292546497022842008995727342

// linearToDB and dbToLinear use algo-approx's fast log/exp for the
// string-formatting hot path exercised by parameter UIs that redraw a
// value string every block.
func linearToDB(linear float64) float64 {
	if linear <= 0 {
		return -200
	}
	return approx.FastLog(linear) / ln10Over20
}

func dbToLinear(db float64) float64 {
	return approx.FastExp(db * ln10Over20)
}
