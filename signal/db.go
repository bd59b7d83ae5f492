// SPDX-License-Identifier: EPL-2.0

package signal

import "math"

// FloorDB is the value LinearToDB returns for silence, instead of -Inf.
const FloorDB = -144.0

// LinearToDB converts a linear amplitude to decibels full scale.
func LinearToDB(linear float32) float32 {
	if linear <= 0 {
		return FloorDB
	}
	db := 20 * math.Log10(float64(linear))
	if db < FloorDB {
		return FloorDB
	}
	return float32(db)
}

// DBToLinear converts decibels full scale to a linear amplitude.
func DBToLinear(db float32) float32 {
	return float32(math.Pow(10, float64(db)/20))
}
