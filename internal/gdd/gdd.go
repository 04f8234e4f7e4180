// Package gdd holds the Growing Degree Day arithmetic. Every GDD value in
// the system, whether computed during ingestion or recomputed on a client
// save path, must come from Daily so the formula cannot drift.
package gdd

import "math"

// DefaultBaseTemp is the threshold below which no growth-relevant heat
// accumulates, in degrees Fahrenheit.
const DefaultBaseTemp = 50.0

// Daily computes one day's Growing Degree Day value from the day's extreme
// temperatures: max(0, (high+low)/2 - base). The result is never negative.
// Inputs are not validated; high < low is accepted as-is.
func Daily(tempHigh, tempLow, baseTemp float64) float64 {
	avg := (tempHigh + tempLow) / 2
	return math.Max(0, avg-baseTemp)
}
