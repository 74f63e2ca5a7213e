package edm

import "math"

// MaxSafeInteger is the largest integer an IEEE-754 double, and therefore a
// JSON number, can carry without loss: 2^53 - 1. Edm.Int64 values beyond it
// must travel as strings.
const MaxSafeInteger = 1<<53 - 1

// IsSafeInteger reports whether f is a finite integral value whose magnitude
// does not exceed MaxSafeInteger.
func IsSafeInteger(f float64) bool {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	if f != math.Trunc(f) {
		return false
	}
	return math.Abs(f) <= MaxSafeInteger
}
