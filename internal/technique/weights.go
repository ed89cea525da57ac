package technique

import "math"

// RoundHalf rounds a weight to the nearest 0.5 unit, half-up.
// 21.24 -> 21.0, 21.25 -> 21.5. Applied uniformly to every derived weight.
func RoundHalf(w float64) float64 {
	return math.Floor(w*2+0.5) / 2
}

// DropLadder returns the drops+1 working weights of a drop set. Entry 0 is
// the rounded initial weight; each subsequent entry reduces the previous one
// by dropPercentage and rounds to the nearest 0.5.
func DropLadder(initialWeight float64, drops int, dropPercentage float64) []float64 {
	ladder := make([]float64, drops+1)
	ladder[0] = RoundHalf(initialWeight)
	for i := 1; i <= drops; i++ {
		ladder[i] = RoundHalf(ladder[i-1] * (1 - dropPercentage/100))
	}
	return ladder
}

// BackoffWeight derives the backoff working weight from the top-set weight.
func BackoffWeight(topWeight float64, backoffPercentage float64) float64 {
	return RoundHalf(topWeight * (1 - backoffPercentage/100))
}
