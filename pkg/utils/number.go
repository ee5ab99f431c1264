package utils

import "math"

func RoundWithTwoDecimalPlace(f float64) float64 {
	if f == 0 {
		return 0
	}

	return math.Round(f*100) / 100
}

// Clamp limita f ao intervalo [lower, upper]
func Clamp(f, lower, upper float64) float64 {
	return math.Max(lower, math.Min(upper, f))
}
