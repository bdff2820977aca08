package gallery

import "math"

// Correlation computes the Pearson correlation between two descriptors,
// clamped to [-1, 1]. Identical descriptors score 1. Invalid input
// (shape mismatch, empty, or constant vectors) scores -1, the minimum,
// so it can never win a match.
func Correlation(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return -1
	}

	n := float64(len(a))
	var sumA, sumB float64
	for i := range a {
		sumA += float64(a[i])
		sumB += float64(b[i])
	}
	meanA := sumA / n
	meanB := sumB / n

	var cov, varA, varB float64
	for i := range a {
		da := float64(a[i]) - meanA
		db := float64(b[i]) - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}

	if varA == 0 || varB == 0 {
		return -1
	}

	r := cov / (math.Sqrt(varA) * math.Sqrt(varB))
	// Clamp to [-1, 1] to handle floating point errors.
	if r > 1 {
		r = 1
	}
	if r < -1 {
		r = -1
	}
	return r
}

// EuclideanDistance computes the L2 distance between two descriptors.
// A shape mismatch returns +Inf so it can never be the nearest.
func EuclideanDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
