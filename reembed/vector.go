package reembed

import "math"

// NormalizeVector scales v to unit length and returns a new slice.
// Zero and empty vectors are returned as zero vectors of the same length.
func NormalizeVector(v []float32) []float32 {
	result := make([]float32, len(v))

	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}
	if sum == 0 {
		return result
	}

	norm := math.Sqrt(sum)
	for i, val := range v {
		result[i] = float32(float64(val) / norm)
	}
	return result
}
