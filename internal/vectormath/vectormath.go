// Package vectormath provides the float32 vector operations shared by
// the embedding adapters and vector store backends.
package vectormath

import "math"

// Dot returns the inner product of a and b.
// For L2-normalised vectors this equals the cosine similarity.
func Dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Normalise scales v to unit L2 length in place and returns it.
// Zero vectors are returned unchanged.
func Normalise(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
	return v
}
