package embedder

import "math"

// NormalizeVector returns a copy of v scaled to unit length, so dot products
// between normalized vectors are cosine similarities. The magnitude is
// accumulated in float64 to keep long vectors from losing precision. A zero
// vector has no direction and comes back as all zeros.
func NormalizeVector(v []float32) []float32 {
	out := make([]float32, len(v))

	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return out
	}

	inv := 1 / math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

// NormalizeVectors normalizes a batch in place, replacing each element with
// its unit-length copy.
func NormalizeVectors(vectors [][]float32) {
	for i, v := range vectors {
		vectors[i] = NormalizeVector(v)
	}
}
