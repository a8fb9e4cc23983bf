package similarity

import "math"

// Cosine returns the cosine similarity of a and b in [-1, 1].
// Empty, all-zero or mismatched vectors carry no signal and score 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	switch {
	case sim > 1:
		return 1
	case sim < -1:
		return -1
	}
	return sim
}

// Mean is the element-wise average of vectors of equal length. Vectors with a different length
// than the first one are skipped. Returns nil for no input.
func Mean(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}

	dim := len(vectors[0])
	sum := make([]float64, dim)
	n := 0
	for _, v := range vectors {
		if len(v) != dim {
			continue
		}
		for i, x := range v {
			sum[i] += float64(x)
		}
		n++
	}

	out := make([]float32, dim)
	for i := range sum {
		out[i] = float32(sum[i] / float64(n))
	}
	return out
}

// WeightedMean averages vectors by weight and L2-normalises the result. Returns nil when the
// weights sum to zero.
func WeightedMean(vectors [][]float32, weights []float64) []float32 {
	if len(vectors) == 0 || len(vectors) != len(weights) {
		return nil
	}

	dim := len(vectors[0])
	sum := make([]float64, dim)
	total := 0.0
	for j, v := range vectors {
		if len(v) != dim || weights[j] <= 0 {
			continue
		}
		for i, x := range v {
			sum[i] += float64(x) * weights[j]
		}
		total += weights[j]
	}
	if total == 0 {
		return nil
	}

	norm := 0.0
	for i := range sum {
		sum[i] /= total
		norm += sum[i] * sum[i]
	}
	norm = math.Sqrt(norm)

	out := make([]float32, dim)
	for i := range sum {
		if norm > 0 {
			out[i] = float32(sum[i] / norm)
		}
	}
	return out
}

// IsZero reports whether v carries no signal.
func IsZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
