package vector

import (
	"math"

	"github.com/hyperjump/osusume/pkg/utils"
)

// Dot returns the inner product of two sparse vectors.
func Dot(a, b Sparse) float64 {
	var dot float64
	i, j := 0, 0
	for i < len(a.Indices) && j < len(b.Indices) {
		switch {
		case a.Indices[i] == b.Indices[j]:
			dot += a.Values[i] * b.Values[j]
			i++
			j++
		case a.Indices[i] < b.Indices[j]:
			i++
		default:
			j++
		}
	}
	return dot
}

// Cosine returns the cosine similarity of a and b in [0, 1]. It is 0 when either vector is zero.
func Cosine(a, b Sparse) float64 {
	na, nb := a.Norm(), b.Norm()
	if na == 0 || nb == 0 {
		return 0
	}
	return cosineWithNorms(a, b, na, nb)
}

func cosineWithNorms(a, b Sparse, na, nb float64) float64 {
	if na == 0 || nb == 0 {
		return 0
	}
	s := Dot(a, b) / (na * nb)
	if math.IsNaN(s) {
		return 0
	}
	return utils.Clamp(s, 0, 1)
}
