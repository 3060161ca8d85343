// Package vector provides sparse term-weight vectors and a cosine similarity index over them.
package vector

import (
	"math"
	"sort"
)

// Sparse is a term-weight vector stored as strictly increasing column indices with their
// weights. The zero value is the zero vector.
type Sparse struct {
	Indices []int
	Values  []float64
}

// NewSparse builds a vector from column -> weight. Zero weights are dropped.
func NewSparse(weights map[int]float64) Sparse {
	idx := make([]int, 0, len(weights))
	for i, w := range weights {
		if w != 0 {
			idx = append(idx, i)
		}
	}
	sort.Ints(idx)
	vals := make([]float64, len(idx))
	for k, i := range idx {
		vals[k] = weights[i]
	}
	return Sparse{Indices: idx, Values: vals}
}

// Len is the number of non-zero entries.
func (s Sparse) Len() int { return len(s.Indices) }

// IsZero reports whether every weight is zero.
func (s Sparse) IsZero() bool {
	for _, v := range s.Values {
		if v != 0 {
			return false
		}
	}
	return true
}

// Get returns the weight at column i.
func (s Sparse) Get(i int) float64 {
	k := sort.SearchInts(s.Indices, i)
	if k < len(s.Indices) && s.Indices[k] == i {
		return s.Values[k]
	}
	return 0
}

// Norm returns the L2 norm.
func (s Sparse) Norm() float64 {
	var sum float64
	for _, v := range s.Values {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Normalize returns a copy scaled to unit L2 norm. The zero vector is returned unchanged.
func (s Sparse) Normalize() Sparse {
	n := s.Norm()
	out := s.Clone()
	if n == 0 {
		return out
	}
	for i := range out.Values {
		out.Values[i] /= n
	}
	return out
}

// Clone returns a deep copy.
func (s Sparse) Clone() Sparse {
	out := Sparse{
		Indices: make([]int, len(s.Indices)),
		Values:  make([]float64, len(s.Values)),
	}
	copy(out.Indices, s.Indices)
	copy(out.Values, s.Values)
	return out
}

// Mean returns the element-wise mean of vs. It is not re-normalized.
func Mean(vs []Sparse) Sparse {
	if len(vs) == 0 {
		return Sparse{}
	}
	sum := make(map[int]float64)
	for _, v := range vs {
		for k, i := range v.Indices {
			sum[i] += v.Values[k]
		}
	}
	n := float64(len(vs))
	for i := range sum {
		sum[i] /= n
	}
	return NewSparse(sum)
}
