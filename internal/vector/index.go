package vector

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrNotFound is returned when a query names an id the index does not hold.
	ErrNotFound = errors.New("product not found")
	// ErrEmptyInput is returned when none of the supplied ids are in the index.
	ErrEmptyInput = errors.New("no valid product ids in input")
)

// Hit is one ranked neighbour.
type Hit struct {
	ID    int64
	Score float64
}

// Set is a set of product ids to leave out of a ranking.
type Set map[int64]struct{}

// NewSet builds a Set from ids.
func NewSet(ids ...int64) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set. A nil set holds nothing.
func (s Set) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Index is an immutable brute-force cosine index over one generation's product vectors.
type Index struct {
	ids      []int64
	vectors  []Sparse
	norms    []float64
	position map[int64]int
	minScore float64
}

// IndexOption configures an Index.
type IndexOption func(*Index)

// WithMinScore drops candidates scoring below min. The default 0 keeps every candidate.
func WithMinScore(min float64) IndexOption {
	return func(idx *Index) { idx.minScore = min }
}

// NewIndex builds an index over ids and their vectors. ids must be unique and the two slices
// the same length. Vectors are held by reference and must not be mutated afterwards.
func NewIndex(ids []int64, vectors []Sparse, opts ...IndexOption) (*Index, error) {
	if len(ids) != len(vectors) {
		return nil, fmt.Errorf("ids and vectors length mismatch: %d != %d", len(ids), len(vectors))
	}
	idx := &Index{
		ids:      make([]int64, len(ids)),
		vectors:  vectors,
		norms:    make([]float64, len(vectors)),
		position: make(map[int64]int, len(ids)),
	}
	copy(idx.ids, ids)
	for i, id := range ids {
		if _, dup := idx.position[id]; dup {
			return nil, fmt.Errorf("duplicate id in index: %d", id)
		}
		idx.position[id] = i
		idx.norms[i] = vectors[i].Norm()
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx, nil
}

// Size returns the number of indexed vectors.
func (idx *Index) Size() int { return len(idx.ids) }

// Contains reports whether id is indexed.
func (idx *Index) Contains(id int64) bool {
	_, ok := idx.position[id]
	return ok
}

// Vector returns the vector for id.
func (idx *Index) Vector(id int64) (Sparse, bool) {
	i, ok := idx.position[id]
	if !ok {
		return Sparse{}, false
	}
	return idx.vectors[i], true
}

// NearestTo ranks every other indexed product against id's vector. id itself and the ids in
// exclude are never returned.
func (idx *Index) NearestTo(id int64, exclude Set, limit int) ([]Hit, error) {
	i, ok := idx.position[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return idx.rank(idx.vectors[i], idx.norms[i], func(c int64) bool {
		return c == id || exclude.Has(c)
	}, limit), nil
}

// NearestToVector ranks indexed products against v, skipping ids in exclude.
func (idx *Index) NearestToVector(v Sparse, exclude Set, limit int) []Hit {
	return idx.rank(v, v.Norm(), exclude.Has, limit)
}

// Mean averages the vectors of the ids present in the index. Unknown ids are dropped and
// returned ids list the ones that were used, in input order without duplicates.
func (idx *Index) Mean(ids []int64) (Sparse, []int64, error) {
	seen := make(Set, len(ids))
	used := make([]int64, 0, len(ids))
	vs := make([]Sparse, 0, len(ids))
	for _, id := range ids {
		if seen.Has(id) {
			continue
		}
		seen[id] = struct{}{}
		i, ok := idx.position[id]
		if !ok {
			continue
		}
		used = append(used, id)
		vs = append(vs, idx.vectors[i])
	}
	if len(vs) == 0 {
		return Sparse{}, nil, ErrEmptyInput
	}
	return Mean(vs), used, nil
}

// rank scores all candidates, orders by descending score then ascending id, and truncates.
func (idx *Index) rank(q Sparse, qnorm float64, skip func(int64) bool, limit int) []Hit {
	if limit <= 0 {
		return []Hit{}
	}
	hits := make([]Hit, 0, len(idx.ids))
	for i, id := range idx.ids {
		if skip(id) {
			continue
		}
		s := cosineWithNorms(q, idx.vectors[i], qnorm, idx.norms[i])
		if s < idx.minScore {
			continue
		}
		hits = append(hits, Hit{ID: id, Score: s})
	}
	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Score != hits[b].Score {
			return hits[a].Score > hits[b].Score
		}
		return hits[a].ID < hits[b].ID
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}
