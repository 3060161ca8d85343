// Package catalog provides immutable, versioned catalog snapshots and the source interface
// they are pulled from.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/osusume/internal/models"
)

// ErrDuplicateID is returned when two products in one snapshot share an identifier.
var ErrDuplicateID = errors.New("duplicate product id")

// Snapshot is an ordered, immutable set of products tagged with a generation number.
// Accessors return copies so callers cannot mutate a published snapshot.
type Snapshot struct {
	generation uint64
	buildID    string
	builtAt    time.Time
	products   []models.Product
	byID       map[int64]int
}

// NewSnapshot copies products into a new snapshot at the given generation.
// Product order is preserved. Returns ErrDuplicateID if an id appears twice.
func NewSnapshot(generation uint64, products []models.Product) (*Snapshot, error) {
	s := &Snapshot{
		generation: generation,
		buildID:    uuid.NewString(),
		builtAt:    time.Now(),
		products:   make([]models.Product, len(products)),
		byID:       make(map[int64]int, len(products)),
	}
	copy(s.products, products)
	for i, p := range s.products {
		if _, dup := s.byID[p.ID]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, p.ID)
		}
		s.byID[p.ID] = i
	}
	return s, nil
}

// Empty returns a snapshot with no products at generation 0.
func Empty() *Snapshot {
	s, _ := NewSnapshot(0, nil)
	return s
}

// Generation returns the snapshot's generation marker.
func (s *Snapshot) Generation() uint64 { return s.generation }

// BuildID returns a unique identifier for this snapshot build.
func (s *Snapshot) BuildID() string { return s.buildID }

// BuiltAt returns when the snapshot was created.
func (s *Snapshot) BuiltAt() time.Time { return s.builtAt }

// Len returns the number of products.
func (s *Snapshot) Len() int { return len(s.products) }

// At returns the product at position i.
func (s *Snapshot) At(i int) models.Product { return s.products[i] }

// Get returns the product with the given id.
func (s *Snapshot) Get(id int64) (models.Product, bool) {
	i, ok := s.byID[id]
	if !ok {
		return models.Product{}, false
	}
	return s.products[i], true
}

// Contains reports whether id is part of the snapshot.
func (s *Snapshot) Contains(id int64) bool {
	_, ok := s.byID[id]
	return ok
}

// IDs returns product ids in snapshot order.
func (s *Snapshot) IDs() []int64 {
	ids := make([]int64, len(s.products))
	for i, p := range s.products {
		ids[i] = p.ID
	}
	return ids
}

// Products returns a copy of all products in snapshot order.
func (s *Snapshot) Products() []models.Product {
	out := make([]models.Product, len(s.products))
	copy(out, s.products)
	return out
}

// ByCategory returns up to limit products in category (exact match), skipping excludeID,
// in snapshot order. A limit <= 0 returns nothing.
func (s *Snapshot) ByCategory(category string, excludeID int64, limit int) []models.Product {
	if limit <= 0 {
		return nil
	}
	var out []models.Product
	for _, p := range s.products {
		if p.Category != category || p.ID == excludeID {
			continue
		}
		out = append(out, p)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// Categories returns the distinct non-empty categories, sorted.
func (s *Snapshot) Categories() []string {
	seen := make(map[string]struct{})
	for _, p := range s.products {
		if p.Category != "" {
			seen[p.Category] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
