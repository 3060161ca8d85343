package models

import (
	"fmt"
	"strings"
)

// CartQuery asks for products similar to a set of products.
// A nil Limit means "use the configured default"; an explicit 0 yields no results.
type CartQuery struct {
	ProductIDs []int64 `json:"product_ids"`
	Limit      *int    `json:"limit,omitempty"`
}

// Validate checks that at least one product id was supplied.
func (q *CartQuery) Validate() error {
	if len(q.ProductIDs) == 0 {
		return fmt.Errorf("product_ids cannot be empty")
	}
	return nil
}

// TextQuery asks for products similar to free text.
type TextQuery struct {
	Query string `json:"query"`
	Limit *int   `json:"limit,omitempty"`
}

// Normalize trims surrounding whitespace from the query text.
func (q *TextQuery) Normalize() {
	q.Query = strings.TrimSpace(q.Query)
}

// ResolveLimit returns the effective result count: def when limit is nil, limit capped at max
// otherwise. Non-positive limits are passed through unchanged (they produce an empty result).
func ResolveLimit(limit *int, def, max int) int {
	if limit == nil {
		return def
	}
	n := *limit
	if max > 0 && n > max {
		return max
	}
	return n
}

// IntPtr returns a pointer to n. Handy for building queries with an explicit limit.
func IntPtr(n int) *int {
	return &n
}
