package catalog

import (
	"context"

	"github.com/hyperjump/osusume/internal/models"
)

// Source supplies the full current product set. There is no incremental contract:
// every call returns everything.
type Source interface {
	Products(ctx context.Context) ([]models.Product, error)
}

// StaticSource is a fixed in-memory product list.
type StaticSource []models.Product

// Products returns a copy of the list.
func (s StaticSource) Products(ctx context.Context) ([]models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]models.Product, len(s))
	copy(out, s)
	return out, nil
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) ([]models.Product, error)

// Products calls f.
func (f SourceFunc) Products(ctx context.Context) ([]models.Product, error) {
	return f(ctx)
}
