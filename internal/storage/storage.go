// Package storage defines the persistence interface for catalog products.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/osusume/internal/models"
)

// ErrNotFound is returned when a product id is not stored.
var ErrNotFound = errors.New("product not found")

// Storage defines product persistence operations.
type Storage interface {
	// Product operations
	CreateProduct(ctx context.Context, p *models.Product) error
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	ListProducts(ctx context.Context, offset, limit int) ([]*models.Product, error)
	ListByCategory(ctx context.Context, category string, excludeID int64, limit int) ([]*models.Product, error)
	Categories(ctx context.Context) ([]string, error)

	// Batch operations
	UpsertProducts(ctx context.Context, products []models.Product) error
	ReplaceAll(ctx context.Context, products []models.Product) error

	// Products returns the full catalog ordered by id.
	Products(ctx context.Context) ([]models.Product, error)

	// Stats
	CountProducts(ctx context.Context) (int64, error)

	Close() error
}
