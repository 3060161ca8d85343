package indexer

import (
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/pkg/utils"
)

// NormalizeProduct trims the text fields of p and collapses internal whitespace runs.
// Negative prices and ratings are clamped to 0 and ratings above 5 to 5.
func NormalizeProduct(p models.Product) models.Product {
	p.Name = utils.CollapseSpaces(p.Name)
	p.Category = utils.CollapseSpaces(p.Category)
	p.Description = utils.CollapseSpaces(p.Description)
	p.Image = utils.CollapseSpaces(p.Image)
	if p.Price < 0 {
		p.Price = 0
	}
	p.Rating = utils.Clamp(p.Rating, 0, 5)
	return p
}

// NormalizeProducts applies NormalizeProduct to every product in place.
func NormalizeProducts(products []models.Product) {
	for i := range products {
		products[i] = NormalizeProduct(products[i])
	}
}
