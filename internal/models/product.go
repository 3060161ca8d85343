// Package models defines core data structures for products, recommendation queries, and results.
package models

import (
	"strings"
	"time"
)

// Product is a catalog record. Only Name, Category and Description feed the vectorizer;
// Price, Rating and Image are carried through to callers untouched.
type Product struct {
	ID          int64     `json:"product_id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Category    string    `json:"category" db:"category"`
	Description string    `json:"description" db:"description"`
	Price       float64   `json:"price" db:"price"`
	Rating      float64   `json:"rating" db:"rating"`
	Image       string    `json:"image,omitempty" db:"image"`
	CreatedAt   time.Time `json:"created_at,omitempty" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// Text returns the concatenated metadata used for vectorization: name, category, description.
// Empty fields contribute an empty string.
func (p *Product) Text() string {
	return strings.Join([]string{p.Name, p.Category, p.Description}, " ")
}

// ProductInput is the input for creating or replacing a product.
type ProductInput struct {
	ID          int64   `json:"product_id" validate:"required,gt=0"`
	Name        string  `json:"name" validate:"required,max=256"`
	Category    string  `json:"category" validate:"max=128"`
	Description string  `json:"description" validate:"max=8192"`
	Price       float64 `json:"price" validate:"gte=0"`
	Rating      float64 `json:"rating" validate:"gte=0,lte=5"`
	Image       string  `json:"image,omitempty" validate:"omitempty,max=2048"`
}

// Product converts the input into a Product record.
func (in *ProductInput) Product() *Product {
	return &Product{
		ID:          in.ID,
		Name:        in.Name,
		Category:    in.Category,
		Description: in.Description,
		Price:       in.Price,
		Rating:      in.Rating,
		Image:       in.Image,
	}
}
