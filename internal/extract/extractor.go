// Package extract reads catalog products from csv, xlsx and json files.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/osusume/internal/models"
)

// ErrUnsupportedFormat is returned for file extensions with no product reader.
var ErrUnsupportedFormat = errors.New("unsupported catalog format")

// SupportedExtensions lists the catalog file extensions Extract understands.
var SupportedExtensions = []string{".csv", ".xlsx", ".json"}

// IsSupported reports whether path has a supported catalog extension.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Extractor reads product records from catalog files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractProducts reads the file at path and returns its products in file order.
func (e *Extractor) ExtractProducts(path string) ([]models.Product, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return e.ExtractBytes(content, ext)
}

// ExtractBytes parses content based on the given extension.
// ext should include the leading dot (e.g. ".csv").
func (e *Extractor) ExtractBytes(content []byte, ext string) ([]models.Product, error) {
	var (
		records []record
		err     error
	)
	switch ext {
	case ".csv":
		records, err = extractCSV(content)
	case ".xlsx":
		records, err = extractExcel(content)
	case ".json":
		records, err = extractJSON(content)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	if err := checkDuplicates(records); err != nil {
		return nil, err
	}
	products := make([]models.Product, len(records))
	for i, rec := range records {
		products[i] = rec.product
	}
	return products, nil
}

// checkDuplicates reports the second occurrence of an id by its source record number.
func checkDuplicates(records []record) error {
	seen := make(map[int64]int, len(records))
	for _, rec := range records {
		id := rec.product.ID
		if first, ok := seen[id]; ok {
			return &RowError{Row: rec.row, Err: fmt.Errorf("duplicate product_id %d (first seen in record %d)", id, first)}
		}
		seen[id] = rec.row
	}
	return nil
}
