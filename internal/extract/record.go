package extract

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hyperjump/osusume/internal/models"
)

// RowError reports a record that could not be turned into a product. Row is 1-based and
// counts data records, not the header.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

var (
	errMissingID     = errors.New("missing product_id")
	errNonPositiveID = errors.New("product_id must be positive")
)

// record is a parsed product and the 1-based data record it came from.
type record struct {
	row     int
	product models.Product
}

// columnAliases maps normalized header names to product fields.
var columnAliases = map[string]string{
	"product_id":  "id",
	"productid":   "id",
	"id":          "id",
	"name":        "name",
	"title":       "name",
	"category":    "category",
	"description": "description",
	"desc":        "description",
	"price":       "price",
	"rating":      "rating",
	"image":       "image",
	"image_url":   "image",
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	return strings.Join(strings.Fields(h), "_")
}

// headerIndex maps a header row to field -> column position. The first column for a field
// wins; unknown columns are ignored.
func headerIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int)
	for i, h := range header {
		field, ok := columnAliases[normalizeHeader(h)]
		if !ok {
			continue
		}
		if _, dup := idx[field]; !dup {
			idx[field] = i
		}
	}
	if _, ok := idx["id"]; !ok {
		return nil, fmt.Errorf("header has no product_id column")
	}
	return idx, nil
}

// productFromFields builds a product from field -> raw value. Blank text fields become
// empty strings and malformed price or rating become 0.
func productFromFields(fields map[string]string) (models.Product, error) {
	raw := strings.TrimSpace(fields["id"])
	if raw == "" {
		return models.Product{}, errMissingID
	}
	id, err := parseID(raw)
	if err != nil {
		return models.Product{}, err
	}
	if id <= 0 {
		return models.Product{}, fmt.Errorf("%w: %d", errNonPositiveID, id)
	}
	return models.Product{
		ID:          id,
		Name:        strings.TrimSpace(fields["name"]),
		Category:    strings.TrimSpace(fields["category"]),
		Description: strings.TrimSpace(fields["description"]),
		Price:       parseFloat(fields["price"]),
		Rating:      parseFloat(fields["rating"]),
		Image:       strings.TrimSpace(fields["image"]),
	}, nil
}

// parseID accepts integers and integral floats such as "12.0" (spreadsheet exports).
func parseID(raw string) (int64, error) {
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return id, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, fmt.Errorf("product_id %q is not an integer", raw)
	}
	return int64(f), nil
}

func parseFloat(raw string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return f
}

// recordsFromRows converts a header row plus data rows. Entirely blank rows are skipped
// but still counted in record numbers.
func recordsFromRows(rows [][]string) ([]record, error) {
	if len(rows) == 0 {
		return []record{}, nil
	}
	idx, err := headerIndex(rows[0])
	if err != nil {
		return nil, err
	}
	records := make([]record, 0, len(rows)-1)
	for r, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		fields := make(map[string]string, len(idx))
		for field, col := range idx {
			if col < len(row) {
				fields[field] = row[col]
			}
		}
		p, err := productFromFields(fields)
		if err != nil {
			return nil, &RowError{Row: r + 1, Err: err}
		}
		records = append(records, record{row: r + 1, product: p})
	}
	return records, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
