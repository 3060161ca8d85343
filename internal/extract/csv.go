package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

func extractCSV(content []byte) ([]record, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse CSV: %w", err)
	}
	return recordsFromRows(rows)
}
