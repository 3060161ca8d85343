package extract

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/goccy/go-json"
)

// extractJSON reads an array of product objects. Keys go through the same aliases as
// csv headers and values may be strings or numbers.
func extractJSON(content []byte) ([]record, error) {
	dec := json.NewDecoder(bytes.NewReader(content))
	dec.UseNumber()
	var records []map[string]interface{}
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}
	out := make([]record, 0, len(records))
	for i, rec := range records {
		keys := make([]string, 0, len(rec))
		for k := range rec {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make(map[string]string, len(rec))
		for _, k := range keys {
			v := rec[k]
			field, ok := columnAliases[normalizeHeader(k)]
			if !ok {
				continue
			}
			if _, dup := fields[field]; dup {
				continue
			}
			fields[field] = jsonString(v)
		}
		p, err := productFromFields(fields)
		if err != nil {
			return nil, &RowError{Row: i + 1, Err: err}
		}
		out = append(out, record{row: i + 1, product: p})
	}
	return out, nil
}

func jsonString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
