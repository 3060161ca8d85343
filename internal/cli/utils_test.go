package cli

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/hyperjump/osusume/internal/models"
)

func sampleResponse() *models.RecommendResponse {
	return &models.RecommendResponse{
		Kind:       models.KindProduct,
		ProductIDs: []int64{1},
		Generation: 3,
		QueryTime:  4,
		Total:      2,
		Results: []*models.Recommendation{
			{Rank: 1, Score: 0.8123, Product: &models.Product{ID: 2, Name: "Blue Shoe", Category: "Fashion", Description: "comfortable blue running shoe", Price: 55, Rating: 4.1}},
			{Rank: 2, Score: 0.1, Product: &models.Product{ID: 4, Name: "Wool Scarf", Category: "Fashion"}},
		},
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"JSON", OutputJSON, false},
		{" compact ", OutputCompact, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOutputFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestWriteRecommendations_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRecommendations(&buf, sampleResponse(), OutputJSON); err != nil {
		t.Fatalf("WriteRecommendations(json): %v", err)
	}
	var decoded models.RecommendResponse
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Generation != 3 || len(decoded.Results) != 2 || decoded.Results[0].Product.ID != 2 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWriteRecommendations_text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRecommendations(&buf, sampleResponse(), OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, sub := range []string{"Found 2 recommendations", "similar to product 1", "4ms", "generation 3",
		"Rank: 1 | Score: 0.8123", "ID: 2", "Blue Shoe", "Category: Fashion", "comfortable blue running shoe"} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
	if strings.Contains(out, "same category") {
		t.Error("non-fallback response should not mention fallback")
	}
}

func TestWriteRecommendations_textKinds(t *testing.T) {
	tests := []struct {
		resp *models.RecommendResponse
		want string
	}{
		{&models.RecommendResponse{Kind: models.KindCart, ProductIDs: []int64{1, 2}}, "similar to cart [1 2]"},
		{&models.RecommendResponse{Kind: models.KindSearch, Query: "red shoe"}, `matching "red shoe"`},
		{&models.RecommendResponse{Kind: models.KindProduct, ProductIDs: []int64{7}, Fallback: true}, "same category"},
		{&models.RecommendResponse{Kind: models.KindSearch, Query: "sheo", CorrectedQuery: "shoe"}, `Showing results for "shoe"`},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		if err := WriteRecommendations(&buf, tt.resp, OutputText); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), tt.want) {
			t.Errorf("output missing %q:\n%s", tt.want, buf.String())
		}
	}
}

func TestWriteRecommendations_compact(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRecommendations(&buf, sampleResponse(), OutputCompact); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), buf.String())
	}
	if lines[0] != "1\t2\t0.8123\tBlue Shoe\tFashion" {
		t.Errorf("first line = %q", lines[0])
	}
}

func TestWriteRecommendations_unknownFormatTreatedAsText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRecommendations(&buf, &models.RecommendResponse{}, OutputFormat("unknown")); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Found 0 recommendations") {
		t.Errorf("unknown format should fall back to text; got %q", buf.String())
	}
}

func TestWriteStatus(t *testing.T) {
	st := &models.StatusResponse{
		Catalog: models.CatalogStats{
			Ready: true, Generation: 2, BuildID: "b-1", BuiltAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
			Products: 4, VocabularySize: 17,
		},
		StoredProducts: 4,
		DiskUsageBytes: 2048,
		BreakerState:   "closed",
		Config:         models.StatusConfig{DefaultLimit: 5, MaxLimit: 50, DatabasePath: "/tmp/catalog.db"},
	}
	var buf bytes.Buffer
	if err := WriteStatus(&buf, st, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, sub := range []string{"generation 2 (b-1)", "2024-05-01 10:00:00", "Vocabulary size:  17", "2.0 KiB", "closed", "/tmp/catalog.db", "default 5, max 50"} {
		if !strings.Contains(out, sub) {
			t.Errorf("status output missing %q:\n%s", sub, out)
		}
	}

	buf.Reset()
	if err := WriteStatus(&buf, &models.StatusResponse{}, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "not loaded") {
		t.Errorf("empty status should report not loaded:\n%s", buf.String())
	}

	buf.Reset()
	if err := WriteStatus(&buf, st, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.StatusResponse
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Catalog.VocabularySize != 17 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.n); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestTruncateWords(t *testing.T) {
	tests := []struct {
		name     string
		s        string
		maxWords int
		want     string
	}{
		{"empty", "", 3, ""},
		{"few words", "one two", 3, "one two"},
		{"exact", "one two three", 3, "one two three"},
		{"more", "one two three four", 3, "one two three..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateWords(tt.s, tt.maxWords); got != tt.want {
				t.Errorf("TruncateWords(%q, %d) = %q, want %q", tt.s, tt.maxWords, got, tt.want)
			}
		})
	}
}

func TestPrintRecommendations(t *testing.T) {
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	defer func() {
		os.Stdout = oldStdout
		_ = w.Close()
	}()
	PrintRecommendations(&models.RecommendResponse{Kind: models.KindSearch, Query: "x"})
	_ = w.Close()
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	if !strings.Contains(buf.String(), "Found 0 recommendations") {
		t.Errorf("PrintRecommendations should write to stdout; got %q", buf.String())
	}
}
