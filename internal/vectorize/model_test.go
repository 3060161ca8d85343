package vectorize

import (
	"math"
	"reflect"
	"testing"

	"github.com/hyperjump/osusume/internal/catalog"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/vector"
)

func testSnapshot(t *testing.T) *catalog.Snapshot {
	t.Helper()
	snap, err := catalog.NewSnapshot(1, []models.Product{
		{ID: 1, Name: "Red Shoe", Category: "Footwear", Description: "running shoe"},
		{ID: 2, Name: "Blue Shoe", Category: "Footwear", Description: "running shoe"},
		{ID: 3, Name: "Laptop", Category: "Electronics", Description: "gaming laptop"},
	})
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	return snap
}

func TestAnalyzer_Terms(t *testing.T) {
	a := NewAnalyzer()
	got := a.Terms("The Red shoe, a BEST-seller x")
	want := []string{"red", "shoe", "best", "seller"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Terms() = %v, want %v", got, want)
	}
	if got := a.Terms("   "); len(got) != 0 {
		t.Errorf("blank text: got %v", got)
	}
}

func TestAnalyzer_TermsInvalidUTF8(t *testing.T) {
	a := NewAnalyzer()
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"stray byte", "gaming laptop \xff powerful keyboard", []string{"gaming", "laptop", "powerful", "keyboard"}},
		{"latin-1 accent", "caf\xe9 latte powerful keyboard", []string{"caf", "latte", "powerful", "keyboard"}},
		{"leading bytes", "\xff\xfe bad utf8 ÉCLAIR", []string{"bad", "utf8", "éclair"}},
		{"only invalid", "\xff\xfe", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Terms(tt.text)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Terms(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestFit_InvalidUTF8KeepsLaterFields(t *testing.T) {
	snap, err := catalog.NewSnapshot(1, []models.Product{
		{ID: 1, Name: "Caf\xe9 Table", Category: "Furniture", Description: "oak dining table"},
		{ID: 2, Name: "Laptop", Category: "Electronics", Description: "powerful gaming laptop"},
	})
	if err != nil {
		t.Fatal(err)
	}
	m := Fit(snap)
	for _, term := range []string{"table", "furniture", "oak", "dining"} {
		if _, ok := m.IDF(term); !ok {
			t.Errorf("term %q missing from vocabulary %v", term, m.Terms())
		}
	}
	if v := m.Transform("oak furniture"); v.IsZero() {
		t.Error("query over fields after the invalid byte should match")
	}
}

func TestAnalyzer_Options(t *testing.T) {
	a := NewAnalyzer(WithMinTokenLength(4), WithExtraStopWords("Shoe"))
	got := a.Terms("red shoe running")
	want := []string{"running"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Terms() = %v, want %v", got, want)
	}
}

func TestFit_VocabularyAndIDF(t *testing.T) {
	m := Fit(testSnapshot(t))
	want := []string{"blue", "electronics", "footwear", "gaming", "laptop", "red", "running", "shoe"}
	if got := m.Terms(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Terms() = %v, want %v", got, want)
	}
	if m.VocabularySize() != len(want) {
		t.Errorf("VocabularySize() = %d", m.VocabularySize())
	}
	shoe, _ := m.IDF("shoe")
	red, _ := m.IDF("red")
	if !(shoe < red) {
		t.Errorf("expected common term to have lower idf: shoe=%f red=%f", shoe, red)
	}
	wantRed := math.Log(4.0/2.0) + 1
	if math.Abs(red-wantRed) > 1e-12 {
		t.Errorf("IDF(red) = %f, want %f", red, wantRed)
	}
	if _, ok := m.IDF("unknown"); ok {
		t.Error("unknown term should not be in vocabulary")
	}
}

func TestFit_VectorsUnitNorm(t *testing.T) {
	m := Fit(testSnapshot(t))
	vs := m.Vectors()
	if len(vs) != 3 || len(m.IDs()) != 3 {
		t.Fatalf("got %d vectors", len(vs))
	}
	for i, v := range vs {
		if math.Abs(v.Norm()-1) > 1e-9 {
			t.Errorf("vector %d norm = %f", i, v.Norm())
		}
	}
}

func TestFit_EmptyAndBlankProducts(t *testing.T) {
	m := Fit(catalog.Empty())
	if m.VocabularySize() != 0 {
		t.Errorf("empty snapshot vocab = %d", m.VocabularySize())
	}
	if !m.Transform("red shoe").IsZero() {
		t.Error("expected zero vector against empty vocabulary")
	}

	snap, err := catalog.NewSnapshot(1, []models.Product{{ID: 1}, {ID: 2, Name: "lamp"}})
	if err != nil {
		t.Fatal(err)
	}
	m = Fit(snap)
	if !m.Vectors()[0].IsZero() {
		t.Error("product without terms should have the zero vector")
	}
}

func TestTransform_IdempotentAndNonMutating(t *testing.T) {
	m := Fit(testSnapshot(t))
	before := m.VocabularySize()
	a := m.Transform("gaming keyboard")
	b := m.Transform("gaming keyboard")
	if !reflect.DeepEqual(a, b) {
		t.Errorf("Transform not idempotent: %v vs %v", a, b)
	}
	if m.VocabularySize() != before {
		t.Error("Transform mutated the vocabulary")
	}
	if _, ok := m.IDF("keyboard"); ok {
		t.Error("unknown query term was added")
	}
	if a.Len() != 1 || math.Abs(a.Norm()-1) > 1e-9 {
		t.Errorf("expected single unit entry, got %v", a)
	}
	if !m.Transform("").IsZero() || !m.Transform("  \t").IsZero() {
		t.Error("blank query should be the zero vector")
	}
}

func TestTransform_Cached(t *testing.T) {
	m := Fit(testSnapshot(t), WithQueryCache(4))
	first := m.Transform("red   shoe")
	second := m.Transform("red shoe")
	if !reflect.DeepEqual(first, second) {
		t.Error("cached vector differs")
	}
	if m.cache.Len() != 1 {
		t.Errorf("cache entries = %d, want 1", m.cache.Len())
	}
	second.Values[0] = 42
	if reflect.DeepEqual(m.Transform("red shoe"), second) {
		t.Error("cache returned a shared vector")
	}
}

func TestQueryCache_Eviction(t *testing.T) {
	c := NewQueryCache(2)
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected miss")
	}
	c.Set("a", vector.NewSparse(map[int]float64{0: 1}))
	c.Set("b", vector.NewSparse(map[int]float64{1: 1}))
	c.Set("c", vector.NewSparse(map[int]float64{2: 1})) // evicts a
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be evicted")
	}
	if v, ok := c.Get("c"); !ok || v.Get(2) != 1 {
		t.Errorf("Get(c) = %v, %v", v, ok)
	}
}
