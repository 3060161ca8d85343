package vectorize

import (
	"math"
	"sort"
	"strings"

	"github.com/hyperjump/osusume/internal/catalog"
	"github.com/hyperjump/osusume/internal/vector"
)

// Model is a fitted TF-IDF vectorizer for one catalog snapshot. It is immutable after Fit
// apart from its query cache.
type Model struct {
	analyzer   *Analyzer
	vocabulary map[string]int
	terms      []string
	idf        []float64
	docFreq    []int
	ids        []int64
	vectors    []vector.Sparse
	cache      *QueryCache
}

// Option configures Fit.
type Option func(*fitConfig)

type fitConfig struct {
	analyzer  *Analyzer
	cacheSize int
}

// WithAnalyzer replaces the default analyzer.
func WithAnalyzer(a *Analyzer) Option {
	return func(c *fitConfig) {
		if a != nil {
			c.analyzer = a
		}
	}
}

// WithQueryCache enables an LRU of up to n transformed query vectors.
func WithQueryCache(n int) Option {
	return func(c *fitConfig) {
		c.cacheSize = n
	}
}

// Fit builds the vocabulary and IDF table from snap and vectorizes every product.
// IDF is ln((1+N)/(1+df)) + 1. Product weights are raw counts times IDF, unit-normalized.
func Fit(snap *catalog.Snapshot, opts ...Option) *Model {
	cfg := fitConfig{}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.analyzer == nil {
		cfg.analyzer = NewAnalyzer()
	}

	n := snap.Len()
	counts := make([]map[string]int, n)
	df := make(map[string]int)
	ids := make([]int64, n)
	for i := 0; i < n; i++ {
		p := snap.At(i)
		ids[i] = p.ID
		tc := make(map[string]int)
		for _, t := range cfg.analyzer.Terms(p.Text()) {
			tc[t]++
		}
		for t := range tc {
			df[t]++
		}
		counts[i] = tc
	}

	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	vocab := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	docFreq := make([]int, len(terms))
	for col, t := range terms {
		vocab[t] = col
		docFreq[col] = df[t]
		idf[col] = math.Log(float64(1+n)/float64(1+df[t])) + 1
	}

	m := &Model{
		analyzer:   cfg.analyzer,
		vocabulary: vocab,
		terms:      terms,
		idf:        idf,
		docFreq:    docFreq,
		ids:        ids,
		vectors:    make([]vector.Sparse, n),
	}
	for i, tc := range counts {
		m.vectors[i] = m.weigh(tc)
	}
	if cfg.cacheSize > 0 {
		m.cache = NewQueryCache(cfg.cacheSize)
	}
	return m
}

func (m *Model) weigh(tc map[string]int) vector.Sparse {
	w := make(map[int]float64, len(tc))
	for t, c := range tc {
		col, ok := m.vocabulary[t]
		if !ok {
			continue
		}
		w[col] = float64(c) * m.idf[col]
	}
	return vector.NewSparse(w).Normalize()
}

// Transform vectorizes text against the fitted vocabulary. Unknown terms are ignored.
// Blank text yields the zero vector.
func (m *Model) Transform(text string) vector.Sparse {
	key := strings.Join(strings.Fields(text), " ")
	if key == "" {
		return vector.Sparse{}
	}
	if m.cache != nil {
		if v, ok := m.cache.Get(key); ok {
			return v
		}
	}
	tc := make(map[string]int)
	for _, t := range m.analyzer.Terms(key) {
		tc[t]++
	}
	v := m.weigh(tc)
	if m.cache != nil {
		m.cache.Set(key, v)
	}
	return v
}

// IDs returns product ids in snapshot order.
func (m *Model) IDs() []int64 {
	out := make([]int64, len(m.ids))
	copy(out, m.ids)
	return out
}

// Vectors returns the product vectors aligned with IDs.
func (m *Model) Vectors() []vector.Sparse {
	out := make([]vector.Sparse, len(m.vectors))
	copy(out, m.vectors)
	return out
}

// Terms returns the vocabulary in column order.
func (m *Model) Terms() []string {
	out := make([]string, len(m.terms))
	copy(out, m.terms)
	return out
}

// IDF returns the inverse document frequency of term and whether it is in the vocabulary.
func (m *Model) IDF(term string) (float64, bool) {
	col, ok := m.vocabulary[term]
	if !ok {
		return 0, false
	}
	return m.idf[col], true
}

// DocFrequency returns how many products contain term.
func (m *Model) DocFrequency(term string) int {
	col, ok := m.vocabulary[term]
	if !ok {
		return 0
	}
	return m.docFreq[col]
}

// Analyzer returns the analyzer the model was fitted with.
func (m *Model) Analyzer() *Analyzer { return m.analyzer }

// VocabularySize is the number of distinct terms.
func (m *Model) VocabularySize() int { return len(m.terms) }
