// Package vectorize turns product text into TF-IDF term-weight vectors.
package vectorize

import (
	"strings"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/token/stop"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
)

// DefaultMinTokenLength drops single-character tokens.
const DefaultMinTokenLength = 2

// Analyzer splits text into lower-cased, stop-filtered terms.
type Analyzer struct {
	tokenizer      analysis.Tokenizer
	lower          analysis.TokenFilter
	stop           analysis.TokenFilter
	minTokenLength int
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*analyzerConfig)

type analyzerConfig struct {
	minTokenLength int
	extraStopWords []string
}

// WithMinTokenLength sets the minimum rune length a term must have to be kept.
func WithMinTokenLength(n int) AnalyzerOption {
	return func(c *analyzerConfig) {
		if n > 0 {
			c.minTokenLength = n
		}
	}
}

// WithExtraStopWords adds words to the default English stop list.
func WithExtraStopWords(words ...string) AnalyzerOption {
	return func(c *analyzerConfig) {
		c.extraStopWords = append(c.extraStopWords, words...)
	}
}

// NewAnalyzer builds an analyzer from bleve's unicode tokenizer, lowercase filter and
// stop-token filter.
func NewAnalyzer(opts ...AnalyzerOption) *Analyzer {
	cfg := analyzerConfig{minTokenLength: DefaultMinTokenLength}
	for _, o := range opts {
		o(&cfg)
	}
	tm := analysis.NewTokenMap()
	for _, w := range englishStopWords {
		tm.AddToken(w)
	}
	for _, w := range cfg.extraStopWords {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			tm.AddToken(w)
		}
	}
	return &Analyzer{
		tokenizer:      unicode.NewUnicodeTokenizer(),
		lower:          lowercase.NewLowerCaseFilter(),
		stop:           stop.NewStopTokensFilter(tm),
		minTokenLength: cfg.minTokenLength,
	}
}

// Terms returns the retained terms of text in order, duplicates included. Invalid UTF-8
// sequences separate terms; bleve's tokenizer would otherwise stop at the first one.
func (a *Analyzer) Terms(text string) []string {
	text = strings.ToValidUTF8(text, " ")
	if strings.TrimSpace(text) == "" {
		return nil
	}
	ts := a.tokenizer.Tokenize([]byte(text))
	ts = a.lower.Filter(ts)
	ts = a.stop.Filter(ts)
	out := make([]string, 0, len(ts))
	for _, tok := range ts {
		if utf8.RuneCount(tok.Term) < a.minTokenLength {
			continue
		}
		out = append(out, string(tok.Term))
	}
	return out
}
