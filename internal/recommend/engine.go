// Package recommend answers similar-to-product, similar-to-cart and similar-to-text queries
// over an atomically swapped catalog generation.
package recommend

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hyperjump/osusume/internal/catalog"
	"github.com/hyperjump/osusume/internal/config"
	"github.com/hyperjump/osusume/internal/metrics"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/vector"
	"github.com/hyperjump/osusume/internal/vectorize"
	"go.uber.org/zap"
)

// generation is one published catalog: snapshot, fitted model and index built together.
type generation struct {
	snapshot *catalog.Snapshot
	model    *vectorize.Model
	index    *vector.Index
	speller  *vectorize.Speller
}

// Engine serves recommendation queries. Queries never block on each other or on Rebuild.
type Engine struct {
	config   *config.RecommendConfig
	analyzer *vectorize.Analyzer
	logger   *zap.Logger

	current   atomic.Pointer[generation]
	rebuildMu sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Stats describes the published generation.
type Stats = models.CatalogStats

// NewEngine creates an engine with no catalog loaded. A nil cfg uses the defaults.
func NewEngine(cfg *config.RecommendConfig, opts ...Option) *Engine {
	if cfg == nil {
		cfg = &config.Default().Recommend
	}
	e := &Engine{
		config: cfg,
		analyzer: vectorize.NewAnalyzer(
			vectorize.WithMinTokenLength(cfg.MinTokenLength),
			vectorize.WithExtraStopWords(cfg.StopWords...),
		),
		logger: zap.NewNop(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Rebuild fits a model and index for snap and publishes them as the current generation.
// On error the previous generation keeps serving.
func (e *Engine) Rebuild(ctx context.Context, snap *catalog.Snapshot) error {
	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()

	start := time.Now()
	gen, err := e.build(ctx, snap)
	if err != nil {
		metrics.RecordRebuild("failure", time.Since(start), 0, 0, 0)
		e.logger.Warn("Rebuild failed", zap.Error(err))
		return err
	}
	e.current.Store(gen)

	took := time.Since(start)
	metrics.RecordRebuild("success", took, snap.Generation(), snap.Len(), gen.model.VocabularySize())
	e.logger.Info("Catalog generation published",
		zap.Uint64("generation", snap.Generation()),
		zap.String("build_id", snap.BuildID()),
		zap.Int("products", snap.Len()),
		zap.Int("vocabulary", gen.model.VocabularySize()),
		zap.Duration("took", took))
	return nil
}

func (e *Engine) build(ctx context.Context, snap *catalog.Snapshot) (*generation, error) {
	if snap == nil {
		return nil, fmt.Errorf("rebuild: nil snapshot")
	}
	if cur := e.current.Load(); cur != nil && snap.Generation() <= cur.snapshot.Generation() {
		return nil, fmt.Errorf("%w: %d <= %d", ErrStaleGeneration, snap.Generation(), cur.snapshot.Generation())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	model := vectorize.Fit(snap,
		vectorize.WithAnalyzer(e.analyzer),
		vectorize.WithQueryCache(e.config.QueryCacheSize))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	index, err := vector.NewIndex(model.IDs(), model.Vectors(), vector.WithMinScore(e.config.MinScore))
	if err != nil {
		return nil, fmt.Errorf("failed to build index: %w", err)
	}
	gen := &generation{snapshot: snap, model: model, index: index}
	if e.config.SpellCorrection {
		gen.speller = vectorize.NewSpeller(model)
	}
	return gen, nil
}

// Ready reports whether a generation has been published.
func (e *Engine) Ready() bool {
	return e.current.Load() != nil
}

// Generation returns the published generation number, 0 before the first rebuild.
func (e *Engine) Generation() uint64 {
	if g := e.current.Load(); g != nil {
		return g.snapshot.Generation()
	}
	return 0
}

// Snapshot returns the published catalog snapshot.
func (e *Engine) Snapshot() (*catalog.Snapshot, bool) {
	g := e.current.Load()
	if g == nil {
		return nil, false
	}
	return g.snapshot, true
}

// Stats describes the published generation.
func (e *Engine) Stats() Stats {
	g := e.current.Load()
	if g == nil {
		return Stats{}
	}
	return Stats{
		Ready:          true,
		Generation:     g.snapshot.Generation(),
		BuildID:        g.snapshot.BuildID(),
		BuiltAt:        g.snapshot.BuiltAt(),
		Products:       g.snapshot.Len(),
		VocabularySize: g.model.VocabularySize(),
	}
}

// Limit resolves a caller-supplied limit: nil is the configured default, values above the
// configured maximum are clamped.
func (e *Engine) Limit(limit *int) int {
	return models.ResolveLimit(limit, e.config.DefaultLimit, e.config.MaxLimit)
}

func (e *Engine) clamp(n int) int {
	if e.config.MaxLimit > 0 && n > e.config.MaxLimit {
		return e.config.MaxLimit
	}
	return n
}

// SimilarToID returns up to n products most similar to pid, never pid itself.
func (e *Engine) SimilarToID(ctx context.Context, pid int64, n int) (resp *models.RecommendResponse, err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery(models.KindProduct, time.Since(start), err) }()

	g, err := e.load(ctx)
	if err != nil {
		return nil, err
	}
	hits, err := g.index.NearestTo(pid, nil, e.clamp(n))
	if err != nil {
		return nil, err
	}
	resp = g.respond(models.KindProduct, hits, start)
	resp.ProductIDs = []int64{pid}
	return resp, nil
}

// SimilarToCart returns up to n products most similar to the mean of the cart's vectors.
// Unknown ids are ignored and no cart id is ever returned.
func (e *Engine) SimilarToCart(ctx context.Context, ids []int64, n int) (resp *models.RecommendResponse, err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery(models.KindCart, time.Since(start), err) }()

	g, err := e.load(ctx)
	if err != nil {
		return nil, err
	}
	mean, used, err := g.index.Mean(ids)
	if err != nil {
		return nil, err
	}
	hits := g.index.NearestToVector(mean, vector.NewSet(ids...), e.clamp(n))
	resp = g.respond(models.KindCart, hits, start)
	resp.ProductIDs = used
	return resp, nil
}

// SimilarToText returns up to n products most similar to free text. Blank text yields an
// empty result. With spell correction enabled, unknown query terms are first replaced by
// their nearest vocabulary term.
func (e *Engine) SimilarToText(ctx context.Context, query string, n int) (resp *models.RecommendResponse, err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery(models.KindSearch, time.Since(start), err) }()

	g, err := e.load(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	text, corrected := query, ""
	if g.speller != nil && query != "" {
		if c, changed := g.speller.Correct(query); changed {
			text, corrected = c, c
			e.logger.Debug("Query corrected", zap.String("query", query), zap.String("corrected", c))
		}
	}
	var hits []vector.Hit
	if query != "" {
		hits = g.index.NearestToVector(g.model.Transform(text), nil, e.clamp(n))
	}
	resp = g.respond(models.KindSearch, hits, start)
	resp.Query = query
	resp.CorrectedQuery = corrected
	return resp, nil
}

func (e *Engine) load(ctx context.Context) (*generation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g := e.current.Load()
	if g == nil {
		return nil, ErrNotReady
	}
	return g, nil
}

// respond joins hits back to products of this generation, preserving order.
func (g *generation) respond(kind string, hits []vector.Hit, start time.Time) *models.RecommendResponse {
	results := make([]*models.Recommendation, 0, len(hits))
	for _, h := range hits {
		p, ok := g.snapshot.Get(h.ID)
		if !ok {
			continue
		}
		results = append(results, &models.Recommendation{
			Product: &p,
			Score:   h.Score,
			Rank:    len(results) + 1,
		})
	}
	return &models.RecommendResponse{
		Kind:       kind,
		Results:    results,
		Total:      len(results),
		Generation: g.snapshot.Generation(),
		QueryTime:  time.Since(start).Milliseconds(),
	}
}
