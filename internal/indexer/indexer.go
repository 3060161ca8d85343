// Package indexer keeps the recommendation engine in step with the product catalog: it
// imports catalog files into storage and rebuilds the engine from the catalog source.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hyperjump/osusume/internal/catalog"
	"github.com/hyperjump/osusume/internal/extract"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/storage"
	"github.com/hyperjump/osusume/pkg/utils"
	"go.uber.org/zap"
)

// ErrInvalidProduct is returned by SaveProduct when the input fails validation.
var ErrInvalidProduct = errors.New("invalid product")

// Rebuilder publishes catalog snapshots. *recommend.Engine implements it.
type Rebuilder interface {
	Rebuild(ctx context.Context, snap *catalog.Snapshot) error
	Generation() uint64
}

// ReloadResult describes a published generation.
type ReloadResult struct {
	BuildID    string        `json:"build_id"`
	Generation uint64        `json:"generation"`
	Products   int           `json:"products"`
	Took       time.Duration `json:"took_ns"`
}

// ImportResult describes one catalog file import.
type ImportResult struct {
	Path     string `json:"path"`
	Imported int    `json:"imported"`
	Replaced bool   `json:"replaced"`
	// Skipped is set when the file is unchanged since its last import.
	Skipped bool          `json:"skipped,omitempty"`
	Reload  *ReloadResult `json:"reload,omitempty"`
}

type fileStamp struct {
	mtime int64
	size  int64
}

// Reloader pulls the catalog from a source and rebuilds the engine. Reloads are serialized
// so generations are assigned in order.
type Reloader struct {
	source    catalog.Source
	storage   storage.Storage
	engine    Rebuilder
	extractor *extract.Extractor
	logger    *zap.Logger

	mu       sync.Mutex
	imported map[string]fileStamp
}

// ReloaderOption configures a Reloader.
type ReloaderOption func(*Reloader)

// WithLogger sets a logger for reload and import events.
func WithLogger(l *zap.Logger) ReloaderOption {
	return func(r *Reloader) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewReloader creates a reloader. source is usually store, optionally wrapped in a
// catalog.BreakerSource. extractor may be nil when files are never imported.
func NewReloader(
	source catalog.Source,
	store storage.Storage,
	engine Rebuilder,
	extractor *extract.Extractor,
	opts ...ReloaderOption,
) *Reloader {
	r := &Reloader{
		source:    source,
		storage:   store,
		engine:    engine,
		extractor: extractor,
		logger:    zap.NewNop(),
		imported:  make(map[string]fileStamp),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reload pulls the full catalog and publishes it as the next generation. On error the
// current generation keeps serving.
func (r *Reloader) Reload(ctx context.Context) (*ReloadResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reload(ctx)
}

func (r *Reloader) reload(ctx context.Context) (*ReloadResult, error) {
	start := time.Now()
	products, err := r.source.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to pull catalog: %w", err)
	}
	NormalizeProducts(products)
	snap, err := catalog.NewSnapshot(r.engine.Generation()+1, products)
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot: %w", err)
	}
	if err := r.engine.Rebuild(ctx, snap); err != nil {
		return nil, fmt.Errorf("failed to rebuild: %w", err)
	}
	res := &ReloadResult{
		BuildID:    snap.BuildID(),
		Generation: snap.Generation(),
		Products:   snap.Len(),
		Took:       time.Since(start),
	}
	r.logger.Debug("reloader catalog reloaded",
		zap.Uint64("generation", res.Generation),
		zap.Int("products", res.Products),
		zap.Duration("took", res.Took))
	return res, nil
}

// ImportFile reads products from a csv, xlsx or json file into storage and reloads.
// With replace the stored catalog is replaced by the file; otherwise the file's products
// are upserted. A file whose mtime and size match its last successful import is skipped.
func (r *Reloader) ImportFile(ctx context.Context, path string, replace bool) (*ImportResult, error) {
	if r.extractor == nil {
		return nil, fmt.Errorf("catalog import is not configured")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", absPath)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stamp := fileStamp{mtime: info.ModTime().UnixNano(), size: info.Size()}
	if prev, ok := r.imported[absPath]; ok && prev == stamp {
		r.logger.Debug("reloader skipping unchanged catalog file", zap.String("path", absPath))
		return &ImportResult{Path: absPath, Replaced: replace, Skipped: true}, nil
	}

	products, err := r.extractor.ExtractProducts(absPath)
	if err != nil {
		return nil, fmt.Errorf("extract products: %w", err)
	}
	NormalizeProducts(products)
	if replace {
		err = r.storage.ReplaceAll(ctx, products)
	} else {
		err = r.storage.UpsertProducts(ctx, products)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to store products: %w", err)
	}
	r.imported[absPath] = stamp
	r.logger.Info("Catalog file imported",
		zap.String("path", absPath),
		zap.Int("products", len(products)),
		zap.Bool("replace", replace))

	res := &ImportResult{Path: absPath, Imported: len(products), Replaced: replace}
	reload, err := r.reload(ctx)
	if err != nil {
		return res, err
	}
	res.Reload = reload
	return res, nil
}

// SaveProduct validates and stores a product, then reloads.
func (r *Reloader) SaveProduct(ctx context.Context, input *models.ProductInput) (*models.Product, *ReloadResult, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidProduct, err)
	}
	p := NormalizeProduct(*input.Product())

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.storage.CreateProduct(ctx, &p); err != nil {
		return nil, nil, err
	}
	r.logger.Debug("reloader product saved", zap.Int64("product_id", p.ID))
	res, err := r.reload(ctx)
	return &p, res, err
}

// DeleteProduct removes a product from storage, then reloads.
func (r *Reloader) DeleteProduct(ctx context.Context, id int64) (*ReloadResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.storage.DeleteProduct(ctx, id); err != nil {
		return nil, err
	}
	r.logger.Debug("reloader product deleted", zap.Int64("product_id", id))
	return r.reload(ctx)
}
