package server

import (
	"context"

	"github.com/hyperjump/osusume/internal/config"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/recommend"
	"github.com/hyperjump/osusume/internal/storage"
)

// BuildStatus reports the serving generation, stored catalog size and effective
// configuration. breaker may be nil.
func BuildStatus(
	ctx context.Context,
	engine *recommend.Engine,
	store storage.Storage,
	cfg *config.Config,
	breaker BreakerState,
) (*models.StatusResponse, error) {
	count, err := store.CountProducts(ctx)
	if err != nil {
		return nil, err
	}
	resp := &models.StatusResponse{
		Catalog:        engine.Stats(),
		StoredProducts: count,
		Config: models.StatusConfig{
			DefaultLimit: cfg.Recommend.DefaultLimit,
			MaxLimit:     cfg.Recommend.MaxLimit,
			MinScore:     cfg.Recommend.MinScore,
			DatabasePath: cfg.Storage.DatabasePath,
			ImportPath:   cfg.Catalog.ImportPath,
			Watch:        cfg.Catalog.Watch,
		},
	}
	if du, ok := store.(interface{ DiskUsage() (int64, error) }); ok {
		if n, err := du.DiskUsage(); err == nil {
			resp.DiskUsageBytes = n
		}
	}
	if breaker != nil {
		resp.BreakerState = breaker.State()
	}
	return resp, nil
}
