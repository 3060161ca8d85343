package models

import "time"

// CatalogStats describes the catalog generation serving queries.
type CatalogStats struct {
	Ready          bool      `json:"ready"`
	Generation     uint64    `json:"generation"`
	BuildID        string    `json:"build_id,omitempty"`
	BuiltAt        time.Time `json:"built_at,omitempty"`
	Products       int       `json:"products"`
	VocabularySize int       `json:"vocabulary_size"`
}

// StatusConfig is the subset of configuration reported by status.
type StatusConfig struct {
	DefaultLimit int     `json:"default_limit"`
	MaxLimit     int     `json:"max_limit"`
	MinScore     float64 `json:"min_score"`
	DatabasePath string  `json:"database_path"`
	ImportPath   string  `json:"import_path,omitempty"`
	Watch        bool    `json:"watch"`
}

// StatusResponse is the response for the status endpoint and command.
type StatusResponse struct {
	Catalog        CatalogStats `json:"catalog"`
	StoredProducts int64        `json:"stored_products"`
	DiskUsageBytes int64        `json:"disk_usage_bytes"`
	BreakerState   string       `json:"breaker_state,omitempty"`
	Config         StatusConfig `json:"config"`
}
