package config

import "time"

// MemoryDatabase selects an in-memory SQLite database.
const MemoryDatabase = ":memory:"

// DefaultConfigPath is where the CLI looks for a config file.
const DefaultConfigPath = "/usr/local/etc/osusume/config.yaml"

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.CORSOrigins == nil {
		cfg.Server.CORSOrigins = []string{"*"}
	}
	if cfg.Server.RateLimitRequests == 0 {
		cfg.Server.RateLimitRequests = 100
	}
	if cfg.Server.RateLimitWindow == 0 {
		cfg.Server.RateLimitWindow = time.Minute
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/osusume/data/db/catalog.db"
	}
	if cfg.Catalog.BreakerTimeout == 0 {
		cfg.Catalog.BreakerTimeout = 30 * time.Second
	}
	if cfg.Catalog.BreakerFailures == 0 {
		cfg.Catalog.BreakerFailures = 3
	}
	if cfg.Recommend.DefaultLimit == 0 {
		cfg.Recommend.DefaultLimit = 5
	}
	if cfg.Recommend.MaxLimit == 0 {
		cfg.Recommend.MaxLimit = 50
	}
	if cfg.Recommend.MinTokenLength == 0 {
		cfg.Recommend.MinTokenLength = 2
	}
	if cfg.Recommend.QueryCacheSize == 0 {
		cfg.Recommend.QueryCacheSize = 1024
	}
}
