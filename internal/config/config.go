// Package config provides configuration loading and structs for the osusume server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperjump/osusume/pkg/utils"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. OSUSUME_SERVER_PORT.
const EnvPrefix = "OSUSUME_"

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug" koanf:"debug"`
	Server    ServerConfig    `yaml:"server" koanf:"server"`
	Storage   StorageConfig   `yaml:"storage" koanf:"storage"`
	Catalog   CatalogConfig   `yaml:"catalog" koanf:"catalog"`
	Recommend RecommendConfig `yaml:"recommend" koanf:"recommend"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host              string        `yaml:"host" koanf:"host" validate:"required"`
	Port              int           `yaml:"port" koanf:"port" validate:"min=1,max=65535"`
	CORSOrigins       []string      `yaml:"cors_origins" koanf:"cors_origins"`
	RateLimitRequests int           `yaml:"rate_limit_requests" koanf:"rate_limit_requests" validate:"gte=0"`
	RateLimitWindow   time.Duration `yaml:"rate_limit_window" koanf:"rate_limit_window" validate:"gte=0"`
}

// StorageConfig holds the product database location.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path" koanf:"database_path" validate:"required"`
}

// CatalogConfig holds catalog import and source settings.
type CatalogConfig struct {
	// ImportPath is a csv, xlsx or json file loaded into storage; empty disables import.
	ImportPath      string        `yaml:"import_path" koanf:"import_path"`
	Watch           bool          `yaml:"watch" koanf:"watch"`
	BreakerTimeout  time.Duration `yaml:"breaker_timeout" koanf:"breaker_timeout" validate:"gte=0"`
	BreakerFailures uint32        `yaml:"breaker_failures" koanf:"breaker_failures"`
}

// RecommendConfig holds vectorizer and query settings.
type RecommendConfig struct {
	DefaultLimit   int      `yaml:"default_limit" koanf:"default_limit" validate:"gte=1"`
	MaxLimit       int      `yaml:"max_limit" koanf:"max_limit" validate:"gtefield=DefaultLimit"`
	MinScore       float64  `yaml:"min_score" koanf:"min_score" validate:"gte=0,lte=1"`
	MinTokenLength int      `yaml:"min_token_length" koanf:"min_token_length" validate:"gte=1"`
	StopWords      []string `yaml:"stop_words" koanf:"stop_words"`
	QueryCacheSize int      `yaml:"query_cache_size" koanf:"query_cache_size" validate:"gte=0"`

	// SpellCorrection replaces out-of-vocabulary query terms with the nearest catalog term.
	SpellCorrection bool `yaml:"spell_correction" koanf:"spell_correction"`
}

// Load reads the config file at path (optional when empty), layers OSUSUME_* environment
// variables on top, expands paths, applies defaults and validates.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := "."
	if path != "" {
		configDir = filepath.Dir(path)
	}
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Catalog.ImportPath = expandPath(cfg.Catalog.ImportPath, configDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Save writes the config to path as YAML.
func Save(path string, cfg *Config) error {
	data, err := yamlv3.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// envAliases maps shortened variable names (after the prefix) to config keys.
var envAliases = map[string]string{
	"database_path": "storage.database_path",
	"import_path":   "catalog.import_path",
	"host":          "server.host",
	"port":          "server.port",
}

var envSections = []string{"server", "storage", "catalog", "recommend"}

// envTransformFunc maps OSUSUME_SERVER_PORT to server.port and OSUSUME_DEBUG to debug.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if alias, ok := envAliases[key]; ok {
		return alias
	}
	for _, section := range envSections {
		if strings.HasPrefix(key, section+"_") {
			return section + "." + strings.TrimPrefix(key, section+"_")
		}
	}
	return key
}

var sliceConfigPaths = []string{
	"server.cors_origins",
	"recommend.stop_words",
}

// processSliceFields splits comma-separated env values for slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(s, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. Empty paths and ":memory:" are
// returned unchanged.
func expandPath(path string, configDir string) string {
	if path == "" || path == MemoryDatabase || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
