package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "/tmp/test.db"
recommend:
  default_limit: 7
  min_score: 0.1
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath != "/tmp/test.db" {
		t.Errorf("database_path = %s", cfg.Storage.DatabasePath)
	}
	if cfg.Recommend.DefaultLimit != 7 || cfg.Recommend.MinScore != 0.1 {
		t.Errorf("unexpected recommend config: %+v", cfg.Recommend)
	}
	if cfg.Recommend.MaxLimit != 50 {
		t.Errorf("max_limit should keep its default, got %d", cfg.Recommend.MaxLimit)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_durations(t *testing.T) {
	path := writeConfig(t, `
server:
  rate_limit_window: "30s"
catalog:
  breaker_timeout: "2m"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.RateLimitWindow != 30*time.Second {
		t.Errorf("rate_limit_window = %v", cfg.Server.RateLimitWindow)
	}
	if cfg.Catalog.BreakerTimeout != 2*time.Minute {
		t.Errorf("breaker_timeout = %v", cfg.Catalog.BreakerTimeout)
	}
}

func TestLoad_envOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
`)
	t.Setenv("OSUSUME_SERVER_PORT", "9100")
	t.Setenv("OSUSUME_DEBUG", "true")
	t.Setenv("OSUSUME_DATABASE_PATH", ":memory:")
	t.Setenv("OSUSUME_RECOMMEND_STOP_WORDS", "sale, new ,")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("port = %d, want env override 9100", cfg.Server.Port)
	}
	if !cfg.Debug {
		t.Error("debug should be set from env")
	}
	if cfg.Storage.DatabasePath != MemoryDatabase {
		t.Errorf("database_path = %s", cfg.Storage.DatabasePath)
	}
	if len(cfg.Recommend.StopWords) != 2 || cfg.Recommend.StopWords[1] != "new" {
		t.Errorf("stop_words = %v", cfg.Recommend.StopWords)
	}
}

func TestLoad_noFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 8080 || cfg.Recommend.DefaultLimit != 5 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoad_invalid(t *testing.T) {
	path := writeConfig(t, `
recommend:
  default_limit: 20
  max_limit: 10
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "MaxLimit") {
		t.Errorf("error should name the field: %v", err)
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	path := writeConfig(t, `
storage:
  database_path: "./data/db/catalog.db"
catalog:
  import_path: "./catalog/products.csv"
`)
	dir := filepath.Dir(path)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "db", "catalog.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, wantDB)
	}
	wantImport := filepath.Join(dir, "catalog", "products.csv")
	if cfg.Catalog.ImportPath != wantImport {
		t.Errorf("import_path = %s, want %s", cfg.Catalog.ImportPath, wantImport)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Recommend.DefaultLimit != 5 || cfg.Recommend.MaxLimit != 50 {
		t.Errorf("default limits: got %d/%d", cfg.Recommend.DefaultLimit, cfg.Recommend.MaxLimit)
	}
	if cfg.Recommend.MinTokenLength != 2 {
		t.Errorf("default min_token_length: got %d", cfg.Recommend.MinTokenLength)
	}
	if cfg.Catalog.BreakerFailures != 3 || cfg.Catalog.BreakerTimeout != 30*time.Second {
		t.Errorf("default breaker: got %+v", cfg.Catalog)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "*" {
		t.Errorf("default cors origins: got %v", cfg.Server.CORSOrigins)
	}
}

func TestExpandPath(t *testing.T) {
	if got := expandPath(MemoryDatabase, "/etc"); got != MemoryDatabase {
		t.Errorf("memory path rewritten: %s", got)
	}
	if got := expandPath("", "/etc"); got != "" {
		t.Errorf("empty path rewritten: %s", got)
	}
	if got := expandPath("/abs/x.db", "/etc"); got != "/abs/x.db" {
		t.Errorf("absolute path rewritten: %s", got)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := map[string]string{
		"OSUSUME_SERVER_PORT":              "server.port",
		"OSUSUME_RECOMMEND_MAX_LIMIT":      "recommend.max_limit",
		"OSUSUME_CATALOG_IMPORT_PATH":      "catalog.import_path",
		"OSUSUME_IMPORT_PATH":              "catalog.import_path",
		"OSUSUME_DEBUG":                    "debug",
		"OSUSUME_SERVER_RATE_LIMIT_WINDOW": "server.rate_limit_window",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := Default()
	cfg.Server.Port = 9090
	cfg.Storage.DatabasePath = "/tmp/db"
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if loaded.Catalog.BreakerTimeout != 30*time.Second {
		t.Errorf("loaded breaker_timeout: got %v", loaded.Catalog.BreakerTimeout)
	}
}
