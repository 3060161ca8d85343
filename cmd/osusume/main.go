// Package main is the Osusume CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hyperjump/osusume/internal/catalog"
	"github.com/hyperjump/osusume/internal/config"
	"github.com/hyperjump/osusume/internal/extract"
	"github.com/hyperjump/osusume/internal/indexer"
	"github.com/hyperjump/osusume/internal/recommend"
	"github.com/hyperjump/osusume/internal/server"
	"github.com/hyperjump/osusume/internal/storage"
	"github.com/hyperjump/osusume/internal/watcher"
	"github.com/hyperjump/osusume/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultServerURL = "http://localhost:8080"

// loadConfig loads config from path. When path is the default, config.yaml in the current
// directory is preferred if it exists (for development), and a missing default file means
// built-in defaults plus OSUSUME_* environment overrides. Returns the config and the path
// that was actually loaded ("" for none).
func loadConfig(path string) (*config.Config, string, error) {
	if path == config.DefaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				cfg, err := config.Load(fallback)
				if err != nil {
					return nil, "", err
				}
				return cfg, fallback, nil
			}
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			cfg, err := config.Load("")
			if err != nil {
				return nil, "", err
			}
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	args := os.Args[2:]
	var err error
	switch command {
	case "server":
		runServer(args)
		return
	case "similar":
		err = runSimilar(args)
	case "cart":
		err = runCart(args)
	case "search":
		err = runSearch(args)
	case "import":
		err = runImport(args)
	case "reload":
		err = runReload(args)
	case "status":
		err = runStatus(args)
	case "version", "--version", "-v":
		fmt.Printf("osusume version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", command, err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`Osusume - content-based product recommendations

Usage: osusume <command> [flags] [args]

Commands:
  server                       Run the HTTP API
  similar <id>                 Products similar to a product
  cart <id> [id...]            Products similar to a cart
  search <query...>            Products matching free text
  import <file>                Import a csv, xlsx or json catalog file
  reload                       Rebuild the similarity model from storage
  status                       Show catalog and index status
  version                      Show version
  help                         Show this help

Query commands talk to --server (default ` + defaultServerURL + `).
Pass --server "" to open the local database directly.
`)
}

// components holds initialized services.
type components struct {
	config   *config.Config
	storage  *storage.SQLiteStorage
	breaker  *catalog.BreakerSource
	engine   *recommend.Engine
	reloader *indexer.Reloader
}

func (c *components) Close() {
	if c.storage != nil {
		_ = c.storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*components, error) {
	if dir := filepath.Dir(cfg.Storage.DatabasePath); cfg.Storage.DatabasePath != config.MemoryDatabase && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	breaker := catalog.NewBreakerSource(store, catalog.BreakerSettings{
		Name:                "catalog-storage",
		ConsecutiveFailures: cfg.Catalog.BreakerFailures,
		Timeout:             cfg.Catalog.BreakerTimeout,
	}, catalog.WithBreakerLogger(logger))
	engine := recommend.NewEngine(&cfg.Recommend, recommend.WithLogger(logger))
	reloader := indexer.NewReloader(breaker, store, engine, extract.NewExtractor(), indexer.WithLogger(logger))
	return &components{
		config:   cfg,
		storage:  store,
		breaker:  breaker,
		engine:   engine,
		reloader: reloader,
	}, nil
}

func runServer(args []string) {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", config.DefaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(args)

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("database_path", cfg.Storage.DatabasePath),
		zap.Bool("debug", debugMode),
	)

	comps, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer comps.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Catalog.ImportPath != "" {
		if _, err := comps.reloader.ImportFile(ctx, cfg.Catalog.ImportPath, true); err != nil {
			logger.Warn("initial catalog import failed", zap.String("path", cfg.Catalog.ImportPath), zap.Error(err))
		}
	}
	if !comps.engine.Ready() {
		if _, err := comps.reloader.Reload(ctx); err != nil {
			logger.Warn("initial catalog load failed; serving category fallback", zap.Error(err))
		}
	}

	if cfg.Catalog.Watch && cfg.Catalog.ImportPath != "" {
		w, err := watcher.NewWatcher([]string{cfg.Catalog.ImportPath}, func(path string) {
			if _, err := comps.reloader.ImportFile(ctx, path, true); err != nil {
				logger.Warn("watch import failed", zap.String("path", path), zap.Error(err))
			}
		}, watcher.WithLogger(logger))
		if err != nil {
			logger.Fatal("Failed to create watcher", zap.Error(err))
		}
		if err := w.Start(ctx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer w.Stop()
		logger.Info("Watching catalog file", zap.String("path", cfg.Catalog.ImportPath))
	}

	srv := server.NewServer(comps.engine, comps.reloader, comps.storage, cfg, logger, server.WithBreaker(comps.breaker))
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}
