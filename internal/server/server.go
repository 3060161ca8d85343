// Package server provides the HTTP API for Osusume.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hyperjump/osusume/internal/config"
	"github.com/hyperjump/osusume/internal/indexer"
	"github.com/hyperjump/osusume/internal/recommend"
	"github.com/hyperjump/osusume/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// BreakerState reports the state of the catalog source circuit breaker.
// *catalog.BreakerSource implements it.
type BreakerState interface {
	State() string
}

// Server is the HTTP server for the Osusume API.
type Server struct {
	engine   *recommend.Engine
	reloader *indexer.Reloader
	storage  storage.Storage
	config   *config.Config
	logger   *zap.Logger
	breaker  BreakerState
	handler  http.Handler
	server   *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithBreaker reports the breaker state on /api/v1/status.
func WithBreaker(b BreakerState) Option {
	return func(s *Server) { s.breaker = b }
}

// NewServer creates a server with the given dependencies. A nil cfg uses the defaults.
func NewServer(
	engine *recommend.Engine,
	reloader *indexer.Reloader,
	store storage.Storage,
	cfg *config.Config,
	logger *zap.Logger,
	opts ...Option,
) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		engine:   engine,
		reloader: reloader,
		storage:  store,
		config:   cfg,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = s.routes()
	return s
}

// Handler returns the router. Useful for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(recordMetrics)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimit(s.config.Server.RateLimitRequests, s.config.Server.RateLimitWindow))
		r.Use(middleware.Compress(5))

		r.Get("/status", s.handleStatus)
		r.Post("/reload", s.handleReload)

		r.Get("/products", s.handleListProducts)
		r.Post("/products", s.handleSaveProduct)
		r.Get("/products/{id}", s.handleGetProduct)
		r.Delete("/products/{id}", s.handleDeleteProduct)
		r.Get("/categories", s.handleCategories)

		r.Get("/recommend/product/{id}", s.handleSimilarProduct)
		r.Post("/recommend/cart", s.handleSimilarCart)
		r.Get("/recommend/search", s.handleSearch)
		r.Post("/recommend/search", s.handleSearch)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
