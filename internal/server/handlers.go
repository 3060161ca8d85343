package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/hyperjump/osusume/internal/indexer"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/recommend"
	"github.com/hyperjump/osusume/internal/storage"
	"github.com/hyperjump/osusume/pkg/utils"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"ready":      s.engine.Ready(),
		"generation": s.engine.Generation(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := BuildStatus(r.Context(), s.engine, s.storage, s.config, s.breaker)
	if err != nil {
		s.logger.Error("status: count products failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.reloader == nil {
		s.respondError(w, http.StatusNotImplemented, "reload not enabled")
		return
	}
	res, err := s.reloader.Reload(r.Context())
	if err != nil {
		s.logger.Error("reload failed", zap.Error(err))
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"), defaultPageSize)
	if err != nil || limit < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	limit = utils.ClampInt(limit, 0, maxPageSize)
	offset, err := intParam(q.Get("offset"), 0)
	if err != nil || offset < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	exclude, err := intParam(q.Get("exclude"), 0)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid exclude")
		return
	}

	var products []*models.Product
	if category := q.Get("category"); category != "" {
		products, err = s.storage.ListByCategory(r.Context(), category, int64(exclude), limit)
	} else {
		products, err = s.storage.ListProducts(r.Context(), offset, limit)
	}
	if err != nil {
		s.logger.Error("list products failed", zap.Error(err))
		s.respondErr(w, err)
		return
	}
	if products == nil {
		products = []*models.Product{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"products": products,
		"total":    len(products),
	})
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := s.productID(w, r)
	if !ok {
		return
	}
	p, err := s.storage.GetProduct(r.Context(), id)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleSaveProduct(w http.ResponseWriter, r *http.Request) {
	if s.reloader == nil {
		s.respondError(w, http.StatusNotImplemented, "catalog writes not enabled")
		return
	}
	var input models.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("save product request", zap.Int64("product_id", input.ID), zap.String("name", input.Name))
	p, res, err := s.reloader.SaveProduct(r.Context(), &input)
	if err != nil {
		s.logger.Error("save product failed", zap.Error(err))
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"product": p,
		"reload":  res,
	})
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if s.reloader == nil {
		s.respondError(w, http.StatusNotImplemented, "catalog writes not enabled")
		return
	}
	id, ok := s.productID(w, r)
	if !ok {
		return
	}
	s.logger.Debug("delete product request", zap.Int64("product_id", id))
	res, err := s.reloader.DeleteProduct(r.Context(), id)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "deleted",
		"reload": res,
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.storage.Categories(r.Context())
	if err != nil {
		s.respondErr(w, err)
		return
	}
	if cats == nil {
		cats = []string{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"categories": cats})
}

func (s *Server) handleSimilarProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := s.productID(w, r)
	if !ok {
		return
	}
	limit, err := limitParam(r.URL.Query().Get("limit"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	n := s.engine.Limit(limit)
	resp, err := s.engine.SimilarToID(r.Context(), id, n)
	if errors.Is(err, recommend.ErrNotReady) {
		resp, err = s.categoryFallback(r.Context(), id, n)
	}
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// categoryFallback lists stored products sharing id's category. It serves similar-product
// requests before the first catalog generation is published.
func (s *Server) categoryFallback(ctx context.Context, id int64, n int) (*models.RecommendResponse, error) {
	start := time.Now()
	p, err := s.storage.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	var items []*models.Product
	if n > 0 {
		items, err = s.storage.ListByCategory(ctx, p.Category, id, n)
		if err != nil {
			return nil, err
		}
	}
	results := make([]*models.Recommendation, 0, len(items))
	for i, item := range items {
		results = append(results, &models.Recommendation{Product: item, Rank: i + 1})
	}
	s.logger.Debug("similar product served from category fallback",
		zap.Int64("product_id", id), zap.String("category", p.Category), zap.Int("results", len(results)))
	return &models.RecommendResponse{
		Kind:       models.KindProduct,
		ProductIDs: []int64{id},
		Results:    results,
		Total:      len(results),
		QueryTime:  time.Since(start).Milliseconds(),
		Fallback:   true,
	}, nil
}

func (s *Server) handleSimilarCart(w http.ResponseWriter, r *http.Request) {
	var query models.CartQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := query.Validate(); err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.logger.Debug("cart request", zap.Int64s("product_ids", query.ProductIDs))
	resp, err := s.engine.SimilarToCart(r.Context(), query.ProductIDs, s.engine.Limit(query.Limit))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.TextQuery
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	} else {
		q := r.URL.Query()
		query.Query = q.Get("q")
		if query.Query == "" {
			query.Query = q.Get("query")
		}
		limit, err := limitParam(q.Get("limit"))
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		query.Limit = limit
	}
	query.Normalize()
	s.logger.Debug("search request", zap.String("query", query.Query))
	resp, err := s.engine.SimilarToText(r.Context(), query.Query, s.engine.Limit(query.Limit))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid product id")
		return 0, false
	}
	return id, true
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// limitParam parses an optional limit. An absent limit is nil so the configured default
// applies.
func limitParam(raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, recommend.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, recommend.ErrEmptyInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, indexer.ErrInvalidProduct):
		return http.StatusBadRequest
	case errors.Is(err, recommend.ErrNotReady), errors.Is(err, gobreaker.ErrOpenState):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondErr(w http.ResponseWriter, err error) {
	s.respondError(w, statusFor(err), err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
