package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/hyperjump/osusume/internal/indexer"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/server"
)

// recommender is what the query commands need. It is served either by a running server
// over HTTP or by components opened directly on the local database.
type recommender interface {
	SimilarToID(ctx context.Context, id int64, limit *int) (*models.RecommendResponse, error)
	SimilarToCart(ctx context.Context, ids []int64, limit *int) (*models.RecommendResponse, error)
	SimilarToText(ctx context.Context, query string, limit *int) (*models.RecommendResponse, error)
	Status(ctx context.Context) (*models.StatusResponse, error)
	Reload(ctx context.Context) (*indexer.ReloadResult, error)
}

// apiClient talks to the HTTP API.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(resp.Body)
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(b, &e) == nil && e.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, e.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *apiClient) SimilarToID(ctx context.Context, id int64, limit *int) (*models.RecommendResponse, error) {
	path := "/api/v1/recommend/product/" + strconv.FormatInt(id, 10)
	if limit != nil {
		path += "?limit=" + strconv.Itoa(*limit)
	}
	var resp models.RecommendResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *apiClient) SimilarToCart(ctx context.Context, ids []int64, limit *int) (*models.RecommendResponse, error) {
	var resp models.RecommendResponse
	q := models.CartQuery{ProductIDs: ids, Limit: limit}
	if err := c.do(ctx, http.MethodPost, "/api/v1/recommend/cart", q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *apiClient) SimilarToText(ctx context.Context, query string, limit *int) (*models.RecommendResponse, error) {
	v := url.Values{"q": {query}}
	if limit != nil {
		v.Set("limit", strconv.Itoa(*limit))
	}
	var resp models.RecommendResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/recommend/search?"+v.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *apiClient) Status(ctx context.Context) (*models.StatusResponse, error) {
	var st models.StatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/status", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *apiClient) Reload(ctx context.Context) (*indexer.ReloadResult, error) {
	var res indexer.ReloadResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/reload", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// localClient answers queries from components opened on the local database. The catalog
// is loaded on first use.
type localClient struct {
	c      *components
	loaded bool
}

func (l *localClient) ensureLoaded(ctx context.Context) error {
	if l.loaded {
		return nil
	}
	if _, err := l.c.reloader.Reload(ctx); err != nil {
		return err
	}
	l.loaded = true
	return nil
}

func (l *localClient) SimilarToID(ctx context.Context, id int64, limit *int) (*models.RecommendResponse, error) {
	if err := l.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return l.c.engine.SimilarToID(ctx, id, l.c.engine.Limit(limit))
}

func (l *localClient) SimilarToCart(ctx context.Context, ids []int64, limit *int) (*models.RecommendResponse, error) {
	if err := l.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return l.c.engine.SimilarToCart(ctx, ids, l.c.engine.Limit(limit))
}

func (l *localClient) SimilarToText(ctx context.Context, query string, limit *int) (*models.RecommendResponse, error) {
	if err := l.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return l.c.engine.SimilarToText(ctx, query, l.c.engine.Limit(limit))
}

func (l *localClient) Status(ctx context.Context) (*models.StatusResponse, error) {
	if err := l.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return server.BuildStatus(ctx, l.c.engine, l.c.storage, l.c.config, l.c.breaker)
}

func (l *localClient) Reload(ctx context.Context) (*indexer.ReloadResult, error) {
	res, err := l.c.reloader.Reload(ctx)
	if err != nil {
		return nil, err
	}
	l.loaded = true
	return res, nil
}
