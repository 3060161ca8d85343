package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/hyperjump/osusume/internal/metrics"
	"github.com/hyperjump/osusume/internal/models"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// BreakerSource wraps a Source with a circuit breaker so a failing storage backend is not
// hammered by repeated reloads. While the circuit is open, Products fails fast with
// gobreaker.ErrOpenState and the previously published generation keeps serving.
type BreakerSource struct {
	source Source
	cb     *gobreaker.CircuitBreaker[[]models.Product]
	name   string
	logger *zap.Logger
}

// BreakerSettings configures the breaker. Zero values take defaults.
type BreakerSettings struct {
	Name string
	// ConsecutiveFailures opens the circuit after this many failures in a row (default 3).
	ConsecutiveFailures uint32
	// Timeout is how long the circuit stays open before trying again (default 30s).
	Timeout time.Duration
}

// BreakerOption configures a BreakerSource.
type BreakerOption func(*BreakerSource)

// WithBreakerLogger sets a logger for state transitions.
func WithBreakerLogger(l *zap.Logger) BreakerOption {
	return func(b *BreakerSource) { b.logger = l }
}

// NewBreakerSource wraps source with a circuit breaker.
func NewBreakerSource(source Source, settings BreakerSettings, opts ...BreakerOption) *BreakerSource {
	if settings.Name == "" {
		settings.Name = "catalog-source"
	}
	if settings.ConsecutiveFailures == 0 {
		settings.ConsecutiveFailures = 3
	}
	if settings.Timeout == 0 {
		settings.Timeout = 30 * time.Second
	}
	b := &BreakerSource{
		source: source,
		name:   settings.Name,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	metrics.CircuitBreakerState.WithLabelValues(settings.Name).Set(0)

	threshold := settings.ConsecutiveFailures
	b.cb = gobreaker.NewCircuitBreaker[[]models.Product](gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: 1,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// A cancelled pull says nothing about the backend's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.logger.Warn("catalog source circuit breaker state change",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})
	return b
}

// Products pulls from the wrapped source through the breaker.
func (b *BreakerSource) Products(ctx context.Context) ([]models.Product, error) {
	products, err := b.cb.Execute(func() ([]models.Product, error) {
		return b.source.Products(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		}
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	return products, nil
}

// State returns the current breaker state ("closed", "half-open", "open").
func (b *BreakerSource) State() string {
	return b.cb.State().String()
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}
