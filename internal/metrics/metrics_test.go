package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordQuery(t *testing.T) {
	before := testutil.ToFloat64(RecommendQueries.WithLabelValues("cart", "error"))
	RecordQuery("cart", time.Millisecond, errors.New("empty input"))
	after := testutil.ToFloat64(RecommendQueries.WithLabelValues("cart", "error"))
	if after-before != 1 {
		t.Errorf("error counter delta = %v, want 1", after-before)
	}
}

func TestRecordRebuild(t *testing.T) {
	RecordRebuild("success", 10*time.Millisecond, 7, 42, 300)
	if got := testutil.ToFloat64(CatalogGeneration); got != 7 {
		t.Errorf("CatalogGeneration = %v, want 7", got)
	}
	if got := testutil.ToFloat64(CatalogProducts); got != 42 {
		t.Errorf("CatalogProducts = %v, want 42", got)
	}

	RecordRebuild("stale", time.Millisecond, 3, 1, 1)
	if got := testutil.ToFloat64(CatalogGeneration); got != 7 {
		t.Errorf("stale rebuild moved CatalogGeneration to %v", got)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/health", "200"))
	RecordAPIRequest("GET", "/health", 200, time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/health", "200"))
	if after-before != 1 {
		t.Errorf("delta = %v, want 1", after-before)
	}
}
