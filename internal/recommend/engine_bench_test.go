package recommend

import (
	"context"
	"fmt"
	"testing"

	"github.com/hyperjump/osusume/internal/catalog"
	"github.com/hyperjump/osusume/internal/models"
)

var benchWords = []string{
	"leather", "running", "wireless", "gaming", "cotton", "steel", "portable", "waterproof",
	"organic", "vintage", "compact", "ergonomic", "ceramic", "bamboo", "smart", "classic",
}

func benchSnapshot(b *testing.B, n int) *catalog.Snapshot {
	b.Helper()
	ps := make([]models.Product, n)
	for i := range ps {
		w := benchWords
		ps[i] = models.Product{
			ID:          int64(i + 1),
			Name:        fmt.Sprintf("%s %s item%d", w[i%len(w)], w[(i/3)%len(w)], i),
			Category:    w[(i/7)%len(w)],
			Description: fmt.Sprintf("%s %s %s product", w[(i+5)%len(w)], w[(i*3)%len(w)], w[(i/2)%len(w)]),
		}
	}
	snap, err := catalog.NewSnapshot(1, ps)
	if err != nil {
		b.Fatal(err)
	}
	return snap
}

func BenchmarkRebuild(b *testing.B) {
	products := benchSnapshot(b, 1000).Products()
	e := NewEngine(nil)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		snap, _ := catalog.NewSnapshot(uint64(i+1), products)
		b.StartTimer()
		_ = e.Rebuild(ctx, snap)
	}
}

func BenchmarkSimilarToID(b *testing.B) {
	e := NewEngine(nil)
	ctx := context.Background()
	if err := e.Rebuild(ctx, benchSnapshot(b, 1000)); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.SimilarToID(ctx, int64(i%1000+1), 10)
	}
}

func BenchmarkSimilarToCart(b *testing.B) {
	e := NewEngine(nil)
	ctx := context.Background()
	if err := e.Rebuild(ctx, benchSnapshot(b, 1000)); err != nil {
		b.Fatal(err)
	}
	cart := []int64{1, 17, 256, 512}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.SimilarToCart(ctx, cart, 10)
	}
}

func BenchmarkSimilarToText(b *testing.B) {
	e := NewEngine(nil)
	ctx := context.Background()
	if err := e.Rebuild(ctx, benchSnapshot(b, 1000)); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.SimilarToText(ctx, "waterproof running leather", 10)
	}
}
