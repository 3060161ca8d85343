package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperjump/osusume/internal/models"
)

func sampleProducts() []models.Product {
	return []models.Product{
		{ID: 1, Name: "Red Shoe", Category: "Fashion", Description: "comfortable red running shoe"},
		{ID: 2, Name: "Blue Shoe", Category: "Fashion", Description: "comfortable blue running shoe"},
		{ID: 3, Name: "Laptop", Category: "Electronics", Description: "powerful gaming laptop"},
	}
}

func TestNewSnapshot(t *testing.T) {
	snap, err := NewSnapshot(4, sampleProducts())
	if err != nil {
		t.Fatal(err)
	}
	if snap.Generation() != 4 {
		t.Errorf("Generation() = %d", snap.Generation())
	}
	if snap.Len() != 3 {
		t.Errorf("Len() = %d", snap.Len())
	}
	if snap.BuildID() == "" {
		t.Error("BuildID should be set")
	}
	p, ok := snap.Get(3)
	if !ok || p.Name != "Laptop" {
		t.Errorf("Get(3) = %+v, %v", p, ok)
	}
	if _, ok := snap.Get(999); ok {
		t.Error("Get(999) should miss")
	}
	ids := snap.IDs()
	if len(ids) != 3 || ids[0] != 1 || ids[2] != 3 {
		t.Errorf("IDs() = %v", ids)
	}
}

func TestNewSnapshot_duplicateID(t *testing.T) {
	products := append(sampleProducts(), models.Product{ID: 2, Name: "Dup"})
	_, err := NewSnapshot(1, products)
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestSnapshot_isolatedFromInput(t *testing.T) {
	products := sampleProducts()
	snap, err := NewSnapshot(1, products)
	if err != nil {
		t.Fatal(err)
	}
	products[0].Name = "mutated"
	if p, _ := snap.Get(1); p.Name != "Red Shoe" {
		t.Errorf("snapshot changed with input slice: %q", p.Name)
	}
	out := snap.Products()
	out[1].Name = "mutated"
	if p, _ := snap.Get(2); p.Name != "Blue Shoe" {
		t.Errorf("snapshot changed through Products(): %q", p.Name)
	}
}

func TestSnapshot_ByCategory(t *testing.T) {
	snap, _ := NewSnapshot(1, sampleProducts())
	got := snap.ByCategory("Fashion", 1, 5)
	if len(got) != 1 || got[0].ID != 2 {
		t.Errorf("ByCategory(Fashion, exclude 1) = %+v", got)
	}
	if got := snap.ByCategory("Fashion", 0, 1); len(got) != 1 {
		t.Errorf("limit 1: got %d", len(got))
	}
	if got := snap.ByCategory("Fashion", 0, 0); len(got) != 0 {
		t.Errorf("limit 0: got %d", len(got))
	}
}

func TestSnapshot_Categories(t *testing.T) {
	snap, _ := NewSnapshot(1, sampleProducts())
	cats := snap.Categories()
	if len(cats) != 2 || cats[0] != "Electronics" || cats[1] != "Fashion" {
		t.Errorf("Categories() = %v", cats)
	}
}

func TestEmpty(t *testing.T) {
	snap := Empty()
	if snap.Len() != 0 || snap.Generation() != 0 {
		t.Errorf("Empty() = len %d gen %d", snap.Len(), snap.Generation())
	}
}

func TestStaticSource(t *testing.T) {
	src := StaticSource(sampleProducts())
	got, err := src.Products(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d products", len(got))
	}
	got[0].Name = "mutated"
	if src[0].Name != "Red Shoe" {
		t.Error("StaticSource returned its backing slice")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Products(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
