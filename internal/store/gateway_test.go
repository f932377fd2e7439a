package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
)

func TestGatewayInsertAndList(t *testing.T) {
	g := NewGateway(db.NewTestDB(t))
	ctx := context.Background()

	_, err := g.Insert(ctx, model.Record{
		Name:       "Shampoo",
		Category:   model.Beauty{},
		Location:   "Shower",
		ExpiryDate: mustDate(t, "2025-03-01"),
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	items, err := g.ListSortedByExpiry(ctx)
	if err != nil {
		t.Fatalf("ListSortedByExpiry: %v", err)
	}
	if len(items) != 1 || items[0].Name != "Shampoo" {
		t.Errorf("unexpected items %+v", items)
	}
}

func TestGatewayWrapsErrors(t *testing.T) {
	database := db.NewTestDB(t)
	g := NewGateway(database)
	database.Close()

	_, err := g.ListSortedByExpiry(context.Background())
	var storeErr *StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected *StoreError, got %v", err)
	}
	if storeErr.Op != "list" {
		t.Errorf("expected op 'list', got %q", storeErr.Op)
	}

	_, err = g.Insert(context.Background(), model.Record{
		Name:       "x",
		Category:   model.Beauty{},
		ExpiryDate: mustDate(t, "2025-03-01"),
	})
	if !errors.As(err, &storeErr) || storeErr.Op != "insert" {
		t.Fatalf("expected insert *StoreError, got %v", err)
	}
}
