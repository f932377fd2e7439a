package store

import (
	"context"
	"fmt"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
)

// StoreError reports a failed call against the items table.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("item store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Gateway is the items table as seen by the add-item and dashboard flows.
// It does not retry or cache.
type Gateway struct {
	DB *db.DB
}

// NewGateway returns a gateway over database.
func NewGateway(database *db.DB) *Gateway {
	return &Gateway{DB: database}
}

// Insert appends one item row.
func (g *Gateway) Insert(ctx context.Context, rec model.Record) (*model.Item, error) {
	item, err := InsertItem(ctx, g.DB, rec)
	if err != nil {
		return nil, &StoreError{Op: "insert", Err: err}
	}
	return item, nil
}

// ListSortedByExpiry returns every item, soonest expiry first.
func (g *Gateway) ListSortedByExpiry(ctx context.Context) ([]model.Item, error) {
	items, err := ListItemsByExpiry(ctx, g.DB)
	if err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}
	return items, nil
}
