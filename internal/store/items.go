package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
)

const itemColumns = `id, name, category, location, expiry_date, image_url, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.Item, error) {
	item := &model.Item{}
	var category, location, imageURL sql.NullString
	err := row.Scan(&item.ID, &item.Name, &category, &location, &item.ExpiryDate, &imageURL, &item.CreatedAt)
	if err != nil {
		return nil, err
	}
	item.Category = category.String
	item.Location = location.String
	if imageURL.Valid {
		item.ImageURL = &imageURL.String
	}
	return item, nil
}

// InsertItem appends one item row. If rec.RequestID is set and a row with
// the same request ID already exists, that row is returned instead.
func InsertItem(ctx context.Context, db *db.DB, rec model.Record) (*model.Item, error) {
	if rec.Category == nil {
		return nil, errors.New("creating item: category required")
	}

	var requestID sql.NullString
	if rec.RequestID != "" {
		requestID = sql.NullString{String: rec.RequestID, Valid: true}
	}

	var id int64
	err := db.QueryRowContext(ctx,
		`INSERT INTO items (name, category, location, expiry_date, image_url, request_id)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (request_id) DO NOTHING
		 RETURNING id`,
		rec.Name, rec.Category.String(), nullString(rec.Location), rec.ExpiryDate, rec.ImageURL, requestID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) && requestID.Valid {
		// The request ID was already used: this is a repeated submission.
		existing, err := GetItemByRequestID(ctx, db, rec.RequestID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, fmt.Errorf("creating item: request %s conflicted but no row found", rec.RequestID)
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	item, err := GetItem(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("creating item: row %d not found after insert", id)
	}
	return item, nil
}

// GetItem returns an item by ID, or nil if it does not exist.
func GetItem(ctx context.Context, db *db.DB, id int64) (*model.Item, error) {
	item, err := scanItem(db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// GetItemByRequestID returns the item created by the given request, or nil.
func GetItemByRequestID(ctx context.Context, db *db.DB, requestID string) (*model.Item, error) {
	item, err := scanItem(db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE request_id = ?`, requestID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item by request: %w", err)
	}
	return item, nil
}

// ListItemsByExpiry returns all items, soonest expiry first. Items that
// expire on the same day keep insertion order.
func ListItemsByExpiry(ctx context.Context, db *db.DB) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items ORDER BY expiry_date ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
