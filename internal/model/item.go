package model

import "time"

// Item is a household item as stored in the items table.
type Item struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	Location   string    `json:"location"`
	ExpiryDate Date      `json:"expiry_date"`
	ImageURL   *string   `json:"image_url"`
	CreatedAt  time.Time `json:"created_at"`
}

// HasPhoto reports whether the item has a stored location photo.
func (i *Item) HasPhoto() bool {
	return i.ImageURL != nil && *i.ImageURL != ""
}

// Record is an item row before the backend assigns its ID.
type Record struct {
	Name       string
	Category   Category
	Location   string
	ExpiryDate Date
	ImageURL   *string

	// RequestID makes the insert idempotent when set. An insert whose
	// RequestID already exists returns the existing row.
	RequestID string
}
