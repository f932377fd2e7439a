// Package dashboard holds the inventory list view: the items sorted by
// expiry and which rows are expanded.
package dashboard

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/erazemk/zaloga/internal/model"
)

// EmptyMessage is shown when there are no items.
const EmptyMessage = "No items found. Add some!"

// Lister is the read side of the item table.
type Lister interface {
	ListSortedByExpiry(ctx context.Context) ([]model.Item, error)
}

// Row is one rendered list entry.
type Row struct {
	Item     model.Item
	Expanded bool
	// NoPhoto is set when the item has no location photo.
	NoPhoto bool
	// DaysLeft counts days from today to the expiry date; negative once
	// the item has expired.
	DaysLeft int
	Expired  bool
}

// Presenter is safe for concurrent use.
type Presenter struct {
	lister Lister
	now    func() time.Time

	mu       sync.Mutex
	items    []model.Item
	expanded map[int64]bool
	loaded   bool
	stale    bool
	lastErr  error
}

// New returns a presenter with an empty list.
func New(lister Lister) *Presenter {
	return &Presenter{
		lister:   lister,
		now:      time.Now,
		expanded: map[int64]bool{},
	}
}

// SetClock replaces the clock used for days-left.
func (p *Presenter) SetClock(now func() time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = now
}

// Activate refreshes the list. It runs every time the view is shown. On
// failure the previous list stays and the presenter is marked stale.
func (p *Presenter) Activate(ctx context.Context) error {
	items, err := p.lister.ListSortedByExpiry(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		slog.Warn("refreshing dashboard", "error", err)
		p.stale = true
		p.lastErr = err
		return err
	}

	slices.SortStableFunc(items, func(a, b model.Item) int {
		return a.ExpiryDate.Compare(b.ExpiryDate)
	})
	p.items = items
	p.loaded = true
	p.stale = false
	p.lastErr = nil
	return nil
}

// Toggle flips the expanded state of a row. Ids not in the list are
// remembered but have no visible effect.
func (p *Presenter) Toggle(id int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.expanded[id] {
		delete(p.expanded, id)
	} else {
		p.expanded[id] = true
	}
}

// IsExpanded reports whether the row for id is expanded.
func (p *Presenter) IsExpanded(id int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.expanded[id]
}

// Rows returns the list as rendered rows.
func (p *Presenter) Rows() []Row {
	p.mu.Lock()
	defer p.mu.Unlock()

	today := model.DateOf(p.now())
	rows := make([]Row, 0, len(p.items))
	for _, item := range p.items {
		days := item.ExpiryDate.DaysUntil(today)
		rows = append(rows, Row{
			Item:     item,
			Expanded: p.expanded[item.ID],
			NoPhoto:  !item.HasPhoto(),
			DaysLeft: days,
			Expired:  days < 0,
		})
	}
	return rows
}

// Empty reports whether there is nothing to show.
func (p *Presenter) Empty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items) == 0
}

// Stale reports whether the last refresh failed.
func (p *Presenter) Stale() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stale
}

// Loaded reports whether at least one refresh has succeeded.
func (p *Presenter) Loaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loaded
}

// Err returns the error of the last failed refresh.
func (p *Presenter) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}
