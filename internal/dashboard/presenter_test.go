package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erazemk/zaloga/internal/model"
)

type fakeLister struct {
	items []model.Item
	err   error
	calls int
}

func (l *fakeLister) ListSortedByExpiry(ctx context.Context) ([]model.Item, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	return append([]model.Item(nil), l.items...), nil
}

func item(id int64, name, expiry string, url string) model.Item {
	d, _ := model.ParseDate(expiry)
	it := model.Item{ID: id, Name: name, Category: "Household", Location: "Garage", ExpiryDate: d}
	if url != "" {
		it.ImageURL = &url
	}
	return it
}

func names(rows []Row) []string {
	var out []string
	for _, r := range rows {
		out = append(out, r.Item.Name)
	}
	return out
}

func TestActivateSortsStable(t *testing.T) {
	lister := &fakeLister{items: []model.Item{
		item(1, "Bleach", "2025-01-10", ""),
		item(2, "Milk", "2024-06-01", ""),
		item(3, "Bread", "2025-01-10", ""),
		item(4, "Eggs", "2024-05-01", ""),
	}}
	p := New(lister)

	if err := p.Activate(context.Background()); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	got := names(p.Rows())
	want := []string{"Eggs", "Milk", "Bleach", "Bread"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestActivateFailureKeepsList(t *testing.T) {
	lister := &fakeLister{items: []model.Item{item(1, "Milk", "2024-06-01", "")}}
	p := New(lister)
	p.Activate(context.Background())

	lister.err = errors.New("network down")
	if err := p.Activate(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if !p.Stale() {
		t.Error("expected presenter to be stale")
	}
	if rows := p.Rows(); len(rows) != 1 || rows[0].Item.Name != "Milk" {
		t.Errorf("expected previous list kept, got %v", names(rows))
	}

	lister.err = nil
	lister.items = append(lister.items, item(2, "Rice", "2026-01-01", ""))
	p.Activate(context.Background())
	if p.Stale() || p.Err() != nil {
		t.Error("expected stale flag cleared after successful refresh")
	}
	if len(p.Rows()) != 2 {
		t.Errorf("expected list replaced, got %v", names(p.Rows()))
	}
}

func TestActivateEveryTime(t *testing.T) {
	lister := &fakeLister{}
	p := New(lister)
	for i := 0; i < 3; i++ {
		p.Activate(context.Background())
	}
	if lister.calls != 3 {
		t.Errorf("expected 3 fetches, got %d", lister.calls)
	}
	if !p.Empty() || !p.Loaded() {
		t.Error("expected loaded empty list")
	}
}

func TestToggle(t *testing.T) {
	lister := &fakeLister{items: []model.Item{
		item(1, "Milk", "2024-06-01", ""),
		item(2, "Soap", "2024-07-01", ""),
	}}
	p := New(lister)
	p.Activate(context.Background())

	p.Toggle(2)
	rows := p.Rows()
	if rows[0].Expanded || !rows[1].Expanded {
		t.Errorf("expected only row 2 expanded, got %v/%v", rows[0].Expanded, rows[1].Expanded)
	}

	// Expansion survives a refresh.
	p.Activate(context.Background())
	if !p.IsExpanded(2) || !p.Rows()[1].Expanded {
		t.Error("expected row 2 to stay expanded after refresh")
	}

	p.Toggle(2)
	if p.IsExpanded(2) {
		t.Error("expected row 2 collapsed")
	}

	p.Toggle(99)
	for _, r := range p.Rows() {
		if r.Expanded {
			t.Errorf("unknown id expanded row %d", r.Item.ID)
		}
	}
}

func TestRows(t *testing.T) {
	lister := &fakeLister{items: []model.Item{
		item(1, "Yogurt", "2024-05-30", ""),
		item(2, "Milk", "2024-06-01", "https://cdn.example/1.jpg"),
		item(3, "Cheese", "2024-06-11", ""),
	}}
	p := New(lister)
	p.SetClock(func() time.Time { return time.Date(2024, 6, 1, 22, 0, 0, 0, time.UTC) })
	p.Activate(context.Background())

	rows := p.Rows()
	tests := []struct {
		days    int
		expired bool
		noPhoto bool
	}{
		{-2, true, true},
		{0, false, false},
		{10, false, true},
	}
	for i, tt := range tests {
		r := rows[i]
		if r.DaysLeft != tt.days || r.Expired != tt.expired || r.NoPhoto != tt.noPhoto {
			t.Errorf("row %d (%s): got days=%d expired=%v noPhoto=%v", i, r.Item.Name, r.DaysLeft, r.Expired, r.NoPhoto)
		}
	}
}
