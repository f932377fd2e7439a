package model

import "testing"

func TestNewCategory(t *testing.T) {
	tests := []struct {
		root    Root
		sub     SubCategory
		want    string
		wantErr bool
	}{
		{RootFood, SubFridge, "Food (Fridge)", false},
		{RootFood, SubFreezer, "Food (Freezer)", false},
		{RootFood, "", "Food (Pantry)", false},
		{RootFood, "Cellar", "", true},
		{RootMedicine, "", "Medicine", false},
		// Sub-category is dropped for non-food roots.
		{RootBeauty, SubFridge, "Beauty", false},
		{RootHousehold, "", "Household", false},
		{"Toys", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		got, err := NewCategory(tt.root, tt.sub)
		if (err != nil) != tt.wantErr {
			t.Errorf("NewCategory(%q, %q) error = %v, wantErr %v", tt.root, tt.sub, err, tt.wantErr)
			continue
		}
		if err == nil && got.String() != tt.want {
			t.Errorf("NewCategory(%q, %q) = %q, want %q", tt.root, tt.sub, got.String(), tt.want)
		}
	}
}

func TestParseCategoryRoundTrip(t *testing.T) {
	for _, root := range Roots {
		for _, sub := range SubCategories {
			c, err := NewCategory(root, sub)
			if err != nil {
				t.Fatalf("NewCategory(%q, %q): %v", root, sub, err)
			}
			parsed, err := ParseCategory(c.String())
			if err != nil {
				t.Fatalf("ParseCategory(%q): %v", c.String(), err)
			}
			if parsed != c {
				t.Errorf("round trip of %q gave %#v, want %#v", c.String(), parsed, c)
			}
		}
	}
}

func TestParseCategoryRejects(t *testing.T) {
	for _, s := range []string{"", "Food", "Food (Fridge", "Food (Attic)", "food (Fridge)", "Tools"} {
		if _, err := ParseCategory(s); err == nil {
			t.Errorf("ParseCategory(%q) expected error", s)
		}
	}
}

func TestCategoryRoot(t *testing.T) {
	c, _ := NewCategory(RootFood, SubFreezer)
	if c.Root() != RootFood {
		t.Errorf("expected root Food, got %q", c.Root())
	}
	if f, ok := c.(Food); !ok || f.Sub != SubFreezer {
		t.Errorf("expected Food{Freezer}, got %#v", c)
	}
}
