package model

import (
	"fmt"
	"strings"
)

// Root is a top-level item category.
type Root string

// Category roots.
const (
	RootFood      Root = "Food"
	RootMedicine  Root = "Medicine"
	RootBeauty    Root = "Beauty"
	RootHousehold Root = "Household"
)

// Roots lists the category roots in display order.
var Roots = []Root{RootFood, RootMedicine, RootBeauty, RootHousehold}

// SubCategory tells where a food item is kept.
type SubCategory string

// Food sub-categories.
const (
	SubPantry  SubCategory = "Pantry"
	SubFridge  SubCategory = "Fridge"
	SubFreezer SubCategory = "Freezer"
)

// SubCategories lists the food sub-categories in display order.
var SubCategories = []SubCategory{SubPantry, SubFridge, SubFreezer}

// Category is one of Food, Medicine, Beauty or Household. The set is closed:
// only types in this package implement it.
type Category interface {
	Root() Root
	// String returns the persisted form, e.g. "Food (Fridge)" or "Beauty".
	String() string
	sealed()
}

// Food is a food item kept in a pantry, fridge or freezer.
type Food struct {
	Sub SubCategory
}

func (Food) Root() Root       { return RootFood }
func (f Food) String() string { return fmt.Sprintf("%s (%s)", RootFood, f.Sub) }
func (Food) sealed()          {}

// Medicine is a medicine item.
type Medicine struct{}

func (Medicine) Root() Root     { return RootMedicine }
func (Medicine) String() string { return string(RootMedicine) }
func (Medicine) sealed()        {}

// Beauty is a cosmetics or toiletry item.
type Beauty struct{}

func (Beauty) Root() Root     { return RootBeauty }
func (Beauty) String() string { return string(RootBeauty) }
func (Beauty) sealed()        {}

// Household is a cleaning or general household item.
type Household struct{}

func (Household) Root() Root     { return RootHousehold }
func (Household) String() string { return string(RootHousehold) }
func (Household) sealed()        {}

// NewCategory builds a category from a root and, for food, a sub-category.
// An empty sub-category defaults to Pantry. The sub-category is ignored for
// every root other than Food.
func NewCategory(root Root, sub SubCategory) (Category, error) {
	switch root {
	case RootFood:
		if sub == "" {
			sub = SubPantry
		}
		if !validSub(sub) {
			return nil, fmt.Errorf("unknown food sub-category %q", sub)
		}
		return Food{Sub: sub}, nil
	case RootMedicine:
		return Medicine{}, nil
	case RootBeauty:
		return Beauty{}, nil
	case RootHousehold:
		return Household{}, nil
	default:
		return nil, fmt.Errorf("unknown category %q", root)
	}
}

// ParseCategory parses the persisted form produced by Category.String.
func ParseCategory(s string) (Category, error) {
	if rest, ok := strings.CutPrefix(s, string(RootFood)+" ("); ok {
		sub, ok := strings.CutSuffix(rest, ")")
		if !ok {
			return nil, fmt.Errorf("malformed category %q", s)
		}
		return NewCategory(RootFood, SubCategory(sub))
	}
	if Root(s) == RootFood {
		return nil, fmt.Errorf("food category %q has no sub-category", s)
	}
	return NewCategory(Root(s), "")
}

func validSub(sub SubCategory) bool {
	for _, s := range SubCategories {
		if s == sub {
			return true
		}
	}
	return false
}
