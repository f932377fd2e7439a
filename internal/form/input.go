package form

import (
	"errors"

	"github.com/erazemk/zaloga/internal/model"
)

// Input is a draft as submitted by an HTML form or a JSON body.
type Input struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Sub      string `json:"sub_category"`
	Location string `json:"location"`
	Expiry   string `json:"expiry_date"`
}

// Fill copies in into the draft. Category takes a root such as "Food" or
// a persisted category such as "Food (Fridge)". Empty category and expiry
// keep the current selection.
func (c *Controller) Fill(in Input) error {
	if in.Category != "" {
		root, sub := model.Root(in.Category), model.SubCategory(in.Sub)
		if cat, err := model.ParseCategory(in.Category); err == nil {
			root = cat.Root()
			if food, ok := cat.(model.Food); ok {
				sub = food.Sub
			}
		}
		if err := c.SetRoot(root); err != nil {
			return fieldError(err, "category")
		}
		if root == model.RootFood && sub != "" {
			if err := c.SetSub(sub); err != nil {
				return fieldError(err, "sub_category")
			}
		}
	}

	if in.Expiry != "" {
		date, err := model.ParseDate(in.Expiry)
		if err != nil {
			return &ValidationError{Fields: []string{"expiry_date"}}
		}
		if err := c.SetExpiryDate(date); err != nil {
			return fieldError(err, "expiry_date")
		}
	}

	if err := c.SetName(in.Name); err != nil {
		return err
	}
	return c.SetLocation(in.Location)
}

func fieldError(err error, field string) error {
	if errors.Is(err, ErrNotEditable) {
		return err
	}
	return &ValidationError{Fields: []string{field}}
}
