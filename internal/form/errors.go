package form

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotEditable is returned by a mutation while a save is running or
	// after it has completed.
	ErrNotEditable = errors.New("form: draft is not editable")
	// ErrBusy is returned by Submit while another submit is running.
	ErrBusy = errors.New("form: save already in progress")
)

// ValidationError lists the required fields that are empty.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

// Has reports whether field failed validation.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// SaveError reports a failed insert. The draft is kept so the save can be
// retried.
type SaveError struct {
	Err error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("saving item: %v", e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}
