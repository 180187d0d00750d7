package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrItemNotFound      = errors.New("item not found")
	ErrItemInactive      = errors.New("item is not active")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ItemError ties one of the item sentinels to the offending item so callers
// can tell the buyer which line to adjust.
type ItemError struct {
	ItemID string
	Err    error
}

func NewItemError(itemID string, err error) error {
	return &ItemError{ItemID: itemID, Err: err}
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s: item %s", e.Err, e.ItemID)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// ItemIDFromError returns the item named by err, if any.
func ItemIDFromError(err error) (string, bool) {
	var ie *ItemError
	if errors.As(err, &ie) {
		return ie.ItemID, true
	}
	return "", false
}
