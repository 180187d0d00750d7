package inventory

import "errors"

var (
	ErrInvalidQuantity = errors.New("quantity out of range")
)
