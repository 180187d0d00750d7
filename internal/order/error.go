package order

import "errors"

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidOrderState  = errors.New("invalid order state")
	ErrInvalidSource      = errors.New("invalid checkout source")
	ErrEmptyCheckout      = errors.New("checkout has no lines")
	ErrInvalidQuantity    = errors.New("quantity out of range")
	ErrCheckoutInProgress = errors.New("checkout with this idempotency key is in progress")
	ErrPersistence        = errors.New("persistence failure")
)
