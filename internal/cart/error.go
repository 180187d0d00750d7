package cart

import "errors"

var (
	// -- Authentication/Authorization --
	ErrUserNotAuthenticated = errors.New("user not authenticated")

	// -- Validation & Input --
	ErrInvalidQuantity = errors.New("invalid cart quantity")
	ErrInvalidItem     = errors.New("item id is required")

	// -- Resource State --
	ErrCartItemNotFound = errors.New("cart item not found")
)
