package cart

import "time"

// Line is one item in a cart. Quantity is always positive; a line whose
// quantity would drop to zero is removed instead.
type Line struct {
	ItemID    string    `json:"item_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Cart struct {
	UserID string `json:"user_id"`
	Lines  []Line `json:"lines"`
}
