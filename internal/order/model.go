package order

import "time"

type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusReceived   Status = "Received"
	StatusCanceled   Status = "Canceled"
)

// Source tells the coordinator where checkout lines come from.
type Source string

const (
	SourceCart   Source = "cart"
	SourceDirect Source = "direct"
)

// Order is one (buyer, item, quantity) purchase. Quantity, prices and Total
// are snapshots taken at checkout and never change afterwards.
type Order struct {
	ID           string     `json:"id"`
	BuyerID      string     `json:"buyer_id"`
	ItemID       string     `json:"item_id"`
	StoreID      string     `json:"store_id"`
	Quantity     int        `json:"quantity"`
	UnitPrice    float64    `json:"unit_price"`
	Discount     int        `json:"discount"`
	Total        float64    `json:"total"`
	Status       Status     `json:"status"`
	OrderDate    time.Time  `json:"order_date"`
	ReceivedDate *time.Time `json:"received_date,omitempty"`
	Review       *Review    `json:"review,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Review is attached to a Received order at most once.
type Review struct {
	Rate               int        `json:"rate"`
	Comment            string     `json:"comment"`
	Date               time.Time  `json:"date"`
	SellerFeedback     *string    `json:"seller_feedback,omitempty"`
	SellerFeedbackDate *time.Time `json:"seller_feedback_date,omitempty"`
}

type Line struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

type CheckoutRequest struct {
	BuyerID    string
	BuyerEmail string
	// Lines is only read for SourceDirect; cart checkouts load the cart.
	Lines          []Line
	Source         Source
	IdempotencyKey string
}

type CheckoutResult struct {
	Orders []*Order `json:"orders"`
	// Replayed is set when the result belongs to an earlier request with
	// the same idempotency key.
	Replayed bool `json:"replayed"`
}

// OrderIDs returns the ids of the created orders in line order.
func (r *CheckoutResult) OrderIDs() []string {
	ids := make([]string, 0, len(r.Orders))
	for _, o := range r.Orders {
		ids = append(ids, o.ID)
	}
	return ids
}
