package review

import (
	"storefront-be/internal/order"
	"time"
)

const (
	MinRating        = 1
	MaxRating        = 5
	MaxCommentLength = 2000
)

// ItemReview is a review as shown on an item page.
type ItemReview struct {
	OrderID            string     `json:"order_id"`
	BuyerID            string     `json:"buyer_id"`
	ItemID             string     `json:"item_id"`
	Rate               int        `json:"rate"`
	Comment            string     `json:"comment"`
	Date               time.Time  `json:"date"`
	SellerFeedback     *string    `json:"seller_feedback,omitempty"`
	SellerFeedbackDate *time.Time `json:"seller_feedback_date,omitempty"`
}

func fromOrder(o *order.Order) ItemReview {
	r := ItemReview{
		OrderID: o.ID,
		BuyerID: o.BuyerID,
		ItemID:  o.ItemID,
	}
	if o.Review != nil {
		r.Rate = o.Review.Rate
		r.Comment = o.Review.Comment
		r.Date = o.Review.Date
		r.SellerFeedback = o.Review.SellerFeedback
		r.SellerFeedbackDate = o.Review.SellerFeedbackDate
	}
	return r
}
