package review

import "storefront-be/internal/utils"

// AverageRating is the item rating for the given review totals, rounded to
// one decimal. An item without reviews is rated 0.
func AverageRating(sum, count int) float64 {
	if count <= 0 {
		return 0
	}
	return utils.RoundTo(float64(sum)/float64(count), 1)
}
