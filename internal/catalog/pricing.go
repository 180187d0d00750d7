package catalog

import "storefront-be/internal/utils"

// UnitPrice is the price after the item's discount.
func (i *Item) UnitPrice() float64 {
	return discounted(i.Price, i.Discount)
}

// LineTotal is price × (1 − discount/100) × qty rounded to cents. Orders store
// it as a snapshot at checkout time.
func LineTotal(price float64, discount, qty int) float64 {
	return utils.RoundTo(discounted(price, discount)*float64(qty), 2)
}

func discounted(price float64, discount int) float64 {
	if discount < 0 {
		discount = 0
	}
	if discount > 100 {
		discount = 100
	}
	return price * (1 - float64(discount)/100)
}
