package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineTotal(t *testing.T) {
	tests := []struct {
		name     string
		price    float64
		discount int
		qty      int
		want     float64
	}{
		{"quarter off two units", 1000, 25, 2, 1500},
		{"no discount", 19.99, 0, 3, 59.97},
		{"full discount", 500, 100, 4, 0},
		{"rounds to cents", 10, 33, 1, 6.7},
		{"negative discount treated as none", 100, -5, 1, 100},
		{"discount above 100 treated as full", 100, 150, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, LineTotal(tt.price, tt.discount, tt.qty), 1e-9)
		})
	}
}

func TestItem_UnitPrice(t *testing.T) {
	item := &Item{Price: 1000, Discount: 25}
	assert.InDelta(t, 750.0, item.UnitPrice(), 1e-9)
}

func TestItemError(t *testing.T) {
	err := NewItemError("item-a", ErrInsufficientStock)

	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.NotErrorIs(t, err, ErrItemNotFound)
	assert.Equal(t, "insufficient stock: item item-a", err.Error())

	id, ok := ItemIDFromError(err)
	assert.True(t, ok)
	assert.Equal(t, "item-a", id)

	_, ok = ItemIDFromError(ErrItemInactive)
	assert.False(t, ok)
}
