package catalog

import "time"

// Item is the catalog's view of a sellable item. Stock and Sold belong to the
// inventory ledger and Rating to the review aggregator; client input never
// writes them.
type Item struct {
	ID        string    `json:"id"`
	StoreID   string    `json:"store_id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Discount  int       `json:"discount"`
	Stock     int       `json:"stock"`
	Sold      int       `json:"sold"`
	Rating    float64   `json:"rating"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Store struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	Name    string `json:"name"`
}
