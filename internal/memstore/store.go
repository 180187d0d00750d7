package memstore

import (
	"context"
	"sort"
	"storefront-be/internal/cart"
	"storefront-be/internal/catalog"
	"storefront-be/internal/order"
	"sync"
	"time"
)

// Store keeps the whole catalog, carts and orders in memory. It satisfies the
// same repository contracts as the Postgres implementations. Units of work
// run one at a time, which gives them serializable isolation, and a failed
// one is rolled back.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	stores map[string]catalog.Store
	items  map[string]*catalog.Item
	carts  map[string]map[string]*cart.Line
	orders map[string]*order.Order
	keys   map[string]*idemEntry

	now func() time.Time
}

func New() *Store {
	return &Store{
		stores: make(map[string]catalog.Store),
		items:  make(map[string]*catalog.Item),
		carts:  make(map[string]map[string]*cart.Line),
		orders: make(map[string]*order.Order),
		keys:   make(map[string]*idemEntry),
		now:    time.Now,
	}
}

// PutStore adds or replaces a store.
func (s *Store) PutStore(st catalog.Store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stores[st.ID] = st
}

// PutItem adds or replaces an item. OwnerID is taken from the item's store
// when that store is known.
func (s *Store) PutItem(item catalog.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.stores[item.StoreID]; ok {
		item.OwnerID = st.OwnerID
	}
	now := s.now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	s.items[item.ID] = &item
}

// SetPrice changes an item's price. Existing orders keep their snapshot.
func (s *Store) SetPrice(itemID string, price float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		return catalog.NewItemError(itemID, catalog.ErrItemNotFound)
	}
	item.Price = price
	item.UpdatedAt = s.now()
	return nil
}

type txKey struct{}

// RunInTx runs fn while holding the store's transaction lock. Writes made
// through ctx are undone when fn fails. Nested calls join the outer unit of
// work.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if journalFrom(ctx) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	j := newJournal()
	if err := fn(context.WithValue(ctx, txKey{}, j)); err != nil {
		s.rollback(j)
		return err
	}
	return nil
}

func (s *Store) Catalog() *CatalogRepository     { return &CatalogRepository{s} }
func (s *Store) Inventory() *InventoryRepository { return &InventoryRepository{s} }
func (s *Store) Carts() *CartRepository          { return &CartRepository{s} }
func (s *Store) Orders() *OrderRepository        { return &OrderRepository{s} }
func (s *Store) Reviews() *ReviewRepository      { return &ReviewRepository{s} }
func (s *Store) Idempotency() *IdempotencyStore  { return &IdempotencyStore{s} }

func copyOrder(o *order.Order) *order.Order {
	c := *o
	if o.ReceivedDate != nil {
		d := *o.ReceivedDate
		c.ReceivedDate = &d
	}
	if o.Review != nil {
		r := *o.Review
		c.Review = &r
	}
	return &c
}

// sortNewestFirst orders by order date descending, then id.
func sortNewestFirst(orders []*order.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].OrderDate.Equal(orders[j].OrderDate) {
			return orders[i].OrderDate.After(orders[j].OrderDate)
		}
		return orders[i].ID < orders[j].ID
	})
}
