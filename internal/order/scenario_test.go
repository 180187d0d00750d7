package order_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"storefront-be/internal/cart"
	"storefront-be/internal/catalog"
	"storefront-be/internal/inventory"
	"storefront-be/internal/memstore"
	"storefront-be/internal/order"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func newEngine(items ...catalog.Item) (*memstore.Store, order.Service) {
	st := memstore.New()
	st.PutStore(catalog.Store{ID: "store-1", OwnerID: "seller-1", Name: "Corner Shop"})
	for _, it := range items {
		if it.StoreID == "" {
			it.StoreID = "store-1"
		}
		it.Active = true
		st.PutItem(it)
	}

	svc := order.NewService(order.Dependencies{
		Orders:      st.Orders(),
		Catalog:     st.Catalog(),
		Inventory:   inventory.NewLedger(st.Inventory()),
		Carts:       st.Carts(),
		UnitOfWork:  st,
		Idempotency: st.Idempotency(),
	})
	return st, svc
}

func stockOf(t *testing.T, st *memstore.Store, itemID string) int {
	t.Helper()
	it, err := st.Catalog().GetItem(context.Background(), itemID)
	require.NoError(t, err)
	return it.Stock
}

func buy(buyer string, lines ...order.Line) order.CheckoutRequest {
	return order.CheckoutRequest{BuyerID: buyer, Source: order.SourceDirect, Lines: lines}
}

func TestCheckout_NoOversellUnderConcurrency(t *testing.T) {
	st, svc := newEngine(catalog.Item{ID: "A", Price: 10, Stock: 10})
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		purchased int
	)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			qty := 1 + i%3
			_, err := svc.Checkout(ctx, buy(fmt.Sprintf("buyer-%d", i), order.Line{ItemID: "A", Quantity: qty}))
			if err != nil {
				assert.ErrorIs(t, err, catalog.ErrInsufficientStock)
				return
			}
			mu.Lock()
			purchased += qty
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, purchased, 10)
	assert.Equal(t, 10-purchased, stockOf(t, st, "A"))
}

func TestCheckout_LastUnitGoesToExactlyOneBuyer(t *testing.T) {
	st, svc := newEngine(catalog.Item{ID: "A", Price: 10, Stock: 1})
	ctx := context.Background()

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Checkout(ctx, buy(fmt.Sprintf("buyer-%d", i), order.Line{ItemID: "A", Quantity: 1}))
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, catalog.ErrInsufficientStock)
		id, ok := catalog.ItemIDFromError(err)
		require.True(t, ok)
		assert.Equal(t, "A", id)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, stockOf(t, st, "A"))
}

func TestCheckout_AllOrNothing(t *testing.T) {
	st, svc := newEngine(
		catalog.Item{ID: "A", Price: 10, Stock: 5},
		catalog.Item{ID: "B", Price: 10, Stock: 3},
		catalog.Item{ID: "C", Price: 10, Stock: 0},
	)
	ctx := context.Background()

	_, err := svc.Checkout(ctx, buy("buyer-1",
		order.Line{ItemID: "A", Quantity: 2},
		order.Line{ItemID: "B", Quantity: 3},
		order.Line{ItemID: "C", Quantity: 1},
	))

	require.ErrorIs(t, err, catalog.ErrInsufficientStock)
	assert.Equal(t, 5, stockOf(t, st, "A"))
	assert.Equal(t, 3, stockOf(t, st, "B"))
	assert.Equal(t, 0, stockOf(t, st, "C"))

	orders, err := svc.ListOrders(ctx, "buyer-1")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCheckout_FailedInsertLeavesNoOrders(t *testing.T) {
	st := memstore.New()
	st.PutStore(catalog.Store{ID: "store-1", OwnerID: "seller-1"})
	st.PutItem(catalog.Item{ID: "A", StoreID: "store-1", Price: 10, Stock: 5, Active: true})
	st.PutItem(catalog.Item{ID: "B", StoreID: "store-1", Price: 10, Stock: 5, Active: true})

	svc := order.NewService(order.Dependencies{
		Orders:     st.Orders(),
		Catalog:    st.Catalog(),
		Inventory:  inventory.NewLedger(st.Inventory()),
		Carts:      st.Carts(),
		UnitOfWork: st,
	}, order.WithIDGenerator(func() string { return "same-id" }))

	_, err := svc.Checkout(context.Background(), buy("buyer-1",
		order.Line{ItemID: "A", Quantity: 1},
		order.Line{ItemID: "B", Quantity: 1},
	))
	require.ErrorIs(t, err, order.ErrPersistence)

	orders, err := st.Orders().ListByBuyer(context.Background(), "buyer-1")
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Equal(t, 5, stockOf(t, st, "A"))
	assert.Equal(t, 5, stockOf(t, st, "B"))
}

func TestCheckout_WrappingQuantitiesRejected(t *testing.T) {
	st, svc := newEngine(catalog.Item{ID: "A", Price: 10, Stock: 5})

	_, err := svc.Checkout(context.Background(), buy("buyer-1",
		order.Line{ItemID: "A", Quantity: math.MaxInt},
		order.Line{ItemID: "A", Quantity: math.MaxInt},
		order.Line{ItemID: "A", Quantity: 3},
	))
	require.ErrorIs(t, err, order.ErrInvalidQuantity)

	orders, err := st.Orders().ListByBuyer(context.Background(), "buyer-1")
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Equal(t, 5, stockOf(t, st, "A"))
}

func TestCancel_RestoresStockExactly(t *testing.T) {
	st, svc := newEngine(catalog.Item{ID: "A", Price: 10, Stock: 5})
	ctx := context.Background()

	res, err := svc.Checkout(ctx, buy("buyer-1", order.Line{ItemID: "A", Quantity: 3}))
	require.NoError(t, err)
	assert.Equal(t, 2, stockOf(t, st, "A"))

	o, err := svc.CancelOrder(ctx, res.Orders[0].ID, "buyer-1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusCanceled, o.Status)
	assert.Equal(t, 5, stockOf(t, st, "A"))

	_, err = svc.CancelOrder(ctx, res.Orders[0].ID, "buyer-1")
	assert.ErrorIs(t, err, order.ErrInvalidOrderState)
	assert.Equal(t, 5, stockOf(t, st, "A"))
}

func TestCancel_ConcurrentCancelsReleaseOnce(t *testing.T) {
	st, svc := newEngine(catalog.Item{ID: "A", Price: 10, Stock: 5})
	ctx := context.Background()

	res, err := svc.Checkout(ctx, buy("buyer-1", order.Line{ItemID: "A", Quantity: 4}))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.CancelOrder(ctx, res.Orders[0].ID, "buyer-1")
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, stockOf(t, st, "A"))
}

func TestCheckout_TotalIsFrozen(t *testing.T) {
	st, svc := newEngine(catalog.Item{ID: "A", Price: 1000, Discount: 25, Stock: 10})
	ctx := context.Background()

	res, err := svc.Checkout(ctx, buy("buyer-1", order.Line{ItemID: "A", Quantity: 2}))
	require.NoError(t, err)
	assert.Equal(t, 1500.0, res.Orders[0].Total)

	require.NoError(t, st.SetPrice("A", 2000))

	o, err := svc.GetOrder(ctx, res.Orders[0].ID, "buyer-1")
	require.NoError(t, err)
	assert.Equal(t, 1500.0, o.Total)
	assert.Equal(t, 1000.0, o.UnitPrice)
}

func TestCheckout_FromCartClearsCart(t *testing.T) {
	st, svc := newEngine(
		catalog.Item{ID: "A", Price: 10, Stock: 10},
		catalog.Item{ID: "B", Price: 4, Stock: 10},
	)
	ctx := context.Background()
	carts := cart.NewService(st.Carts(), st.Catalog())

	_, err := carts.AddLine(ctx, "buyer-1", "A", 2)
	require.NoError(t, err)
	_, err = carts.AddLine(ctx, "buyer-1", "A", 3)
	require.NoError(t, err)
	_, err = carts.AddLine(ctx, "buyer-1", "B", 1)
	require.NoError(t, err)

	res, err := svc.Checkout(ctx, order.CheckoutRequest{BuyerID: "buyer-1", Source: order.SourceCart})
	require.NoError(t, err)
	require.Len(t, res.Orders, 2)
	assert.Equal(t, 5, res.Orders[0].Quantity)

	c, err := carts.GetCart(ctx, "buyer-1")
	require.NoError(t, err)
	assert.Empty(t, c.Lines)
	assert.Equal(t, 5, stockOf(t, st, "A"))
	assert.Equal(t, 9, stockOf(t, st, "B"))
}

func TestCheckout_FailedCartCheckoutKeepsCart(t *testing.T) {
	st, svc := newEngine(catalog.Item{ID: "A", Price: 10, Stock: 2})
	ctx := context.Background()
	carts := cart.NewService(st.Carts(), st.Catalog())

	_, err := carts.AddLine(ctx, "buyer-1", "A", 2)
	require.NoError(t, err)

	// Someone else takes the stock first.
	_, err = svc.Checkout(ctx, buy("buyer-2", order.Line{ItemID: "A", Quantity: 1}))
	require.NoError(t, err)

	_, err = svc.Checkout(ctx, order.CheckoutRequest{BuyerID: "buyer-1", Source: order.SourceCart})
	require.ErrorIs(t, err, catalog.ErrInsufficientStock)

	c, err := carts.GetCart(ctx, "buyer-1")
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, "A", c.Lines[0].ItemID)
	assert.Equal(t, 2, c.Lines[0].Quantity)
}

func TestCheckout_ConcurrentCartCheckoutsOrderOnce(t *testing.T) {
	st, svc := newEngine(catalog.Item{ID: "A", Price: 10, Stock: 10})
	ctx := context.Background()
	carts := cart.NewService(st.Carts(), st.Catalog())

	_, err := carts.AddLine(ctx, "buyer-1", "A", 3)
	require.NoError(t, err)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Checkout(ctx, order.CheckoutRequest{BuyerID: "buyer-1", Source: order.SourceCart})
			if err != nil {
				assert.ErrorIs(t, err, order.ErrEmptyCheckout)
				return
			}
			mu.Lock()
			succeeded++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 7, stockOf(t, st, "A"))

	orders, err := svc.ListOrders(ctx, "buyer-1")
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestCheckout_IdempotencyKeyReplays(t *testing.T) {
	st, svc := newEngine(catalog.Item{ID: "A", Price: 10, Stock: 10})
	ctx := context.Background()

	req := buy("buyer-1", order.Line{ItemID: "A", Quantity: 2})
	req.IdempotencyKey = "retry-me"

	first, err := svc.Checkout(ctx, req)
	require.NoError(t, err)
	second, err := svc.Checkout(ctx, req)
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.OrderIDs(), second.OrderIDs())
	assert.Equal(t, 8, stockOf(t, st, "A"))

	// The key is scoped to the buyer.
	other := req
	other.BuyerID = "buyer-2"
	third, err := svc.Checkout(ctx, other)
	require.NoError(t, err)
	assert.False(t, third.Replayed)
	assert.Equal(t, 6, stockOf(t, st, "A"))
}

func TestLifecycle_ThroughReceived(t *testing.T) {
	st, svc := newEngine(catalog.Item{ID: "A", Price: 10, Stock: 10})
	ctx := context.Background()

	res, err := svc.Checkout(ctx, buy("buyer-1", order.Line{ItemID: "A", Quantity: 3}))
	require.NoError(t, err)
	id := res.Orders[0].ID

	_, err = svc.MarkProcessing(ctx, id, "seller-1")
	require.NoError(t, err)
	_, err = svc.MarkShipped(ctx, id, "seller-1")
	require.NoError(t, err)

	_, err = svc.CancelOrder(ctx, id, "buyer-1")
	assert.ErrorIs(t, err, order.ErrInvalidOrderState)

	o, err := svc.ConfirmReceived(ctx, id, "buyer-1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusReceived, o.Status)

	it, err := st.Catalog().GetItem(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 7, it.Stock)
	assert.Equal(t, 3, it.Sold)

	sellerOrders, err := svc.ListStoreOrders(ctx, "seller-1")
	require.NoError(t, err)
	assert.Len(t, sellerOrders, 1)
}

// Stock plus the quantity held by live orders always equals the initial
// stock, and stock never goes negative.
func TestInventoryConservation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		initial := rapid.IntRange(0, 20).Draw(t, "stock")
		st, svc := newEngine(catalog.Item{ID: "A", Price: 3, Stock: initial})
		ctx := context.Background()

		held := map[string]int{}
		steps := rapid.IntRange(1, 30).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			if len(held) > 0 && rapid.Bool().Draw(t, "cancel") {
				ids := make([]string, 0, len(held))
				for id := range held {
					ids = append(ids, id)
				}
				sort.Strings(ids)
				id := rapid.SampledFrom(ids).Draw(t, "order")
				if _, err := svc.CancelOrder(ctx, id, "buyer"); err != nil {
					t.Fatalf("cancel %s: %v", id, err)
				}
				delete(held, id)
				continue
			}

			qty := rapid.IntRange(1, 6).Draw(t, "qty")
			res, err := svc.Checkout(ctx, buy("buyer", order.Line{ItemID: "A", Quantity: qty}))
			if err != nil {
				if !errors.Is(err, catalog.ErrInsufficientStock) {
					t.Fatalf("checkout: %v", err)
				}
				continue
			}
			held[res.Orders[0].ID] = qty
		}

		it, err := st.Catalog().GetItem(ctx, "A")
		if err != nil {
			t.Fatal(err)
		}
		total := it.Stock
		for _, q := range held {
			total += q
		}
		if it.Stock < 0 || total != initial {
			t.Fatalf("stock %d with %v held, started at %d", it.Stock, held, initial)
		}
	})
}
