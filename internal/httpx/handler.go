package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"storefront-be/internal/cart"
	"storefront-be/internal/metrics"
	"storefront-be/internal/order"
	"storefront-be/internal/review"
	"storefront-be/internal/utils"
	"time"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	orders  order.Service
	carts   cart.Service
	reviews review.Service
	stats   *metrics.CheckoutStats
	ping    func(ctx context.Context) error
}

// NewHandler wires the services behind the HTTP routes. ping backs /health
// and may be nil.
func NewHandler(
	orders order.Service,
	carts cart.Service,
	reviews review.Service,
	stats *metrics.CheckoutStats,
	ping func(ctx context.Context) error,
) *Handler {
	return &Handler{
		orders:  orders,
		carts:   carts,
		reviews: reviews,
		stats:   stats,
		ping:    ping,
	}
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return nil
}

func userID(r *http.Request) string {
	id, _ := utils.GetUserIDFromContext(r.Context())
	return id
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.ping(ctx); err != nil {
			utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, h.stats.Snapshot())
}

type checkoutRequest struct {
	Source order.Source `json:"source"`
	Lines  []order.Line `json:"lines"`
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var body checkoutRequest
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if body.Source == "" {
		body.Source = order.SourceDirect
		if len(body.Lines) == 0 {
			body.Source = order.SourceCart
		}
	}

	res, err := h.orders.Checkout(r.Context(), order.CheckoutRequest{
		BuyerID:        userID(r),
		BuyerEmail:     utils.GetUserEmailFromContext(r.Context()),
		Lines:          body.Lines,
		Source:         body.Source,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	code := http.StatusCreated
	if res.Replayed {
		code = http.StatusOK
	}
	utils.WriteJSON(w, code, res)
}

type transitionFunc func(ctx context.Context, orderID, actorID string) (*order.Order, error)

func (h *Handler) transition(fn transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, err := fn(r.Context(), chi.URLParam(r, "id"), userID(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		utils.WriteJSON(w, http.StatusOK, o)
	}
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(h.orders.CancelOrder)(w, r)
}

func (h *Handler) ConfirmReceived(w http.ResponseWriter, r *http.Request) {
	h.transition(h.orders.ConfirmReceived)(w, r)
}

func (h *Handler) MarkProcessing(w http.ResponseWriter, r *http.Request) {
	h.transition(h.orders.MarkProcessing)(w, r)
}

func (h *Handler) MarkShipped(w http.ResponseWriter, r *http.Request) {
	h.transition(h.orders.MarkShipped)(w, r)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetOrder(r.Context(), chi.URLParam(r, "id"), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, nonNil(orders))
}

func (h *Handler) ListStoreOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListStoreOrders(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, nonNil(orders))
}

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *Handler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	var body reviewRequest
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	rv, err := h.reviews.SubmitReview(r.Context(), chi.URLParam(r, "id"), userID(r), body.Rating, body.Comment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, rv)
}

type feedbackRequest struct {
	Message string `json:"message"`
}

func (h *Handler) AttachSellerFeedback(w http.ResponseWriter, r *http.Request) {
	var body feedbackRequest
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	rv, err := h.reviews.AttachSellerFeedback(r.Context(), chi.URLParam(r, "id"), userID(r), body.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, rv)
}

func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.ListReviews(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, reviews)
}

func (h *Handler) RecomputeRating(w http.ResponseWriter, r *http.Request) {
	if utils.GetUserRoleFromContext(r.Context()) != utils.RoleAdmin {
		writeError(w, r, order.ErrForbidden)
		return
	}

	itemID := chi.URLParam(r, "id")
	rating, err := h.reviews.RecomputeRating(r.Context(), itemID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"item_id": itemID, "rating": rating})
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.GetCart(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if c.Lines == nil {
		c.Lines = []cart.Line{}
	}
	utils.WriteJSON(w, http.StatusOK, c)
}

type cartLineRequest struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

func (h *Handler) AddCartLine(w http.ResponseWriter, r *http.Request) {
	var body cartLineRequest
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	line, err := h.carts.AddLine(r.Context(), userID(r), body.ItemID, body.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, line)
}

func (h *Handler) SetCartQuantity(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	line, err := h.carts.SetQuantity(r.Context(), userID(r), chi.URLParam(r, "itemID"), body.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if line == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	utils.WriteJSON(w, http.StatusOK, line)
}

func (h *Handler) RemoveCartLine(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.RemoveLine(r.Context(), userID(r), chi.URLParam(r, "itemID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Clear(r.Context(), userID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func nonNil(orders []*order.Order) []*order.Order {
	if orders == nil {
		return []*order.Order{}
	}
	return orders
}
