package httpx

import (
	"errors"
	"net/http"
	"storefront-be/internal/cart"
	"storefront-be/internal/catalog"
	"storefront-be/internal/inventory"
	"storefront-be/internal/logger"
	"storefront-be/internal/order"
	"storefront-be/internal/review"
	"storefront-be/internal/utils"

	"go.uber.org/zap"
)

type errorResponse struct {
	Error  string `json:"error"`
	ItemID string `json:"item_id,omitempty"`
}

var errInvalidBody = errors.New("invalid request body")

var statusByError = []struct {
	err  error
	code int
}{
	{errInvalidBody, http.StatusBadRequest},
	{order.ErrInvalidSource, http.StatusBadRequest},
	{order.ErrEmptyCheckout, http.StatusBadRequest},
	{order.ErrInvalidQuantity, http.StatusBadRequest},
	{inventory.ErrInvalidQuantity, http.StatusBadRequest},
	{cart.ErrInvalidQuantity, http.StatusBadRequest},
	{cart.ErrInvalidItem, http.StatusBadRequest},
	{review.ErrInvalidRating, http.StatusBadRequest},
	{review.ErrEmptyFeedback, http.StatusBadRequest},
	{review.ErrCommentTooLong, http.StatusBadRequest},

	{order.ErrUnauthorized, http.StatusUnauthorized},
	{cart.ErrUserNotAuthenticated, http.StatusUnauthorized},

	{order.ErrForbidden, http.StatusForbidden},

	{order.ErrOrderNotFound, http.StatusNotFound},
	{catalog.ErrItemNotFound, http.StatusNotFound},
	{cart.ErrCartItemNotFound, http.StatusNotFound},

	{catalog.ErrInsufficientStock, http.StatusConflict},
	{catalog.ErrItemInactive, http.StatusConflict},
	{order.ErrInvalidOrderState, http.StatusConflict},
	{order.ErrCheckoutInProgress, http.StatusConflict},

	{order.ErrPersistence, http.StatusServiceUnavailable},
}

// StatusFor maps a service error to its HTTP status.
func StatusFor(err error) int {
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return m.code
		}
	}
	return http.StatusInternalServerError
}

// writeError answers with the mapped status. Errors naming an item carry its
// id so clients can point at the offending line.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := StatusFor(err)

	resp := errorResponse{Error: err.Error()}
	if id, ok := catalog.ItemIDFromError(err); ok {
		resp.ItemID = id
	}

	if code >= http.StatusInternalServerError {
		logger.FromCtx(r.Context()).Error("request failed",
			zap.String("layer", "http"),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		if code == http.StatusInternalServerError {
			resp.Error = http.StatusText(code)
		}
	}

	utils.WriteJSON(w, code, resp)
}

func writeErrorStatus(w http.ResponseWriter, code int) {
	utils.WriteJSONError(w, http.StatusText(code), code)
}
