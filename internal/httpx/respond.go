package httpx

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/openaxle/go-parts-market/internal/catalog"
	"github.com/openaxle/go-parts-market/internal/community"
	"github.com/openaxle/go-parts-market/internal/orders"
	"github.com/openaxle/go-parts-market/internal/postgres"
	"github.com/openaxle/go-parts-market/internal/users"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto status codes. Business failures carry a
// specific message; anything unrecognized becomes a generic 500 so internal
// error bodies never leak.
func writeError(w http.ResponseWriter, err error) {
	var stockErr *orders.InsufficientStockError
	var transErr *orders.InvalidTransitionError
	var partialErr *orders.PartialSettlementError

	switch {
	case errors.Is(err, orders.ErrCartEmpty),
		errors.Is(err, orders.ErrMissingLocation),
		errors.Is(err, community.ErrBadVote):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.As(err, &stockErr):
		writeJSON(w, http.StatusConflict, map[string]string{
			"error":       "out of stock",
			"part_id":     stockErr.PartID,
			"location_id": stockErr.LocationID,
		})
	case errors.As(err, &transErr):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.As(err, &partialErr):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":        "partial inventory settlement",
			"order_id":     partialErr.OrderID,
			"failed_lines": partialErr.Failed,
		})
	case errors.Is(err, orders.ErrNotFound),
		errors.Is(err, catalog.ErrPartNotFound),
		errors.Is(err, users.ErrNotFound),
		errors.Is(err, community.ErrPostNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, users.ErrEmailTaken):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, postgres.ErrTxTimeout):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "try again later"})
	default:
		log.Printf("internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
