package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/openaxle/go-parts-market/internal/orders"
	"github.com/openaxle/go-parts-market/internal/redisx"
)

// WebhookHandler consumes the payment provider's confirmation feed. The feed
// redelivers freely; the unique session index behind the reconciler makes
// that safe, and Redis only short-cuts the obvious repeats.
type WebhookHandler struct {
	Reconciler *orders.Reconciler
	Orders     orders.Store
	Redis      *redis.Client
	Events     *OrderEvents
}

func (h *WebhookHandler) Register(r *chi.Mux) {
	r.Post("/api/webhooks/payment", h.paymentConfirmed)
}

func (h *WebhookHandler) paymentConfirmed(w http.ResponseWriter, r *http.Request) {
	var ev orders.PaymentEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if ev.SessionID == "" || ev.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing session_id or user_id"})
		return
	}
	if ev.Provider == "" {
		ev.Provider = "stripe"
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Fast path for redeliveries we have already fully processed.
	sessKey := fmt.Sprintf(redisx.KeyPaymentSession, ev.SessionID)
	if orderID, err := h.Redis.Get(ctx, sessKey).Result(); err == nil && orderID != "" {
		writeJSON(w, http.StatusOK, map[string]string{"order_id": orderID, "result": "duplicate"})
		return
	}

	ord, err := h.Reconciler.OnPaymentConfirmed(ctx, ev)
	if err != nil {
		writeError(w, err)
		return
	}
	if ord == nil {
		// Nothing to reconcile; acknowledged so the provider stops retrying.
		writeJSON(w, http.StatusOK, map[string]string{"result": "ignored"})
		return
	}

	if created, _ := h.Redis.SetNX(ctx, sessKey, ord.ID, redisx.TTLPaymentSession).Result(); created {
		h.Events.OrderCreated(ctx, ord, middleware.GetReqID(r.Context()))
	}
	writeJSON(w, http.StatusOK, map[string]string{"order_id": ord.ID, "result": "ok"})
}
