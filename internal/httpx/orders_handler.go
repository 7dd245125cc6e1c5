package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/openaxle/go-parts-market/internal/auth"
	"github.com/openaxle/go-parts-market/internal/orders"
	"github.com/openaxle/go-parts-market/internal/redisx"
)

type OrdersHandler struct {
	Engine     *orders.Engine
	Reconciler *orders.Reconciler
	Orders     orders.Store
	Redis      *redis.Client
	Events     *OrderEvents
	JWT        *auth.JWTService
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(Authenticate(h.JWT))
		r.Post("/api/orders/checkout", h.checkout)
		r.Post("/api/orders/finalize", h.finalize)
		r.Get("/api/orders/my", h.myOrders)
		r.Get("/api/orders/{id}", h.getOrder)
		r.Get("/api/orders/{id}/status", h.getStatus)
	})
}

// checkout is the synchronous path: cart in, pending order out.
func (h *OrdersHandler) checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID := callerID(r)
	trace := middleware.GetReqID(r.Context())

	ord, err := h.Engine.PlaceOrder(ctx, userID)
	if err != nil {
		var stockErr *orders.InsufficientStockError
		if errors.As(err, &stockErr) {
			h.Events.CheckoutRejected(userID, stockErr.PartID, "OUT_OF_STOCK", trace)
		}
		writeError(w, err)
		return
	}

	h.Events.OrderCreated(ctx, ord, trace)
	writeJSON(w, http.StatusCreated, ord)
}

type finalizeReq struct {
	SessionID string `json:"session_id"`
	Provider  string `json:"provider"`
	Status    string `json:"status"`
	IntentID  string `json:"intent_id"`
}

// finalize is the payment-success return path: the browser lands back with
// the provider's session id and we reconcile it against the user's cart. The
// webhook may have won already, in which case this is a read.
func (h *OrdersHandler) finalize(w http.ResponseWriter, r *http.Request) {
	var req finalizeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.SessionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing session_id"})
		return
	}
	if req.Provider == "" {
		req.Provider = "stripe"
	}
	if req.Status == "" {
		// The success page only loads after the provider reports payment.
		req.Status = "paid"
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ord, err := h.Reconciler.OnPaymentConfirmed(ctx, orders.PaymentEvent{
		Provider:       req.Provider,
		SessionID:      req.SessionID,
		UserID:         callerID(r),
		ExternalStatus: req.Status,
		IntentID:       req.IntentID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if ord == nil {
		writeJSON(w, http.StatusOK, map[string]any{"order": nil})
		return
	}

	sessKey := fmt.Sprintf(redisx.KeyPaymentSession, req.SessionID)
	if created, _ := h.Redis.SetNX(ctx, sessKey, ord.ID, redisx.TTLPaymentSession).Result(); created {
		h.Events.OrderCreated(ctx, ord, middleware.GetReqID(r.Context()))
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": ord})
}

func (h *OrdersHandler) myOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Orders.ByUser(ctx, callerID(r), 50)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": list})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ord, err := h.Orders.ByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if ord.UserID != callerID(r) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, ord)
}

// getStatus serves the hot polling path from cache, falling back to the
// store. The cached record carries the owner so both paths enforce the same
// ownership rule as getOrder.
func (h *OrdersHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		var cached struct {
			UserID string        `json:"user_id"`
			Status orders.Status `json:"status"`
		}
		if json.Unmarshal([]byte(s), &cached) == nil && cached.UserID == callerID(r) {
			writeJSON(w, http.StatusOK, map[string]orders.Status{"status": cached.Status})
			return
		}
		// stale shape or someone else's order: fall through to the store
	}

	ord, err := h.Orders.ByID(ctx, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	if ord.UserID != callerID(r) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	_ = h.Redis.Set(ctx, key,
		fmt.Sprintf(`{"user_id":%q,"status":%q}`, ord.UserID, ord.Status), redisx.TTLStatusCache).Err()
	writeJSON(w, http.StatusOK, map[string]orders.Status{"status": ord.Status})
}
