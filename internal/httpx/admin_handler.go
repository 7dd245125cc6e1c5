package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/openaxle/go-parts-market/internal/auth"
	"github.com/openaxle/go-parts-market/internal/catalog"
	"github.com/openaxle/go-parts-market/internal/inventory"
	"github.com/openaxle/go-parts-market/internal/orders"
	"github.com/openaxle/go-parts-market/internal/users"
)

// AdminHandler is the console surface: stock upserts, part maintenance, order
// search and lifecycle transitions. Status changes always go through the
// lifecycle manager so inventory stays consistent with order state.
type AdminHandler struct {
	Parts     catalog.Store
	Ledger    inventory.Ledger
	Orders    orders.Store
	Lifecycle *orders.Lifecycle
	Events    *OrderEvents
	JWT       *auth.JWTService
}

func (h *AdminHandler) Register(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(Authenticate(h.JWT), RequireRole(users.RoleAdmin, users.RoleDealer))
		r.Put("/api/admin/inventory", h.upsertStock)
		r.Post("/api/admin/parts", h.upsertPart)
		r.Post("/api/admin/parts/{id}/fitments", h.addFitment)
		r.Delete("/api/admin/fitments/{fitmentID}", h.removeFitment)
		r.Get("/api/admin/orders", h.listOrders)
		r.Patch("/api/admin/orders/{id}/status", h.setOrderStatus)
	})
}

func (h *AdminHandler) upsertStock(w http.ResponseWriter, r *http.Request) {
	var rec inventory.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if rec.PartID == "" || rec.LocationID == "" || rec.QtyOnHand < 0 || rec.QtyReserved < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid stock record"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Ledger.UpsertStock(ctx, rec); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) upsertPart(w http.ResponseWriter, r *http.Request) {
	var p catalog.Part
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if p.SKU == "" || p.Name == "" || p.PriceCents < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "sku, name and non-negative price required"})
		return
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Parts.Upsert(ctx, &p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *AdminHandler) addFitment(w http.ResponseWriter, r *http.Request) {
	var f catalog.Fitment
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	f.PartID = chi.URLParam(r, "id")
	if f.Make == "" || f.Model == "" || f.Year <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "make, model and year required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Parts.AddFitment(ctx, &f); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (h *AdminHandler) removeFitment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "fitmentID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid fitment id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Parts.RemoveFitment(ctx, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	list, err := h.Orders.List(ctx, orders.Status(r.URL.Query().Get("status")), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": list})
}

func (h *AdminHandler) setOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status orders.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orderID := chi.URLParam(r, "id")

	var (
		ord *orders.Order
		err error
	)
	switch req.Status {
	case orders.StatusPaid:
		ord, err = h.Lifecycle.MarkPaid(ctx, orderID)
	case orders.StatusCancelled:
		ord, err = h.Lifecycle.Cancel(ctx, orderID)
	case orders.StatusFulfilled:
		ord, err = h.Lifecycle.Fulfill(ctx, orderID)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	h.Events.StatusChanged(ctx, ord, middleware.GetReqID(r.Context()))
	writeJSON(w, http.StatusOK, ord)
}
