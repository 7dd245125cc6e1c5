package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/openaxle/go-parts-market/internal/auth"
	"github.com/openaxle/go-parts-market/internal/cart"
)

type CartHandler struct {
	Carts cart.Store
	JWT   *auth.JWTService
}

func (h *CartHandler) Register(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(Authenticate(h.JWT))
		r.Get("/api/cart", h.get)
		r.Post("/api/cart/items", h.addItem)
		r.Patch("/api/cart/items/{partID}", h.setQty)
		r.Delete("/api/cart/items/{partID}", h.removeItem)
	})
}

func (h *CartHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	lines, err := h.Carts.Get(ctx, callerID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": lines})
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var line cart.Line
	if err := json.NewDecoder(r.Body).Decode(&line); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if line.PartID == "" || line.Qty <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "part_id and positive qty required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Carts.AddLine(ctx, callerID(r), line); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) setQty(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Qty int `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Carts.SetQty(ctx, callerID(r), chi.URLParam(r, "partID"), req.Qty); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Carts.RemoveLine(ctx, callerID(r), chi.URLParam(r, "partID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
