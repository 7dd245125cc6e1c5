package httpx

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/openaxle/go-parts-market/internal/catalog"
	"github.com/openaxle/go-parts-market/internal/inventory"
)

type PartsHandler struct {
	Parts  catalog.Store
	Ledger inventory.Ledger
}

func (h *PartsHandler) Register(r *chi.Mux) {
	r.Get("/api/parts", h.list)
	r.Get("/api/parts/{id}", h.get)
	r.Get("/api/parts/{id}/availability", h.availability)
	r.Get("/api/parts/{id}/fitments", h.fitments)
	r.Get("/api/vehicles", h.vehicles)
}

// list filters the catalog by free text, brand and vehicle; the vehicle
// filters narrow to parts with a matching fitment row.
func (h *PartsHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	year, _ := strconv.Atoi(q.Get("year"))

	parts, err := h.Parts.List(ctx, catalog.ListFilter{
		Search: q.Get("q"),
		Brand:  q.Get("brand"),
		Make:   q.Get("make"),
		Model:  q.Get("model"),
		Year:   year,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"parts": parts})
}

func (h *PartsHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Parts.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PartsHandler) availability(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	recs, err := h.Ledger.Availability(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"locations": recs})
}

func (h *PartsHandler) fitments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	fits, err := h.Parts.FitmentsByPart(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"fitments": fits})
}

// vehicles serves the picker facets: makes, then models for a make, then
// years for a make and model.
func (h *PartsHandler) vehicles(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	facets, err := h.Parts.Facets(ctx, r.URL.Query().Get("make"), r.URL.Query().Get("model"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"facets": facets})
}
