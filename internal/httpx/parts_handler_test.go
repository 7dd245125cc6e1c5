package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openaxle/go-parts-market/internal/catalog"
)

// catalogStub records the filter it was called with and serves canned data.
type catalogStub struct {
	lastFilter catalog.ListFilter
	parts      []catalog.Part
	fitments   []catalog.Fitment
	facets     catalog.VehicleFacets
	facetMake  string
	facetModel string
}

func (c *catalogStub) Get(ctx context.Context, id string) (*catalog.Part, error) {
	for i := range c.parts {
		if c.parts[i].ID == id {
			return &c.parts[i], nil
		}
	}
	return nil, catalog.ErrPartNotFound
}

func (c *catalogStub) UnitPrice(ctx context.Context, partID string) (int64, error) {
	p, err := c.Get(ctx, partID)
	if err != nil {
		return 0, err
	}
	return p.PriceCents, nil
}

func (c *catalogStub) List(ctx context.Context, f catalog.ListFilter) ([]catalog.Part, error) {
	c.lastFilter = f
	return c.parts, nil
}

func (c *catalogStub) Upsert(ctx context.Context, p *catalog.Part) error { return nil }

func (c *catalogStub) AddFitment(ctx context.Context, f *catalog.Fitment) error {
	f.ID = int64(len(c.fitments) + 1)
	c.fitments = append(c.fitments, *f)
	return nil
}

func (c *catalogStub) FitmentsByPart(ctx context.Context, partID string) ([]catalog.Fitment, error) {
	var out []catalog.Fitment
	for _, f := range c.fitments {
		if f.PartID == partID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (c *catalogStub) RemoveFitment(ctx context.Context, id int64) error { return nil }

func (c *catalogStub) Facets(ctx context.Context, make, model string) (*catalog.VehicleFacets, error) {
	c.facetMake, c.facetModel = make, model
	return &c.facets, nil
}

func TestPartsListPassesVehicleFilters(t *testing.T) {
	stub := &catalogStub{parts: []catalog.Part{{ID: "p1", SKU: "BP-1", Name: "Brake Pad"}}}
	h := &PartsHandler{Parts: stub}
	r := NewRouter()
	h.Register(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/parts?q=brake&brand=Bosch&make=Toyota&model=Corolla&year=2019&limit=10", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, catalog.ListFilter{
		Search: "brake",
		Brand:  "Bosch",
		Make:   "Toyota",
		Model:  "Corolla",
		Year:   2019,
		Limit:  10,
	}, stub.lastFilter)
	assert.Contains(t, rec.Body.String(), "BP-1")
}

func TestVehicleFacets(t *testing.T) {
	stub := &catalogStub{facets: catalog.VehicleFacets{
		Makes:  []string{"Honda", "Toyota"},
		Models: []string{"Corolla"},
		Years:  []int{2018, 2019},
	}}
	h := &PartsHandler{Parts: stub}
	r := NewRouter()
	h.Register(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/vehicles?make=Toyota&model=Corolla", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Toyota", stub.facetMake)
	assert.Equal(t, "Corolla", stub.facetModel)
	assert.Contains(t, rec.Body.String(), "Honda")
	assert.Contains(t, rec.Body.String(), "2019")
}

func TestPartFitmentsEndpoint(t *testing.T) {
	stub := &catalogStub{fitments: []catalog.Fitment{
		{ID: 1, PartID: "p1", Make: "Toyota", Model: "Corolla", Year: 2019},
		{ID: 2, PartID: "p2", Make: "Honda", Model: "Civic", Year: 2020},
	}}
	h := &PartsHandler{Parts: stub}
	r := NewRouter()
	h.Register(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/parts/p1/fitments", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Corolla")
	assert.NotContains(t, rec.Body.String(), "Civic")
}
