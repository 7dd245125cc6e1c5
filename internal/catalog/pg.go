package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openaxle/go-parts-market/internal/postgres"
)

type PG struct {
	Pool *pgxpool.Pool
}

func (s *PG) Get(ctx context.Context, id string) (*Part, error) {
	q := postgres.QuerierFrom(ctx, s.Pool)
	var p Part
	err := q.QueryRow(ctx, `
		SELECT id, sku, name, brand, price_cents, created_at, updated_at
		FROM parts WHERE id = $1`, id).
		Scan(&p.ID, &p.SKU, &p.Name, &p.Brand, &p.PriceCents, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get part: %w", err)
	}
	return &p, nil
}

func (s *PG) UnitPrice(ctx context.Context, partID string) (int64, error) {
	q := postgres.QuerierFrom(ctx, s.Pool)
	var price int64
	err := q.QueryRow(ctx, `SELECT price_cents FROM parts WHERE id = $1`, partID).Scan(&price)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrPartNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get unit price: %w", err)
	}
	return price, nil
}

func (s *PG) List(ctx context.Context, f ListFilter) ([]Part, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Search != "" {
		n := arg(f.Search)
		where = append(where, fmt.Sprintf(
			"(sku ILIKE '%%'||%s||'%%' OR name ILIKE '%%'||%s||'%%' OR brand ILIKE '%%'||%s||'%%')", n, n, n))
	}
	if f.Brand != "" {
		where = append(where, "brand = "+arg(f.Brand))
	}
	if f.hasVehicle() {
		var fit []string
		if f.Make != "" {
			fit = append(fit, "make = "+arg(f.Make))
		}
		if f.Model != "" {
			fit = append(fit, "model = "+arg(f.Model))
		}
		if f.Year > 0 {
			fit = append(fit, "year = "+arg(f.Year))
		}
		where = append(where,
			"id IN (SELECT part_id FROM fitments WHERE "+strings.Join(fit, " AND ")+")")
	}

	sql := `SELECT id, sku, name, brand, price_cents, created_at, updated_at FROM parts`
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	sql += fmt.Sprintf(" ORDER BY sku LIMIT %d OFFSET %d", f.Limit, f.Offset)

	q := postgres.QuerierFrom(ctx, s.Pool)
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list parts: %w", err)
	}
	defer rows.Close()

	var out []Part
	for rows.Next() {
		var p Part
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Brand, &p.PriceCents, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PG) Upsert(ctx context.Context, p *Part) error {
	q := postgres.QuerierFrom(ctx, s.Pool)
	_, err := q.Exec(ctx, `
		INSERT INTO parts (id, sku, name, brand, price_cents, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (id) DO UPDATE
		SET sku = EXCLUDED.sku, name = EXCLUDED.name, brand = EXCLUDED.brand,
		    price_cents = EXCLUDED.price_cents, updated_at = now()`,
		p.ID, p.SKU, p.Name, p.Brand, p.PriceCents)
	if err != nil {
		return fmt.Errorf("upsert part: %w", err)
	}
	return nil
}

func (s *PG) AddFitment(ctx context.Context, f *Fitment) error {
	q := postgres.QuerierFrom(ctx, s.Pool)
	err := q.QueryRow(ctx, `
		INSERT INTO fitments (part_id, make, model, year, engine, transmission)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		f.PartID, f.Make, f.Model, f.Year, f.Engine, f.Transmission).
		Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return fmt.Errorf("add fitment: %w", err)
	}
	return nil
}

func (s *PG) FitmentsByPart(ctx context.Context, partID string) ([]Fitment, error) {
	q := postgres.QuerierFrom(ctx, s.Pool)
	rows, err := q.Query(ctx, `
		SELECT id, part_id, make, model, year, engine, transmission, created_at
		FROM fitments WHERE part_id = $1
		ORDER BY make, model, year`,
		partID)
	if err != nil {
		return nil, fmt.Errorf("list fitments: %w", err)
	}
	defer rows.Close()

	var out []Fitment
	for rows.Next() {
		var f Fitment
		if err := rows.Scan(&f.ID, &f.PartID, &f.Make, &f.Model, &f.Year, &f.Engine, &f.Transmission, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *PG) RemoveFitment(ctx context.Context, id int64) error {
	q := postgres.QuerierFrom(ctx, s.Pool)
	if _, err := q.Exec(ctx, `DELETE FROM fitments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("remove fitment: %w", err)
	}
	return nil
}

// Facets narrows like the storefront picker: models only once a make is
// chosen, years only once make and model are.
func (s *PG) Facets(ctx context.Context, make, model string) (*VehicleFacets, error) {
	q := postgres.QuerierFrom(ctx, s.Pool)
	out := &VehicleFacets{Makes: []string{}, Models: []string{}, Years: []int{}}

	if err := collect(ctx, q, `SELECT DISTINCT make FROM fitments ORDER BY make`, &out.Makes); err != nil {
		return nil, err
	}
	if make != "" {
		if err := collect(ctx, q,
			`SELECT DISTINCT model FROM fitments WHERE make = $1 ORDER BY model`, &out.Models, make); err != nil {
			return nil, err
		}
	}
	if make != "" && model != "" {
		if err := collect(ctx, q,
			`SELECT DISTINCT year FROM fitments WHERE make = $1 AND model = $2 ORDER BY year`, &out.Years, make, model); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func collect[T any](ctx context.Context, q postgres.Querier, sql string, dst *[]T, args ...any) error {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("vehicle facets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v T
		if err := rows.Scan(&v); err != nil {
			return err
		}
		*dst = append(*dst, v)
	}
	return rows.Err()
}
