package inventory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openaxle/go-parts-market/internal/postgres"
)

// PG implements Ledger on Postgres. Each mutation is one UPDATE whose WHERE
// clause carries the guard, so check and update cannot be split by a
// concurrent writer. Inside a transaction the touched row stays locked until
// commit, which is what makes multi-line checkout all-or-nothing.
type PG struct {
	Pool *pgxpool.Pool
}

func (l *PG) Reserve(ctx context.Context, partID, locationID string, qty int) error {
	q := postgres.QuerierFrom(ctx, l.Pool)
	ct, err := q.Exec(ctx, `
		UPDATE inventory
		SET qty_on_hand = qty_on_hand - $3, qty_reserved = qty_reserved + $3, updated_at = now()
		WHERE part_id = $1 AND location_id = $2 AND qty_on_hand >= $3`,
		partID, locationID, qty)
	if err != nil {
		return fmt.Errorf("reserve stock: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrInsufficientStock
	}
	return nil
}

func (l *PG) Release(ctx context.Context, partID, locationID string, qty int) error {
	q := postgres.QuerierFrom(ctx, l.Pool)
	ct, err := q.Exec(ctx, `
		UPDATE inventory
		SET qty_on_hand = qty_on_hand + $3, qty_reserved = qty_reserved - $3, updated_at = now()
		WHERE part_id = $1 AND location_id = $2 AND qty_reserved >= $3`,
		partID, locationID, qty)
	if err != nil {
		return fmt.Errorf("release stock: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrInsufficientReserved
	}
	return nil
}

func (l *PG) Commit(ctx context.Context, partID, locationID string, qty int) error {
	q := postgres.QuerierFrom(ctx, l.Pool)
	ct, err := q.Exec(ctx, `
		UPDATE inventory
		SET qty_reserved = qty_reserved - $3, updated_at = now()
		WHERE part_id = $1 AND location_id = $2 AND qty_reserved >= $3`,
		partID, locationID, qty)
	if err != nil {
		return fmt.Errorf("commit stock: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrInsufficientReserved
	}
	return nil
}

func (l *PG) Availability(ctx context.Context, partID string) ([]Record, error) {
	q := postgres.QuerierFrom(ctx, l.Pool)
	rows, err := q.Query(ctx, `
		SELECT part_id, location_id, qty_on_hand, qty_reserved, eta, updated_at
		FROM inventory WHERE part_id = $1 ORDER BY location_id`,
		partID)
	if err != nil {
		return nil, fmt.Errorf("query availability: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.PartID, &r.LocationID, &r.QtyOnHand, &r.QtyReserved, &r.ETA, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (l *PG) UpsertStock(ctx context.Context, rec Record) error {
	q := postgres.QuerierFrom(ctx, l.Pool)
	_, err := q.Exec(ctx, `
		INSERT INTO inventory (part_id, location_id, qty_on_hand, qty_reserved, eta, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (part_id, location_id) DO UPDATE
		SET qty_on_hand = EXCLUDED.qty_on_hand,
		    qty_reserved = EXCLUDED.qty_reserved,
		    eta = EXCLUDED.eta,
		    updated_at = now()`,
		rec.PartID, rec.LocationID, rec.QtyOnHand, rec.QtyReserved, rec.ETA)
	if err != nil {
		return fmt.Errorf("upsert stock: %w", err)
	}
	return nil
}
