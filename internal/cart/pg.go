package cart

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openaxle/go-parts-market/internal/postgres"
)

type PG struct {
	Pool *pgxpool.Pool
}

func (s *PG) Get(ctx context.Context, userID string) ([]Line, error) {
	q := postgres.QuerierFrom(ctx, s.Pool)
	rows, err := q.Query(ctx, `
		SELECT part_id, qty, location_id
		FROM cart_lines WHERE user_id = $1 ORDER BY position`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("query cart: %w", err)
	}
	defer rows.Close()

	lines := []Line{}
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.PartID, &l.Qty, &l.LocationID); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (s *PG) AddLine(ctx context.Context, userID string, line Line) error {
	q := postgres.QuerierFrom(ctx, s.Pool)
	// Merge-by-key: bump qty on conflict, keep the old location unless the
	// new line sets one.
	_, err := q.Exec(ctx, `
		INSERT INTO cart_lines (user_id, part_id, qty, location_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, part_id) DO UPDATE
		SET qty = cart_lines.qty + EXCLUDED.qty,
		    location_id = CASE WHEN EXCLUDED.location_id <> '' THEN EXCLUDED.location_id ELSE cart_lines.location_id END`,
		userID, line.PartID, line.Qty, line.LocationID)
	if err != nil {
		return fmt.Errorf("add cart line: %w", err)
	}
	return nil
}

func (s *PG) SetQty(ctx context.Context, userID, partID string, qty int) error {
	if qty <= 0 {
		return s.RemoveLine(ctx, userID, partID)
	}
	q := postgres.QuerierFrom(ctx, s.Pool)
	_, err := q.Exec(ctx, `
		UPDATE cart_lines SET qty = $3 WHERE user_id = $1 AND part_id = $2`,
		userID, partID, qty)
	if err != nil {
		return fmt.Errorf("set cart qty: %w", err)
	}
	return nil
}

func (s *PG) RemoveLine(ctx context.Context, userID, partID string) error {
	q := postgres.QuerierFrom(ctx, s.Pool)
	_, err := q.Exec(ctx, `DELETE FROM cart_lines WHERE user_id = $1 AND part_id = $2`, userID, partID)
	if err != nil {
		return fmt.Errorf("remove cart line: %w", err)
	}
	return nil
}

func (s *PG) Clear(ctx context.Context, userID string) error {
	q := postgres.QuerierFrom(ctx, s.Pool)
	_, err := q.Exec(ctx, `DELETE FROM cart_lines WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
