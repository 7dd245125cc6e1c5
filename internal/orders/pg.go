package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openaxle/go-parts-market/internal/postgres"
)

// PGStore persists orders across two tables: one row per order, one row per
// item line. The partial unique index on payment_session_id is what turns
// redelivered webhooks into no-ops.
type PGStore struct {
	Pool *pgxpool.Pool
}

func (s *PGStore) Create(ctx context.Context, o *Order) error {
	q := postgres.QuerierFrom(ctx, s.Pool)

	var provider, sessionID, externalStatus, intentID *string
	if o.Payment != nil {
		provider = &o.Payment.Provider
		sessionID = &o.Payment.SessionID
		externalStatus = &o.Payment.ExternalStatus
		intentID = &o.Payment.IntentID
	}

	_, err := q.Exec(ctx, `
		INSERT INTO orders (id, user_id, status, subtotal_cents, tax_cents, grand_cents,
		                    payment_provider, payment_session_id, payment_external_status, payment_intent_id,
		                    created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())`,
		o.ID, o.UserID, o.Status, o.Totals.SubtotalCents, o.Totals.TaxCents, o.Totals.GrandCents,
		provider, sessionID, externalStatus, intentID)
	if postgres.IsUniqueViolation(err, "orders_payment_session_uq") {
		return ErrDuplicateSession
	}
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i, it := range o.Items {
		_, err := q.Exec(ctx, `
			INSERT INTO order_items (order_id, position, part_id, qty, price_at_order_cents, location_id)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			o.ID, i, it.PartID, it.Qty, it.PriceAtOrderCents, it.LocationID)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (s *PGStore) ByID(ctx context.Context, id string) (*Order, error) {
	orders, err := s.query(ctx, `WHERE o.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, ErrNotFound
	}
	return &orders[0], nil
}

func (s *PGStore) BySession(ctx context.Context, sessionID string) (*Order, error) {
	orders, err := s.query(ctx, `WHERE o.payment_session_id = $1`, sessionID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, ErrNotFound
	}
	return &orders[0], nil
}

func (s *PGStore) ByUser(ctx context.Context, userID string, limit int) ([]Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.query(ctx, fmt.Sprintf(`WHERE o.user_id = $1 ORDER BY o.created_at DESC LIMIT %d`, limit), userID)
}

func (s *PGStore) List(ctx context.Context, status Status, limit, offset int) ([]Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.query(ctx,
		fmt.Sprintf(`WHERE ($1 = '' OR o.status = $1) ORDER BY o.created_at DESC LIMIT %d OFFSET %d`, limit, offset),
		string(status))
}

func (s *PGStore) SetStatus(ctx context.Context, id string, from []Status, to Status) error {
	q := postgres.QuerierFrom(ctx, s.Pool)

	allowed := make([]string, len(from))
	for i, f := range from {
		allowed[i] = string(f)
	}
	ct, err := q.Exec(ctx, `
		UPDATE orders SET status = $2, updated_at = now()
		WHERE id = $1 AND status = ANY($3)`,
		id, to, allowed)
	if err != nil {
		return fmt.Errorf("set order status: %w", err)
	}
	if ct.RowsAffected() == 1 {
		return nil
	}

	// Lost the guard: report the current state so callers can tell a missing
	// order from an illegal transition.
	var cur Status
	err = q.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, id).Scan(&cur)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read order status: %w", err)
	}
	return &InvalidTransitionError{OrderID: id, From: cur, To: to}
}

func (s *PGStore) query(ctx context.Context, where string, args ...any) ([]Order, error) {
	q := postgres.QuerierFrom(ctx, s.Pool)
	rows, err := q.Query(ctx, `
		SELECT o.id, o.user_id, o.status, o.subtotal_cents, o.tax_cents, o.grand_cents,
		       o.payment_provider, o.payment_session_id, o.payment_external_status, o.payment_intent_id,
		       o.created_at, o.updated_at
		FROM orders o `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		var provider, sessionID, externalStatus, intentID *string
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.Totals.SubtotalCents, &o.Totals.TaxCents, &o.Totals.GrandCents,
			&provider, &sessionID, &externalStatus, &intentID, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		if sessionID != nil {
			o.Payment = &Payment{SessionID: *sessionID}
			if provider != nil {
				o.Payment.Provider = *provider
			}
			if externalStatus != nil {
				o.Payment.ExternalStatus = *externalStatus
			}
			if intentID != nil {
				o.Payment.IntentID = *intentID
			}
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		items, err := s.loadItems(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

func (s *PGStore) loadItems(ctx context.Context, orderID string) ([]Item, error) {
	q := postgres.QuerierFrom(ctx, s.Pool)
	rows, err := q.Query(ctx, `
		SELECT part_id, qty, price_at_order_cents, location_id
		FROM order_items WHERE order_id = $1 ORDER BY position`,
		orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.PartID, &it.Qty, &it.PriceAtOrderCents, &it.LocationID); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
