package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrTxTimeout is returned when a unit of work could not finish within its
// deadline. Callers retry the whole operation, never a single statement.
var ErrTxTimeout = errors.New("transaction timeout")

// Querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx. Repos go
// through it so the same method works standalone and inside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// WithTx returns a context carrying the transaction for nested repo calls.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// QuerierFrom resolves the querier for a call: the ambient transaction if one
// is in flight, otherwise the pool.
func QuerierFrom(ctx context.Context, pool *pgxpool.Pool) Querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return pool
}

// TxRunner runs a function inside a single database transaction. All repo
// calls made with the derived context share that transaction, so the whole
// function commits or rolls back as one unit.
type TxRunner struct {
	Pool *pgxpool.Pool
	// Timeout bounds the whole unit of work. Zero means no extra deadline.
	Timeout time.Duration
}

func (r *TxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return timeoutOr(ctx, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(WithTx(ctx, tx)); err != nil {
		return timeoutOr(ctx, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return timeoutOr(ctx, err)
	}
	return nil
}

func timeoutOr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTxTimeout
	}
	return err
}

// IsUniqueViolation reports whether err is a violated unique constraint,
// optionally a specific one.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
