package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openaxle/go-parts-market/internal/postgres"
)

type PG struct {
	Pool *pgxpool.Pool
}

func (s *PG) Create(ctx context.Context, u *User) error {
	q := postgres.QuerierFrom(ctx, s.Pool)
	_, err := q.Exec(ctx, `
		INSERT INTO users (id, email, name, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, now())`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.Role)
	if postgres.IsUniqueViolation(err, "") {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PG) ByEmail(ctx context.Context, email string) (*User, error) {
	return s.get(ctx, `WHERE email = $1`, email)
}

func (s *PG) ByID(ctx context.Context, id string) (*User, error) {
	return s.get(ctx, `WHERE id = $1`, id)
}

func (s *PG) get(ctx context.Context, where string, arg any) (*User, error) {
	q := postgres.QuerierFrom(ctx, s.Pool)
	var u User
	err := q.QueryRow(ctx, `
		SELECT id, email, name, password_hash, role, created_at FROM users `+where, arg).
		Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}
