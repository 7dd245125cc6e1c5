package community

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
	Tx   *postgres.TxRunner
}

func (s *PG) CreatePost(ctx context.Context, p *Post) error {
	q := postgres.QuerierFrom(ctx, s.Pool)
	_, err := q.Exec(ctx, `
		INSERT INTO posts (id, user_id, title, body, created_at)
		VALUES ($1, $2, $3, $4, now())`,
		p.ID, p.UserID, p.Title, p.Body)
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

func (s *PG) ListPosts(ctx context.Context, limit, offset int) ([]Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	q := postgres.QuerierFrom(ctx, s.Pool)
	rows, err := q.Query(ctx, `
		SELECT id, user_id, title, body, score, comments_count, created_at
		FROM posts ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var out []Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.UserID, &p.Title, &p.Body, &p.Score, &p.CommentsCount, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PG) Vote(ctx context.Context, postID, userID string, value int) error {
	if value != 1 && value != -1 {
		return ErrBadVote
	}
	return s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFrom(ctx, s.Pool)

		var prev int
		err := q.QueryRow(ctx, `
			SELECT value FROM post_votes WHERE post_id = $1 AND user_id = $2 FOR UPDATE`,
			postID, userID).Scan(&prev)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("read vote: %w", err)
		}

		_, err = q.Exec(ctx, `
			INSERT INTO post_votes (post_id, user_id, value) VALUES ($1, $2, $3)
			ON CONFLICT (post_id, user_id) DO UPDATE SET value = EXCLUDED.value`,
			postID, userID, value)
		if err != nil {
			return fmt.Errorf("upsert vote: %w", err)
		}

		ct, err := q.Exec(ctx, `UPDATE posts SET score = score + $2 WHERE id = $1`, postID, value-prev)
		if err != nil {
			return fmt.Errorf("adjust score: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return ErrPostNotFound
		}
		return nil
	})
}

func (s *PG) AddComment(ctx context.Context, c *Comment) error {
	return s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFrom(ctx, s.Pool)

		// Bump first: zero rows means the post does not exist and the insert
		// below would only fail later on the foreign key.
		ct, err := q.Exec(ctx, `UPDATE posts SET comments_count = comments_count + 1 WHERE id = $1`, c.PostID)
		if err != nil {
			return fmt.Errorf("bump comments count: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return ErrPostNotFound
		}

		err = q.QueryRow(ctx, `
			INSERT INTO comments (id, post_id, user_id, body, created_at)
			VALUES ($1, $2, $3, $4, now())
			RETURNING created_at`,
			c.ID, c.PostID, c.UserID, c.Body).Scan(&c.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert comment: %w", err)
		}
		return nil
	})
}

func (s *PG) Comments(ctx context.Context, postID string, limit, offset int) ([]Comment, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	q := postgres.QuerierFrom(ctx, s.Pool)
	rows, err := q.Query(ctx, `
		SELECT id, post_id, user_id, body, created_at
		FROM comments WHERE post_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		postID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
