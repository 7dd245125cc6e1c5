// Package community is the Q&A board: posts with up/down votes and threaded
// comments. Vote and comment counts are maintained by atomic increments in
// the store, never by in-process counters.
package community

import (
	"context"
	"errors"
	"time"
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrBadVote      = errors.New("vote value must be +1 or -1")
)

type Post struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Title         string    `json:"title"`
	Body          string    `json:"body,omitempty"`
	Score         int       `json:"score"`
	CommentsCount int       `json:"comments_count"`
	CreatedAt     time.Time `json:"created_at"`
}

type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type Store interface {
	CreatePost(ctx context.Context, p *Post) error
	ListPosts(ctx context.Context, limit, offset int) ([]Post, error)
	// Vote records or changes a user's vote on a post and adjusts the post's
	// score by the delta in one atomic step.
	Vote(ctx context.Context, postID, userID string, value int) error
	// AddComment appends a comment and bumps the post's comment count.
	AddComment(ctx context.Context, c *Comment) error
	Comments(ctx context.Context, postID string, limit, offset int) ([]Comment, error)
}
