package repository

import (
	"context"
	"errors"

	"github.com/devblog/devblog-api/internal/post"
)

var (
	ErrNotFound  = errors.New("post not found")
	ErrForbidden = errors.New("post owned by another author")
)

// Repository persists posts. UpdateOwned and DeleteOwned apply only when the
// stored authorId equals ownerID, as one conditional write.
type Repository interface {
	Create(ctx context.Context, p *post.Post) (string, error)
	Get(ctx context.Context, id string) (*post.Post, error)
	// List returns posts newest first; an empty authorID lists every post.
	List(ctx context.Context, authorID string) ([]*post.Post, error)
	UpdateOwned(ctx context.Context, id, ownerID string, ch post.Changes) error
	DeleteOwned(ctx context.Context, id, ownerID string) error
}
