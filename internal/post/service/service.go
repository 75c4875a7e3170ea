package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/devblog/devblog-api/internal/post"
	"github.com/devblog/devblog-api/internal/post/repository"
	"github.com/devblog/devblog-api/pkg/metrics"
)

var (
	ErrInvalidInput = errors.New("invalid post input")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
)

// CreateInput carries a new post and the identity submitting it.
type CreateInput struct {
	Title      string
	Content    string
	Tags       []string
	AuthorID   string
	AuthorName string
}

// Service defines the post business operations used by the handler layer.
type Service interface {
	Create(ctx context.Context, in CreateInput) (*post.Post, error)
	ListAll(ctx context.Context) ([]post.Summary, error)
	ListByAuthor(ctx context.Context, authorID string) ([]post.Summary, error)
	Get(ctx context.Context, id string) (*post.Detail, error)
	Update(ctx context.Context, id, callerID string, ch post.Changes) error
	Delete(ctx context.Context, id, callerID string) error
}

// NewService returns a Service over the given repository.
func NewService(repo repository.Repository) Service {
	return &postService{repo: repo}
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService() Service {
	return NewService(repository.NewMemoryRepo())
}

type postService struct {
	repo repository.Repository
}

func (s *postService) Create(ctx context.Context, in CreateInput) (*post.Post, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" || in.Content == "" || in.AuthorID == "" {
		return nil, ErrInvalidInput
	}
	author := in.AuthorName
	if author == "" {
		author = post.AnonymousAuthor
	}
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	p := &post.Post{
		Title:    title,
		Content:  in.Content,
		Author:   author,
		AuthorID: in.AuthorID,
		Tags:     tags,
	}
	if _, err := s.repo.Create(ctx, p); err != nil {
		metrics.PostMutations.WithLabelValues("create", "error").Inc()
		return nil, fmt.Errorf("create post: %w", err)
	}
	metrics.PostMutations.WithLabelValues("create", "ok").Inc()
	return p, nil
}

func (s *postService) ListAll(ctx context.Context) ([]post.Summary, error) {
	return s.list(ctx, "")
}

func (s *postService) ListByAuthor(ctx context.Context, authorID string) ([]post.Summary, error) {
	if authorID == "" {
		return []post.Summary{}, nil
	}
	return s.list(ctx, authorID)
}

func (s *postService) list(ctx context.Context, authorID string) ([]post.Summary, error) {
	posts, err := s.repo.List(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	out := make([]post.Summary, 0, len(posts))
	for _, p := range posts {
		out = append(out, post.Summarize(p))
	}
	return out, nil
}

func (s *postService) Get(ctx context.Context, id string) (*post.Detail, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	d := post.Describe(p)
	return &d, nil
}

func (s *postService) Update(ctx context.Context, id, callerID string, ch post.Changes) error {
	if ch.Empty() {
		return ErrInvalidInput
	}
	if ch.Title != nil {
		t := strings.TrimSpace(*ch.Title)
		if t == "" {
			return ErrInvalidInput
		}
		ch.Title = &t
	}
	if ch.Content != nil && *ch.Content == "" {
		return ErrInvalidInput
	}
	if err := s.repo.UpdateOwned(ctx, id, callerID, ch); err != nil {
		metrics.PostMutations.WithLabelValues("update", outcome(err)).Inc()
		return translate(err)
	}
	metrics.PostMutations.WithLabelValues("update", "ok").Inc()
	return nil
}

func (s *postService) Delete(ctx context.Context, id, callerID string) error {
	if err := s.repo.DeleteOwned(ctx, id, callerID); err != nil {
		metrics.PostMutations.WithLabelValues("delete", outcome(err)).Inc()
		return translate(err)
	}
	metrics.PostMutations.WithLabelValues("delete", "ok").Inc()
	return nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrForbidden):
		return ErrForbidden
	}
	return err
}

func outcome(err error) string {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	case errors.Is(err, repository.ErrForbidden):
		return "forbidden"
	}
	return "error"
}
