package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/devblog/devblog-api/internal/post"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepo is an in-memory repository used when no MongoDB URI is
// configured and in unit tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*post.Post
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*post.Post)}
}

func (m *MemoryRepo) Create(ctx context.Context, p *post.Post) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = primitive.NewObjectID().Hex()
	}
	now := time.Now().UTC()
	if p.Date.IsZero() {
		p.Date = now
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	cp := *p
	m.store[p.ID] = &cp
	return p.ID, nil
}

func (m *MemoryRepo) Get(ctx context.Context, id string) (*post.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.store[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) List(ctx context.Context, authorID string) ([]*post.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*post.Post, 0, len(m.store))
	for _, p := range m.store {
		if authorID != "" && p.AuthorID != authorID {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	// ids are ObjectIDs, so they break date ties in creation order
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// owned returns the post when it exists and belongs to ownerID. Caller holds mu.
func (m *MemoryRepo) owned(id, ownerID string) (*post.Post, error) {
	p, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	if p.AuthorID != ownerID {
		return nil, ErrForbidden
	}
	return p, nil
}

func (m *MemoryRepo) UpdateOwned(ctx context.Context, id, ownerID string, ch post.Changes) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.owned(id, ownerID)
	if err != nil {
		return err
	}
	if ch.Title != nil {
		p.Title = *ch.Title
	}
	if ch.Content != nil {
		p.Content = *ch.Content
	}
	if ch.Tags != nil {
		p.Tags = append([]string{}, (*ch.Tags)...)
	}
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryRepo) DeleteOwned(ctx context.Context, id, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.owned(id, ownerID); err != nil {
		return err
	}
	delete(m.store, id)
	return nil
}
