package users

import (
	"context"
	"sync"
	"time"

	"github.com/devblog/devblog-api/internal/models"
)

// MemoryUserRepository keeps users in process memory. Used when no MongoDB
// URI is configured and in tests.
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: map[string]*models.User{}}
}

func (r *MemoryUserRepository) Ensure(ctx context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.users[u.ID]; ok {
		return clone(cur), nil
	}
	now := time.Now().UTC()
	stored := &models.User{ID: u.ID, DisplayName: u.DisplayName, Email: u.Email, CreatedAt: now, UpdatedAt: now}
	r.users[u.ID] = stored
	return clone(stored), nil
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return clone(u), nil
	}
	return nil, nil
}

func (r *MemoryUserRepository) StagePending(ctx context.Context, id string, p models.PendingVerification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	u, ok := r.users[id]
	if !ok {
		u = &models.User{ID: id, CreatedAt: now}
		r.users[id] = u
	}
	if p.DisplayName != "" {
		u.DisplayName = p.DisplayName
	}
	exp := p.ExpiresAt.UTC()
	u.PendingEmail = p.Email
	u.EmailVerificationToken = p.Token
	u.EmailVerificationExpiresAt = &exp
	u.UpdatedAt = now
	return nil
}

func (r *MemoryUserRepository) Redeem(ctx context.Context, token string, now time.Time) (*models.User, error) {
	if token == "" {
		return nil, ErrTokenNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.EmailVerificationToken != token {
			continue
		}
		if u.EmailVerificationExpiresAt == nil || !u.EmailVerificationExpiresAt.After(now) {
			return nil, ErrTokenNotFound
		}
		u.Email = u.PendingEmail
		u.PendingEmail = ""
		u.EmailVerificationToken = ""
		u.EmailVerificationExpiresAt = nil
		u.UpdatedAt = now.UTC()
		return clone(u), nil
	}
	return nil, ErrTokenNotFound
}

func clone(u *models.User) *models.User {
	c := *u
	if u.EmailVerificationExpiresAt != nil {
		t := *u.EmailVerificationExpiresAt
		c.EmailVerificationExpiresAt = &t
	}
	return &c
}
