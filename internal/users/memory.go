package users

import (
	"context"
	"sync"

	"github.com/gogotex/tokenauth/internal/models"
)

// MemoryUserRepository keeps members in process memory. Used when no MongoDB
// is configured and in tests.
type MemoryUserRepository struct {
	mu     sync.RWMutex
	byID   map[string]models.User
	byName map[string]string
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:   make(map[string]models.User),
		byName: make(map[string]string),
	}
}

func (r *MemoryUserRepository) Create(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[u.Username]; ok {
		return ErrDuplicateUsername
	}
	r.byID[u.ID] = *u
	r.byName[u.Username] = u.ID
	return nil
}

func (r *MemoryUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[username]
	if !ok {
		return nil, ErrNotFound
	}
	u := r.byID[id]
	return &u, nil
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *MemoryUserRepository) Update(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[u.ID]
	if !ok {
		return ErrNotFound
	}
	cur.PasswordHash = u.PasswordHash
	cur.Nickname = u.Nickname
	cur.Role = u.Role
	cur.UpdatedAt = u.UpdatedAt
	r.byID[u.ID] = cur
	return nil
}
