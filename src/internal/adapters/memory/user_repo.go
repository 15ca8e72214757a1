package memory

import (
	"context"
	"sync"

	"github.com/shelfsync/shelfsync/src/internal/domain"
)

type InMemoryUserRepo struct {
	mu    sync.RWMutex
	users map[string]domain.User // keyed by ID
}

func NewUserRepo() *InMemoryUserRepo {
	return &InMemoryUserRepo{users: make(map[string]domain.User)}
}

func (r *InMemoryUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

func (r *InMemoryUserRepo) GetByName(ctx context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *InMemoryUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Username == user.Username {
			return domain.ErrUserExists
		}
	}
	r.users[user.ID] = *user
	return nil
}

func (r *InMemoryUserRepo) Save(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users[user.ID] = *user
	return nil
}
