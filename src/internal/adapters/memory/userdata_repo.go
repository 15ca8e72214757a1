package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/shelfsync/shelfsync/src/internal/domain"
)

type InMemoryUserDataRepo struct {
	mu      sync.RWMutex
	records map[string]domain.UserItemData

	// FailSaves makes every Save return an error, for exercising the
	// best-effort projection path.
	FailSaves bool
}

func NewUserDataRepo() *InMemoryUserDataRepo {
	return &InMemoryUserDataRepo{records: make(map[string]domain.UserItemData)}
}

func (r *InMemoryUserDataRepo) Get(ctx context.Context, userID, itemID string) (*domain.UserItemData, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, ok := r.records[userID+"/"+itemID]
	if !ok {
		return nil, nil
	}
	return &data, nil
}

func (r *InMemoryUserDataRepo) Save(ctx context.Context, data *domain.UserItemData, reason string) error {
	if r.FailSaves {
		return errors.New("user data save failed")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[data.UserID+"/"+data.ItemID] = *data
	return nil
}
