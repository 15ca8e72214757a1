package memory

import (
	"context"
	"sync"

	"github.com/shelfsync/shelfsync/src/internal/domain"
)

type InMemoryLibraryRepo struct {
	mu    sync.RWMutex
	order []string
	items map[string]domain.LibraryItem
}

func NewLibraryRepo() *InMemoryLibraryRepo {
	return &InMemoryLibraryRepo{items: make(map[string]domain.LibraryItem)}
}

func (r *InMemoryLibraryRepo) GetByID(ctx context.Context, id string) (*domain.LibraryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	return &item, nil
}

func (r *InMemoryLibraryRepo) ListByKind(ctx context.Context, kinds ...domain.ItemKind) ([]domain.LibraryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]domain.LibraryItem, 0, len(r.order))
	for _, id := range r.order {
		item := r.items[id]
		for _, kind := range kinds {
			if item.Kind == kind {
				items = append(items, item)
				break
			}
		}
	}
	return items, nil
}

func (r *InMemoryLibraryRepo) Save(ctx context.Context, item *domain.LibraryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[item.ID]; !ok {
		r.order = append(r.order, item.ID)
	}
	r.items[item.ID] = *item
	return nil
}
