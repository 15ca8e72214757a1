package ports

import (
	"context"

	"github.com/shelfsync/shelfsync/src/internal/domain"
)

type LibraryRepository interface {
	GetByID(ctx context.Context, id string) (*domain.LibraryItem, error)
	// ListByKind returns every item of the given kinds, unfiltered and
	// unlimited. Scan order is the order matching walks the catalog in.
	ListByKind(ctx context.Context, kinds ...domain.ItemKind) ([]domain.LibraryItem, error)
	Save(ctx context.Context, item *domain.LibraryItem) error
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByName(ctx context.Context, username string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	Save(ctx context.Context, user *domain.User) error
}

// UserDataRepository is the host's native per-user progress tracking.
// Save is the single write entry point the sync core is allowed to use.
type UserDataRepository interface {
	Get(ctx context.Context, userID, itemID string) (*domain.UserItemData, error)
	Save(ctx context.Context, data *domain.UserItemData, reason string) error
}

// ProgressStore persists one ProgressRecord per (user, document) pair.
// Get treats an unreadable record as absent; Put is durable before return.
type ProgressStore interface {
	Get(ctx context.Context, userID, document string) (*domain.ProgressRecord, error)
	Put(ctx context.Context, userID, document string, rec *domain.ProgressRecord) error
}

type SyncManager interface {
	UpdateProgress(ctx context.Context, userID string, rec *domain.ProgressRecord) (domain.UpdateAck, error)
	GetProgress(ctx context.Context, userID, document string) (*domain.ProgressRecord, error)
}
