package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/shelfsync/shelfsync/src/internal/domain"
	"github.com/shelfsync/shelfsync/src/internal/ports"
)

// syntheticBookDuration stands in for runtime on text-only books, which
// have none. One hour gives percentages a fine-grained position scale.
const syntheticBookDuration = time.Hour

// SyncService reconciles progress updates from reading devices and
// projects the merged result onto the catalog's native progress tracking.
type SyncService struct {
	store    ports.ProgressStore
	library  ports.LibraryRepository
	userData ports.UserDataRepository

	locks       keyedMutex
	projections sync.WaitGroup
	now         func() time.Time
}

func NewSyncService(store ports.ProgressStore, library ports.LibraryRepository, userData ports.UserDataRepository) *SyncService {
	return &SyncService{
		store:    store,
		library:  library,
		userData: userData,
		now:      time.Now,
	}
}

// UpdateProgress applies the floor-preserving merge: an update behind the
// stored record is acknowledged but not written, and the ack carries the
// retained record's timestamp. Accepted updates get a server-assigned
// timestamp, are written durably, and then projected onto the catalog in
// the background. Reads and writes for one (user, document) pair are
// serialized so concurrent devices cannot interleave the merge.
func (s *SyncService) UpdateProgress(ctx context.Context, userID string, rec *domain.ProgressRecord) (domain.UpdateAck, error) {
	if err := rec.Validate(); err != nil {
		return domain.UpdateAck{}, err
	}

	key := userID + "\x00" + rec.Document
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	existing, err := s.store.Get(ctx, userID, rec.Document)
	if err != nil {
		log.Printf("Reading stored progress for user %s document %s failed, treating as absent: %v", userID, rec.Document, err)
		existing = nil
	}
	if existing != nil && existing.Percentage > rec.Percentage {
		log.Printf("Keeping stored progress (%.1f%%) over update (%.1f%%) for document %s",
			existing.Percentage*100, rec.Percentage*100, rec.Document)
		return domain.UpdateAck{Document: rec.Document, Timestamp: existing.Timestamp}, nil
	}

	rec.Timestamp = s.now().Unix()
	if err := s.store.Put(ctx, userID, rec.Document, rec); err != nil {
		return domain.UpdateAck{}, fmt.Errorf("persist progress for document %s: %w", rec.Document, err)
	}

	snapshot := *rec
	s.projections.Add(1)
	go func() {
		defer s.projections.Done()
		s.project(context.Background(), userID, snapshot)
	}()

	return domain.UpdateAck{Document: rec.Document, Timestamp: rec.Timestamp}, nil
}

// GetProgress returns the stored record, or nil when the document has
// never been synced.
func (s *SyncService) GetProgress(ctx context.Context, userID, document string) (*domain.ProgressRecord, error) {
	return s.store.Get(ctx, userID, document)
}

// WaitProjections blocks until in-flight host projections finish. Used on
// shutdown so accepted updates land in the catalog before exit.
func (s *SyncService) WaitProjections() {
	s.projections.Wait()
}

// project writes the merged progress into the catalog's per-user data.
// Strictly best-effort: every failure is logged and swallowed, the sync
// response was already decided by the durable write.
func (s *SyncService) project(ctx context.Context, userID string, rec domain.ProgressRecord) {
	items, err := s.library.ListByKind(ctx, domain.ItemKindBook, domain.ItemKindAudiobook)
	if err != nil {
		log.Printf("Listing library items for document %s failed: %v", rec.Document, err)
		return
	}

	item := MatchDocument(rec.Document, items)
	if item == nil {
		log.Printf("No library item matches document %s; progress still syncs between devices", rec.Document)
		return
	}

	data, err := s.userData.Get(ctx, userID, item.ID)
	if err != nil || data == nil {
		data = &domain.UserItemData{UserID: userID, ItemID: item.ID}
	}

	basis := item.Duration
	if basis <= 0 {
		basis = syntheticBookDuration
	}
	data.Position = time.Duration(math.Round(float64(basis) * rec.Percentage))
	if rec.Percentage >= 1 {
		data.Played = true
	} else if rec.Percentage > 0 {
		data.Played = false
	}
	data.LastPlayedAt = s.now().UTC()

	if err := s.userData.Save(ctx, data, "KOReaderSync"); err != nil {
		log.Printf("Saving projected progress for item %q failed: %v", item.Title, err)
		return
	}
	log.Printf("Projected %.1f%% onto item %q (position %s)", rec.Percentage*100, item.Title, data.Position)
}

// keyedMutex hands out one mutex per string key, dropping entries once
// the last holder releases them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) Lock(key string) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()
	l.mu.Lock()
}

func (k *keyedMutex) Unlock(key string) {
	k.mu.Lock()
	l := k.locks[key]
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()
	l.mu.Unlock()
}
