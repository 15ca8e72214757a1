package domain

import "time"

type ItemKind string

const (
	ItemKindBook      ItemKind = "Book"
	ItemKindAudiobook ItemKind = "Audiobook"
)

// LibraryItem is the catalog's view of one file on disk. The sync core only
// reads these; the scanner is the sole writer.
type LibraryItem struct {
	ID        string
	Path      string
	Title     string
	Kind      ItemKind
	Duration  time.Duration // 0 for text-only books, probed runtime for audiobooks
	CreatedAt time.Time
}

// UserItemData is the host's native per-user progress for a library item,
// the record the sync manager projects merged reading progress onto.
type UserItemData struct {
	UserID       string
	ItemID       string
	Position     time.Duration
	Played       bool
	LastPlayedAt time.Time
}
