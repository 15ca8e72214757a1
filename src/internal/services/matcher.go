package services

import (
	"log"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/shelfsync/shelfsync/src/internal/domain"
)

// MatchDocument resolves a device-supplied document identifier to a
// library item, or nil when nothing matches. No match is not an error:
// progress still syncs between devices, it just cannot be projected onto
// the catalog.
//
// The identifier is first tried as a catalog item ID (hyphenated or bare
// 32-hex form), which serves identifiers handed out by the server itself
// and works even when the item's file is gone. Otherwise every item with
// a readable file is checked against its candidate hash set; the first
// item in scan order with a case-insensitive hash match wins.
func MatchDocument(documentID string, items []domain.LibraryItem) *domain.LibraryItem {
	if u, err := uuid.Parse(documentID); err == nil {
		for i := range items {
			if iu, err := uuid.Parse(items[i].ID); err == nil && iu == u {
				return &items[i]
			}
		}
	}

	for i := range items {
		item := &items[i]
		if item.Path == "" {
			continue
		}
		if _, err := os.Stat(item.Path); err != nil {
			continue
		}
		for _, c := range CandidateHashes(*item) {
			if strings.EqualFold(c.Hash, documentID) {
				log.Printf("Matched document %s to item %q via %s candidate", documentID, item.Title, c.Strategy)
				return item
			}
		}
	}
	return nil
}
