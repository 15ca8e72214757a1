package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfsync/shelfsync/src/internal/domain"
)

func TestMatchDocumentFastPath(t *testing.T) {
	// File deliberately missing: the ID fast path must not touch disk.
	items := []domain.LibraryItem{
		{ID: "ffffffffffffffffffffffffffffffff", Path: "/nope/other.epub"},
		{ID: "0123456789abcdef0123456789abcdef", Path: "/nope/gone.epub", Title: "Gone"},
	}

	got := MatchDocument("0123456789abcdef0123456789abcdef", items)
	require.NotNil(t, got)
	assert.Equal(t, "Gone", got.Title)

	got = MatchDocument("01234567-89ab-cdef-0123-456789abcdef", items)
	require.NotNil(t, got)
	assert.Equal(t, "Gone", got.Title, "hyphenated form resolves the same item")
}

func TestMatchDocumentByFilenameHash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.epub")
	require.NoError(t, os.WriteFile(path, patternBytes(2000), 0o644))

	items := []domain.LibraryItem{
		{ID: "ffffffffffffffffffffffffffffffff", Path: path, Title: "Book"},
	}

	got := MatchDocument(StringMD5("book.epub"), items)
	require.NotNil(t, got)
	assert.Equal(t, "Book", got.Title)
}

func TestMatchDocumentCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.epub")
	require.NoError(t, os.WriteFile(path, patternBytes(2000), 0o644))

	items := []domain.LibraryItem{{ID: "ffffffffffffffffffffffffffffffff", Path: path}}

	got := MatchDocument(strings.ToUpper(StringMD5("book.epub")), items)
	assert.NotNil(t, got)
}

func TestMatchDocumentBySparseHash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "content.epub")
	require.NoError(t, os.WriteFile(path, patternBytes(6000), 0o644))

	items := []domain.LibraryItem{{ID: "ffffffffffffffffffffffffffffffff", Path: path}}

	got := MatchDocument(SparseMD5(path), items)
	assert.NotNil(t, got)
}

func TestMatchDocumentFirstInScanOrderWins(t *testing.T) {
	dirA, dirB := t.TempDir(), t.TempDir()
	pathA := filepath.Join(dirA, "book.epub")
	pathB := filepath.Join(dirB, "book.epub")
	require.NoError(t, os.WriteFile(pathA, patternBytes(2000), 0o644))
	require.NoError(t, os.WriteFile(pathB, patternBytes(3000), 0o644))

	items := []domain.LibraryItem{
		{ID: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Path: pathA, Title: "First"},
		{ID: "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", Path: pathB, Title: "Second"},
	}

	// Both items share the filename hash; scan order decides.
	got := MatchDocument(StringMD5("book.epub"), items)
	require.NotNil(t, got)
	assert.Equal(t, "First", got.Title)
}

func TestMatchDocumentSkipsMissingFiles(t *testing.T) {
	items := []domain.LibraryItem{
		{ID: "ffffffffffffffffffffffffffffffff", Path: filepath.Join(t.TempDir(), "gone.epub")},
	}
	assert.Nil(t, MatchDocument(StringMD5("gone.epub"), items))
}

func TestMatchDocumentNoMatch(t *testing.T) {
	assert.Nil(t, MatchDocument("deadbeefdeadbeefdeadbeefdeadbeef", nil))
}
