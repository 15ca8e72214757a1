// Package filestore persists progress records as one JSON file per
// (user, document) pair under <dataDir>/<user>/<document>.json, the
// layout KOReader sync servers conventionally use.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/shelfsync/shelfsync/src/internal/domain"
)

type FileProgressStore struct {
	baseDir string
}

func NewFileProgressStore(baseDir string) (*FileProgressStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create progress data directory: %w", err)
	}
	return &FileProgressStore{baseDir: baseDir}, nil
}

// Get returns the stored record, or nil when no record exists. A record
// that cannot be read or parsed also reads as nil: stale or corrupt state
// must never fail a sync, it just loses its floor.
func (s *FileProgressStore) Get(ctx context.Context, userID, document string) (*domain.ProgressRecord, error) {
	path, err := s.recordPath(userID, document)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		log.Printf("Reading progress record %s failed: %v", path, err)
		return nil, nil
	}

	var rec domain.ProgressRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		log.Printf("Progress record %s is corrupt, treating as absent: %v", path, err)
		return nil, nil
	}
	return &rec, nil
}

// Put writes the record durably: temp file in the same directory, fsync,
// then rename over the old record.
func (s *FileProgressStore) Put(ctx context.Context, userID, document string, rec *domain.ProgressRecord) error {
	path, err := s.recordPath(userID, document)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create user progress directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode progress record: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".progress-*.json")
	if err != nil {
		return fmt.Errorf("create temp progress file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write progress record: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync progress record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close progress record: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("commit progress record: %w", err)
	}
	return nil
}

// recordPath rejects document identifiers that could escape the user's
// directory. Real identifiers are hex digests; anything with a path
// separator in it is hostile.
func (s *FileProgressStore) recordPath(userID, document string) (string, error) {
	if strings.ContainsAny(document, `/\`) || document == "." || document == ".." {
		return "", &domain.ValidationError{Field: "document", Message: "identifier must not contain path separators"}
	}
	userDir := strings.ReplaceAll(userID, "-", "")
	return filepath.Join(s.baseDir, userDir, document+".json"), nil
}
