package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shelfsync/shelfsync/src/internal/domain"
	"github.com/shelfsync/shelfsync/src/internal/ports"
)

type LibraryScanner struct {
	repo       ports.LibraryRepository
	ffmpegPath string
}

func NewLibraryScanner(repo ports.LibraryRepository, ffmpegPath string) *LibraryScanner {
	return &LibraryScanner{repo: repo, ffmpegPath: ffmpegPath}
}

// ScanDirectory walks the given root and upserts every book-like file
// into the catalog.
func (s *LibraryScanner) ScanDirectory(ctx context.Context, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		kind, ok := bookKind(path)
		if !ok {
			return nil
		}

		item := s.mapFileToItem(ctx, path, kind)
		if err := s.repo.Save(ctx, &item); err != nil {
			return fmt.Errorf("save item %s: %w", item.Title, err)
		}
		return nil
	})
}

func bookKind(path string) (domain.ItemKind, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".epub", ".pdf", ".mobi", ".azw3", ".fb2", ".cbz", ".txt":
		return domain.ItemKindBook, true
	case ".m4b", ".mp3":
		return domain.ItemKindAudiobook, true
	}
	return "", false
}

func (s *LibraryScanner) mapFileToItem(ctx context.Context, path string, kind domain.ItemKind) domain.LibraryItem {
	// Item IDs are the MD5 of the catalog path, so rescans are stable
	// and the 32-hex form doubles as a parseable GUID.
	hash := md5.Sum([]byte(path))
	id := hex.EncodeToString(hash[:])

	filename := filepath.Base(path)
	title := strings.TrimSuffix(filename, filepath.Ext(filename))

	var duration time.Duration
	if kind == domain.ItemKindAudiobook {
		duration = s.probeDuration(ctx, path)
	}

	return domain.LibraryItem{
		ID:        id,
		Path:      path,
		Title:     title,
		Kind:      kind,
		Duration:  duration,
		CreatedAt: time.Now(),
	}
}

var durationRegex = regexp.MustCompile(`Duration: (\d+):(\d+):(\d+(?:\.\d+)?)`)

// probeDuration asks ffmpeg for an audiobook's runtime. ffmpeg -i exits
// non-zero without an output file, so the error is ignored and only the
// banner is parsed. Returns 0 when no runtime can be read; projection
// then falls back to the synthetic book duration.
func (s *LibraryScanner) probeDuration(ctx context.Context, path string) time.Duration {
	if s.ffmpegPath == "" {
		return 0
	}

	cmd := exec.CommandContext(ctx, s.ffmpegPath, "-i", path)
	output, _ := cmd.CombinedOutput()

	matches := durationRegex.FindStringSubmatch(string(output))
	if len(matches) != 4 {
		log.Printf("No duration in ffmpeg output for %s", path)
		return 0
	}

	hours, _ := strconv.Atoi(matches[1])
	minutes, _ := strconv.Atoi(matches[2])
	seconds, _ := strconv.ParseFloat(matches[3], 64)

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds*float64(time.Second))
}
