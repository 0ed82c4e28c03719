// Package storage keeps copies of uploaded spreadsheets on the local
// filesystem, keyed by upload ID.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrFileNotFound = errors.New("file not found")

// FileInfo contains metadata about a stored file
type FileInfo struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	Path      string    `json:"path"` // relative to the storage root
	CreatedAt time.Time `json:"created_at"`
}

// LocalStorage stores each file next to a JSON metadata sidecar under
// basePath/.meta.
type LocalStorage struct {
	basePath string
	now      func() time.Time
}

// NewLocalStorage creates the storage root when missing.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(filepath.Join(basePath, ".meta"), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath, now: time.Now}, nil
}

// Save writes data under id. Saving the same id twice replaces the file.
func (s *LocalStorage) Save(ctx context.Context, id uuid.UUID, filename string, data []byte) (*FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stored := fmt.Sprintf("%s_%s", id.String()[:8], sanitizeFilename(filename))
	path := filepath.Join(s.basePath, stored)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	info := &FileInfo{
		ID:        id,
		Name:      filename,
		Size:      int64(len(data)),
		Path:      stored,
		CreatedAt: s.now().UTC(),
	}
	if err := s.saveMetadata(info); err != nil {
		os.Remove(path)
		return nil, err
	}
	return info, nil
}

// Open returns the stored bytes of id.
func (s *LocalStorage) Open(ctx context.Context, id uuid.UUID) ([]byte, *FileInfo, error) {
	info, err := s.GetInfo(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.basePath, info.Path))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, info, nil
}

// List returns every stored file, newest first.
func (s *LocalStorage) List(ctx context.Context) ([]*FileInfo, error) {
	entries, err := os.ReadDir(filepath.Join(s.basePath, ".meta"))
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata: %w", err)
	}

	files := make([]*FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id, err := uuid.Parse(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		info, err := s.GetInfo(ctx, id)
		if err != nil {
			continue
		}
		files = append(files, info)
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].CreatedAt.After(files[j].CreatedAt)
	})
	return files, nil
}

// GetInfo returns metadata for a file without reading it
func (s *LocalStorage) GetInfo(ctx context.Context, id uuid.UUID) (*FileInfo, error) {
	data, err := os.ReadFile(s.metaPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, id)
		}
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var info FileInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return &info, nil
}

func (s *LocalStorage) metaPath(id uuid.UUID) string {
	return filepath.Join(s.basePath, ".meta", id.String()+".json")
}

func (s *LocalStorage) saveMetadata(info *FileInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(s.metaPath(info.ID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}

// sanitizeFilename removes path separators and other unsafe characters
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		"..", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	return replacer.Replace(name)
}
