package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const progressFile = "progress.json"

// FileStore keeps progress in a JSON file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// DataDir returns the directory progress is stored in by default. It
// respects XDG_DATA_HOME and otherwise uses ~/.local/share/prayer-times.
func DataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "prayer-times"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "prayer-times"), nil
}

// NewFileStore stores progress under dir, or DataDir when dir is empty.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		d, err := DataDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	return &FileStore{path: filepath.Join(dir, progressFile)}, nil
}

// Path returns the file progress is written to.
func (s *FileStore) Path() string { return s.path }

// Load reads progress. A missing file is empty progress.
func (s *FileStore) Load(_ context.Context) (*Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read progress file: %w", err)
	}

	p := New()
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse progress file %s: %w", s.path, err)
	}
	if p.DailyPrayers == nil {
		p.DailyPrayers = map[string]Day{}
	}
	return p, nil
}

// Save writes progress, creating the directory as needed.
func (s *FileStore) Save(_ context.Context, p *Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}
	if err := os.WriteFile(s.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write progress file: %w", err)
	}
	return nil
}

// Reset deletes the progress file.
func (s *FileStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove progress file: %w", err)
	}
	return nil
}
