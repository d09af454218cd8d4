// Package workspace manages the scratch directories each request generates
// or revises its files in, plus their eventual cleanup.
package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"appforge/internal/logfields"

	"github.com/google/uuid"
)

// Manager hands out uniquely named scratch directories under a single root.
type Manager struct {
	root string
}

// NewManager creates the workspace root if needed.
func NewManager(root string) (*Manager, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace root: %w", err)
	}
	return &Manager{root: root}, nil
}

// Root returns the workspace root directory.
func (m *Manager) Root() string { return m.root }

// Scratch creates and returns a fresh directory named {prefix}-{uuid}.
// Directories are not removed when the request finishes; the janitor sweeps
// them by age so failed requests leave evidence for a while.
func (m *Manager) Scratch(prefix string) (string, error) {
	dir := filepath.Join(m.root, fmt.Sprintf("%s-%s", prefix, uuid.NewString()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create scratch directory: %w", err)
	}
	return dir, nil
}

// Sweep removes top-level entries older than maxAge and reports how many
// were removed.
func (m *Manager) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		return 0, fmt.Errorf("failed to read workspace root: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(m.root, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			slog.Warn("failed to remove stale scratch directory", logfields.Path(path), logfields.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		slog.Info("swept stale scratch directories", slog.Int("removed", removed))
	}
	return removed, nil
}
