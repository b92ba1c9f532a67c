// Package snapshot archives the file set a run produced, keyed by run id.
// Snapshots are write-once: a completed run's output never changes.
package snapshot

import (
	"context"
	"errors"

	"github.com/leon2m/cursoronline/internal/project"
)

var ErrNotFound = errors.New("snapshot: file not found")

// Store persists run snapshots. Implementations: MemoryStore for local
// development, S3Store for real deployments.
type Store interface {
	Put(ctx context.Context, runID, path string, content []byte) error
	Get(ctx context.Context, runID, path string) ([]byte, error)
	List(ctx context.Context, runID string) ([]string, error)
}

// Archive writes every file of a run's final project state to the store.
func Archive(ctx context.Context, s Store, runID string, files []project.File) error {
	for _, f := range files {
		if err := s.Put(ctx, runID, f.Name, []byte(f.Content)); err != nil {
			return err
		}
	}
	return nil
}
