package projectrepo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/leon2m/cursoronline/internal/project"
)

func (s *Store) ensureLoadedFile() {
	s.loadOnce.Do(func() {
		b, err := os.ReadFile(s.path)
		if err != nil {
			return
		}
		var rows []Record
		if err := json.Unmarshal(b, &rows); err != nil {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, row := range rows {
			id := strings.TrimSpace(row.ProjectID)
			if id == "" {
				continue
			}
			s.byID[id] = normalizeRecord(row)
		}
	})
}

// flushFile writes the full record set to disk. Callers must not hold mu.
func (s *Store) flushFile() error {
	s.mu.RLock()
	rows := make([]Record, 0, len(s.byID))
	for _, rec := range s.byID {
		rows = append(rows, normalizeRecord(rec))
	}
	s.mu.RUnlock()
	sort.Slice(rows, func(i, j int) bool { return rows[i].ProjectID < rows[j].ProjectID })

	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("projectrepo: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("projectrepo: mkdir: %w", err)
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return fmt.Errorf("projectrepo: write: %w", err)
	}
	return nil
}

func (s *Store) loadFile(projectID string) (Record, bool) {
	s.ensureLoadedFile()
	id := strings.TrimSpace(projectID)
	if id == "" {
		return Record{}, false
	}
	s.mu.RLock()
	rec, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return Record{}, false
	}
	return normalizeRecord(rec), true
}

func (s *Store) saveToFile(rec Record) error {
	s.ensureLoadedFile()
	n := normalizeRecord(rec)
	if n.ProjectID == "" {
		return fmt.Errorf("projectrepo: record has no project id")
	}
	now := time.Now()
	s.mu.Lock()
	if prev, ok := s.byID[n.ProjectID]; ok && !prev.CreatedAt.IsZero() {
		n.CreatedAt = prev.CreatedAt
	} else if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now
	s.byID[n.ProjectID] = n
	s.mu.Unlock()
	return s.flushFile()
}

func (s *Store) deleteFile(projectID string) error {
	s.ensureLoadedFile()
	id := strings.TrimSpace(projectID)
	if id == "" {
		return nil
	}
	s.mu.Lock()
	delete(s.byID, id)
	s.mu.Unlock()
	return s.flushFile()
}

func (s *Store) syncFilesFile(projectID string, files []project.File) error {
	s.ensureLoadedFile()
	id := strings.TrimSpace(projectID)
	if id == "" {
		return fmt.Errorf("projectrepo: sync without project id")
	}
	cp := make([]project.File, len(files))
	copy(cp, files)
	s.mu.Lock()
	rec, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("projectrepo: unknown project %s", id)
	}
	rec.Files = cp
	rec.UpdatedAt = time.Now()
	s.byID[id] = rec
	s.mu.Unlock()
	return s.flushFile()
}

func (s *Store) listByOwnerFile(ownerID string) []Record {
	s.ensureLoadedFile()
	uid := strings.TrimSpace(ownerID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.byID))
	for _, rec := range s.byID {
		if uid != "" && strings.TrimSpace(rec.OwnerID) != uid {
			continue
		}
		out = append(out, normalizeRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
