package projectrepo

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leon2m/cursoronline/internal/agent"
	"github.com/leon2m/cursoronline/internal/project"
)

func (s *Store) ensureSchema() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.Exec(`
CREATE TABLE IF NOT EXISTS projects (
  project_id TEXT PRIMARY KEY,
  name TEXT NOT NULL DEFAULT 'Untitled Project',
  owner_id TEXT NOT NULL DEFAULT '',
  config JSONB,
  created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
  updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS project_files (
  project_id TEXT NOT NULL REFERENCES projects (project_id) ON DELETE CASCADE,
  file_id TEXT NOT NULL,
  name TEXT NOT NULL,
  language TEXT NOT NULL DEFAULT 'plaintext',
  content TEXT NOT NULL DEFAULT '',
  position INT NOT NULL DEFAULT 0,
  PRIMARY KEY (project_id, file_id)
);
CREATE INDEX IF NOT EXISTS idx_project_files_project_id ON project_files (project_id);
`)
	})
	return s.schemaErr
}

func scanRecord(row rowScanner) (Record, bool) {
	var rec Record
	var cfg []byte
	err := row.Scan(&rec.ProjectID, &rec.Name, &rec.OwnerID, &cfg, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return Record{}, false
	}
	if len(cfg) > 0 {
		var c agent.ProjectConfig
		if json.Unmarshal(cfg, &c) == nil {
			rec.Config = &c
		}
	}
	return normalizeRecord(rec), true
}

func (s *Store) loadDB(projectID string) (Record, bool) {
	if err := s.ensureSchema(); err != nil {
		return Record{}, false
	}
	id := strings.TrimSpace(projectID)
	if id == "" {
		return Record{}, false
	}
	row := s.db.QueryRow(`SELECT project_id, name, owner_id, config, created_at, updated_at
FROM projects WHERE project_id = $1`, id)
	rec, ok := scanRecord(row)
	if !ok {
		return Record{}, false
	}
	files, err := s.loadFilesDB(id)
	if err != nil {
		return Record{}, false
	}
	rec.Files = files
	return rec, true
}

func (s *Store) loadFilesDB(projectID string) ([]project.File, error) {
	if s.fileCache != nil {
		if files, ok := s.fileCache.Get(projectID); ok {
			return files, nil
		}
	}
	rows, err := s.db.Query(`SELECT file_id, name, language, content
FROM project_files WHERE project_id = $1 ORDER BY position`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []project.File
	for rows.Next() {
		var f project.File
		if err := rows.Scan(&f.ID, &f.Name, &f.Language, &f.Content); err != nil {
			continue
		}
		out = append(out, f)
	}
	if s.fileCache != nil {
		s.fileCache.Add(projectID, out)
	}
	return out, rows.Err()
}

func (s *Store) saveDB(rec Record) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	n := normalizeRecord(rec)
	if n.ProjectID == "" {
		return fmt.Errorf("projectrepo: record has no project id")
	}
	var cfg any
	if n.Config != nil {
		b, err := json.Marshal(n.Config)
		if err != nil {
			return fmt.Errorf("projectrepo: encode config: %w", err)
		}
		cfg = b
	}
	_, err := s.db.Exec(`
INSERT INTO projects (project_id, name, owner_id, config, created_at, updated_at)
VALUES ($1,$2,$3,$4,NOW(),NOW())
ON CONFLICT (project_id)
DO UPDATE SET name=EXCLUDED.name,
  owner_id=EXCLUDED.owner_id,
  config=EXCLUDED.config,
  updated_at=NOW()`,
		n.ProjectID, n.Name, n.OwnerID, cfg)
	if err != nil {
		return err
	}
	if n.Files != nil {
		return s.syncFilesDB(n.ProjectID, n.Files)
	}
	return nil
}

func (s *Store) deleteDB(projectID string) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	id := strings.TrimSpace(projectID)
	if id == "" {
		return nil
	}
	_, err := s.db.Exec(`DELETE FROM projects WHERE project_id = $1`, id)
	if s.fileCache != nil {
		s.fileCache.Remove(id)
	}
	return err
}

// syncFilesDB replaces the stored file set in one transaction so a reader
// never observes a half-synced project.
func (s *Store) syncFilesDB(projectID string, files []project.File) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	id := strings.TrimSpace(projectID)
	if id == "" {
		return fmt.Errorf("projectrepo: sync without project id")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM project_files WHERE project_id = $1`, id); err != nil {
		return err
	}
	for i, f := range files {
		if _, err := tx.Exec(`
INSERT INTO project_files (project_id, file_id, name, language, content, position)
VALUES ($1,$2,$3,$4,$5,$6)`,
			id, f.ID, f.Name, f.Language, f.Content, i); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`UPDATE projects SET updated_at = NOW() WHERE project_id = $1`, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	if s.fileCache != nil {
		cp := make([]project.File, len(files))
		copy(cp, files)
		s.fileCache.Add(id, cp)
	}
	return nil
}

func (s *Store) listByOwnerDB(ownerID string) []Record {
	if err := s.ensureSchema(); err != nil {
		return nil
	}
	uid := strings.TrimSpace(ownerID)
	var (
		query = `SELECT project_id, name, owner_id, config, created_at, updated_at
FROM projects ORDER BY created_at`
		args []any
	)
	if uid != "" {
		query = `SELECT project_id, name, owner_id, config, created_at, updated_at
FROM projects WHERE owner_id = $1 ORDER BY created_at`
		args = append(args, uid)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil
	}
	defer rows.Close()
	out := make([]Record, 0, 32)
	for rows.Next() {
		if rec, ok := scanRecord(rows); ok {
			out = append(out, rec)
		}
	}
	return out
}
