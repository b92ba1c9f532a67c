// Package projectrepo persists projects and their synced file sets. Two
// backends share one facade: a JSON file for local development and
// postgres for real deployments.
package projectrepo

import (
	"database/sql"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/leon2m/cursoronline/internal/project"
)

// Store is the dual-backend project repository. With a nil db it operates
// on the JSON file at path; otherwise every call goes to postgres.
type Store struct {
	path string
	db   *sql.DB

	loadOnce sync.Once
	mu       sync.RWMutex
	byID     map[string]Record

	schemaOnce sync.Once
	schemaErr  error

	fileCache *lru.Cache[string, []project.File]
}

// New opens the file-backed store at path. The file is loaded lazily on
// first access and may not exist yet.
func New(path string) *Store {
	return &Store{
		path: path,
		byID: make(map[string]Record),
	}
}

// NewPostgres opens the postgres-backed store. Synced file sets are cached
// per project to keep the hot open-project path off the database.
func NewPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	cache, err := lru.New[string, []project.File](256)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, fileCache: cache}, nil
}

// Close releases the database handle in postgres mode.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load returns the persisted record for a project.
func (s *Store) Load(projectID string) (Record, bool) {
	if s == nil {
		return Record{}, false
	}
	if s.db != nil {
		return s.loadDB(projectID)
	}
	return s.loadFile(projectID)
}

// Save upserts a project's metadata and file set.
func (s *Store) Save(rec Record) error {
	if s == nil {
		return nil
	}
	if s.db != nil {
		return s.saveDB(rec)
	}
	return s.saveToFile(rec)
}

// Delete removes a project and its files.
func (s *Store) Delete(projectID string) error {
	if s == nil {
		return nil
	}
	if s.db != nil {
		return s.deleteDB(projectID)
	}
	return s.deleteFile(projectID)
}

// SyncFiles replaces a project's persisted file set wholesale. It is the
// debounced write path behind every editor change.
func (s *Store) SyncFiles(projectID string, files []project.File) error {
	if s == nil {
		return nil
	}
	if s.db != nil {
		return s.syncFilesDB(projectID, files)
	}
	return s.syncFilesFile(projectID, files)
}

// ListByOwner returns the projects owned by a user. An empty ownerID lists
// everything.
func (s *Store) ListByOwner(ownerID string) []Record {
	if s == nil {
		return nil
	}
	if s.db != nil {
		return s.listByOwnerDB(ownerID)
	}
	return s.listByOwnerFile(ownerID)
}
