// Package workspace manages open projects: the live in-memory file set per
// project, the user edit operations, and the debounced write-back to the
// project repository.
package workspace

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/leon2m/cursoronline/internal/agent"
	"github.com/leon2m/cursoronline/internal/gateway/repository/projectrepo"
	"github.com/leon2m/cursoronline/internal/project"
	"github.com/leon2m/cursoronline/internal/utils"
)

// syncDebounce batches rapid editor changes into one repository write.
const syncDebounce = time.Second

var (
	ErrNotOpen        = errors.New("workspace: project is not open")
	ErrUnknownProject = errors.New("workspace: unknown project")
)

// Service owns every open project session.
type Service struct {
	repo     *projectrepo.Store
	debounce time.Duration

	mu   sync.Mutex
	open map[string]*Session
}

func NewService(repo *projectrepo.Store) *Service {
	return &Service{
		repo:     repo,
		debounce: syncDebounce,
		open:     make(map[string]*Session),
	}
}

// Create registers a new project and persists its initial (empty) state.
func (s *Service) Create(ownerID, name string, cfg *agent.ProjectConfig) (projectrepo.Record, error) {
	rec := projectrepo.Record{
		ProjectID: utils.ShortID(),
		Name:      name,
		OwnerID:   ownerID,
		Config:    cfg,
	}
	if err := s.repo.Save(rec); err != nil {
		return projectrepo.Record{}, err
	}
	saved, ok := s.repo.Load(rec.ProjectID)
	if !ok {
		return rec, nil
	}
	return saved, nil
}

// Open loads a project into memory and returns its live session. Opening an
// already open project returns the existing session.
func (s *Service) Open(projectID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.open[projectID]; ok {
		return sess, nil
	}
	rec, ok := s.repo.Load(projectID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProject, projectID)
	}
	files := project.NewStore(rec.Files...)
	files.ClearDirty()
	sess := &Session{
		ProjectID: rec.ProjectID,
		Name:      rec.Name,
		Config:    rec.Config,
		Files:     files,
		repo:      s.repo,
		debounce:  s.debounce,
	}
	s.open[projectID] = sess
	return sess, nil
}

// Get returns the session for an open project.
func (s *Service) Get(projectID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.open[projectID]
	return sess, ok
}

// Close flushes pending changes and drops the in-memory session.
func (s *Service) Close(projectID string) error {
	s.mu.Lock()
	sess, ok := s.open[projectID]
	delete(s.open, projectID)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return sess.Flush()
}

// Delete removes a project from the repository and closes its session.
func (s *Service) Delete(projectID string) error {
	s.mu.Lock()
	if sess, ok := s.open[projectID]; ok {
		sess.stopTimer()
		delete(s.open, projectID)
	}
	s.mu.Unlock()
	return s.repo.Delete(projectID)
}

// List returns the persisted projects of one owner.
func (s *Service) List(ownerID string) []projectrepo.Record {
	return s.repo.ListByOwner(ownerID)
}

// Shutdown flushes every open session. Called on process exit.
func (s *Service) Shutdown() {
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.open))
	for _, sess := range s.open {
		sessions = append(sessions, sess)
	}
	s.open = make(map[string]*Session)
	s.mu.Unlock()
	for _, sess := range sessions {
		_ = sess.Flush()
	}
}
