package workspace

import (
	"sync"
	"time"

	"github.com/leon2m/cursoronline/internal/agent"
	"github.com/leon2m/cursoronline/internal/gateway/repository/projectrepo"
	"github.com/leon2m/cursoronline/internal/project"
)

// Session is one open project: the authoritative file store plus the
// debounced write-back. The orchestrator and the user edit path both
// mutate Files; every mutation goes through MarkChanged.
type Session struct {
	ProjectID string
	Name      string
	Config    *agent.ProjectConfig
	Files     *project.Store

	repo     *projectrepo.Store
	debounce time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// CreateFile adds or overwrites a file via the user edit path.
func (s *Session) CreateFile(name, content string) (project.File, error) {
	f, err := s.Files.Create(name, content)
	if err != nil {
		return project.File{}, err
	}
	s.MarkChanged()
	return f, nil
}

// UpdateFile replaces a file's content, addressed by id.
func (s *Session) UpdateFile(id, content string) error {
	if err := s.Files.UpdateByID(id, content); err != nil {
		return err
	}
	s.MarkChanged()
	return nil
}

// RenameFile changes a file's name, addressed by id.
func (s *Session) RenameFile(id, newName string) error {
	if err := s.Files.Rename(id, newName); err != nil {
		return err
	}
	s.MarkChanged()
	return nil
}

// DeleteFile removes a file, addressed by id.
func (s *Session) DeleteFile(id string) error {
	if err := s.Files.DeleteByID(id); err != nil {
		return err
	}
	s.MarkChanged()
	return nil
}

// MarkChanged schedules a debounced sync. Rapid successive edits collapse
// into a single repository write.
func (s *Session) MarkChanged() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.debounce <= 0 {
		go func() { _ = s.sync() }()
		return
	}
	if s.timer != nil {
		s.timer.Reset(s.debounce)
		return
	}
	s.timer = time.AfterFunc(s.debounce, func() { _ = s.sync() })
}

// Flush cancels any pending timer and syncs immediately.
func (s *Session) Flush() error {
	s.stopTimer()
	return s.sync()
}

func (s *Session) stopTimer() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
}

func (s *Session) sync() error {
	if err := s.repo.SyncFiles(s.ProjectID, s.Files.List()); err != nil {
		return err
	}
	s.Files.ClearDirty()
	return nil
}
