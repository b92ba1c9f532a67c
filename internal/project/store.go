package project

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	ErrNotFound  = errors.New("project: file not found")
	ErrDuplicate = errors.New("project: file name already exists")
	ErrBadName   = errors.New("project: invalid file name")
)

// Store holds the authoritative in-memory file set for one open project.
// Both the user edit path and the orchestrator mutate it; list order is
// insertion order.
//
// Create is an upsert: writing an existing name replaces that file's content
// in place and keeps its ID.
type Store struct {
	mu    sync.RWMutex
	order []string // file IDs in insertion order
	byID  map[string]*File
}

func NewStore(initial ...File) *Store {
	s := &Store{byID: make(map[string]*File)}
	for _, f := range initial {
		if strings.TrimSpace(f.Name) == "" {
			continue
		}
		if f.ID == "" {
			f = newFile(f.Name, f.Content)
			f.Dirty = false
		}
		if f.Language == "" {
			f.Language = DetectLanguage(f.Name)
		}
		cp := f
		s.order = append(s.order, cp.ID)
		s.byID[cp.ID] = &cp
	}
	return s
}

// Create adds a file, or replaces the content of an existing file with the
// same name (upsert). The returned record is a copy.
func (s *Store) Create(name, content string) (File, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return File{}, ErrBadName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if f := s.lookupLocked(name); f != nil {
		f.Content = content
		f.Language = DetectLanguage(name)
		f.Dirty = true
		return *f, nil
	}
	f := newFile(name, content)
	s.order = append(s.order, f.ID)
	s.byID[f.ID] = &f
	return f, nil
}

// Update replaces the content of an existing file addressed by name.
func (s *Store) Update(name, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.lookupLocked(name)
	if f == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	f.Content = content
	f.Dirty = true
	return nil
}

// Delete removes the file addressed by name. Deleting a missing file is an
// error, consistent with Update.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(name)
}

// Rename changes a file's display name, addressed by id so in-flight
// name references can be detected as vanished rather than silently retargeted.
func (s *Store) Rename(id, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return ErrBadName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%w: id %s", ErrNotFound, id)
	}
	if other := s.lookupLocked(newName); other != nil && other.ID != id {
		return fmt.Errorf("%w: %s", ErrDuplicate, newName)
	}
	f.Name = newName
	f.Language = DetectLanguage(newName)
	f.Dirty = true
	return nil
}

// UpdateByID replaces content addressed by id (the user edit path).
func (s *Store) UpdateByID(id, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%w: id %s", ErrNotFound, id)
	}
	f.Content = content
	f.Dirty = true
	return nil
}

// DeleteByID removes a file addressed by id.
func (s *Store) DeleteByID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%w: id %s", ErrNotFound, id)
	}
	return s.deleteLocked(f.Name)
}

func (s *Store) deleteLocked(name string) error {
	f := s.lookupLocked(name)
	if f == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(s.byID, f.ID)
	for i, id := range s.order {
		if id == f.ID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get returns a copy of the file addressed by name.
func (s *Store) Get(name string) (File, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if f := s.lookupLocked(name); f != nil {
		return *f, true
	}
	return File{}, false
}

// List returns a snapshot of all files in insertion order.
func (s *Store) List() []File {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]File, 0, len(s.order))
	for _, id := range s.order {
		if f, ok := s.byID[id]; ok {
			out = append(out, *f)
		}
	}
	return out
}

// Len reports the number of files.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// ClearDirty marks every file as synced.
func (s *Store) ClearDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.byID {
		f.Dirty = false
	}
}

func (s *Store) lookupLocked(name string) *File {
	name = strings.TrimSpace(name)
	for _, f := range s.byID {
		if f.Name == name {
			return f
		}
	}
	return nil
}
