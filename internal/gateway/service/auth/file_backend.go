package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// storedAccount is the on-disk account shape. The password leaves this
// package only through this file; User never carries it.
type storedAccount struct {
	User
	Password string `json:"password"`
}

func (s *Service) ensureLoaded() {
	if s.path == "" {
		return
	}
	s.loadOnce.Do(func() {
		b, err := os.ReadFile(s.path)
		if err != nil {
			return
		}
		var rows []storedAccount
		if err := json.Unmarshal(b, &rows); err != nil {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, row := range rows {
			email := strings.ToLower(strings.TrimSpace(row.Email))
			if email == "" {
				continue
			}
			s.byEmail[email] = account{User: row.User, password: row.Password}
		}
	})
}

// flush writes the full user table to disk. Callers must not hold mu.
func (s *Service) flush() error {
	if s.path == "" {
		return nil
	}
	s.mu.RLock()
	rows := make([]storedAccount, 0, len(s.byEmail))
	for _, acc := range s.byEmail {
		rows = append(rows, storedAccount{User: acc.User, Password: acc.password})
	}
	s.mu.RUnlock()
	sort.Slice(rows, func(i, j int) bool { return rows[i].Email < rows[j].Email })

	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("auth: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("auth: mkdir: %w", err)
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return fmt.Errorf("auth: write: %w", err)
	}
	return nil
}
