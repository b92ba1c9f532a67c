// Package auth is the development-mode account service: an in-memory user
// table with token sessions. It deliberately mimics a remote identity
// provider's latency so UI flows are exercised realistically.
package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/leon2m/cursoronline/internal/utils"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrUserExists         = errors.New("auth: user already exists")
	ErrNoSession          = errors.New("auth: no active session")
	ErrBadInput           = errors.New("auth: email and password are required")
)

// User is the safe, password-free account view handed to clients.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
}

type account struct {
	User
	password string
}

// Service implements register/login/logout/current over an in-memory user
// table, optionally backed by a JSON file. Sessions are always volatile.
// Delay is applied to the slow paths; zero disables it (tests).
type Service struct {
	delay time.Duration
	path  string

	loadOnce sync.Once

	mu       sync.RWMutex
	byEmail  map[string]account
	sessions map[string]string // token -> user id
}

func NewService(delay time.Duration) *Service {
	return &Service{
		delay:    delay,
		byEmail:  make(map[string]account),
		sessions: make(map[string]string),
	}
}

// NewPersistentService backs the user table with a JSON file so accounts
// survive restarts. The file is created lazily on the first registration.
func NewPersistentService(path string, delay time.Duration) *Service {
	s := NewService(delay)
	s.path = path
	return s
}

// Register creates an account and opens a session. The avatar is the user's
// initials, at most two letters.
func (s *Service) Register(ctx context.Context, email, password, displayName string) (User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return User{}, "", ErrBadInput
	}
	if err := s.sleep(ctx, s.delay); err != nil {
		return User{}, "", err
	}

	s.ensureLoaded()
	s.mu.Lock()
	if _, exists := s.byEmail[email]; exists {
		s.mu.Unlock()
		return User{}, "", ErrUserExists
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = email
	}
	acc := account{
		User: User{
			ID:          utils.ShortID(),
			Email:       email,
			DisplayName: displayName,
			Avatar:      initials(displayName),
		},
		password: password,
	}
	s.byEmail[email] = acc
	token := utils.ShortID() + utils.ShortID()
	s.sessions[token] = acc.ID
	s.mu.Unlock()
	if err := s.flush(); err != nil {
		return User{}, "", err
	}
	return acc.User, token, nil
}

// Login validates credentials and opens a session.
func (s *Service) Login(ctx context.Context, email, password string) (User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return User{}, "", ErrBadInput
	}
	if err := s.sleep(ctx, s.delay); err != nil {
		return User{}, "", err
	}

	s.ensureLoaded()
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.byEmail[email]
	if !ok || acc.password != password {
		return User{}, "", ErrInvalidCredentials
	}
	token := utils.ShortID() + utils.ShortID()
	s.sessions[token] = acc.ID
	return acc.User, token, nil
}

// Logout closes a session. Unknown tokens are a no-op.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.sleep(ctx, s.delay/4); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}

// Current resolves the session token to its user.
func (s *Service) Current(token string) (User, error) {
	s.ensureLoaded()
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.sessions[token]
	if !ok {
		return User{}, ErrNoSession
	}
	for _, acc := range s.byEmail {
		if acc.ID == userID {
			return acc.User, nil
		}
	}
	return User{}, ErrNoSession
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func initials(name string) string {
	var out []rune
	for _, word := range strings.Fields(name) {
		for _, r := range word {
			out = append(out, r)
			break
		}
		if len(out) == 2 {
			break
		}
	}
	return strings.ToUpper(string(out))
}
