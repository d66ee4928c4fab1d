// Package services contains the application services of the gophchat client:
// the session store (who is signed in) and the conversation repository
// (the signed-in user's conversations and the active pointer).
package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/dmitrijs2005/gophchat/internal/client/client"
	"github.com/dmitrijs2005/gophchat/internal/client/models"
	"github.com/dmitrijs2005/gophchat/internal/logging"
)

// Session is an immutable snapshot of the authenticated identity.
// The zero value is the empty (signed-out) session.
type Session struct {
	User *models.User
}

// Authenticated reports whether a user is signed in.
func (s Session) Authenticated() bool {
	return s.User != nil
}

// SessionStore owns the client session.
//
// Contract:
//   - Initialize: ask the backend for the current identity once; never fails.
//   - Login: authenticate and populate the session.
//   - Logout: end the session remotely and always clear it locally.
//   - Signup: create an account; the session is left untouched.
//   - Current/Clear/OnChange: read, reset and observe the session.
type SessionStore interface {
	Initialize(ctx context.Context)
	Login(ctx context.Context, username string, password []byte) error
	Logout(ctx context.Context) error
	Signup(ctx context.Context, username string, password []byte) (string, error)
	Current() Session
	Clear()
	OnChange(fn func(Session))
}

type SessionOption func(*sessionStore)

// WithLogoutUserID makes Logout call the per-user endpoint.
func WithLogoutUserID(enabled bool) SessionOption {
	return func(s *sessionStore) { s.logoutWithUserID = enabled }
}

func WithSessionLogger(l logging.Logger) SessionOption {
	return func(s *sessionStore) { s.logger = l.With("module", "session") }
}

type sessionStore struct {
	client           client.Client
	logger           logging.Logger
	logoutWithUserID bool

	mu        sync.Mutex
	session   Session
	observers []func(Session)
}

func NewSessionStore(c client.Client, opts ...SessionOption) SessionStore {
	s := &sessionStore{client: c, logger: logging.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *sessionStore) Initialize(ctx context.Context) {
	u, err := s.client.CurrentUser(ctx)
	if err != nil {
		s.logger.Debug(ctx, "no current session", "error", err)
		s.set(Session{})
		return
	}
	s.set(Session{User: u})
}

func (s *sessionStore) Login(ctx context.Context, username string, password []byte) error {
	username = strings.TrimSpace(username)
	if username == "" || len(password) == 0 {
		return ErrEmptyCredentials
	}

	u, err := s.client.Login(ctx, username, password)
	if err != nil {
		s.logger.Warn(ctx, "login failed", "username", username, "error", err)
		return authError(err, LoginFailedMessage)
	}

	s.logger.Info(ctx, "logged in", "user_id", u.ID)
	s.set(Session{User: u})
	return nil
}

func (s *sessionStore) Logout(ctx context.Context) error {
	var userID int64
	if cur := s.Current(); s.logoutWithUserID && cur.User != nil {
		userID = cur.User.ID
	}

	_, err := s.client.Logout(ctx, userID)
	s.Clear()
	if err != nil {
		s.logger.Error(ctx, "logout request failed", "error", err)
		return err
	}
	return nil
}

func (s *sessionStore) Signup(ctx context.Context, username string, password []byte) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(password) == 0 {
		return "", ErrEmptyCredentials
	}

	msg, err := s.client.Signup(ctx, username, password)
	if err != nil {
		s.logger.Warn(ctx, "signup failed", "username", username, "error", err)
		return "", authError(err, SignupFailedMessage)
	}
	return msg, nil
}

func (s *sessionStore) Current() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

func (s *sessionStore) Clear() {
	s.set(Session{})
}

// OnChange registers fn to be called after every session change.
func (s *sessionStore) OnChange(fn func(Session)) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// set replaces the session and notifies observers outside the lock. Setting
// an identical session is not a change.
func (s *sessionStore) set(next Session) {
	s.mu.Lock()
	if sameSession(s.session, next) {
		s.mu.Unlock()
		return
	}
	s.session = next
	observers := append([]func(Session){}, s.observers...)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(next)
	}
}

func sameSession(a, b Session) bool {
	if a.User == nil || b.User == nil {
		return a.User == b.User
	}
	return *a.User == *b.User
}

func authError(err error, fallback string) error {
	if errors.Is(err, client.ErrUnavailable) {
		return &AuthError{Message: fallback, Err: err}
	}
	msg, ok := client.ServerMessage(err)
	if !ok {
		msg = fallback
	}
	return &AuthError{Message: msg, Err: err}
}
