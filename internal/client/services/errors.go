package services

import "errors"

var (
	ErrEmptyCredentials     = errors.New("username and password are required")
	ErrEmptyName            = errors.New("conversation name cannot be empty")
	ErrEmptyMessage         = errors.New("message cannot be empty")
	ErrNoActiveConversation = errors.New("no active conversation")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotConfirmed         = errors.New("deletion not confirmed")
)

// Fallback messages shown when the backend gives no structured error.
const (
	LoginFailedMessage  = "Login failed. Please try again."
	SignupFailedMessage = "Signup failed. Please try again."
)

// AuthError is a failed login or signup. Message is what the auth form shows
// inline; Err is the underlying transport error.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Unwrap() error { return e.Err }
