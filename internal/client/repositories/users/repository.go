// Package users stores accounts of the local (offline) backend.
package users

import (
	"context"
	"time"
)

// Account is a locally registered user together with its password hash.
type Account struct {
	ID           int64
	Username     string
	PasswordHash []byte
	CreatedAt    time.Time
}

type Repository interface {
	// Create inserts a new account. A taken username yields common.ErrorAlreadyExists.
	Create(ctx context.Context, username string, passwordHash []byte) (*Account, error)
	// GetByUsername returns common.ErrorNotFound when no such account exists.
	GetByUsername(ctx context.Context, username string) (*Account, error)
	GetByID(ctx context.Context, id int64) (*Account, error)
}
