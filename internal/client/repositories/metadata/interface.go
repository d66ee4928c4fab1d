// Package metadata is a small key/value store in the local client database.
// The local backend keeps its session (the signed-in user id) here.
package metadata

import (
	"context"
)

// KeyCurrentUser holds the id of the user signed in to the local backend.
const KeyCurrentUser = "current_user"

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	GetInt64(ctx context.Context, key string) (int64, bool, error)
	SetInt64(ctx context.Context, key string, v int64) error
}
