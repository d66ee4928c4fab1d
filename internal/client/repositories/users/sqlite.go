package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/dbx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, username string, passwordHash []byte) (*Account, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)

	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?) RETURNING id`,
		username, passwordHash, now.UnixMilli()).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return &Account{ID: id, Username: username, PasswordHash: passwordHash, CreatedAt: now}, nil
}

func (r *SQLiteRepository) GetByUsername(ctx context.Context, username string) (*Account, error) {
	return r.getOne(ctx, `SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username)
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*Account, error) {
	return r.getOne(ctx, `SELECT id, username, password_hash, created_at FROM users WHERE id = ?`, id)
}

func (r *SQLiteRepository) getOne(ctx context.Context, query string, arg any) (*Account, error) {
	var (
		a       Account
		created int64
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&a.ID, &a.Username, &a.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select user: %w", err)
	}
	a.CreatedAt = time.UnixMilli(created).UTC()
	return &a, nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
