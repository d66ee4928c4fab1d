package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/server/auth"
	"github.com/dmitrijs2005/gophchat/internal/server/config"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/repomanager"
)

// UserService handles signup, login and logout, and resolves session tokens
// back to accounts.
type UserService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	jwtSecret       []byte
	sessionLifetime time.Duration
	now             func() time.Time
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:              db,
		repomanager:     m,
		jwtSecret:       []byte(cfg.SecretKey),
		sessionLifetime: cfg.SessionLifetime,
		now:             time.Now,
	}
}

// SessionLifetime is how long a token from Login stays valid.
func (s *UserService) SessionLifetime() time.Duration {
	return s.sessionLifetime
}

func (s *UserService) Signup(ctx context.Context, username string, password []byte) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(password) == 0 {
		return nil, ErrMissingCredentials
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user, err := s.repomanager.Users(s.db).Create(ctx, &models.User{Username: username, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

// Login checks the credentials, marks the account online and returns it with
// a signed session token. Unknown users and wrong passwords both yield
// common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, username string, password []byte) (*models.User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(password) == 0 {
		return nil, "", ErrMissingCredentials
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, "", common.ErrorUnauthorized
		}
		return nil, "", common.ErrorInternal
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, "", common.ErrorUnauthorized
	}

	now := s.clock()
	// A login must come strictly after the last logout so its token survives
	// the check in Authenticate.
	if user.LastLogout != nil && !now.After(*user.LastLogout) {
		now = user.LastLogout.Add(time.Microsecond)
	}
	if err := repo.MarkLoggedIn(ctx, user.ID, now); err != nil {
		return nil, "", common.ErrorInternal
	}
	user.IsLoggedIn = true
	user.LastLogin = &now

	token, err := auth.GenerateToken(user.ID, now, s.jwtSecret, s.sessionLifetime)
	if err != nil {
		return nil, "", common.ErrorInternal
	}

	return user, token, nil
}

// Authenticate resolves a session token to a logged-in account. Tokens from a
// login at or before the account's last logout are rejected even after the
// user logs in again.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, common.ErrorUnauthorized
	}

	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorUnauthorized, err)
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	if !user.IsLoggedIn {
		return nil, common.ErrorUnauthorized
	}
	if user.LastLogout != nil && !claims.LoginTime().After(*user.LastLogout) {
		return nil, fmt.Errorf("%w: session ended by logout", common.ErrorUnauthorized)
	}

	return user, nil
}

// Logout ends currentID's session. A non-zero targetID must name the same
// account, otherwise common.ErrorForbidden is returned.
func (s *UserService) Logout(ctx context.Context, currentID, targetID int64) error {
	if targetID != 0 && targetID != currentID {
		return common.ErrorForbidden
	}
	if err := s.repomanager.Users(s.db).MarkLoggedOut(ctx, currentID, s.clock()); err != nil {
		return fmt.Errorf("error marking logout: %w", err)
	}
	return nil
}

// clock returns the current time at the microsecond precision Postgres keeps.
func (s *UserService) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// Statuses lists every account with its online flag and login timestamps.
func (s *UserService) Statuses(ctx context.Context) ([]*models.User, error) {
	users, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	return users, nil
}
