package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/dbx"
	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/server/config"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
	"github.com/dmitrijs2005/gophchat/internal/server/replier"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/messages"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/users"
)

var errBoom = errors.New("boom")

func newUserService(t *testing.T, rm repomanager.RepositoryManager) *UserService {
	t.Helper()
	cfg := &config.Config{SecretKey: "k", SessionLifetime: time.Hour}
	return NewUserService(nil, rm, cfg)
}

func newConversationService(t *testing.T, rm repomanager.RepositoryManager, r replier.Replier) *ConversationService {
	t.Helper()
	if r == nil {
		r = replier.Echo{}
	}
	return NewConversationService(nil, rm, r, logging.Discard())
}

// failingManager wraps the in-memory manager and injects repository errors.
type failingManager struct {
	*repomanager.InMemoryRepositoryManager
	usersListErr  error
	markInErr     error
	botMessageErr error
}

func (m *failingManager) Users(db dbx.DBTX) users.Repository {
	return failingUsers{Repository: m.InMemoryRepositoryManager.Users(db), m: m}
}

func (m *failingManager) Messages(db dbx.DBTX) messages.Repository {
	return failingMessages{Repository: m.InMemoryRepositoryManager.Messages(db), m: m}
}

type failingUsers struct {
	users.Repository
	m *failingManager
}

func (f failingUsers) List(ctx context.Context) ([]*models.User, error) {
	if f.m.usersListErr != nil {
		return nil, f.m.usersListErr
	}
	return f.Repository.List(ctx)
}

func (f failingUsers) MarkLoggedIn(ctx context.Context, id int64, at time.Time) error {
	if f.m.markInErr != nil {
		return f.m.markInErr
	}
	return f.Repository.MarkLoggedIn(ctx, id, at)
}

type failingMessages struct {
	messages.Repository
	m *failingManager
}

func (f failingMessages) Create(ctx context.Context, msg *models.Message) (*models.Message, error) {
	if msg.Sender == "bot" && f.m.botMessageErr != nil {
		return nil, f.m.botMessageErr
	}
	return f.Repository.Create(ctx, msg)
}

type failingReplier struct{}

func (failingReplier) Reply(context.Context, []models.Message, string) (string, error) {
	return "", errBoom
}
