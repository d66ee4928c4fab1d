package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/client/models"
	"github.com/dmitrijs2005/gophchat/internal/client/repositories/conversations"
	"github.com/dmitrijs2005/gophchat/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophchat/internal/client/repositories/users"
	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/dbx"
	"golang.org/x/crypto/bcrypt"
)

// LocalClient implements Client on top of a local SQLite database. It mirrors
// the REST backend closely enough that the services cannot tell the two apart:
// the same status codes, the same messages and an echo bot.
type LocalClient struct {
	unauthorizedHook

	db            *sql.DB
	metadata      metadata.Repository
	users         users.Repository
	conversations conversations.Repository
	now           func() time.Time
}

// NewLocalClient wraps an initialized database (see InitDatabase).
func NewLocalClient(db *sql.DB) *LocalClient {
	return &LocalClient{
		db:            db,
		metadata:      metadata.NewSQLiteRepository(db),
		users:         users.NewSQLiteRepository(db),
		conversations: conversations.NewSQLiteRepository(db),
		now:           time.Now,
	}
}

func (c *LocalClient) Close() error {
	return c.db.Close()
}

func (c *LocalClient) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (c *LocalClient) Signup(ctx context.Context, username string, password []byte) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(password) == 0 {
		return "", &APIError{Status: http.StatusBadRequest, Message: "Username and password are required"}
	}

	hash, err := bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	if _, err := c.users.Create(ctx, username, hash); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return "", &APIError{Status: http.StatusBadRequest, Message: "Username already exists"}
		}
		return "", err
	}
	return "User created successfully", nil
}

func (c *LocalClient) Login(ctx context.Context, username string, password []byte) (*models.User, error) {
	acc, err := c.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}
	if acc == nil || bcrypt.CompareHashAndPassword(acc.PasswordHash, password) != nil {
		return nil, c.unauthorized("Invalid username or password")
	}

	if err := c.metadata.SetInt64(ctx, metadata.KeyCurrentUser, acc.ID); err != nil {
		return nil, err
	}
	return &models.User{ID: acc.ID, Username: acc.Username}, nil
}

func (c *LocalClient) Logout(ctx context.Context, userID int64) (string, error) {
	current, ok, err := c.metadata.GetInt64(ctx, metadata.KeyCurrentUser)
	if err != nil {
		return "", err
	}
	if userID != 0 && ok && userID != current {
		c.fire()
		return "", &APIError{Status: http.StatusForbidden, Message: "Cannot logout different user"}
	}
	if err := c.metadata.Delete(ctx, metadata.KeyCurrentUser); err != nil {
		return "", err
	}
	return "Logged out successfully", nil
}

func (c *LocalClient) CurrentUser(ctx context.Context) (*models.User, error) {
	acc, err := c.currentAccount(ctx)
	if err != nil {
		return nil, err
	}
	return &models.User{ID: acc.ID, Username: acc.Username}, nil
}

func (c *LocalClient) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	acc, err := c.currentAccount(ctx)
	if err != nil {
		return nil, err
	}
	return c.conversations.List(ctx, acc.ID)
}

func (c *LocalClient) CreateConversation(ctx context.Context, name string) (*models.Conversation, error) {
	acc, err := c.currentAccount(ctx)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &APIError{Status: http.StatusBadRequest, Message: "Conversation name is required"}
	}
	return c.conversations.Create(ctx, acc.ID, name)
}

func (c *LocalClient) RenameConversation(ctx context.Context, id int64, name string) (*models.Conversation, error) {
	acc, err := c.currentAccount(ctx)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &APIError{Status: http.StatusBadRequest, Message: "Conversation name is required"}
	}
	if err := c.conversations.Rename(ctx, acc.ID, id, name); err != nil {
		return nil, notFound(err)
	}
	conv, err := c.conversations.Get(ctx, acc.ID, id)
	if err != nil {
		return nil, notFound(err)
	}
	return conv, nil
}

func (c *LocalClient) DeleteConversation(ctx context.Context, id int64) error {
	acc, err := c.currentAccount(ctx)
	if err != nil {
		return err
	}
	err = dbx.WithTx(ctx, c.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return conversations.NewSQLiteRepository(tx).Delete(ctx, acc.ID, id)
	})
	return notFound(err)
}

func (c *LocalClient) SendMessage(ctx context.Context, conversationID int64, text string) ([]models.Message, error) {
	acc, err := c.currentAccount(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, &APIError{Status: http.StatusBadRequest, Message: "Message text is required"}
	}

	var out []models.Message
	err = dbx.WithTx(ctx, c.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := conversations.NewSQLiteRepository(tx)
		now := c.now()

		userMsg, err := repo.AddMessage(ctx, acc.ID, conversationID, models.SenderUser, text, now)
		if err != nil {
			return err
		}
		botMsg, err := repo.AddMessage(ctx, acc.ID, conversationID, models.SenderBot, EchoReply(text), now)
		if err != nil {
			return err
		}
		out = []models.Message{*userMsg, *botMsg}
		return nil
	})
	if err != nil {
		return nil, notFound(err)
	}
	return out, nil
}

// EchoReply is the reply produced when no language model is configured.
func EchoReply(text string) string {
	return "You said: " + text
}

// currentAccount resolves the signed-in user, firing the unauthorized hook
// when there is none (or the stored user vanished).
func (c *LocalClient) currentAccount(ctx context.Context) (*users.Account, error) {
	id, ok, err := c.metadata.GetInt64(ctx, metadata.KeyCurrentUser)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, c.unauthorized("Not logged in")
	}
	acc, err := c.users.GetByID(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		_ = c.metadata.Delete(ctx, metadata.KeyCurrentUser)
		return nil, c.unauthorized("Not logged in")
	}
	if err != nil {
		return nil, err
	}
	return acc, nil
}

func (c *LocalClient) unauthorized(msg string) error {
	c.fire()
	return &APIError{Status: http.StatusUnauthorized, Message: msg}
}

func notFound(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return &APIError{Status: http.StatusNotFound, Message: "Conversation not found"}
	}
	return err
}
