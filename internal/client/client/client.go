package client

import (
	"context"

	"github.com/dmitrijs2005/gophchat/internal/client/models"
)

// Client is the backend contract consumed by the session and conversation
// services. HTTPClient talks to the REST backend; LocalClient keeps everything
// in a local SQLite file for offline/demo use.
type Client interface {
	Close() error
	Ping(ctx context.Context) error

	Signup(ctx context.Context, username string, password []byte) (string, error)
	Login(ctx context.Context, username string, password []byte) (*models.User, error)
	// Logout ends the session. A zero userID uses the id-less endpoint.
	Logout(ctx context.Context, userID int64) (string, error)
	CurrentUser(ctx context.Context) (*models.User, error)

	ListConversations(ctx context.Context) ([]models.Conversation, error)
	CreateConversation(ctx context.Context, name string) (*models.Conversation, error)
	RenameConversation(ctx context.Context, id int64, name string) (*models.Conversation, error)
	DeleteConversation(ctx context.Context, id int64) error
	// SendMessage posts text and returns the stored user message followed by
	// the reply, in arrival order.
	SendMessage(ctx context.Context, conversationID int64, text string) ([]models.Message, error)

	// SetUnauthorizedHandler installs the hook run whenever any call comes
	// back unauthorized (401/403), regardless of which operation it was.
	SetUnauthorizedHandler(fn func())
}
