package conversations

import (
	"context"

	"github.com/dmitrijs2005/gophchat/internal/server/models"
)

// Repository stores conversation headers. Every method is scoped to an owner;
// a conversation owned by someone else behaves as missing.
type Repository interface {
	List(ctx context.Context, ownerID int64) ([]*models.Conversation, error)
	Get(ctx context.Context, ownerID, id int64) (*models.Conversation, error)
	Create(ctx context.Context, c *models.Conversation) (*models.Conversation, error)
	Rename(ctx context.Context, ownerID, id int64, name string) (*models.Conversation, error)
	Delete(ctx context.Context, ownerID, id int64) error
}
