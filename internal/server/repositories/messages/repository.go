package messages

import (
	"context"

	"github.com/dmitrijs2005/gophchat/internal/server/models"
)

// Repository appends to and reads conversation threads. Messages are never
// updated.
type Repository interface {
	Create(ctx context.Context, m *models.Message) (*models.Message, error)
	ListByConversation(ctx context.Context, conversationID int64) ([]models.Message, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Message, error)
}
