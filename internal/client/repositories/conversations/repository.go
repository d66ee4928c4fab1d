// Package conversations persists conversation threads of the local backend.
//
// Every read and write is scoped by owner: a conversation that belongs to a
// different user behaves exactly like one that does not exist
// (common.ErrorNotFound).
package conversations

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/client/models"
)

type Repository interface {
	// List returns the owner's conversations, newest first, each with its
	// messages in insertion order.
	List(ctx context.Context, ownerID int64) ([]models.Conversation, error)
	Get(ctx context.Context, ownerID, id int64) (*models.Conversation, error)
	Create(ctx context.Context, ownerID int64, name string) (*models.Conversation, error)
	Rename(ctx context.Context, ownerID, id int64, name string) error
	Delete(ctx context.Context, ownerID, id int64) error
	// AddMessage appends a message to a conversation owned by ownerID.
	AddMessage(ctx context.Context, ownerID, conversationID int64, sender models.Sender, text string, at time.Time) (*models.Message, error)
}
