package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/dbx"
	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
	"github.com/dmitrijs2005/gophchat/internal/server/replier"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/repomanager"
)

// ConversationService manages one owner's conversations. A conversation that
// belongs to someone else is reported as common.ErrorNotFound.
type ConversationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	replier     replier.Replier
	logger      logging.Logger
}

func NewConversationService(db *sql.DB, m repomanager.RepositoryManager, r replier.Replier, l logging.Logger) *ConversationService {
	return &ConversationService{
		db:          db,
		repomanager: m,
		replier:     r,
		logger:      l.With("module", "conversation_service"),
	}
}

// List returns the owner's conversations newest first, each with its thread
// in id order.
func (s *ConversationService) List(ctx context.Context, ownerID int64) ([]*models.Conversation, error) {
	convs, err := s.repomanager.Conversations(s.db).List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("error listing conversations: %w", err)
	}
	if len(convs) == 0 {
		return convs, nil
	}

	msgs, err := s.repomanager.Messages(s.db).ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("error listing messages: %w", err)
	}

	index := make(map[int64]*models.Conversation, len(convs))
	for _, c := range convs {
		index[c.ID] = c
	}
	for _, m := range msgs {
		if c, ok := index[m.ConversationID]; ok {
			c.Messages = append(c.Messages, m)
		}
	}
	return convs, nil
}

func (s *ConversationService) Create(ctx context.Context, ownerID int64, name string) (*models.Conversation, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	c, err := s.repomanager.Conversations(s.db).Create(ctx, &models.Conversation{OwnerID: ownerID, Name: name})
	if err != nil {
		return nil, fmt.Errorf("error creating conversation: %w", err)
	}
	return c, nil
}

// Rename updates the name and returns the conversation with its thread.
func (s *ConversationService) Rename(ctx context.Context, ownerID, id int64, name string) (*models.Conversation, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	c, err := s.repomanager.Conversations(s.db).Rename(ctx, ownerID, id, name)
	if err != nil {
		return nil, wrapNotFound("error renaming conversation", err)
	}

	msgs, err := s.repomanager.Messages(s.db).ListByConversation(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("error listing messages: %w", err)
	}
	c.Messages = msgs
	return c, nil
}

func (s *ConversationService) Delete(ctx context.Context, ownerID, id int64) error {
	if err := s.repomanager.Conversations(s.db).Delete(ctx, ownerID, id); err != nil {
		return wrapNotFound("error deleting conversation", err)
	}
	return nil
}

// PostMessage stores text as a user message followed by the bot's reply, in
// one transaction.
func (s *ConversationService) PostMessage(ctx context.Context, ownerID, conversationID int64, text string) (*models.Message, *models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil, ErrEmptyText
	}

	conv, err := s.repomanager.Conversations(s.db).Get(ctx, ownerID, conversationID)
	if err != nil {
		return nil, nil, wrapNotFound("error loading conversation", err)
	}

	history, err := s.repomanager.Messages(s.db).ListByConversation(ctx, conv.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("error listing messages: %w", err)
	}

	answer, err := s.replier.Reply(ctx, history, text)
	if err != nil {
		s.logger.Error(ctx, "reply failed", "conversation_id", conv.ID, "error", err)
		return nil, nil, fmt.Errorf("error generating reply: %w", err)
	}

	var userMsg, botMsg *models.Message
	err = s.repomanager.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Messages(tx)

		userMsg, err = repo.Create(ctx, &models.Message{ConversationID: conv.ID, Sender: common.SenderUser, Text: text})
		if err != nil {
			return fmt.Errorf("error storing user message: %w", err)
		}
		botMsg, err = repo.Create(ctx, &models.Message{ConversationID: conv.ID, Sender: common.SenderBot, Text: answer})
		if err != nil {
			return fmt.Errorf("error storing bot message: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return userMsg, botMsg, nil
}

func wrapNotFound(op string, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrorNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
