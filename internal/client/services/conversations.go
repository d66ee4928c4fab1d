package services

import (
	"context"
	"strings"
	"sync"

	"github.com/dmitrijs2005/gophchat/internal/client/client"
	"github.com/dmitrijs2005/gophchat/internal/client/models"
	"github.com/dmitrijs2005/gophchat/internal/logging"
)

// State describes the active pointer relative to the conversation list.
type State int

const (
	NoConversations State = iota
	NoneActive
	OneActive
)

func (s State) String() string {
	switch s {
	case NoConversations:
		return "no conversations"
	case NoneActive:
		return "none active"
	case OneActive:
		return "one active"
	}
	return "unknown"
}

// Confirmer is asked before a conversation is deleted.
type Confirmer func(conv models.Conversation) bool

// ConversationService is the client-side cache of the signed-in user's
// conversations together with the active-conversation pointer.
//
// Every mutation goes to the backend first; the cache changes only after a
// successful response. The active pointer is always nil or the id of a cached
// conversation.
type ConversationService interface {
	Load(ctx context.Context) error
	Create(ctx context.Context, name string) (models.Conversation, error)
	Select(id int64) bool
	Rename(ctx context.Context, id int64, name string) (models.Conversation, error)
	Delete(ctx context.Context, id int64, confirm Confirmer) error
	SendMessage(ctx context.Context, id int64, text string) ([]models.Message, error)

	Conversations() []models.Conversation
	Active() (models.Conversation, bool)
	State() State
	Reset()
}

type conversationService struct {
	client client.Client
	logger logging.Logger

	mu       sync.Mutex
	convs    []models.Conversation
	activeID *int64
	// generation is bumped by Reset; responses to requests issued under an
	// older generation are dropped.
	generation uint64
}

func NewConversationService(c client.Client, logger logging.Logger) ConversationService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &conversationService{client: c, logger: logger.With("module", "conversations")}
}

func (s *conversationService) gen() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func (s *conversationService) Load(ctx context.Context) error {
	g := s.gen()

	convs, err := s.client.ListConversations(ctx)
	if err != nil {
		s.logger.Error(ctx, "load conversations failed", "error", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if g != s.generation {
		return nil
	}
	s.convs = make([]models.Conversation, 0, len(convs))
	for _, c := range convs {
		s.convs = append(s.convs, c.Clone())
	}
	s.activeID = nil
	if len(s.convs) > 0 {
		id := s.convs[0].ID
		s.activeID = &id
	}
	return nil
}

func (s *conversationService) Create(ctx context.Context, name string) (models.Conversation, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Conversation{}, ErrEmptyName
	}
	g := s.gen()

	conv, err := s.client.CreateConversation(ctx, name)
	if err != nil {
		s.logger.Error(ctx, "create conversation failed", "name", name, "error", err)
		return models.Conversation{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if g != s.generation {
		return conv.Clone(), nil
	}
	s.convs = append([]models.Conversation{conv.Clone()}, s.convs...)
	id := conv.ID
	s.activeID = &id
	return conv.Clone(), nil
}

func (s *conversationService) Select(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(id) < 0 {
		return false
	}
	s.activeID = &id
	return true
}

func (s *conversationService) Rename(ctx context.Context, id int64, name string) (models.Conversation, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Conversation{}, ErrEmptyName
	}
	g, ok := s.lookup(id)
	if !ok {
		return models.Conversation{}, ErrConversationNotFound
	}

	conv, err := s.client.RenameConversation(ctx, id, name)
	if err != nil {
		s.logger.Error(ctx, "rename conversation failed", "id", id, "error", err)
		return models.Conversation{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if g != s.generation {
		return conv.Clone(), nil
	}
	if i := s.indexOf(id); i >= 0 {
		s.convs[i] = conv.Clone()
	}
	return conv.Clone(), nil
}

func (s *conversationService) Delete(ctx context.Context, id int64, confirm Confirmer) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrConversationNotFound
	}
	target := s.convs[i].Clone()
	g := s.generation
	s.mu.Unlock()

	if confirm == nil || !confirm(target) {
		return ErrNotConfirmed
	}

	if err := s.client.DeleteConversation(ctx, id); err != nil {
		s.logger.Error(ctx, "delete conversation failed", "id", id, "error", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if g != s.generation {
		return nil
	}
	if i := s.indexOf(id); i >= 0 {
		s.convs = append(s.convs[:i], s.convs[i+1:]...)
	}
	if s.activeID != nil && *s.activeID == id {
		s.activeID = nil
		if len(s.convs) > 0 {
			next := s.convs[0].ID
			s.activeID = &next
		}
	}
	return nil
}

func (s *conversationService) SendMessage(ctx context.Context, id int64, text string) ([]models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.activeID == nil {
		s.mu.Unlock()
		return nil, ErrNoActiveConversation
	}
	if s.indexOf(id) < 0 {
		s.mu.Unlock()
		return nil, ErrConversationNotFound
	}
	g := s.generation
	s.mu.Unlock()

	msgs, err := s.client.SendMessage(ctx, id, text)
	if err != nil {
		s.logger.Error(ctx, "send message failed", "conversation_id", id, "error", err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if g != s.generation {
		return msgs, nil
	}
	if i := s.indexOf(id); i >= 0 {
		s.convs[i].Messages = append(s.convs[i].Messages, msgs...)
	}
	return msgs, nil
}

func (s *conversationService) Conversations() []models.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Conversation, len(s.convs))
	for i, c := range s.convs {
		out[i] = c.Clone()
	}
	return out
}

func (s *conversationService) Active() (models.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeID == nil {
		return models.Conversation{}, false
	}
	i := s.indexOf(*s.activeID)
	if i < 0 {
		return models.Conversation{}, false
	}
	return s.convs[i].Clone(), true
}

func (s *conversationService) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case len(s.convs) == 0:
		return NoConversations
	case s.activeID == nil:
		return NoneActive
	default:
		return OneActive
	}
}

// Reset drops all cached state, e.g. when the session ends.
func (s *conversationService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.convs = nil
	s.activeID = nil
	s.generation++
}

func (s *conversationService) lookup(id int64) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation, s.indexOf(id) >= 0
}

// indexOf must be called with mu held.
func (s *conversationService) indexOf(id int64) int {
	for i := range s.convs {
		if s.convs[i].ID == id {
			return i
		}
	}
	return -1
}
