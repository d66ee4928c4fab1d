package models

import (
	"time"

	"github.com/dmitrijs2005/gophchat/internal/common"
)

// Sender tags who authored a message.
type Sender string

const (
	SenderUser Sender = common.SenderUser
	SenderBot  Sender = common.SenderBot
)

// Message is a single entry of a conversation thread. Messages are appended
// in arrival order and never edited.
type Message struct {
	ID        int64     `json:"id"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// Conversation is a named thread owned by one user.
type Conversation struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Messages []Message `json:"messages"`
}

// Clone returns a copy that shares no message storage with c, so callers can
// hand conversations to the view layer without exposing the cache.
func (c Conversation) Clone() Conversation {
	out := c
	if c.Messages != nil {
		out.Messages = make([]Message, len(c.Messages))
		copy(out.Messages, c.Messages)
	}
	return out
}

// LastMessage returns the newest message, if any.
func (c Conversation) LastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}
