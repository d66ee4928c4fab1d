package models

import "time"

type Conversation struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"-"`
	Messages  []Message `json:"messages"`
}

type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"-"`
	Sender         string    `json:"sender"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
}
