package domain

import (
	"context"
	"time"
)

// Message is one turn of a saved conversation.
type Message struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Conversation is a chat history saved by a user.
type Conversation struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Name      string    `json:"name"`
	Contents  []Message `json:"contents"`
	CreatedAt time.Time `json:"createdAt"`
}

// ConversationRepository is the persistence port for conversations.
// GetByID returns (nil, nil) when the conversation does not exist.
type ConversationRepository interface {
	Create(ctx context.Context, c *Conversation) error
	ListByUser(ctx context.Context, userID int64) ([]Conversation, error)
	GetByID(ctx context.Context, id int64) (*Conversation, error)
	// Delete reports whether a conversation was removed.
	Delete(ctx context.Context, id int64) (bool, error)
}
