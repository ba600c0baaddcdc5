package types

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/parleyhq/parley/id"
	"github.com/parleyhq/parley/validator"
)

type Message struct {
	ID             string    `json:"id" db:"id"`
	ConversationID string    `json:"conversationID" db:"conversation_id"`
	UserID         string    `json:"userID" db:"user_id"`
	Content        string    `json:"content" db:"content"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`

	Sender *User `json:"sender,omitempty" db:"sender,omitempty"`

	// Local marks a client-side placeholder that never reached the server.
	Local bool `json:"local,omitempty" db:"-"`
}

type CreateMessage struct {
	ConversationID string
	UserID         string
	Content        string
}

func (in *CreateMessage) Validate() error {
	v := validator.New()

	in.Content = strings.TrimSpace(in.Content)

	if in.ConversationID == "" {
		v.AddError("ConversationID", "Conversation ID is required")
	}
	if in.ConversationID != "" && !id.Valid(in.ConversationID) {
		v.AddError("ConversationID", "Conversation ID is invalid")
	}
	if in.UserID == "" {
		v.AddError("UserID", "User ID is required")
	}
	if in.UserID != "" && !id.Valid(in.UserID) {
		v.AddError("UserID", "User ID is invalid")
	}
	if in.Content == "" {
		v.AddError("Content", "Content is required")
	}
	if utf8.RuneCountInString(in.Content) > 1000 {
		v.AddError("Content", "Content must be at most 1000 characters")
	}

	return v.AsError()
}

type ListMessages struct {
	ConversationID string
}

func (in *ListMessages) Validate() error {
	v := validator.New()

	if in.ConversationID == "" {
		v.AddError("ConversationID", "Conversation ID is required")
	}
	if in.ConversationID != "" && !id.Valid(in.ConversationID) {
		v.AddError("ConversationID", "Conversation ID is invalid")
	}

	return v.AsError()
}
