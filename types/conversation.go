package types

import (
	"time"

	"github.com/parleyhq/parley/id"
	"github.com/parleyhq/parley/validator"
)

type Conversation struct {
	ID        string           `json:"id" db:"id"`
	Kind      ConversationKind `json:"kind" db:"kind"`
	CreatedAt time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time        `json:"updatedAt" db:"updated_at"`

	OtherParticipant *User           `json:"participant,omitempty" db:"other_participant,omitempty"`
	LastMessage      *MessagePreview `json:"lastMessage,omitempty" db:"last_message,omitempty"`
}

type ConversationKind string

const (
	ConversationKindDirect ConversationKind = "DIRECT"
	// ConversationKindGroup is reserved. Nothing creates group conversations yet.
	ConversationKindGroup ConversationKind = "GROUP"
)

type MessagePreview struct {
	Content   string    `json:"content"`
	Sender    string    `json:"sender"`
	CreatedAt time.Time `json:"createdAt"`
}

type FindOrCreateDirectConversation struct {
	UserID      string
	OtherUserID string
}

func (in *FindOrCreateDirectConversation) Validate() error {
	v := validator.New()

	if in.UserID == "" {
		v.AddError("UserID", "User ID is required")
	}
	if in.UserID != "" && !id.Valid(in.UserID) {
		v.AddError("UserID", "User ID is invalid")
	}
	if in.OtherUserID == "" {
		v.AddError("OtherUserID", "Other user ID is required")
	}
	if in.OtherUserID != "" && !id.Valid(in.OtherUserID) {
		v.AddError("OtherUserID", "Other user ID is invalid")
	}
	if in.UserID != "" && in.UserID == in.OtherUserID {
		v.AddError("OtherUserID", "Cannot start a conversation with yourself")
	}

	return v.AsError()
}

type ListConversations struct {
	UserID string
}

func (in *ListConversations) Validate() error {
	v := validator.New()

	if in.UserID == "" {
		v.AddError("UserID", "User ID is required")
	}
	if in.UserID != "" && !id.Valid(in.UserID) {
		v.AddError("UserID", "User ID is invalid")
	}

	return v.AsError()
}
