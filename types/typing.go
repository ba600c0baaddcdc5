package types

import (
	"strings"

	"github.com/parleyhq/parley/id"
	"github.com/parleyhq/parley/validator"
)

// BroadcastTyping is transient: it touches no store, it is only relayed to
// the channel's typing topic. Exactly one of ConversationID and RoomCode
// must be set.
type BroadcastTyping struct {
	ConversationID string `json:"conversationID,omitempty"`
	RoomCode       string `json:"roomCode,omitempty"`
	UserID         string `json:"userID,omitempty"`
	Username       string `json:"username"`
	Typing         bool   `json:"typing"`
}

func (in *BroadcastTyping) Validate() error {
	v := validator.New()

	in.RoomCode = strings.TrimSpace(in.RoomCode)
	in.Username = strings.TrimSpace(in.Username)

	if in.ConversationID == "" && in.RoomCode == "" {
		v.AddError("ConversationID", "Conversation ID or room code is required")
	}
	if in.ConversationID != "" && in.RoomCode != "" {
		v.AddError("ConversationID", "Conversation ID and room code are mutually exclusive")
	}
	if in.ConversationID != "" && !id.Valid(in.ConversationID) {
		v.AddError("ConversationID", "Conversation ID is invalid")
	}
	if in.ConversationID != "" {
		if in.UserID == "" {
			v.AddError("UserID", "User ID is required")
		} else if !id.Valid(in.UserID) {
			v.AddError("UserID", "User ID is invalid")
		}
	}
	if in.Username == "" {
		v.AddError("Username", "Username is required")
	}

	return v.AsError()
}
