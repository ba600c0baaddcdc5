package types

import (
	"time"

	"github.com/parleyhq/parley/id"
	"github.com/parleyhq/parley/validator"
)

type Friendship struct {
	ID          string           `json:"id" db:"id"`
	RequesterID string           `json:"requesterID" db:"requester_id"`
	ReceiverID  string           `json:"receiverID" db:"receiver_id"`
	Status      FriendshipStatus `json:"status" db:"status"`
	CreatedAt   time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time        `json:"updatedAt" db:"updated_at"`

	Requester *User `json:"requester,omitempty" db:"requester,omitempty"`
	Receiver  *User `json:"receiver,omitempty" db:"receiver,omitempty"`
}

type FriendshipStatus string

const (
	FriendshipStatusPending  FriendshipStatus = "PENDING"
	FriendshipStatusAccepted FriendshipStatus = "ACCEPTED"
	FriendshipStatusDeclined FriendshipStatus = "DECLINED"
)

func (fs FriendshipStatus) String() string {
	return string(fs)
}

type CreateFriendship struct {
	RequesterID string
	ReceiverID  string
}

func (in *CreateFriendship) Validate() error {
	v := validator.New()

	if in.RequesterID == "" {
		v.AddError("RequesterID", "Requester ID is required")
	}
	if in.RequesterID != "" && !id.Valid(in.RequesterID) {
		v.AddError("RequesterID", "Requester ID is invalid")
	}
	if in.ReceiverID == "" {
		v.AddError("ReceiverID", "Receiver ID is required")
	}
	if in.ReceiverID != "" && !id.Valid(in.ReceiverID) {
		v.AddError("ReceiverID", "Receiver ID is invalid")
	}
	if in.RequesterID != "" && in.RequesterID == in.ReceiverID {
		v.AddError("ReceiverID", "Cannot send a friend request to yourself")
	}

	return v.AsError()
}

// RespondedFriendship is the outcome of accepting or declining a request.
// ConversationID is set only on accept, pointing at the DIRECT conversation
// created (or found) for the pair.
type RespondedFriendship struct {
	Friendship     Friendship `json:"friendship"`
	ConversationID string     `json:"conversationID,omitempty"`
}

type FriendshipAction string

const (
	FriendshipActionAccept  FriendshipAction = "accept"
	FriendshipActionDecline FriendshipAction = "decline"
)

type RespondFriendship struct {
	FriendshipID string
	UserID       string
	Action       FriendshipAction
}

func (in *RespondFriendship) Validate() error {
	v := validator.New()

	if in.FriendshipID == "" {
		v.AddError("FriendshipID", "Friendship ID is required")
	}
	if in.FriendshipID != "" && !id.Valid(in.FriendshipID) {
		v.AddError("FriendshipID", "Friendship ID is invalid")
	}
	if in.UserID == "" {
		v.AddError("UserID", "User ID is required")
	}
	if in.Action != FriendshipActionAccept && in.Action != FriendshipActionDecline {
		v.AddError("Action", "Action must be accept or decline")
	}

	return v.AsError()
}

type ListFriends struct {
	UserID string
}

func (in *ListFriends) Validate() error {
	v := validator.New()

	if in.UserID == "" {
		v.AddError("UserID", "User ID is required")
	}
	if in.UserID != "" && !id.Valid(in.UserID) {
		v.AddError("UserID", "User ID is invalid")
	}

	return v.AsError()
}
