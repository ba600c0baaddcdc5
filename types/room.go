package types

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/parleyhq/parley/validator"
)

// Room is an ephemeral channel gated by a shared code and password.
// Rooms have no participant list; anyone holding code+password is a member.
type Room struct {
	Code      string    `json:"code"`
	Password  string    `json:"-"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

type RoomMessage struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`

	Local bool `json:"local,omitempty"`
}

type JoinRoom struct {
	Code     string
	Password string
	Username string
}

func (in *JoinRoom) Validate() error {
	v := validator.New()

	in.Code = strings.TrimSpace(in.Code)
	in.Username = strings.TrimSpace(in.Username)

	if in.Code == "" {
		v.AddError("Code", "Room code is required")
	}
	if in.Password == "" {
		v.AddError("Password", "Password is required")
	}
	if in.Username == "" {
		v.AddError("Username", "Username is required")
	}

	return v.AsError()
}

type JoinedRoom struct {
	Room    Room `json:"room"`
	Created bool `json:"created"`
}

type CreateRoomMessage struct {
	Code    string
	Sender  string
	Content string
}

func (in *CreateRoomMessage) Validate() error {
	v := validator.New()

	in.Code = strings.TrimSpace(in.Code)
	in.Content = strings.TrimSpace(in.Content)

	if in.Code == "" {
		v.AddError("Code", "Room code is required")
	}
	if in.Sender == "" {
		v.AddError("Sender", "Sender is required")
	}
	if in.Content == "" {
		v.AddError("Content", "Content is required")
	}
	if utf8.RuneCountInString(in.Content) > 1000 {
		v.AddError("Content", "Content must be at most 1000 characters")
	}

	return v.AsError()
}

type ListRoomMessages struct {
	Code string
}

func (in *ListRoomMessages) Validate() error {
	v := validator.New()

	in.Code = strings.TrimSpace(in.Code)

	if in.Code == "" {
		v.AddError("Code", "Room code is required")
	}

	return v.AsError()
}
