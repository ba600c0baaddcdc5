package types

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Event is the wire envelope for every realtime publication.
// Data holds the msgpack-encoded payload for Name.
type Event struct {
	Name string `msgpack:"name"`
	Data []byte `msgpack:"data"`
}

const (
	EventNewMessage     = "new-message"
	EventTyping         = "typing"
	EventFriendRequest  = "friend-request"
	EventFriendAccepted = "friend-accepted"
)

func EncodeEvent(name string, payload any) ([]byte, error) {
	data, err := msgpack.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("msgpack encode %s payload: %w", name, err)
	}

	b, err := msgpack.Marshal(Event{Name: name, Data: data})
	if err != nil {
		return nil, fmt.Errorf("msgpack encode %s envelope: %w", name, err)
	}

	return b, nil
}

func DecodeEvent(b []byte) (Event, error) {
	var ev Event
	if err := msgpack.Unmarshal(b, &ev); err != nil {
		return ev, fmt.Errorf("msgpack decode event envelope: %w", err)
	}
	return ev, nil
}

func (ev Event) Payload(v any) error {
	if err := msgpack.Unmarshal(ev.Data, v); err != nil {
		return fmt.Errorf("msgpack decode %s payload: %w", ev.Name, err)
	}
	return nil
}

// NewMessageEvent is delivered on user topics for conversation messages.
type NewMessageEvent struct {
	ConversationID string  `msgpack:"conversationID"`
	Message        Message `msgpack:"message"`
}

// RoomMessageEvent is broadcast on room topics.
type RoomMessageEvent struct {
	Code    string      `msgpack:"code"`
	Message RoomMessage `msgpack:"message"`
}

type TypingEvent struct {
	UserID   string `msgpack:"userID"`
	Username string `msgpack:"username"`
	Typing   bool   `msgpack:"typing"`
}

type FriendRequestEvent struct {
	Friendship Friendship `msgpack:"friendship"`
}

type FriendAcceptedEvent struct {
	Friendship     Friendship `msgpack:"friendship"`
	ConversationID string     `msgpack:"conversationID"`
}
