// Package pubsub is the transport contract for realtime event fanout.
// Topic naming is part of the contract: one private topic per user,
// one typing topic per conversation, one broadcast topic per room code.
package pubsub

import "strings"

type Handler func(data []byte)

type Unsubscribe func() error

type PubSub interface {
	Pub(topic string, data []byte) error
	Sub(topic string, fn Handler) (Unsubscribe, error)
}

// Status reports the health of the underlying connection.
type Status string

const (
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
	StatusClosed       Status = "closed"
)

// Lifecycle is implemented by transports that can report connection loss
// and recovery. The in-process implementation is always connected but
// still satisfies it so sessions can be driven uniformly.
type Lifecycle interface {
	OnStatusChange(fn func(Status)) Unsubscribe
}

func UserTopic(userID string) string {
	return "user." + sanitize(userID)
}

func ConversationTopic(conversationID string) string {
	return "conversation." + sanitize(conversationID)
}

func RoomTopic(code string) string {
	return "room." + sanitize(code)
}

// sanitize keeps topics valid NATS subjects. Entity IDs are xids and
// already safe; room codes are human-chosen and may not be.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '~'
		}
	}, s)
}
