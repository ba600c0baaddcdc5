package service

import (
	"context"

	"github.com/parleyhq/parley/pubsub"
	"github.com/parleyhq/parley/types"
)

// BroadcastTyping relays a typing transition to the channel's topic:
// the conversation's typing topic, or the room's broadcast topic.
// Nothing is persisted; a lost event is simply a lost indicator.
func (svc *Service) BroadcastTyping(ctx context.Context, in types.BroadcastTyping) error {
	if err := in.Validate(); err != nil {
		return err
	}

	topic := pubsub.ConversationTopic(in.ConversationID)
	if in.RoomCode != "" {
		topic = pubsub.RoomTopic(in.RoomCode)
	}

	return svc.broadcast(topic, types.EventTyping, types.TypingEvent{
		UserID:   in.UserID,
		Username: in.Username,
		Typing:   in.Typing,
	})
}
