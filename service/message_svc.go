package service

import (
	"context"

	"github.com/parleyhq/parley/textutil"
	"github.com/parleyhq/parley/types"
)

// CreateMessage persists the message, then fans it out in the background
// to every participant's private topic, the sender included. The sender's
// client treats the echo as its delivery confirmation.
func (svc *Service) CreateMessage(ctx context.Context, in types.CreateMessage) (types.Message, error) {
	var out types.Message

	in.Content = textutil.NormalizeMessage(in.Content)

	if err := in.Validate(); err != nil {
		return out, err
	}

	out, err := svc.Postgres.CreateMessage(ctx, in)
	if err != nil {
		return out, err
	}

	msg := out
	svc.background(func(ctx context.Context) error {
		audience, err := svc.Postgres.Participants(ctx, msg.ConversationID)
		if err != nil {
			return err
		}

		return svc.fanoutToUsers(types.EventNewMessage, types.NewMessageEvent{
			ConversationID: msg.ConversationID,
			Message:        msg,
		}, audience)
	})

	return out, nil
}

func (svc *Service) Messages(ctx context.Context, in types.ListMessages) ([]types.Message, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	return svc.Postgres.Messages(ctx, in)
}
