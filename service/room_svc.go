package service

import (
	"context"

	"github.com/parleyhq/parley/pubsub"
	"github.com/parleyhq/parley/textutil"
	"github.com/parleyhq/parley/types"
)

// JoinOrCreateRoom is the shared-secret gate for ephemeral rooms: a fresh
// code claims the room, an existing code demands the exact password.
func (svc *Service) JoinOrCreateRoom(ctx context.Context, in types.JoinRoom) (types.JoinedRoom, error) {
	var out types.JoinedRoom

	if err := in.Validate(); err != nil {
		return out, err
	}

	return svc.Rooms.JoinOrCreate(in.Code, in.Password, in.Username)
}

// CreateRoomMessage appends to the room's volatile history and broadcasts
// once on the room topic. Every current subscriber receives it, sender
// included.
func (svc *Service) CreateRoomMessage(ctx context.Context, in types.CreateRoomMessage) (types.RoomMessage, error) {
	var out types.RoomMessage

	in.Content = textutil.NormalizeMessage(in.Content)

	if err := in.Validate(); err != nil {
		return out, err
	}

	out, err := svc.Rooms.AddMessage(in.Code, in.Sender, in.Content)
	if err != nil {
		return out, err
	}

	code, msg := in.Code, out
	svc.background(func(context.Context) error {
		return svc.broadcast(pubsub.RoomTopic(code), types.EventNewMessage, types.RoomMessageEvent{
			Code:    code,
			Message: msg,
		})
	})

	return out, nil
}

func (svc *Service) RoomMessages(ctx context.Context, in types.ListRoomMessages) ([]types.RoomMessage, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	return svc.Rooms.Messages(in.Code)
}
