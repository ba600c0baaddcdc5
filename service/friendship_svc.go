package service

import (
	"context"

	"github.com/parleyhq/parley/types"
)

// CreateFriendship records a pending friend request and notifies the
// receiver on their private topic.
func (svc *Service) CreateFriendship(ctx context.Context, in types.CreateFriendship) (types.Friendship, error) {
	var out types.Friendship

	if err := in.Validate(); err != nil {
		return out, err
	}

	out, err := svc.Postgres.CreateFriendship(ctx, in)
	if err != nil {
		return out, err
	}

	friendship := out
	svc.background(func(context.Context) error {
		return svc.fanoutToUsers(types.EventFriendRequest, types.FriendRequestEvent{
			Friendship: friendship,
		}, []string{friendship.ReceiverID})
	})

	return out, nil
}

// RespondFriendship accepts or declines. Acceptance creates the DIRECT
// conversation for the pair and notifies both sides.
func (svc *Service) RespondFriendship(ctx context.Context, in types.RespondFriendship) (types.RespondedFriendship, error) {
	var out types.RespondedFriendship

	if err := in.Validate(); err != nil {
		return out, err
	}

	out, err := svc.Postgres.RespondFriendship(ctx, in)
	if err != nil {
		return out, err
	}

	if out.Friendship.Status == types.FriendshipStatusAccepted {
		responded := out
		svc.background(func(context.Context) error {
			return svc.fanoutToUsers(types.EventFriendAccepted, types.FriendAcceptedEvent{
				Friendship:     responded.Friendship,
				ConversationID: responded.ConversationID,
			}, []string{responded.Friendship.RequesterID, responded.Friendship.ReceiverID})
		})
	}

	return out, nil
}

func (svc *Service) Friends(ctx context.Context, in types.ListFriends) ([]types.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	return svc.Postgres.Friends(ctx, in)
}
