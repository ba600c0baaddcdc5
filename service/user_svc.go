package service

import (
	"context"

	"github.com/parleyhq/parley/errs"
	"github.com/parleyhq/parley/id"
	"github.com/parleyhq/parley/pubsub"
	"github.com/parleyhq/parley/types"
)

// Login is create-or-login by username. There is no credential: the
// username is the whole identity, per the product's trust model.
func (svc *Service) Login(ctx context.Context, in types.LoginUser) (types.User, error) {
	var out types.User

	if err := in.Validate(); err != nil {
		return out, err
	}

	return svc.Postgres.UpsertUser(ctx, in)
}

func (svc *Service) SearchUsers(ctx context.Context, in types.SearchUsers) ([]types.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	return svc.Postgres.SearchUsers(ctx, in)
}

// UserEvents streams everything addressed to the user's private topic
// until ctx is done.
func (svc *Service) UserEvents(ctx context.Context, userID string) (<-chan types.Event, error) {
	if !id.Valid(userID) {
		return nil, errs.NewInvalidArgumentError("UserID", "User ID is invalid")
	}

	return svc.eventStream(pubsub.UserTopic(userID), ctx.Done())
}
