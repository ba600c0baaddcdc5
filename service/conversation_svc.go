package service

import (
	"context"

	"github.com/parleyhq/parley/types"
)

func (svc *Service) FindOrCreateDirectConversation(ctx context.Context, in types.FindOrCreateDirectConversation) (types.Conversation, error) {
	var out types.Conversation

	if err := in.Validate(); err != nil {
		return out, err
	}

	return svc.Postgres.FindOrCreateDirect(ctx, in)
}

func (svc *Service) Conversations(ctx context.Context, in types.ListConversations) ([]types.Conversation, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	return svc.Postgres.Conversations(ctx, in)
}
