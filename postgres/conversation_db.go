package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/nicolasparada/go-db"
	"github.com/parleyhq/parley/errs"
	"github.com/parleyhq/parley/id"
	"github.com/parleyhq/parley/types"
)

// FindOrCreateDirect is idempotent: if a DIRECT conversation already holds
// exactly this pair it is returned unchanged, otherwise one is created
// transactionally. Calling it twice with the same pair, in either order,
// yields the same conversation ID.
func (p *Postgres) FindOrCreateDirect(ctx context.Context, in types.FindOrCreateDirectConversation) (types.Conversation, error) {
	var out types.Conversation
	return out, p.db.RunTx(ctx, func(ctx context.Context) error {
		if err := p.ensureUserExists(ctx, in.UserID); err != nil {
			return err
		}

		if err := p.ensureUserExists(ctx, in.OtherUserID); err != nil {
			return err
		}

		var err error
		out, err = p.findOrCreateDirect(ctx, in.UserID, in.OtherUserID)
		return err
	})
}

// findOrCreateDirect must run inside a transaction.
func (p *Postgres) findOrCreateDirect(ctx context.Context, userID, otherUserID string) (types.Conversation, error) {
	var out types.Conversation

	const q = `
		SELECT conversations.id, conversations.kind, conversations.created_at, conversations.updated_at
		FROM conversations
		INNER JOIN participants AS mine ON mine.conversation_id = conversations.id
		INNER JOIN participants AS theirs ON theirs.conversation_id = conversations.id
		WHERE conversations.kind = @kind
			AND mine.user_id = @user_id
			AND theirs.user_id = @other_user_id
	`

	rows, err := p.db.Query(ctx, q, pgx.StrictNamedArgs{
		"kind":          types.ConversationKindDirect,
		"user_id":       userID,
		"other_user_id": otherUserID,
	})
	if err != nil {
		return out, fmt.Errorf("sql select direct conversation: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.Conversation])
	if err == nil {
		return out, nil
	}

	if !db.IsNotFoundError(err) {
		return out, fmt.Errorf("sql collect direct conversation: %w", err)
	}

	return p.createDirect(ctx, userID, otherUserID)
}

func (p *Postgres) createDirect(ctx context.Context, userID, otherUserID string) (types.Conversation, error) {
	var out types.Conversation

	const q = `
		INSERT INTO conversations (id, kind)
		VALUES (@conversation_id, @kind)
		RETURNING id, kind, created_at, updated_at
	`

	rows, err := p.db.Query(ctx, q, pgx.StrictNamedArgs{
		"conversation_id": id.Generate(),
		"kind":            types.ConversationKindDirect,
	})
	if err != nil {
		return out, fmt.Errorf("sql insert conversation: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.Conversation])
	if err != nil {
		return out, fmt.Errorf("sql collect inserted conversation: %w", err)
	}

	_, err = p.db.Exec(ctx, `
		INSERT INTO participants (user_id, conversation_id)
		VALUES (@user_id, @conversation_id)
			 , (@other_user_id, @conversation_id)
	`, pgx.StrictNamedArgs{
		"user_id":         userID,
		"other_user_id":   otherUserID,
		"conversation_id": out.ID,
	})
	if err != nil {
		return out, fmt.Errorf("sql insert participants: %w", err)
	}

	return out, nil
}

// Conversations lists a user's conversations newest-activity first, each
// with the other participant and a last-message preview.
func (p *Postgres) Conversations(ctx context.Context, in types.ListConversations) ([]types.Conversation, error) {
	const q = `
		SELECT conversations.id
			, conversations.kind
			, conversations.created_at
			, conversations.updated_at
			, json_build_object(
				'id', other_user.id,
				'username', other_user.username,
				'avatar', other_user.avatar,
				'isOnline', other_user.is_online,
				'lastSeen', other_user.last_seen
			) AS other_participant
			, (
				SELECT json_build_object(
					'content', messages.content,
					'sender', sender.username,
					'createdAt', messages.created_at
				)
				FROM messages
				INNER JOIN users AS sender ON sender.id = messages.user_id
				WHERE messages.conversation_id = conversations.id
				ORDER BY messages.created_at DESC, messages.id DESC
				LIMIT 1
			) AS last_message
		FROM conversations
		INNER JOIN participants AS mine ON mine.conversation_id = conversations.id
		INNER JOIN participants AS theirs ON theirs.conversation_id = conversations.id
			AND theirs.user_id <> mine.user_id
		INNER JOIN users AS other_user ON other_user.id = theirs.user_id
		WHERE mine.user_id = @user_id
		ORDER BY conversations.updated_at DESC
	`

	rows, err := p.db.Query(ctx, q, pgx.StrictNamedArgs{
		"user_id": in.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("sql select conversations: %w", err)
	}

	out, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[types.Conversation])
	if err != nil {
		return nil, fmt.Errorf("sql collect conversations: %w", err)
	}

	return out, nil
}

// Participants resolves the audience of a conversation.
func (p *Postgres) Participants(ctx context.Context, conversationID string) ([]string, error) {
	const q = `
		SELECT user_id
		FROM participants
		WHERE conversation_id = @conversation_id
		ORDER BY user_id
	`

	rows, err := p.db.Query(ctx, q, pgx.StrictNamedArgs{
		"conversation_id": conversationID,
	})
	if err != nil {
		return nil, fmt.Errorf("sql select participants: %w", err)
	}

	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("sql collect participants: %w", err)
	}

	if len(out) == 0 {
		exists, err := p.conversationExists(ctx, conversationID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, errs.NewNotFoundError("conversation not found")
		}
	}

	return out, nil
}

func (p *Postgres) conversationExists(ctx context.Context, conversationID string) (bool, error) {
	var exists bool
	err := p.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM conversations WHERE id = $1
		)
	`, conversationID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sql check conversation exists: %w", err)
	}
	return exists, nil
}

func (p *Postgres) isParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	var exists bool
	err := p.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM participants
			WHERE conversation_id = $1 AND user_id = $2
		)
	`, conversationID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sql check participant exists: %w", err)
	}
	return exists, nil
}
