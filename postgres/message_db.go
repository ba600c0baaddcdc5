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

const messageColumns = `
	messages.id
	, messages.conversation_id
	, messages.user_id
	, messages.content
	, messages.created_at
	, json_build_object(
		'id', sender.id,
		'username', sender.username,
		'avatar', sender.avatar,
		'isOnline', sender.is_online,
		'lastSeen', sender.last_seen
	) AS sender
`

// CreateMessage persists a message and bumps the conversation's updated_at
// in one transaction. The sender must be a participant. Nothing about
// fanout happens here: the durable write comes first, broadcast after.
func (p *Postgres) CreateMessage(ctx context.Context, in types.CreateMessage) (types.Message, error) {
	var out types.Message
	return out, p.db.RunTx(ctx, func(ctx context.Context) error {
		participant, err := p.isParticipant(ctx, in.ConversationID, in.UserID)
		if err != nil {
			return err
		}

		if !participant {
			exists, err := p.conversationExists(ctx, in.ConversationID)
			if err != nil {
				return err
			}
			if !exists {
				return errs.NewNotFoundError("conversation not found")
			}
			return errs.NewPermissionDeniedError("cannot send a message to a conversation you are not part of")
		}

		const q = `
			INSERT INTO messages (id, conversation_id, user_id, content)
			VALUES (@message_id, @conversation_id, @user_id, @content)
			RETURNING id
		`

		var messageID string
		err = p.db.QueryRow(ctx, q, pgx.StrictNamedArgs{
			"message_id":      id.Generate(),
			"conversation_id": in.ConversationID,
			"user_id":         in.UserID,
			"content":         in.Content,
		}).Scan(&messageID)
		if err != nil {
			return fmt.Errorf("sql insert message: %w", err)
		}

		_, err = p.db.Exec(ctx, `
			UPDATE conversations
			SET updated_at = now()
			WHERE id = @conversation_id
		`, pgx.StrictNamedArgs{
			"conversation_id": in.ConversationID,
		})
		if err != nil {
			return fmt.Errorf("sql touch conversation: %w", err)
		}

		out, err = p.message(ctx, messageID)
		return err
	})
}

// Messages lists a conversation's history in creation order, ties broken
// by ID assignment order.
func (p *Postgres) Messages(ctx context.Context, in types.ListMessages) ([]types.Message, error) {
	exists, err := p.conversationExists(ctx, in.ConversationID)
	if err != nil {
		return nil, err
	}

	if !exists {
		return nil, errs.NewNotFoundError("conversation not found")
	}

	q := `
		SELECT ` + messageColumns + `
		FROM messages
		INNER JOIN users AS sender ON sender.id = messages.user_id
		WHERE messages.conversation_id = @conversation_id
		ORDER BY messages.created_at, messages.id
	`

	rows, err := p.db.Query(ctx, q, pgx.StrictNamedArgs{
		"conversation_id": in.ConversationID,
	})
	if err != nil {
		return nil, fmt.Errorf("sql select messages: %w", err)
	}

	out, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[types.Message])
	if err != nil {
		return nil, fmt.Errorf("sql collect messages: %w", err)
	}

	return out, nil
}

func (p *Postgres) message(ctx context.Context, messageID string) (types.Message, error) {
	var out types.Message

	q := `
		SELECT ` + messageColumns + `
		FROM messages
		INNER JOIN users AS sender ON sender.id = messages.user_id
		WHERE messages.id = @message_id
	`

	rows, err := p.db.Query(ctx, q, pgx.StrictNamedArgs{
		"message_id": messageID,
	})
	if err != nil {
		return out, fmt.Errorf("sql select message: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.Message])
	if db.IsNotFoundError(err) {
		return out, errs.NewNotFoundError("message not found")
	}

	if err != nil {
		return out, fmt.Errorf("sql collect message: %w", err)
	}

	return out, nil
}
