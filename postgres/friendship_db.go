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

const friendshipColumns = `
	friendships.id
	, friendships.requester_id
	, friendships.receiver_id
	, friendships.status
	, friendships.created_at
	, friendships.updated_at
	, json_build_object(
		'id', requester.id,
		'username', requester.username,
		'avatar', requester.avatar,
		'isOnline', requester.is_online,
		'lastSeen', requester.last_seen
	) AS requester
	, json_build_object(
		'id', receiver.id,
		'username', receiver.username,
		'avatar', receiver.avatar,
		'isOnline', receiver.is_online,
		'lastSeen', receiver.last_seen
	) AS receiver
`

const friendshipJoins = `
	INNER JOIN users AS requester ON requester.id = friendships.requester_id
	INNER JOIN users AS receiver ON receiver.id = friendships.receiver_id
`

// CreateFriendship inserts a PENDING request. At most one friendship may
// exist per unordered pair regardless of who asked first.
func (p *Postgres) CreateFriendship(ctx context.Context, in types.CreateFriendship) (types.Friendship, error) {
	var out types.Friendship
	return out, p.db.RunTx(ctx, func(ctx context.Context) error {
		if err := p.ensureUserExists(ctx, in.RequesterID); err != nil {
			return err
		}

		if err := p.ensureUserExists(ctx, in.ReceiverID); err != nil {
			return err
		}

		exists, err := p.friendshipExists(ctx, in.RequesterID, in.ReceiverID)
		if err != nil {
			return err
		}

		if exists {
			return errs.NewAlreadyExistsError("ReceiverID", "friendship request already exists")
		}

		const q = `
			INSERT INTO friendships (id, requester_id, receiver_id, status)
			VALUES (@friendship_id, @requester_id, @receiver_id, @status)
			RETURNING id
		`

		var friendshipID string
		err = p.db.QueryRow(ctx, q, pgx.StrictNamedArgs{
			"friendship_id": id.Generate(),
			"requester_id":  in.RequesterID,
			"receiver_id":   in.ReceiverID,
			"status":        types.FriendshipStatusPending,
		}).Scan(&friendshipID)
		if err != nil {
			return fmt.Errorf("sql insert friendship: %w", err)
		}

		out, err = p.friendship(ctx, friendshipID)
		return err
	})
}

// RespondFriendship resolves a pending request. Only the receiver may
// respond; accepting creates (or finds) the DIRECT conversation for the
// pair in the same transaction.
func (p *Postgres) RespondFriendship(ctx context.Context, in types.RespondFriendship) (types.RespondedFriendship, error) {
	var out types.RespondedFriendship
	return out, p.db.RunTx(ctx, func(ctx context.Context) error {
		const q = `
			SELECT requester_id, receiver_id, status
			FROM friendships
			WHERE id = @friendship_id
			FOR UPDATE
		`

		var requesterID, receiverID string
		var status types.FriendshipStatus
		err := p.db.QueryRow(ctx, q, pgx.StrictNamedArgs{
			"friendship_id": in.FriendshipID,
		}).Scan(&requesterID, &receiverID, &status)
		if db.IsNotFoundError(err) {
			return errs.NewNotFoundError("friendship not found")
		}

		if err != nil {
			return fmt.Errorf("sql select friendship for update: %w", err)
		}

		if in.UserID != receiverID {
			return errs.NewPermissionDeniedError("only the receiver can respond to a friend request")
		}

		if status != types.FriendshipStatusPending {
			return errs.NewAlreadyExistsError("FriendshipID", "friend request already responded to")
		}

		newStatus := types.FriendshipStatusDeclined
		if in.Action == types.FriendshipActionAccept {
			newStatus = types.FriendshipStatusAccepted
		}

		_, err = p.db.Exec(ctx, `
			UPDATE friendships
			SET status = @status, updated_at = now()
			WHERE id = @friendship_id
		`, pgx.StrictNamedArgs{
			"status":        newStatus,
			"friendship_id": in.FriendshipID,
		})
		if err != nil {
			return fmt.Errorf("sql update friendship status: %w", err)
		}

		if in.Action == types.FriendshipActionAccept {
			conversation, err := p.findOrCreateDirect(ctx, requesterID, receiverID)
			if err != nil {
				return err
			}
			out.ConversationID = conversation.ID
		}

		out.Friendship, err = p.friendship(ctx, in.FriendshipID)
		return err
	})
}

// Friends lists the accepted friends of a user, whichever side of the
// friendship they are on.
func (p *Postgres) Friends(ctx context.Context, in types.ListFriends) ([]types.User, error) {
	const q = `
		SELECT ` + `users.id, users.username, users.avatar, users.is_online, users.last_seen
		FROM friendships
		INNER JOIN users ON users.id = CASE
			WHEN friendships.requester_id = @user_id THEN friendships.receiver_id
			ELSE friendships.requester_id
		END
		WHERE friendships.status = @status
			AND @user_id IN (friendships.requester_id, friendships.receiver_id)
		ORDER BY users.username
	`

	rows, err := p.db.Query(ctx, q, pgx.StrictNamedArgs{
		"user_id": in.UserID,
		"status":  types.FriendshipStatusAccepted,
	})
	if err != nil {
		return nil, fmt.Errorf("sql select friends: %w", err)
	}

	out, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[types.User])
	if err != nil {
		return nil, fmt.Errorf("sql collect friends: %w", err)
	}

	return out, nil
}

func (p *Postgres) friendship(ctx context.Context, friendshipID string) (types.Friendship, error) {
	var out types.Friendship

	q := `
		SELECT ` + friendshipColumns + `
		FROM friendships ` + friendshipJoins + `
		WHERE friendships.id = @friendship_id
	`

	rows, err := p.db.Query(ctx, q, pgx.StrictNamedArgs{
		"friendship_id": friendshipID,
	})
	if err != nil {
		return out, fmt.Errorf("sql select friendship: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.Friendship])
	if db.IsNotFoundError(err) {
		return out, errs.NewNotFoundError("friendship not found")
	}

	if err != nil {
		return out, fmt.Errorf("sql collect friendship: %w", err)
	}

	return out, nil
}

func (p *Postgres) friendshipExists(ctx context.Context, userID, otherUserID string) (bool, error) {
	var exists bool
	err := p.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM friendships
			WHERE (requester_id = $1 AND receiver_id = $2)
				OR (requester_id = $2 AND receiver_id = $1)
		)
	`, userID, otherUserID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sql check friendship exists: %w", err)
	}
	return exists, nil
}
