package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/nicolasparada/go-db"
	"github.com/parleyhq/parley/errs"
	"github.com/parleyhq/parley/id"
	"github.com/parleyhq/parley/types"
)

var userColumns = [...]string{
	"users.id",
	"users.username",
	"users.avatar",
	"users.is_online",
	"users.last_seen",
}

var userColumnsStr = strings.Join(userColumns[:], ", ")

// UpsertUser is login: create the user on first sight of the username,
// otherwise mark them back online and bump last_seen.
func (p *Postgres) UpsertUser(ctx context.Context, in types.LoginUser) (types.User, error) {
	var out types.User

	query := `
		INSERT INTO users (id, username, is_online, last_seen)
		VALUES (@user_id, @username, TRUE, now())
		ON CONFLICT (username) DO UPDATE
		SET is_online = TRUE, last_seen = now(), updated_at = now()
		RETURNING ` + userColumnsStr + `
	`

	rows, err := p.db.Query(ctx, query, pgx.StrictNamedArgs{
		"user_id":  id.Generate(),
		"username": in.Username,
	})
	if err != nil {
		return out, fmt.Errorf("sql upsert user: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.User])
	if err != nil {
		return out, fmt.Errorf("sql collect upserted user: %w", err)
	}

	return out, nil
}

func (p *Postgres) User(ctx context.Context, userID string) (types.User, error) {
	var out types.User

	query := `
		SELECT ` + userColumnsStr + `
		FROM users
		WHERE users.id = @user_id
	`

	rows, err := p.db.Query(ctx, query, pgx.StrictNamedArgs{
		"user_id": userID,
	})
	if err != nil {
		return out, fmt.Errorf("sql select user: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.User])
	if db.IsNotFoundError(err) {
		return out, errs.NewNotFoundError("user not found")
	}

	if err != nil {
		return out, fmt.Errorf("sql collect user: %w", err)
	}

	return out, nil
}

// SearchUsers matches partial usernames case-insensitively, excluding the
// caller, capped at 10.
func (p *Postgres) SearchUsers(ctx context.Context, in types.SearchUsers) ([]types.User, error) {
	query := `
		SELECT ` + userColumnsStr + `
		FROM users
		WHERE users.username ILIKE '%' || @query || '%'
			AND users.id <> @user_id
		ORDER BY users.username
		LIMIT 10
	`

	rows, err := p.db.Query(ctx, query, pgx.StrictNamedArgs{
		"query":   in.Query,
		"user_id": in.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("sql search users: %w", err)
	}

	out, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[types.User])
	if err != nil {
		return nil, fmt.Errorf("sql collect searched users: %w", err)
	}

	return out, nil
}

func (p *Postgres) userExists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := p.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM users WHERE id = $1
		)
	`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sql check user exists: %w", err)
	}
	return exists, nil
}

func (p *Postgres) ensureUserExists(ctx context.Context, userID string) error {
	exists, err := p.userExists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return errs.NewNotFoundError("user not found")
	}
	return nil
}
