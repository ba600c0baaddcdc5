package types

import (
	"regexp"
	"strings"
	"time"

	"github.com/parleyhq/parley/id"
	"github.com/parleyhq/parley/validator"
)

type User struct {
	ID       string    `json:"id" db:"id"`
	Username string    `json:"username" db:"username"`
	Avatar   *string   `json:"avatar" db:"avatar"`
	IsOnline bool      `json:"isOnline" db:"is_online"`
	LastSeen time.Time `json:"lastSeen" db:"last_seen"`
}

var reUsername = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]{1,17}$`)

func ValidUsername(s string) bool {
	return reUsername.MatchString(s)
}

type LoginUser struct {
	Username string
}

func (in *LoginUser) Validate() error {
	v := validator.New()

	in.Username = strings.TrimSpace(in.Username)

	if in.Username == "" {
		v.AddError("Username", "Username is required")
	}
	if !ValidUsername(in.Username) {
		v.AddError("Username", "Username must start with a letter and be 2 to 18 characters long")
	}

	return v.AsError()
}

type SearchUsers struct {
	Query  string
	UserID string
}

func (in *SearchUsers) Validate() error {
	v := validator.New()

	in.Query = strings.TrimSpace(in.Query)

	if in.Query == "" {
		v.AddError("Query", "Search query is required")
	}
	if in.UserID == "" {
		v.AddError("UserID", "User ID is required")
	}
	if in.UserID != "" && !id.Valid(in.UserID) {
		v.AddError("UserID", "User ID is invalid")
	}

	return v.AsError()
}
