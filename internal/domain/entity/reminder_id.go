package entity

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	appErrors "mealreminder/internal/pkg/errors"
)

// IDScope tells which identity space a ReminderID belongs to.
type IDScope int

const (
	// ScopeLocal ids are minted on the client for reminders that were never committed.
	ScopeLocal IDScope = iota + 1
	// ScopeRemote ids are assigned by the reminder store on commit.
	ScopeRemote
)

func (s IDScope) String() string {
	switch s {
	case ScopeLocal:
		return "local"
	case ScopeRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// ReminderID identifies a reminder within one identity space. A local id is
// never equal to a remote id, even with the same token.
type ReminderID struct {
	Scope IDScope
	Token string
}

// NewLocalID mints a fresh client-side id.
func NewLocalID() ReminderID {
	return ReminderID{Scope: ScopeLocal, Token: uuid.Must(uuid.NewV7()).String()}
}

// NewRemoteID wraps a store-assigned document id.
func NewRemoteID(token string) ReminderID {
	return ReminderID{Scope: ScopeRemote, Token: token}
}

func (id ReminderID) IsLocal() bool  { return id.Scope == ScopeLocal }
func (id ReminderID) IsRemote() bool { return id.Scope == ScopeRemote }
func (id ReminderID) IsZero() bool   { return id.Scope == 0 && id.Token == "" }

func (id ReminderID) Equal(o ReminderID) bool {
	return id.Scope == o.Scope && id.Token == o.Token
}

// String renders "local:<token>" or "remote:<token>".
func (id ReminderID) String() string {
	return id.Scope.String() + ":" + id.Token
}

// ParseReminderID is the inverse of String.
func ParseReminderID(s string) (ReminderID, error) {
	scope, token, ok := strings.Cut(s, ":")
	if !ok || token == "" {
		return ReminderID{}, fmt.Errorf("%w: reminder id %q must be scope:token", appErrors.ErrValidation, s)
	}
	switch scope {
	case "local":
		return ReminderID{Scope: ScopeLocal, Token: token}, nil
	case "remote":
		return NewRemoteID(token), nil
	default:
		return ReminderID{}, fmt.Errorf("%w: unknown id scope %q", appErrors.ErrValidation, scope)
	}
}

func (id ReminderID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ReminderID) UnmarshalText(b []byte) error {
	parsed, err := ParseReminderID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
