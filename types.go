package aura

import (
	"time"

	"github.com/MrEthical07/aura/session"
)

// Identity is the signed-in operator as displayed by the console.
type Identity struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	Institution string `json:"institution"`
}

func identityFromRecord(r *session.Record) Identity {
	return Identity{
		ID:          r.ID,
		Name:        r.Name,
		Email:       r.Email,
		Role:        r.Role,
		Institution: r.Institution,
	}
}

func (i Identity) record() *session.Record {
	return &session.Record{
		ID:          i.ID,
		Name:        i.Name,
		Email:       i.Email,
		Role:        i.Role,
		Institution: i.Institution,
	}
}

func cloneIdentity(i *Identity) *Identity {
	if i == nil {
		return nil
	}
	out := *i
	return &out
}

// State is a point-in-time copy of the Engine's authentication state.
//
// User is nil when nobody is signed in. Loading is true until the first
// Initialize completes.
type State struct {
	User    *Identity `json:"user,omitempty"`
	Loading bool      `json:"loading"`
}

// IsAuthenticated reports whether User is present.
func (s State) IsAuthenticated() bool {
	return s.User != nil
}

// RestoreOutcome classifies what Initialize found in durable storage.
type RestoreOutcome uint8

const (
	// RestoreEmpty means no record was stored.
	RestoreEmpty RestoreOutcome = iota
	// RestoreRestored means a well-formed record was loaded into the Engine.
	RestoreRestored
	// RestoreDiscarded means the stored record was malformed and was dropped.
	RestoreDiscarded
	// RestoreUnavailable means storage could not be read in time.
	RestoreUnavailable
)

func (o RestoreOutcome) String() string {
	switch o {
	case RestoreEmpty:
		return "empty"
	case RestoreRestored:
		return "restored"
	case RestoreDiscarded:
		return "discarded"
	case RestoreUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// RestoreResult describes the boot-time restore. It is diagnostic only; in every
// outcome other than RestoreRestored the Engine starts unauthenticated.
type RestoreResult struct {
	Outcome  RestoreOutcome
	User     *Identity
	Err      error
	Duration time.Duration
}

// LoginResult describes a login attempt. Success is the contract; Err explains a
// failure for logs and diagnostics.
type LoginResult struct {
	Success bool
	User    *Identity
	Err     error
}

// LogoutResult describes a logout. The in-memory identity is always cleared;
// Erased reports whether the persisted record was removed as well.
type LogoutResult struct {
	WasAuthenticated bool
	Erased           bool
	Err              error
}
