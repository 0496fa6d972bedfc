// Package booking implements the reservation lifecycle for a single
// venue: the status state machine, the table-conflict resolver and the
// side-effect events they emit.  This file defines the typed errors
// surfaced to callers; handlers translate them to HTTP status codes.
package booking

import (
	"fmt"
	"time"
)

// ValidationError reports malformed input or a disallowed target value.
// Field names the offending input when known.  Maps to HTTP 400.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation: %s: %s", e.Field, e.Msg)
	}
	return "validation: " + e.Msg
}

// NotFoundError reports an absent booking or table.  Maps to HTTP 404.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

// ConflictError reports a table double-claim or an already-completed
// check-in.  Exactly one of the two detail groups is populated: the
// conflicting booking's reference and overlapping tables for a table
// clash, or the existing check-in timestamp for a repeat scan.  Maps to
// HTTP 409.
type ConflictError struct {
	Msg            string
	ConflictingRef string     // reference of the booking holding the tables
	TableIDs       []uint64   // overlapping table IDs
	CheckedInAt    *time.Time // existing check-in time for repeat scans
}

func (e *ConflictError) Error() string { return e.Msg }

// AuthorizationError reports an actor lacking the capability an
// operation requires.  Maps to HTTP 403.
type AuthorizationError struct {
	Msg string
}

func (e *AuthorizationError) Error() string { return e.Msg }

// TokenError reports a check-in credential that failed cryptographic or
// claim validation.  Expired distinguishes a token past its validity
// window from one that is malformed or forged, so the door UI can show
// a different message.  Maps to HTTP 400.
type TokenError struct {
	Expired bool
	Msg     string
}

func (e *TokenError) Error() string { return e.Msg }

// StateError reports an action not permitted in the booking's current
// status (e.g. checking in a pending booking).  Maps to HTTP 400.
type StateError struct {
	Status string
	Msg    string
}

func (e *StateError) Error() string { return e.Msg }
