package booking

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/venue-table-reservation/internal/model"
)

// Store is the narrow persistence contract the state machine, conflict
// resolver and check-in verifier depend on.  The production
// implementation lives in internal/repository; tests supply in-memory
// fakes.  Implementations return the sentinel errors below so callers
// can distinguish failure modes with errors.Is.
type Store interface {
	// Get loads a booking by ID.  Returns ErrNotFound when absent.
	Get(ctx context.Context, id uint64) (*model.Booking, error)

	// GetByRefAndDate resolves a booking by its human-readable reference
	// and calendar date.  Used by the legacy credential path.  Returns
	// ErrNotFound when no exact match exists.
	GetByRefAndDate(ctx context.Context, ref string, date time.Time) (*model.Booking, error)

	// ListByDateAndStatus returns all bookings on the given date whose
	// status is in the provided set, with their table IDs populated.
	ListByDateAndStatus(ctx context.Context, date time.Time, statuses []string) ([]model.Booking, error)

	// UpdateConditional persists the booking only if the stored row's
	// updated_at still equals prevUpdatedAt (optimistic concurrency).
	// On success the booking's UpdatedAt is refreshed.  Returns ErrStale
	// when another writer got there first and ErrNotFound when the row
	// is gone.
	UpdateConditional(ctx context.Context, b *model.Booking, prevUpdatedAt time.Time) error

	// CommitCheckIn marks the booking arrived with the given timestamp,
	// but only if it is still confirmed with no check-in recorded — a
	// compare-and-swap write so concurrent scans resolve to exactly one
	// winner.  Returns ErrCheckInRace when the predicate no longer
	// holds and ErrNotFound when the row is absent.
	CommitCheckIn(ctx context.Context, id uint64, at time.Time) error
}

// TableStore resolves table reference data for enrichment.  Tables are
// read-only to this service.
type TableStore interface {
	GetByIDs(ctx context.Context, ids []uint64) ([]model.Table, error)
}

// Sentinel errors returned by Store implementations.
var (
	// ErrNotFound indicates the requested booking does not exist.
	ErrNotFound = errors.New("booking not found")

	// ErrStale indicates a conditional update lost against a concurrent
	// writer; the caller saw an outdated version of the record.
	ErrStale = errors.New("booking modified concurrently")

	// ErrCheckInRace indicates a check-in commit found the booking no
	// longer confirmed-and-unchecked at write time.
	ErrCheckInRace = errors.New("booking already checked in or not confirmed")
)
