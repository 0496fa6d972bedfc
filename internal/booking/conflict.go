package booking

import (
	"context"
	"time"

	"github.com/iliyamo/venue-table-reservation/internal/model"
)

// Conflict describes a table double-claim: another active booking on
// the same date already holds one or more of the candidate tables.
type Conflict struct {
	BookingRef string   // reference of the booking holding the tables
	TableIDs   []uint64 // the overlapping table IDs
}

// ConflictResolver prevents two active bookings from claiming the same
// physical table on the same date.  The check is advisory-before-write:
// it runs against committed state, and correctness under concurrent
// writers is guaranteed by the conditional write in Store, not here.
type ConflictResolver struct {
	Store Store
}

// NewConflictResolver returns a resolver bound to the given store.
func NewConflictResolver(store Store) *ConflictResolver {
	return &ConflictResolver{Store: store}
}

// activeStatuses are the statuses that actually occupy tables.
// Cancelled and no_show bookings release their claim.
var activeStatuses = []string{model.StatusPending, model.StatusConfirmed, model.StatusArrived}

// Check fetches all active bookings for the date, excluding the booking
// under update, and returns the first non-empty intersection with the
// candidate table set.  A nil Conflict means the tables are free.
func (r *ConflictResolver) Check(ctx context.Context, candidateTableIDs []uint64, date time.Time, excludingBookingID uint64) (*Conflict, error) {
	if len(candidateTableIDs) == 0 {
		return nil, nil
	}
	others, err := r.Store.ListByDateAndStatus(ctx, date, activeStatuses)
	if err != nil {
		return nil, err
	}
	want := make(map[uint64]struct{}, len(candidateTableIDs))
	for _, id := range candidateTableIDs {
		want[id] = struct{}{}
	}
	for _, other := range others {
		if other.ID == excludingBookingID {
			continue
		}
		var overlap []uint64
		for _, id := range other.TableIDs {
			if _, ok := want[id]; ok {
				overlap = append(overlap, id)
			}
		}
		if len(overlap) > 0 {
			return &Conflict{BookingRef: other.BookingRef, TableIDs: overlap}, nil
		}
	}
	return nil, nil
}
