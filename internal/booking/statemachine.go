package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/venue-table-reservation/internal/model"
)

// Patch is a partial update to a booking.  Nil pointers (and a nil
// TableIDs slice) leave the stored value untouched.  Status accepts the
// lifecycle constants in the model package.
type Patch struct {
	CustomerName    *string
	CustomerEmail   *string
	CustomerPhone   *string
	PartySize       *int
	ArrivalTime     *string
	SpecialRequests *json.RawMessage
	PackageCents    *uint32
	TableIDs        []uint64
	Status          *string
}

// StateMachine owns every booking mutation.  It loads the current
// record, applies the pure transition, consults the conflict resolver
// when the table set changes, and persists the result with a
// conditional write keyed on the record's updated_at.  Side-effect
// events are returned to the caller for fire-and-forget dispatch; they
// are never awaited and their failure never rolls back the mutation.
type StateMachine struct {
	Store                Store
	Resolver             *ConflictResolver
	Location             *time.Location
	Now                  func() time.Time
	AllowNoShowReconfirm bool
}

// NewStateMachine constructs a StateMachine with a real clock.
func NewStateMachine(store Store, loc *time.Location, allowNoShowReconfirm bool) *StateMachine {
	return &StateMachine{
		Store:                store,
		Resolver:             NewConflictResolver(store),
		Location:             loc,
		Now:                  time.Now,
		AllowNoShowReconfirm: allowNoShowReconfirm,
	}
}

// Update applies a partial update to the booking with the given ID on
// behalf of the actor.  It returns the updated record, the side-effect
// events to dispatch and the names of the fields that changed.  A
// no-op patch returns the unchanged record with no events and performs
// no write.
func (m *StateMachine) Update(ctx context.Context, actor Actor, id uint64, p Patch) (*model.Booking, Effects, []string, error) {
	if !actor.CanManageBookings() {
		return nil, Effects{}, nil, &AuthorizationError{Msg: "actor may not manage bookings"}
	}
	current, err := m.Store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, Effects{}, nil, &NotFoundError{Msg: fmt.Sprintf("booking %d not found", id)}
		}
		return nil, Effects{}, nil, err
	}

	now := m.Now()
	next, effects, changed, err := Transition(*current, p, now, m.Location, m.AllowNoShowReconfirm)
	if err != nil {
		return nil, Effects{}, nil, err
	}
	if len(changed) == 0 {
		return current, Effects{}, nil, nil
	}

	// The conflict check runs only when the patch actually moves the
	// booking to a different table set; no-op table updates never
	// trigger it.
	if p.TableIDs != nil && !sameTableSet(p.TableIDs, current.TableIDs) {
		conflict, err := m.Resolver.Check(ctx, next.TableIDs, next.BookingDate, current.ID)
		if err != nil {
			return nil, Effects{}, nil, err
		}
		if conflict != nil {
			return nil, Effects{}, nil, &ConflictError{
				Msg:            fmt.Sprintf("tables already claimed by %s", conflict.BookingRef),
				ConflictingRef: conflict.BookingRef,
				TableIDs:       conflict.TableIDs,
			}
		}
	}

	if err := m.Store.UpdateConditional(ctx, &next, current.UpdatedAt); err != nil {
		switch {
		case errors.Is(err, ErrStale):
			return nil, Effects{}, nil, &ConflictError{Msg: "booking was modified concurrently, retry with fresh data"}
		case errors.Is(err, ErrNotFound):
			return nil, Effects{}, nil, &NotFoundError{Msg: fmt.Sprintf("booking %d not found", id)}
		default:
			return nil, Effects{}, nil, err
		}
	}

	if effects.Audit != nil {
		effects.Audit.ActorID = actor.ID
		effects.Audit.ActorRole = actor.Role
	}
	return &next, effects, changed, nil
}

// Transition is the pure core of the state machine: it applies a patch
// to a booking and computes the derived side effects without touching
// storage.  It returns the new record, the events it produced and the
// changed field names.  Every transition rule is encoded here so each
// can be tested in isolation.
func Transition(b model.Booking, p Patch, now time.Time, loc *time.Location, allowNoShowReconfirm bool) (model.Booking, Effects, []string, error) {
	next := b
	next.TableIDs = append([]uint64(nil), b.TableIDs...)
	var changed []string

	if p.CustomerName != nil && *p.CustomerName != b.CustomerName {
		if strings.TrimSpace(*p.CustomerName) == "" {
			return b, Effects{}, nil, &ValidationError{Field: "customer_name", Msg: "must not be empty"}
		}
		next.CustomerName = *p.CustomerName
		changed = append(changed, "customer_name")
	}
	if p.CustomerEmail != nil && *p.CustomerEmail != b.CustomerEmail {
		next.CustomerEmail = *p.CustomerEmail
		changed = append(changed, "customer_email")
	}
	if p.CustomerPhone != nil && *p.CustomerPhone != b.CustomerPhone {
		next.CustomerPhone = *p.CustomerPhone
		changed = append(changed, "customer_phone")
	}
	if p.PartySize != nil && *p.PartySize != b.PartySize {
		if *p.PartySize < 1 || *p.PartySize > 20 {
			return b, Effects{}, nil, &ValidationError{Field: "party_size", Msg: "must be between 1 and 20"}
		}
		next.PartySize = *p.PartySize
		changed = append(changed, "party_size")
	}
	if p.ArrivalTime != nil && *p.ArrivalTime != b.ArrivalTime {
		if _, err := time.Parse("15:04", *p.ArrivalTime); err != nil {
			return b, Effects{}, nil, &ValidationError{Field: "arrival_time", Msg: "must be HH:MM"}
		}
		next.ArrivalTime = *p.ArrivalTime
		changed = append(changed, "arrival_time")
	}
	if p.SpecialRequests != nil && !bytes.Equal(*p.SpecialRequests, b.SpecialRequests) {
		next.SpecialRequests = *p.SpecialRequests
		changed = append(changed, "special_requests")
	}
	if p.PackageCents != nil && (b.PackageCents == nil || *p.PackageCents != *b.PackageCents) {
		v := *p.PackageCents
		next.PackageCents = &v
		changed = append(changed, "package_cents")
	}
	if p.TableIDs != nil && !sameTableSet(p.TableIDs, b.TableIDs) {
		if len(p.TableIDs) == 0 {
			return b, Effects{}, nil, &ValidationError{Field: "table_ids", Msg: "must not be empty"}
		}
		if len(p.TableIDs) > 16 {
			return b, Effects{}, nil, &ValidationError{Field: "table_ids", Msg: "must not exceed 16 tables"}
		}
		next.TableIDs = dedupeTables(p.TableIDs)
		changed = append(changed, "table_ids")
	}

	var notification *NotificationEvent
	if p.Status != nil && *p.Status != b.Status {
		target := *p.Status
		switch target {
		case model.StatusPending:
			next.Status = target
		case model.StatusConfirmed:
			if b.Status == model.StatusNoShow && !allowNoShowReconfirm {
				return b, Effects{}, nil, &StateError{Status: b.Status, Msg: "no_show bookings cannot be re-confirmed"}
			}
			next.Status = target
			// Re-confirmation resets cancellation state: no cancellation
			// is currently in effect.
			if next.CancelledAt != nil {
				next.CancelledAt = nil
				changed = append(changed, "cancelled_at")
			}
			if !next.RefundEligible {
				changed = append(changed, "refund_eligible")
			}
			next.RefundEligible = true
			notification = &NotificationEvent{
				Type:           NotifyBookingConfirmed,
				RecipientEmail: next.CustomerEmail,
				TemplateData:   notificationData(next),
			}
		case model.StatusCancelled:
			next.Status = target
			t := now
			next.CancelledAt = &t
			changed = append(changed, "cancelled_at")
			// Refund eligibility hinges on notice before the venue-local
			// arrival instant; exactly 48 hours is still eligible.
			next.RefundEligible = ArrivalDateTime(next, loc).Sub(now) >= RefundCutoff
			changed = append(changed, "refund_eligible")
			notification = &NotificationEvent{
				Type:           NotifyBookingCancelled,
				RecipientEmail: next.CustomerEmail,
				TemplateData:   notificationData(next),
			}
		case model.StatusArrived:
			next.Status = target
			if b.CheckedInAt == nil {
				t := now
				next.CheckedInAt = &t
				changed = append(changed, "checked_in_at")
			}
		case model.StatusNoShow:
			next.Status = target
		default:
			return b, Effects{}, nil, &ValidationError{Field: "status", Msg: fmt.Sprintf("unknown status %q", target)}
		}
		// checked_in_at is set iff the booking is arrived; leaving that
		// state (e.g. undoing an accidental check-in) clears the mark.
		if target != model.StatusArrived && next.CheckedInAt != nil {
			next.CheckedInAt = nil
			changed = append(changed, "checked_in_at")
		}
		changed = append(changed, "status")
	}

	if len(changed) == 0 {
		return b, Effects{}, nil, nil
	}
	next.UpdatedAt = now

	effects := Effects{
		Audit: &AuditEvent{
			BookingID:     b.ID,
			BookingRef:    b.BookingRef,
			OldValues:     snapshot(b),
			NewValues:     snapshot(next),
			ChangedFields: changed,
			Timestamp:     now,
		},
		Notification: notification,
	}
	return next, effects, changed, nil
}

func notificationData(b model.Booking) map[string]string {
	return map[string]string{
		"booking_ref":  b.BookingRef,
		"guest_name":   b.CustomerName,
		"date":         b.DateString(),
		"arrival_time": b.ArrivalTime,
		"party_size":   fmt.Sprintf("%d", b.PartySize),
	}
}

// sameTableSet compares two table ID slices as sets.
func sameTableSet(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[uint64]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

func dedupeTables(ids []uint64) []uint64 {
	out := make([]uint64, 0, len(ids))
	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
