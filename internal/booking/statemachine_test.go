package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/venue-table-reservation/internal/model"
)

// fakeStore is an in-memory Store for exercising the state machine and
// resolver without a database.
type fakeStore struct {
	bookings  map[uint64]*model.Booking
	updateErr error
	updates   int
}

func newFakeStore(bs ...*model.Booking) *fakeStore {
	s := &fakeStore{bookings: make(map[uint64]*model.Booking)}
	for _, b := range bs {
		cp := *b
		s.bookings[b.ID] = &cp
	}
	return s
}

func (s *fakeStore) Get(_ context.Context, id uint64) (*model.Booking, error) {
	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *fakeStore) GetByRefAndDate(_ context.Context, ref string, date time.Time) (*model.Booking, error) {
	for _, b := range s.bookings {
		if b.BookingRef == ref && b.DateString() == date.UTC().Format("2006-01-02") {
			cp := *b
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *fakeStore) ListByDateAndStatus(_ context.Context, date time.Time, statuses []string) ([]model.Booking, error) {
	want := date.UTC().Format("2006-01-02")
	var out []model.Booking
	for _, b := range s.bookings {
		if b.DateString() != want {
			continue
		}
		for _, st := range statuses {
			if b.Status == st {
				out = append(out, *b)
				break
			}
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateConditional(_ context.Context, b *model.Booking, prevUpdatedAt time.Time) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	cur, ok := s.bookings[b.ID]
	if !ok {
		return ErrNotFound
	}
	if !cur.UpdatedAt.Equal(prevUpdatedAt) {
		return ErrStale
	}
	cp := *b
	s.bookings[b.ID] = &cp
	s.updates++
	return nil
}

func (s *fakeStore) CommitCheckIn(_ context.Context, id uint64, at time.Time) error {
	b, ok := s.bookings[id]
	if !ok {
		return ErrNotFound
	}
	if b.Status != model.StatusConfirmed || b.CheckedInAt != nil {
		return ErrCheckInRace
	}
	b.Status = model.StatusArrived
	t := at
	b.CheckedInAt = &t
	return nil
}

var london = mustLoc("Europe/London")

func mustLoc(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func str(s string) *string   { return &s }
func num(n int) *int         { return &n }
func cents(n uint32) *uint32 { return &n }

// testBooking is confirmed for 2025-06-14 19:30 at tables 3 and 4.
func testBooking() *model.Booking {
	return &model.Booking{
		ID:            7,
		BookingRef:    "BRL-2025-00042",
		CustomerName:  "Dana Hart",
		CustomerEmail: "dana@example.com",
		CustomerPhone: "+44 7700 900123",
		PartySize:     4,
		BookingDate:   time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC),
		ArrivalTime:   "19:30",
		TableIDs:      []uint64{3, 4},
		Status:        model.StatusConfirmed,
		DepositCents:  5000,
		BalanceCents:  15000,
		CreatedAt:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newTestMachine(store *fakeStore, now time.Time) *StateMachine {
	m := NewStateMachine(store, london, false)
	m.Now = func() time.Time { return now }
	return m
}

var admin = Actor{ID: 1, Role: model.RoleAdmin}

func TestUpdateRefundEligibility(t *testing.T) {
	arrival := time.Date(2025, 6, 14, 19, 30, 0, 0, london)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"fifty hours notice", arrival.Add(-50 * time.Hour), true},
		{"exactly the cutoff", arrival.Add(-48 * time.Hour), true},
		{"just inside the cutoff", arrival.Add(-48*time.Hour + time.Minute), false},
		{"ten hours notice", arrival.Add(-10 * time.Hour), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeStore(testBooking())
			m := newTestMachine(store, tc.now)

			got, _, _, err := m.Update(context.Background(), admin, 7, Patch{Status: str(model.StatusCancelled)})
			if err != nil {
				t.Fatalf("Update: %v", err)
			}
			if got.Status != model.StatusCancelled {
				t.Fatalf("status = %q, want cancelled", got.Status)
			}
			if got.RefundEligible != tc.want {
				t.Errorf("RefundEligible = %v, want %v", got.RefundEligible, tc.want)
			}
			if got.CancelledAt == nil || !got.CancelledAt.Equal(tc.now) {
				t.Errorf("CancelledAt = %v, want %v", got.CancelledAt, tc.now)
			}
		})
	}
}

func TestUpdateReconfirmationResetsCancellation(t *testing.T) {
	b := testBooking()
	b.Status = model.StatusCancelled
	cancelled := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	b.CancelledAt = &cancelled
	b.RefundEligible = false

	store := newFakeStore(b)
	m := newTestMachine(store, time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC))

	got, effects, changed, err := m.Update(context.Background(), admin, 7, Patch{Status: str(model.StatusConfirmed)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Status != model.StatusConfirmed {
		t.Fatalf("status = %q, want confirmed", got.Status)
	}
	if got.CancelledAt != nil {
		t.Errorf("CancelledAt = %v, want nil after re-confirmation", got.CancelledAt)
	}
	if !got.RefundEligible {
		t.Error("RefundEligible = false, want reset to true")
	}
	if effects.Notification == nil || effects.Notification.Type != NotifyBookingConfirmed {
		t.Errorf("notification = %+v, want booking_confirmed", effects.Notification)
	}
	if !contains(changed, "cancelled_at") || !contains(changed, "status") {
		t.Errorf("changed = %v, want cancelled_at and status", changed)
	}
}

func TestUpdateNoShowReconfirmPolicy(t *testing.T) {
	b := testBooking()
	b.Status = model.StatusNoShow
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

	t.Run("rejected by default", func(t *testing.T) {
		store := newFakeStore(b)
		m := newTestMachine(store, now)

		_, _, _, err := m.Update(context.Background(), admin, 7, Patch{Status: str(model.StatusConfirmed)})
		var se *StateError
		if !errors.As(err, &se) {
			t.Fatalf("err = %v, want StateError", err)
		}
		if se.Status != model.StatusNoShow {
			t.Errorf("StateError.Status = %q, want no_show", se.Status)
		}
	})

	t.Run("allowed when enabled", func(t *testing.T) {
		store := newFakeStore(b)
		m := newTestMachine(store, now)
		m.AllowNoShowReconfirm = true

		got, _, _, err := m.Update(context.Background(), admin, 7, Patch{Status: str(model.StatusConfirmed)})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if got.Status != model.StatusConfirmed {
			t.Errorf("status = %q, want confirmed", got.Status)
		}
	})
}

func TestUpdateArrivedIsIdempotentOnCheckedInAt(t *testing.T) {
	b := testBooking()
	earlier := time.Date(2025, 6, 14, 19, 35, 0, 0, time.UTC)
	b.CheckedInAt = &earlier

	store := newFakeStore(b)
	m := newTestMachine(store, time.Date(2025, 6, 14, 20, 0, 0, 0, time.UTC))

	got, _, _, err := m.Update(context.Background(), admin, 7, Patch{Status: str(model.StatusArrived)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.CheckedInAt == nil || !got.CheckedInAt.Equal(earlier) {
		t.Errorf("CheckedInAt = %v, want original %v preserved", got.CheckedInAt, earlier)
	}
}

func TestUpdateLeavingArrivedClearsCheckIn(t *testing.T) {
	for _, target := range []string{model.StatusConfirmed, model.StatusCancelled} {
		t.Run(target, func(t *testing.T) {
			b := testBooking()
			b.Status = model.StatusArrived
			at := time.Date(2025, 6, 14, 19, 35, 0, 0, time.UTC)
			b.CheckedInAt = &at

			store := newFakeStore(b)
			m := newTestMachine(store, time.Date(2025, 6, 14, 20, 0, 0, 0, time.UTC))

			got, _, changed, err := m.Update(context.Background(), admin, 7, Patch{Status: str(target)})
			if err != nil {
				t.Fatalf("Update: %v", err)
			}
			if got.Status != target {
				t.Fatalf("status = %q, want %q", got.Status, target)
			}
			if got.CheckedInAt != nil {
				t.Errorf("CheckedInAt = %v, want cleared on leaving arrived", got.CheckedInAt)
			}
			if !contains(changed, "checked_in_at") {
				t.Errorf("changed = %v, want checked_in_at", changed)
			}
		})
	}
}

func TestUpdateValidation(t *testing.T) {
	tests := []struct {
		name  string
		patch Patch
		field string
	}{
		{"empty name", Patch{CustomerName: str("  ")}, "customer_name"},
		{"party size zero", Patch{PartySize: num(0)}, "party_size"},
		{"party size too big", Patch{PartySize: num(21)}, "party_size"},
		{"bad arrival time", Patch{ArrivalTime: str("7pm")}, "arrival_time"},
		{"empty table set", Patch{TableIDs: []uint64{}}, "table_ids"},
		{"unknown status", Patch{Status: str("vanished")}, "status"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeStore(testBooking())
			m := newTestMachine(store, time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC))

			_, _, _, err := m.Update(context.Background(), admin, 7, tc.patch)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if ve.Field != tc.field {
				t.Errorf("field = %q, want %q", ve.Field, tc.field)
			}
			if store.updates != 0 {
				t.Errorf("store saw %d writes, want none", store.updates)
			}
		})
	}
}

func TestUpdateNoopPatchWritesNothing(t *testing.T) {
	store := newFakeStore(testBooking())
	m := newTestMachine(store, time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC))

	got, effects, changed, err := m.Update(context.Background(), admin, 7, Patch{
		PartySize: num(4),
		TableIDs:  []uint64{4, 3}, // same set, different order
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(changed) != 0 {
		t.Errorf("changed = %v, want empty", changed)
	}
	if effects.Audit != nil {
		t.Error("audit event emitted for no-op patch")
	}
	if store.updates != 0 {
		t.Errorf("store saw %d writes, want none", store.updates)
	}
	if got.PartySize != 4 {
		t.Errorf("PartySize = %d, want 4", got.PartySize)
	}
}

func TestUpdateTableConflictRejected(t *testing.T) {
	other := testBooking()
	other.ID = 8
	other.BookingRef = "BRL-2025-00043"
	other.TableIDs = []uint64{9, 10}

	store := newFakeStore(testBooking(), other)
	m := newTestMachine(store, time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC))

	_, _, _, err := m.Update(context.Background(), admin, 7, Patch{TableIDs: []uint64{4, 9}})
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
	if ce.ConflictingRef != "BRL-2025-00043" {
		t.Errorf("ConflictingRef = %q, want BRL-2025-00043", ce.ConflictingRef)
	}
	if len(ce.TableIDs) != 1 || ce.TableIDs[0] != 9 {
		t.Errorf("conflicting tables = %v, want [9]", ce.TableIDs)
	}
}

func TestUpdateStaleWriteIsConflict(t *testing.T) {
	store := newFakeStore(testBooking())
	store.updateErr = ErrStale
	m := newTestMachine(store, time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC))

	_, _, _, err := m.Update(context.Background(), admin, 7, Patch{PartySize: num(6)})
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
	if ce.ConflictingRef != "" {
		t.Errorf("ConflictingRef = %q, want empty for a stale write", ce.ConflictingRef)
	}
}

func TestUpdateAuthorization(t *testing.T) {
	store := newFakeStore(testBooking())
	m := newTestMachine(store, time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC))

	door := Actor{ID: 2, Role: model.RoleDoor}
	_, _, _, err := m.Update(context.Background(), door, 7, Patch{PartySize: num(6)})
	var ae *AuthorizationError
	if !errors.As(err, &ae) {
		t.Fatalf("err = %v, want AuthorizationError", err)
	}
}

func TestUpdateUnknownBooking(t *testing.T) {
	store := newFakeStore()
	m := newTestMachine(store, time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC))

	_, _, _, err := m.Update(context.Background(), admin, 99, Patch{PartySize: num(6)})
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
}

func TestUpdateAuditEvent(t *testing.T) {
	store := newFakeStore(testBooking())
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	m := newTestMachine(store, now)

	_, effects, changed, err := m.Update(context.Background(), admin, 7, Patch{
		PartySize:    num(6),
		PackageCents: cents(3000),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	a := effects.Audit
	if a == nil {
		t.Fatal("no audit event emitted")
	}
	if a.ActorID != admin.ID || a.ActorRole != admin.Role {
		t.Errorf("actor = %d/%s, want %d/%s", a.ActorID, a.ActorRole, admin.ID, admin.Role)
	}
	if a.OldValues.PartySize != 4 || a.NewValues.PartySize != 6 {
		t.Errorf("party size snapshot = %d -> %d, want 4 -> 6", a.OldValues.PartySize, a.NewValues.PartySize)
	}
	if !a.Timestamp.Equal(now) {
		t.Errorf("timestamp = %v, want %v", a.Timestamp, now)
	}
	if !contains(changed, "party_size") || !contains(changed, "package_cents") {
		t.Errorf("changed = %v, want party_size and package_cents", changed)
	}
	if effects.Notification != nil {
		t.Errorf("notification = %+v, want none for a field edit", effects.Notification)
	}
}

func TestTransitionCancelNotification(t *testing.T) {
	b := testBooking()
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

	_, effects, _, err := Transition(*b, Patch{Status: str(model.StatusCancelled)}, now, london, false)
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	n := effects.Notification
	if n == nil || n.Type != NotifyBookingCancelled {
		t.Fatalf("notification = %+v, want booking_cancelled", n)
	}
	if n.RecipientEmail != "dana@example.com" {
		t.Errorf("recipient = %q, want dana@example.com", n.RecipientEmail)
	}
	if n.TemplateData["booking_ref"] != "BRL-2025-00042" {
		t.Errorf("template booking_ref = %q", n.TemplateData["booking_ref"])
	}
}

func contains(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}
