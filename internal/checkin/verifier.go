package checkin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/venue-table-reservation/internal/booking"
	"github.com/iliyamo/venue-table-reservation/internal/model"
)

// BookingSummary is the door-facing view of a booking, returned with
// both verification successes and already-checked-in conflicts so the
// UI can always show who the scan belongs to.
type BookingSummary struct {
	BookingID    uint64     `json:"booking_id"`
	BookingRef   string     `json:"booking_ref"`
	GuestName    string     `json:"guest_name"`
	PartySize    int        `json:"party_size"`
	Date         string     `json:"date"`
	ArrivalTime  string     `json:"arrival_time"`
	Status       string     `json:"status"`
	TableNumbers []uint32   `json:"table_numbers"`
	CheckedInAt  *time.Time `json:"checked_in_at,omitempty"`
}

// VerifiedPackage is the result of a successful credential
// verification: the booking summary, its resolved tables and the flags
// the door UI renders.
type VerifiedPackage struct {
	Booking            BookingSummary `json:"booking"`
	Tables             []model.Table  `json:"tables"`
	HasSpecialRequests bool           `json:"has_special_requests"`
	HasDrinksPackage   bool           `json:"has_drinks_package"`
	LegacyFormat       bool           `json:"legacy_format"`
}

// CheckedInError is the conflict returned for a repeat scan: the
// booking was already checked in.  It carries the existing check-in
// timestamp and a summary so the door UI can show "already checked in
// at HH:MM" for the right guest.  Maps to HTTP 409.
type CheckedInError struct {
	CheckedInAt *time.Time
	Booking     BookingSummary
}

func (e *CheckedInError) Error() string { return "booking already checked in" }

// Verifier validates scanned check-in payloads.  Verification never
// mutates state; committing the arrival is the separate CommitArrival
// call, so two concurrent scans of the same booking resolve to exactly
// one winner at the storage layer.
type Verifier struct {
	Store    booking.Store
	Tables   booking.TableStore
	Secret   []byte
	VenueID  string
	Location *time.Location
	Now      func() time.Time
}

// NewVerifier constructs a Verifier with a real clock.
func NewVerifier(store booking.Store, tables booking.TableStore, secret, venueID string, loc *time.Location) *Verifier {
	return &Verifier{
		Store:    store,
		Tables:   tables,
		Secret:   []byte(secret),
		VenueID:  venueID,
		Location: loc,
		Now:      time.Now,
	}
}

// scannedPayload covers both credential formats; which fields are
// populated decides the parsing path.
type scannedPayload struct {
	Token     string `json:"token"`
	BookingID uint64 `json:"booking_id"`
	Ref       string `json:"ref"`
	Name      string `json:"name"`
	Date      string `json:"date"`
}

// Verify parses an arbitrary scanned payload, authenticates it and runs
// the validation pipeline.  The actor must hold the door-staff
// capability.  On success it returns a VerifiedPackage; every failure
// is one of the typed errors in the booking package.
func (v *Verifier) Verify(ctx context.Context, actor booking.Actor, raw []byte) (*VerifiedPackage, error) {
	if !actor.CanCheckIn() {
		return nil, &booking.AuthorizationError{Msg: "actor lacks the door-staff capability"}
	}

	var p scannedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, &booking.ValidationError{Msg: "payload is not valid JSON"}
	}

	var (
		b      *model.Booking
		legacy bool
		err    error
	)
	switch {
	case p.Token != "" && p.BookingID != 0:
		if err := v.verifyToken(p.Token, p.BookingID); err != nil {
			return nil, err
		}
		b, err = v.Store.Get(ctx, p.BookingID)
		if err != nil {
			if errors.Is(err, booking.ErrNotFound) {
				return nil, &booking.NotFoundError{Msg: fmt.Sprintf("booking %d not found", p.BookingID)}
			}
			return nil, err
		}
	case p.Ref != "" && p.Name != "" && p.Date != "":
		legacy = true
		date, perr := time.Parse("2006-01-02", p.Date)
		if perr != nil {
			return nil, &booking.ValidationError{Field: "date", Msg: "must be YYYY-MM-DD"}
		}
		b, err = v.Store.GetByRefAndDate(ctx, p.Ref, date)
		if err != nil {
			if errors.Is(err, booking.ErrNotFound) {
				return nil, &booking.NotFoundError{Msg: fmt.Sprintf("no booking %s on %s", p.Ref, p.Date)}
			}
			return nil, err
		}
		// The legacy format is unsigned, so every carried field must
		// exactly match the stored record.  The signed path skips this:
		// authenticity is already established cryptographically.
		if b.BookingRef != p.Ref {
			return nil, &booking.ValidationError{Field: "ref", Msg: "does not match booking"}
		}
		if !strings.EqualFold(b.CustomerName, p.Name) {
			return nil, &booking.ValidationError{Field: "name", Msg: "does not match booking"}
		}
		if b.DateString() != p.Date {
			return nil, &booking.ValidationError{Field: "date", Msg: "does not match booking"}
		}
	default:
		return nil, &booking.ValidationError{Msg: "unrecognized credential format"}
	}

	today := v.Now().In(v.Location).Format("2006-01-02")
	if b.DateString() != today {
		return nil, &booking.ValidationError{Field: "date", Msg: "booking is not valid for today"}
	}

	tables, err := v.resolveTables(ctx, b.TableIDs)
	if err != nil {
		return nil, err
	}
	summary := summarize(*b, tables)

	// A repeat scan is a 409, not a hard failure: the door UI shows the
	// existing check-in time instead of treating the scan as an error.
	if b.Status == model.StatusArrived || b.CheckedInAt != nil {
		return nil, &CheckedInError{CheckedInAt: b.CheckedInAt, Booking: summary}
	}
	if b.Status != model.StatusConfirmed {
		return nil, &booking.StateError{
			Status: b.Status,
			Msg:    fmt.Sprintf("cannot check in booking with status %s", b.Status),
		}
	}

	return &VerifiedPackage{
		Booking:            summary,
		Tables:             tables,
		HasSpecialRequests: hasSpecialRequests(b.SpecialRequests),
		HasDrinksPackage:   b.PackageCents != nil && *b.PackageCents > 0,
		LegacyFormat:       legacy,
	}, nil
}

// CommitArrival records the booking's arrival.  It succeeds only if the
// record is still confirmed with no check-in at the moment of the
// write; losers of a concurrent race observe the already-checked-in
// conflict carrying the winner's timestamp.
func (v *Verifier) CommitArrival(ctx context.Context, actor booking.Actor, bookingID uint64) (time.Time, error) {
	if !actor.CanCheckIn() {
		return time.Time{}, &booking.AuthorizationError{Msg: "actor lacks the door-staff capability"}
	}
	at := v.Now().UTC()
	err := v.Store.CommitCheckIn(ctx, bookingID, at)
	if err == nil {
		return at, nil
	}
	if errors.Is(err, booking.ErrNotFound) {
		return time.Time{}, &booking.NotFoundError{Msg: fmt.Sprintf("booking %d not found", bookingID)}
	}
	if !errors.Is(err, booking.ErrCheckInRace) {
		return time.Time{}, err
	}
	// The CAS predicate failed.  Re-read to tell "already arrived"
	// apart from "not confirmed" for the caller.
	b, gerr := v.Store.Get(ctx, bookingID)
	if gerr != nil {
		return time.Time{}, err
	}
	if b.CheckedInAt != nil || b.Status == model.StatusArrived {
		tables, _ := v.resolveTables(ctx, b.TableIDs)
		return time.Time{}, &CheckedInError{CheckedInAt: b.CheckedInAt, Booking: summarize(*b, tables)}
	}
	return time.Time{}, &booking.StateError{
		Status: b.Status,
		Msg:    fmt.Sprintf("cannot check in booking with status %s", b.Status),
	}
}

// verifyToken checks the signature, issuer, audience and expiry of a
// modern credential and that it was minted for the claimed booking and
// this venue.  Expiry is reported distinctly from every other failure.
func (v *Verifier) verifyToken(raw string, bookingID uint64) error {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.Secret, nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return v.Now() }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return &booking.TokenError{Expired: true, Msg: "check-in token has expired"}
		}
		return &booking.TokenError{Msg: "check-in token is invalid"}
	}
	if claims.BookingID != bookingID {
		return &booking.TokenError{Msg: "token was not issued for this booking"}
	}
	if claims.VenueID != v.VenueID {
		return &booking.TokenError{Msg: "token was not issued for this venue"}
	}
	return nil
}

func (v *Verifier) resolveTables(ctx context.Context, ids []uint64) ([]model.Table, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return v.Tables.GetByIDs(ctx, ids)
}

func summarize(b model.Booking, tables []model.Table) BookingSummary {
	numbers := make([]uint32, 0, len(tables))
	for _, t := range tables {
		numbers = append(numbers, t.TableNumber)
	}
	return BookingSummary{
		BookingID:    b.ID,
		BookingRef:   b.BookingRef,
		GuestName:    b.CustomerName,
		PartySize:    b.PartySize,
		Date:         b.DateString(),
		ArrivalTime:  b.ArrivalTime,
		Status:       b.Status,
		TableNumbers: numbers,
		CheckedInAt:  b.CheckedInAt,
	}
}

// hasSpecialRequests reports whether the opaque blob carries anything
// worth flagging to the door staff.
func hasSpecialRequests(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	switch s {
	case "", "null", "{}", "[]", `""`:
		return false
	}
	return true
}
