package model

import (
	"encoding/json"
	"time"
)

// Booking statuses.  A booking is created externally in pending or
// confirmed state and is mutated exclusively through the state machine.
// Cancelled and no_show are terminal-but-retained states; bookings are
// never hard-deleted.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusArrived   = "arrived"
	StatusNoShow    = "no_show"
)

// Booking records a customer's table reservation for a specific
// calendar date.  It aggregates one or more physical tables claimed
// for that date and tracks the lifecycle status, payments and
// check-in state.
//
// Fields:
//
//	ID              – primary key identifier.
//	BookingRef      – human-readable reference (BRL-YYYY-NNNNN).
//	CustomerName    – guest name used for legacy credential matching.
//	CustomerEmail   – notification recipient.
//	CustomerPhone   – search key for door staff.
//	PartySize       – number of guests (1–20).
//	BookingDate     – venue-local calendar date of the visit.
//	ArrivalTime     – expected arrival time of day ("19:30").
//	TableIDs        – tables claimed for the date (1–16, non-empty
//	                  while the booking is pending, confirmed or arrived).
//	Status          – lifecycle state (see constants above).
//	SpecialRequests – opaque structured blob supplied at creation.
//	DepositCents    – deposit paid, in cents.
//	PackageCents    – optional drinks package amount, in cents.
//	BalanceCents    – remaining balance, in cents.
//	CheckedInAt     – set if and only if status is arrived.
//	CancelledAt     – set while a cancellation is in effect; cleared
//	                  on re-confirmation.
//	RefundEligible  – meaningful only once cancelled.
//	CreatedAt       – creation timestamp.
//	UpdatedAt       – last modification timestamp; doubles as the
//	                  optimistic concurrency token for conditional writes.
type Booking struct {
	ID              uint64          // bookings.id
	BookingRef      string          // bookings.booking_ref
	CustomerName    string          // bookings.customer_name
	CustomerEmail   string          // bookings.customer_email
	CustomerPhone   string          // bookings.customer_phone
	PartySize       int             // bookings.party_size
	BookingDate     time.Time       // bookings.booking_date (DATE, midnight UTC)
	ArrivalTime     string          // bookings.arrival_time (TIME, "HH:MM")
	TableIDs        []uint64        // booking_tables.table_id
	Status          string          // bookings.status
	SpecialRequests json.RawMessage // bookings.special_requests (nullable JSON)
	DepositCents    uint32          // bookings.deposit_cents
	PackageCents    *uint32         // bookings.package_cents (nullable)
	BalanceCents    uint32          // bookings.balance_cents
	CheckedInAt     *time.Time      // bookings.checked_in_at (nullable)
	CancelledAt     *time.Time      // bookings.cancelled_at (nullable)
	RefundEligible  bool            // bookings.refund_eligible
	CreatedAt       time.Time       // bookings.created_at
	UpdatedAt       time.Time       // bookings.updated_at
}

// DateString returns the booking's calendar date formatted as YYYY-MM-DD.
// The DATE column is scanned at midnight UTC, so the components are read
// in UTC regardless of the venue timezone.
func (b Booking) DateString() string {
	return b.BookingDate.UTC().Format("2006-01-02")
}

// HasTable reports whether the booking currently claims the given table.
func (b Booking) HasTable(tableID uint64) bool {
	for _, id := range b.TableIDs {
		if id == tableID {
			return true
		}
	}
	return false
}
