package booking

import (
	"time"

	"github.com/iliyamo/venue-table-reservation/internal/model"
)

// Notification event types dispatched to the notification collaborator.
const (
	NotifyBookingConfirmed = "booking_confirmed"
	NotifyBookingCancelled = "booking_cancelled"
)

// AuditSnapshot captures the audited subset of a booking's fields
// before and after a mutation.
type AuditSnapshot struct {
	Status        string   `json:"status"`
	CustomerName  string   `json:"customer_name"`
	CustomerEmail string   `json:"customer_email"`
	PartySize     int      `json:"party_size"`
	TableIDs      []uint64 `json:"table_ids"`
}

// AuditEvent describes a booking mutation for the audit collaborator.
// One is emitted for every successful field edit or status transition.
type AuditEvent struct {
	ActorID       uint64        `json:"actor_id"`
	ActorRole     string        `json:"actor_role"`
	BookingID     uint64        `json:"booking_id"`
	BookingRef    string        `json:"booking_ref"`
	OldValues     AuditSnapshot `json:"old_values"`
	NewValues     AuditSnapshot `json:"new_values"`
	ChangedFields []string      `json:"changed_fields"`
	Timestamp     time.Time     `json:"timestamp"`
}

// NotificationEvent asks the notification collaborator to send a
// templated message.  Emitted only when a booking transitions to
// confirmed or cancelled.
type NotificationEvent struct {
	Type           string            `json:"type"`
	RecipientEmail string            `json:"recipient_email"`
	TemplateData   map[string]string `json:"template_data"`
}

// Effects bundles the side-effect events produced by a transition.
// Both are fire-and-forget: dispatch failures are logged and never
// roll back or fail the booking mutation.
type Effects struct {
	Audit        *AuditEvent
	Notification *NotificationEvent
}

func snapshot(b model.Booking) AuditSnapshot {
	ids := make([]uint64, len(b.TableIDs))
	copy(ids, b.TableIDs)
	return AuditSnapshot{
		Status:        b.Status,
		CustomerName:  b.CustomerName,
		CustomerEmail: b.CustomerEmail,
		PartySize:     b.PartySize,
		TableIDs:      ids,
	}
}
