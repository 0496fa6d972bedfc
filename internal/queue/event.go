// Package queue defines message payloads exchanged over the message
// broker and the background consumer that drains them.
package queue

// Queue names.  Both queues are declared durable and carry persistent
// JSON messages.
const (
	AuditQueueName        = "booking.audit"
	NotificationQueueName = "booking.notification"
)

// BookingAuditEvent is published for every booking mutation.  It gives
// the audit collaborator the actor, the before/after snapshot of the
// audited fields and the list of fields that changed, without querying
// the primary database.
type BookingAuditEvent struct {
	ActorID       uint64                 `json:"actor_id"`
	ActorRole     string                 `json:"actor_role"`
	BookingID     uint64                 `json:"booking_id"`
	BookingRef    string                 `json:"booking_ref"`
	OldValues     map[string]interface{} `json:"old_values"`
	NewValues     map[string]interface{} `json:"new_values"`
	ChangedFields []string               `json:"changed_fields"`
	Timestamp     string                 `json:"timestamp"`
}

// BookingNotificationEvent asks the notification collaborator to send
// a templated email.  Published only on transitions to confirmed or
// cancelled.
type BookingNotificationEvent struct {
	Type           string            `json:"type"`
	RecipientEmail string            `json:"recipient_email"`
	TemplateData   map[string]string `json:"template_data"`
}
