package handler

import (
	"context"
	"time"

	"github.com/iliyamo/venue-table-reservation/internal/booking"
	"github.com/iliyamo/venue-table-reservation/internal/queue"
	publisher "github.com/iliyamo/venue-table-reservation/internal/service"
)

// dispatchEffects publishes the side-effect events produced by a
// booking mutation.  It runs in its own goroutine with a detached
// context so a slow broker never delays the HTTP response, and
// publish failures are logged inside the publisher and otherwise
// ignored: audit and notification are best-effort side channels.
func dispatchEffects(e booking.Effects) {
	if e.Audit == nil && e.Notification == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if e.Audit != nil {
			_ = publisher.PublishAudit(ctx, auditToQueue(*e.Audit))
		}
		if e.Notification != nil {
			_ = publisher.PublishNotification(ctx, queue.BookingNotificationEvent{
				Type:           e.Notification.Type,
				RecipientEmail: e.Notification.RecipientEmail,
				TemplateData:   e.Notification.TemplateData,
			})
		}
	}()
}

func auditToQueue(a booking.AuditEvent) queue.BookingAuditEvent {
	return queue.BookingAuditEvent{
		ActorID:       a.ActorID,
		ActorRole:     a.ActorRole,
		BookingID:     a.BookingID,
		BookingRef:    a.BookingRef,
		OldValues:     snapshotMap(a.OldValues),
		NewValues:     snapshotMap(a.NewValues),
		ChangedFields: a.ChangedFields,
		Timestamp:     a.Timestamp.UTC().Format(time.RFC3339),
	}
}

func snapshotMap(s booking.AuditSnapshot) map[string]interface{} {
	return map[string]interface{}{
		"status":         s.Status,
		"customer_name":  s.CustomerName,
		"customer_email": s.CustomerEmail,
		"party_size":     s.PartySize,
		"table_ids":      s.TableIDs,
	}
}
