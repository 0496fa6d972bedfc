package booking

import (
	"time"

	"github.com/iliyamo/venue-table-reservation/internal/model"
)

// GracePeriod is how long past the expected arrival time a booking may
// remain unchecked-in before it is flagged late.
const GracePeriod = 30 * time.Minute

// RefundCutoff is the minimum notice, measured to the venue-local
// arrival time, for a cancellation to remain refund-eligible.
const RefundCutoff = 48 * time.Hour

// ArrivalDateTime combines a booking's calendar date and arrival time
// of day into a single instant in the venue's local timezone.  Arrival
// times are stored as "HH:MM"; a seconds component is tolerated since
// MySQL TIME columns scan as "HH:MM:SS".
func ArrivalDateTime(b model.Booking, loc *time.Location) time.Time {
	hh, mm := parseTimeOfDay(b.ArrivalTime)
	y, mo, d := b.BookingDate.UTC().Date()
	return time.Date(y, mo, d, hh, mm, 0, 0, loc)
}

// IsLate reports whether a confirmed booking's arrival time plus the
// grace period has elapsed with no check-in recorded.
func IsLate(b model.Booking, now time.Time, loc *time.Location) bool {
	if b.Status != model.StatusConfirmed || b.CheckedInAt != nil {
		return false
	}
	return now.After(ArrivalDateTime(b, loc).Add(GracePeriod))
}

func parseTimeOfDay(s string) (hour, minute int) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour(), t.Minute()
		}
	}
	return 0, 0
}
