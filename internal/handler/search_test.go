package handler

import (
	"testing"
	"time"
)

func TestVenueToday(t *testing.T) {
	auckland, err := time.LoadLocation("Pacific/Auckland")
	if err != nil {
		t.Fatal(err)
	}
	losAngeles, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		now  time.Time
		loc  *time.Location
		want string
	}{
		{
			// Late UTC evening is already the next calendar day in
			// Auckland; the filter must use the venue's day.
			name: "venue ahead of UTC after midnight",
			now:  time.Date(2026, 8, 30, 23, 30, 0, 0, time.UTC),
			loc:  auckland,
			want: "2026-08-31",
		},
		{
			// Early UTC morning is still the previous day on the US
			// west coast.
			name: "venue behind UTC before midnight",
			now:  time.Date(2026, 8, 31, 3, 0, 0, 0, time.UTC),
			loc:  losAngeles,
			want: "2026-08-30",
		},
		{
			name: "days agree mid-afternoon",
			now:  time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC),
			loc:  losAngeles,
			want: "2026-08-30",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := venueToday(tc.now, tc.loc)
			// The repository formats the filter in UTC, so the value
			// must round-trip to the venue-local day that way.
			if s := got.UTC().Format("2006-01-02"); s != tc.want {
				t.Errorf("venueToday = %s, want %s", s, tc.want)
			}
		})
	}
}
