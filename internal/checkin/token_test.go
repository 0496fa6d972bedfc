package checkin

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/venue-table-reservation/internal/model"
)

const testSecret = "test-checkin-secret"

func tokenBooking() model.Booking {
	pkg := uint32(4500)
	return model.Booking{
		ID:           31,
		BookingRef:   "BRL-2025-00031",
		CustomerName: "Ossian Reyes",
		PartySize:    6,
		BookingDate:  time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC),
		ArrivalTime:  "20:00",
		TableIDs:     []uint64{11, 12},
		Status:       model.StatusConfirmed,
		PackageCents: &pkg,
	}
}

func tokenTables() []model.Table {
	return []model.Table{
		{ID: 11, TableNumber: 15, Floor: model.FloorUpstairs, MinCapacity: 2, MaxCapacity: 4},
		{ID: 12, TableNumber: 16, Floor: model.FloorUpstairs, MinCapacity: 2, MaxCapacity: 4},
	}
}

func TestIssueClaims(t *testing.T) {
	svc := NewTokenService(testSecret, "venue-1", "The Brindle Room", "https://checkin.example.com/scan")
	issued := time.Date(2025, 6, 13, 10, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return issued }

	creds, err := svc.Issue(tokenBooking(), tokenTables())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	var claims Claims
	_, err = jwt.ParseWithClaims(creds.Modern.Token, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	}, jwt.WithTimeFunc(func() time.Time { return issued }))
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}

	if claims.BookingID != 31 {
		t.Errorf("booking_id = %d, want 31", claims.BookingID)
	}
	if claims.VenueID != "venue-1" {
		t.Errorf("venue_id = %q, want venue-1", claims.VenueID)
	}
	if claims.GuestName != "Ossian Reyes" || claims.PartySize != 6 {
		t.Errorf("guest = %q/%d, want Ossian Reyes/6", claims.GuestName, claims.PartySize)
	}
	if claims.EventDate != "2025-06-14" {
		t.Errorf("event_date = %q, want 2025-06-14", claims.EventDate)
	}
	if len(claims.TableNumbers) != 2 || claims.TableNumbers[0] != 15 || claims.TableNumbers[1] != 16 {
		t.Errorf("table_numbers = %v, want [15 16]", claims.TableNumbers)
	}
	if claims.Issuer != TokenIssuer {
		t.Errorf("issuer = %q, want %q", claims.Issuer, TokenIssuer)
	}
	if got := claims.ExpiresAt.Time; !got.Equal(issued.Add(TokenValidity)) {
		t.Errorf("expiry = %v, want issue time + %v", got, TokenValidity)
	}
}

func TestIssueEnvelopes(t *testing.T) {
	svc := NewTokenService(testSecret, "venue-1", "The Brindle Room", "https://checkin.example.com/scan")
	svc.Now = func() time.Time { return time.Date(2025, 6, 13, 10, 0, 0, 0, time.UTC) }

	creds, err := svc.Issue(tokenBooking(), tokenTables())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if creds.Modern.BookingID != 31 {
		t.Errorf("modern booking_id = %d, want 31", creds.Modern.BookingID)
	}
	if creds.Modern.Venue != "The Brindle Room" {
		t.Errorf("modern venue = %q", creds.Modern.Venue)
	}
	if creds.Modern.CheckInURL != "https://checkin.example.com/scan" {
		t.Errorf("modern check_in_url = %q", creds.Modern.CheckInURL)
	}

	legacy := creds.Legacy
	if legacy.Ref != "BRL-2025-00031" || legacy.Name != "Ossian Reyes" {
		t.Errorf("legacy ref/name = %q/%q", legacy.Ref, legacy.Name)
	}
	if legacy.Table != 15 {
		t.Errorf("legacy table = %d, want first table number 15", legacy.Table)
	}
	if legacy.Date != "2025-06-14" || legacy.Time != "20:00" || legacy.Size != 6 {
		t.Errorf("legacy date/time/size = %q/%q/%d", legacy.Date, legacy.Time, legacy.Size)
	}
}
