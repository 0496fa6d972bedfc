// Package checkin implements the door check-in protocol: issuing the
// signed credential embedded in a booking's QR code and verifying
// scanned payloads at the door.  Rendering the credential to an image
// is the caller's concern; this package only produces and validates the
// logical payload.
package checkin

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/venue-table-reservation/internal/model"
)

const (
	// TokenIssuer is the fixed issuer claim on every check-in token.
	TokenIssuer = "venue-reservations"
	// TokenAudience scopes tokens to check-in use only; tokens minted
	// for other purposes never validate here.
	TokenAudience = "check-in"
	// TokenValidity is the credential lifetime: long enough to cover
	// same-day arrival plus a buffer, short enough to bound replay risk
	// across later events.
	TokenValidity = 48 * time.Hour
)

// Claims is the signed payload of a modern check-in credential.
type Claims struct {
	BookingID    uint64   `json:"booking_id"`
	TableNumbers []uint32 `json:"table_numbers"`
	GuestName    string   `json:"guest_name"`
	EventDate    string   `json:"event_date"`
	PartySize    int      `json:"party_size"`
	VenueID      string   `json:"venue_id"`
	jwt.RegisteredClaims
}

// Credential is the modern envelope handed to the rasterizer.  The
// token carries the signed claims; the rest is display metadata.
type Credential struct {
	BookingID  uint64 `json:"booking_id"`
	Token      string `json:"token"`
	Venue      string `json:"venue"`
	CheckInURL string `json:"check_in_url"`
}

// LegacyCredential is the older unsigned payload format.  It is never
// the sole credential on newly issued bookings; it exists so codes
// minted before the signed format remain scannable, and its shape must
// not change.
type LegacyCredential struct {
	Ref   string `json:"ref"`
	Table uint32 `json:"table"`
	Time  string `json:"time"`
	Size  int    `json:"size"`
	Name  string `json:"name"`
	Date  string `json:"date"`
}

// IssuedCredentials pairs both formats produced at confirmation time.
type IssuedCredentials struct {
	Modern Credential       `json:"modern"`
	Legacy LegacyCredential `json:"legacy"`
}

// TokenService mints check-in credentials.  It is called once per
// booking at confirmation time.
type TokenService struct {
	Secret     []byte
	VenueID    string
	VenueName  string
	CheckInURL string
	Now        func() time.Time
}

// NewTokenService constructs a TokenService with a real clock.
func NewTokenService(secret, venueID, venueName, checkInURL string) *TokenService {
	return &TokenService{
		Secret:     []byte(secret),
		VenueID:    venueID,
		VenueName:  venueName,
		CheckInURL: checkInURL,
		Now:        time.Now,
	}
}

// Issue builds both credential formats for a booking.  The resolved
// tables supply the table numbers baked into the claims; the booking's
// own TableIDs are internal identifiers and never leave the service.
func (s *TokenService) Issue(b model.Booking, tables []model.Table) (IssuedCredentials, error) {
	now := s.Now().UTC()
	numbers := make([]uint32, 0, len(tables))
	for _, t := range tables {
		numbers = append(numbers, t.TableNumber)
	}

	claims := Claims{
		BookingID:    b.ID,
		TableNumbers: numbers,
		GuestName:    b.CustomerName,
		EventDate:    b.DateString(),
		PartySize:    b.PartySize,
		VenueID:      s.VenueID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenValidity)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return IssuedCredentials{}, fmt.Errorf("sign check-in token: %w", err)
	}

	var primaryTable uint32
	if len(numbers) > 0 {
		primaryTable = numbers[0]
	}
	return IssuedCredentials{
		Modern: Credential{
			BookingID:  b.ID,
			Token:      signed,
			Venue:      s.VenueName,
			CheckInURL: s.CheckInURL,
		},
		Legacy: LegacyCredential{
			Ref:   b.BookingRef,
			Table: primaryTable,
			Time:  b.ArrivalTime,
			Size:  b.PartySize,
			Name:  b.CustomerName,
			Date:  b.DateString(),
		},
	}, nil
}
