package handler // package handler contains the HTTP handlers for all endpoints

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-table-reservation/internal/booking"
	"github.com/iliyamo/venue-table-reservation/internal/checkin"
	"github.com/iliyamo/venue-table-reservation/internal/model"
)

// actorFrom builds the booking.Actor for the current request from the
// context values injected by the JWTAuth middleware.  The "sub" claim
// round-trips through JSON, so it arrives as a float64; a string form
// is tolerated for older tokens.
func actorFrom(c echo.Context) booking.Actor {
	var a booking.Actor
	switch v := c.Get("staff_id").(type) {
	case float64:
		a.ID = uint64(v)
	case uint64:
		a.ID = v
	case string:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			a.ID = n
		}
	}
	if r, ok := c.Get("role").(string); ok {
		a.Role = r
	}
	return a
}

// bookingView is the JSON shape of a booking in API responses.
type bookingView struct {
	ID              uint64          `json:"id"`
	BookingRef      string          `json:"booking_ref"`
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email"`
	CustomerPhone   string          `json:"customer_phone"`
	PartySize       int             `json:"party_size"`
	Date            string          `json:"date"`
	ArrivalTime     string          `json:"arrival_time"`
	TableIDs        []uint64        `json:"table_ids"`
	Status          string          `json:"status"`
	SpecialRequests json.RawMessage `json:"special_requests,omitempty"`
	DepositCents    uint32          `json:"deposit_cents"`
	PackageCents    *uint32         `json:"package_cents,omitempty"`
	BalanceCents    uint32          `json:"balance_cents"`
	CheckedInAt     *time.Time      `json:"checked_in_at,omitempty"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty"`
	RefundEligible  bool            `json:"refund_eligible"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func toBookingView(b *model.Booking) bookingView {
	return bookingView{
		ID:              b.ID,
		BookingRef:      b.BookingRef,
		CustomerName:    b.CustomerName,
		CustomerEmail:   b.CustomerEmail,
		CustomerPhone:   b.CustomerPhone,
		PartySize:       b.PartySize,
		Date:            b.DateString(),
		ArrivalTime:     b.ArrivalTime,
		TableIDs:        b.TableIDs,
		Status:          b.Status,
		SpecialRequests: b.SpecialRequests,
		DepositCents:    b.DepositCents,
		PackageCents:    b.PackageCents,
		BalanceCents:    b.BalanceCents,
		CheckedInAt:     b.CheckedInAt,
		CancelledAt:     b.CancelledAt,
		RefundEligible:  b.RefundEligible,
		UpdatedAt:       b.UpdatedAt,
	}
}

// writeDomainError maps the typed errors produced by the booking and
// checkin packages onto HTTP responses.  Every handler funnels its
// domain errors through here so the status mapping stays in one place.
func writeDomainError(c echo.Context, err error) error {
	switch e := err.(type) {
	case *booking.ValidationError:
		if e.Field != "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": e.Msg, "field": e.Field})
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": e.Msg})
	case *booking.StateError:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": e.Msg, "status": e.Status})
	case *booking.TokenError:
		code := "token_invalid"
		if e.Expired {
			code = "token_expired"
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": e.Msg, "code": code})
	case *booking.NotFoundError:
		return c.JSON(http.StatusNotFound, echo.Map{"error": e.Msg})
	case *booking.AuthorizationError:
		return c.JSON(http.StatusForbidden, echo.Map{"error": e.Msg})
	case *booking.ConflictError:
		resp := echo.Map{"error": e.Msg}
		if e.ConflictingRef != "" {
			resp["conflicting_ref"] = e.ConflictingRef
			resp["conflicting_tables"] = e.TableIDs
		}
		return c.JSON(http.StatusConflict, resp)
	case *checkin.CheckedInError:
		return c.JSON(http.StatusConflict, echo.Map{
			"error":         e.Error(),
			"checked_in_at": e.CheckedInAt,
			"booking":       e.Booking,
		})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
