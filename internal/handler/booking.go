package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-table-reservation/internal/booking"
	"github.com/iliyamo/venue-table-reservation/internal/checkin"
	"github.com/iliyamo/venue-table-reservation/internal/model"
)

// BookingHandler exposes the booking mutation endpoint.  All lifecycle
// and field edits flow through the state machine; the handler only
// translates HTTP to a Patch and back.
type BookingHandler struct {
	Machine *booking.StateMachine
	Tables  booking.TableStore
	Tokens  *checkin.TokenService
}

func NewBookingHandler(m *booking.StateMachine, tables booking.TableStore, tokens *checkin.TokenService) *BookingHandler {
	return &BookingHandler{Machine: m, Tables: tables, Tokens: tokens}
}

// bookingPatchReq mirrors booking.Patch: absent fields stay nil and
// leave the stored value untouched.
type bookingPatchReq struct {
	CustomerName    *string          `json:"customer_name"`
	CustomerEmail   *string          `json:"customer_email"`
	CustomerPhone   *string          `json:"customer_phone"`
	PartySize       *int             `json:"party_size"`
	ArrivalTime     *string          `json:"arrival_time"`
	SpecialRequests *json.RawMessage `json:"special_requests"`
	PackageCents    *uint32          `json:"package_cents"`
	TableIDs        []uint64         `json:"table_ids"`
	Status          *string          `json:"status"`
}

type bookingPatchResp struct {
	Booking       bookingView                `json:"booking"`
	ChangedFields []string                   `json:"changed_fields"`
	Credentials   *checkin.IssuedCredentials `json:"credentials,omitempty"`
}

// Patch applies a partial update to a booking.  When the update moves
// the booking into confirmed state, the response additionally carries
// freshly minted check-in credentials for the confirmation email.
func (h *BookingHandler) Patch(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	var req bookingPatchReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	p := booking.Patch{
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		PartySize:       req.PartySize,
		ArrivalTime:     req.ArrivalTime,
		SpecialRequests: req.SpecialRequests,
		PackageCents:    req.PackageCents,
		TableIDs:        req.TableIDs,
		Status:          req.Status,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	updated, effects, changed, err := h.Machine.Update(ctx, actorFrom(c), id, p)
	if err != nil {
		return writeDomainError(c, err)
	}
	dispatchEffects(effects)

	resp := bookingPatchResp{Booking: toBookingView(updated), ChangedFields: changed}
	if statusChangedTo(changed, updated, model.StatusConfirmed) {
		tables, terr := h.Tables.GetByIDs(ctx, updated.TableIDs)
		if terr == nil {
			if creds, cerr := h.Tokens.Issue(*updated, tables); cerr == nil {
				resp.Credentials = &creds
			}
		}
		// Credential minting failures are not fatal here: the booking is
		// already confirmed and a credential can be re-issued later.
	}
	return c.JSON(http.StatusOK, resp)
}

// Get returns a single booking by ID.
func (h *BookingHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, err := h.Machine.Store.Get(ctx, id)
	if err != nil {
		if err == booking.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toBookingView(b))
}

func statusChangedTo(changed []string, b *model.Booking, status string) bool {
	if b.Status != status {
		return false
	}
	for _, f := range changed {
		if f == "status" {
			return true
		}
	}
	return false
}
