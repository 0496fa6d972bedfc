package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-table-reservation/internal/checkin"
)

// CheckInHandler exposes the two-step door check-in flow: verify a
// scanned credential, then commit the arrival.
type CheckInHandler struct {
	Verifier *checkin.Verifier
}

func NewCheckInHandler(v *checkin.Verifier) *CheckInHandler {
	return &CheckInHandler{Verifier: v}
}

// maxScanBytes bounds the scanned payload size; QR codes cannot hold
// more than a few kilobytes.
const maxScanBytes = 16 * 1024

type commitReq struct {
	BookingID uint64 `json:"booking_id"`
}

// Verify accepts the raw scanned payload as the request body and runs
// the verification pipeline.  The body is read verbatim rather than
// bound: which credential format it holds is the verifier's call.
func (h *CheckInHandler) Verify(c echo.Context) error {
	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxScanBytes))
	if err != nil || len(raw) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "empty payload"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	pkg, err := h.Verifier.Verify(ctx, actorFrom(c), raw)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, pkg)
}

// Commit records the arrival for a verified booking.  Exactly one of
// two concurrent commits for the same booking succeeds; the loser gets
// the 409 with the winner's timestamp.
func (h *CheckInHandler) Commit(c echo.Context) error {
	var req commitReq
	if err := c.Bind(&req); err != nil || req.BookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	at, err := h.Verifier.CommitArrival(ctx, actorFrom(c), req.BookingID)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"booking_id":    req.BookingID,
		"checked_in_at": at,
	})
}
