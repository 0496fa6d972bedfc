package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-table-reservation/internal/repository"
)

// SearchHandler exposes the door-side booking search.  The fallback
// path when a guest arrives without a scannable code.
type SearchHandler struct {
	Bookings *repository.BookingRepo
	Location *time.Location
}

func NewSearchHandler(b *repository.BookingRepo, loc *time.Location) *SearchHandler {
	return &SearchHandler{Bookings: b, Location: loc}
}

// Search handles GET /v1/bookings/search?q=&scope=&date=.  The date
// defaults to today in the venue's timezone, which is what door staff
// want during service.
func (h *SearchHandler) Search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "q required"})
	}

	scope := strings.ToLower(strings.TrimSpace(c.QueryParam("scope")))
	switch scope {
	case "":
		scope = repository.ScopeAll
	case repository.ScopeReference, repository.ScopeName, repository.ScopePhone, repository.ScopeAll:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "scope must be reference, name, phone or all"})
	}

	now := time.Now()
	date := venueToday(now, h.Location)
	if ds := strings.TrimSpace(c.QueryParam("date")); ds != "" {
		parsed, err := time.Parse("2006-01-02", ds)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
		}
		date = parsed
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Bookings.Search(ctx, repository.BookingSearchQuery{
		Query: q,
		Scope: scope,
		Date:  date,
	}, now, h.Location)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"results": rows,
		"count":   len(rows),
	})
}

// venueToday resolves "today" on the venue's calendar and returns it as
// the midnight-UTC date value the repository layer filters on.  Around
// midnight the venue-local day and the UTC day disagree, and the
// booking_date column stores the venue-local one.
func venueToday(now time.Time, loc *time.Location) time.Time {
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
