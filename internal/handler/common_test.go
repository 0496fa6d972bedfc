package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-table-reservation/internal/booking"
	"github.com/iliyamo/venue-table-reservation/internal/checkin"
	"github.com/iliyamo/venue-table-reservation/internal/model"
)

func newTestContext() echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestActorFrom(t *testing.T) {
	tests := []struct {
		name    string
		staffID interface{}
		role    interface{}
		want    booking.Actor
	}{
		{"json number subject", float64(42), model.RoleAdmin, booking.Actor{ID: 42, Role: model.RoleAdmin}},
		{"string subject", "7", model.RoleDoor, booking.Actor{ID: 7, Role: model.RoleDoor}},
		{"missing claims", nil, nil, booking.Actor{}},
		{"garbage subject", "4x2", model.RoleDoor, booking.Actor{ID: 0, Role: model.RoleDoor}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestContext()
			if tc.staffID != nil {
				c.Set("staff_id", tc.staffID)
			}
			if tc.role != nil {
				c.Set("role", tc.role)
			}
			if got := actorFrom(c); got != tc.want {
				t.Errorf("actorFrom = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestWriteDomainErrorStatus(t *testing.T) {
	at := time.Date(2025, 6, 14, 19, 40, 0, 0, time.UTC)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &booking.ValidationError{Field: "party_size", Msg: "must be between 1 and 20"}, http.StatusBadRequest},
		{"state", &booking.StateError{Status: model.StatusNoShow, Msg: "no"}, http.StatusBadRequest},
		{"token", &booking.TokenError{Expired: true, Msg: "expired"}, http.StatusBadRequest},
		{"not found", &booking.NotFoundError{Msg: "gone"}, http.StatusNotFound},
		{"authorization", &booking.AuthorizationError{Msg: "no"}, http.StatusForbidden},
		{"table conflict", &booking.ConflictError{Msg: "taken", ConflictingRef: "BRL-2025-00001", TableIDs: []uint64{3}}, http.StatusConflict},
		{"already checked in", &checkin.CheckedInError{CheckedInAt: &at}, http.StatusConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			if err := writeDomainError(c, tc.err); err != nil {
				t.Fatalf("writeDomainError: %v", err)
			}
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
