package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-table-reservation/internal/model"
)

// tableLister is the slice of the table repository this handler needs;
// tests supply an in-memory fake.
type tableLister interface {
	ListAll(ctx context.Context) ([]model.Table, error)
}

// TableHandler serves the table inventory.  Door staff use it to see
// floor layout context next to search results; admins use it when
// re-assigning tables on a booking.
type TableHandler struct {
	Tables tableLister
}

func NewTableHandler(tables tableLister) *TableHandler {
	return &TableHandler{Tables: tables}
}

type tableView struct {
	ID          uint64 `json:"id"`
	TableNumber uint32 `json:"table_number"`
	Floor       string `json:"floor"`
	MinCapacity int    `json:"min_capacity"`
	MaxCapacity int    `json:"max_capacity"`
}

// List returns the whole inventory, ordered by floor then number.
func (h *TableHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tables, err := h.Tables.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]tableView, 0, len(tables))
	for _, t := range tables {
		out = append(out, tableView{
			ID:          t.ID,
			TableNumber: t.TableNumber,
			Floor:       t.Floor,
			MinCapacity: t.MinCapacity,
			MaxCapacity: t.MaxCapacity,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"tables": out})
}
