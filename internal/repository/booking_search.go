package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/venue-table-reservation/internal/booking"
	"github.com/iliyamo/venue-table-reservation/internal/model"
)

// Search scopes.  "all" matches reference, name and phone at once.
const (
	ScopeReference = "reference"
	ScopeName      = "name"
	ScopePhone     = "phone"
	ScopeAll       = "all"
)

// SearchLimit caps the result set to bound query cost; door staff
// refine the query rather than page through more rows.
const SearchLimit = 50

// BookingSearchQuery defines the filters for the door-side search.
type BookingSearchQuery struct {
	Query string    // raw query string; matched with LIKE per scope
	Scope string    // one of the Scope* constants
	Date  time.Time // calendar date to search; callers default to venue-local today
}

// SearchTable is the table metadata attached to each search row.
type SearchTable struct {
	ID          uint64 `json:"id"`
	TableNumber uint32 `json:"table_number"`
	Floor       string `json:"floor"`
}

// BookingSearchRow is one enriched search result.  IsLate means the
// arrival time plus the grace period has elapsed with no check-in;
// CanCheckIn means the booking is confirmed and not yet checked in.
type BookingSearchRow struct {
	ID            uint64        `json:"id"`
	BookingRef    string        `json:"booking_ref"`
	CustomerName  string        `json:"customer_name"`
	CustomerPhone string        `json:"customer_phone"`
	PartySize     int           `json:"party_size"`
	Date          string        `json:"date"`
	ArrivalTime   string        `json:"arrival_time"`
	Status        string        `json:"status"`
	CheckedInAt   *time.Time    `json:"checked_in_at,omitempty"`
	Tables        []SearchTable `json:"tables"`
	IsLate        bool          `json:"is_late"`
	CanCheckIn    bool          `json:"can_check_in"`
}

// Search returns active bookings (confirmed or arrived) on the query
// date matching the scope, enriched with table metadata and the
// late/check-in flags.  Read-only: no conflict or mutation logic here.
func (r *BookingRepo) Search(ctx context.Context, q BookingSearchQuery, now time.Time, loc *time.Location) ([]BookingSearchRow, error) {
	where := []string{"booking_date = ?", "status IN (?, ?)"}
	args := []interface{}{q.Date.UTC().Format("2006-01-02"), model.StatusConfirmed, model.StatusArrived}

	if term := strings.TrimSpace(q.Query); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		switch q.Scope {
		case ScopeReference:
			where = append(where, "LOWER(booking_ref) LIKE ?")
			args = append(args, like)
		case ScopeName:
			where = append(where, "LOWER(customer_name) LIKE ?")
			args = append(args, like)
		case ScopePhone:
			where = append(where, "customer_phone LIKE ?")
			args = append(args, "%"+term+"%")
		default: // ScopeAll
			where = append(where, "(LOWER(booking_ref) LIKE ? OR LOWER(customer_name) LIKE ? OR customer_phone LIKE ?)")
			args = append(args, like, like, "%"+term+"%")
		}
	}

	sqlQ := `SELECT id, booking_ref, customer_name, customer_phone, party_size,
			booking_date, arrival_time, status, checked_in_at
		FROM bookings
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY arrival_time, booking_ref
		LIMIT ?`
	args = append(args, SearchLimit)

	rows, err := r.db.QueryContext(ctx, sqlQ, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]BookingSearchRow, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var (
			row         BookingSearchRow
			date        time.Time
			arrival     string
			checkedInAt sql.NullTime
		)
		if err := rows.Scan(
			&row.ID, &row.BookingRef, &row.CustomerName, &row.CustomerPhone, &row.PartySize,
			&date, &arrival, &row.Status, &checkedInAt,
		); err != nil {
			return nil, err
		}
		if len(arrival) >= 5 {
			arrival = arrival[:5]
		}
		row.Date = date.UTC().Format("2006-01-02")
		row.ArrivalTime = arrival
		row.Tables = []SearchTable{}
		if checkedInAt.Valid {
			t := checkedInAt.Time
			row.CheckedInAt = &t
		}
		// Both flags derive from the same lifecycle rules the state
		// machine uses, so the door view and the domain never disagree.
		b := model.Booking{
			Status:      row.Status,
			BookingDate: date,
			ArrivalTime: arrival,
			CheckedInAt: row.CheckedInAt,
		}
		row.IsLate = booking.IsLate(b, now, loc)
		row.CanCheckIn = row.Status == model.StatusConfirmed && row.CheckedInAt == nil
		index[row.ID] = len(out)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	// Fetch table metadata for all rows in one query.
	ids := make([]interface{}, 0, len(out))
	ph := make([]string, 0, len(out))
	for _, row := range out {
		ids = append(ids, row.ID)
		ph = append(ph, "?")
	}
	tq := `SELECT bt.booking_id, t.id, t.table_number, t.floor
	       FROM booking_tables bt
	       JOIN tables t ON t.id = bt.table_id
	       WHERE bt.booking_id IN (` + strings.Join(ph, ",") + `)
	       ORDER BY bt.booking_id, t.table_number`
	trows, err := r.db.QueryContext(ctx, tq, ids...)
	if err != nil {
		return nil, err
	}
	defer trows.Close()
	for trows.Next() {
		var bid uint64
		var t SearchTable
		if err := trows.Scan(&bid, &t.ID, &t.TableNumber, &t.Floor); err != nil {
			return nil, err
		}
		if i, ok := index[bid]; ok {
			out[i].Tables = append(out[i].Tables, t)
		}
	}
	if err := trows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
