package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/venue-table-reservation/internal/booking"
	"github.com/iliyamo/venue-table-reservation/internal/model"
)

// BookingRepo provides data access to the bookings table and the
// booking_tables junction.  It implements booking.Store: reads populate
// the claimed table IDs, and both write paths are conditional so the
// advisory conflict check in the domain layer stays safe under
// concurrent writers.  All timestamps are stored in UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// bookingColumns is the scan order shared by every booking query.
const bookingColumns = `id, booking_ref, customer_name, customer_email, customer_phone,
	party_size, booking_date, arrival_time, status, special_requests,
	deposit_cents, package_cents, balance_cents,
	checked_in_at, cancelled_at, refund_eligible, created_at, updated_at`

// scanBooking reads one row in bookingColumns order.  Works for both
// *sql.Row and *sql.Rows via the scanner interface.
func scanBooking(sc interface{ Scan(...interface{}) error }) (*model.Booking, error) {
	var (
		b           model.Booking
		arrival     string
		special     sql.NullString
		packageC    sql.NullInt64
		checkedInAt sql.NullTime
		cancelledAt sql.NullTime
	)
	err := sc.Scan(
		&b.ID, &b.BookingRef, &b.CustomerName, &b.CustomerEmail, &b.CustomerPhone,
		&b.PartySize, &b.BookingDate, &arrival, &b.Status, &special,
		&b.DepositCents, &packageC, &b.BalanceCents,
		&checkedInAt, &cancelledAt, &b.RefundEligible, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	// TIME columns scan as "HH:MM:SS"; keep only hours and minutes.
	if len(arrival) >= 5 {
		b.ArrivalTime = arrival[:5]
	} else {
		b.ArrivalTime = arrival
	}
	if special.Valid {
		b.SpecialRequests = []byte(special.String)
	}
	if packageC.Valid {
		v := uint32(packageC.Int64)
		b.PackageCents = &v
	}
	if checkedInAt.Valid {
		t := checkedInAt.Time
		b.CheckedInAt = &t
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		b.CancelledAt = &t
	}
	return &b, nil
}

// Get loads a booking by ID along with its claimed table IDs.  Returns
// booking.ErrNotFound when no row exists.
func (r *BookingRepo) Get(ctx context.Context, id uint64) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, booking.ErrNotFound
		}
		return nil, err
	}
	if b.TableIDs, err = r.tableIDs(ctx, b.ID); err != nil {
		return nil, err
	}
	return b, nil
}

// GetByRefAndDate resolves a booking by its human-readable reference
// and calendar date, exactly as printed on legacy credentials.
func (r *BookingRepo) GetByRefAndDate(ctx context.Context, ref string, date time.Time) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_ref = ? AND booking_date = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, ref, date.UTC().Format("2006-01-02")))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, booking.ErrNotFound
		}
		return nil, err
	}
	if b.TableIDs, err = r.tableIDs(ctx, b.ID); err != nil {
		return nil, err
	}
	return b, nil
}

// ListByDateAndStatus returns all bookings for the date whose status is
// in the given set, each with its table IDs populated.  Table IDs are
// fetched for all rows in a single IN query.
func (r *BookingRepo) ListByDateAndStatus(ctx context.Context, date time.Time, statuses []string) ([]model.Booking, error) {
	if len(statuses) == 0 {
		return []model.Booking{}, nil
	}
	placeholders := make([]string, len(statuses))
	args := make([]interface{}, 0, len(statuses)+1)
	args = append(args, date.UTC().Format("2006-01-02"))
	for i, s := range statuses {
		placeholders[i] = "?"
		args = append(args, s)
	}
	q := `SELECT ` + bookingColumns + ` FROM bookings
	      WHERE booking_date = ? AND status IN (` + strings.Join(placeholders, ",") + `)
	      ORDER BY arrival_time, id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Booking, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		index[b.ID] = len(out)
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]interface{}, 0, len(out))
	ph := make([]string, 0, len(out))
	for _, b := range out {
		ids = append(ids, b.ID)
		ph = append(ph, "?")
	}
	tq := `SELECT booking_id, table_id FROM booking_tables
	       WHERE booking_id IN (` + strings.Join(ph, ",") + `)
	       ORDER BY booking_id, table_id`
	trows, err := r.db.QueryContext(ctx, tq, ids...)
	if err != nil {
		return nil, err
	}
	defer trows.Close()
	for trows.Next() {
		var bid, tid uint64
		if err := trows.Scan(&bid, &tid); err != nil {
			return nil, err
		}
		if i, ok := index[bid]; ok {
			out[i].TableIDs = append(out[i].TableIDs, tid)
		}
	}
	if err := trows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateConditional persists a booking only if the stored updated_at
// still equals prevUpdatedAt.  The field update and the junction-table
// rewrite happen in one transaction; when the guard fails the whole
// write is abandoned and booking.ErrStale (or ErrNotFound) is returned.
func (r *BookingRepo) UpdateConditional(ctx context.Context, b *model.Booking, prevUpdatedAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const q = `UPDATE bookings SET
			customer_name = ?, customer_email = ?, customer_phone = ?,
			party_size = ?, arrival_time = ?, status = ?, special_requests = ?,
			package_cents = ?, checked_in_at = ?, cancelled_at = ?,
			refund_eligible = ?, updated_at = ?
		WHERE id = ? AND updated_at = ?`
	var special interface{}
	if len(b.SpecialRequests) > 0 {
		special = string(b.SpecialRequests)
	}
	var packageC interface{}
	if b.PackageCents != nil {
		packageC = *b.PackageCents
	}
	res, err := tx.ExecContext(ctx, q,
		b.CustomerName, b.CustomerEmail, b.CustomerPhone,
		b.PartySize, b.ArrivalTime, b.Status, special,
		packageC, nullableTime(b.CheckedInAt), nullableTime(b.CancelledAt),
		b.RefundEligible, b.UpdatedAt.UTC(),
		b.ID, prevUpdatedAt.UTC(),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish a concurrent writer from a vanished row.
		var exists uint64
		err := tx.QueryRowContext(ctx, `SELECT id FROM bookings WHERE id = ?`, b.ID).Scan(&exists)
		if err == sql.ErrNoRows {
			return booking.ErrNotFound
		}
		if err != nil {
			return err
		}
		return booking.ErrStale
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM booking_tables WHERE booking_id = ?`, b.ID); err != nil {
		return err
	}
	if len(b.TableIDs) > 0 {
		q := `INSERT INTO booking_tables (booking_id, table_id) VALUES `
		args := make([]interface{}, 0, len(b.TableIDs)*2)
		for i, tid := range b.TableIDs {
			if i > 0 {
				q += ","
			}
			q += "(?, ?)"
			args = append(args, b.ID, tid)
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// CommitCheckIn is the compare-and-swap arrival write: it succeeds only
// while the booking is still confirmed with no check-in recorded, so
// exactly one of any number of concurrent scans wins.
func (r *BookingRepo) CommitCheckIn(ctx context.Context, id uint64, at time.Time) error {
	const q = `UPDATE bookings
		SET status = ?, checked_in_at = ?, updated_at = ?
		WHERE id = ? AND status = ? AND checked_in_at IS NULL`
	res, err := r.db.ExecContext(ctx, q,
		model.StatusArrived, at.UTC(), at.UTC(),
		id, model.StatusConfirmed,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists uint64
		err := r.db.QueryRowContext(ctx, `SELECT id FROM bookings WHERE id = ?`, id).Scan(&exists)
		if err == sql.ErrNoRows {
			return booking.ErrNotFound
		}
		if err != nil {
			return err
		}
		return booking.ErrCheckInRace
	}
	return nil
}

// tableIDs returns the table IDs claimed by one booking.
func (r *BookingRepo) tableIDs(ctx context.Context, bookingID uint64) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT table_id FROM booking_tables WHERE booking_id = ? ORDER BY table_id`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}
