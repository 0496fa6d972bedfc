package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/venue-table-reservation/internal/model"
)

// TableRepo provides read access to the venue's table inventory.  The
// inventory is small, fixed reference data; this service never writes
// to it.
type TableRepo struct {
	db *sql.DB
}

// NewTableRepo returns a TableRepo bound to the given database.
func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{db: db} }

// GetByIDs returns the tables with the given IDs, ordered by table
// number.  Unknown IDs are silently absent from the result; callers
// that care compare lengths.
func (r *TableRepo) GetByIDs(ctx context.Context, ids []uint64) ([]model.Table, error) {
	if len(ids) == 0 {
		return []model.Table{}, nil
	}
	ph := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		ph[i] = "?"
		args[i] = id
	}
	q := `SELECT id, table_number, floor, min_capacity, max_capacity, created_at
	      FROM tables WHERE id IN (` + strings.Join(ph, ",") + `)
	      ORDER BY table_number`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Table, 0, len(ids))
	for rows.Next() {
		var t model.Table
		if err := rows.Scan(&t.ID, &t.TableNumber, &t.Floor, &t.MinCapacity, &t.MaxCapacity, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListAll returns the whole inventory, ordered by floor then number.
func (r *TableRepo) ListAll(ctx context.Context) ([]model.Table, error) {
	const q = `SELECT id, table_number, floor, min_capacity, max_capacity, created_at
	           FROM tables ORDER BY floor, table_number`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Table, 0)
	for rows.Next() {
		var t model.Table
		if err := rows.Scan(&t.ID, &t.TableNumber, &t.Floor, &t.MinCapacity, &t.MaxCapacity, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
