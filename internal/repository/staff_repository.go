package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/venue-table-reservation/internal/model"
	"github.com/iliyamo/venue-table-reservation/internal/utils"
)

// StaffRepo provides data access to staff_accounts.  Accounts are
// seeded by an operator with admin rights; there is no open signup.
type StaffRepo struct {
	db *sql.DB
}

// NewStaffRepo returns a StaffRepo bound to the given database.
func NewStaffRepo(db *sql.DB) *StaffRepo { return &StaffRepo{db: db} }

// Create inserts a staff account with a bcrypt-hashed password and
// returns the new ID.  Returns ErrEmailExists on a duplicate email.
func (r *StaffRepo) Create(ctx context.Context, email, password, role string, bcryptCost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var exists uint64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM staff_accounts WHERE email = ?`, email).Scan(&exists)
	if err == nil {
		return 0, ErrEmailExists
	}
	if err != sql.ErrNoRows {
		return 0, err
	}
	hash, err := utils.HashPassword(password, bcryptCost)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO staff_accounts (email, password_hash, role) VALUES (?, ?, ?)`,
		email, hash, role)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail loads a staff account for login.  Returns ErrStaffNotFound
// when the email is unknown.
func (r *StaffRepo) GetByEmail(ctx context.Context, email string) (*model.StaffAccount, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	const q = `SELECT id, email, password_hash, role, created_at FROM staff_accounts WHERE email = ?`
	var s model.StaffAccount
	err := r.db.QueryRowContext(ctx, q, email).Scan(&s.ID, &s.Email, &s.PasswordHash, &s.Role, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrStaffNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByID loads a staff account by primary key.  Returns
// ErrStaffNotFound when the ID is unknown.
func (r *StaffRepo) GetByID(ctx context.Context, id uint64) (*model.StaffAccount, error) {
	const q = `SELECT id, email, password_hash, role, created_at FROM staff_accounts WHERE id = ?`
	var s model.StaffAccount
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.Email, &s.PasswordHash, &s.Role, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrStaffNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
