package model

import "time"

// Staff roles.  ADMIN can mutate bookings; DOOR holds the door-staff
// capability required to verify and commit check-ins.
const (
	RoleAdmin = "ADMIN"
	RoleDoor  = "DOOR"
)

// StaffAccount is a venue staff login.  Accounts are seeded by the
// operator; there is no open registration.
type StaffAccount struct {
	ID           uint64    // staff_accounts.id
	Email        string    // staff_accounts.email
	PasswordHash string    // staff_accounts.password_hash (bcrypt)
	Role         string    // staff_accounts.role (ADMIN, DOOR)
	CreatedAt    time.Time // staff_accounts.created_at
}
