package booking

import "github.com/iliyamo/venue-table-reservation/internal/model"

// Actor identifies who is performing an operation.  It is passed
// explicitly into every domain operation instead of being pulled from
// ambient request state, so the state machine and verifier can be
// exercised without an HTTP context.
type Actor struct {
	ID   uint64 // staff account ID
	Role string // model.RoleAdmin or model.RoleDoor
}

// CanManageBookings reports whether the actor may mutate bookings.
func (a Actor) CanManageBookings() bool {
	return a.Role == model.RoleAdmin
}

// CanCheckIn reports whether the actor holds the door-staff capability.
// Admins can also work the door.
func (a Actor) CanCheckIn() bool {
	return a.Role == model.RoleDoor || a.Role == model.RoleAdmin
}
