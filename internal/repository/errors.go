// Package repository implements persistence over MySQL for bookings,
// tables and staff accounts.  Booking methods honor the sentinel error
// contract of the booking package's Store interface; repository-local
// sentinels below cover the remaining cases.
package repository

import "errors"

// ErrEmailExists is returned when creating a staff account with an
// email address that is already registered.  Handlers should translate
// this into an HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")

// ErrStaffNotFound is returned when no staff account matches the given
// credentials or identifier.
var ErrStaffNotFound = errors.New("staff account not found")
