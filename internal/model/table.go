package model

import "time"

// Floors a table can be located on.
const (
	FloorUpstairs   = "upstairs"
	FloorDownstairs = "downstairs"
)

// Table describes a physical table in the venue.  Tables are read-only
// reference data to this service: the inventory is small and fixed, and
// bookings claim tables by ID through the booking_tables junction.
//
// Fields:
//
//	ID          – primary key identifier.
//	TableNumber – number printed on the physical table.
//	Floor       – floor the table sits on (upstairs, downstairs).
//	MinCapacity – smallest party the table seats.
//	MaxCapacity – largest party the table seats.
//	CreatedAt   – creation timestamp.
type Table struct {
	ID          uint64    // tables.id
	TableNumber uint32    // tables.table_number
	Floor       string    // tables.floor
	MinCapacity int       // tables.min_capacity
	MaxCapacity int       // tables.max_capacity
	CreatedAt   time.Time // tables.created_at
}
