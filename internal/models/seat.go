package models

import (
	"fmt"
	"strings"
)

// DefaultTotalSeats is the size of the seat grid.
const DefaultTotalSeats = 121

// Seat is the derived occupancy view of one desk.
type Seat struct {
	Number        int       `json:"number"`
	Occupants     []Student `json:"occupants"`
	IsLockerTaken bool      `json:"is_locker_taken"`
	FreeSlots     Slots     `json:"free_slots"`
}

// SeatAvailability answers an availability probe for a seat.
type SeatAvailability struct {
	SeatNumber      int   `json:"seat_number"`
	RequestedSlots  Slots `json:"requested_slots"`
	SlotsAvailable  bool  `json:"slots_available"`
	LockerAvailable bool  `json:"locker_available"`
}

// ConflictReason names the seat invariant a mutation would break.
type ConflictReason string

const (
	ConflictSlotOverlap   ConflictReason = "SLOT_OVERLAP"
	ConflictLockerOverlap ConflictReason = "LOCKER_OVERLAP"
)

// SeatConflictError is returned when a seat assignment collides with current occupants.
type SeatConflictError struct {
	Reason     ConflictReason `json:"reason"`
	SeatNumber int            `json:"seat_number"`
	Slots      Slots          `json:"slots,omitempty"`
	HolderIDs  []string       `json:"holder_ids,omitempty"`
}

// Error implements the error interface.
func (e *SeatConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Reason {
	case ConflictLockerOverlap:
		return fmt.Sprintf("locker on seat %d is already taken", e.SeatNumber)
	default:
		return fmt.Sprintf("seat %d slots %s already taken", e.SeatNumber, strings.Join(e.Slots.Strings(), ","))
	}
}
