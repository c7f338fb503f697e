// Package repository defines the storage contract used by the booking
// core together with its MySQL and in-memory implementations.  The
// sentinel values below allow higher layers such as services and
// handlers to tell failure scenarios apart with errors.Is.
package repository

import (
	"errors"
	"fmt"
)

// ErrSeatNotFound is returned when a seat label is not part of the
// catalog.  It is usually wrapped in a *MissingSeatError that names the
// label.
var ErrSeatNotFound = errors.New("seat not found")

// ErrTicketNotFound is returned when a ticket lookup, update or delete
// targets an ID that does not exist.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrSeatTaken signals that a write would assign a seat that another
// ticket already holds for the same showing.  Storage reports it when
// the (showing, seat) uniqueness rule rejects an insert or when the
// database aborts the transaction to resolve contention on those rows.
var ErrSeatTaken = errors.New("seat already assigned for this showing")

// MissingSeatError carries the first label that could not be resolved.
type MissingSeatError struct {
	Label string
}

func (e *MissingSeatError) Error() string {
	return fmt.Sprintf("seat %q not found", e.Label)
}

// Is reports whether target is ErrSeatNotFound.
func (e *MissingSeatError) Is(target error) bool { return target == ErrSeatNotFound }
