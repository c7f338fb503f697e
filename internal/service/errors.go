package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
)

// Booking errors.  Every booking failure matches exactly one of the first
// four with errors.Is; the typed errors below carry the details a client
// needs to correct its request.
var (
	ErrSeatNotFound    = errors.New("seat not found")
	ErrInvalidShowtime = errors.New("invalid showtime")
	ErrSeatConflict    = errors.New("seats already booked for this showing")
	ErrWriteFailed     = errors.New("failed to write ticket")

	ErrValidation     = errors.New("invalid request")
	ErrTicketNotFound = repository.ErrTicketNotFound
)

// SeatNotFoundError names the label that is not part of the catalog.
type SeatNotFoundError struct {
	Label string
}

func (e *SeatNotFoundError) Error() string {
	return fmt.Sprintf("seat %q not found", e.Label)
}

func (e *SeatNotFoundError) Is(target error) bool { return target == ErrSeatNotFound }

// InvalidShowtimeError keeps the raw input that failed to parse.
type InvalidShowtimeError struct {
	Input string
	Err   error
}

func (e *InvalidShowtimeError) Error() string {
	return fmt.Sprintf("invalid showtime %q", e.Input)
}

func (e *InvalidShowtimeError) Is(target error) bool { return target == ErrInvalidShowtime }
func (e *InvalidShowtimeError) Unwrap() error        { return e.Err }

// SeatConflictError lists the requested seats that other tickets already
// hold for the showing.
type SeatConflictError struct {
	Key   model.ShowingKey
	Seats []string
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seats %s already booked for %s", strings.Join(e.Seats, ","), e.Key)
}

func (e *SeatConflictError) Is(target error) bool { return target == ErrSeatConflict }

// WriteFailedError wraps a storage failure.  The cause is for logs only.
type WriteFailedError struct {
	Op  string
	Err error
}

func (e *WriteFailedError) Error() string {
	return fmt.Sprintf("%s ticket: %v", e.Op, e.Err)
}

func (e *WriteFailedError) Is(target error) bool { return target == ErrWriteFailed }
func (e *WriteFailedError) Unwrap() error        { return e.Err }

// ValidationError reports a malformed request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
