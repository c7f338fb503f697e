package repository

import (
	"context"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// TicketStore is the storage contract the booking core depends on.  It
// exposes plain reads plus WithinTx, the only way to change tickets.
// Every read hits current committed state; implementations must not
// cache occupancy between calls.
type TicketStore interface {
	// ListSeats returns the seat catalog ordered by label.
	ListSeats(ctx context.Context) ([]model.Seat, error)
	// ResolveSeats maps labels to seats in request order.  Unknown labels
	// produce a *MissingSeatError.
	ResolveSeats(ctx context.Context, labels []string) ([]model.Seat, error)
	// SeedSeats adds the given labels to the catalog, ignoring labels
	// that already exist.
	SeedSeats(ctx context.Context, labels []string) error

	// WithinTx runs fn in one atomic unit.  When fn returns an error or
	// the commit fails, nothing fn wrote is kept.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx TicketTx) error) error

	// OccupiedSeatIDs returns the candidates currently assigned to a
	// ticket other than excludeTicketID for the showing.  Pass 0 to
	// exclude nothing.
	OccupiedSeatIDs(ctx context.Context, key model.ShowingKey, candidates []uint64, excludeTicketID uint64) ([]uint64, error)
	// BookedSeats returns the labels of every seat held for the showing,
	// optionally ignoring one ticket.
	BookedSeats(ctx context.Context, key model.ShowingKey, excludeTicketID uint64) ([]string, error)

	ListTickets(ctx context.Context) ([]model.Ticket, error)
	ListTicketsByUser(ctx context.Context, userID uint64) ([]model.Ticket, error)
	GetTicket(ctx context.Context, id uint64) (*model.Ticket, error)
	ListLogsByUser(ctx context.Context, userID uint64) ([]model.TicketLog, error)
}

// TicketTx is the set of operations available inside WithinTx.
type TicketTx interface {
	// OccupiedSeatIDs behaves like TicketStore.OccupiedSeatIDs but sees
	// the writes already made in this transaction.
	OccupiedSeatIDs(ctx context.Context, key model.ShowingKey, candidates []uint64, excludeTicketID uint64) ([]uint64, error)
	// GetTicket loads a ticket and locks it for the rest of the
	// transaction.  Missing tickets yield ErrTicketNotFound.
	GetTicket(ctx context.Context, id uint64) (*model.Ticket, error)
	// InsertTicket stores a new ticket row and sets t.ID.
	InsertTicket(ctx context.Context, t *model.Ticket) error
	// UpdateTicket overwrites title, showtime and price of t.ID.
	UpdateTicket(ctx context.Context, t *model.Ticket) error
	// DeleteTicket removes a ticket and, by cascade, its seats.
	DeleteTicket(ctx context.Context, id uint64) error
	// ReplaceSeats drops every seat assignment of the ticket and assigns
	// seatIDs under key instead.  A seat held by another ticket for the
	// same showing yields ErrSeatTaken.
	ReplaceSeats(ctx context.Context, ticketID uint64, key model.ShowingKey, seatIDs []uint64) error
	// AppendLog records a ticket activity entry.
	AppendLog(ctx context.Context, l *model.TicketLog) error
}
