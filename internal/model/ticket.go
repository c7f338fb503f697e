package model

import "time"

// Ticket is a booking made by a user for one showing.  The showing is
// identified by MovieTitle and ShowTime (see ShowingKey).  A ticket owns
// its seat assignments; deleting the ticket frees every seat it held.
//
// Fields:
//  ID         – primary key identifier.
//  UserID     – user who owns the ticket.
//  MovieTitle – exact movie title, case-sensitive.
//  ShowTime   – showing start in UTC, minute precision.
//  Price      – price paid for the whole ticket.
//  Seats      – labels of the seats assigned to the ticket, ordered.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Ticket struct {
	ID         uint64    `json:"ticket_id"`   // tickets.id
	UserID     uint64    `json:"user_id"`     // tickets.user_id
	MovieTitle string    `json:"movie_title"` // tickets.movie_title
	ShowTime   time.Time `json:"show_time"`   // tickets.show_time
	Price      float64   `json:"price"`       // tickets.price
	Seats      []string  `json:"seats"`       // labels joined from ticket_seats
	CreatedAt  time.Time `json:"created_at"`  // tickets.created_at
	UpdatedAt  time.Time `json:"updated_at"`  // tickets.updated_at
}

// Key returns the showing the ticket belongs to.
func (t *Ticket) Key() ShowingKey {
	return ShowingKey{Title: t.MovieTitle, Showtime: NormalizeShowtime(t.ShowTime)}
}

// Ticket log actions.
const (
	TicketActionBooked    = "BOOKED"
	TicketActionUpdated   = "UPDATED"
	TicketActionCancelled = "CANCELLED"
)

// TicketLog is one entry of a user's ticket activity history.  Entries
// are written in the same transaction as the change they describe and
// outlive the ticket itself.
type TicketLog struct {
	ID         uint64    `json:"id"`          // ticket_logs.id
	TicketID   uint64    `json:"ticket_id"`   // ticket_logs.ticket_id (not a foreign key)
	UserID     uint64    `json:"user_id"`     // ticket_logs.user_id
	Action     string    `json:"action"`      // BOOKED | UPDATED | CANCELLED
	MovieTitle string    `json:"movie_title"` // ticket_logs.movie_title
	ShowTime   time.Time `json:"show_time"`   // ticket_logs.show_time
	Seats      []string  `json:"seats"`       // ticket_logs.seats (comma separated in storage)
	Price      float64   `json:"price"`       // ticket_logs.price
	CreatedAt  time.Time `json:"created_at"`  // ticket_logs.created_at
}
