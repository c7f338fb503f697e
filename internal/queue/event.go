// Package queue defines the ticket events exchanged over the message broker
// and the background consumer that records them.
package queue

// TicketEventsQueue is the durable queue ticket events are routed to.
const TicketEventsQueue = "ticket.events"

// TicketEvent is published after a ticket transaction commits.  It carries
// enough for downstream consumers to log or notify without querying the
// primary database.
type TicketEvent struct {
	Action     string   `json:"action"`
	TicketID   uint64   `json:"ticket_id"`
	UserID     uint64   `json:"user_id"`
	MovieTitle string   `json:"movie_title"`
	ShowTime   string   `json:"show_time"`
	Seats      []string `json:"seats"`
	Price      float64  `json:"price"`
	OccurredAt string   `json:"occurred_at"`
}
