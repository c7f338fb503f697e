package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// TicketRepo is the MySQL implementation of TicketStore.  Tickets live in
// the tickets table; seat assignments live in ticket_seats, which repeats
// the ticket's movie_title and show_time so the unique key
// uq_showing_seat (movie_title, show_time, seat_id) can reject a second
// assignment of a seat for the same showing.  That key, not application
// locking, is what keeps concurrent bookers from double-booking.
type TicketRepo struct {
	db        *sql.DB
	seats     *SeatRepo
	txTimeout time.Duration
}

// NewTicketRepo returns a TicketRepo bound to db.  txTimeout bounds every
// WithinTx call; zero means the caller's context alone decides.
func NewTicketRepo(db *sql.DB, txTimeout time.Duration) *TicketRepo {
	return &TicketRepo{db: db, seats: NewSeatRepo(db), txTimeout: txTimeout}
}

// DB exposes the underlying handle, mainly for health checks.
func (r *TicketRepo) DB() *sql.DB { return r.db }

// ListSeats returns the seat catalog ordered by label.
func (r *TicketRepo) ListSeats(ctx context.Context) ([]model.Seat, error) {
	return r.seats.List(ctx)
}

// ResolveSeats maps labels to seats in request order.
func (r *TicketRepo) ResolveSeats(ctx context.Context, labels []string) ([]model.Seat, error) {
	return r.seats.ResolveLabels(ctx, labels)
}

// SeedSeats adds missing labels to the catalog.
func (r *TicketRepo) SeedSeats(ctx context.Context, labels []string) error {
	return r.seats.CreateBulk(ctx, labels)
}

// WithinTx runs fn inside a READ COMMITTED transaction so occupancy reads
// observe the latest committed assignments.  The transaction is rolled
// back unless fn succeeds and the commit goes through.  Errors from fn
// are returned as is; begin and commit failures are wrapped, with seat
// contention surfaced as ErrSeatTaken.
func (r *TicketRepo) WithinTx(ctx context.Context, fn func(ctx context.Context, tx TicketTx) error) error {
	if r.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.txTimeout)
		defer cancel()
	}
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(ctx, &mysqlTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", classifyWrite(err))
	}
	committed = true
	return nil
}

// OccupiedSeatIDs reads current assignments outside of any transaction.
func (r *TicketRepo) OccupiedSeatIDs(ctx context.Context, key model.ShowingKey, candidates []uint64, excludeTicketID uint64) ([]uint64, error) {
	return occupiedSeatIDs(ctx, r.db, key, candidates, excludeTicketID)
}

// BookedSeats lists the labels held for a showing, ordered by label.
// Auto increment IDs start at 1, so excludeTicketID 0 excludes nothing.
func (r *TicketRepo) BookedSeats(ctx context.Context, key model.ShowingKey, excludeTicketID uint64) ([]string, error) {
	const q = `SELECT s.seat_label
	           FROM ticket_seats ts
	           JOIN seats s ON s.seat_id = ts.seat_id
	           WHERE ts.movie_title = ? AND ts.show_time = ? AND ts.ticket_id <> ?
	           ORDER BY s.seat_label`
	rows, err := r.db.QueryContext(ctx, q, key.Title, key.Showtime, excludeTicketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	labels := []string{}
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return labels, nil
}

// ticketSelect loads tickets with their seat labels folded into one
// column.  Callers append WHERE and then ticketGroupBy.
const ticketSelect = `SELECT t.id, t.user_id, t.movie_title, t.show_time, t.price, t.created_at, t.updated_at,
                             GROUP_CONCAT(s.seat_label ORDER BY s.seat_label SEPARATOR ',')
                      FROM tickets t
                      LEFT JOIN ticket_seats ts ON ts.ticket_id = t.id
                      LEFT JOIN seats s ON s.seat_id = ts.seat_id`

const ticketGroupBy = ` GROUP BY t.id ORDER BY t.id`

// ListTickets returns every ticket with its seats.
func (r *TicketRepo) ListTickets(ctx context.Context) ([]model.Ticket, error) {
	return r.queryTickets(ctx, ticketSelect+ticketGroupBy)
}

// ListTicketsByUser returns the tickets owned by userID.
func (r *TicketRepo) ListTicketsByUser(ctx context.Context, userID uint64) ([]model.Ticket, error) {
	return r.queryTickets(ctx, ticketSelect+` WHERE t.user_id = ?`+ticketGroupBy, userID)
}

// GetTicket returns one ticket or ErrTicketNotFound.
func (r *TicketRepo) GetTicket(ctx context.Context, id uint64) (*model.Ticket, error) {
	list, err := r.queryTickets(ctx, ticketSelect+` WHERE t.id = ?`+ticketGroupBy, id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrTicketNotFound
	}
	return &list[0], nil
}

func (r *TicketRepo) queryTickets(ctx context.Context, query string, args ...interface{}) ([]model.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := []model.Ticket{}
	for rows.Next() {
		var t model.Ticket
		var seats sql.NullString
		if err := rows.Scan(&t.ID, &t.UserID, &t.MovieTitle, &t.ShowTime, &t.Price,
			&t.CreatedAt, &t.UpdatedAt, &seats); err != nil {
			return nil, err
		}
		t.Seats = splitLabels(seats.String)
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tickets, nil
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func occupiedSeatIDs(ctx context.Context, q queryer, key model.ShowingKey, candidates []uint64, excludeTicketID uint64) ([]uint64, error) {
	if len(candidates) == 0 {
		return []uint64{}, nil
	}
	query := `SELECT seat_id FROM ticket_seats
	          WHERE movie_title = ? AND show_time = ? AND ticket_id <> ?
	          AND seat_id IN (` + placeholders(len(candidates)) + `)
	          ORDER BY seat_id`
	args := make([]interface{}, 0, len(candidates)+3)
	args = append(args, key.Title, key.Showtime, excludeTicketID)
	for _, id := range candidates {
		args = append(args, id)
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	taken := []uint64{}
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		taken = append(taken, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return taken, nil
}

func splitLabels(joined string) []string {
	if joined == "" {
		return []string{}
	}
	return strings.Split(joined, ",")
}

// mysqlTx implements TicketTx on top of a *sql.Tx.
type mysqlTx struct {
	tx *sql.Tx
}

func (m *mysqlTx) OccupiedSeatIDs(ctx context.Context, key model.ShowingKey, candidates []uint64, excludeTicketID uint64) ([]uint64, error) {
	return occupiedSeatIDs(ctx, m.tx, key, candidates, excludeTicketID)
}

// GetTicket locks the ticket row with FOR UPDATE so a concurrent delete
// or update of the same ticket waits for this transaction.
func (m *mysqlTx) GetTicket(ctx context.Context, id uint64) (*model.Ticket, error) {
	const q = `SELECT id, user_id, movie_title, show_time, price, created_at, updated_at
	           FROM tickets WHERE id = ? FOR UPDATE`
	var t model.Ticket
	err := m.tx.QueryRowContext(ctx, q, id).Scan(
		&t.ID, &t.UserID, &t.MovieTitle, &t.ShowTime, &t.Price, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	const seatQ = `SELECT s.seat_label
	               FROM ticket_seats ts
	               JOIN seats s ON s.seat_id = ts.seat_id
	               WHERE ts.ticket_id = ?
	               ORDER BY s.seat_label`
	rows, err := m.tx.QueryContext(ctx, seatQ, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	t.Seats = []string{}
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		t.Seats = append(t.Seats, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (m *mysqlTx) InsertTicket(ctx context.Context, t *model.Ticket) error {
	const q = `INSERT INTO tickets (user_id, movie_title, show_time, price, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := m.tx.ExecContext(ctx, q, t.UserID, t.MovieTitle, t.ShowTime, t.Price, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

func (m *mysqlTx) UpdateTicket(ctx context.Context, t *model.Ticket) error {
	const q = `UPDATE tickets SET movie_title = ?, show_time = ?, price = ?, updated_at = ? WHERE id = ?`
	_, err := m.tx.ExecContext(ctx, q, t.MovieTitle, t.ShowTime, t.Price, t.UpdatedAt, t.ID)
	return err
}

// DeleteTicket relies on ON DELETE CASCADE to drop ticket_seats rows.
func (m *mysqlTx) DeleteTicket(ctx context.Context, id uint64) error {
	res, err := m.tx.ExecContext(ctx, `DELETE FROM tickets WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTicketNotFound
	}
	return nil
}

// ReplaceSeats deletes the ticket's assignments and bulk inserts the new
// set.  A duplicate on uq_showing_seat becomes ErrSeatTaken.
func (m *mysqlTx) ReplaceSeats(ctx context.Context, ticketID uint64, key model.ShowingKey, seatIDs []uint64) error {
	if _, err := m.tx.ExecContext(ctx, `DELETE FROM ticket_seats WHERE ticket_id = ?`, ticketID); err != nil {
		return classifyWrite(err)
	}
	if len(seatIDs) == 0 {
		return nil
	}
	query := `INSERT INTO ticket_seats (ticket_id, seat_id, movie_title, show_time) VALUES `
	args := make([]interface{}, 0, len(seatIDs)*4)
	for i, sid := range seatIDs {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, ticketID, sid, key.Title, key.Showtime)
	}
	_, err := m.tx.ExecContext(ctx, query, args...)
	return classifyWrite(err)
}
