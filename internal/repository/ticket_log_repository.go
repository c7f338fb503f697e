package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// AppendLog inserts a ticket_logs row inside the booking transaction so
// the history can never disagree with the committed tickets.
func (m *mysqlTx) AppendLog(ctx context.Context, l *model.TicketLog) error {
	const q = `INSERT INTO ticket_logs (ticket_id, user_id, action, movie_title, show_time, seats, price, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := m.tx.ExecContext(ctx, q, l.TicketID, l.UserID, l.Action, l.MovieTitle, l.ShowTime,
		strings.Join(l.Seats, ","), l.Price, l.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	return nil
}

// ListLogsByUser returns a user's ticket history, oldest first.
func (r *TicketRepo) ListLogsByUser(ctx context.Context, userID uint64) ([]model.TicketLog, error) {
	const q = `SELECT id, ticket_id, user_id, action, movie_title, show_time, seats, price, created_at
	           FROM ticket_logs
	           WHERE user_id = ?
	           ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []model.TicketLog{}
	for rows.Next() {
		var l model.TicketLog
		var seats string
		if err := rows.Scan(&l.ID, &l.TicketID, &l.UserID, &l.Action, &l.MovieTitle, &l.ShowTime,
			&seats, &l.Price, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.Seats = splitLabels(seats)
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}
