package repository // repository defines data access for seats

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
	"strings"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// SeatRepo provides read access to the seat catalog and idempotent
// seeding.  Seats are shared by every showing and never mutated once
// created.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// List retrieves every seat ordered by label.
func (r *SeatRepo) List(ctx context.Context) ([]model.Seat, error) {
	const q = `SELECT seat_id, seat_label FROM seats ORDER BY seat_label`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []model.Seat{}
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.Label); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ResolveLabels looks up all labels with one query and returns the seats
// in the order the labels were given.  When a label is missing the
// returned error is a *MissingSeatError naming the first such label.
// Labels are expected to be unique; callers dedupe before resolving.
func (r *SeatRepo) ResolveLabels(ctx context.Context, labels []string) ([]model.Seat, error) {
	if len(labels) == 0 {
		return []model.Seat{}, nil
	}
	query := `SELECT seat_id, seat_label FROM seats WHERE seat_label IN (` + placeholders(len(labels)) + `)`
	args := make([]interface{}, 0, len(labels))
	for _, l := range labels {
		args = append(args, l)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byLabel := make(map[string]model.Seat, len(labels))
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.Label); err != nil {
			return nil, err
		}
		byLabel[s.Label] = s
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orderByLabels(labels, byLabel)
}

// CreateBulk inserts the labels in a single statement.  Existing labels
// are left untouched so seeding can run on every start.
func (r *SeatRepo) CreateBulk(ctx context.Context, labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	query := `INSERT IGNORE INTO seats (seat_label) VALUES `
	args := make([]interface{}, 0, len(labels))
	for i, l := range labels {
		if i > 0 {
			query += ","
		}
		query += "(?)"
		args = append(args, l)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// orderByLabels returns the seats for labels in request order, failing on
// the first label absent from byLabel.
func orderByLabels(labels []string, byLabel map[string]model.Seat) ([]model.Seat, error) {
	out := make([]model.Seat, 0, len(labels))
	for _, l := range labels {
		s, ok := byLabel[l]
		if !ok {
			return nil, &MissingSeatError{Label: l}
		}
		out = append(out, s)
	}
	return out, nil
}

// placeholders returns "?, ?, ?" with n markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
