package repository

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// FeedbackStore persists user feedback.  Feedback has no conflict rules;
// it only needs create and list.
type FeedbackStore interface {
	Create(ctx context.Context, f *model.Feedback) error
	List(ctx context.Context) ([]model.Feedback, error)
}

// FeedbackRepo stores feedback in the feedbacks table.
type FeedbackRepo struct {
	db *sql.DB
}

// NewFeedbackRepo returns a FeedbackRepo bound to db.
func NewFeedbackRepo(db *sql.DB) *FeedbackRepo { return &FeedbackRepo{db: db} }

// Create inserts f and sets its ID.
func (r *FeedbackRepo) Create(ctx context.Context, f *model.Feedback) error {
	const q = `INSERT INTO feedbacks (user_id, message, rating, image_key, image_url, created_at)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, f.UserID, f.Message, f.Rating,
		nullIfEmpty(f.ImageKey), nullIfEmpty(f.ImageURL), f.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)
	return nil
}

// List returns all feedback, newest first.
func (r *FeedbackRepo) List(ctx context.Context) ([]model.Feedback, error) {
	const q = `SELECT id, user_id, message, rating, image_key, image_url, created_at
	           FROM feedbacks ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Feedback{}
	for rows.Next() {
		var f model.Feedback
		var key, url sql.NullString
		if err := rows.Scan(&f.ID, &f.UserID, &f.Message, &f.Rating, &key, &url, &f.CreatedAt); err != nil {
			return nil, err
		}
		f.ImageKey = key.String
		f.ImageURL = url.String
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// MemoryFeedbackStore keeps feedback in process memory.
type MemoryFeedbackStore struct {
	mu     sync.RWMutex
	items  []model.Feedback
	nextID uint64
}

// NewMemoryFeedbackStore returns an empty store.
func NewMemoryFeedbackStore() *MemoryFeedbackStore { return &MemoryFeedbackStore{} }

func (s *MemoryFeedbackStore) Create(_ context.Context, f *model.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	f.ID = s.nextID
	s.items = append(s.items, *f)
	return nil
}

func (s *MemoryFeedbackStore) List(_ context.Context) ([]model.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Feedback, len(s.items))
	copy(out, s.items)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}
