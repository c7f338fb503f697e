package model

import "time"

// Feedback is a free-form message left by a user, optionally with an
// image kept in blob storage.  It has no relation to seat occupancy.
type Feedback struct {
	ID        uint64    `json:"id"`                  // feedbacks.id
	UserID    uint64    `json:"user_id"`             // feedbacks.user_id
	Message   string    `json:"message"`             // feedbacks.message
	Rating    int       `json:"rating"`              // feedbacks.rating (1-5, 0 when not given)
	ImageKey  string    `json:"-"`                   // feedbacks.image_key
	ImageURL  string    `json:"image_url,omitempty"` // feedbacks.image_url
	CreatedAt time.Time `json:"created_at"`          // feedbacks.created_at
}
