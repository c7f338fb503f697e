package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidShowtime is returned when a showtime string cannot be parsed.
// Callers receive it wrapped together with the offending input.
var ErrInvalidShowtime = errors.New("invalid showtime")

// ErrEmptyTitle is returned when a showing is requested without a movie title.
var ErrEmptyTitle = errors.New("movie title is required")

// zonedLayouts carry their own offset, which is honoured as given.
var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
}

// localLayouts carry no offset and are read in the venue location.
var localLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ShowingKey scopes seat occupancy: two tickets can only conflict when
// their keys are equal.  Title is compared byte for byte and Showtime is
// always UTC truncated to the minute, so a key built by NewShowingKey can
// be compared with ==.
type ShowingKey struct {
	Title    string
	Showtime time.Time
}

// NewShowingKey builds the canonical key for a movie title and a raw
// showtime.  Showtimes with an explicit offset keep it; showtimes without
// one are interpreted in loc (UTC when loc is nil).  The result is
// converted to UTC and truncated to the minute.  There is no fallback:
// empty or unparseable input yields ErrInvalidShowtime.
func NewShowingKey(title, rawShowtime string, loc *time.Location) (ShowingKey, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return ShowingKey{}, ErrEmptyTitle
	}
	t, err := ParseShowtime(rawShowtime, loc)
	if err != nil {
		return ShowingKey{}, err
	}
	return ShowingKey{Title: title, Showtime: t}, nil
}

// ParseShowtime normalises a raw showtime to UTC minute precision.
func ParseShowtime(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidShowtime)
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NormalizeShowtime(t), nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return NormalizeShowtime(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidShowtime, raw)
}

// NormalizeShowtime pins an instant to the canonical form used by keys.
func NormalizeShowtime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Minute)
}

// String renders the key as title@YYYY-MM-DDTHH:MMZ for logs.
func (k ShowingKey) String() string {
	return k.Title + "@" + k.Showtime.Format("2006-01-02T15:04Z")
}
