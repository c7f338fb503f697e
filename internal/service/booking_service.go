package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/queue"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
)

// BookingRequest is the input of Create and Update.  UserID is ignored on
// update: a ticket keeps its owner.
type BookingRequest struct {
	UserID     uint64
	MovieTitle string
	ShowTime   string
	Seats      []string
	Price      float64
}

// BookingService owns the ticket lifecycle.  Create and Update run the
// occupancy check and the write in one storage transaction; the store's
// (showing, seat) uniqueness guarantees that two overlapping bookings for
// the same showing never both commit.  Nothing about occupancy is cached.
type BookingService struct {
	store     repository.TicketStore
	publisher EventPublisher
	loc       *time.Location
	log       *zap.Logger
	now       func() time.Time
}

// NewBookingService wires the service.  loc is the venue timezone used for
// showtimes without an offset; nil means UTC.  publisher and log may be nil.
func NewBookingService(store repository.TicketStore, publisher EventPublisher, loc *time.Location, log *zap.Logger) *BookingService {
	if store == nil {
		panic("nil store passed to NewBookingService")
	}
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &BookingService{
		store:     store,
		publisher: publisher,
		loc:       loc,
		log:       log,
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

// Create books the requested seats for a new ticket.
func (s *BookingService) Create(ctx context.Context, req BookingRequest) (*model.Ticket, error) {
	if req.UserID == 0 {
		return nil, &ValidationError{Field: "user_id", Message: "is required"}
	}
	seats, key, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	now := s.now()
	ticket := &model.Ticket{
		UserID:     req.UserID,
		MovieTitle: key.Title,
		ShowTime:   key.Showtime,
		Price:      req.Price,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.TicketTx) error {
		if err := checkOccupancy(ctx, tx, key, seats, 0); err != nil {
			return err
		}
		if err := tx.InsertTicket(ctx, ticket); err != nil {
			return err
		}
		if err := tx.ReplaceSeats(ctx, ticket.ID, key, seatIDs(seats)); err != nil {
			return err
		}
		ticket.Seats = seatLabels(seats)
		return tx.AppendLog(ctx, newLog(ticket, model.TicketActionBooked, now))
	})
	if err != nil {
		return nil, s.abort(ctx, "create", key, seats, 0, err)
	}
	s.log.Info("ticket booked",
		zap.Uint64("ticket_id", ticket.ID),
		zap.Uint64("user_id", ticket.UserID),
		zap.String("showing", key.String()),
		zap.Strings("seats", ticket.Seats),
	)
	s.publish(ctx, model.TicketActionBooked, ticket)
	return ticket, nil
}

// Update replaces showing, price and seats of ticket id.  Seats the
// ticket already holds never conflict with the ticket itself.
func (s *BookingService) Update(ctx context.Context, id uint64, req BookingRequest) (*model.Ticket, error) {
	seats, key, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	now := s.now()
	var ticket *model.Ticket
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.TicketTx) error {
		cur, err := tx.GetTicket(ctx, id)
		if err != nil {
			return err
		}
		if err := checkOccupancy(ctx, tx, key, seats, id); err != nil {
			return err
		}
		cur.MovieTitle = key.Title
		cur.ShowTime = key.Showtime
		cur.Price = req.Price
		cur.UpdatedAt = now
		if err := tx.UpdateTicket(ctx, cur); err != nil {
			return err
		}
		if err := tx.ReplaceSeats(ctx, id, key, seatIDs(seats)); err != nil {
			return err
		}
		cur.Seats = seatLabels(seats)
		ticket = cur
		return tx.AppendLog(ctx, newLog(cur, model.TicketActionUpdated, now))
	})
	if err != nil {
		return nil, s.abort(ctx, "update", key, seats, id, err)
	}
	s.log.Info("ticket updated",
		zap.Uint64("ticket_id", ticket.ID),
		zap.String("showing", key.String()),
		zap.Strings("seats", ticket.Seats),
	)
	s.publish(ctx, model.TicketActionUpdated, ticket)
	return ticket, nil
}

// Delete removes a ticket and frees all of its seats.
func (s *BookingService) Delete(ctx context.Context, id uint64) error {
	now := s.now()
	var ticket *model.Ticket
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.TicketTx) error {
		cur, err := tx.GetTicket(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.AppendLog(ctx, newLog(cur, model.TicketActionCancelled, now)); err != nil {
			return err
		}
		ticket = cur
		return tx.DeleteTicket(ctx, id)
	})
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return ErrTicketNotFound
		}
		s.log.Error("delete ticket failed", zap.Uint64("ticket_id", id), zap.Error(err))
		return &WriteFailedError{Op: "delete", Err: err}
	}
	s.log.Info("ticket cancelled", zap.Uint64("ticket_id", id))
	s.publish(ctx, model.TicketActionCancelled, ticket)
	return nil
}

// List returns every ticket.
func (s *BookingService) List(ctx context.Context) ([]model.Ticket, error) {
	tickets, err := s.store.ListTickets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return tickets, nil
}

// ListByUser returns the tickets of one user.
func (s *BookingService) ListByUser(ctx context.Context, userID uint64) ([]model.Ticket, error) {
	tickets, err := s.store.ListTicketsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tickets of user %d: %w", userID, err)
	}
	return tickets, nil
}

// Get returns one ticket or ErrTicketNotFound.
func (s *BookingService) Get(ctx context.Context, id uint64) (*model.Ticket, error) {
	t, err := s.store.GetTicket(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("get ticket %d: %w", id, err)
	}
	return t, nil
}

// BookedSeats lists the labels already held for a showing.  When
// excludeTicketID is non-zero that ticket's seats are left out, which is
// what an edit form needs to show the seats still available to it.
func (s *BookingService) BookedSeats(ctx context.Context, title, showTime string, excludeTicketID uint64) ([]string, error) {
	key, err := s.showingKey(title, showTime)
	if err != nil {
		return nil, err
	}
	labels, err := s.store.BookedSeats(ctx, key, excludeTicketID)
	if err != nil {
		return nil, fmt.Errorf("booked seats for %s: %w", key, err)
	}
	return labels, nil
}

// Seats returns the seat catalog.
func (s *BookingService) Seats(ctx context.Context) ([]model.Seat, error) {
	seats, err := s.store.ListSeats(ctx)
	if err != nil {
		return nil, fmt.Errorf("list seats: %w", err)
	}
	return seats, nil
}

// Logs returns the ticket history of a user.
func (s *BookingService) Logs(ctx context.Context, userID uint64) ([]model.TicketLog, error) {
	logs, err := s.store.ListLogsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ticket logs of user %d: %w", userID, err)
	}
	return logs, nil
}

// prepare validates req, resolves its seat labels and builds the showing
// key, in that order.
func (s *BookingService) prepare(ctx context.Context, req BookingRequest) ([]model.Seat, model.ShowingKey, error) {
	if math.IsNaN(req.Price) || math.IsInf(req.Price, 0) || req.Price < 0 {
		return nil, model.ShowingKey{}, &ValidationError{Field: "price", Message: "must be a non-negative number"}
	}
	labels, err := dedupeLabels(req.Seats)
	if err != nil {
		return nil, model.ShowingKey{}, err
	}
	seats, err := s.store.ResolveSeats(ctx, labels)
	if err != nil {
		var missing *repository.MissingSeatError
		if errors.As(err, &missing) {
			return nil, model.ShowingKey{}, &SeatNotFoundError{Label: missing.Label}
		}
		return nil, model.ShowingKey{}, &WriteFailedError{Op: "resolve seats for", Err: err}
	}
	key, err := s.showingKey(req.MovieTitle, req.ShowTime)
	if err != nil {
		return nil, model.ShowingKey{}, err
	}
	return seats, key, nil
}

func (s *BookingService) showingKey(title, showTime string) (model.ShowingKey, error) {
	key, err := model.NewShowingKey(title, showTime, s.loc)
	switch {
	case err == nil:
		return key, nil
	case errors.Is(err, model.ErrEmptyTitle):
		return model.ShowingKey{}, &ValidationError{Field: "movie_title", Message: "is required"}
	default:
		return model.ShowingKey{}, &InvalidShowtimeError{Input: showTime, Err: err}
	}
}

// abort turns a failed transaction into one of the booking errors.  When
// storage reports seat contention the current occupancy is read again so
// the caller learns which seats were lost to the concurrent booking.
func (s *BookingService) abort(ctx context.Context, op string, key model.ShowingKey, seats []model.Seat, exclude uint64, err error) error {
	var conflict *SeatConflictError
	switch {
	case errors.As(err, &conflict):
		s.log.Info("seat conflict", zap.String("op", op), zap.String("showing", key.String()),
			zap.Strings("seats", conflict.Seats))
		return conflict
	case errors.Is(err, repository.ErrTicketNotFound):
		return ErrTicketNotFound
	case errors.Is(err, repository.ErrSeatTaken):
		taken, rerr := s.store.OccupiedSeatIDs(ctx, key, seatIDs(seats), exclude)
		if rerr == nil && len(taken) > 0 {
			conflict = &SeatConflictError{Key: key, Seats: labelsFor(taken, seats)}
			s.log.Info("seat conflict at commit", zap.String("op", op), zap.String("showing", key.String()),
				zap.Strings("seats", conflict.Seats))
			return conflict
		}
	}
	s.log.Error("ticket write failed", zap.String("op", op), zap.String("showing", key.String()), zap.Error(err))
	return &WriteFailedError{Op: op, Err: err}
}

func (s *BookingService) publish(ctx context.Context, action string, t *model.Ticket) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	ev := queue.TicketEvent{
		Action:     action,
		TicketID:   t.ID,
		UserID:     t.UserID,
		MovieTitle: t.MovieTitle,
		ShowTime:   t.ShowTime.UTC().Format(time.RFC3339),
		Seats:      t.Seats,
		Price:      t.Price,
		OccurredAt: s.now().Format(time.RFC3339),
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.Warn("publish ticket event failed", zap.String("action", action),
			zap.Uint64("ticket_id", t.ID), zap.Error(err))
	}
}

// checkOccupancy fails with a SeatConflictError when any requested seat is
// held by another ticket for key.
func checkOccupancy(ctx context.Context, tx repository.TicketTx, key model.ShowingKey, seats []model.Seat, exclude uint64) error {
	taken, err := tx.OccupiedSeatIDs(ctx, key, seatIDs(seats), exclude)
	if err != nil {
		return fmt.Errorf("occupancy check: %w", err)
	}
	if len(taken) > 0 {
		return &SeatConflictError{Key: key, Seats: labelsFor(taken, seats)}
	}
	return nil
}

// dedupeLabels trims labels and drops repeats, keeping first occurrence
// order.  Asking for the same seat twice claims it once.
func dedupeLabels(raw []string) ([]string, error) {
	if len(raw) == 0 {
		return nil, &ValidationError{Field: "seats", Message: "at least one seat is required"}
	}
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l == "" {
			return nil, &ValidationError{Field: "seats", Message: "seat labels must not be empty"}
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out, nil
}

func seatIDs(seats []model.Seat) []uint64 {
	ids := make([]uint64, 0, len(seats))
	for _, s := range seats {
		ids = append(ids, s.ID)
	}
	return ids
}

func seatLabels(seats []model.Seat) []string {
	labels := make([]string, 0, len(seats))
	for _, s := range seats {
		labels = append(labels, s.Label)
	}
	sort.Strings(labels)
	return labels
}

// labelsFor maps seat IDs back to the labels of the resolved seats.
func labelsFor(ids []uint64, seats []model.Seat) []string {
	byID := make(map[uint64]string, len(seats))
	for _, s := range seats {
		byID[s.ID] = s.Label
	}
	labels := make([]string, 0, len(ids))
	for _, id := range ids {
		if l, ok := byID[id]; ok {
			labels = append(labels, l)
		}
	}
	sort.Strings(labels)
	return labels
}

func newLog(t *model.Ticket, action string, at time.Time) *model.TicketLog {
	return &model.TicketLog{
		TicketID:   t.ID,
		UserID:     t.UserID,
		Action:     action,
		MovieTitle: t.MovieTitle,
		ShowTime:   t.ShowTime,
		Seats:      append([]string(nil), t.Seats...),
		Price:      t.Price,
		CreatedAt:  at,
	}
}
