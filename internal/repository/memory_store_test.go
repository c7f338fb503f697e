package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

var testKey = model.ShowingKey{Title: "Dune", Showtime: time.Date(2024, 6, 1, 19, 0, 0, 0, time.UTC)}

func seededStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	require.NoError(t, s.SeedSeats(context.Background(), []string{"A1", "A2", "A3", "B1"}))
	return s
}

func seatID(t *testing.T, s *MemoryStore, label string) uint64 {
	t.Helper()
	seats, err := s.ResolveSeats(context.Background(), []string{label})
	require.NoError(t, err)
	return seats[0].ID
}

func book(ctx context.Context, s *MemoryStore, user uint64, key model.ShowingKey, seatIDs ...uint64) (uint64, error) {
	var id uint64
	err := s.WithinTx(ctx, func(ctx context.Context, tx TicketTx) error {
		tk := &model.Ticket{UserID: user, MovieTitle: key.Title, ShowTime: key.Showtime}
		if err := tx.InsertTicket(ctx, tk); err != nil {
			return err
		}
		id = tk.ID
		return tx.ReplaceSeats(ctx, tk.ID, key, seatIDs)
	})
	return id, err
}

func TestMemoryStore_SeedIsIdempotent(t *testing.T) {
	s := seededStore(t)
	require.NoError(t, s.SeedSeats(context.Background(), []string{"A1", "C1"}))

	seats, err := s.ListSeats(context.Background())
	require.NoError(t, err)
	labels := make([]string, 0, len(seats))
	for _, seat := range seats {
		labels = append(labels, seat.Label)
	}
	assert.Equal(t, []string{"A1", "A2", "A3", "B1", "C1"}, labels)
}

func TestMemoryStore_ResolveSeats(t *testing.T) {
	s := seededStore(t)

	seats, err := s.ResolveSeats(context.Background(), []string{"B1", "A1"})
	require.NoError(t, err)
	require.Len(t, seats, 2)
	assert.Equal(t, "B1", seats[0].Label)
	assert.Equal(t, "A1", seats[1].Label)

	_, err = s.ResolveSeats(context.Background(), []string{"A1", "Q7"})
	var missing *MissingSeatError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "Q7", missing.Label)
	assert.ErrorIs(t, err, ErrSeatNotFound)
}

func TestMemoryStore_ClaimsAreScopedToShowing(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)
	a1 := seatID(t, s, "A1")

	_, err := book(ctx, s, 1, testKey, a1)
	require.NoError(t, err)

	_, err = book(ctx, s, 2, testKey, a1)
	assert.ErrorIs(t, err, ErrSeatTaken)

	later := model.ShowingKey{Title: testKey.Title, Showtime: testKey.Showtime.Add(3 * time.Hour)}
	_, err = book(ctx, s, 2, later, a1)
	assert.NoError(t, err)

	booked, err := s.BookedSeats(ctx, testKey, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1"}, booked)
}

func TestMemoryStore_RollbackKeepsNothing(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)
	a1 := seatID(t, s, "A1")

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(ctx context.Context, tx TicketTx) error {
		tk := &model.Ticket{UserID: 1, MovieTitle: testKey.Title, ShowTime: testKey.Showtime}
		require.NoError(t, tx.InsertTicket(ctx, tk))
		require.NoError(t, tx.ReplaceSeats(ctx, tk.ID, testKey, []uint64{a1}))
		require.NoError(t, tx.AppendLog(ctx, &model.TicketLog{TicketID: tk.ID, UserID: 1, Action: model.TicketActionBooked}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	tickets, err := s.ListTickets(ctx)
	require.NoError(t, err)
	assert.Empty(t, tickets)
	logs, err := s.ListLogsByUser(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, logs)
	taken, err := s.OccupiedSeatIDs(ctx, testKey, []uint64{a1}, 0)
	require.NoError(t, err)
	assert.Empty(t, taken)
}

func TestMemoryStore_CommitRejectsSeatClaimedMeanwhile(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)
	a2 := seatID(t, s, "A2")

	err := s.WithinTx(ctx, func(ctx context.Context, tx TicketTx) error {
		tk := &model.Ticket{UserID: 1, MovieTitle: testKey.Title, ShowTime: testKey.Showtime}
		require.NoError(t, tx.InsertTicket(ctx, tk))
		require.NoError(t, tx.ReplaceSeats(ctx, tk.ID, testKey, []uint64{a2}))

		// a concurrent booker commits first
		_, err := book(ctx, s, 2, testKey, a2)
		require.NoError(t, err)
		return nil
	})
	assert.ErrorIs(t, err, ErrSeatTaken)

	tickets, err := s.ListTickets(ctx)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, uint64(2), tickets[0].UserID)
}

func TestMemoryStore_UpdateReplacesClaims(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)
	a1, a2 := seatID(t, s, "A1"), seatID(t, s, "A2")

	id, err := book(ctx, s, 1, testKey, a1)
	require.NoError(t, err)

	err = s.WithinTx(ctx, func(ctx context.Context, tx TicketTx) error {
		tk, err := tx.GetTicket(ctx, id)
		if err != nil {
			return err
		}
		taken, err := tx.OccupiedSeatIDs(ctx, testKey, []uint64{a1, a2}, id)
		require.NoError(t, err)
		assert.Empty(t, taken)
		tk.Price = 9
		if err := tx.UpdateTicket(ctx, tk); err != nil {
			return err
		}
		return tx.ReplaceSeats(ctx, id, testKey, []uint64{a2})
	})
	require.NoError(t, err)

	got, err := s.GetTicket(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"A2"}, got.Seats)
	assert.Equal(t, 9.0, got.Price)

	_, err = book(ctx, s, 2, testKey, a1)
	assert.NoError(t, err, "the released seat is free again")
}

func TestMemoryStore_DeleteReleasesSeats(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)
	a3 := seatID(t, s, "A3")

	id, err := book(ctx, s, 1, testKey, a3)
	require.NoError(t, err)

	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx TicketTx) error {
		return tx.DeleteTicket(ctx, id)
	}))
	_, err = s.GetTicket(ctx, id)
	assert.ErrorIs(t, err, ErrTicketNotFound)

	err = s.WithinTx(ctx, func(ctx context.Context, tx TicketTx) error {
		return tx.DeleteTicket(ctx, id)
	})
	assert.ErrorIs(t, err, ErrTicketNotFound)

	_, err = book(ctx, s, 2, testKey, a3)
	assert.NoError(t, err)
}

func TestMemoryStore_CancelledContextDoesNotCommit(t *testing.T) {
	s := seededStore(t)
	a1 := seatID(t, s, "A1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := book(ctx, s, 1, testKey, a1)
	assert.ErrorIs(t, err, context.Canceled)

	tickets, err := s.ListTickets(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tickets)
}
