package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// claimKey identifies one (showing, seat) pair.  It plays the role of the
// uq_showing_seat unique key of the MySQL schema.
type claimKey struct {
	title    string
	showtime int64
	seatID   uint64
}

func newClaimKey(key model.ShowingKey, seatID uint64) claimKey {
	return claimKey{title: key.Title, showtime: key.Showtime.Unix(), seatID: seatID}
}

// memTicket is the stored form of a ticket: the row plus its seat IDs.
type memTicket struct {
	ticket  model.Ticket
	seatIDs []uint64
}

func (m *memTicket) clone() *memTicket {
	c := &memTicket{ticket: m.ticket, seatIDs: append([]uint64(nil), m.seatIDs...)}
	c.ticket.Seats = nil
	return c
}

// MemoryStore implements TicketStore in process memory.  Transactions
// buffer their writes and validate them against the committed claims
// when they commit, the way a unique key would, so unrelated showings
// never wait on each other and two bookers of the same seat cannot
// both commit.  It backs STORAGE=memory and the service tests.
type MemoryStore struct {
	mu sync.RWMutex

	seats      map[uint64]model.Seat
	seatByName map[string]uint64
	nextSeatID uint64

	tickets      map[uint64]*memTicket
	claims       map[claimKey]uint64 // (showing, seat) -> ticket id
	nextTicketID uint64

	logs      []model.TicketLog
	nextLogID uint64
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		seats:      make(map[uint64]model.Seat),
		seatByName: make(map[string]uint64),
		tickets:    make(map[uint64]*memTicket),
		claims:     make(map[claimKey]uint64),
	}
}

func (s *MemoryStore) ListSeats(_ context.Context) ([]model.Seat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Seat, 0, len(s.seats))
	for _, seat := range s.seats {
		out = append(out, seat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func (s *MemoryStore) ResolveSeats(_ context.Context, labels []string) ([]model.Seat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byLabel := make(map[string]model.Seat, len(labels))
	for _, l := range labels {
		if id, ok := s.seatByName[l]; ok {
			byLabel[l] = s.seats[id]
		}
	}
	return orderByLabels(labels, byLabel)
}

func (s *MemoryStore) SeedSeats(_ context.Context, labels []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range labels {
		if _, ok := s.seatByName[l]; ok {
			continue
		}
		s.nextSeatID++
		s.seats[s.nextSeatID] = model.Seat{ID: s.nextSeatID, Label: l}
		s.seatByName[l] = s.nextSeatID
	}
	return nil
}

// WithinTx runs fn against a buffered transaction and commits it when fn
// succeeds and ctx is still live.
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx TicketTx) error) error {
	tx := &memTx{
		s:        s,
		staged:   make(map[uint64]*memTicket),
		inserted: make(map[uint64]bool),
		deleted:  make(map[uint64]bool),
		replaced: make(map[uint64]bool),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return tx.commit()
}

func (s *MemoryStore) OccupiedSeatIDs(_ context.Context, key model.ShowingKey, candidates []uint64, excludeTicketID uint64) ([]uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	taken := []uint64{}
	for _, id := range candidates {
		if owner, ok := s.claims[newClaimKey(key, id)]; ok && owner != excludeTicketID {
			taken = append(taken, id)
		}
	}
	sort.Slice(taken, func(i, j int) bool { return taken[i] < taken[j] })
	return taken, nil
}

func (s *MemoryStore) BookedSeats(_ context.Context, key model.ShowingKey, excludeTicketID uint64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	labels := []string{}
	for k, owner := range s.claims {
		if owner == excludeTicketID || k.title != key.Title || k.showtime != key.Showtime.Unix() {
			continue
		}
		labels = append(labels, s.seats[k.seatID].Label)
	}
	sort.Strings(labels)
	return labels, nil
}

func (s *MemoryStore) ListTickets(_ context.Context) ([]model.Ticket, error) {
	return s.filterTickets(func(*memTicket) bool { return true }), nil
}

func (s *MemoryStore) ListTicketsByUser(_ context.Context, userID uint64) ([]model.Ticket, error) {
	return s.filterTickets(func(m *memTicket) bool { return m.ticket.UserID == userID }), nil
}

func (s *MemoryStore) GetTicket(_ context.Context, id uint64) (*model.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.tickets[id]
	if !ok {
		return nil, ErrTicketNotFound
	}
	t := s.view(m)
	return &t, nil
}

func (s *MemoryStore) ListLogsByUser(_ context.Context, userID uint64) ([]model.TicketLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.TicketLog{}
	for _, l := range s.logs {
		if l.UserID == userID {
			l.Seats = append([]string(nil), l.Seats...)
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *MemoryStore) filterTickets(keep func(*memTicket) bool) []model.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Ticket{}
	for _, m := range s.tickets {
		if keep(m) {
			out = append(out, s.view(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// view renders a stored ticket with sorted seat labels.  Callers hold mu.
func (s *MemoryStore) view(m *memTicket) model.Ticket {
	t := m.ticket
	t.Seats = s.labels(m.seatIDs)
	return t
}

func (s *MemoryStore) labels(ids []uint64) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.seats[id].Label)
	}
	sort.Strings(out)
	return out
}

// memTx buffers the writes of one WithinTx call.
type memTx struct {
	s *MemoryStore

	staged   map[uint64]*memTicket // final row state of tickets written in this tx
	inserted map[uint64]bool
	deleted  map[uint64]bool
	replaced map[uint64]bool // seat set of the staged row replaces the committed one
	logs     []model.TicketLog
}

// touched reports whether the tx rewrites the claims of ticket id, in
// which case its committed claims must be ignored.
func (tx *memTx) touched(id uint64) bool {
	return tx.deleted[id] || tx.replaced[id]
}

// current returns the ticket as this tx sees it.  Callers hold s.mu.
func (tx *memTx) current(id uint64) (*memTicket, bool) {
	if tx.deleted[id] {
		return nil, false
	}
	if m, ok := tx.staged[id]; ok {
		return m, true
	}
	m, ok := tx.s.tickets[id]
	return m, ok
}

// ownerOf returns the ticket holding k from the point of view of this tx.
// Callers hold s.mu.
func (tx *memTx) ownerOf(k claimKey) (uint64, bool) {
	for id := range tx.replaced {
		m := tx.staged[id]
		if m == nil {
			continue
		}
		for _, sid := range m.seatIDs {
			if newClaimKey(m.ticket.Key(), sid) == k {
				return id, true
			}
		}
	}
	owner, ok := tx.s.claims[k]
	if !ok || tx.touched(owner) {
		return 0, false
	}
	return owner, true
}

func (tx *memTx) OccupiedSeatIDs(_ context.Context, key model.ShowingKey, candidates []uint64, excludeTicketID uint64) ([]uint64, error) {
	tx.s.mu.RLock()
	defer tx.s.mu.RUnlock()
	taken := []uint64{}
	for _, id := range candidates {
		if owner, ok := tx.ownerOf(newClaimKey(key, id)); ok && owner != excludeTicketID {
			taken = append(taken, id)
		}
	}
	sort.Slice(taken, func(i, j int) bool { return taken[i] < taken[j] })
	return taken, nil
}

func (tx *memTx) GetTicket(_ context.Context, id uint64) (*model.Ticket, error) {
	tx.s.mu.RLock()
	defer tx.s.mu.RUnlock()
	m, ok := tx.current(id)
	if !ok {
		return nil, ErrTicketNotFound
	}
	t := tx.s.view(m)
	return &t, nil
}

func (tx *memTx) InsertTicket(_ context.Context, t *model.Ticket) error {
	tx.s.mu.Lock()
	tx.s.nextTicketID++
	t.ID = tx.s.nextTicketID
	tx.s.mu.Unlock()

	row := &memTicket{ticket: *t}
	row.ticket.Seats = nil
	tx.staged[t.ID] = row
	tx.inserted[t.ID] = true
	tx.replaced[t.ID] = true
	return nil
}

func (tx *memTx) UpdateTicket(_ context.Context, t *model.Ticket) error {
	tx.s.mu.RLock()
	m, ok := tx.current(t.ID)
	tx.s.mu.RUnlock()
	if !ok {
		return ErrTicketNotFound
	}
	row := m.clone()
	row.ticket.MovieTitle = t.MovieTitle
	row.ticket.ShowTime = t.ShowTime
	row.ticket.Price = t.Price
	row.ticket.UpdatedAt = t.UpdatedAt
	tx.staged[t.ID] = row
	// a moved showing re-keys every claim of the ticket
	tx.replaced[t.ID] = true
	return nil
}

func (tx *memTx) DeleteTicket(_ context.Context, id uint64) error {
	tx.s.mu.RLock()
	_, ok := tx.current(id)
	tx.s.mu.RUnlock()
	if !ok {
		return ErrTicketNotFound
	}
	delete(tx.staged, id)
	delete(tx.replaced, id)
	if tx.inserted[id] {
		delete(tx.inserted, id)
		return nil
	}
	tx.deleted[id] = true
	return nil
}

func (tx *memTx) ReplaceSeats(_ context.Context, ticketID uint64, key model.ShowingKey, seatIDs []uint64) error {
	tx.s.mu.RLock()
	defer tx.s.mu.RUnlock()
	m, ok := tx.current(ticketID)
	if !ok {
		return ErrTicketNotFound
	}
	for _, sid := range seatIDs {
		if owner, ok := tx.ownerOf(newClaimKey(key, sid)); ok && owner != ticketID {
			return fmt.Errorf("%w: seat %d", ErrSeatTaken, sid)
		}
	}
	row := m.clone()
	row.ticket.MovieTitle = key.Title
	row.ticket.ShowTime = key.Showtime
	row.seatIDs = append([]uint64(nil), seatIDs...)
	tx.staged[ticketID] = row
	tx.replaced[ticketID] = true
	return nil
}

func (tx *memTx) AppendLog(_ context.Context, l *model.TicketLog) error {
	entry := *l
	entry.Seats = append([]string(nil), l.Seats...)
	tx.logs = append(tx.logs, entry)
	return nil
}

// commit validates the buffered writes against the committed state and
// applies them, or applies nothing.
func (tx *memTx) commit() error {
	s := tx.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range tx.deleted {
		if _, ok := s.tickets[id]; !ok {
			return ErrTicketNotFound
		}
	}
	for id := range tx.staged {
		if _, ok := s.tickets[id]; !ok && !tx.inserted[id] {
			return ErrTicketNotFound
		}
	}

	// validate final claims of every rewritten ticket
	final := make(map[claimKey]uint64)
	for id := range tx.replaced {
		m := tx.staged[id]
		for _, sid := range m.seatIDs {
			k := newClaimKey(m.ticket.Key(), sid)
			if other, dup := final[k]; dup && other != id {
				return fmt.Errorf("%w: seat %d", ErrSeatTaken, sid)
			}
			if owner, ok := s.claims[k]; ok && !tx.touched(owner) {
				return fmt.Errorf("%w: seat %d", ErrSeatTaken, sid)
			}
			final[k] = id
		}
	}

	for id := range tx.deleted {
		s.dropClaims(id)
		delete(s.tickets, id)
	}
	for id, m := range tx.staged {
		if tx.replaced[id] {
			s.dropClaims(id)
		}
		s.tickets[id] = m
	}
	for k, id := range final {
		s.claims[k] = id
	}
	now := time.Now().UTC()
	for _, l := range tx.logs {
		s.nextLogID++
		l.ID = s.nextLogID
		if l.CreatedAt.IsZero() {
			l.CreatedAt = now
		}
		s.logs = append(s.logs, l)
	}
	return nil
}

// dropClaims removes the committed claims of ticket id.  Callers hold mu.
func (s *MemoryStore) dropClaims(id uint64) {
	m, ok := s.tickets[id]
	if !ok {
		return
	}
	for _, sid := range m.seatIDs {
		k := newClaimKey(m.ticket.Key(), sid)
		if s.claims[k] == id {
			delete(s.claims, k)
		}
	}
}
