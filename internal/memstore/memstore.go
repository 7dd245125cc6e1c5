// Package memstore is an in-memory implementation of the ledger, cart, order
// and price stores, used by tests in place of Postgres. Semantics mirror the
// SQL implementations: guarded compare-and-update stock movements, a unique
// payment session per order, and snapshot/rollback units of work.
package memstore

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/openaxle/go-parts-market/internal/cart"
	"github.com/openaxle/go-parts-market/internal/inventory"
	"github.com/openaxle/go-parts-market/internal/orders"
)

var errPartUnknown = errors.New("unknown part")

type invKey struct {
	partID     string
	locationID string
}

type Store struct {
	mu     sync.Mutex
	txMu   sync.Mutex
	inv    map[invKey]*inventory.Record
	carts  map[string][]cart.Line
	orders map[string]*orders.Order
	prices map[string]int64
}

func New() *Store {
	return &Store{
		inv:    make(map[invKey]*inventory.Record),
		carts:  make(map[string][]cart.Line),
		orders: make(map[string]*orders.Order),
		prices: make(map[string]int64),
	}
}

// WithinTx serializes units of work and restores a full snapshot when the
// function fails, so a failed sequence has no visible effect, matching the
// transactional store.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(ctx); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	inv    map[invKey]*inventory.Record
	carts  map[string][]cart.Line
	orders map[string]*orders.Order
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := snapshot{
		inv:    make(map[invKey]*inventory.Record, len(s.inv)),
		carts:  make(map[string][]cart.Line, len(s.carts)),
		orders: make(map[string]*orders.Order, len(s.orders)),
	}
	for k, v := range s.inv {
		rec := *v
		snap.inv[k] = &rec
	}
	for k, v := range s.carts {
		snap.carts[k] = append([]cart.Line(nil), v...)
	}
	for k, v := range s.orders {
		o := *v
		o.Items = append([]orders.Item(nil), v.Items...)
		snap.orders[k] = &o
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inv = snap.inv
	s.carts = snap.carts
	s.orders = snap.orders
}

// ---- inventory.Ledger ----

func (s *Store) Reserve(ctx context.Context, partID, locationID string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.inv[invKey{partID, locationID}]
	if !ok || rec.QtyOnHand < qty {
		return inventory.ErrInsufficientStock
	}
	rec.QtyOnHand -= qty
	rec.QtyReserved += qty
	rec.UpdatedAt = time.Now()
	return nil
}

func (s *Store) Release(ctx context.Context, partID, locationID string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.inv[invKey{partID, locationID}]
	if !ok || rec.QtyReserved < qty {
		return inventory.ErrInsufficientReserved
	}
	rec.QtyOnHand += qty
	rec.QtyReserved -= qty
	rec.UpdatedAt = time.Now()
	return nil
}

func (s *Store) Commit(ctx context.Context, partID, locationID string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.inv[invKey{partID, locationID}]
	if !ok || rec.QtyReserved < qty {
		return inventory.ErrInsufficientReserved
	}
	rec.QtyReserved -= qty
	rec.UpdatedAt = time.Now()
	return nil
}

func (s *Store) Availability(ctx context.Context, partID string) ([]inventory.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []inventory.Record
	for k, rec := range s.inv {
		if k.partID == partID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (s *Store) UpsertStock(ctx context.Context, rec inventory.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := rec
	cp.UpdatedAt = time.Now()
	s.inv[invKey{rec.PartID, rec.LocationID}] = &cp
	return nil
}

// Stock returns the current quantities for assertions in tests.
func (s *Store) Stock(partID, locationID string) (onHand, reserved int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.inv[invKey{partID, locationID}]
	if !ok {
		return 0, 0
	}
	return rec.QtyOnHand, rec.QtyReserved
}

// ---- cart.Store ----

func (s *Store) Get(ctx context.Context, userID string) ([]cart.Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]cart.Line(nil), s.carts[userID]...), nil
}

func (s *Store) AddLine(ctx context.Context, userID string, line cart.Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[userID]
	for i := range lines {
		if lines[i].PartID == line.PartID {
			lines[i].Qty += line.Qty
			if line.LocationID != "" {
				lines[i].LocationID = line.LocationID
			}
			return nil
		}
	}
	s.carts[userID] = append(lines, line)
	return nil
}

func (s *Store) SetQty(ctx context.Context, userID, partID string, qty int) error {
	if qty <= 0 {
		return s.RemoveLine(ctx, userID, partID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[userID]
	for i := range lines {
		if lines[i].PartID == partID {
			lines[i].Qty = qty
		}
	}
	return nil
}

func (s *Store) RemoveLine(ctx context.Context, userID, partID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[userID]
	out := lines[:0]
	for _, l := range lines {
		if l.PartID != partID {
			out = append(out, l)
		}
	}
	s.carts[userID] = out
	return nil
}

func (s *Store) Clear(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[userID] = nil
	return nil
}

// ---- orders.Store ----

func (s *Store) Create(ctx context.Context, o *orders.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.Payment != nil && o.Payment.SessionID != "" {
		for _, existing := range s.orders {
			if existing.Payment != nil && existing.Payment.SessionID == o.Payment.SessionID {
				return orders.ErrDuplicateSession
			}
		}
	}
	cp := *o
	cp.Items = append([]orders.Item(nil), o.Items...)
	s.orders[o.ID] = &cp
	return nil
}

func (s *Store) ByID(ctx context.Context, id string) (*orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, orders.ErrNotFound
	}
	cp := *o
	cp.Items = append([]orders.Item(nil), o.Items...)
	return &cp, nil
}

func (s *Store) BySession(ctx context.Context, sessionID string) (*orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.orders {
		if o.Payment != nil && o.Payment.SessionID == sessionID {
			cp := *o
			cp.Items = append([]orders.Item(nil), o.Items...)
			return &cp, nil
		}
	}
	return nil, orders.ErrNotFound
}

func (s *Store) ByUser(ctx context.Context, userID string, limit int) ([]orders.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []orders.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	sortNewestFirst(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) List(ctx context.Context, status orders.Status, limit, offset int) ([]orders.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []orders.Order
	for _, o := range s.orders {
		if status == "" || o.Status == status {
			out = append(out, *o)
		}
	}
	sortNewestFirst(out)
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortNewestFirst(list []orders.Order) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}

func (s *Store) SetStatus(ctx context.Context, id string, from []orders.Status, to orders.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return orders.ErrNotFound
	}
	for _, f := range from {
		if o.Status == f {
			o.Status = to
			o.UpdatedAt = time.Now()
			return nil
		}
	}
	return &orders.InvalidTransitionError{OrderID: id, From: o.Status, To: to}
}

// OrderCount reports how many orders exist, for test assertions.
func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// ---- orders.PriceSource ----

func (s *Store) UnitPrice(ctx context.Context, partID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	price, ok := s.prices[partID]
	if !ok {
		return 0, errPartUnknown
	}
	return price, nil
}

// SetPrice registers a part's unit price for tests.
func (s *Store) SetPrice(partID string, cents int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[partID] = cents
}
