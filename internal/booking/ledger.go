package booking

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cinebook/cinema-booking/internal/model"
)

// Ledger records committed and cancelled reservations.  It is a plain
// persistence boundary: append-only creation, status-field updates
// constrained by the order state machine, and point/range queries.
// The engine creates orders and drives confirm/cancel transitions; the
// reaper drives expiry.
type Ledger interface {
	// Create appends a new order.  The order's ID must be unique.
	Create(ctx context.Context, o *model.Order) error

	// Get returns the order with the given ID or ErrOrderNotFound.
	Get(ctx context.Context, id string) (*model.Order, error)

	// UpdateStatus moves an order from one status to another.  The
	// update is a compare-and-set: it fails with ErrInvalidState when
	// the order is no longer in the from status or when the state
	// machine forbids the transition.
	UpdateStatus(ctx context.Context, id string, from, to model.OrderStatus) error

	// ListByUser returns the user's orders, newest first.
	ListByUser(ctx context.Context, userID uint64) ([]*model.Order, error)

	// ListByShowing returns all orders for a showing, newest first.
	ListByShowing(ctx context.Context, showingID uint64) ([]*model.Order, error)

	// FindExpiredHolds returns every PENDING order whose hold deadline
	// is at or before the given instant.  This is the reaper's pull
	// query.
	FindExpiredHolds(ctx context.Context, now time.Time) ([]*model.Order, error)
}

// MemoryLedger is the in-process Ledger used by the engine's tests and
// by single-node deployments running the memory inventory store.
type MemoryLedger struct {
	mu     sync.RWMutex
	orders map[string]*model.Order
}

// NewMemoryLedger returns an empty MemoryLedger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{orders: make(map[string]*model.Order)}
}

func (l *MemoryLedger) Create(_ context.Context, o *model.Order) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.orders[o.ID]; ok {
		return fmt.Errorf("order %s already exists", o.ID)
	}
	cp := *o
	cp.Seats = append([]string(nil), o.Seats...)
	l.orders[o.ID] = &cp
	return nil
}

func (l *MemoryLedger) Get(_ context.Context, id string) (*model.Order, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	o, ok := l.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, ErrOrderNotFound)
	}
	cp := *o
	cp.Seats = append([]string(nil), o.Seats...)
	return &cp, nil
}

func (l *MemoryLedger) UpdateStatus(_ context.Context, id string, from, to model.OrderStatus) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.orders[id]
	if !ok {
		return fmt.Errorf("order %s: %w", id, ErrOrderNotFound)
	}
	if o.Status != from || !from.CanTransition(to) {
		return fmt.Errorf("order %s: %s -> %s: %w", id, o.Status, to, ErrInvalidState)
	}
	o.Status = to
	return nil
}

func (l *MemoryLedger) ListByUser(_ context.Context, userID uint64) ([]*model.Order, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []*model.Order
	for _, o := range l.orders {
		if o.UserID == userID {
			cp := *o
			cp.Seats = append([]string(nil), o.Seats...)
			out = append(out, &cp)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (l *MemoryLedger) ListByShowing(_ context.Context, showingID uint64) ([]*model.Order, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []*model.Order
	for _, o := range l.orders {
		if o.ShowingID == showingID {
			cp := *o
			cp.Seats = append([]string(nil), o.Seats...)
			out = append(out, &cp)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (l *MemoryLedger) FindExpiredHolds(_ context.Context, now time.Time) ([]*model.Order, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []*model.Order
	for _, o := range l.orders {
		if o.HoldExpired(now) {
			cp := *o
			cp.Seats = append([]string(nil), o.Seats...)
			out = append(out, &cp)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(orders []*model.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID < orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
