package inventory

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is the in-process implementation of Store.  Each showing
// owns an independent shard with its own mutex, so transitions on
// unrelated showings proceed fully in parallel while all transitions
// within one showing are serialized.
type MemoryStore struct {
	mu       sync.RWMutex
	showings map[uint64]*showingShard
	now      func() time.Time
}

type showingShard struct {
	mu    sync.Mutex
	seats map[string]SeatStatus
}

// NewMemoryStore returns an empty MemoryStore using wall-clock time.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{showings: make(map[uint64]*showingShard), now: func() time.Time { return time.Now().UTC() }}
}

// SetClock overrides the store's time source.  Intended for tests that
// need deterministic expiry behaviour.
func (m *MemoryStore) SetClock(now func() time.Time) { m.now = now }

// RegisterShowing seeds every listed seat as Free.
func (m *MemoryStore) RegisterShowing(_ context.Context, showingID uint64, labels []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.showings[showingID]; ok {
		return fmt.Errorf("showing %d already registered", showingID)
	}
	seats := make(map[string]SeatStatus, len(labels))
	for _, l := range labels {
		seats[l] = SeatStatus{State: Free}
	}
	m.showings[showingID] = &showingShard{seats: seats}
	return nil
}

func (m *MemoryStore) shard(showingID uint64) (*showingShard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sh, ok := m.showings[showingID]
	if !ok {
		return nil, fmt.Errorf("showing %d: %w", showingID, ErrUnknownShowing)
	}
	return sh, nil
}

// Transition implements the atomic multi-key compare-and-transition.
// The shard mutex is held for the whole check-then-set, so concurrent
// calls with overlapping seats observe each other's effects in full:
// exactly one of two racing holds on the same seat can pass the
// predicate.
func (m *MemoryStore) Transition(_ context.Context, showingID uint64, labels []string, pred Predicate, next Transform) ([]string, error) {
	sh, err := m.shard(showingID)
	if err != nil {
		return nil, err
	}
	sh.mu.Lock()
	defer sh.mu.Unlock()

	now := m.now()
	var conflicts []string
	for _, l := range labels {
		cur, ok := sh.seats[l]
		if !ok {
			return nil, fmt.Errorf("showing %d seat %q: %w", showingID, l, ErrUnknownSeat)
		}
		if !pred(cur, now) {
			conflicts = append(conflicts, l)
		}
	}
	if len(conflicts) > 0 {
		return conflicts, nil
	}
	for _, l := range labels {
		sh.seats[l] = next(sh.seats[l])
	}
	return nil, nil
}

// Snapshot returns a copy of the showing's seat map.
func (m *MemoryStore) Snapshot(_ context.Context, showingID uint64) (map[string]SeatStatus, error) {
	sh, err := m.shard(showingID)
	if err != nil {
		return nil, err
	}
	sh.mu.Lock()
	defer sh.mu.Unlock()
	out := make(map[string]SeatStatus, len(sh.seats))
	for k, v := range sh.seats {
		out[k] = v
	}
	return out, nil
}
