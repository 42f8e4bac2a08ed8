// Package inventory defines the seat inventory store: the durable record
// of every seat's state per showing, together with the atomic multi-key
// compare-and-transition primitive that every booking rule is built on.
package inventory

import (
	"context"
	"errors"
	"time"
)

// State enumerates the instantaneous state of a seat for a showing.
type State uint8

const (
	Free State = iota
	Held
	Sold
)

// String returns the wire/database representation of a seat state.
func (s State) String() string {
	switch s {
	case Held:
		return "HELD"
	case Sold:
		return "SOLD"
	default:
		return "FREE"
	}
}

// ParseState converts a stored representation back into a State.
// Unknown values map to Free.
func ParseState(s string) State {
	switch s {
	case "HELD":
		return Held
	case "SOLD":
		return Sold
	default:
		return Free
	}
}

// SeatStatus is the full state of one (showing, seat label) pair.  A
// Held seat references the pending order holding it and the hold
// deadline; a Sold seat references the confirmed order that bought it.
type SeatStatus struct {
	State     State     `json:"state"`
	OrderID   string    `json:"order_id,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Effective resolves the status as a reader must see it at the given
// instant: a Held seat whose deadline has passed counts as Free even
// before the reaper has physically swept it.
func (s SeatStatus) Effective(now time.Time) SeatStatus {
	if s.State == Held && !now.Before(s.ExpiresAt) {
		return SeatStatus{State: Free}
	}
	return s
}

// Predicate decides whether a single seat may take part in a
// transition.  It receives the seat's current stored status and the
// store's notion of now; implementations evaluate all seats of one
// Transition call against the same instant.
type Predicate func(cur SeatStatus, now time.Time) bool

// Transform computes the next status for a seat whose predicate passed.
type Transform func(cur SeatStatus) SeatStatus

// Store is the single shared mutable resource of the booking core.  All
// seat mutation goes through Transition; implementations must serialize
// transitions per showing so that two concurrent multi-seat transitions
// can never both believe they succeeded on an overlapping seat.
type Store interface {
	// RegisterShowing seeds every listed seat of a showing as Free.
	// Registering an already-known showing is an error.
	RegisterShowing(ctx context.Context, showingID uint64, labels []string) error

	// Transition atomically applies next to every listed seat whose
	// predicate passes.  If any seat fails the predicate, nothing is
	// mutated and the failing labels are returned.  A showing never
	// registered yields ErrUnknownShowing, a label not seeded for a
	// known showing yields ErrUnknownSeat, and backend failures yield
	// an error wrapping ErrStoreUnavailable.  The returned conflict
	// slice preserves the order of the labels argument.
	Transition(ctx context.Context, showingID uint64, labels []string, pred Predicate, next Transform) ([]string, error)

	// Snapshot returns the stored status of every seat of a showing.
	// Callers resolve expired holds via SeatStatus.Effective.
	Snapshot(ctx context.Context, showingID uint64) (map[string]SeatStatus, error)
}

// ErrUnknownSeat is returned when a transition or query names a seat
// label that was never seeded for the showing.
var ErrUnknownSeat = errors.New("unknown seat")

// ErrUnknownShowing is returned when the showing itself was never
// registered with the store.
var ErrUnknownShowing = errors.New("unknown showing")

// ErrStoreUnavailable wraps backend failures (connection loss, broken
// transaction).  It must never be conflated with seat conflicts.
var ErrStoreUnavailable = errors.New("seat inventory unavailable")

// FreeOrExpired passes seats that are Free, or Held with a deadline in
// the past.  This is the availability predicate used when placing a
// new hold.
func FreeOrExpired(cur SeatStatus, now time.Time) bool {
	return cur.Effective(now).State == Free
}

// HeldBy returns a predicate passing only seats currently Held by the
// given order with an unexpired deadline.  Used when converting a hold
// into a sale.
func HeldBy(orderID string) Predicate {
	return func(cur SeatStatus, now time.Time) bool {
		return cur.State == Held && cur.OrderID == orderID && now.Before(cur.ExpiresAt)
	}
}

// Any passes every seat.  Combine with a conditional transform such as
// ReleaseOwnedBy for transitions that must never conflict.
func Any(SeatStatus, time.Time) bool { return true }

// ToHeld transitions a seat into the Held state for an order.
func ToHeld(orderID string, expiresAt time.Time) Transform {
	return func(SeatStatus) SeatStatus {
		return SeatStatus{State: Held, OrderID: orderID, ExpiresAt: expiresAt}
	}
}

// ToSold transitions a seat into the Sold state for an order.
func ToSold(orderID string) Transform {
	return func(SeatStatus) SeatStatus {
		return SeatStatus{State: Sold, OrderID: orderID}
	}
}

// ToFree releases a seat unconditionally.
func ToFree(SeatStatus) SeatStatus { return SeatStatus{State: Free} }

// ReleaseHeldBy frees seats still Held by the given order and leaves
// every other seat untouched.  The reaper uses it so that seats of an
// expired hold that were already re-reserved by a newer order are not
// clobbered.
func ReleaseHeldBy(orderID string) Transform {
	return func(cur SeatStatus) SeatStatus {
		if cur.State == Held && cur.OrderID == orderID {
			return SeatStatus{State: Free}
		}
		return cur
	}
}

// ReleaseOwnedBy frees seats held or sold by the given order and leaves
// every other seat untouched.  Cancellation uses it so that an expired
// hold whose seats were partially re-reserved still cancels cleanly.
func ReleaseOwnedBy(orderID string) Transform {
	return func(cur SeatStatus) SeatStatus {
		if (cur.State == Held || cur.State == Sold) && cur.OrderID == orderID {
			return SeatStatus{State: Free}
		}
		return cur
	}
}
