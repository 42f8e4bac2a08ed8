package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/cinebook/cinema-booking/internal/inventory"
	"github.com/cinebook/cinema-booking/internal/model"
	"github.com/cinebook/cinema-booking/internal/queue"
)

// SeatCatalog supplies the valid seat-label universe for a showing.
// The engine consults it to reject requests naming seats that do not
// exist in the hall's layout, before any inventory access.
type SeatCatalog interface {
	SeatLabels(ctx context.Context, showingID uint64) ([]string, error)
}

// EventPublisher receives a notification for every confirmed order.
// Publishing is best-effort: a failure is logged and never fails the
// confirmation itself.
type EventPublisher interface {
	PublishOrderConfirmed(ctx context.Context, ev queue.OrderConfirmedEvent) error
}

// Engine is the reservation consistency engine.  Every booking rule is
// one call to the inventory store's atomic multi-key transition, so two
// concurrent multi-seat requests can never both believe they succeeded
// on an overlapping seat.
type Engine struct {
	store   inventory.Store
	ledger  Ledger
	catalog SeatCatalog
	holdTTL time.Duration

	pub   EventPublisher
	now   func() time.Time
	newID func() string
}

// NewEngine constructs an Engine.  All dependencies must be non-nil;
// holdTTL bounds how long a pending order keeps its seats.
func NewEngine(store inventory.Store, ledger Ledger, catalog SeatCatalog, holdTTL time.Duration) *Engine {
	if store == nil || ledger == nil || catalog == nil {
		panic("nil dependency passed to NewEngine")
	}
	return &Engine{
		store:   store,
		ledger:  ledger,
		catalog: catalog,
		holdTTL: holdTTL,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// SetPublisher attaches an order-confirmed event publisher.
func (e *Engine) SetPublisher(pub EventPublisher) { e.pub = pub }

// SetClock overrides the engine's time source for tests.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// Reserve attempts to hold every requested seat for the user.  Either
// all seats transition to Held and a PENDING order is returned, or
// nothing is mutated and the error describes the rejection:
// ErrInvalidRequest for an empty or duplicated seat set, ErrUnknownSeat
// for labels outside the hall layout, and *SeatsUnavailableError
// listing exactly the contended seats when another order owns any of
// them.
func (e *Engine) Reserve(ctx context.Context, showingID, userID uint64, seats []string) (*model.Order, error) {
	if len(seats) == 0 {
		return nil, fmt.Errorf("%w: seat set must not be empty", ErrInvalidRequest)
	}
	seen := make(map[string]struct{}, len(seats))
	for _, s := range seats {
		if _, dup := seen[s]; dup {
			return nil, fmt.Errorf("%w: duplicate seat %q", ErrInvalidRequest, s)
		}
		seen[s] = struct{}{}
	}
	if err := e.checkSeatsExist(ctx, showingID, seats); err != nil {
		return nil, err
	}

	now := e.now()
	order := &model.Order{
		ID:        e.newID(),
		UserID:    userID,
		ShowingID: showingID,
		Seats:     append([]string(nil), seats...),
		Status:    model.OrderPending,
		CreatedAt: now,
		ExpiresAt: now.Add(e.holdTTL),
	}

	conflicts, err := e.store.Transition(ctx, showingID, seats,
		inventory.FreeOrExpired, inventory.ToHeld(order.ID, order.ExpiresAt))
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, &SeatsUnavailableError{Conflicts: conflicts}
	}

	if err := e.ledger.Create(ctx, order); err != nil {
		// Give the seats back; a hold without a ledger entry would be
		// unreclaimable.
		if _, relErr := e.store.Transition(ctx, showingID, seats,
			inventory.Any, inventory.ReleaseHeldBy(order.ID)); relErr != nil {
			logrus.WithError(relErr).WithField("order_id", order.ID).
				Error("failed to release seats after ledger create failure")
		}
		return nil, fmt.Errorf("create order: %w", err)
	}
	return order, nil
}

// Confirm converts a still-valid hold into a sale: every seat of the
// order transitions Held -> Sold and the order PENDING -> CONFIRMED,
// with the same all-or-nothing discipline as Reserve.  It fails with
// ErrOrderNotFound, ErrOrderExpired (deadline passed or the hold was
// already reaped) or ErrInvalidState (already confirmed or cancelled).
func (e *Engine) Confirm(ctx context.Context, orderID string) (*model.Order, error) {
	order, err := e.ledger.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch order.Status {
	case model.OrderExpired:
		return nil, fmt.Errorf("order %s: %w", orderID, ErrOrderExpired)
	case model.OrderConfirmed, model.OrderCancelled:
		return nil, fmt.Errorf("order %s is %s: %w", orderID, order.Status, ErrInvalidState)
	}

	if order.HoldExpired(e.now()) {
		// Expire lazily rather than waiting for the reaper, so the
		// seats become reservable immediately.
		e.expire(ctx, order)
		return nil, fmt.Errorf("order %s: %w", orderID, ErrOrderExpired)
	}

	conflicts, err := e.store.Transition(ctx, order.ShowingID, order.Seats,
		inventory.HeldBy(orderID), inventory.ToSold(orderID))
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		// The hold no longer covers every seat: the deadline passed at
		// the store or the reaper got there first.
		e.expire(ctx, order)
		return nil, fmt.Errorf("order %s: %w", orderID, ErrOrderExpired)
	}

	if err := e.ledger.UpdateStatus(ctx, orderID, model.OrderPending, model.OrderConfirmed); err != nil {
		// The reaper can flip the order to EXPIRED between the seat
		// sale and this update: its release transform skips seats that
		// already went Sold, so its status CAS still succeeds.  The
		// seats are Sold under a dead order at this point; give them
		// back before reporting the expiry.
		if cur, getErr := e.ledger.Get(ctx, orderID); getErr == nil && cur.Status == model.OrderExpired {
			if _, relErr := e.store.Transition(ctx, order.ShowingID, order.Seats,
				inventory.Any, inventory.ReleaseOwnedBy(orderID)); relErr != nil {
				logrus.WithError(relErr).WithField("order_id", orderID).
					Error("failed to release seats of reaped order")
			}
			return nil, fmt.Errorf("order %s: %w", orderID, ErrOrderExpired)
		}
		return nil, err
	}
	order.Status = model.OrderConfirmed
	e.publishConfirmed(ctx, order)
	return order, nil
}

// Cancel releases every seat of a pending or confirmed order back to
// Free and marks the order CANCELLED.  Cancelling an already-cancelled
// order is a no-op success; cancelling an expired order fails with
// ErrInvalidState.
func (e *Engine) Cancel(ctx context.Context, orderID string) (*model.Order, error) {
	order, err := e.ledger.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch order.Status {
	case model.OrderCancelled:
		return order, nil
	case model.OrderExpired:
		return nil, fmt.Errorf("order %s is %s: %w", orderID, order.Status, ErrInvalidState)
	}

	// Release the seats before touching the ledger: if the store is
	// unreachable the order keeps its current status and the cancel can
	// simply be retried.  The release transform only touches seats this
	// order owns, so a duplicate release from a concurrent cancel is a
	// no-op.
	if _, err := e.store.Transition(ctx, order.ShowingID, order.Seats,
		inventory.Any, inventory.ReleaseOwnedBy(orderID)); err != nil {
		return nil, err
	}

	if err := e.ledger.UpdateStatus(ctx, orderID, order.Status, model.OrderCancelled); err != nil {
		// Lost a race with the reaper or another cancel; re-read and
		// report the final state.
		if cur, getErr := e.ledger.Get(ctx, orderID); getErr == nil && cur.Status == model.OrderCancelled {
			return cur, nil
		}
		return nil, err
	}
	order.Status = model.OrderCancelled
	return order, nil
}

// Availability returns the seat-availability view for a showing as a
// reader must see it now: expired holds are already resolved to Free.
func (e *Engine) Availability(ctx context.Context, showingID uint64) (map[string]inventory.SeatStatus, error) {
	snap, err := e.store.Snapshot(ctx, showingID)
	if err != nil {
		return nil, err
	}
	now := e.now()
	for label, st := range snap {
		snap[label] = st.Effective(now)
	}
	return snap, nil
}

// FindExpiredHolds exposes the reaper's pull query: every PENDING order
// whose hold deadline has passed.
func (e *Engine) FindExpiredHolds(ctx context.Context) ([]*model.Order, error) {
	return e.ledger.FindExpiredHolds(ctx, e.now())
}

// checkSeatsExist validates the requested labels against the showing's
// hall layout.
func (e *Engine) checkSeatsExist(ctx context.Context, showingID uint64, seats []string) error {
	universe, err := e.catalog.SeatLabels(ctx, showingID)
	if err != nil {
		return fmt.Errorf("seat catalog: %w", err)
	}
	known := make(map[string]struct{}, len(universe))
	for _, l := range universe {
		known[l] = struct{}{}
	}
	for _, s := range seats {
		if _, ok := known[s]; !ok {
			return fmt.Errorf("seat %q not in showing %d: %w", s, showingID, ErrUnknownSeat)
		}
	}
	return nil
}

// expire releases whatever seats an overdue order still holds and
// marks it EXPIRED.  Safe to race with the reaper doing the same: the
// release transform only touches seats still held by this order and
// the status update is a compare-and-set.
func (e *Engine) expire(ctx context.Context, order *model.Order) {
	if _, err := e.store.Transition(ctx, order.ShowingID, order.Seats,
		inventory.Any, inventory.ReleaseHeldBy(order.ID)); err != nil {
		logrus.WithError(err).WithField("order_id", order.ID).Error("failed to release expired hold")
		return
	}
	if err := e.ledger.UpdateStatus(ctx, order.ID, model.OrderPending, model.OrderExpired); err != nil &&
		!errors.Is(err, ErrInvalidState) {
		logrus.WithError(err).WithField("order_id", order.ID).Error("failed to mark order expired")
	}
}

func (e *Engine) publishConfirmed(ctx context.Context, order *model.Order) {
	if e.pub == nil {
		return
	}
	ev := queue.OrderConfirmedEvent{
		OrderID:     order.ID,
		UserID:      order.UserID,
		ShowingID:   order.ShowingID,
		Seats:       append([]string(nil), order.Seats...),
		ConfirmedAt: e.now().Format(time.RFC3339),
	}
	if err := e.pub.PublishOrderConfirmed(ctx, ev); err != nil {
		logrus.WithError(err).WithField("order_id", order.ID).Warn("failed to publish order confirmed event")
	}
}
