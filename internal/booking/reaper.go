package booking

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cinebook/cinema-booking/internal/inventory"
	"github.com/cinebook/cinema-booking/internal/model"
)

// Reaper periodically reclaims expired holds: seats of a PENDING order
// past its deadline return to Free and the order is marked EXPIRED.
// It is safe to run concurrently with Reserve/Confirm/Cancel because
// every seat mutation goes through the store's atomic transition and
// every status change is a compare-and-set.
type Reaper struct {
	store    inventory.Store
	ledger   Ledger
	interval time.Duration
	now      func() time.Time
}

// NewReaper constructs a Reaper sweeping at the given interval.
func NewReaper(store inventory.Store, ledger Ledger, interval time.Duration) *Reaper {
	if store == nil || ledger == nil {
		panic("nil dependency passed to NewReaper")
	}
	return &Reaper{
		store:    store,
		ledger:   ledger,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the reaper's time source for tests.
func (r *Reaper) SetClock(now func() time.Time) { r.now = now }

// Start runs the sweep loop until the context is cancelled.
func (r *Reaper) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	logrus.WithField("interval", r.interval).Info("hold reaper started")
	for {
		select {
		case <-ctx.Done():
			logrus.Info("hold reaper stopped")
			return
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil {
				logrus.WithError(err).Error("hold reaper sweep failed")
			}
		}
	}
}

// Sweep reclaims every currently expired hold and returns how many
// orders were expired.  It is exposed separately from Start so an
// external scheduler can control cadence.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	expired, err := r.ledger.FindExpiredHolds(ctx, r.now())
	if err != nil {
		return 0, err
	}
	reaped := 0
	for _, order := range expired {
		if err := r.reap(ctx, order); err != nil {
			logrus.WithError(err).WithField("order_id", order.ID).Error("failed to reap expired hold")
			continue
		}
		reaped++
	}
	if reaped > 0 {
		logrus.WithField("reaped", reaped).Info("expired holds reclaimed")
	}
	return reaped, nil
}

// reap handles one expired order.  Seats are released first, then the
// order status flips PENDING -> EXPIRED.  Losing the status CAS means
// a cancel or confirmation settled the order in between.  A
// confirmation can also land its seat sale before this CAS runs; the
// release transform skips Sold seats, so in that interleaving Confirm
// finds the order EXPIRED and releases the seats itself.
func (r *Reaper) reap(ctx context.Context, order *model.Order) error {
	if _, err := r.store.Transition(ctx, order.ShowingID, order.Seats,
		inventory.Any, inventory.ReleaseHeldBy(order.ID)); err != nil {
		return err
	}
	err := r.ledger.UpdateStatus(ctx, order.ID, model.OrderPending, model.OrderExpired)
	if err != nil && !errors.Is(err, ErrInvalidState) {
		return err
	}
	return nil
}
