package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinebook/cinema-booking/internal/inventory"
	"github.com/cinebook/cinema-booking/internal/model"
)

func TestSweepReclaimsOnlyExpiredHolds(t *testing.T) {
	eng, store, ledger, now := newTestEngine(t, []string{"1A", "1B", "1C"}, time.Minute)
	ctx := context.Background()

	expired, err := eng.Reserve(ctx, testShowing, 1, []string{"1A"})
	require.NoError(t, err)

	*now = now.Add(30 * time.Second)
	fresh, err := eng.Reserve(ctx, testShowing, 2, []string{"1B"})
	require.NoError(t, err)
	sold, err := eng.Reserve(ctx, testShowing, 3, []string{"1C"})
	require.NoError(t, err)
	_, err = eng.Confirm(ctx, sold.ID)
	require.NoError(t, err)

	// The first hold is now past its deadline; the second is not.
	*now = now.Add(45 * time.Second)

	reaper := NewReaper(store, ledger, time.Second)
	reaper.SetClock(func() time.Time { return *now })
	reaped, err := reaper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, reaped)

	got, err := ledger.Get(ctx, expired.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderExpired, got.Status)

	got, err = ledger.Get(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, got.Status)

	snap, err := store.Snapshot(ctx, testShowing)
	require.NoError(t, err)
	assert.Equal(t, inventory.Free, snap["1A"].State)
	assert.Equal(t, inventory.Held, snap["1B"].State)
	assert.Equal(t, inventory.Sold, snap["1C"].State)
}

func TestSweepLeavesRebookedSeatsAlone(t *testing.T) {
	eng, store, ledger, now := newTestEngine(t, []string{"2A"}, time.Minute)
	ctx := context.Background()

	stale, err := eng.Reserve(ctx, testShowing, 1, []string{"2A"})
	require.NoError(t, err)

	*now = now.Add(2 * time.Minute)

	// A new order takes the expired seat before the reaper runs.
	rebooked, err := eng.Reserve(ctx, testShowing, 2, []string{"2A"})
	require.NoError(t, err)

	reaper := NewReaper(store, ledger, time.Second)
	reaper.SetClock(func() time.Time { return *now })
	reaped, err := reaper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, reaped, "stale order still gets expired")

	got, err := ledger.Get(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderExpired, got.Status)

	// The rebooked hold survived the sweep.
	snap, err := store.Snapshot(ctx, testShowing)
	require.NoError(t, err)
	assert.Equal(t, inventory.Held, snap["2A"].State)
	assert.Equal(t, rebooked.ID, snap["2A"].OrderID)
}

func TestSweepToleratesConcurrentCancel(t *testing.T) {
	eng, store, ledger, now := newTestEngine(t, []string{"3A"}, time.Minute)
	ctx := context.Background()

	order, err := eng.Reserve(ctx, testShowing, 1, []string{"3A"})
	require.NoError(t, err)

	*now = now.Add(2 * time.Minute)

	// Cancel wins the race before the sweep reaches the ledger.
	_, err = eng.Cancel(ctx, order.ID)
	require.NoError(t, err)

	reaper := NewReaper(store, ledger, time.Second)
	reaper.SetClock(func() time.Time { return *now })
	reaped, err := reaper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, reaped)

	got, err := ledger.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, got.Status)
}

func TestStartStopsOnContextCancel(t *testing.T) {
	store := inventory.NewMemoryStore()
	ledger := NewMemoryLedger()
	reaper := NewReaper(store, ledger, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reaper.Start(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop after context cancellation")
	}
}
