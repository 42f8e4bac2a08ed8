package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinebook/cinema-booking/internal/model"
)

func newOrder(id string, userID, showingID uint64, created time.Time, ttl time.Duration) *model.Order {
	return &model.Order{
		ID:        id,
		UserID:    userID,
		ShowingID: showingID,
		Seats:     []string{"1A"},
		Status:    model.OrderPending,
		CreatedAt: created,
		ExpiresAt: created.Add(ttl),
	}
}

func TestLedgerCreateRejectsDuplicateID(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

	require.NoError(t, l.Create(ctx, newOrder("a", 1, 1, base, time.Minute)))
	assert.Error(t, l.Create(ctx, newOrder("a", 2, 1, base, time.Minute)))
}

func TestLedgerGetReturnsCopies(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

	require.NoError(t, l.Create(ctx, newOrder("a", 1, 1, base, time.Minute)))
	got, err := l.Get(ctx, "a")
	require.NoError(t, err)
	got.Seats[0] = "tampered"
	got.Status = model.OrderConfirmed

	again, err := l.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"1A"}, again.Seats)
	assert.Equal(t, model.OrderPending, again.Status)

	_, err = l.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestLedgerUpdateStatusEnforcesStateMachine(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	require.NoError(t, l.Create(ctx, newOrder("a", 1, 1, base, time.Minute)))

	// Pending -> Confirmed succeeds once.
	require.NoError(t, l.UpdateStatus(ctx, "a", model.OrderPending, model.OrderConfirmed))

	// Losing a compare-and-set reports ErrInvalidState.
	assert.ErrorIs(t, l.UpdateStatus(ctx, "a", model.OrderPending, model.OrderExpired), ErrInvalidState)

	// Confirmed orders may still be cancelled, then nothing else.
	require.NoError(t, l.UpdateStatus(ctx, "a", model.OrderConfirmed, model.OrderCancelled))
	assert.ErrorIs(t, l.UpdateStatus(ctx, "a", model.OrderCancelled, model.OrderConfirmed), ErrInvalidState)

	assert.ErrorIs(t, l.UpdateStatus(ctx, "missing", model.OrderPending, model.OrderConfirmed), ErrOrderNotFound)
}

func TestLedgerListsNewestFirst(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

	require.NoError(t, l.Create(ctx, newOrder("old", 1, 9, base, time.Minute)))
	require.NoError(t, l.Create(ctx, newOrder("mid", 1, 9, base.Add(time.Minute), time.Minute)))
	require.NoError(t, l.Create(ctx, newOrder("new", 2, 9, base.Add(2*time.Minute), time.Minute)))

	byUser, err := l.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, byUser, 2)
	assert.Equal(t, "mid", byUser[0].ID)
	assert.Equal(t, "old", byUser[1].ID)

	byShowing, err := l.ListByShowing(ctx, 9)
	require.NoError(t, err)
	require.Len(t, byShowing, 3)
	assert.Equal(t, "new", byShowing[0].ID)
}

func TestLedgerFindExpiredHolds(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

	require.NoError(t, l.Create(ctx, newOrder("due", 1, 1, base, time.Minute)))
	require.NoError(t, l.Create(ctx, newOrder("later", 1, 1, base, time.Hour)))
	confirmed := newOrder("confirmed", 1, 1, base, time.Minute)
	require.NoError(t, l.Create(ctx, confirmed))
	require.NoError(t, l.UpdateStatus(ctx, "confirmed", model.OrderPending, model.OrderConfirmed))

	// The deadline is inclusive: an order expiring exactly now is due.
	due, err := l.FindExpiredHolds(ctx, base.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "due", due[0].ID)
}
