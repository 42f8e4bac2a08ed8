package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	assert.True(t, OrderPending.CanTransition(OrderConfirmed))
	assert.True(t, OrderPending.CanTransition(OrderCancelled))
	assert.True(t, OrderPending.CanTransition(OrderExpired))
	assert.True(t, OrderConfirmed.CanTransition(OrderCancelled))

	assert.False(t, OrderConfirmed.CanTransition(OrderExpired))
	assert.False(t, OrderCancelled.CanTransition(OrderPending))
	assert.False(t, OrderExpired.CanTransition(OrderConfirmed))
	assert.False(t, OrderExpired.CanTransition(OrderCancelled))
}

func TestHoldExpiredDeadlineIsInclusive(t *testing.T) {
	deadline := time.Date(2026, 3, 14, 18, 5, 0, 0, time.UTC)
	o := Order{Status: OrderPending, ExpiresAt: deadline}

	assert.False(t, o.HoldExpired(deadline.Add(-time.Second)))
	assert.True(t, o.HoldExpired(deadline))
	assert.True(t, o.HoldExpired(deadline.Add(time.Second)))

	o.Status = OrderConfirmed
	assert.False(t, o.HoldExpired(deadline.Add(time.Hour)), "only pending orders hold seats")
}
