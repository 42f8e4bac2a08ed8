package model

import "time"

// OrderStatus enumerates the lifecycle states of an order.  An order is
// created PENDING while its seats are held, becomes CONFIRMED when the
// hold is converted into a sale, CANCELLED when the user gives the
// seats back, and EXPIRED when the hold deadline passes without a
// confirmation.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderCancelled OrderStatus = "CANCELLED"
	OrderExpired   OrderStatus = "EXPIRED"
)

// CanTransition reports whether an order may move from its current
// status to the requested one.  PENDING orders may be confirmed,
// cancelled or expired.  CONFIRMED orders may still be cancelled
// (refund path).  CANCELLED and EXPIRED are terminal.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	switch s {
	case OrderPending:
		return to == OrderConfirmed || to == OrderCancelled || to == OrderExpired
	case OrderConfirmed:
		return to == OrderCancelled
	default:
		return false
	}
}

// Order aggregates one or more seats booked by a user for a single
// showing.  The seat set is fixed at creation; changing seats requires
// cancelling the order and creating a new one.
//
// Fields:
//  ID         – opaque unique identifier (UUID).
//  UserID     – user who placed the order.
//  ShowingID  – showing the seats belong to.
//  Seats      – ordered seat labels, non-empty, no duplicates.
//  Status     – current lifecycle status.
//  CreatedAt  – when the order was created.
//  ExpiresAt  – hold deadline; meaningful only while Status is PENDING.
type Order struct {
	ID        string      `json:"id"`
	UserID    uint64      `json:"user_id"`
	ShowingID uint64      `json:"showing_id"`
	Seats     []string    `json:"seats"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// HoldExpired reports whether the order's hold deadline has passed at
// the given instant.  Callers must consult this in addition to the
// status field: a PENDING order past its deadline is not a valid hold
// even before the reaper has swept it.
func (o *Order) HoldExpired(now time.Time) bool {
	return o.Status == OrderPending && !now.Before(o.ExpiresAt)
}
