// Package queue defines message payloads exchanged over the message broker.
package queue

// OrderConfirmedEvent is published when an order is successfully
// confirmed.  It contains enough information for downstream consumers
// to log, notify, or trigger analytics without querying the primary
// database.
type OrderConfirmedEvent struct {
	OrderID     string   `json:"order_id"`
	UserID      uint64   `json:"user_id"`
	ShowingID   uint64   `json:"showing_id"`
	Seats       []string `json:"seats"`
	ConfirmedAt string   `json:"confirmed_at"`
}
