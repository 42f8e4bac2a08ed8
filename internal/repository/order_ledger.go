package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cinebook/cinema-booking/internal/booking"
	"github.com/cinebook/cinema-booking/internal/model"
)

// OrderLedger is the MySQL implementation of booking.Ledger.  Orders
// live in the orders table with the seat labels serialized as a JSON
// array column; status transitions are compare-and-set updates guarded
// by the order state machine.
type OrderLedger struct{ db *sql.DB }

// NewOrderLedger returns an OrderLedger bound to the given database.
func NewOrderLedger(db *sql.DB) *OrderLedger { return &OrderLedger{db: db} }

// Create appends a new order.
func (l *OrderLedger) Create(ctx context.Context, o *model.Order) error {
	seats, err := json.Marshal(o.Seats)
	if err != nil {
		return err
	}
	_, err = l.db.ExecContext(ctx,
		"INSERT INTO orders (id, user_id, showing_id, seats, status, created_at, expires_at) VALUES (?,?,?,?,?,?,?)",
		o.ID, o.UserID, o.ShowingID, string(seats), string(o.Status),
		o.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		o.ExpiresAt.UTC().Format("2006-01-02 15:04:05"))
	return err
}

// Get returns the order with the given ID or booking.ErrOrderNotFound.
func (l *OrderLedger) Get(ctx context.Context, id string) (*model.Order, error) {
	row := l.db.QueryRowContext(ctx,
		"SELECT id, user_id, showing_id, seats, status, created_at, expires_at FROM orders WHERE id=? LIMIT 1", id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", id, booking.ErrOrderNotFound)
	}
	return o, err
}

// UpdateStatus moves an order from one status to another.  The WHERE
// clause on the current status makes the update a compare-and-set;
// zero affected rows means the order moved or never existed.
func (l *OrderLedger) UpdateStatus(ctx context.Context, id string, from, to model.OrderStatus) error {
	if !from.CanTransition(to) {
		return fmt.Errorf("order %s: %s -> %s: %w", id, from, to, booking.ErrInvalidState)
	}
	res, err := l.db.ExecContext(ctx,
		"UPDATE orders SET status=? WHERE id=? AND status=?", string(to), id, string(from))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := l.Get(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("order %s: not %s: %w", id, from, booking.ErrInvalidState)
	}
	return nil
}

// ListByUser returns the user's orders, newest first.
func (l *OrderLedger) ListByUser(ctx context.Context, userID uint64) ([]*model.Order, error) {
	return l.list(ctx,
		"SELECT id, user_id, showing_id, seats, status, created_at, expires_at FROM orders WHERE user_id=? ORDER BY created_at DESC, id DESC", userID)
}

// ListByShowing returns all orders for a showing, newest first.
func (l *OrderLedger) ListByShowing(ctx context.Context, showingID uint64) ([]*model.Order, error) {
	return l.list(ctx,
		"SELECT id, user_id, showing_id, seats, status, created_at, expires_at FROM orders WHERE showing_id=? ORDER BY created_at DESC, id DESC", showingID)
}

// FindExpiredHolds returns every PENDING order whose hold deadline is
// at or before the given instant.
func (l *OrderLedger) FindExpiredHolds(ctx context.Context, now time.Time) ([]*model.Order, error) {
	return l.list(ctx,
		"SELECT id, user_id, showing_id, seats, status, created_at, expires_at FROM orders WHERE status='PENDING' AND expires_at<=?",
		now.UTC().Format("2006-01-02 15:04:05"))
}

func (l *OrderLedger) list(ctx context.Context, query string, args ...interface{}) ([]*model.Order, error) {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// rowScanner abstracts sql.Row and sql.Rows for scanOrder.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*model.Order, error) {
	var (
		o      model.Order
		seats  string
		status string
	)
	if err := row.Scan(&o.ID, &o.UserID, &o.ShowingID, &seats, &status, &o.CreatedAt, &o.ExpiresAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(seats), &o.Seats); err != nil {
		return nil, fmt.Errorf("order %s: decode seats: %v", o.ID, err)
	}
	o.Status = model.OrderStatus(status)
	o.CreatedAt = o.CreatedAt.UTC()
	o.ExpiresAt = o.ExpiresAt.UTC()
	return &o, nil
}
