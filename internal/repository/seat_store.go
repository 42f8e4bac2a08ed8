package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cinebook/cinema-booking/internal/inventory"
)

// SeatStore is the MySQL implementation of inventory.Store.  Each seat
// of each showing is one row in showing_seats; a Transition runs in a
// single transaction locking its rows with SELECT ... FOR UPDATE, so
// two overlapping multi-seat transitions serialize on the database and
// can never both pass their predicates against the same seat.
type SeatStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSeatStore returns a SeatStore bound to the given database.
func NewSeatStore(db *sql.DB) *SeatStore {
	return &SeatStore{db: db, now: time.Now}
}

// SetClock overrides the time source.  Intended for tests.
func (s *SeatStore) SetClock(now func() time.Time) { s.now = now }

// RegisterShowing seeds every seat of a showing as FREE in one bulk
// insert.  A duplicate showing fails on the primary key.
func (s *SeatStore) RegisterShowing(ctx context.Context, showingID uint64, labels []string) error {
	if len(labels) == 0 {
		return fmt.Errorf("showing %d: no seats to register", showingID)
	}
	var sb strings.Builder
	sb.WriteString("INSERT INTO showing_seats (showing_id, label, state) VALUES ")
	args := make([]interface{}, 0, len(labels)*2)
	for i, label := range labels {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?,?,'FREE')")
		args = append(args, showingID, label)
	}
	if _, err := s.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("%w: register showing %d: %v", inventory.ErrStoreUnavailable, showingID, err)
	}
	return nil
}

// Transition applies the predicate/transform pair to the listed seats
// inside one transaction.  Rows are locked in sorted label order to
// keep concurrent transitions deadlock free regardless of the caller's
// label order; conflicts are still reported in the caller's order.
func (s *SeatStore) Transition(ctx context.Context, showingID uint64, labels []string, pred inventory.Predicate, next inventory.Transform) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %v", inventory.ErrStoreUnavailable, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	current, err := lockSeats(ctx, tx, showingID, labels)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var conflicts []string
	for _, label := range labels {
		if !pred(current[label], now) {
			conflicts = append(conflicts, label)
		}
	}
	if len(conflicts) > 0 {
		// Nothing is mutated on conflict; the locks are released by
		// the deferred rollback.
		return conflicts, nil
	}

	for _, label := range labels {
		st := next(current[label])
		var orderID interface{}
		var expiresAt interface{}
		if st.OrderID != "" {
			orderID = st.OrderID
		}
		if !st.ExpiresAt.IsZero() {
			expiresAt = st.ExpiresAt.UTC().Format("2006-01-02 15:04:05")
		}
		_, err := tx.ExecContext(ctx,
			"UPDATE showing_seats SET state=?, order_id=?, expires_at=? WHERE showing_id=? AND label=?",
			st.State.String(), orderID, expiresAt, showingID, label)
		if err != nil {
			return nil, fmt.Errorf("%w: update seat %s: %v", inventory.ErrStoreUnavailable, label, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit: %v", inventory.ErrStoreUnavailable, err)
	}
	committed = true
	return nil, nil
}

// Snapshot returns the stored status of every seat of a showing.
func (s *SeatStore) Snapshot(ctx context.Context, showingID uint64) (map[string]inventory.SeatStatus, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT label, state, order_id, expires_at FROM showing_seats WHERE showing_id=?", showingID)
	if err != nil {
		return nil, fmt.Errorf("%w: snapshot showing %d: %v", inventory.ErrStoreUnavailable, showingID, err)
	}
	defer rows.Close()

	out := make(map[string]inventory.SeatStatus)
	for rows.Next() {
		label, st, err := scanSeat(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: snapshot showing %d: %v", inventory.ErrStoreUnavailable, showingID, err)
		}
		out[label] = st
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: snapshot showing %d: %v", inventory.ErrStoreUnavailable, showingID, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("showing %d: %w", showingID, inventory.ErrUnknownShowing)
	}
	return out, nil
}

// lockSeats selects the listed rows FOR UPDATE, in sorted label order,
// and returns their current status keyed by label.  A missing row means
// the label was never seeded for the showing.
func lockSeats(ctx context.Context, tx *sql.Tx, showingID uint64, labels []string) (map[string]inventory.SeatStatus, error) {
	sorted := append([]string(nil), labels...)
	sort.Strings(sorted)

	placeholders := make([]string, len(sorted))
	args := make([]interface{}, 0, len(sorted)+1)
	args = append(args, showingID)
	for i, label := range sorted {
		placeholders[i] = "?"
		args = append(args, label)
	}
	rows, err := tx.QueryContext(ctx,
		"SELECT label, state, order_id, expires_at FROM showing_seats WHERE showing_id=? AND label IN ("+
			strings.Join(placeholders, ",")+") ORDER BY label FOR UPDATE", args...)
	if err != nil {
		return nil, fmt.Errorf("%w: lock seats: %v", inventory.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	current := make(map[string]inventory.SeatStatus, len(sorted))
	for rows.Next() {
		label, st, err := scanSeat(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: lock seats: %v", inventory.ErrStoreUnavailable, err)
		}
		current[label] = st
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: lock seats: %v", inventory.ErrStoreUnavailable, err)
	}
	for _, label := range labels {
		if _, ok := current[label]; !ok {
			if len(current) == 0 && !showingExists(ctx, tx, showingID) {
				return nil, fmt.Errorf("showing %d: %w", showingID, inventory.ErrUnknownShowing)
			}
			return nil, fmt.Errorf("showing %d seat %s: %w", showingID, label, inventory.ErrUnknownSeat)
		}
	}
	return current, nil
}

// showingExists reports whether the showing has any seeded seats.  It
// distinguishes an unregistered showing from a request naming only
// unknown labels of a known one.
func showingExists(ctx context.Context, tx *sql.Tx, showingID uint64) bool {
	var one int
	err := tx.QueryRowContext(ctx,
		"SELECT 1 FROM showing_seats WHERE showing_id=? LIMIT 1", showingID).Scan(&one)
	return err == nil
}

// scanSeat reads one showing_seats row.
func scanSeat(rows *sql.Rows) (string, inventory.SeatStatus, error) {
	var (
		label     string
		state     string
		orderID   sql.NullString
		expiresAt sql.NullTime
	)
	if err := rows.Scan(&label, &state, &orderID, &expiresAt); err != nil {
		return "", inventory.SeatStatus{}, err
	}
	st := inventory.SeatStatus{State: inventory.ParseState(state)}
	if orderID.Valid {
		st.OrderID = orderID.String
	}
	if expiresAt.Valid {
		st.ExpiresAt = expiresAt.Time.UTC()
	}
	return label, st, nil
}
