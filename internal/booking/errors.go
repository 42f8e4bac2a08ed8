// Package booking contains the reservation consistency engine: the
// component that turns "reserve these seats for this showing" into
// either a committed order or a structured rejection, under concurrent
// access, with time-bounded holds.
package booking

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cinebook/cinema-booking/internal/inventory"
)

// ErrInvalidRequest is returned for malformed input: an empty seat set
// or duplicate seat labels.  Rejected before any store access.
var ErrInvalidRequest = errors.New("invalid request")

// ErrOrderNotFound is returned when no order with the given ID exists.
var ErrOrderNotFound = errors.New("order not found")

// ErrOrderExpired is returned when a hold's deadline passed before it
// could be confirmed, whether or not the reaper has swept it yet.
var ErrOrderExpired = errors.New("order expired")

// ErrInvalidState is returned for illegal order lifecycle transitions,
// such as confirming an already-cancelled order.
var ErrInvalidState = errors.New("invalid order state")

// ErrUnknownSeat is returned when a request names a seat that does not
// exist in the showing's hall layout.
var ErrUnknownSeat = inventory.ErrUnknownSeat

// ErrStoreUnavailable is returned when the seat inventory backend
// itself failed.  It is never conflated with seat contention.
var ErrStoreUnavailable = inventory.ErrStoreUnavailable

// SeatsUnavailableError is the recoverable rejection returned when one
// or more requested seats are not free.  Conflicts lists exactly which
// of the requested seats lost, so the caller can retry for the rest or
// abort.
type SeatsUnavailableError struct {
	Conflicts []string
}

func (e *SeatsUnavailableError) Error() string {
	return fmt.Sprintf("seats unavailable: %s", strings.Join(e.Conflicts, ", "))
}
