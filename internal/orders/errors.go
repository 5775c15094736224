package orders

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrUnknownReference = errors.New("unknown payment reference")
	ErrNoSeatsSelected  = errors.New("no seats selected")
	ErrTooManySeats     = errors.New("too many seats requested")
)

// SeatsUnavailableError names every requested seat that could not be
// held: already held, already sold, blocked, or unknown.
type SeatsUnavailableError struct {
	SeatIDs []uuid.UUID
}

func (e *SeatsUnavailableError) Error() string {
	ids := make([]string, len(e.SeatIDs))
	for i, id := range e.SeatIDs {
		ids[i] = id.String()
	}
	return fmt.Sprintf("seats unavailable: %s", strings.Join(ids, ", "))
}

// AmountMismatchError reports a verified payment whose amount does not
// equal the order's frozen total. Amounts are in minor units.
type AmountMismatchError struct {
	OrderID       uuid.UUID
	ExpectedCents int64
	ActualCents   int64
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("payment amount mismatch for order %s: expected %d, got %d",
		e.OrderID, e.ExpectedCents, e.ActualCents)
}

// InvalidOrderStateError reports a confirmation attempt against an
// order that is not in a confirmable state.
type InvalidOrderStateError struct {
	OrderID uuid.UUID
	Status  Status
}

func (e *InvalidOrderStateError) Error() string {
	return fmt.Sprintf("order %s is in state %s and cannot be confirmed", e.OrderID, e.Status)
}
