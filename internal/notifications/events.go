package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventOrderPaid    EventType = "order.paid"
	EventOrderFailed  EventType = "order.failed"
	EventTicketIssued EventType = "ticket.issued"
)

// OrderEvent is the message published after an order reaches a
// terminal state. Consumers send confirmation emails, push tickets to
// wallets and feed analytics from it.
type OrderEvent struct {
	ID          uuid.UUID    `json:"id"`
	Type        EventType    `json:"type"`
	OrderID     uuid.UUID    `json:"order_id"`
	UserID      uuid.UUID    `json:"user_id"`
	EventID     uuid.UUID    `json:"event_id"`
	AmountCents int64        `json:"amount_cents"`
	Reason      string       `json:"reason,omitempty"`
	Tickets     []TicketInfo `json:"tickets,omitempty"`
	OccurredAt  time.Time    `json:"occurred_at"`
}

type TicketInfo struct {
	TicketID uuid.UUID `json:"ticket_id"`
	SeatID   uuid.UUID `json:"seat_id"`
}

func (e *OrderEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// PartitionKey keeps all events of one order on one partition so
// consumers see them in order.
func (e *OrderEvent) PartitionKey() string {
	return e.OrderID.String()
}
