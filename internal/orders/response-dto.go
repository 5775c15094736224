package orders

import "time"

type OrderResponse struct {
	OrderID          string           `json:"order_id"`
	EventID          string           `json:"event_id"`
	Status           string           `json:"status"`
	TotalAmountCents int64            `json:"total_amount_cents"`
	HoldExpiresAt    time.Time        `json:"hold_expires_at"`
	Holds            []HoldInfo       `json:"holds,omitempty"`
	Tickets          []TicketResponse `json:"tickets,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

type HoldInfo struct {
	SeatID     string    `json:"seat_id"`
	PriceCents int64     `json:"price_cents"`
	ExpiresAt  time.Time `json:"expires_at"`
	Released   bool      `json:"released"`
}

type TicketResponse struct {
	TicketID   string    `json:"ticket_id"`
	EventID    string    `json:"event_id"`
	SeatID     string    `json:"seat_id"`
	PriceCents int64     `json:"price_cents"`
	QRPayload  string    `json:"qr_payload"`
	IssuedAt   time.Time `json:"issued_at"`
}

type AvailabilityResponse struct {
	EventID string             `json:"event_id"`
	Seats   []SeatAvailability `json:"seats"`
}

type SeatAvailability struct {
	SeatID    string `json:"seat_id"`
	Available bool   `json:"available"`
}

// ToResponse converts an Order with its loaded associations.
func (o *Order) ToResponse() OrderResponse {
	resp := OrderResponse{
		OrderID:          o.ID.String(),
		EventID:          o.EventID.String(),
		Status:           o.Status.String(),
		TotalAmountCents: o.TotalAmountCents,
		HoldExpiresAt:    o.HoldExpiresAt,
		CreatedAt:        o.CreatedAt,
	}
	for i := range o.Holds {
		h := &o.Holds[i]
		resp.Holds = append(resp.Holds, HoldInfo{
			SeatID:     h.SeatID.String(),
			PriceCents: h.PriceCents,
			ExpiresAt:  h.ExpiresAt,
			Released:   h.ReleasedAt != nil,
		})
	}
	for i := range o.Tickets {
		resp.Tickets = append(resp.Tickets, o.Tickets[i].ToResponse())
	}
	return resp
}

func (t *Ticket) ToResponse() TicketResponse {
	return TicketResponse{
		TicketID:   t.ID.String(),
		EventID:    t.EventID.String(),
		SeatID:     t.SeatID.String(),
		PriceCents: t.PriceCents,
		QRPayload:  t.QRPayload,
		IssuedAt:   t.IssuedAt,
	}
}
