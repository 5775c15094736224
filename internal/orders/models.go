package orders

import (
	"time"

	"github.com/google/uuid"
)

// Order is the ledger row for one checkout attempt. TotalAmountCents
// is frozen from seat prices when the order is created and never
// recomputed afterwards.
type Order struct {
	ID               uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID           uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	EventID          uuid.UUID `gorm:"type:uuid;index;not null" json:"event_id"`
	Status           Status    `gorm:"type:varchar(20);check:status IN ('PENDING', 'PAID', 'FAILED', 'EXPIRED');default:'PENDING'" json:"status"`
	TotalAmountCents int64     `gorm:"not null;check:total_amount_cents >= 0" json:"total_amount_cents"`
	PaymentRef       *string   `gorm:"type:varchar(64);uniqueIndex" json:"payment_ref,omitempty"`
	HoldExpiresAt    time.Time `gorm:"index;not null" json:"hold_expires_at"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	// Relationships
	Holds   []Hold   `json:"holds,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:RESTRICT;"`
	Tickets []Ticket `json:"tickets,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:RESTRICT;"`
}

// Hold reserves a single seat for an order until it expires or is
// released. Rows are never deleted; release sets ReleasedAt so the
// partial unique index on active holds frees the seat.
type Hold struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrderID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"order_id"`
	EventID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"event_id"`
	SeatID     uuid.UUID  `gorm:"type:uuid;not null" json:"seat_id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null" json:"user_id"`
	PriceCents int64      `gorm:"not null" json:"price_cents"`
	ExpiresAt  time.Time  `gorm:"index;not null" json:"expires_at"`
	ReleasedAt *time.Time `json:"released_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Ticket is the durable proof of purchase for one seat. Created only
// inside the payment confirmation transaction.
type Ticket struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrderID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_ticket_order_seat" json:"order_id"`
	SeatID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_ticket_order_seat;uniqueIndex:idx_ticket_event_seat" json:"seat_id"`
	EventID    uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_ticket_event_seat" json:"event_id"`
	UserID     uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	PriceCents int64     `gorm:"not null" json:"price_cents"`
	QRPayload  string    `gorm:"type:text;not null" json:"qr_payload"`
	IssuedAt   time.Time `gorm:"not null" json:"issued_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsActive reports whether the hold still reserves its seat at the
// given instant.
func (h *Hold) IsActive(now time.Time) bool {
	return h.ReleasedAt == nil && h.ExpiresAt.After(now)
}

// IsExpired reports whether the hold lapsed without being released.
func (h *Hold) IsExpired(now time.Time) bool {
	return h.ReleasedAt == nil && !h.ExpiresAt.After(now)
}

func (o *Order) IsPending() bool {
	return o.Status == StatusPending
}

func (o *Order) IsPaid() bool {
	return o.Status == StatusPaid
}

// HoldsExpired reports whether a pending order can no longer be paid
// because its reservation window lapsed.
func (o *Order) HoldsExpired(now time.Time) bool {
	return !o.HoldExpiresAt.After(now)
}

// TableName sets the table name for Order
func (Order) TableName() string {
	return "orders"
}

// TableName sets the table name for Hold
func (Hold) TableName() string {
	return "holds"
}

// TableName sets the table name for Ticket
func (Ticket) TableName() string {
	return "tickets"
}
