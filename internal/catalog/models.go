package catalog

import (
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID       uuid.UUID   `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name     string      `json:"name" gorm:"not null;size:255"`
	Venue    string      `json:"venue" gorm:"not null;size:255"`
	DateTime time.Time   `json:"date_time" gorm:"not null"`
	Status   EventStatus `json:"status" gorm:"type:varchar(20);default:'on_sale'"`

	Seats []Seat `json:"-" gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE;"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Seat is a physical seat of an event. Prices are stored in minor
// units (cents) so totals can be frozen and compared exactly.
type Seat struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	EventID    uuid.UUID `json:"event_id" gorm:"type:uuid;index;not null;uniqueIndex:idx_event_seat_label"`
	Section    string    `json:"section" gorm:"not null;size:50;uniqueIndex:idx_event_seat_label"`
	Row        string    `json:"row" gorm:"not null;size:10;uniqueIndex:idx_event_seat_label"`
	SeatNumber int       `json:"seat_number" gorm:"not null;uniqueIndex:idx_event_seat_label"`
	PriceCents int64     `json:"price_cents" gorm:"not null;check:price_cents >= 0"`
	Blocked    bool      `json:"blocked" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

type EventStatus string

const (
	EventOnSale    EventStatus = "on_sale"
	EventSoldOut   EventStatus = "sold_out"
	EventCancelled EventStatus = "cancelled"
	EventCompleted EventStatus = "completed"
)

// Derived seat states as seen by buyers. SOLD means a ticket exists,
// HELD means an active hold exists; neither is stored on the seat row.
const (
	SeatStateAvailable = "AVAILABLE"
	SeatStateHeld      = "HELD"
	SeatStateSold      = "SOLD"
	SeatStateBlocked   = "BLOCKED"
)

// EffectiveState derives the buyer-visible state from occupancy info
// supplied by the service layer. The seat row itself only knows
// whether it is blocked.
func (s *Seat) EffectiveState(isHeld, isSold bool) string {
	if s.Blocked {
		return SeatStateBlocked
	}
	if isSold {
		return SeatStateSold
	}
	if isHeld {
		return SeatStateHeld
	}
	return SeatStateAvailable
}

func (s *Seat) ToResponse(isHeld, isSold bool) SeatResponse {
	return SeatResponse{
		ID:         s.ID.String(),
		Section:    s.Section,
		Row:        s.Row,
		SeatNumber: s.SeatNumber,
		PriceCents: s.PriceCents,
		State:      s.EffectiveState(isHeld, isSold),
	}
}

func (e *Event) ToResponse() EventResponse {
	return EventResponse{
		ID:       e.ID.String(),
		Name:     e.Name,
		Venue:    e.Venue,
		DateTime: e.DateTime,
		Status:   e.Status,
	}
}

type EventResponse struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Venue    string      `json:"venue"`
	DateTime time.Time   `json:"date_time"`
	Status   EventStatus `json:"status"`
}

type SeatResponse struct {
	ID         string `json:"id"`
	Section    string `json:"section"`
	Row        string `json:"row"`
	SeatNumber int    `json:"seat_number"`
	PriceCents int64  `json:"price_cents"`
	State      string `json:"state"`
}

type SeatMapResponse struct {
	Event EventResponse  `json:"event"`
	Seats []SeatResponse `json:"seats"`
}

func (Event) TableName() string {
	return "events"
}

func (Seat) TableName() string {
	return "seats"
}
