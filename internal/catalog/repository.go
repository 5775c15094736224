package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrEventNotFound = errors.New("event not found")

type Repository interface {
	GetEvent(ctx context.Context, eventID uuid.UUID) (*Event, error)
	GetSeatsByEvent(ctx context.Context, eventID uuid.UUID) ([]Seat, error)
	GetSeatsByIDs(ctx context.Context, eventID uuid.UUID, seatIDs []uuid.UUID) ([]Seat, error)
	CreateEvent(ctx context.Context, event *Event) error
	CreateSeats(ctx context.Context, seats []Seat) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetEvent(ctx context.Context, eventID uuid.UUID) (*Event, error) {
	var event Event
	err := r.db.WithContext(ctx).Where("id = ?", eventID).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &event, nil
}

func (r *repository) GetSeatsByEvent(ctx context.Context, eventID uuid.UUID) ([]Seat, error) {
	var seats []Seat
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("section, row, seat_number").
		Find(&seats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get seats for event: %w", err)
	}
	return seats, nil
}

// GetSeatsByIDs returns only the seats that exist for the event.
// Callers must treat missing ids as unavailable.
func (r *repository) GetSeatsByIDs(ctx context.Context, eventID uuid.UUID, seatIDs []uuid.UUID) ([]Seat, error) {
	if len(seatIDs) == 0 {
		return nil, nil
	}

	var seats []Seat
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND id IN ?", eventID, seatIDs).
		Find(&seats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get seats by ids: %w", err)
	}
	return seats, nil
}

func (r *repository) CreateEvent(ctx context.Context, event *Event) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *repository) CreateSeats(ctx context.Context, seats []Seat) error {
	if len(seats) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(seats, 500).Error; err != nil {
		return fmt.Errorf("failed to create seats: %w", err)
	}
	return nil
}
