package catalog

import (
	"context"
	"fmt"

	"tickethub/internal/shared/constants"
	"tickethub/pkg/cache"
	"tickethub/pkg/logger"

	"github.com/google/uuid"
)

// OccupancyProvider reports which seats of an event currently carry an
// active hold or an issued ticket. Implemented by the orders service;
// declared here to avoid a circular import.
type OccupancyProvider interface {
	SeatOccupancy(ctx context.Context, eventID uuid.UUID) (held map[uuid.UUID]bool, sold map[uuid.UUID]bool, err error)
}

type Service interface {
	GetEvent(ctx context.Context, eventID uuid.UUID) (*EventResponse, error)
	GetSeatMap(ctx context.Context, eventID uuid.UUID) (*SeatMapResponse, error)
	SetOccupancyProvider(provider OccupancyProvider)
}

type service struct {
	repo      Repository
	cache     cache.Service
	occupancy OccupancyProvider
	logger    *logger.Logger
}

func NewService(repo Repository, cacheService cache.Service) Service {
	return &service{
		repo:   repo,
		cache:  cacheService,
		logger: logger.GetDefault(),
	}
}

// SetOccupancyProvider wires the orders service in after construction.
func (s *service) SetOccupancyProvider(provider OccupancyProvider) {
	s.occupancy = provider
}

func (s *service) GetEvent(ctx context.Context, eventID uuid.UUID) (*EventResponse, error) {
	event, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	resp := event.ToResponse()
	return &resp, nil
}

// GetSeatMap returns every seat of the event annotated with its derived
// state. Served through a short-TTL cache; the checkout path never
// reads this, it re-checks inside its own transaction.
func (s *service) GetSeatMap(ctx context.Context, eventID uuid.UUID) (*SeatMapResponse, error) {
	cacheKey := constants.BuildSeatMapKey(eventID.String())

	var cached SeatMapResponse
	if s.cache != nil {
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	event, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	seats, err := s.repo.GetSeatsByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	held := map[uuid.UUID]bool{}
	sold := map[uuid.UUID]bool{}
	if s.occupancy != nil {
		held, sold, err = s.occupancy.SeatOccupancy(ctx, eventID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve seat occupancy: %w", err)
		}
	}

	resp := &SeatMapResponse{
		Event: event.ToResponse(),
		Seats: make([]SeatResponse, 0, len(seats)),
	}
	for i := range seats {
		seat := &seats[i]
		resp.Seats = append(resp.Seats, seat.ToResponse(held[seat.ID], sold[seat.ID]))
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, resp, constants.TTL_SEAT_MAP); err != nil {
			s.logger.Warn("seat map cache set failed", "event_id", eventID.String(), "error", err)
		}
	}

	return resp, nil
}
