package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tickethub/internal/catalog"
	"tickethub/pkg/logger"

	"github.com/google/uuid"
)

// PaymentOutcome is the verified result of a gateway callback. By the
// time it reaches the confirmation path the signature has already been
// checked; the amount is in minor units.
type PaymentOutcome struct {
	Reference   string
	AmountCents int64
	Succeeded   bool
}

// ConfirmationResult is what a callback handler reports back to the
// gateway. Replayed marks an idempotent re-confirmation of an already
// paid order.
type ConfirmationResult struct {
	Order    *Order
	Tickets  []Ticket
	Replayed bool
}

// EventPublisher emits post-commit notification events. Implementations
// must be safe to call concurrently; failures are logged, never
// propagated into the checkout flow.
type EventPublisher interface {
	PublishOrderPaid(ctx context.Context, order *Order, tickets []Ticket) error
	PublishOrderFailed(ctx context.Context, order *Order, reason string) error
}

// Config tunes the checkout flow.
type Config struct {
	HoldTTL          time.Duration
	MaxSeatsPerOrder int
	QRSecret         string
}

type Service interface {
	CheckAvailability(ctx context.Context, eventID uuid.UUID, seatIDs []uuid.UUID) (map[uuid.UUID]bool, error)
	CreateHoldsAndOrder(ctx context.Context, userID, eventID uuid.UUID, seatIDs []uuid.UUID) (*Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*Order, error)
	ConfirmPayment(ctx context.Context, outcome PaymentOutcome) (*ConfirmationResult, error)
	ExpireStaleOrders(ctx context.Context, batchSize int) (int, error)
	SeatOccupancy(ctx context.Context, eventID uuid.UUID) (map[uuid.UUID]bool, map[uuid.UUID]bool, error)
	SetPublisher(publisher EventPublisher)
}

type service struct {
	repo        Repository
	catalogRepo catalog.Repository
	publisher   EventPublisher
	config      Config
	now         func() time.Time
	logger      *logger.Logger
}

func NewService(repo Repository, catalogRepo catalog.Repository, config Config) Service {
	if config.HoldTTL <= 0 {
		config.HoldTTL = 10 * time.Minute
	}
	if config.MaxSeatsPerOrder <= 0 {
		config.MaxSeatsPerOrder = 10
	}

	return &service{
		repo:        repo,
		catalogRepo: catalogRepo,
		config:      config,
		now:         time.Now,
		logger:      logger.GetDefault(),
	}
}

// SetPublisher wires the notification producer in after construction.
// The service works without one.
func (s *service) SetPublisher(publisher EventPublisher) {
	s.publisher = publisher
}

// CheckAvailability is advisory. It reads outside any transaction and
// writes nothing; checkout re-checks under locks. Unknown seat ids
// report unavailable.
func (s *service) CheckAvailability(ctx context.Context, eventID uuid.UUID, seatIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	seatIDs = dedupeSeatIDs(seatIDs)

	result := make(map[uuid.UUID]bool, len(seatIDs))
	for _, id := range seatIDs {
		result[id] = false
	}

	seats, err := s.catalogRepo.GetSeatsByIDs(ctx, eventID, seatIDs)
	if err != nil {
		return nil, err
	}

	now := s.now()
	held, err := s.repo.ActiveHoldSeatIDs(ctx, eventID, seatIDs, now)
	if err != nil {
		return nil, err
	}
	sold, err := s.repo.TicketSeatIDs(ctx, eventID, seatIDs)
	if err != nil {
		return nil, err
	}

	for i := range seats {
		seat := &seats[i]
		result[seat.ID] = !seat.Blocked && !held[seat.ID] && !sold[seat.ID]
	}
	return result, nil
}

// CreateHoldsAndOrder reserves the requested seats and opens a pending
// order in one transaction. Seat rows are locked before availability is
// re-checked, expired holds on the requested seats are released first,
// and the order total is frozen from the current seat prices. Any
// conflict rolls everything back and names the offending seats.
func (s *service) CreateHoldsAndOrder(ctx context.Context, userID, eventID uuid.UUID, seatIDs []uuid.UUID) (*Order, error) {
	seatIDs = dedupeSeatIDs(seatIDs)
	if len(seatIDs) == 0 {
		return nil, ErrNoSeatsSelected
	}
	if len(seatIDs) > s.config.MaxSeatsPerOrder {
		return nil, ErrTooManySeats
	}

	var order *Order
	err := s.repo.WithTx(ctx, func(tx Repository) error {
		now := s.now()

		seats, err := tx.GetSeatsForUpdate(ctx, eventID, seatIDs)
		if err != nil {
			return err
		}

		seatByID := make(map[uuid.UUID]*catalog.Seat, len(seats))
		for i := range seats {
			seatByID[seats[i].ID] = &seats[i]
		}

		if err := tx.ReleaseExpiredHoldsOnSeats(ctx, seatIDs, now); err != nil {
			return err
		}

		held, err := tx.ActiveHoldSeatIDs(ctx, eventID, seatIDs, now)
		if err != nil {
			return err
		}
		sold, err := tx.TicketSeatIDs(ctx, eventID, seatIDs)
		if err != nil {
			return err
		}

		var unavailable []uuid.UUID
		for _, id := range seatIDs {
			seat, known := seatByID[id]
			if !known || seat.Blocked || held[id] || sold[id] {
				unavailable = append(unavailable, id)
			}
		}
		if len(unavailable) > 0 {
			return &SeatsUnavailableError{SeatIDs: unavailable}
		}

		var totalCents int64
		for _, id := range seatIDs {
			totalCents += seatByID[id].PriceCents
		}

		order = &Order{
			ID:               uuid.New(),
			UserID:           userID,
			EventID:          eventID,
			Status:           StatusPending,
			TotalAmountCents: totalCents,
			HoldExpiresAt:    now.Add(s.config.HoldTTL),
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}

		holds := make([]Hold, 0, len(seatIDs))
		for _, id := range seatIDs {
			holds = append(holds, Hold{
				ID:         uuid.New(),
				OrderID:    order.ID,
				EventID:    eventID,
				SeatID:     id,
				UserID:     userID,
				PriceCents: seatByID[id].PriceCents,
				ExpiresAt:  order.HoldExpiresAt,
			})
		}
		if err := tx.CreateHolds(ctx, holds); err != nil {
			// The partial unique index on active holds is the backstop
			// for races the row locks cannot see.
			if isUniqueViolation(err) {
				return &SeatsUnavailableError{SeatIDs: seatIDs}
			}
			return err
		}

		order.Holds = holds
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		"order_id", order.ID.String(),
		"event_id", eventID.String(),
		"seats", len(order.Holds),
		"total_cents", order.TotalAmountCents)
	return order, nil
}

func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	order.Holds, err = s.repo.GetHoldsByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsPaid() {
		order.Tickets, err = s.repo.GetTicketsByOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
	}
	return order, nil
}

// ConfirmPayment applies a verified gateway outcome to the order
// ledger. The order row is locked for the whole decision, every status
// transition is a guarded update, and ticket issuance happens in the
// same transaction as the flip to paid. Terminal-state writes (expiry,
// failure) commit even when the caller gets an error back.
func (s *service) ConfirmPayment(ctx context.Context, outcome PaymentOutcome) (*ConfirmationResult, error) {
	if outcome.Reference == "" {
		return nil, ErrUnknownReference
	}

	var (
		result     *ConfirmationResult
		confirmErr error
		failed     *Order
		failReason string
	)

	err := s.repo.WithTx(ctx, func(tx Repository) error {
		order, err := tx.GetOrderByPaymentRefForUpdate(ctx, outcome.Reference)
		if err != nil {
			return err
		}
		now := s.now()

		switch order.Status {
		case StatusPaid:
			// Gateways retry callbacks. A replayed success for an
			// already paid order returns the original tickets.
			if outcome.Succeeded && outcome.AmountCents == order.TotalAmountCents {
				tickets, err := tx.GetTicketsByOrder(ctx, order.ID)
				if err != nil {
					return err
				}
				result = &ConfirmationResult{Order: order, Tickets: tickets, Replayed: true}
				return nil
			}
			confirmErr = &InvalidOrderStateError{OrderID: order.ID, Status: order.Status}
			return nil

		case StatusFailed, StatusExpired:
			confirmErr = &InvalidOrderStateError{OrderID: order.ID, Status: order.Status}
			return nil

		case StatusPending:
			if order.HoldsExpired(now) {
				// Lazy expiry: the seats may already be resold, so a
				// late success cannot be honored.
				if err := s.transition(ctx, tx, order, StatusExpired, now); err != nil {
					return err
				}
				confirmErr = &InvalidOrderStateError{OrderID: order.ID, Status: StatusExpired}
				return nil
			}

			if !outcome.Succeeded {
				if err := s.transition(ctx, tx, order, StatusFailed, now); err != nil {
					return err
				}
				failed, failReason = order, "gateway reported failure"
				result = &ConfirmationResult{Order: order}
				return nil
			}

			if outcome.AmountCents != order.TotalAmountCents {
				if err := s.transition(ctx, tx, order, StatusFailed, now); err != nil {
					return err
				}
				failed, failReason = order, "amount mismatch"
				confirmErr = &AmountMismatchError{
					OrderID:       order.ID,
					ExpectedCents: order.TotalAmountCents,
					ActualCents:   outcome.AmountCents,
				}
				return nil
			}

			ok, err := tx.UpdateStatusFrom(ctx, order.ID, StatusPending, StatusPaid)
			if err != nil {
				return err
			}
			if !ok {
				return &InvalidOrderStateError{OrderID: order.ID, Status: order.Status}
			}
			order.Status = StatusPaid

			tickets, err := s.issueTickets(ctx, tx, order, now)
			if err != nil {
				return err
			}
			if err := tx.ReleaseHoldsByOrder(ctx, order.ID, now); err != nil {
				return err
			}
			result = &ConfirmationResult{Order: order, Tickets: tickets}
			return nil

		default:
			return fmt.Errorf("order %s has unknown status %q", order.ID, order.Status)
		}
	})
	if err != nil {
		return nil, err
	}

	if failed != nil {
		s.publishFailed(ctx, failed, failReason)
	}
	if confirmErr != nil {
		return nil, confirmErr
	}
	if result.Order.IsPaid() && !result.Replayed {
		s.publishPaid(ctx, result.Order, result.Tickets)
	}
	return result, nil
}

// issueTickets creates one ticket per held seat with a signed QR
// payload. Runs only inside the confirmation transaction.
func (s *service) issueTickets(ctx context.Context, tx Repository, order *Order, now time.Time) ([]Ticket, error) {
	holds, err := tx.GetHoldsByOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	tickets := make([]Ticket, 0, len(holds))
	for i := range holds {
		hold := &holds[i]
		ticketID := uuid.New()
		tickets = append(tickets, Ticket{
			ID:         ticketID,
			OrderID:    order.ID,
			SeatID:     hold.SeatID,
			EventID:    hold.EventID,
			UserID:     order.UserID,
			PriceCents: hold.PriceCents,
			QRPayload:  BuildQRPayload(ticketID, hold.EventID, hold.SeatID, s.config.QRSecret),
			IssuedAt:   now,
		})
	}
	if err := tx.CreateTickets(ctx, tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

// transition moves a pending order to a terminal state and releases
// its holds.
func (s *service) transition(ctx context.Context, tx Repository, order *Order, to Status, now time.Time) error {
	ok, err := tx.UpdateStatusFrom(ctx, order.ID, StatusPending, to)
	if err != nil {
		return err
	}
	if !ok {
		return &InvalidOrderStateError{OrderID: order.ID, Status: order.Status}
	}
	order.Status = to
	return tx.ReleaseHoldsByOrder(ctx, order.ID, now)
}

// ExpireStaleOrders is the sweeper entry point. Purely an optimization
// to free seats early; every read path already expires lazily.
func (s *service) ExpireStaleOrders(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}

	stale, err := s.repo.ListExpiredPendingOrders(ctx, s.now(), batchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range stale {
		orderID := stale[i].ID
		err := s.repo.WithTx(ctx, func(tx Repository) error {
			order, err := tx.GetOrderForUpdate(ctx, orderID)
			if err != nil {
				return err
			}
			now := s.now()
			if !order.IsPending() || !order.HoldsExpired(now) {
				return nil
			}
			if err := s.transition(ctx, tx, order, StatusExpired, now); err != nil {
				return err
			}
			expired++
			return nil
		})
		if err != nil {
			s.logger.Error("failed to expire order", "order_id", orderID.String(), "error", err)
		}
	}
	return expired, nil
}

// SeatOccupancy implements catalog.OccupancyProvider for the seat map.
func (s *service) SeatOccupancy(ctx context.Context, eventID uuid.UUID) (map[uuid.UUID]bool, map[uuid.UUID]bool, error) {
	held, err := s.repo.ActiveHoldSeatIDsByEvent(ctx, eventID, s.now())
	if err != nil {
		return nil, nil, err
	}
	sold, err := s.repo.TicketSeatIDsByEvent(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	return held, sold, nil
}

func (s *service) publishPaid(ctx context.Context, order *Order, tickets []Ticket) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOrderPaid(ctx, order, tickets); err != nil {
		s.logger.Error("failed to publish order paid event", "order_id", order.ID.String(), "error", err)
	}
}

func (s *service) publishFailed(ctx context.Context, order *Order, reason string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOrderFailed(ctx, order, reason); err != nil {
		s.logger.Error("failed to publish order failed event", "order_id", order.ID.String(), "error", err)
	}
}

func dedupeSeatIDs(seatIDs []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(seatIDs))
	out := make([]uuid.UUID, 0, len(seatIDs))
	for _, id := range seatIDs {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "23505")
}
