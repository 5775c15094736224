package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tickethub/internal/catalog"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository is the transactional store for orders, holds and tickets.
// WithTx runs fn against a repository bound to a single database
// transaction; every confirmation and hold-creation path goes through
// it.
type Repository interface {
	WithTx(ctx context.Context, fn func(tx Repository) error) error

	// Seat locking and occupancy
	GetSeatsForUpdate(ctx context.Context, eventID uuid.UUID, seatIDs []uuid.UUID) ([]catalog.Seat, error)
	ReleaseExpiredHoldsOnSeats(ctx context.Context, seatIDs []uuid.UUID, now time.Time) error
	ActiveHoldSeatIDs(ctx context.Context, eventID uuid.UUID, seatIDs []uuid.UUID, now time.Time) (map[uuid.UUID]bool, error)
	TicketSeatIDs(ctx context.Context, eventID uuid.UUID, seatIDs []uuid.UUID) (map[uuid.UUID]bool, error)
	ActiveHoldSeatIDsByEvent(ctx context.Context, eventID uuid.UUID, now time.Time) (map[uuid.UUID]bool, error)
	TicketSeatIDsByEvent(ctx context.Context, eventID uuid.UUID) (map[uuid.UUID]bool, error)

	// Orders
	CreateOrder(ctx context.Context, order *Order) error
	GetOrder(ctx context.Context, orderID uuid.UUID) (*Order, error)
	GetOrderForUpdate(ctx context.Context, orderID uuid.UUID) (*Order, error)
	GetOrderByPaymentRef(ctx context.Context, ref string) (*Order, error)
	GetOrderByPaymentRefForUpdate(ctx context.Context, ref string) (*Order, error)
	SetPaymentRef(ctx context.Context, orderID uuid.UUID, ref string) (bool, error)
	UpdateStatusFrom(ctx context.Context, orderID uuid.UUID, from, to Status) (bool, error)
	ListExpiredPendingOrders(ctx context.Context, now time.Time, limit int) ([]Order, error)

	// Holds
	CreateHolds(ctx context.Context, holds []Hold) error
	GetHoldsByOrder(ctx context.Context, orderID uuid.UUID) ([]Hold, error)
	ReleaseHoldsByOrder(ctx context.Context, orderID uuid.UUID, now time.Time) error

	// Tickets
	CreateTickets(ctx context.Context, tickets []Ticket) error
	GetTicketsByOrder(ctx context.Context, orderID uuid.UUID) ([]Ticket, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(ctx context.Context, fn func(tx Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&repository{db: tx})
	})
}

// GetSeatsForUpdate locks the seat rows for the rest of the
// transaction. Ordered by id so concurrent checkouts acquire locks in
// the same order and cannot deadlock.
func (r *repository) GetSeatsForUpdate(ctx context.Context, eventID uuid.UUID, seatIDs []uuid.UUID) ([]catalog.Seat, error) {
	var seats []catalog.Seat
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND id IN ?", eventID, seatIDs).
		Order("id").
		Set("gorm:query_option", "FOR UPDATE").
		Find(&seats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock seats: %w", err)
	}
	return seats, nil
}

// ReleaseExpiredHoldsOnSeats lazily frees lapsed holds on the given
// seats so a new checkout can claim them without waiting for the
// sweeper.
func (r *repository) ReleaseExpiredHoldsOnSeats(ctx context.Context, seatIDs []uuid.UUID, now time.Time) error {
	if len(seatIDs) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&Hold{}).
		Where("seat_id IN ? AND released_at IS NULL AND expires_at <= ?", seatIDs, now).
		Update("released_at", now).Error
	if err != nil {
		return fmt.Errorf("failed to release expired holds: %w", err)
	}
	return nil
}

func (r *repository) ActiveHoldSeatIDs(ctx context.Context, eventID uuid.UUID, seatIDs []uuid.UUID, now time.Time) (map[uuid.UUID]bool, error) {
	if len(seatIDs) == 0 {
		return map[uuid.UUID]bool{}, nil
	}
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&Hold{}).
		Where("event_id = ? AND seat_id IN ? AND released_at IS NULL AND expires_at > ?", eventID, seatIDs, now).
		Pluck("seat_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query active holds: %w", err)
	}
	return toSeatSet(ids), nil
}

func (r *repository) TicketSeatIDs(ctx context.Context, eventID uuid.UUID, seatIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	if len(seatIDs) == 0 {
		return map[uuid.UUID]bool{}, nil
	}
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&Ticket{}).
		Where("event_id = ? AND seat_id IN ?", eventID, seatIDs).
		Pluck("seat_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query ticketed seats: %w", err)
	}
	return toSeatSet(ids), nil
}

func (r *repository) ActiveHoldSeatIDsByEvent(ctx context.Context, eventID uuid.UUID, now time.Time) (map[uuid.UUID]bool, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&Hold{}).
		Where("event_id = ? AND released_at IS NULL AND expires_at > ?", eventID, now).
		Pluck("seat_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query active holds for event: %w", err)
	}
	return toSeatSet(ids), nil
}

func (r *repository) TicketSeatIDsByEvent(ctx context.Context, eventID uuid.UUID) (map[uuid.UUID]bool, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&Ticket{}).
		Where("event_id = ?", eventID).
		Pluck("seat_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query ticketed seats for event: %w", err)
	}
	return toSeatSet(ids), nil
}

func (r *repository) CreateOrder(ctx context.Context, order *Order) error {
	if err := r.db.WithContext(ctx).Omit("Holds", "Tickets").Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *repository) GetOrder(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	var order Order
	err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

func (r *repository) GetOrderForUpdate(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	var order Order
	err := r.db.WithContext(ctx).
		Where("id = ?", orderID).
		Set("gorm:query_option", "FOR UPDATE").
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	return &order, nil
}

func (r *repository) GetOrderByPaymentRef(ctx context.Context, ref string) (*Order, error) {
	var order Order
	err := r.db.WithContext(ctx).Where("payment_ref = ?", ref).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownReference
		}
		return nil, fmt.Errorf("failed to get order by payment ref: %w", err)
	}
	return &order, nil
}

func (r *repository) GetOrderByPaymentRefForUpdate(ctx context.Context, ref string) (*Order, error) {
	var order Order
	err := r.db.WithContext(ctx).
		Where("payment_ref = ?", ref).
		Set("gorm:query_option", "FOR UPDATE").
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownReference
		}
		return nil, fmt.Errorf("failed to lock order by payment ref: %w", err)
	}
	return &order, nil
}

// SetPaymentRef mints the reference exactly once. The guarded update
// only succeeds while payment_ref is still null, so concurrent calls
// cannot overwrite an already minted reference.
func (r *repository) SetPaymentRef(ctx context.Context, orderID uuid.UUID, ref string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND payment_ref IS NULL", orderID).
		Update("payment_ref", ref)
	if result.Error != nil {
		return false, fmt.Errorf("failed to set payment ref: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// UpdateStatusFrom performs the compare-and-swap transition. Returns
// false when the order was not in the expected state, which callers
// treat as a lost race.
func (r *repository) UpdateStatusFrom(ctx context.Context, orderID uuid.UUID, from, to Status) (bool, error) {
	result := r.db.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Update("status", to)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update order status: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) ListExpiredPendingOrders(ctx context.Context, now time.Time, limit int) ([]Order, error) {
	var expired []Order
	err := r.db.WithContext(ctx).
		Where("status = ? AND hold_expires_at <= ?", StatusPending, now).
		Order("hold_expires_at").
		Limit(limit).
		Find(&expired).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list expired pending orders: %w", err)
	}
	return expired, nil
}

func (r *repository) CreateHolds(ctx context.Context, holds []Hold) error {
	if len(holds) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&holds).Error; err != nil {
		return fmt.Errorf("failed to create holds: %w", err)
	}
	return nil
}

func (r *repository) GetHoldsByOrder(ctx context.Context, orderID uuid.UUID) ([]Hold, error) {
	var holds []Hold
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at").
		Find(&holds).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get holds for order: %w", err)
	}
	return holds, nil
}

// ReleaseHoldsByOrder retires every still-active hold of the order.
// Used both when tickets are issued and when the order fails or
// expires; the hold rows stay for audit.
func (r *repository) ReleaseHoldsByOrder(ctx context.Context, orderID uuid.UUID, now time.Time) error {
	err := r.db.WithContext(ctx).Model(&Hold{}).
		Where("order_id = ? AND released_at IS NULL", orderID).
		Update("released_at", now).Error
	if err != nil {
		return fmt.Errorf("failed to release holds for order: %w", err)
	}
	return nil
}

func (r *repository) CreateTickets(ctx context.Context, tickets []Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&tickets).Error; err != nil {
		return fmt.Errorf("failed to create tickets: %w", err)
	}
	return nil
}

func (r *repository) GetTicketsByOrder(ctx context.Context, orderID uuid.UUID) ([]Ticket, error) {
	var tickets []Ticket
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at").
		Find(&tickets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get tickets for order: %w", err)
	}
	return tickets, nil
}

func toSeatSet(ids []uuid.UUID) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
