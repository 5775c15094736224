package payments

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/url"
	"time"

	"tickethub/internal/orders"
	"tickethub/pkg/logger"

	"github.com/google/uuid"
)

var ErrNotOrderOwner = errors.New("order belongs to another user")

// OrderStore is the slice of the orders repository the payment flow
// needs. Satisfied by orders.Repository.
type OrderStore interface {
	GetOrder(ctx context.Context, orderID uuid.UUID) (*orders.Order, error)
	SetPaymentRef(ctx context.Context, orderID uuid.UUID, ref string) (bool, error)
}

// Confirmer applies verified payment outcomes to the order ledger.
// Satisfied by orders.Service.
type Confirmer interface {
	ConfirmPayment(ctx context.Context, outcome orders.PaymentOutcome) (*orders.ConfirmationResult, error)
}

type Service interface {
	BuildPaymentURL(ctx context.Context, orderID, userID uuid.UUID, clientIP string) (*PaymentRequest, error)
	HandleCallback(ctx context.Context, params url.Values) (*orders.ConfirmationResult, error)
}

type service struct {
	store     OrderStore
	confirmer Confirmer
	gateway   Gateway
	now       func() time.Time
	logger    *logger.Logger
}

func NewService(store OrderStore, confirmer Confirmer, gateway Gateway) Service {
	return &service{
		store:     store,
		confirmer: confirmer,
		gateway:   gateway,
		now:       time.Now,
		logger:    logger.GetDefault(),
	}
}

// BuildPaymentURL mints the order's payment reference if it does not
// have one yet and returns the signed redirect. Repeat calls reuse the
// minted reference. Order status is never touched here.
func (s *service) BuildPaymentURL(ctx context.Context, orderID, userID uuid.UUID, clientIP string) (*PaymentRequest, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrNotOrderOwner
	}

	now := s.now()
	if !order.IsPending() || order.HoldsExpired(now) {
		status := order.Status
		if order.IsPending() {
			status = orders.StatusExpired
		}
		return nil, &orders.InvalidOrderStateError{OrderID: order.ID, Status: status}
	}

	reference, err := s.ensureReference(ctx, order)
	if err != nil {
		return nil, err
	}

	redirectURL, err := s.gateway.BuildRedirectURL(
		reference,
		order.TotalAmountCents,
		fmt.Sprintf("order %s", order.ID),
		clientIP,
		now,
	)
	if err != nil {
		return nil, err
	}

	return &PaymentRequest{
		OrderID:     order.ID.String(),
		Reference:   reference,
		AmountCents: order.TotalAmountCents,
		RedirectURL: redirectURL,
		CreatedAt:   now,
	}, nil
}

// ensureReference claims the 1:1 payment reference with a guarded
// update. If a concurrent call won the mint, the winner's reference is
// re-read and reused.
func (s *service) ensureReference(ctx context.Context, order *orders.Order) (string, error) {
	if order.PaymentRef != nil && *order.PaymentRef != "" {
		return *order.PaymentRef, nil
	}

	reference, err := mintReference(s.now())
	if err != nil {
		return "", err
	}

	claimed, err := s.store.SetPaymentRef(ctx, order.ID, reference)
	if err != nil {
		return "", err
	}
	if claimed {
		return reference, nil
	}

	fresh, err := s.store.GetOrder(ctx, order.ID)
	if err != nil {
		return "", err
	}
	if fresh.PaymentRef == nil || *fresh.PaymentRef == "" {
		return "", fmt.Errorf("payment reference for order %s could not be claimed", order.ID)
	}
	return *fresh.PaymentRef, nil
}

// HandleCallback verifies the gateway parameters, then delegates the
// verified outcome to the confirmation executor. Verification failures
// stop here and change nothing.
func (s *service) HandleCallback(ctx context.Context, params url.Values) (*orders.ConfirmationResult, error) {
	result, err := s.gateway.VerifyCallback(params)
	if err != nil {
		s.logger.Warn("rejected gateway callback", "error", err)
		return nil, err
	}

	return s.confirmer.ConfirmPayment(ctx, orders.PaymentOutcome{
		Reference:   result.Reference,
		AmountCents: result.AmountCents,
		Succeeded:   result.Succeeded,
	})
}

// mintReference builds a unique payment reference like
// PAY-20260115-9F2C41A07B3D58E6.
func mintReference(now time.Time) (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate payment reference: %w", err)
	}
	return fmt.Sprintf("PAY-%s-%X", now.UTC().Format("20060102"), b), nil
}
