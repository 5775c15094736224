package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"tickethub/internal/catalog"

	"github.com/google/uuid"
)

// fakeRepo is an in-memory Repository. WithTx snapshots the maps and
// restores them when fn errors, mirroring a rolled back transaction.
type fakeRepo struct {
	seats   map[uuid.UUID]catalog.Seat
	orders  map[uuid.UUID]*Order
	holds   map[uuid.UUID]*Hold
	tickets map[uuid.UUID]*Ticket

	createHoldsErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		seats:   make(map[uuid.UUID]catalog.Seat),
		orders:  make(map[uuid.UUID]*Order),
		holds:   make(map[uuid.UUID]*Hold),
		tickets: make(map[uuid.UUID]*Ticket),
	}
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(tx Repository) error) error {
	ordersSnap := make(map[uuid.UUID]*Order, len(f.orders))
	for id, o := range f.orders {
		cp := *o
		ordersSnap[id] = &cp
	}
	holdsSnap := make(map[uuid.UUID]*Hold, len(f.holds))
	for id, h := range f.holds {
		cp := *h
		holdsSnap[id] = &cp
	}
	ticketsSnap := make(map[uuid.UUID]*Ticket, len(f.tickets))
	for id, t := range f.tickets {
		cp := *t
		ticketsSnap[id] = &cp
	}

	if err := fn(f); err != nil {
		f.orders = ordersSnap
		f.holds = holdsSnap
		f.tickets = ticketsSnap
		return err
	}
	return nil
}

func (f *fakeRepo) GetSeatsForUpdate(ctx context.Context, eventID uuid.UUID, seatIDs []uuid.UUID) ([]catalog.Seat, error) {
	var out []catalog.Seat
	for _, id := range seatIDs {
		if seat, ok := f.seats[id]; ok && seat.EventID == eventID {
			out = append(out, seat)
		}
	}
	return out, nil
}

func (f *fakeRepo) ReleaseExpiredHoldsOnSeats(ctx context.Context, seatIDs []uuid.UUID, now time.Time) error {
	wanted := make(map[uuid.UUID]bool, len(seatIDs))
	for _, id := range seatIDs {
		wanted[id] = true
	}
	for _, h := range f.holds {
		if wanted[h.SeatID] && h.IsExpired(now) {
			released := now
			h.ReleasedAt = &released
		}
	}
	return nil
}

func (f *fakeRepo) ActiveHoldSeatIDs(ctx context.Context, eventID uuid.UUID, seatIDs []uuid.UUID, now time.Time) (map[uuid.UUID]bool, error) {
	wanted := make(map[uuid.UUID]bool, len(seatIDs))
	for _, id := range seatIDs {
		wanted[id] = true
	}
	out := make(map[uuid.UUID]bool)
	for _, h := range f.holds {
		if h.EventID == eventID && wanted[h.SeatID] && h.IsActive(now) {
			out[h.SeatID] = true
		}
	}
	return out, nil
}

func (f *fakeRepo) TicketSeatIDs(ctx context.Context, eventID uuid.UUID, seatIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	wanted := make(map[uuid.UUID]bool, len(seatIDs))
	for _, id := range seatIDs {
		wanted[id] = true
	}
	out := make(map[uuid.UUID]bool)
	for _, t := range f.tickets {
		if t.EventID == eventID && wanted[t.SeatID] {
			out[t.SeatID] = true
		}
	}
	return out, nil
}

func (f *fakeRepo) ActiveHoldSeatIDsByEvent(ctx context.Context, eventID uuid.UUID, now time.Time) (map[uuid.UUID]bool, error) {
	out := make(map[uuid.UUID]bool)
	for _, h := range f.holds {
		if h.EventID == eventID && h.IsActive(now) {
			out[h.SeatID] = true
		}
	}
	return out, nil
}

func (f *fakeRepo) TicketSeatIDsByEvent(ctx context.Context, eventID uuid.UUID) (map[uuid.UUID]bool, error) {
	out := make(map[uuid.UUID]bool)
	for _, t := range f.tickets {
		if t.EventID == eventID {
			out[t.SeatID] = true
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateOrder(ctx context.Context, order *Order) error {
	cp := *order
	f.orders[order.ID] = &cp
	return nil
}

func (f *fakeRepo) GetOrder(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeRepo) GetOrderForUpdate(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	return f.GetOrder(ctx, orderID)
}

func (f *fakeRepo) GetOrderByPaymentRef(ctx context.Context, ref string) (*Order, error) {
	for _, o := range f.orders {
		if o.PaymentRef != nil && *o.PaymentRef == ref {
			cp := *o
			return &cp, nil
		}
	}
	return nil, ErrUnknownReference
}

func (f *fakeRepo) GetOrderByPaymentRefForUpdate(ctx context.Context, ref string) (*Order, error) {
	return f.GetOrderByPaymentRef(ctx, ref)
}

func (f *fakeRepo) SetPaymentRef(ctx context.Context, orderID uuid.UUID, ref string) (bool, error) {
	o, ok := f.orders[orderID]
	if !ok || o.PaymentRef != nil {
		return false, nil
	}
	o.PaymentRef = &ref
	return true, nil
}

func (f *fakeRepo) UpdateStatusFrom(ctx context.Context, orderID uuid.UUID, from, to Status) (bool, error) {
	o, ok := f.orders[orderID]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	return true, nil
}

func (f *fakeRepo) ListExpiredPendingOrders(ctx context.Context, now time.Time, limit int) ([]Order, error) {
	var out []Order
	for _, o := range f.orders {
		if o.Status == StatusPending && o.HoldsExpired(now) {
			out = append(out, *o)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateHolds(ctx context.Context, holds []Hold) error {
	if f.createHoldsErr != nil {
		return f.createHoldsErr
	}
	for i := range holds {
		cp := holds[i]
		f.holds[cp.ID] = &cp
	}
	return nil
}

func (f *fakeRepo) GetHoldsByOrder(ctx context.Context, orderID uuid.UUID) ([]Hold, error) {
	var out []Hold
	for _, h := range f.holds {
		if h.OrderID == orderID {
			out = append(out, *h)
		}
	}
	return out, nil
}

func (f *fakeRepo) ReleaseHoldsByOrder(ctx context.Context, orderID uuid.UUID, now time.Time) error {
	for _, h := range f.holds {
		if h.OrderID == orderID && h.ReleasedAt == nil {
			released := now
			h.ReleasedAt = &released
		}
	}
	return nil
}

func (f *fakeRepo) CreateTickets(ctx context.Context, tickets []Ticket) error {
	for i := range tickets {
		cp := tickets[i]
		f.tickets[cp.ID] = &cp
	}
	return nil
}

func (f *fakeRepo) GetTicketsByOrder(ctx context.Context, orderID uuid.UUID) ([]Ticket, error) {
	var out []Ticket
	for _, t := range f.tickets {
		if t.OrderID == orderID {
			out = append(out, *t)
		}
	}
	return out, nil
}

type fakeCatalogRepo struct {
	seats map[uuid.UUID]catalog.Seat
}

func (f *fakeCatalogRepo) GetEvent(ctx context.Context, eventID uuid.UUID) (*catalog.Event, error) {
	return nil, catalog.ErrEventNotFound
}

func (f *fakeCatalogRepo) GetSeatsByEvent(ctx context.Context, eventID uuid.UUID) ([]catalog.Seat, error) {
	var out []catalog.Seat
	for _, s := range f.seats {
		if s.EventID == eventID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeCatalogRepo) GetSeatsByIDs(ctx context.Context, eventID uuid.UUID, seatIDs []uuid.UUID) ([]catalog.Seat, error) {
	var out []catalog.Seat
	for _, id := range seatIDs {
		if s, ok := f.seats[id]; ok && s.EventID == eventID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeCatalogRepo) CreateEvent(ctx context.Context, event *catalog.Event) error { return nil }
func (f *fakeCatalogRepo) CreateSeats(ctx context.Context, seats []catalog.Seat) error { return nil }

type fakePublisher struct {
	paid   int
	failed int
}

func (p *fakePublisher) PublishOrderPaid(ctx context.Context, order *Order, tickets []Ticket) error {
	p.paid++
	return nil
}

func (p *fakePublisher) PublishOrderFailed(ctx context.Context, order *Order, reason string) error {
	p.failed++
	return nil
}

type testEnv struct {
	svc     *service
	repo    *fakeRepo
	eventID uuid.UUID
	userID  uuid.UUID
	now     time.Time
}

func newTestEnv(t *testing.T, prices ...int64) (*testEnv, []uuid.UUID) {
	t.Helper()

	repo := newFakeRepo()
	catalogRepo := &fakeCatalogRepo{seats: repo.seats}
	eventID := uuid.New()

	seatIDs := make([]uuid.UUID, 0, len(prices))
	for i, price := range prices {
		seat := catalog.Seat{
			ID:         uuid.New(),
			EventID:    eventID,
			Section:    "A",
			Row:        "A",
			SeatNumber: i + 1,
			PriceCents: price,
		}
		repo.seats[seat.ID] = seat
		seatIDs = append(seatIDs, seat.ID)
	}

	svc := NewService(repo, catalogRepo, Config{
		HoldTTL:          10 * time.Minute,
		MaxSeatsPerOrder: 4,
		QRSecret:         "test-qr-secret",
	}).(*service)

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	return &testEnv{svc: svc, repo: repo, eventID: eventID, userID: uuid.New(), now: now}, seatIDs
}

func (e *testEnv) advance(d time.Duration) {
	e.now = e.now.Add(d)
	e.svc.now = func() time.Time { return e.now }
}

func (e *testEnv) paymentRef(t *testing.T, orderID uuid.UUID) string {
	t.Helper()
	ref := "PAY-20260314-TEST"
	claimed, err := e.repo.SetPaymentRef(context.Background(), orderID, ref)
	if err != nil || !claimed {
		t.Fatalf("failed to set payment ref: claimed=%v err=%v", claimed, err)
	}
	return ref
}

func TestCreateHoldsAndOrder_FreezesTotal(t *testing.T) {
	env, seatIDs := newTestEnv(t, 5000, 7500)
	ctx := context.Background()

	order, err := env.svc.CreateHoldsAndOrder(ctx, env.userID, env.eventID, seatIDs)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if order.Status != StatusPending {
		t.Errorf("expected status PENDING, got %s", order.Status)
	}
	if order.TotalAmountCents != 12500 {
		t.Errorf("expected total 12500, got %d", order.TotalAmountCents)
	}
	if len(order.Holds) != 2 {
		t.Fatalf("expected 2 holds, got %d", len(order.Holds))
	}
	want := env.now.Add(10 * time.Minute)
	if !order.HoldExpiresAt.Equal(want) {
		t.Errorf("expected hold expiry %v, got %v", want, order.HoldExpiresAt)
	}
	for _, hold := range order.Holds {
		if !hold.ExpiresAt.Equal(order.HoldExpiresAt) {
			t.Errorf("hold expiry %v does not match order expiry %v", hold.ExpiresAt, order.HoldExpiresAt)
		}
	}
}

func TestCreateHoldsAndOrder_NamesUnavailableSeats(t *testing.T) {
	env, seatIDs := newTestEnv(t, 5000, 7500)
	ctx := context.Background()

	// First buyer takes the first seat.
	if _, err := env.svc.CreateHoldsAndOrder(ctx, uuid.New(), env.eventID, seatIDs[:1]); err != nil {
		t.Fatalf("setup order failed: %v", err)
	}

	unknown := uuid.New()
	_, err := env.svc.CreateHoldsAndOrder(ctx, env.userID, env.eventID, []uuid.UUID{seatIDs[0], seatIDs[1], unknown})

	var unavailable *SeatsUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected SeatsUnavailableError, got %v", err)
	}

	offending := map[uuid.UUID]bool{}
	for _, id := range unavailable.SeatIDs {
		offending[id] = true
	}
	if !offending[seatIDs[0]] || !offending[unknown] {
		t.Errorf("expected held and unknown seats named, got %v", unavailable.SeatIDs)
	}
	if offending[seatIDs[1]] {
		t.Errorf("free seat %s should not be named", seatIDs[1])
	}

	// Nothing of the failed checkout may persist.
	if len(env.repo.orders) != 1 {
		t.Errorf("expected only the setup order, got %d orders", len(env.repo.orders))
	}
}

func TestCreateHoldsAndOrder_ReclaimsExpiredHold(t *testing.T) {
	env, seatIDs := newTestEnv(t, 5000)
	ctx := context.Background()

	first, err := env.svc.CreateHoldsAndOrder(ctx, uuid.New(), env.eventID, seatIDs)
	if err != nil {
		t.Fatalf("setup order failed: %v", err)
	}

	// Same seat is refused while the hold is live.
	if _, err := env.svc.CreateHoldsAndOrder(ctx, env.userID, env.eventID, seatIDs); err == nil {
		t.Fatal("expected error for actively held seat")
	}

	env.advance(11 * time.Minute)

	second, err := env.svc.CreateHoldsAndOrder(ctx, env.userID, env.eventID, seatIDs)
	if err != nil {
		t.Fatalf("expected expired hold to be reclaimed, got %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("expected a new order")
	}

	for _, h := range env.repo.holds {
		if h.OrderID == first.ID && h.ReleasedAt == nil {
			t.Error("expected the lapsed hold to be released")
		}
	}
}

func TestCreateHoldsAndOrder_Validation(t *testing.T) {
	env, seatIDs := newTestEnv(t, 100, 100, 100, 100, 100)
	ctx := context.Background()

	if _, err := env.svc.CreateHoldsAndOrder(ctx, env.userID, env.eventID, nil); !errors.Is(err, ErrNoSeatsSelected) {
		t.Errorf("expected ErrNoSeatsSelected, got %v", err)
	}
	if _, err := env.svc.CreateHoldsAndOrder(ctx, env.userID, env.eventID, seatIDs); !errors.Is(err, ErrTooManySeats) {
		t.Errorf("expected ErrTooManySeats for %d seats, got %v", len(seatIDs), err)
	}

	// Duplicate ids collapse to one hold.
	order, err := env.svc.CreateHoldsAndOrder(ctx, env.userID, env.eventID,
		[]uuid.UUID{seatIDs[0], seatIDs[0], seatIDs[0]})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(order.Holds) != 1 {
		t.Errorf("expected 1 hold after dedupe, got %d", len(order.Holds))
	}
	if order.TotalAmountCents != 100 {
		t.Errorf("expected total 100, got %d", order.TotalAmountCents)
	}
}

func TestCreateHoldsAndOrder_UniqueIndexBackstop(t *testing.T) {
	env, seatIDs := newTestEnv(t, 5000)
	ctx := context.Background()

	env.repo.createHoldsErr = errors.New(`duplicate key value violates unique constraint "unique_active_hold_per_seat" (SQLSTATE 23505)`)

	_, err := env.svc.CreateHoldsAndOrder(ctx, env.userID, env.eventID, seatIDs)

	var unavailable *SeatsUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected SeatsUnavailableError, got %v", err)
	}
	if len(env.repo.orders) != 0 {
		t.Errorf("expected the order to roll back, got %d orders", len(env.repo.orders))
	}
}

func TestConfirmPayment_IssuesTickets(t *testing.T) {
	env, seatIDs := newTestEnv(t, 5000, 7500)
	ctx := context.Background()
	publisher := &fakePublisher{}
	env.svc.SetPublisher(publisher)

	order, err := env.svc.CreateHoldsAndOrder(ctx, env.userID, env.eventID, seatIDs)
	if err != nil {
		t.Fatalf("setup order failed: %v", err)
	}
	ref := env.paymentRef(t, order.ID)

	result, err := env.svc.ConfirmPayment(ctx, PaymentOutcome{
		Reference:   ref,
		AmountCents: order.TotalAmountCents,
		Succeeded:   true,
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if result.Order.Status != StatusPaid {
		t.Errorf("expected status PAID, got %s", result.Order.Status)
	}
	if result.Replayed {
		t.Error("first confirmation must not be a replay")
	}
	if len(result.Tickets) != 2 {
		t.Fatalf("expected 2 tickets, got %d", len(result.Tickets))
	}

	seen := map[uuid.UUID]bool{}
	for _, ticket := range result.Tickets {
		if seen[ticket.SeatID] {
			t.Errorf("duplicate ticket for seat %s", ticket.SeatID)
		}
		seen[ticket.SeatID] = true

		_, gotEvent, gotSeat, err := VerifyQRPayload(ticket.QRPayload, "test-qr-secret")
		if err != nil {
			t.Errorf("ticket qr payload failed verification: %v", err)
		}
		if gotEvent != env.eventID || gotSeat != ticket.SeatID {
			t.Errorf("qr payload ids do not match ticket: event %s seat %s", gotEvent, gotSeat)
		}
	}

	for _, h := range env.repo.holds {
		if h.OrderID == order.ID && h.ReleasedAt == nil {
			t.Error("expected holds to be retired after confirmation")
		}
	}
	if publisher.paid != 1 {
		t.Errorf("expected 1 paid event, got %d", publisher.paid)
	}
}

func TestConfirmPayment_ReplayIsIdempotent(t *testing.T) {
	env, seatIDs := newTestEnv(t, 5000)
	ctx := context.Background()
	publisher := &fakePublisher{}
	env.svc.SetPublisher(publisher)

	order, err := env.svc.CreateHoldsAndOrder(ctx, env.userID, env.eventID, seatIDs)
	if err != nil {
		t.Fatalf("setup order failed: %v", err)
	}
	ref := env.paymentRef(t, order.ID)
	outcome := PaymentOutcome{Reference: ref, AmountCents: order.TotalAmountCents, Succeeded: true}

	first, err := env.svc.ConfirmPayment(ctx, outcome)
	if err != nil {
		t.Fatalf("first confirmation failed: %v", err)
	}

	second, err := env.svc.ConfirmPayment(ctx, outcome)
	if err != nil {
		t.Fatalf("replayed confirmation failed: %v", err)
	}
	if !second.Replayed {
		t.Error("expected replay to be flagged")
	}
	if len(second.Tickets) != len(first.Tickets) {
		t.Errorf("replay returned %d tickets, want %d", len(second.Tickets), len(first.Tickets))
	}
	if len(env.repo.tickets) != 1 {
		t.Errorf("expected 1 stored ticket, got %d", len(env.repo.tickets))
	}
	if publisher.paid != 1 {
		t.Errorf("replay must not republish, got %d paid events", publisher.paid)
	}
}

func TestConfirmPayment_AmountMismatch(t *testing.T) {
	env, seatIDs := newTestEnv(t, 5000)
	ctx := context.Background()
	publisher := &fakePublisher{}
	env.svc.SetPublisher(publisher)

	order, err := env.svc.CreateHoldsAndOrder(ctx, env.userID, env.eventID, seatIDs)
	if err != nil {
		t.Fatalf("setup order failed: %v", err)
	}
	ref := env.paymentRef(t, order.ID)

	_, err = env.svc.ConfirmPayment(ctx, PaymentOutcome{
		Reference:   ref,
		AmountCents: order.TotalAmountCents - 1,
		Succeeded:   true,
	})

	var mismatch *AmountMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected AmountMismatchError, got %v", err)
	}
	if mismatch.ExpectedCents != 5000 || mismatch.ActualCents != 4999 {
		t.Errorf("unexpected amounts in error: %+v", mismatch)
	}

	stored := env.repo.orders[order.ID]
	if stored.Status != StatusFailed {
		t.Errorf("expected order FAILED after mismatch, got %s", stored.Status)
	}
	if len(env.repo.tickets) != 0 {
		t.Errorf("expected no tickets, got %d", len(env.repo.tickets))
	}
	for _, h := range env.repo.holds {
		if h.OrderID == order.ID && h.ReleasedAt == nil {
			t.Error("expected holds released after mismatch")
		}
	}
	if publisher.failed != 1 {
		t.Errorf("expected 1 failed event, got %d", publisher.failed)
	}
}

func TestConfirmPayment_GatewayFailure(t *testing.T) {
	env, seatIDs := newTestEnv(t, 5000)
	ctx := context.Background()

	order, err := env.svc.CreateHoldsAndOrder(ctx, env.userID, env.eventID, seatIDs)
	if err != nil {
		t.Fatalf("setup order failed: %v", err)
	}
	ref := env.paymentRef(t, order.ID)

	result, err := env.svc.ConfirmPayment(ctx, PaymentOutcome{
		Reference:   ref,
		AmountCents: order.TotalAmountCents,
		Succeeded:   false,
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if result.Order.Status != StatusFailed {
		t.Errorf("expected order FAILED, got %s", result.Order.Status)
	}

	// The seat frees up immediately for the next buyer.
	if _, err := env.svc.CreateHoldsAndOrder(ctx, uuid.New(), env.eventID, seatIDs); err != nil {
		t.Errorf("expected seat available after failed payment, got %v", err)
	}
}

func TestConfirmPayment_LateCallbackExpires(t *testing.T) {
	env, seatIDs := newTestEnv(t, 5000)
	ctx := context.Background()

	order, err := env.svc.CreateHoldsAndOrder(ctx, env.userID, env.eventID, seatIDs)
	if err != nil {
		t.Fatalf("setup order failed: %v", err)
	}
	ref := env.paymentRef(t, order.ID)

	env.advance(11 * time.Minute)

	_, err = env.svc.ConfirmPayment(ctx, PaymentOutcome{
		Reference:   ref,
		AmountCents: order.TotalAmountCents,
		Succeeded:   true,
	})

	var invalid *InvalidOrderStateError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidOrderStateError, got %v", err)
	}
	if invalid.Status != StatusExpired {
		t.Errorf("expected reported status EXPIRED, got %s", invalid.Status)
	}

	// The expiry must survive the rejected confirmation.
	stored := env.repo.orders[order.ID]
	if stored.Status != StatusExpired {
		t.Errorf("expected stored order EXPIRED, got %s", stored.Status)
	}
	if len(env.repo.tickets) != 0 {
		t.Errorf("expected no tickets for expired order, got %d", len(env.repo.tickets))
	}
}

func TestConfirmPayment_TerminalStatesRejected(t *testing.T) {
	for _, status := range []Status{StatusFailed, StatusExpired} {
		t.Run(string(status), func(t *testing.T) {
			env, seatIDs := newTestEnv(t, 5000)
			ctx := context.Background()

			order, err := env.svc.CreateHoldsAndOrder(ctx, env.userID, env.eventID, seatIDs)
			if err != nil {
				t.Fatalf("setup order failed: %v", err)
			}
			ref := env.paymentRef(t, order.ID)
			env.repo.orders[order.ID].Status = status

			_, err = env.svc.ConfirmPayment(ctx, PaymentOutcome{
				Reference:   ref,
				AmountCents: order.TotalAmountCents,
				Succeeded:   true,
			})

			var invalid *InvalidOrderStateError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected InvalidOrderStateError, got %v", err)
			}
			if invalid.Status != status {
				t.Errorf("expected reported status %s, got %s", status, invalid.Status)
			}
		})
	}
}

func TestConfirmPayment_UnknownReference(t *testing.T) {
	env, _ := newTestEnv(t, 5000)
	ctx := context.Background()

	_, err := env.svc.ConfirmPayment(ctx, PaymentOutcome{Reference: "PAY-20260314-NOPE", AmountCents: 1, Succeeded: true})
	if !errors.Is(err, ErrUnknownReference) {
		t.Errorf("expected ErrUnknownReference, got %v", err)
	}

	_, err = env.svc.ConfirmPayment(ctx, PaymentOutcome{Reference: "", AmountCents: 1, Succeeded: true})
	if !errors.Is(err, ErrUnknownReference) {
		t.Errorf("expected ErrUnknownReference for empty reference, got %v", err)
	}
}

func TestCheckAvailability(t *testing.T) {
	env, seatIDs := newTestEnv(t, 5000, 7500, 3000)
	ctx := context.Background()

	// Hold the first seat, sell the second.
	if _, err := env.svc.CreateHoldsAndOrder(ctx, uuid.New(), env.eventID, seatIDs[:1]); err != nil {
		t.Fatalf("setup hold failed: %v", err)
	}
	env.repo.tickets[uuid.New()] = &Ticket{
		ID:      uuid.New(),
		OrderID: uuid.New(),
		SeatID:  seatIDs[1],
		EventID: env.eventID,
	}

	unknown := uuid.New()
	availability, err := env.svc.CheckAvailability(ctx, env.eventID,
		[]uuid.UUID{seatIDs[0], seatIDs[1], seatIDs[2], unknown})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	tests := []struct {
		name   string
		seatID uuid.UUID
		want   bool
	}{
		{"held seat", seatIDs[0], false},
		{"sold seat", seatIDs[1], false},
		{"free seat", seatIDs[2], true},
		{"unknown seat", unknown, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := availability[tt.seatID]
			if !ok {
				t.Fatalf("seat %s missing from result", tt.seatID)
			}
			if got != tt.want {
				t.Errorf("availability = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExpireStaleOrders(t *testing.T) {
	env, seatIDs := newTestEnv(t, 5000)
	ctx := context.Background()

	order, err := env.svc.CreateHoldsAndOrder(ctx, env.userID, env.eventID, seatIDs)
	if err != nil {
		t.Fatalf("setup order failed: %v", err)
	}

	expired, err := env.svc.ExpireStaleOrders(ctx, 10)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if expired != 0 {
		t.Errorf("expected no expirations before the TTL, got %d", expired)
	}

	env.advance(11 * time.Minute)

	expired, err = env.svc.ExpireStaleOrders(ctx, 10)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if expired != 1 {
		t.Errorf("expected 1 expiration, got %d", expired)
	}

	stored := env.repo.orders[order.ID]
	if stored.Status != StatusExpired {
		t.Errorf("expected order EXPIRED, got %s", stored.Status)
	}
	for _, h := range env.repo.holds {
		if h.OrderID == order.ID && h.ReleasedAt == nil {
			t.Error("expected holds released by the sweeper")
		}
	}
}

func TestSeatOccupancy(t *testing.T) {
	env, seatIDs := newTestEnv(t, 5000, 7500)
	ctx := context.Background()

	if _, err := env.svc.CreateHoldsAndOrder(ctx, env.userID, env.eventID, seatIDs[:1]); err != nil {
		t.Fatalf("setup hold failed: %v", err)
	}
	env.repo.tickets[uuid.New()] = &Ticket{
		ID:      uuid.New(),
		OrderID: uuid.New(),
		SeatID:  seatIDs[1],
		EventID: env.eventID,
	}

	held, sold, err := env.svc.SeatOccupancy(ctx, env.eventID)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !held[seatIDs[0]] || held[seatIDs[1]] {
		t.Errorf("unexpected held set: %v", held)
	}
	if !sold[seatIDs[1]] || sold[seatIDs[0]] {
		t.Errorf("unexpected sold set: %v", sold)
	}
}
