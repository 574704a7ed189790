// README: Ledger service tests with an in-memory store.
package ride

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ridedispatch/internal/types"
)

type memStore struct {
	mu         sync.Mutex
	nextID     int64
	requests   map[int64]*Request
	payments   []*Payment
	paymentErr error
}

func newMemStore() *memStore {
	return &memStore{requests: map[int64]*Request{}}
}

func (m *memStore) Create(_ context.Context, r *Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r.ID = m.nextID
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	cp := *r
	m.requests[r.ID] = &cp
	return nil
}

func (m *memStore) CreatePayment(_ context.Context, p *Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.paymentErr != nil {
		return m.paymentErr
	}
	p.ID = int64(len(m.payments) + 1)
	m.payments = append(m.payments, p)
	return nil
}

func (m *memStore) Get(_ context.Context, id int64) (*Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id int64, from, to Status, driverID *int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	if driverID != nil {
		d := *driverID
		r.DriverID = &d
	}
	return true, nil
}

func validCreate() CreateCommand {
	return CreateCommand{
		RiderID:        42,
		RideTypeID:     1,
		Pickup:         types.Point{Lat: 1.30, Lng: 103.80},
		Dropoff:        types.Point{Lat: 1.35, Lng: 103.90},
		PickupAddress:  "Orchard Rd",
		DropoffAddress: "Changi Airport",
		Passengers:     2,
		FareEstimate:   1250,
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusCreated, StatusMatched, true},
		{StatusCreated, StatusUnmatched, true},
		{StatusMatched, StatusUnmatched, false},
		{StatusUnmatched, StatusMatched, false},
		{StatusCreated, StatusCreated, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestPaymentMethodValid(t *testing.T) {
	for _, m := range []PaymentMethod{PaymentCash, PaymentCard, PaymentWallet} {
		if !m.Valid() {
			t.Errorf("%s should be valid", m)
		}
	}
	for _, m := range []PaymentMethod{"", "paypal", "CASH"} {
		if m.Valid() {
			t.Errorf("%q should be invalid", m)
		}
	}
}

func TestCreateRequest_PersistsCreated(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)

	r, err := svc.CreateRequest(context.Background(), validCreate())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if r.ID == 0 || r.Status != StatusCreated {
		t.Fatalf("unexpected request: %+v", r)
	}

	got, err := svc.Get(context.Background(), r.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.FareEstimate != 1250 || got.PickupAddress != "Orchard Rd" || got.Passengers != 2 || got.DriverID != nil {
		t.Fatalf("stored fields mismatch: %+v", got)
	}
}

func TestCreateRequest_DuplicatesAreNotDeduplicated(t *testing.T) {
	svc := NewService(newMemStore())

	a, err := svc.CreateRequest(context.Background(), validCreate())
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	b, err := svc.CreateRequest(context.Background(), validCreate())
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if a.ID == b.ID {
		t.Fatalf("expected distinct ids, got %d twice", a.ID)
	}
}

func TestCreateRequest_Rejects(t *testing.T) {
	svc := NewService(newMemStore())
	mutations := map[string]func(*CreateCommand){
		"rider":      func(c *CreateCommand) { c.RiderID = 0 },
		"ride type":  func(c *CreateCommand) { c.RideTypeID = 0 },
		"passengers": func(c *CreateCommand) { c.Passengers = 0 },
		"pickup":     func(c *CreateCommand) { c.PickupAddress = "  " },
		"dropoff":    func(c *CreateCommand) { c.DropoffAddress = "" },
		"fare":       func(c *CreateCommand) { c.FareEstimate = -1 },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			cmd := validCreate()
			mutate(&cmd)
			if _, err := svc.CreateRequest(context.Background(), cmd); !errors.Is(err, ErrBadRequest) {
				t.Fatalf("expected ErrBadRequest, got %v", err)
			}
		})
	}
}

func TestCreatePayment(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)

	p, err := svc.CreatePayment(context.Background(), PaymentCommand{RideRequestID: 7, AmountCents: 1250, Method: PaymentWallet})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if p.ID == 0 || p.AmountCents != 1250 || p.Method != "grabpay" {
		t.Fatalf("unexpected payment: %+v", p)
	}

	if _, err := svc.CreatePayment(context.Background(), PaymentCommand{RideRequestID: 7, Method: "bitcoin"}); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc := NewService(newMemStore())
	for _, id := range []int64{0, -3, 999} {
		if _, err := svc.Get(context.Background(), id); !errors.Is(err, ErrNotFound) {
			t.Errorf("id %d: expected ErrNotFound, got %v", id, err)
		}
	}
}

func TestRecordOutcome(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	matched, _ := svc.CreateRequest(ctx, validCreate())
	driver := int64(77)
	if err := svc.RecordOutcome(ctx, matched.ID, &driver); err != nil {
		t.Fatalf("record matched: %v", err)
	}
	got, _ := svc.Get(ctx, matched.ID)
	if got.Status != StatusMatched || got.DriverID == nil || *got.DriverID != 77 {
		t.Fatalf("unexpected matched row: %+v", got)
	}

	unmatched, _ := svc.CreateRequest(ctx, validCreate())
	if err := svc.RecordOutcome(ctx, unmatched.ID, nil); err != nil {
		t.Fatalf("record unmatched: %v", err)
	}
	got, _ = svc.Get(ctx, unmatched.ID)
	if got.Status != StatusUnmatched || got.DriverID != nil {
		t.Fatalf("unexpected unmatched row: %+v", got)
	}

	// outcome is recorded at most once
	if err := svc.RecordOutcome(ctx, matched.ID, nil); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on second outcome, got %v", err)
	}
}

func TestRecordOutcome_ConcurrentSingleWinner(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()
	r, _ := svc.CreateRequest(ctx, validCreate())

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d := int64(i + 1)
			errs <- svc.RecordOutcome(ctx, r.ID, &d)
		}(i)
	}
	wg.Wait()
	close(errs)

	wins := 0
	for err := range errs {
		if err == nil {
			wins++
			continue
		}
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
}
