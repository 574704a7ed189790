// README: DB-backed ledger tests; run with DISPATCH_TEST_DB_DSN pointing at a scratch database.
package ride

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"ridedispatch/internal/infra"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("DISPATCH_TEST_DB_DSN")
	if dsn == "" {
		t.Skip("DISPATCH_TEST_DB_DSN not set; skipping DB-backed ledger tests")
	}

	ctx := context.Background()
	if err := infra.Migrate(dsn); err != nil {
		t.Fatalf("apply migration: %v", err)
	}
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(ctx, "TRUNCATE TABLE payments, ride_requests, ride_types RESTART IDENTITY CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	if _, err := db.Exec(ctx, "INSERT INTO ride_types (name, base_fare, per_km, per_min) VALUES ('economy', 500, 100, 50)"); err != nil {
		t.Fatalf("seed ride type: %v", err)
	}
	return NewStore(db)
}

func TestStore_CreateGetRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	svc := NewService(store)
	ctx := context.Background()

	r, err := svc.CreateRequest(ctx, validCreate())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.CreatePayment(ctx, PaymentCommand{RideRequestID: r.ID, AmountCents: r.FareEstimate, Method: PaymentCard}); err != nil {
		t.Fatalf("payment: %v", err)
	}

	got, err := svc.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.RiderID != 42 || got.FareEstimate != 1250 || got.Status != StatusCreated || got.DriverID != nil {
		t.Fatalf("unexpected row: %+v", got)
	}
	if _, err := svc.Get(ctx, r.ID+1000); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ConcurrentOutcomeSingleWinner(t *testing.T) {
	store := setupTestStore(t)
	svc := NewService(store)
	ctx := context.Background()

	r, err := svc.CreateRequest(ctx, validCreate())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		d := int64(5)
		errs <- svc.RecordOutcome(ctx, r.ID, &d)
	}()
	go func() {
		defer wg.Done()
		errs <- svc.RecordOutcome(ctx, r.ID, nil)
	}()
	wg.Wait()
	close(errs)

	wins := 0
	for err := range errs {
		if err == nil {
			wins++
		} else if !errors.Is(err, ErrConflict) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one outcome, got %d", wins)
	}
}
