// README: Ride ledger service; persists requests and payment intents and records match outcomes.
package ride

import (
	"context"
	"errors"
	"strings"

	"ridedispatch/internal/types"
)

var (
	ErrNotFound     = errors.New("ride request not found")
	ErrInvalidState = errors.New("invalid state transition")
	ErrConflict     = errors.New("ride request state conflict")
	ErrBadRequest   = errors.New("bad request")
)

// LedgerStore is implemented by *Store.
type LedgerStore interface {
	Create(ctx context.Context, r *Request) error
	CreatePayment(ctx context.Context, p *Payment) error
	Get(ctx context.Context, id int64) (*Request, error)
	UpdateStatus(ctx context.Context, id int64, from, to Status, driverID *int64) (bool, error)
}

type Service struct {
	store LedgerStore
}

func NewService(store LedgerStore) *Service {
	return &Service{store: store}
}

type CreateCommand struct {
	RiderID        int64
	RideTypeID     int64
	Pickup         types.Point
	Dropoff        types.Point
	PickupAddress  string
	DropoffAddress string
	Passengers     int
	FareEstimate   int64
}

type PaymentCommand struct {
	RideRequestID int64
	AmountCents   int64
	Method        PaymentMethod
}

// CreateRequest writes a new request in the created state. Identical
// submissions produce distinct rows.
func (s *Service) CreateRequest(ctx context.Context, cmd CreateCommand) (*Request, error) {
	if cmd.RiderID <= 0 || cmd.RideTypeID <= 0 || cmd.Passengers < 1 || cmd.FareEstimate < 0 ||
		strings.TrimSpace(cmd.PickupAddress) == "" || strings.TrimSpace(cmd.DropoffAddress) == "" {
		return nil, ErrBadRequest
	}
	r := &Request{
		RiderID:        cmd.RiderID,
		RideTypeID:     cmd.RideTypeID,
		Pickup:         cmd.Pickup,
		Dropoff:        cmd.Dropoff,
		PickupAddress:  cmd.PickupAddress,
		DropoffAddress: cmd.DropoffAddress,
		Passengers:     cmd.Passengers,
		FareEstimate:   cmd.FareEstimate,
		Status:         StatusCreated,
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) CreatePayment(ctx context.Context, cmd PaymentCommand) (*Payment, error) {
	if cmd.RideRequestID <= 0 || !cmd.Method.Valid() {
		return nil, ErrBadRequest
	}
	p := &Payment{
		RideRequestID: cmd.RideRequestID,
		AmountCents:   cmd.AmountCents,
		Method:        cmd.Method,
	}
	if err := s.store.CreatePayment(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Request, error) {
	if id <= 0 {
		return nil, ErrNotFound
	}
	return s.store.Get(ctx, id)
}

// RecordOutcome moves a created request to matched (driverID set) or unmatched.
func (s *Service) RecordOutcome(ctx context.Context, id int64, driverID *int64) error {
	to := StatusUnmatched
	if driverID != nil {
		to = StatusMatched
	}
	if !CanTransition(StatusCreated, to) {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, id, StatusCreated, to, driverID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}
