// README: Ride ledger store backed by PostgreSQL.
package ride

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, r *Request) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO ride_requests (
			rider_id, ride_type_id, fare_estimate,
			pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
			pickup_address, dropoff_address, no_of_passenger, status
		) VALUES (
			$1, $2, $3,
			$4, $5, $6, $7,
			$8, $9, $10, $11
		)
		RETURNING id, created_at, updated_at`,
		r.RiderID, r.RideTypeID, r.FareEstimate,
		r.Pickup.Lat, r.Pickup.Lng, r.Dropoff.Lat, r.Dropoff.Lng,
		r.PickupAddress, r.DropoffAddress, r.Passengers, string(r.Status),
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert ride request: %w", err)
	}
	return nil
}

func (s *Store) CreatePayment(ctx context.Context, p *Payment) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO payments (ride_request_id, amount_cents, method)
		VALUES ($1, $2, $3)
		RETURNING payment_id, created_at`,
		p.RideRequestID, p.AmountCents, string(p.Method),
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id int64) (*Request, error) {
	var r Request
	var status string
	err := s.db.QueryRow(ctx, `
		SELECT id, rider_id, ride_type_id, fare_estimate,
		       pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
		       pickup_address, dropoff_address, no_of_passenger,
		       status, driver_id, created_at, updated_at
		FROM ride_requests
		WHERE id = $1`, id,
	).Scan(
		&r.ID, &r.RiderID, &r.RideTypeID, &r.FareEstimate,
		&r.Pickup.Lat, &r.Pickup.Lng, &r.Dropoff.Lat, &r.Dropoff.Lng,
		&r.PickupAddress, &r.DropoffAddress, &r.Passengers,
		&status, &r.DriverID, &r.CreatedAt, &r.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get ride request: %w", err)
	}
	r.Status = Status(status)
	return &r, nil
}

// UpdateStatus applies from -> to only if the row is still in from.
func (s *Store) UpdateStatus(ctx context.Context, id int64, from, to Status, driverID *int64) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE ride_requests
		SET status = $1,
		    driver_id = COALESCE($2, driver_id),
		    updated_at = NOW()
		WHERE id = $3 AND status = $4`,
		string(to), driverID, id, string(from),
	)
	if err != nil {
		return false, fmt.Errorf("update ride request status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
