// README: Ride type store backed by PostgreSQL.
package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) List(ctx context.Context) ([]RideType, error) {
	rows, err := s.db.Query(ctx, `
		SELECT ride_type_id, name, base_fare, per_km, per_min, created_at, updated_at
		FROM ride_types
		ORDER BY ride_type_id`)
	if err != nil {
		return nil, fmt.Errorf("query ride types: %w", err)
	}
	defer rows.Close()

	out := make([]RideType, 0)
	for rows.Next() {
		var rt RideType
		if err := rows.Scan(&rt.ID, &rt.Name, &rt.BaseFare, &rt.PerKm, &rt.PerMin, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan ride type: %w", err)
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, id int64) (*RideType, error) {
	var rt RideType
	err := s.db.QueryRow(ctx, `
		SELECT ride_type_id, name, base_fare, per_km, per_min, created_at, updated_at
		FROM ride_types
		WHERE ride_type_id = $1`, id,
	).Scan(&rt.ID, &rt.Name, &rt.BaseFare, &rt.PerKm, &rt.PerMin, &rt.CreatedAt, &rt.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get ride type: %w", err)
	}
	return &rt, nil
}

func (s *Store) Create(ctx context.Context, in RideTypeInput) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO ride_types (name, base_fare, per_km, per_min)
		VALUES ($1, $2, $3, $4)
		RETURNING ride_type_id`,
		in.Name, in.BaseFare, in.PerKm, in.PerMin,
	).Scan(&id)
	if isUniqueViolation(err) {
		return 0, ErrConflict
	}
	if err != nil {
		return 0, fmt.Errorf("insert ride type: %w", err)
	}
	return id, nil
}

func (s *Store) Update(ctx context.Context, id int64, in RideTypeInput) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE ride_types
		SET name = $1, base_fare = $2, per_km = $3, per_min = $4, updated_at = NOW()
		WHERE ride_type_id = $5`,
		in.Name, in.BaseFare, in.PerKm, in.PerMin, id,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("update ride type: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
