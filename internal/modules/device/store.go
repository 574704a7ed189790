// README: Read-only lookup into the user_devices table owned by the account service.
package device

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Latest returns the most recently registered device for the user.
func (s *Store) Latest(ctx context.Context, userID int64) (string, bool, error) {
	var id string
	err := s.db.QueryRow(ctx, `
		SELECT device_id
		FROM user_devices
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, userID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}
