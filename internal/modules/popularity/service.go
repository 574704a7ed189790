// README: Popularity service; counts pickup/dropoff addresses and reports the busiest ones.
package popularity

import (
	"context"
	"errors"
	"fmt"
)

var ErrUnknownKind = errors.New("unknown popularity kind")

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

// Bump adds one to the address counter for the given kind.
func (s *Service) Bump(ctx context.Context, kind Kind, address string) error {
	if !kind.valid() {
		return ErrUnknownKind
	}
	if err := s.store.Incr(ctx, kind.key(), address); err != nil {
		return fmt.Errorf("bump %s: %w", kind, err)
	}
	if err := s.store.ExpireIfPersistent(ctx, kind.key(), counterTTL); err != nil {
		return fmt.Errorf("expire %s: %w", kind, err)
	}
	return nil
}

// TopN returns at most n addresses ordered by descending count.
func (s *Service) TopN(ctx context.Context, kind Kind, n int) ([]string, error) {
	if !kind.valid() {
		return nil, ErrUnknownKind
	}
	if n <= 0 {
		return []string{}, nil
	}
	top, err := s.store.Top(ctx, kind.key(), n)
	if err != nil {
		return nil, fmt.Errorf("top %s: %w", kind, err)
	}
	if len(top) > n {
		top = top[:n]
	}
	return top, nil
}

func (s *Service) Report(ctx context.Context, n int) (Report, error) {
	pickup, err := s.TopN(ctx, KindPickup, n)
	if err != nil {
		return Report{}, err
	}
	dropoff, err := s.TopN(ctx, KindDropoff, n)
	if err != nil {
		return Report{}, err
	}
	return Report{TopPickup: pickup, TopDropoff: dropoff}, nil
}
