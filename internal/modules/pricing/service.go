// README: Pricing service; resolves ride types through the cache and computes fare estimates.
package pricing

import (
	"context"
	"errors"
	"math"

	"go.uber.org/zap"

	"ridedispatch/internal/logger"
)

var (
	ErrNotFound        = errors.New("ride type not found")
	ErrConflict        = errors.New("ride type name already exists")
	ErrInvalidRideType = errors.New("invalid ride type")
)

// RideTypeStore is the persistent source of truth for ride types.
type RideTypeStore interface {
	List(ctx context.Context) ([]RideType, error)
	Get(ctx context.Context, id int64) (*RideType, error)
	Create(ctx context.Context, in RideTypeInput) (int64, error)
	Update(ctx context.Context, id int64, in RideTypeInput) error
}

type Service struct {
	store RideTypeStore
	cache *Cache
	log   *zap.Logger
}

// NewService wires the store with an optional cache; a nil cache reads the table every time.
func NewService(store RideTypeStore, cache *Cache, log *zap.Logger) *Service {
	return &Service{store: store, cache: cache, log: logger.OrNop(log).Named("pricing")}
}

// RideTypes returns the full pricing table. Cache failures degrade to a table read.
func (s *Service) RideTypes(ctx context.Context) ([]RideType, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx)
		switch {
		case err != nil:
			s.log.Warn("ride type cache read failed, falling back to table", zap.Error(err))
		case ok:
			return cached, nil
		}
	}

	types, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, types); err != nil {
			s.log.Warn("ride type cache write failed", zap.Error(err))
		}
	}
	return types, nil
}

// Lookup resolves a ride type by name.
func (s *Service) Lookup(ctx context.Context, name string) (RideType, bool, error) {
	types, err := s.RideTypes(ctx)
	if err != nil {
		return RideType{}, false, err
	}
	rt, ok := FindByName(types, name)
	return rt, ok, nil
}

// Warm preloads the cache at startup when the table has rows.
func (s *Service) Warm(ctx context.Context) (int, error) {
	if s.cache == nil {
		return 0, nil
	}
	types, err := s.store.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(types) == 0 {
		return 0, nil
	}
	return len(types), s.cache.Set(ctx, types)
}

func (s *Service) Get(ctx context.Context, id int64) (*RideType, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, in RideTypeInput) (int64, error) {
	if err := in.validate(); err != nil {
		return 0, err
	}
	id, err := s.store.Create(ctx, in)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx)
	return id, nil
}

func (s *Service) Update(ctx context.Context, id int64, in RideTypeInput) error {
	if err := in.validate(); err != nil {
		return err
	}
	if err := s.store.Update(ctx, id, in); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("ride type cache invalidation failed", zap.Error(err))
	}
}

// Fare returns the estimate in the smallest currency unit:
// base + round(km * per_km) + round(min * per_min), each term rounded on its own.
func Fare(rt RideType, distanceMeters, durationSeconds float64) int64 {
	distanceCharge := math.Round(distanceMeters / 1000 * rt.PerKm)
	timeCharge := math.Round(durationSeconds / 60 * rt.PerMin)
	return rt.BaseFare + int64(distanceCharge) + int64(timeCharge)
}
