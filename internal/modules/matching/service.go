// README: Nearest-worker locator; probes the presence store with an expanding radius.
package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ridedispatch/internal/config"
	"ridedispatch/internal/logger"
)

var ErrInvalidQuery = errors.New("invalid locate query")

// WorkerStore answers a single radius probe, closest first.
type WorkerStore interface {
	Nearby(ctx context.Context, q NearbyQuery) ([]Worker, error)
}

// Reserver grants exclusive short-lived claims on workers.
type Reserver interface {
	Reserve(ctx context.Context, workerID int64, holder string, ttl time.Duration) (bool, error)
}

type Service struct {
	store    WorkerStore
	reserver Reserver
	cfg      config.MatchingConfig
	log      *zap.Logger
}

func NewService(store WorkerStore, cfg config.MatchingConfig, log *zap.Logger) *Service {
	def, _ := config.Defaults()
	if cfg.StartRadiusMeters <= 0 {
		cfg.StartRadiusMeters = def.StartRadiusMeters
	}
	if cfg.StepMeters <= 0 {
		cfg.StepMeters = def.StepMeters
	}
	if cfg.MaxRadiusMeters < cfg.StartRadiusMeters {
		cfg.MaxRadiusMeters = cfg.StartRadiusMeters
	}
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = def.CandidateLimit
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = def.LeaseTTL
	}
	return &Service{store: store, cfg: cfg, log: logger.OrNop(log).Named("matching")}
}

// WithReserver turns on worker reservation. Without it two concurrent
// requests can be matched to the same worker.
func (s *Service) WithReserver(r Reserver) *Service {
	s.reserver = r
	return s
}

// FindNearest returns the closest eligible worker, or nil when none is found
// within the maximum radius. Store failures are returned, never reported as "none".
func (s *Service) FindNearest(ctx context.Context, q LocateQuery) (*Worker, error) {
	if q.MinCapacity < 1 || !q.Origin.Valid() {
		return nil, ErrInvalidQuery
	}

	limit := 1
	if s.reserver != nil {
		limit = s.cfg.CandidateLimit
	}

	for radius := s.cfg.StartRadiusMeters; radius <= s.cfg.MaxRadiusMeters; radius += s.cfg.StepMeters {
		workers, err := s.store.Nearby(ctx, NearbyQuery{
			Origin:       q.Origin,
			RadiusMeters: radius,
			MinCapacity:  q.MinCapacity,
			Limit:        limit,
		})
		if err != nil {
			return nil, fmt.Errorf("locate workers within %.0fm: %w", radius, err)
		}
		for i := range workers {
			w := workers[i]
			if !w.Eligible(q.MinCapacity) {
				continue
			}
			if s.reserver == nil {
				return &w, nil
			}
			ok, err := s.reserver.Reserve(ctx, w.UserID, q.Holder, s.cfg.LeaseTTL)
			if err != nil {
				return nil, fmt.Errorf("reserve worker %d: %w", w.UserID, err)
			}
			if ok {
				return &w, nil
			}
			s.log.Debug("worker already reserved", zap.Int64("worker_id", w.UserID), zap.Float64("radius_m", radius))
		}
	}
	return nil, nil
}
