// README: In-process worker presence store; haversine scan for tests and local runs.
package matching

import (
	"context"
	"sync"
)

type MemoryStore struct {
	mu      sync.RWMutex
	workers map[int64]Worker
}

func NewMemoryStore(workers ...Worker) *MemoryStore {
	s := &MemoryStore{workers: make(map[int64]Worker, len(workers))}
	for _, w := range workers {
		s.workers[w.UserID] = w
	}
	return s
}

func (s *MemoryStore) Nearby(ctx context.Context, q NearbyQuery) ([]Worker, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type candidate struct {
		w    Worker
		dist float64
	}

	s.mu.RLock()
	found := make([]candidate, 0)
	for _, w := range s.workers {
		if !w.Eligible(q.MinCapacity) {
			continue
		}
		d := haversineMeters(q.Origin, w.Location.Point())
		if d <= q.RadiusMeters {
			found = append(found, candidate{w: w, dist: d})
		}
	}
	s.mu.RUnlock()

	sortByDistance(found, func(c candidate) float64 { return c.dist })
	if q.Limit > 0 && len(found) > q.Limit {
		found = found[:q.Limit]
	}
	out := make([]Worker, len(found))
	for i, c := range found {
		out[i] = c.w
	}
	return out, nil
}
