// README: Advisory side effects that run next to the core path and never fail it.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

type advisoryRun struct {
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.Logger

	mu       sync.Mutex
	deviceID *string
}

// newAdvisoryRun detaches from the caller's cancellation but keeps its values,
// so a client hanging up does not abort counters mid-flight.
func newAdvisoryRun(parent context.Context, timeout time.Duration, log *zap.Logger) *advisoryRun {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), timeout)
	return &advisoryRun{ctx: ctx, cancel: cancel, log: log}
}

func (a *advisoryRun) goTask(name string, fn func(ctx context.Context) error) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				advisoryFailures.WithLabelValues(name).Inc()
				a.log.Error("advisory task panicked", zap.String("task", name), zap.Any("panic", r))
			}
		}()
		if err := fn(a.ctx); err != nil {
			advisoryFailures.WithLabelValues(name).Inc()
			a.log.Warn("advisory task failed", zap.String("task", name), zap.Error(err))
		}
	}()
}

func (a *advisoryRun) setDeviceID(id *string) {
	a.mu.Lock()
	a.deviceID = id
	a.mu.Unlock()
}

// wait joins every task. Errors were already logged.
func (a *advisoryRun) wait() *string {
	a.wg.Wait()
	a.cancel()
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.deviceID
}

// DependencyError marks a failure of a required collaborator.
type DependencyError struct {
	Op        string
	RequestID int64
	Err       error
}

func (e *DependencyError) Error() string {
	if e.RequestID > 0 {
		return fmt.Sprintf("dispatch %s (request %d): %v", e.Op, e.RequestID, e.Err)
	}
	return fmt.Sprintf("dispatch %s: %v", e.Op, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }
