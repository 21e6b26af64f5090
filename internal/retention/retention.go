// FilePath: internal/retention/retention.go

// Package retention trims stored readings older than the configured horizon.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/coldroute/cargomon/internal/config"
	"github.com/coldroute/cargomon/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// Service runs the periodic retention sweep
type Service struct {
	readings repository.ReadingRepository
	maxAge   time.Duration
	interval time.Duration
	events   *nuts.EventEmitter
	now      func() time.Time
}

// New creates a new retention Service
func New(readings repository.ReadingRepository, cfg config.RetentionConfig) *Service {
	return &Service{
		readings: readings,
		maxAge:   cfg.MaxAge,
		interval: cfg.SweepInterval,
		events:   nuts.NewEventEmitter(),
		now:      time.Now,
	}
}

// Run sweeps on the configured interval until the context ends
func (s *Service) Run(ctx context.Context) {
	nuts.L.Infof("[Retention] Sweeping every %v, keeping %v of readings", s.interval, s.maxAge)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			nuts.L.Infof("[Retention] Sweep loop stopped: %v", ctx.Err())
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				nuts.L.Errorf("[Retention] Sweep failed: %v", err)
			}
		}
	}
}

// Sweep deletes readings received before now minus the retention horizon.
// A failed sweep leaves the data in place for the next interval.
func (s *Service) Sweep(ctx context.Context) error {
	cutoff := s.now().Add(-s.maxAge)
	if err := s.readings.DeleteOldData(ctx, cutoff); err != nil {
		return fmt.Errorf("failed to delete readings before %v: %w", cutoff, err)
	}
	s.events.Emit("retention.swept", cutoff.Format(time.RFC3339))
	return nil
}

// OnSweep registers a callback for completed sweeps
func (s *Service) OnSweep(handler func(cutoff string)) {
	s.events.On("retention.swept", "retention_handler", func(args ...interface{}) {
		if len(args) > 0 {
			if cutoff, ok := args[0].(string); ok {
				handler(cutoff)
			}
		}
	})
}
