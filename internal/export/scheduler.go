package export

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/leadconsole/internal/model"
)

// Source produces the leads to export on each tick. It typically reloads
// the store and returns its snapshot.
type Source func(ctx context.Context) ([]model.Lead, error)

// Scheduler exports periodically to a fixed set of destinations.
type Scheduler struct {
	source       Source
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler that exports from source every interval.
func NewScheduler(source Source, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		source:       source,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
	}
}

// Start runs one export immediately and then one per tick until Stop or
// ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for an in-flight export to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	s.once(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.once(ctx)
		}
	}
}

func (s *Scheduler) once(ctx context.Context) {
	leads, err := s.source(ctx)
	if err != nil {
		s.logger.Error("export source failed", "err", err)
		return
	}
	// Run logs per-destination failures itself.
	_ = Run(ctx, leads, s.destinations, s.logger)
}
