package supervisor

import (
	"context"
	"sync"
	"time"

	"github.com/aranyasourav/triggerhub/internal/delivery"
	"github.com/aranyasourav/triggerhub/internal/eventqueue"
	"github.com/aranyasourav/triggerhub/internal/registry"
	"github.com/aranyasourav/triggerhub/internal/scheduledqueue"
	"github.com/aranyasourav/triggerhub/pkg/clock"
	"go.uber.org/zap"
)

// Store is the combined storage contract the supervisor needs at startup
// and to wire into both workers.
type Store interface {
	eventqueue.Store
	scheduledqueue.Store
	UnlockAllEventLogs(ctx context.Context) (int64, error)
	UnlockAllScheduledEvents(ctx context.Context) (int64, error)
}

// Config controls the tick cadences and resource limits the supervisor
// wires into its workers.
type Config struct {
	HTTPPoolSize  int
	FetchInterval time.Duration
}

// Supervisor owns the ET and ST worker goroutines, the shared delivery
// pipeline, and lifecycle: startup unlock sweep, spawn, cooperative
// shutdown.
type Supervisor struct {
	store    Store
	registry registry.Provider
	clock    clock.Clock
	logger   *zap.Logger
	cfg      Config

	eventWorker     *eventqueue.Worker
	scheduledWorker *scheduledqueue.Worker
}

// New constructs a Supervisor. It does not start anything until Run is called.
func New(store Store, reg registry.Provider, c clock.Clock, notifier delivery.InvocationNotifier, logger *zap.Logger, cfg Config) *Supervisor {
	permits := delivery.NewPermits(cfg.HTTPPoolSize, logger)
	pipeline := delivery.NewPipeline(permits, c, notifier, logger)

	return &Supervisor{
		store:           store,
		registry:        reg,
		clock:           c,
		logger:          logger,
		cfg:             cfg,
		eventWorker:     eventqueue.New(store, pipeline, reg, c, cfg.FetchInterval, logger),
		scheduledWorker: scheduledqueue.New(store, pipeline, reg, c, logger),
	}
}

// Run performs the startup unlock sweep, then runs both worker loops until
// ctx is cancelled, returning once both have exited.
func (s *Supervisor) Run(ctx context.Context) {
	s.unlockSweep(ctx)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		s.eventWorker.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		s.scheduledWorker.Run(ctx)
	}()

	s.logger.Info("engine supervisor started",
		zap.Int("http_pool_size", s.cfg.HTTPPoolSize),
		zap.Duration("et_fetch_interval", s.cfg.FetchInterval))

	wg.Wait()
	s.logger.Info("engine supervisor stopped")
}

// unlockSweep resets locked=true rows left behind by a prior ungraceful
// exit, on both queues, so they become eligible for leasing again.
func (s *Supervisor) unlockSweep(ctx context.Context) {
	n, err := s.store.UnlockAllEventLogs(ctx)
	if err != nil {
		s.logger.Error("startup unlock sweep: event_log", zap.Error(err))
	} else if n > 0 {
		s.logger.Info("startup unlock sweep recovered locked event rows", zap.Int64("count", n))
	}

	n, err = s.store.UnlockAllScheduledEvents(ctx)
	if err != nil {
		s.logger.Error("startup unlock sweep: hdb_scheduled_events", zap.Error(err))
	} else if n > 0 {
		s.logger.Info("startup unlock sweep recovered locked scheduled rows", zap.Int64("count", n))
	}
}
