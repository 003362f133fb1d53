package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"adsreporter/pkg/logger"
)

// SchedulerState describes what the scheduler is currently driving.
type SchedulerState string

const (
	StateIdle             SchedulerState = "idle"
	StatePollingReal      SchedulerState = "polling_real"
	StatePollingSimulated SchedulerState = "polling_simulated"
	StatePaused           SchedulerState = "paused"
)

var ErrSchedulerRunning = errors.New("scheduler already running")

type SchedulerConfig struct {
	RealInterval      time.Duration
	SimulatedInterval time.Duration
	ChartInterval     time.Duration
	AutoRefresh       bool
}

// Scheduler drives the dashboard's metrics and chart ticks. The metrics
// interval follows the dashboard mode and is re-armed on every change.
type Scheduler struct {
	dashboard *Dashboard
	config    SchedulerConfig
	logger    *logger.Logger

	mu          sync.Mutex
	running     bool
	autoRefresh bool
	cancel      context.CancelFunc
	done        chan struct{}

	toggle chan struct{}
	ticks  sync.WaitGroup
}

func NewScheduler(dashboard *Dashboard, config SchedulerConfig, logger *logger.Logger) *Scheduler {
	return &Scheduler{
		dashboard:   dashboard,
		config:      config,
		logger:      logger,
		autoRefresh: config.AutoRefresh,
		toggle:      make(chan struct{}, 1),
	}
}

// Start launches the tick loop. It runs until ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrSchedulerRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx, s.done)

	s.logger.Component("scheduler").WithField("auto_refresh", s.autoRefresh).Info("Scheduler started")
	return nil
}

// Stop halts the loop and waits for in-flight real refreshes to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
	s.ticks.Wait()

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Component("scheduler").Info("Scheduler stopped")
}

// SetAutoRefresh pauses or resumes both tickers.
func (s *Scheduler) SetAutoRefresh(enabled bool) {
	s.mu.Lock()
	changed := s.autoRefresh != enabled
	s.autoRefresh = enabled
	s.mu.Unlock()

	if !changed {
		return
	}
	select {
	case s.toggle <- struct{}{}:
	default:
	}
	s.logger.Component("scheduler").WithField("auto_refresh", enabled).Info("Auto refresh toggled")
}

func (s *Scheduler) AutoRefresh() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoRefresh
}

func (s *Scheduler) State() SchedulerState {
	s.mu.Lock()
	running, auto := s.running, s.autoRefresh
	s.mu.Unlock()

	switch {
	case !running:
		return StateIdle
	case !auto:
		return StatePaused
	case s.dashboard.Mode() == ModeReal:
		return StatePollingReal
	default:
		return StatePollingSimulated
	}
}

func (s *Scheduler) metricsInterval() time.Duration {
	if s.dashboard.Mode() == ModeReal {
		return s.config.RealInterval
	}
	return s.config.SimulatedInterval
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	log := s.logger.Component("scheduler")

	metricsTicker := time.NewTicker(s.metricsInterval())
	defer metricsTicker.Stop()
	chartTicker := time.NewTicker(s.config.ChartInterval)
	defer chartTicker.Stop()

	arm := func() {
		if !s.AutoRefresh() {
			metricsTicker.Stop()
			chartTicker.Stop()
			return
		}
		metricsTicker.Reset(s.metricsInterval())
		chartTicker.Reset(s.config.ChartInterval)
	}
	arm()

	for {
		select {
		case <-ctx.Done():
			return

		case <-s.dashboard.Changes():
			if s.AutoRefresh() {
				interval := s.metricsInterval()
				metricsTicker.Reset(interval)
				log.WithField("interval", interval).Debug("Metrics interval re-armed")
			}

		case <-s.toggle:
			arm()

		case <-metricsTicker.C:
			s.tick(ctx)

		case <-chartTicker.C:
			s.dashboard.ChartTick()
		}
	}
}

// tick reads the dashboard mode fresh each time. Real refreshes run off the
// loop so chart ticks keep their pace during slow remote calls.
func (s *Scheduler) tick(ctx context.Context) {
	if s.dashboard.Mode() != ModeReal {
		_ = s.dashboard.Refresh(ctx, true)
		return
	}

	s.ticks.Go(func() {
		if err := s.dashboard.Refresh(ctx, true); err != nil && ctx.Err() == nil {
			s.logger.WithContext(ctx).WithError(err).Debug("Periodic refresh failed")
		}
	})
}
