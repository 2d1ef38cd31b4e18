package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper drops expired entries and reports how many it removed.
type Sweeper interface {
	Cleanup() int
}

// Scheduler runs the periodic session sweep on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	sweeper  Sweeper
	schedule string
	logger   *zap.Logger
	mu       sync.Mutex
	running  bool
	lastRun  time.Time
	swept    int
}

func NewScheduler(sweeper Sweeper, schedule string, logger *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		sweeper:  sweeper,
		schedule: schedule,
		logger:   logger,
	}

	if _, err := s.cron.AddFunc(schedule, s.runSweep); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.cron.Start()

	s.logger.Info("Scheduler started", zap.String("schedule", s.schedule))
}

func (s *Scheduler) runSweep() {
	startTime := time.Now()
	removed := s.sweeper.Cleanup()

	s.mu.Lock()
	s.lastRun = startTime
	s.swept += removed
	s.mu.Unlock()

	s.logger.Debug("Session sweep completed",
		zap.Int("removed", removed),
		zap.Duration("duration", time.Since(startTime)))
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
}

// ForceRun sweeps immediately, outside the schedule.
func (s *Scheduler) ForceRun() {
	s.logger.Info("Manually triggering session sweep")
	s.runSweep()
}

func (s *Scheduler) GetStatus() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	return map[string]interface{}{
		"running":     s.running,
		"schedule":    s.schedule,
		"last_run":    s.lastRun,
		"total_swept": s.swept,
	}
}
