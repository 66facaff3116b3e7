package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/mroshb/jeju_points/internal/metrics"
	"github.com/mroshb/jeju_points/internal/services"
	"github.com/mroshb/jeju_points/pkg/logger"
	"github.com/robfig/cron/v3"
)

const (
	sweepLockKey   = "jeju_points:sweep"
	defaultLockTTL = 10 * time.Minute
)

// Sweeper is the part of the point box service the scheduler drives.
type Sweeper interface {
	SweepExpiredBoxes(ctx context.Context) (*services.SweepReport, error)
}

// Scheduler runs the expiry sweep on a cron spec. With a shared Locker
// only one replica sweeps per tick.
type Scheduler struct {
	cron    *cron.Cron
	spec    string
	sweeper Sweeper
	locker  Locker
	metrics *metrics.Metrics
	lockTTL time.Duration
}

func New(spec string, sweeper Sweeper, locker Locker, lockTTL time.Duration, m *metrics.Metrics) (*Scheduler, error) {
	if locker == nil {
		locker = NoopLocker{}
	}
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}

	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{}))),
		spec:    spec,
		sweeper: sweeper,
		locker:  locker,
		metrics: m,
		lockTTL: lockTTL,
	}

	if _, err := s.cron.AddFunc(spec, func() {
		// keep each run bounded by the lock it holds
		ctx, cancel := context.WithTimeout(context.Background(), lockTTL)
		defer cancel()
		if _, err := s.RunOnce(ctx); err != nil {
			logger.Error("Scheduled sweep failed", "error", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}

	return s, nil
}

// RunOnce takes the sweep lock and runs one sweep. A nil report with a nil
// error means another process holds the lock.
func (s *Scheduler) RunOnce(ctx context.Context) (*services.SweepReport, error) {
	log := logger.With("lock", sweepLockKey)

	release, ok, err := s.locker.TryLock(ctx, sweepLockKey, s.lockTTL)
	if err != nil {
		// Sweeping without the lock could race another replica; wait for the next tick
		return nil, err
	}
	if !ok {
		log.Debugw("Sweep lock held elsewhere, skipping run")
		return nil, nil
	}
	defer release()

	s.metrics.ObserveSweepRun("cron")
	start := time.Now()
	report, err := s.sweeper.SweepExpiredBoxes(ctx)
	if err != nil {
		return nil, err
	}

	log.Infow("Scheduled sweep finished",
		"scanned", report.Scanned,
		"refunded", report.Refunded,
		"deleted", report.Deleted,
		"failed", report.Failed,
		"duration", time.Since(start),
	)
	return report, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info("Sweep scheduler started", "spec", s.spec)
}

// Stop waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// cronLogger routes cron's own messages to the service logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
