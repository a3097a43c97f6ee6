package collector

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/navid-fn/deribit-collector/configs"
	"github.com/navid-fn/deribit-collector/internal/crawler"
	"github.com/navid-fn/deribit-collector/internal/faulttolerance"
	"github.com/sirupsen/logrus"
)

type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

var ErrAlreadyStarted = errors.New("scheduler already started")

// Cycler runs a single collection cycle.
type Cycler interface {
	RunCycle(ctx context.Context) (*CycleResult, error)
}

// Scheduler repeats cycles every interval until duration has elapsed since Run
// started. A failed or panicking cycle is followed by the recovery delay and
// the loop carries on.
type Scheduler struct {
	cycler   Cycler
	interval time.Duration
	duration time.Duration
	policy   *faulttolerance.RecoveryPolicy
	logger   *logrus.Logger

	state atomic.Int32
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewScheduler(cycler Cycler, cfg configs.CollectorConfig, policy *faulttolerance.RecoveryPolicy, logger *logrus.Logger) *Scheduler {
	if policy == nil {
		policy = faulttolerance.NewRecoveryPolicy(faulttolerance.DefaultRecoveryConfig())
	}
	return &Scheduler{
		cycler:   cycler,
		interval: cfg.Interval,
		duration: cfg.Duration,
		policy:   policy,
		logger:   logger,
		now:      time.Now,
		sleep:    crawler.Sleep,
	}
}

func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Run blocks until the duration elapses (nil) or ctx is done (ctx.Err()).
// A Scheduler runs once; later calls return ErrAlreadyStarted.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return ErrAlreadyStarted
	}
	defer s.state.Store(int32(StateStopped))

	deadline := s.now().Add(s.duration)
	s.logger.WithFields(logrus.Fields{
		"interval": s.interval,
		"duration": s.duration,
	}).Info("Starting scheduled data collection")

	failures := 0
	for cycle := 1; s.now().Before(deadline); cycle++ {
		delay := s.interval
		if err := s.runOnce(ctx); err != nil {
			if ctx.Err() != nil && s.policy.IsFatal(err) {
				return ctx.Err()
			}
			failures++
			delay = s.policy.Delay(failures)
			s.logger.WithError(err).WithFields(logrus.Fields{
				"cycle":    cycle,
				"failures": failures,
			}).Errorf("Error occurred during data collection, retrying in %s", delay)
		} else {
			failures = 0
			s.logger.Infof("Waiting for %s before next data collection", delay)
		}

		if remaining := deadline.Sub(s.now()); remaining < delay {
			delay = remaining
		}
		if delay <= 0 {
			continue
		}
		if err := s.sleep(ctx, delay); err != nil {
			return err
		}
	}

	s.logger.Info("Scheduled data collection finished")
	return nil
}

func (s *Scheduler) runOnce(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panicked: %v", r)
		}
	}()

	_, err = s.cycler.RunCycle(ctx)
	return err
}
