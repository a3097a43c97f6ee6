package faulttolerance

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"
)

// RecoveryConfig holds configuration for the pause after a failed cycle
type RecoveryConfig struct {
	BaseDelay   time.Duration // Delay after the first failure
	MaxDelay    time.Duration // Upper bound for the delay
	Multiplier  float64       // Growth per consecutive failure; 1 keeps the delay fixed
	JitterRange float64       // Jitter range (0.0 to 1.0)
}

// DefaultRecoveryConfig returns a fixed 30 second pause
func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		BaseDelay:  30 * time.Second,
		MaxDelay:   5 * time.Minute,
		Multiplier: 1.0,
	}
}

// RecoveryPolicy decides how long to pause after a failed cycle and
// which failures end the run instead.
type RecoveryPolicy struct {
	config RecoveryConfig

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRecoveryPolicy creates a policy, replacing out-of-range values with defaults
func NewRecoveryPolicy(config RecoveryConfig) *RecoveryPolicy {
	if config.BaseDelay <= 0 {
		config.BaseDelay = 30 * time.Second
	}
	if config.MaxDelay < config.BaseDelay {
		config.MaxDelay = config.BaseDelay
	}
	if config.Multiplier < 1.0 {
		config.Multiplier = 1.0
	}
	if config.JitterRange < 0 || config.JitterRange > 1.0 {
		config.JitterRange = 0
	}

	return &RecoveryPolicy{
		config: config,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Delay returns the pause after the given number of consecutive failures (1-based)
func (p *RecoveryPolicy) Delay(failures int) time.Duration {
	if failures < 1 {
		failures = 1
	}

	// Exponential backoff: baseDelay * multiplier^(failures-1)
	delay := float64(p.config.BaseDelay) * math.Pow(p.config.Multiplier, float64(failures-1))

	if delay > float64(p.config.MaxDelay) {
		delay = float64(p.config.MaxDelay)
	}

	if p.config.JitterRange > 0 {
		p.mu.Lock()
		jitter := p.rng.Float64() * p.config.JitterRange * delay
		if p.rng.Float64() < 0.5 {
			delay -= jitter
		} else {
			delay += jitter
		}
		p.mu.Unlock()
	}

	if delay < float64(p.config.BaseDelay) {
		delay = float64(p.config.BaseDelay)
	}

	return time.Duration(delay)
}

// IsFatal reports whether err should stop the run. Only cancellation of the
// caller's context qualifies; every other cycle failure is recoverable.
func (p *RecoveryPolicy) IsFatal(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
