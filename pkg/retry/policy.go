// Package retry runs best-effort operations with a bounded number of attempts
// and exponential backoff between them.
package retry

import (
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Default policy values.
const (
	DefaultMaxAttempts    = 3
	DefaultInitialBackoff = 100 * time.Millisecond
	DefaultMaxBackoff     = 2 * time.Second
	DefaultMultiplier     = 2.0
	DefaultJitter         = 0.2
)

// Policy bounds how an operation is retried.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts int `mapstructure:"max_attempts" yaml:"max_attempts" validate:"min=1,max=100" json:"max_attempts"`

	// InitialBackoff is the delay after the first failed attempt.
	InitialBackoff time.Duration `mapstructure:"initial_backoff" yaml:"initial_backoff" validate:"min=0" json:"initial_backoff"`

	// MaxBackoff caps the delay between attempts.
	MaxBackoff time.Duration `mapstructure:"max_backoff" yaml:"max_backoff" validate:"min=0" json:"max_backoff"`

	// Multiplier grows the delay after each failed attempt.
	Multiplier float64 `mapstructure:"multiplier" yaml:"multiplier" validate:"gte=1" json:"multiplier"`

	// Jitter randomizes each delay by +/- Jitter*delay. Zero disables it.
	Jitter float64 `mapstructure:"jitter" yaml:"jitter" validate:"gte=0,lte=1" json:"jitter"`
}

// DefaultPolicy returns 3 attempts with 100ms doubling backoff capped at 2s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    DefaultMaxAttempts,
		InitialBackoff: DefaultInitialBackoff,
		MaxBackoff:     DefaultMaxBackoff,
		Multiplier:     DefaultMultiplier,
		Jitter:         DefaultJitter,
	}
}

// NoBackoff returns a policy that retries immediately. Useful in tests.
func NoBackoff(maxAttempts int) Policy {
	return Policy{MaxAttempts: maxAttempts, Multiplier: 1}
}

// Validate reports the first invalid field.
func (p Policy) Validate() error {
	switch {
	case p.MaxAttempts < 1:
		return fmt.Errorf("max attempts must be at least 1, got %d", p.MaxAttempts)
	case p.InitialBackoff < 0:
		return errors.New("initial backoff must not be negative")
	case p.MaxBackoff < 0:
		return errors.New("max backoff must not be negative")
	case p.Multiplier < 1:
		return fmt.Errorf("multiplier must be >= 1, got %v", p.Multiplier)
	case p.Jitter < 0 || p.Jitter > 1:
		return fmt.Errorf("jitter must be within [0,1], got %v", p.Jitter)
	}
	return nil
}

// withDefaults fills zero values so a partially configured policy still runs.
func (p Policy) withDefaults() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.Multiplier < 1 {
		p.Multiplier = DefaultMultiplier
	}
	if p.MaxBackoff < p.InitialBackoff {
		p.MaxBackoff = p.InitialBackoff
	}
	if p.Jitter < 0 || p.Jitter > 1 {
		p.Jitter = 0
	}
	return p
}

// NewBackOff returns the delay schedule for p. The schedule never stops on
// its own; Do bounds it by MaxAttempts.
func (p Policy) NewBackOff() backoff.BackOff {
	p = p.withDefaults()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialBackoff
	b.MaxInterval = p.MaxBackoff
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = p.Jitter
	b.MaxElapsedTime = 0
	b.Reset()

	return b
}

// Delays returns the deterministic (jitter-free) delays between attempts.
func (p Policy) Delays() []time.Duration {
	p = p.withDefaults()
	p.Jitter = 0

	b := p.NewBackOff()
	delays := make([]time.Duration, 0, p.MaxAttempts-1)
	for i := 1; i < p.MaxAttempts; i++ {
		delays = append(delays, b.NextBackOff())
	}
	return delays
}
