// Package retry runs startup and publish operations with exponential backoff.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

var (
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
	ErrContextCanceled    = errors.New("context canceled during retry")
)

// Config controls the backoff schedule. MaxRetries counts retries after the
// first attempt, so MaxRetries=0 means a single try.
type Config struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	// JitterFactor spreads each wait by ±factor of its length.
	JitterFactor float64
}

// DefaultConfig waits 500ms, 1s, 2s, 4s between attempts.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:      4,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.1,
	}
}

// Operation is one attempt.
type Operation func(ctx context.Context) error

// OnRetry is called after a failed attempt, before sleeping.
type OnRetry func(attempt int, err error, wait time.Duration)

// PermanentError stops the retry loop immediately.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// Result describes how a retried operation ended.
type Result struct {
	// Err is nil on success, the unwrapped permanent error, or one of
	// ErrMaxRetriesExceeded / ErrContextCanceled.
	Err       error
	Attempts  int
	LastError error
	Elapsed   time.Duration
}

type Retrier struct {
	config Config
}

// New fills zero fields of cfg with defaults. A nil cfg means DefaultConfig.
func New(cfg *Config) *Retrier {
	c := *DefaultConfig()
	if cfg != nil {
		c = *cfg
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = 500 * time.Millisecond
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 10 * time.Second
	}
	if c.Multiplier <= 0 {
		c.Multiplier = 2.0
	}
	c.JitterFactor = math.Max(0, math.Min(1, c.JitterFactor))
	return &Retrier{config: c}
}

func (r *Retrier) Do(ctx context.Context, op Operation) *Result {
	return r.DoWithCallback(ctx, op, nil)
}

func (r *Retrier) DoWithCallback(ctx context.Context, op Operation, onRetry OnRetry) *Result {
	start := time.Now()
	res := &Result{}
	finish := func(err error) *Result {
		res.Err = err
		res.Elapsed = time.Since(start)
		return res
	}

	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return finish(ErrContextCanceled)
		}

		res.Attempts = attempt + 1
		err := op(ctx)
		if err == nil {
			return finish(nil)
		}
		res.LastError = err

		var perm *PermanentError
		if errors.As(err, &perm) {
			res.LastError = perm.Err
			return finish(perm.Err)
		}

		if attempt >= r.config.MaxRetries {
			return finish(ErrMaxRetriesExceeded)
		}

		wait := r.backoff(attempt)
		if onRetry != nil {
			onRetry(attempt+1, err, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return finish(ErrContextCanceled)
		case <-timer.C:
		}
	}
}

func (r *Retrier) backoff(attempt int) time.Duration {
	d := float64(r.config.InitialInterval) * math.Pow(r.config.Multiplier, float64(attempt))
	if j := r.config.JitterFactor; j > 0 {
		d += (rand.Float64()*2 - 1) * d * j
	}
	if d > float64(r.config.MaxInterval) {
		d = float64(r.config.MaxInterval)
	}
	if d <= 0 {
		d = float64(r.config.InitialInterval)
	}
	return time.Duration(d)
}

// Do is shorthand for New(cfg).Do(ctx, op).
func Do(ctx context.Context, cfg *Config, op Operation) *Result {
	return New(cfg).Do(ctx, op)
}

// DoWithCallback is shorthand for New(cfg).DoWithCallback(ctx, op, onRetry).
func DoWithCallback(ctx context.Context, cfg *Config, op Operation, onRetry OnRetry) *Result {
	return New(cfg).DoWithCallback(ctx, op, onRetry)
}
