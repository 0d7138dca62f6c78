package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ernissmal/image-generator-app/pkg/domain"
)

// Provider performs one generation call. Implementations must return a
// *domain.ClassifiedError for every failure.
type Provider interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GeneratedImage, error)
}

// Limiter gates dispatches. Wait blocks until the caller may proceed.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Retry attempt bounds. Config.MaxAttempts and per-request overrides are
// clamped into this range.
const (
	minAttempts = 1
	maxAttempts = 10
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = time.Second
	defaultCallTimeout = 60 * time.Second
)

// Config tunes the dispatcher. Zero fields fall back to defaults.
type Config struct {
	// MaxAttempts is the total attempt budget per dispatch, retries included.
	MaxAttempts int
	// BaseDelay scales the backoff: the wait before retry n is 2^n * BaseDelay.
	BaseDelay time.Duration
	// CallTimeout bounds each individual provider call.
	CallTimeout time.Duration
}

// Dispatcher serializes every provider call through the limiter and retries
// retryable failures with exponential backoff. Results come back as
// GenerationResult values; Dispatch itself never fails.
type Dispatcher struct {
	provider Provider
	limiter  Limiter
	cfg      Config

	// onBackoff observes each backoff wait. Tests hook it; production leaves
	// it nil.
	onBackoff func(d time.Duration)
}

// NewDispatcher wires a provider behind the limiter.
func NewDispatcher(provider Provider, limiter Limiter, cfg Config) (*Dispatcher, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider (Provider) is required")
	}
	if limiter == nil {
		return nil, fmt.Errorf("limiter (Limiter) is required")
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	cfg.MaxAttempts = clampAttempts(cfg.MaxAttempts)
	if cfg.BaseDelay == 0 {
		cfg.BaseDelay = defaultBaseDelay
	}
	if cfg.CallTimeout == 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	return &Dispatcher{provider: provider, limiter: limiter, cfg: cfg}, nil
}

// Dispatch runs one generation request to completion: limiter admission,
// per-call timeout, classification, and retries for retryable failures. The
// returned result carries the final outcome and the attempt count.
func (d *Dispatcher) Dispatch(ctx context.Context, req domain.GenerationRequest) domain.GenerationResult {
	budget := d.cfg.MaxAttempts
	if req.MaxAttempts > 0 {
		budget = clampAttempts(req.MaxAttempts)
	}

	attempts := 0
	operation := func() (*domain.GeneratedImage, error) {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, backoff.Permanent(err)
		}
		attempts++

		callCtx, cancel := context.WithTimeout(ctx, d.cfg.CallTimeout)
		defer cancel()

		img, err := d.provider.Generate(callCtx, req)
		if err != nil {
			ce := domain.AsClassified(err)
			if !ce.Retryable {
				return nil, backoff.Permanent(ce)
			}
			return nil, ce
		}
		return img, nil
	}

	notify := func(err error, wait time.Duration) {
		slog.Warn("generation attempt failed, backing off",
			"attempt", attempts, "wait", wait, "error", err)
		if d.onBackoff != nil {
			d.onBackoff(wait)
		}
	}

	img, err := backoff.RetryNotifyWithData(operation, d.newBackOff(ctx, budget), notify)
	if err != nil {
		return domain.NewFailure(domain.AsClassified(err), attempts)
	}
	return domain.NewSuccess(img, attempts)
}

// newBackOff yields waits of 2*BaseDelay, 4*BaseDelay, 8*BaseDelay and so
// on, with no jitter and no elapsed-time cutoff; only the attempt budget
// ends the retry loop.
func (d *Dispatcher) newBackOff(ctx context.Context, budget int) backoff.BackOffContext {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * d.cfg.BaseDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxInterval = time.Hour
	bo.MaxElapsedTime = 0
	bo.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(bo, uint64(budget-1)), ctx)
}

func clampAttempts(n int) int {
	if n < minAttempts {
		return minAttempts
	}
	if n > maxAttempts {
		return maxAttempts
	}
	return n
}
