package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ernissmal/image-generator-app/pkg/domain"
)

var (
	retryableErr = &domain.ClassifiedError{
		Kind:      domain.KindNetwork,
		Retryable: true,
		Err:       errors.New("connection reset"),
	}
	permanentErr = &domain.ClassifiedError{
		Kind:      domain.KindAuth,
		Retryable: false,
		Err:       errors.New("api key invalid"),
	}
)

// testConfig keeps real timer waits negligible.
func testConfig() Config {
	return Config{MaxAttempts: 3, BaseDelay: time.Millisecond, CallTimeout: time.Second}
}

func TestNewDispatcher(t *testing.T) {
	t.Run("rejects nil collaborators", func(t *testing.T) {
		_, err := NewDispatcher(nil, &openLimiter{}, Config{})
		assert.Error(t, err)
		_, err = NewDispatcher(&mockProvider{}, nil, Config{})
		assert.Error(t, err)
	})

	t.Run("clamps the attempt budget", func(t *testing.T) {
		d, err := NewDispatcher(&mockProvider{}, &openLimiter{}, Config{MaxAttempts: 99})
		require.NoError(t, err)
		assert.Equal(t, 10, d.cfg.MaxAttempts)

		d, err = NewDispatcher(&mockProvider{}, &openLimiter{}, Config{MaxAttempts: -1})
		require.NoError(t, err)
		assert.Equal(t, 1, d.cfg.MaxAttempts)
	})
}

func TestDispatcher_Dispatch(t *testing.T) {
	ctx := context.Background()
	img := &domain.GeneratedImage{Data: []byte{1}, MimeType: "image/png"}

	t.Run("success on the first attempt", func(t *testing.T) {
		provider := &mockProvider{script: []providerOutcome{{img: img}}}
		limiter := &openLimiter{}
		d, err := NewDispatcher(provider, limiter, testConfig())
		require.NoError(t, err)

		res := d.Dispatch(ctx, domain.GenerationRequest{Prompt: "p"})

		assert.True(t, res.OK)
		assert.Equal(t, 1, res.Attempts)
		assert.Same(t, img, res.Image)
		assert.Equal(t, 1, limiter.admitted)
	})

	t.Run("retryable failures retry up to the budget with growing waits", func(t *testing.T) {
		provider := &mockProvider{script: []providerOutcome{{err: retryableErr}}}
		d, err := NewDispatcher(provider, &openLimiter{}, testConfig())
		require.NoError(t, err)

		var waits []time.Duration
		d.onBackoff = func(w time.Duration) { waits = append(waits, w) }

		res := d.Dispatch(ctx, domain.GenerationRequest{Prompt: "p"})

		assert.False(t, res.OK)
		assert.Equal(t, 3, res.Attempts)
		assert.Equal(t, domain.KindNetwork, res.Err.Kind)
		require.Equal(t, []time.Duration{2 * time.Millisecond, 4 * time.Millisecond}, waits)
	})

	t.Run("recovery mid-sequence stops retrying", func(t *testing.T) {
		provider := &mockProvider{script: []providerOutcome{{err: retryableErr}, {img: img}}}
		d, err := NewDispatcher(provider, &openLimiter{}, testConfig())
		require.NoError(t, err)

		res := d.Dispatch(ctx, domain.GenerationRequest{Prompt: "p"})

		assert.True(t, res.OK)
		assert.Equal(t, 2, res.Attempts)
	})

	t.Run("non-retryable failures never retry", func(t *testing.T) {
		provider := &mockProvider{script: []providerOutcome{{err: permanentErr}}}
		d, err := NewDispatcher(provider, &openLimiter{}, testConfig())
		require.NoError(t, err)

		res := d.Dispatch(ctx, domain.GenerationRequest{Prompt: "p"})

		assert.False(t, res.OK)
		assert.Equal(t, 1, res.Attempts)
		assert.Equal(t, 1, provider.calls)
		assert.Equal(t, domain.KindAuth, res.Err.Kind)
	})

	t.Run("per-request budget overrides the configured one", func(t *testing.T) {
		provider := &mockProvider{script: []providerOutcome{{err: retryableErr}}}
		d, err := NewDispatcher(provider, &openLimiter{}, testConfig())
		require.NoError(t, err)

		res := d.Dispatch(ctx, domain.GenerationRequest{Prompt: "p", MaxAttempts: 5})

		assert.Equal(t, 5, res.Attempts)
	})

	t.Run("every attempt passes through the limiter", func(t *testing.T) {
		provider := &mockProvider{script: []providerOutcome{{err: retryableErr}}}
		limiter := &openLimiter{}
		d, err := NewDispatcher(provider, limiter, testConfig())
		require.NoError(t, err)

		d.Dispatch(ctx, domain.GenerationRequest{Prompt: "p"})

		assert.Equal(t, 3, limiter.admitted)
	})

	t.Run("unclassified provider errors come back as UNKNOWN", func(t *testing.T) {
		provider := &mockProvider{script: []providerOutcome{{err: errors.New("raw failure")}}}
		d, err := NewDispatcher(provider, &openLimiter{}, testConfig())
		require.NoError(t, err)

		res := d.Dispatch(ctx, domain.GenerationRequest{Prompt: "p"})

		assert.False(t, res.OK)
		assert.Equal(t, domain.KindUnknown, res.Err.Kind)
		assert.Equal(t, 1, res.Attempts)
	})
}
