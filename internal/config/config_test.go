package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ernissmal/image-generator-app/pkg/domain"
)

func TestLoad(t *testing.T) {
	t.Run("missing api key is a ConfigError", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "")

		_, err := Load()
		var ce *domain.ConfigError
		require.True(t, errors.As(err, &ce))
	})

	t.Run("defaults apply when only the key is set", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "test-key")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "gemini-2.5-flash-image-preview", cfg.GeminiModel)
		assert.Equal(t, "prompts/angle-generation", cfg.TemplateDir)
		assert.Equal(t, "references/products", cfg.ReferencesDir)
		assert.Equal(t, "3000", cfg.Port)
		assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
		assert.Equal(t, 15, cfg.MaxPerWindow)
		assert.Equal(t, time.Minute, cfg.RateWindow)
		assert.Equal(t, 3, cfg.MaxRetries)
		assert.InDelta(t, 0.70, cfg.SuccessThreshold, 1e-9)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("environment overrides win", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "test-key")
		t.Setenv("MAX_REQUESTS_PER_WINDOW", "5")
		t.Setenv("RATE_WINDOW_MS", "30000")
		t.Setenv("SUCCESS_THRESHOLD", "0.5")
		t.Setenv("LOG_LEVEL", "DEBUG")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 5, cfg.MaxPerWindow)
		assert.Equal(t, 30*time.Second, cfg.RateWindow)
		assert.InDelta(t, 0.5, cfg.SuccessThreshold, 1e-9)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("nonsense values fall back to sane ones", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "test-key")
		t.Setenv("MAX_REQUESTS_PER_WINDOW", "not-a-number")
		t.Setenv("SUCCESS_THRESHOLD", "7.5")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 15, cfg.MaxPerWindow)
		assert.InDelta(t, 0.70, cfg.SuccessThreshold, 1e-9)
	})
}
