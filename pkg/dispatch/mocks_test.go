package dispatch

import (
	"context"

	"github.com/ernissmal/image-generator-app/pkg/domain"
)

// mockProvider replays a scripted sequence of outcomes. Once the script is
// exhausted the last entry repeats.
type mockProvider struct {
	script []providerOutcome
	calls  int
}

type providerOutcome struct {
	img *domain.GeneratedImage
	err error
}

func (m *mockProvider) Generate(_ context.Context, _ domain.GenerationRequest) (*domain.GeneratedImage, error) {
	i := m.calls
	if i >= len(m.script) {
		i = len(m.script) - 1
	}
	m.calls++
	out := m.script[i]
	return out.img, out.err
}

// openLimiter admits everything and counts admissions.
type openLimiter struct {
	admitted int
}

func (l *openLimiter) Wait(_ context.Context) error {
	l.admitted++
	return nil
}
