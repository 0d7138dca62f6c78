package generator

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/ernissmal/image-generator-app/pkg/domain"
)

// mockDispatcher resolves each request through a decide function and records
// every request it saw.
type mockDispatcher struct {
	mu       sync.Mutex
	requests []domain.GenerationRequest
	decide   func(req domain.GenerationRequest) domain.GenerationResult
}

func (m *mockDispatcher) Dispatch(_ context.Context, req domain.GenerationRequest) domain.GenerationResult {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.decide != nil {
		return m.decide(req)
	}
	return okResult("generated")
}

func (m *mockDispatcher) seen() []domain.GenerationRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.GenerationRequest{}, m.requests...)
}

// promptsContaining filters recorded requests by prompt substring.
func (m *mockDispatcher) promptsContaining(sub string) []domain.GenerationRequest {
	var out []domain.GenerationRequest
	for _, req := range m.seen() {
		if strings.Contains(req.Prompt, sub) {
			out = append(out, req)
		}
	}
	return out
}

func okResult(text string) domain.GenerationResult {
	return domain.NewSuccess(&domain.GeneratedImage{
		Data:     []byte{0x89, 0x50},
		MimeType: "image/png",
		Text:     text,
	}, 1)
}

func failResult(kind domain.ErrorKind) domain.GenerationResult {
	return domain.NewFailure(&domain.ClassifiedError{
		Kind: kind,
		Err:  errors.New("scripted failure"),
	}, 3)
}

// mockStore serves templates by angle type from a fixed map.
type mockStore struct {
	templates map[string]domain.Template
}

func (m *mockStore) GetByAngleType(angleType string) (domain.Template, error) {
	tmpl, ok := m.templates[angleType]
	if !ok {
		return domain.Template{}, &domain.NotFoundError{Kind: "angle type", Key: angleType}
	}
	return tmpl, nil
}

// storeForAngles builds a mockStore covering the given angle types.
func storeForAngles(angles ...string) *mockStore {
	templates := make(map[string]domain.Template, len(angles))
	for _, angle := range angles {
		templates[angle] = domain.Template{
			ID:        angle,
			AngleType: angle,
			Prompt: domain.PromptSpec{
				User: "Show {product_name} from the " + angle + " angle",
			},
			Parameters: domain.Parameters{Temperature: 0.4, TopP: 0.8, TopK: 40, MaxOutputTokens: 2048},
		}
	}
	return &mockStore{templates: templates}
}
