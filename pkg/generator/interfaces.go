package generator

import (
	"context"

	"github.com/ernissmal/image-generator-app/pkg/domain"
)

// Dispatcher runs a single generation request through rate limiting and
// retries, never returning an error: failures arrive inside the result.
type Dispatcher interface {
	Dispatch(ctx context.Context, req domain.GenerationRequest) domain.GenerationResult
}

// TemplateSource resolves angle types to validated prompt templates.
type TemplateSource interface {
	GetByAngleType(angleType string) (domain.Template, error)
}
