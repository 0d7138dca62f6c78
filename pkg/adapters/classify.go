package adapters

import (
	"context"
	"errors"
	"strings"

	"github.com/ernissmal/image-generator-app/pkg/domain"
)

// Classify normalizes a provider failure into the fixed error taxonomy.
// Matching is on lowercased message text; the first matching category wins,
// in this order: rate limit, auth, network, safety. Anything else is a
// non-retryable UNKNOWN. The original error stays reachable via Unwrap.
func Classify(err error) *domain.ClassifiedError {
	if err == nil {
		return nil
	}
	var ce *domain.ClassifiedError
	if errors.As(err, &ce) {
		return ce
	}

	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "quota"):
		return &domain.ClassifiedError{
			Kind:        domain.KindRateLimit,
			Retryable:   true,
			UserMessage: "Too many requests. Please wait a moment and try again.",
			Err:         err,
		}
	case strings.Contains(msg, "invalid") || strings.Contains(msg, "authentication"):
		return &domain.ClassifiedError{
			Kind:        domain.KindAuth,
			Retryable:   false,
			UserMessage: "Service configuration error. Please contact support.",
			Err:         err,
		}
	case isNetwork(err, msg):
		return &domain.ClassifiedError{
			Kind:        domain.KindNetwork,
			Retryable:   true,
			UserMessage: "Network issue. Please check your connection and try again.",
			Err:         err,
		}
	case strings.Contains(msg, "safety") || strings.Contains(msg, "blocked"):
		return &domain.ClassifiedError{
			Kind:        domain.KindSafetyBlocked,
			Retryable:   false,
			UserMessage: "The request was blocked by content filters. Please adjust the prompt.",
			Err:         err,
		}
	default:
		return &domain.ClassifiedError{
			Kind:        domain.KindUnknown,
			Retryable:   false,
			UserMessage: "Generation failed. Please try again.",
			Err:         err,
		}
	}
}

func isNetwork(err error, msg string) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "network") ||
		strings.Contains(msg, "deadline") ||
		strings.Contains(msg, "connection")
}
