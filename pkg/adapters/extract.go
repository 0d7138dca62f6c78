package adapters

import (
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/ernissmal/image-generator-app/pkg/domain"
)

// extractStrategy scans a response for inline image data. Strategies are
// tried in order; the first hit wins.
type extractStrategy struct {
	name string
	fn   func(*genai.GenerateContentResponse) *domain.GeneratedImage
}

var extractStrategies = []extractStrategy{
	{name: "first-candidate-inline", fn: firstCandidateInline},
	{name: "any-candidate-inline", fn: anyCandidateInline},
}

// extractImage pulls the generated image out of a response. The error on a
// miss names every strategy attempted so response-shape drift is diagnosable
// from logs alone.
func extractImage(resp *genai.GenerateContentResponse) (*domain.GeneratedImage, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in response")
	}
	for _, s := range extractStrategies {
		if img := s.fn(resp); img != nil {
			return img, nil
		}
	}
	names := make([]string, len(extractStrategies))
	for i, s := range extractStrategies {
		names[i] = s.name
	}
	return nil, fmt.Errorf("no image data in response (tried %s)", strings.Join(names, ", "))
}

// firstCandidateInline is the expected shape: image in the first candidate.
func firstCandidateInline(resp *genai.GenerateContentResponse) *domain.GeneratedImage {
	return inlineFromCandidate(resp.Candidates[0])
}

// anyCandidateInline sweeps the remaining candidates as a fallback.
func anyCandidateInline(resp *genai.GenerateContentResponse) *domain.GeneratedImage {
	for _, cand := range resp.Candidates[1:] {
		if img := inlineFromCandidate(cand); img != nil {
			return img
		}
	}
	return nil
}

func inlineFromCandidate(cand *genai.Candidate) *domain.GeneratedImage {
	if cand == nil || cand.Content == nil {
		return nil
	}
	for _, part := range cand.Content.Parts {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return &domain.GeneratedImage{
				Data:     part.InlineData.Data,
				MimeType: part.InlineData.MIMEType,
			}
		}
	}
	return nil
}

// checkBlocked turns a safety finish into an error whose text the classifier
// recognizes as SAFETY_BLOCKED.
func checkBlocked(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return nil
	}
	for _, cand := range resp.Candidates {
		if cand != nil && cand.FinishReason == genai.FinishReasonSafety {
			return fmt.Errorf("generation blocked by safety filters (finish reason %s)", cand.FinishReason)
		}
	}
	return nil
}

// collectText concatenates the text parts of the first candidate.
func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}
