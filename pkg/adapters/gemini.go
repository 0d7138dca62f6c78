package adapters

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/ernissmal/image-generator-app/pkg/domain"
)

// costPerToken is the per-token price used for usage logging only. It is
// never returned to callers.
const costPerToken = 0.00001

// maxReferenceImages caps the inline images attached to a single turn.
const maxReferenceImages = 2

// Default generation parameters applied when a template leaves them unset.
const (
	defaultTemperature     = 0.4
	defaultTopP            = 0.8
	defaultTopK            = 40
	defaultMaxOutputTokens = 2048
)

// GenerativeClient is the slice of the Gemini SDK this adapter depends on.
type GenerativeClient interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// googleClient adapts *genai.Client onto GenerativeClient.
type googleClient struct {
	client *genai.Client
}

func (g *googleClient) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return g.client.Models.GenerateContent(ctx, model, contents, config)
}

// Gemini converts GenerationRequests into Gemini API calls and normalizes
// every outcome: responses into GeneratedImage, failures into ClassifiedError.
type Gemini struct {
	client GenerativeClient
	model  string
}

// NewClient builds the adapter on a real Gemini API client.
func NewClient(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, &domain.ConfigError{Msg: "GEMINI_API_KEY is required"}
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client init: %w", err)
	}
	return NewClientWith(&googleClient{client: client}, model)
}

// NewClientWith builds the adapter on any GenerativeClient implementation.
func NewClientWith(client GenerativeClient, model string) (*Gemini, error) {
	if client == nil {
		return nil, fmt.Errorf("client (GenerativeClient) is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	return &Gemini{client: client, model: model}, nil
}

// Generate performs one provider call. On success it returns the extracted
// image (or, for TextOnly requests, the model's text reply). Every failure
// path returns a *domain.ClassifiedError.
func (g *Gemini) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GeneratedImage, error) {
	// Guard errors are classified here directly; text matching is only for
	// failures coming back from the provider.
	if len(req.Images) > maxReferenceImages {
		return nil, &domain.ClassifiedError{
			Kind:        domain.KindUnknown,
			Retryable:   false,
			UserMessage: fmt.Sprintf("At most %d reference images are supported per request.", maxReferenceImages),
			Err: &domain.ValidationError{
				Subject:  "generation request",
				Problems: []string{fmt.Sprintf("%d reference images exceeds the limit of %d", len(req.Images), maxReferenceImages)},
			},
		}
	}

	contents := buildContents(req)
	config := buildConfig(req.Parameters)

	resp, err := g.client.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, Classify(err)
	}

	g.trackUsage(resp)

	if err := checkBlocked(resp); err != nil {
		return nil, Classify(err)
	}

	if req.TextOnly {
		text := collectText(resp)
		if text == "" {
			return nil, Classify(fmt.Errorf("empty text response from model %s", g.model))
		}
		return &domain.GeneratedImage{Text: text, TokensUsed: totalTokens(resp)}, nil
	}

	img, err := extractImage(resp)
	if err != nil {
		return nil, Classify(err)
	}
	img.Text = collectText(resp)
	img.TokensUsed = totalTokens(resp)
	return img, nil
}

// HealthCheck reports the adapter's readiness without calling the API.
func (g *Gemini) HealthCheck() map[string]string {
	return map[string]string{
		"status": "ok",
		"model":  g.model,
	}
}

// buildContents lays out prior exchanges followed by the current user turn.
// Within each turn the text part comes first, then inline image parts.
func buildContents(req domain.GenerationRequest) []*genai.Content {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, ex := range req.History {
		contents = append(contents, exchangeContent(ex))
	}
	current := &genai.Content{Role: genai.RoleUser}
	current.Parts = append(current.Parts, &genai.Part{Text: req.Prompt})
	for _, img := range req.Images {
		current.Parts = append(current.Parts, inlinePart(img))
	}
	return append(contents, current)
}

func exchangeContent(ex domain.Exchange) *genai.Content {
	content := &genai.Content{Role: ex.Role}
	if ex.Text != "" {
		content.Parts = append(content.Parts, &genai.Part{Text: ex.Text})
	}
	for _, img := range ex.Images {
		content.Parts = append(content.Parts, inlinePart(img))
	}
	return content
}

func inlinePart(img domain.ReferenceImage) *genai.Part {
	return &genai.Part{InlineData: &genai.Blob{
		MIMEType: img.MimeType,
		Data:     img.Data,
	}}
}

func buildConfig(p domain.Parameters) *genai.GenerateContentConfig {
	if p.Temperature == 0 {
		p.Temperature = defaultTemperature
	}
	if p.TopP == 0 {
		p.TopP = defaultTopP
	}
	if p.TopK == 0 {
		p.TopK = defaultTopK
	}
	if p.MaxOutputTokens == 0 {
		p.MaxOutputTokens = defaultMaxOutputTokens
	}

	config := &genai.GenerateContentConfig{
		Temperature:        genai.Ptr(float32(p.Temperature)),
		TopP:               genai.Ptr(float32(p.TopP)),
		TopK:               genai.Ptr(float32(p.TopK)),
		MaxOutputTokens:    int32(p.MaxOutputTokens),
		ResponseModalities: []string{"IMAGE", "TEXT"},
	}
	if p.AspectRatio != "" {
		config.ImageConfig = &genai.ImageConfig{AspectRatio: p.AspectRatio}
	}
	return config
}

func totalTokens(resp *genai.GenerateContentResponse) int {
	if resp == nil || resp.UsageMetadata == nil {
		return 0
	}
	return int(resp.UsageMetadata.TotalTokenCount)
}

func (g *Gemini) trackUsage(resp *genai.GenerateContentResponse) {
	tokens := totalTokens(resp)
	if tokens == 0 {
		return
	}
	slog.Info("gemini usage",
		"model", g.model,
		"tokens", tokens,
		"estimated_cost_usd", float64(tokens)*costPerToken,
	)
}
