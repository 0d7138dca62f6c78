package domain

import "fmt"

// Template is a versioned, schema-validated prompt descriptor loaded from
// disk. Only templates that passed validation ever reach this type.
type Template struct {
	ID          string     `json:"id"`
	AngleType   string     `json:"angle_type"`
	Description string     `json:"description"`
	Version     string     `json:"version"`
	Prompt      PromptSpec `json:"prompt"`
	Parameters  Parameters `json:"parameters"`
}

// PromptSpec holds the three prompt segments of a template. The user segment
// carries {placeholder} tokens; system and negative may carry them too.
type PromptSpec struct {
	System   string `json:"system"`
	User     string `json:"user"`
	Negative string `json:"negative"`
}

// Parameters is the generation config attached to a template. Zero values
// mean "unset"; the provider adapter applies its defaults in that case.
type Parameters struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"top_p"`
	TopK            int     `json:"top_k"`
	MaxOutputTokens int     `json:"max_output_tokens"`
	AspectRatio     string  `json:"aspect_ratio,omitempty"`
}

// ResolvedPrompt is a template after variable substitution.
type ResolvedPrompt struct {
	System     string
	User       string
	Negative   string
	Parameters Parameters
}

// ReferenceImage is a binary image input with its declared mime type.
type ReferenceImage struct {
	Data     []byte
	MimeType string
}

// Exchange is one prior turn of a multi-turn generation conversation.
// Role is "user" or "model".
type Exchange struct {
	Role   string
	Text   string
	Images []ReferenceImage
}

// GenerationRequest describes a single provider call. It is constructed
// fresh per call and never shared across concurrent dispatches.
type GenerationRequest struct {
	Prompt     string
	Images     []ReferenceImage
	Parameters Parameters
	// History carries earlier conversation turns for multi-turn flows.
	History []Exchange
	// MaxAttempts overrides the dispatcher's retry budget (clamped to 1-10).
	// Zero means "use the configured default".
	MaxAttempts int
	// TextOnly marks context-establishing turns where no image is expected
	// back; the adapter then returns the model's text instead of failing on
	// a missing image part.
	TextOnly bool
}

// GeneratedImage is the payload extracted from a provider response.
type GeneratedImage struct {
	Data       []byte
	MimeType   string
	Text       string
	TokensUsed int
}

// GenerationResult is the immutable outcome of one dispatched request:
// either a generated image or a classified failure. It is created once and
// never mutated afterwards.
type GenerationResult struct {
	OK       bool             `json:"success"`
	Image    *GeneratedImage  `json:"-"`
	Err      *ClassifiedError `json:"error,omitempty"`
	Attempts int              `json:"attempts"`
}

// NewSuccess builds a success result for the given attempt number.
func NewSuccess(img *GeneratedImage, attempts int) GenerationResult {
	return GenerationResult{OK: true, Image: img, Attempts: attempts}
}

// NewFailure builds a failure result after the given number of attempts.
func NewFailure(err *ClassifiedError, attempts int) GenerationResult {
	return GenerationResult{OK: false, Err: err, Attempts: attempts}
}

// SlotState is the per-slot generation state machine. Terminal states are
// never left once entered.
type SlotState string

const (
	SlotPending    SlotState = "pending"
	SlotGenerating SlotState = "generating"
	SlotSucceeded  SlotState = "succeeded"
	SlotFailed     SlotState = "failed"
)

// SlotResult pairs a logical slot key (angle type or variation index) with
// its terminal generation outcome.
type SlotResult struct {
	Slot   string           `json:"id"`
	State  SlotState        `json:"state"`
	Result GenerationResult `json:"result"`
}

// BatchStats summarizes a fan-out batch. SuccessRate is pre-formatted with
// one decimal, e.g. "66.7%".
type BatchStats struct {
	Total       int    `json:"total"`
	Successful  int    `json:"successful"`
	Failed      int    `json:"failed"`
	SuccessRate string `json:"successRate"`
}

// ComputeBatchStats derives stats from slot counts.
func ComputeBatchStats(total, successful int) BatchStats {
	rate := 0.0
	if total > 0 {
		rate = float64(successful) / float64(total) * 100
	}
	return BatchStats{
		Total:       total,
		Successful:  successful,
		Failed:      total - successful,
		SuccessRate: fmt.Sprintf("%.1f%%", rate),
	}
}

// BatchReport is the aggregate outcome of a fan-out batch. Success reflects
// the policy threshold only; per-slot results are always present.
type BatchReport struct {
	Success bool         `json:"success"`
	Slots   []SlotResult `json:"angles"`
	Stats   BatchStats   `json:"stats"`
}

// PlacementSlot is one environment-placement outcome: the slot index, the
// randomly chosen angle, and the generation result.
type PlacementSlot struct {
	Index       int              `json:"index"`
	Environment string           `json:"environment"`
	Angle       string           `json:"angle"`
	State       SlotState        `json:"state"`
	Result      GenerationResult `json:"result"`
}

// PlacementReport aggregates an environment-placement run. Success means at
// least one slot produced an image.
type PlacementReport struct {
	Success     bool            `json:"success"`
	Environment string          `json:"environment"`
	Slots       []PlacementSlot `json:"results"`
	Stats       BatchStats      `json:"stats"`
}

// SequentialReport is the outcome of a three-turn table-shot flow.
type SequentialReport struct {
	Clean     []SlotResult `json:"cleanResults"`
	Lifestyle []SlotResult `json:"lifestyleResults"`
}

// ProgressEvent is one progress update emitted by an orchestrator.
type ProgressEvent struct {
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Message   string `json:"message"`
}
