package generator

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/ernissmal/image-generator-app/pkg/domain"
	"github.com/ernissmal/image-generator-app/pkg/prompt"
)

// DefaultEnvironment is used when a request names no environment or an
// unknown one.
const DefaultEnvironment = "modern"

// defaultPlacementCount is how many placements one run produces when the
// request does not say.
const defaultPlacementCount = 6

// placementTemperature overrides the template temperature for environment
// placements, which benefit from a little more variation.
const placementTemperature = 0.5

// environmentScenes describes each supported interior. The scene text leads
// the prompt, before the angle instructions.
var environmentScenes = map[string]string{
	"modern":  "Place this table in a modern, contemporary interior with sleek furniture, clean lines, large windows with natural light, neutral colors (whites, grays, blacks), and minimalist decor.",
	"rustic":  "Place this table in a rustic countryside setting with natural wood elements, warm earthy tones, stone or brick walls, vintage furniture, cozy lighting, and charming decorative details.",
	"london":  "Place this table in a British-style interior with elegant architecture, classic furniture, sophisticated color palette, traditional moldings, perhaps near large windows showing London architecture, refined and timeless atmosphere.",
	"urban":   "Place this table in an urban loft or industrial space with exposed brick, metal fixtures, concrete floors, large factory-style windows, modern art, and dynamic city energy.",
	"nature":  "Place this table in a natural outdoor or garden setting with greenery, natural lighting, wooden deck or patio, surrounded by plants, open air feeling, serene and peaceful atmosphere.",
}

// placementTrailer closes every placement prompt.
const placementTrailer = "Ensure the table looks natural and well-integrated into the scene, not like a separate overlay. The lighting and shadows should match the environment."

// Environments places a table into interior scenes, one generation per slot,
// each from a randomly chosen camera angle. Slots run sequentially; one
// failure never stops the rest.
type Environments struct {
	dispatcher Dispatcher
	store      TemplateSource
	// pick returns a random index in [0, n). Swappable for deterministic tests.
	pick func(n int) int
}

// NewEnvironments wires the environment-placement orchestrator.
func NewEnvironments(dispatcher Dispatcher, store TemplateSource) (*Environments, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher (Dispatcher) is required")
	}
	if store == nil {
		return nil, fmt.Errorf("store (TemplateSource) is required")
	}
	return &Environments{dispatcher: dispatcher, store: store, pick: rand.IntN}, nil
}

// EnvironmentNames lists the supported environments.
func EnvironmentNames() []string {
	names := make([]string, 0, len(environmentScenes))
	for name := range environmentScenes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// PlacementRequest describes one environment-placement run.
type PlacementRequest struct {
	// Environment selects the scene. Unknown or empty falls back to modern.
	Environment string
	// Count is how many placements to generate. Zero means the default.
	Count int
	// Variables fill the template placeholders, e.g. product_name.
	Variables map[string]string
	// Images are reference images attached to every slot's call.
	Images []domain.ReferenceImage
}

// GeneratePlacements runs the requested number of placements and reports each
// slot's outcome. The report's Success flag means at least one slot produced
// an image.
func (e *Environments) GeneratePlacements(ctx context.Context, req PlacementRequest) domain.PlacementReport {
	environment := req.Environment
	if _, ok := environmentScenes[environment]; !ok {
		environment = DefaultEnvironment
	}
	count := req.Count
	if count <= 0 {
		count = defaultPlacementCount
	}

	variables := map[string]string{"product_name": "Table"}
	for k, v := range req.Variables {
		variables[k] = v
	}

	angles := e.chooseAngles(count)
	slots := make([]domain.PlacementSlot, count)
	for i := 0; i < count; i++ {
		slots[i] = domain.PlacementSlot{
			Index:       i,
			Environment: environment,
			Angle:       angles[i],
			State:       domain.SlotPending,
		}
		e.runSlot(ctx, req, variables, &slots[i])
	}

	successful := 0
	for _, s := range slots {
		if s.State == domain.SlotSucceeded {
			successful++
		}
	}
	stats := domain.ComputeBatchStats(count, successful)

	slog.Info("environment placement finished",
		"environment", environment, "total", stats.Total,
		"successful", stats.Successful, "rate", stats.SuccessRate)

	return domain.PlacementReport{
		Success:     successful > 0,
		Environment: environment,
		Slots:       slots,
		Stats:       stats,
	}
}

// chooseAngles draws count random angles, avoiding repeats until the angle
// set is exhausted.
func (e *Environments) chooseAngles(count int) []string {
	used := make(map[string]bool, len(DefaultAngleTypes))
	angles := make([]string, count)
	for i := range angles {
		angle := DefaultAngleTypes[e.pick(len(DefaultAngleTypes))]
		for attempts := 0; used[angle] && len(used) < len(DefaultAngleTypes) && attempts < 20; attempts++ {
			angle = DefaultAngleTypes[e.pick(len(DefaultAngleTypes))]
		}
		used[angle] = true
		angles[i] = angle
	}
	return angles
}

func (e *Environments) runSlot(ctx context.Context, req PlacementRequest, variables map[string]string, slot *domain.PlacementSlot) {
	tmpl, err := e.store.GetByAngleType(slot.Angle)
	if err != nil {
		slot.State = domain.SlotFailed
		slot.Result = domain.NewFailure(domain.AsClassified(err), 0)
		return
	}

	resolved, _ := prompt.Substitute(tmpl, variables)
	params := resolved.Parameters
	params.Temperature = placementTemperature

	slot.State = domain.SlotGenerating
	result := e.dispatcher.Dispatch(ctx, domain.GenerationRequest{
		Prompt:     placementPrompt(slot.Environment, resolved.User),
		Images:     req.Images,
		Parameters: params,
	})

	slot.Result = result
	if result.OK {
		slot.State = domain.SlotSucceeded
	} else {
		slot.State = domain.SlotFailed
	}
}

// placementPrompt layers the scene description, the angle instructions, and
// the integration trailer.
func placementPrompt(environment, anglePrompt string) string {
	return strings.Join([]string{environmentScenes[environment], anglePrompt, placementTrailer}, "\n\n")
}
