package generator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ernissmal/image-generator-app/pkg/domain"
)

// Generation parameters per turn. Clean shots run cooler for consistency
// across variations; lifestyle shots get more creative freedom.
var (
	cleanParameters     = domain.Parameters{Temperature: 0.3, TopP: 0.85, TopK: 30, MaxOutputTokens: 2048}
	lifestyleParameters = domain.Parameters{Temperature: 0.4, TopP: 0.9, TopK: 40, MaxOutputTokens: 2048}
)

// Sequencer runs the three-turn table shot flow: surface reference, clean
// product variations, lifestyle scenes. Turn boundaries are strict: a turn
// starts only after the previous one finished, and each lifestyle slot
// depends on exactly one clean slot.
type Sequencer struct {
	dispatcher Dispatcher
}

// NewSequencer wires the sequential orchestrator.
func NewSequencer(dispatcher Dispatcher) (*Sequencer, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher (Dispatcher) is required")
	}
	return &Sequencer{dispatcher: dispatcher}, nil
}

// TableShotRequest describes one full table shot flow.
type TableShotRequest struct {
	// Surface is the tabletop texture pinned in turn 1.
	Surface domain.ReferenceImage
	// Model optionally attaches the 3D model render to every clean slot.
	Model *domain.ReferenceImage
	// LegStyle and BackgroundStyle override the catalog defaults when set.
	LegStyle        string
	BackgroundStyle string
	// ModelSize selects the dimensional accuracy addendum, e.g. "150x80".
	ModelSize string
	// Categories picks the lifestyle scenes, one per clean variation.
	// Empty means the default four.
	Categories []string
	// Progress, when non-nil, receives one event per completed slot.
	Progress chan<- domain.ProgressEvent
}

// GenerateTableShots runs the full flow. A turn-1 failure aborts everything,
// since no later turn can run without the surface context. From turn 2 on,
// failures are per-slot data: a failed clean slot marks its lifestyle slot
// as skipped with a MISSING_DEPENDENCY error instead of dispatching it.
func (s *Sequencer) GenerateTableShots(ctx context.Context, req TableShotRequest) (*domain.SequentialReport, error) {
	categories := req.Categories
	if len(categories) == 0 {
		categories = DefaultCategories
	}

	total := 1 + 2*cleanVariationCount
	var (
		progressMu sync.Mutex
		completed  int
	)
	progress := func(msg string) {
		progressMu.Lock()
		completed++
		done := completed
		progressMu.Unlock()
		emitProgress(req.Progress, domain.ProgressEvent{Completed: done, Total: total, Message: msg})
	}

	// Turn 1: establish the surface context. Text only, no image expected.
	surfaceReq := domain.GenerationRequest{
		Prompt:   surfaceReferencePrompt,
		Images:   []domain.ReferenceImage{req.Surface},
		TextOnly: true,
	}
	surfaceRes := s.dispatcher.Dispatch(ctx, surfaceReq)
	if !surfaceRes.OK {
		return nil, surfaceRes.Err
	}
	progress("surface reference established")

	baseHistory := []domain.Exchange{
		{Role: "user", Text: surfaceReferencePrompt, Images: []domain.ReferenceImage{req.Surface}},
		{Role: "model", Text: surfaceRes.Image.Text},
	}

	// Turn 2: clean product variations in parallel, all sharing the turn-1
	// context.
	cleanPrompts := make([]string, cleanVariationCount)
	clean := make([]domain.SlotResult, cleanVariationCount)
	var g errgroup.Group
	for i := 0; i < cleanVariationCount; i++ {
		cleanPrompts[i] = buildCleanPrompt(i+1, req.LegStyle, req.BackgroundStyle, req.ModelSize)
		clean[i] = domain.SlotResult{Slot: fmt.Sprintf("clean-%d", i+1), State: domain.SlotGenerating}
		g.Go(func() error {
			genReq := domain.GenerationRequest{
				Prompt:     cleanPrompts[i],
				Parameters: cleanParameters,
				History:    baseHistory,
			}
			if req.Model != nil {
				genReq.Images = []domain.ReferenceImage{*req.Model}
			}
			finishSlot(&clean[i], s.dispatcher.Dispatch(ctx, genReq))
			progress(fmt.Sprintf("%s %s", clean[i].Slot, clean[i].State))
			return nil
		})
	}
	g.Wait()

	// Turn 3: one lifestyle scene per clean variation. Slot i's history is
	// the turn-1 context plus slot i's own clean exchange, so scenes never
	// mix variations.
	lifestyle := make([]domain.SlotResult, cleanVariationCount)
	var g3 errgroup.Group
	for i := 0; i < cleanVariationCount; i++ {
		category := categories[i%len(categories)]
		lifestyle[i] = domain.SlotResult{Slot: category, State: domain.SlotPending}

		if !clean[i].Result.OK {
			lifestyle[i].State = domain.SlotFailed
			lifestyle[i].Result = domain.NewFailure(domain.NewMissingDependency(i, clean[i].Result.Err), 0)
			progress(fmt.Sprintf("%s skipped", category))
			continue
		}

		history := append(append([]domain.Exchange{}, baseHistory...),
			domain.Exchange{Role: "user", Text: cleanPrompts[i]},
			domain.Exchange{Role: "model", Text: clean[i].Result.Image.Text, Images: []domain.ReferenceImage{{
				Data:     clean[i].Result.Image.Data,
				MimeType: clean[i].Result.Image.MimeType,
			}}},
		)
		lifestyle[i].State = domain.SlotGenerating
		g3.Go(func() error {
			finishSlot(&lifestyle[i], s.dispatcher.Dispatch(ctx, domain.GenerationRequest{
				Prompt:     buildLifestylePrompt(category, i+1),
				Parameters: lifestyleParameters,
				History:    history,
			}))
			progress(fmt.Sprintf("%s %s", lifestyle[i].Slot, lifestyle[i].State))
			return nil
		})
	}
	g3.Wait()

	slog.Info("table shot flow finished",
		"clean_ok", countSucceeded(clean), "lifestyle_ok", countSucceeded(lifestyle))

	return &domain.SequentialReport{Clean: clean, Lifestyle: lifestyle}, nil
}

func finishSlot(slot *domain.SlotResult, result domain.GenerationResult) {
	slot.Result = result
	if result.OK {
		slot.State = domain.SlotSucceeded
	} else {
		slot.State = domain.SlotFailed
	}
}

func countSucceeded(slots []domain.SlotResult) int {
	n := 0
	for _, s := range slots {
		if s.State == domain.SlotSucceeded {
			n++
		}
	}
	return n
}
