package generator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ernissmal/image-generator-app/pkg/domain"
	"github.com/ernissmal/image-generator-app/pkg/prompt"
)

// DefaultAngleTypes is the full angle set generated when a request does not
// choose its own subset.
var DefaultAngleTypes = []string{
	"0deg", "45deg", "90deg", "135deg", "180deg", "270deg",
	"isometric", "orthographic", "profile",
}

// defaultSuccessThreshold is the minimum slot success ratio for a batch to
// count as an overall success.
const defaultSuccessThreshold = 0.70

// Batch fans one product out to many camera angles in parallel. Slots are
// independent: one slot's failure never cancels or degrades the others.
type Batch struct {
	dispatcher Dispatcher
	store      TemplateSource
	threshold  float64
}

// NewBatch wires the fan-out orchestrator. A zero threshold selects the
// default.
func NewBatch(dispatcher Dispatcher, store TemplateSource, threshold float64) (*Batch, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher (Dispatcher) is required")
	}
	if store == nil {
		return nil, fmt.Errorf("store (TemplateSource) is required")
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("threshold must be within [0, 1], got %v", threshold)
	}
	if threshold == 0 {
		threshold = defaultSuccessThreshold
	}
	return &Batch{dispatcher: dispatcher, store: store, threshold: threshold}, nil
}

// BatchRequest describes one angle fan-out.
type BatchRequest struct {
	// Angles selects the angle types to generate. Empty means all defaults.
	Angles []string
	// Variables fill the template placeholders, e.g. product_name.
	Variables map[string]string
	// Images are reference images attached to every slot's call.
	Images []domain.ReferenceImage
	// Progress, when non-nil, receives one event per completed slot. Events
	// are dropped rather than blocking when the receiver lags.
	Progress chan<- domain.ProgressEvent
}

// GenerateAngles runs every requested angle in parallel and reports per-slot
// outcomes plus aggregate stats. The report's Success flag reflects the
// success-ratio threshold; it never hides individual slot results.
func (b *Batch) GenerateAngles(ctx context.Context, req BatchRequest) domain.BatchReport {
	angles := req.Angles
	if len(angles) == 0 {
		angles = DefaultAngleTypes
	}

	slots := make([]domain.SlotResult, len(angles))
	for i, angle := range angles {
		slots[i] = domain.SlotResult{Slot: angle, State: domain.SlotPending}
	}

	var (
		mu        sync.Mutex
		completed int
	)
	var g errgroup.Group
	for i := range slots {
		g.Go(func() error {
			b.runSlot(ctx, req, &slots[i])

			mu.Lock()
			completed++
			done := completed
			mu.Unlock()
			emitProgress(req.Progress, domain.ProgressEvent{
				Completed: done,
				Total:     len(slots),
				Message:   fmt.Sprintf("%s %s", slots[i].Slot, slots[i].State),
			})
			return nil
		})
	}
	g.Wait()

	successful := 0
	for _, s := range slots {
		if s.State == domain.SlotSucceeded {
			successful++
		}
	}
	stats := domain.ComputeBatchStats(len(slots), successful)
	success := float64(successful)/float64(len(slots)) >= b.threshold

	slog.Info("angle batch finished",
		"total", stats.Total, "successful", stats.Successful,
		"rate", stats.SuccessRate, "success", success)

	return domain.BatchReport{Success: success, Slots: slots, Stats: stats}
}

// runSlot drives one slot from pending to a terminal state. Template lookup
// failures are captured as slot data, exactly like provider failures.
func (b *Batch) runSlot(ctx context.Context, req BatchRequest, slot *domain.SlotResult) {
	tmpl, err := b.store.GetByAngleType(slot.Slot)
	if err != nil {
		slot.State = domain.SlotFailed
		slot.Result = domain.NewFailure(domain.AsClassified(err), 0)
		return
	}

	resolved, _ := prompt.Substitute(tmpl, req.Variables)
	slot.State = domain.SlotGenerating

	result := b.dispatcher.Dispatch(ctx, domain.GenerationRequest{
		Prompt:     prompt.FormatForAPI(resolved),
		Images:     req.Images,
		Parameters: resolved.Parameters,
	})

	slot.Result = result
	if result.OK {
		slot.State = domain.SlotSucceeded
	} else {
		slot.State = domain.SlotFailed
	}
}

func emitProgress(ch chan<- domain.ProgressEvent, ev domain.ProgressEvent) {
	if ch == nil {
		return
	}
	select {
	case ch <- ev:
	default:
	}
}
