package httpserver

import (
	"context"
	"errors"

	"github.com/ernissmal/image-generator-app/pkg/domain"
	"github.com/ernissmal/image-generator-app/pkg/generator"
	"github.com/ernissmal/image-generator-app/pkg/prompt"
)

type mockAngles struct {
	lastReq generator.BatchRequest
	report  domain.BatchReport
}

func (m *mockAngles) GenerateAngles(_ context.Context, req generator.BatchRequest) domain.BatchReport {
	m.lastReq = req
	return m.report
}

type mockTableShot struct {
	lastReq generator.TableShotRequest
	report  *domain.SequentialReport
	err     error
}

func (m *mockTableShot) GenerateTableShots(_ context.Context, req generator.TableShotRequest) (*domain.SequentialReport, error) {
	m.lastReq = req
	return m.report, m.err
}

type mockEnvironments struct {
	lastReq generator.PlacementRequest
	report  domain.PlacementReport
}

func (m *mockEnvironments) GeneratePlacements(_ context.Context, req generator.PlacementRequest) domain.PlacementReport {
	m.lastReq = req
	return m.report
}

type mockLoader struct {
	images map[string]domain.ReferenceImage
}

func (m *mockLoader) Load(_ context.Context, ref string) (domain.ReferenceImage, error) {
	img, ok := m.images[ref]
	if !ok {
		return domain.ReferenceImage{}, errors.New("no such image")
	}
	return img, nil
}

type mockCatalog struct{}

func (m *mockCatalog) AvailableAngles() []prompt.AngleInfo {
	return []prompt.AngleInfo{{ID: "45deg", Type: "45deg", Description: "forty-five", Version: "1.2.0"}}
}

func (m *mockCatalog) Stats() prompt.StoreStats {
	return prompt.StoreStats{Total: 9, AngleTypes: []string{"45deg"}, Versions: []string{"1.2.0"}}
}

type mockHealth struct{}

func (m *mockHealth) HealthCheck() map[string]string {
	return map[string]string{"status": "ok", "model": "gemini-2.5-flash-image-preview"}
}

func succeededSlot(id string) domain.SlotResult {
	return domain.SlotResult{
		Slot:  id,
		State: domain.SlotSucceeded,
		Result: domain.NewSuccess(&domain.GeneratedImage{
			Data:     []byte{0x89, 0x50},
			MimeType: "image/png",
		}, 1),
	}
}

func failedSlot(id string, kind domain.ErrorKind) domain.SlotResult {
	return domain.SlotResult{
		Slot:   id,
		State:  domain.SlotFailed,
		Result: domain.NewFailure(&domain.ClassifiedError{Kind: kind, Err: errors.New("scripted failure")}, 3),
	}
}

func placementSlot(index int, environment, angle string, ok bool) domain.PlacementSlot {
	slot := domain.PlacementSlot{Index: index, Environment: environment, Angle: angle}
	if ok {
		slot.State = domain.SlotSucceeded
		slot.Result = domain.NewSuccess(&domain.GeneratedImage{
			Data:     []byte{0x89, 0x50},
			MimeType: "image/png",
		}, 1)
	} else {
		slot.State = domain.SlotFailed
		slot.Result = domain.NewFailure(&domain.ClassifiedError{Kind: domain.KindNetwork, Err: errors.New("scripted failure")}, 3)
	}
	return slot
}
