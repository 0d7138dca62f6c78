package prompt

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ernissmal/image-generator-app/pkg/domain"
)

// Store loads, validates and indexes prompt templates from a directory.
// Validation is strict: a template failing the schema never enters the
// index, and is never patched up with defaults.
type Store struct {
	schema    *jsonschema.Schema
	templates map[string]domain.Template
	// order preserves load order so that angle-type lookups have a
	// deterministic first-loaded tie-break.
	order []string
}

// NewStore compiles the template schema. A missing or malformed schema is a
// startup-fatal ConfigError.
func NewStore(schemaPath string) (*Store, error) {
	schema, err := jsonschema.Compile(schemaPath)
	if err != nil {
		return nil, &domain.ConfigError{Msg: "template schema not usable at " + schemaPath, Err: err}
	}
	return &Store{
		schema:    schema,
		templates: make(map[string]domain.Template),
	}, nil
}

// LoadAll reads every *.json template in dir, validates each against the
// schema and indexes the valid ones by id. Per-file failures are collected
// and logged, not raised: the load is best-effort. It fails with a
// ConfigError only when the directory is unreadable or nothing loads.
func (s *Store) LoadAll(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return &domain.ConfigError{Msg: "templates directory not found: " + dir, Err: err}
	}

	var problems []string
	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		tmpl, err := s.loadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", entry.Name(), err))
			continue
		}
		if _, dup := s.templates[tmpl.ID]; !dup {
			s.order = append(s.order, tmpl.ID)
		}
		s.templates[tmpl.ID] = tmpl
		loaded++
	}

	if len(problems) > 0 {
		slog.Warn("some templates failed to load", "count", len(problems), "errors", strings.Join(problems, "; "))
	}
	if loaded == 0 {
		return &domain.ConfigError{Msg: fmt.Sprintf("no valid templates in %s (%d rejected)", dir, len(problems))}
	}

	slog.Info("prompt templates loaded", "dir", dir, "loaded", loaded, "rejected", len(problems))
	return nil
}

func (s *Store) loadFile(path string) (domain.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Template{}, err
	}

	// Validate the raw document first so unknown or missing fields reject
	// the file before it is mapped onto the Template type.
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.Template{}, fmt.Errorf("parse: %w", err)
	}
	if err := s.schema.Validate(raw); err != nil {
		return domain.Template{}, &domain.ValidationError{
			Subject:  "template " + filepath.Base(path),
			Problems: []string{err.Error()},
		}
	}

	var tmpl domain.Template
	if err := json.Unmarshal(data, &tmpl); err != nil {
		return domain.Template{}, fmt.Errorf("decode: %w", err)
	}
	return tmpl, nil
}

// GetByID returns the template with the given id.
func (s *Store) GetByID(id string) (domain.Template, error) {
	tmpl, ok := s.templates[id]
	if !ok {
		return domain.Template{}, &domain.NotFoundError{Kind: "id", Key: id}
	}
	return tmpl, nil
}

// GetByAngleType scans templates in load order and returns the first one
// whose angle_type matches. Load order is the documented tie-break when
// several templates share an angle type.
func (s *Store) GetByAngleType(angleType string) (domain.Template, error) {
	for _, id := range s.order {
		if tmpl := s.templates[id]; tmpl.AngleType == angleType {
			return tmpl, nil
		}
	}
	return domain.Template{}, &domain.NotFoundError{Kind: "angle type", Key: angleType}
}

// AngleInfo is the metadata surface of a loaded template.
type AngleInfo struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Version     string `json:"version"`
}

// AvailableAngles lists metadata for every loaded template in load order.
func (s *Store) AvailableAngles() []AngleInfo {
	infos := make([]AngleInfo, 0, len(s.order))
	for _, id := range s.order {
		tmpl := s.templates[id]
		infos = append(infos, AngleInfo{
			ID:          tmpl.ID,
			Type:        tmpl.AngleType,
			Description: tmpl.Description,
			Version:     tmpl.Version,
		})
	}
	return infos
}

// StoreStats summarizes the loaded template set.
type StoreStats struct {
	Total      int      `json:"total"`
	AngleTypes []string `json:"angleTypes"`
	Versions   []string `json:"versions"`
}

// Stats reports distinct angle types and versions across loaded templates.
func (s *Store) Stats() StoreStats {
	stats := StoreStats{Total: len(s.templates)}
	seenType := make(map[string]bool)
	seenVersion := make(map[string]bool)
	for _, id := range s.order {
		tmpl := s.templates[id]
		if !seenType[tmpl.AngleType] {
			seenType[tmpl.AngleType] = true
			stats.AngleTypes = append(stats.AngleTypes, tmpl.AngleType)
		}
		if !seenVersion[tmpl.Version] {
			seenVersion[tmpl.Version] = true
			stats.Versions = append(stats.Versions, tmpl.Version)
		}
	}
	return stats
}
