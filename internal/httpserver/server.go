package httpserver

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/ernissmal/image-generator-app/pkg/domain"
	"github.com/ernissmal/image-generator-app/pkg/generator"
	"github.com/ernissmal/image-generator-app/pkg/prompt"
)

// AngleGenerator fans one product out to many camera angles.
type AngleGenerator interface {
	GenerateAngles(ctx context.Context, req generator.BatchRequest) domain.BatchReport
}

// TableShotGenerator runs the three-turn table shot flow.
type TableShotGenerator interface {
	GenerateTableShots(ctx context.Context, req generator.TableShotRequest) (*domain.SequentialReport, error)
}

// EnvironmentGenerator places a table into interior scenes from random
// angles.
type EnvironmentGenerator interface {
	GeneratePlacements(ctx context.Context, req generator.PlacementRequest) domain.PlacementReport
}

// ImageLoader resolves file references into inline-ready images.
type ImageLoader interface {
	Load(ctx context.Context, ref string) (domain.ReferenceImage, error)
}

// TemplateCatalog exposes the loaded template set for health and discovery
// endpoints.
type TemplateCatalog interface {
	AvailableAngles() []prompt.AngleInfo
	Stats() prompt.StoreStats
}

// HealthChecker reports provider adapter readiness.
type HealthChecker interface {
	HealthCheck() map[string]string
}

// Server is the HTTP surface over the generation orchestrators.
type Server struct {
	angles       AngleGenerator
	tableShot    TableShotGenerator
	environments EnvironmentGenerator
	loader       ImageLoader
	catalog      TemplateCatalog
	health       HealthChecker

	uploadDir     string
	generatedDir  string
	referencesDir string
}

// NewServer wires the HTTP layer.
func NewServer(
	angles AngleGenerator,
	tableShot TableShotGenerator,
	environments EnvironmentGenerator,
	loader ImageLoader,
	catalog TemplateCatalog,
	health HealthChecker,
	uploadDir, generatedDir, referencesDir string,
) (*Server, error) {
	if angles == nil {
		return nil, fmt.Errorf("angles (AngleGenerator) is required")
	}
	if tableShot == nil {
		return nil, fmt.Errorf("tableShot (TableShotGenerator) is required")
	}
	if environments == nil {
		return nil, fmt.Errorf("environments (EnvironmentGenerator) is required")
	}
	if loader == nil {
		return nil, fmt.Errorf("loader (ImageLoader) is required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog (TemplateCatalog) is required")
	}
	if health == nil {
		return nil, fmt.Errorf("health (HealthChecker) is required")
	}
	if uploadDir == "" || generatedDir == "" || referencesDir == "" {
		return nil, fmt.Errorf("uploadDir, generatedDir and referencesDir are required")
	}
	return &Server{
		angles:        angles,
		tableShot:     tableShot,
		environments:  environments,
		loader:        loader,
		catalog:       catalog,
		health:        health,
		uploadDir:     uploadDir,
		generatedDir:  generatedDir,
		referencesDir: referencesDir,
	}, nil
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.GET("/angles", s.handleAngles)
		api.POST("/upload", s.handleUpload)
		api.POST("/generate-angles", s.handleGenerateAngles)
		api.POST("/table-topper/generate", s.handleTableTopper)
		api.POST("/table-environment/generate", s.handleTableEnvironment)
		api.GET("/reference-products", s.handleReferenceProducts)
	}
	router.Static("/generated", s.generatedDir)
	router.Static("/references/products", s.referencesDir)

	return router
}
