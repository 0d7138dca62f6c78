package httpserver

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ernissmal/image-generator-app/pkg/domain"
	"github.com/ernissmal/image-generator-app/pkg/generator"
)

var (
	fileIDPattern      = regexp.MustCompile(`^product-[a-f0-9-]{36}\.(png|jpg|jpeg)$`)
	productNamePattern = regexp.MustCompile(`^[\w .,'()-]{1,100}$`)
)

func (s *Server) handleHealth(c *gin.Context) {
	stats := s.catalog.Stats()
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"templates": gin.H{
			"total":      stats.Total,
			"angleTypes": stats.AngleTypes,
			"versions":   stats.Versions,
		},
		"gemini": s.health.HealthCheck(),
	})
}

func (s *Server) handleAngles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"angles": s.catalog.AvailableAngles()})
}

func (s *Server) handleUpload(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only png and jpeg uploads are accepted"})
		return
	}

	fileID := fmt.Sprintf("product-%s%s", uuid.NewString(), ext)
	dest := filepath.Join(s.uploadDir, fileID)
	if err := c.SaveUploadedFile(file, dest); err != nil {
		slog.Error("upload save failed", "dest", dest, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store the upload"})
		return
	}

	slog.Info("product image uploaded", "fileId", fileID, "size", file.Size)
	c.JSON(http.StatusOK, gin.H{"success": true, "fileId": fileID})
}

type generateAnglesRequest struct {
	FileID      string            `json:"fileId" binding:"required"`
	ProductName string            `json:"productName" binding:"required"`
	Angles      []string          `json:"angles"`
	Variables   map[string]string `json:"variables"`
}

func (s *Server) handleGenerateAngles(c *gin.Context) {
	var req generateAnglesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fileId and productName are required"})
		return
	}
	if !fileIDPattern.MatchString(req.FileID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fileId is not a valid upload reference"})
		return
	}
	if !productNamePattern.MatchString(req.ProductName) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "productName must be 1-100 characters of letters, digits and basic punctuation"})
		return
	}

	image, err := s.loader.Load(c.Request.Context(), filepath.Join(s.uploadDir, req.FileID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "uploaded image not found"})
		return
	}

	variables := map[string]string{"product_name": req.ProductName}
	for k, v := range req.Variables {
		variables[k] = v
	}

	report := s.angles.GenerateAngles(c.Request.Context(), generator.BatchRequest{
		Angles:    req.Angles,
		Variables: variables,
		Images:    []domain.ReferenceImage{image},
	})

	// Partial failure is a normal outcome here: the report carries it slot
	// by slot and the response stays 200.
	c.JSON(http.StatusOK, gin.H{
		"success": report.Success,
		"angles":  s.slotViews(report.Slots, req.FileID),
		"stats":   report.Stats,
	})
}

type tableTopperRequest struct {
	SurfaceFileID   string   `json:"surfaceFileId" binding:"required"`
	ModelFileID     string   `json:"modelFileId"`
	LegStyle        string   `json:"legStyle"`
	BackgroundStyle string   `json:"backgroundStyle"`
	ModelSize       string   `json:"modelSize"`
	Categories      []string `json:"categories"`
}

func (s *Server) handleTableTopper(c *gin.Context) {
	var req tableTopperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "surfaceFileId is required"})
		return
	}
	if !fileIDPattern.MatchString(req.SurfaceFileID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "surfaceFileId is not a valid upload reference"})
		return
	}

	surface, err := s.loader.Load(c.Request.Context(), filepath.Join(s.uploadDir, req.SurfaceFileID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "surface image not found"})
		return
	}

	shotReq := generator.TableShotRequest{
		Surface:         surface,
		LegStyle:        req.LegStyle,
		BackgroundStyle: req.BackgroundStyle,
		ModelSize:       req.ModelSize,
		Categories:      req.Categories,
	}
	if req.ModelFileID != "" {
		if !fileIDPattern.MatchString(req.ModelFileID) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "modelFileId is not a valid upload reference"})
			return
		}
		model, err := s.loader.Load(c.Request.Context(), filepath.Join(s.uploadDir, req.ModelFileID))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "model image not found"})
			return
		}
		shotReq.Model = &model
	}

	report, err := s.tableShot.GenerateTableShots(c.Request.Context(), shotReq)
	if err != nil {
		ce := domain.AsClassified(err)
		c.JSON(statusForKind(ce.Kind), gin.H{
			"success": false,
			"error":   ce,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"cleanResults":     s.slotViews(report.Clean, req.SurfaceFileID),
		"lifestyleResults": s.slotViews(report.Lifestyle, req.SurfaceFileID),
	})
}

type tableEnvironmentRequest struct {
	TableFileID string `json:"tableFileId" binding:"required"`
	Environment string `json:"environment"`
	Count       int    `json:"count"`
}

func (s *Server) handleTableEnvironment(c *gin.Context) {
	var req tableEnvironmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tableFileId is required"})
		return
	}
	if !fileIDPattern.MatchString(req.TableFileID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tableFileId is not a valid upload reference"})
		return
	}
	if req.Count < 0 || req.Count > maxPlacementCount {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("count must be between 1 and %d", maxPlacementCount)})
		return
	}

	table, err := s.loader.Load(c.Request.Context(), filepath.Join(s.uploadDir, req.TableFileID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "table image not found"})
		return
	}

	report := s.environments.GeneratePlacements(c.Request.Context(), generator.PlacementRequest{
		Environment: req.Environment,
		Count:       req.Count,
		Images:      []domain.ReferenceImage{table},
	})

	// Like angle batches, partial failure stays 200 with per-slot detail.
	c.JSON(http.StatusOK, gin.H{
		"success":     report.Success,
		"environment": report.Environment,
		"results":     s.placementViews(report, req.TableFileID),
		"stats":       report.Stats,
	})
}

func (s *Server) handleReferenceProducts(c *gin.Context) {
	products, err := s.listReferenceProducts()
	if err != nil {
		slog.Error("could not list reference products", "dir", s.referencesDir, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list reference products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"products": products,
		"count":    len(products),
	})
}

// slotView is the wire shape of one slot: the in-memory image is replaced by
// a URL under /generated.
type slotView struct {
	Slot     string                  `json:"id"`
	State    domain.SlotState        `json:"state"`
	Result   domain.GenerationResult `json:"result"`
	ImageURL string                  `json:"imageUrl,omitempty"`
}

// slotViews persists each succeeded slot's image and swaps it for a URL.
// Persistence failures downgrade the slot view to have no URL; they never
// fail the request.
func (s *Server) slotViews(slots []domain.SlotResult, base string) []slotView {
	views := make([]slotView, len(slots))
	for i, slot := range slots {
		views[i] = slotView{Slot: slot.Slot, State: slot.State, Result: slot.Result}
		if slot.Result.OK && slot.Result.Image != nil {
			url, err := s.persistImage(base, slot.Slot, slot.Result.Image)
			if err != nil {
				slog.Error("could not persist generated image", "slot", slot.Slot, "error", err)
				continue
			}
			views[i].ImageURL = url
		}
	}
	return views
}

func (s *Server) persistImage(base, slot string, img *domain.GeneratedImage) (string, error) {
	name := fmt.Sprintf("%s-%s%s", strings.TrimSuffix(base, filepath.Ext(base)), slot, extForMime(img.MimeType))
	if err := os.WriteFile(filepath.Join(s.generatedDir, name), img.Data, 0o644); err != nil {
		return "", err
	}
	return "/generated/" + name, nil
}

func extForMime(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

// maxPlacementCount bounds how many placements one request may ask for.
const maxPlacementCount = 20

// placementView is the wire shape of one placement slot.
type placementView struct {
	Index       int                     `json:"index"`
	Environment string                  `json:"environment"`
	Angle       string                  `json:"angle"`
	State       domain.SlotState        `json:"state"`
	Result      domain.GenerationResult `json:"result"`
	ImageURL    string                  `json:"imageUrl,omitempty"`
}

func (s *Server) placementViews(report domain.PlacementReport, base string) []placementView {
	views := make([]placementView, len(report.Slots))
	for i, slot := range report.Slots {
		views[i] = placementView{
			Index:       slot.Index,
			Environment: slot.Environment,
			Angle:       slot.Angle,
			State:       slot.State,
			Result:      slot.Result,
		}
		if slot.Result.OK && slot.Result.Image != nil {
			key := fmt.Sprintf("%s-%d", slot.Environment, slot.Index+1)
			url, err := s.persistImage(base, key, slot.Result.Image)
			if err != nil {
				slog.Error("could not persist placement image", "slot", key, "error", err)
				continue
			}
			views[i].ImageURL = url
		}
	}
	return views
}

// referenceProduct describes one image in the reference products directory.
type referenceProduct struct {
	Filename      string    `json:"filename"`
	Name          string    `json:"name"`
	Path          string    `json:"path"`
	Size          int64     `json:"size"`
	SizeFormatted string    `json:"sizeFormatted"`
	Modified      time.Time `json:"modified"`
	Extension     string    `json:"extension"`
}

var referenceImageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
}

// listReferenceProducts lists the reference images newest first. A missing
// directory is an empty catalog, not an error.
func (s *Server) listReferenceProducts() ([]referenceProduct, error) {
	entries, err := os.ReadDir(s.referencesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []referenceProduct{}, nil
		}
		return nil, err
	}

	products := make([]referenceProduct, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !referenceImageExts[ext] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		products = append(products, referenceProduct{
			Filename:      entry.Name(),
			Name:          strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())),
			Path:          "/references/products/" + entry.Name(),
			Size:          info.Size(),
			SizeFormatted: formatFileSize(info.Size()),
			Modified:      info.ModTime(),
			Extension:     strings.ToUpper(strings.TrimPrefix(ext, ".")),
		})
	}

	slices.SortFunc(products, func(a, b referenceProduct) int {
		return b.Modified.Compare(a.Modified)
	})
	return products, nil
}

// formatFileSize renders a byte count as Bytes/KB/MB/GB rounded to two
// decimals, with trailing zeros dropped.
func formatFileSize(bytes int64) string {
	if bytes == 0 {
		return "0 Bytes"
	}
	units := []string{"Bytes", "KB", "MB", "GB"}
	size := float64(bytes)
	unit := 0
	for size >= 1024 && unit < len(units)-1 {
		size /= 1024
		unit++
	}
	rounded := math.Round(size*100) / 100
	return strconv.FormatFloat(rounded, 'f', -1, 64) + " " + units[unit]
}

func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindRateLimit:
		return http.StatusTooManyRequests
	case domain.KindSafetyBlocked:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}
