package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildCleanPrompt(t *testing.T) {
	t.Run("fills variation and styling defaults", func(t *testing.T) {
		p := buildCleanPrompt(2, "", "", "")
		assert.Contains(t, p, "(variation 2)")
		assert.Contains(t, p, defaultLegStyle)
		assert.Contains(t, p, defaultBackgroundStyle)
		assert.Contains(t, p, "front-right")
		assert.NotContains(t, p, "{")
	})

	t.Run("overrides replace the defaults", func(t *testing.T) {
		p := buildCleanPrompt(1, "brushed stainless hairpin", "seamless white studio sweep", "")
		assert.Contains(t, p, "brushed stainless hairpin")
		assert.Contains(t, p, "seamless white studio sweep")
		assert.NotContains(t, p, defaultLegStyle)
	})

	t.Run("known model sizes add the dimensional addendum", func(t *testing.T) {
		p := buildCleanPrompt(1, "", "", "150x80")
		assert.Contains(t, p, "DIMENSIONAL ACCURACY REQUIREMENT")
		assert.Contains(t, p, "1500mm long x 800mm wide x 40mm thick")
		assert.Contains(t, p, "1.88:1")
	})

	t.Run("unknown model sizes add nothing", func(t *testing.T) {
		p := buildCleanPrompt(1, "", "", "999x999")
		assert.NotContains(t, p, "DIMENSIONAL ACCURACY")
	})
}

func TestBuildLifestylePrompt(t *testing.T) {
	t.Run("each category gets its own scene", func(t *testing.T) {
		assert.Contains(t, buildLifestylePrompt("cafe", 1), "Modern Independent Cafe")
		assert.Contains(t, buildLifestylePrompt("office", 1), "Contemporary Home Office")
		assert.Contains(t, buildLifestylePrompt("dining", 1), "Residential Dining Room")
		assert.Contains(t, buildLifestylePrompt("living", 1), "Design-Conscious Living Room")
	})

	t.Run("unknown categories fall back to the cafe scene", func(t *testing.T) {
		assert.Contains(t, buildLifestylePrompt("spaceship", 1), "Modern Independent Cafe")
	})

	t.Run("variation number lands in every occurrence", func(t *testing.T) {
		p := buildLifestylePrompt("cafe", 3)
		assert.Contains(t, p, "(variation 3)")
		assert.Contains(t, p, "Variation 3:")
		assert.NotContains(t, p, "{variationNumber}")
	})
}
