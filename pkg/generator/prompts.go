package generator

import (
	"fmt"
	"strconv"
	"strings"
)

// Prompt catalog for the three-turn table shot flow. Turn 1 pins the surface
// reference, turn 2 produces clean product shots, turn 3 places a clean shot
// into a lifestyle scene.

const surfaceReferencePrompt = `This is the tabletop surface I want to use in future image modifications. Please remember this surface for the next prompts.`

// Default styling applied when the request leaves these unset.
const (
	defaultLegStyle        = "black powder-coated X-cross style"
	defaultBackgroundStyle = "smooth linear gradient transitioning from dark gray (#2a2a2a) at top to light gray (#e0e0e0) at bottom"
)

// DefaultCategories are the lifestyle scenes generated when the request does
// not choose its own. Order matters: slot i pairs category i with clean
// variation i.
var DefaultCategories = []string{"cafe", "office", "dining", "living"}

// cleanVariationCount is how many clean product shots one flow produces.
const cleanVariationCount = 4

var cleanVariationSettings = map[int]struct {
	camera   string
	lighting string
}{
	1: {"Three-quarter view from front-left, 10 degree elevation", "Key light from camera-left 45 degrees"},
	2: {"Three-quarter view from front-right, 10 degree elevation", "Key light from camera-right 45 degrees"},
	3: {"Direct front view, 5 degree elevation, slightly wider framing", "Even front lighting, minimal directional shadows"},
	4: {"Three-quarter view from front-left, 15 degree elevation", "Slightly elevated key light from camera-left creating more depth"},
}

const cleanBasePrompt = `Transform the 3D table model into a photorealistic product photograph (variation {variationNumber}).

CRITICAL - Surface Mapping:
Replace ONLY the red tabletop surface with the wood texture I provided earlier. Preserve the exact rectangular dimensions of the original 3D model, map the wood grain to flow naturally along the table's length, keep the surface thickness precisely as shown, and include two or three subtle natural imperfections for authenticity.

Leg Treatment:
Replace the green legs with photorealistic {legStyle} steel legs. Maintain the exact X-cross geometry, apply black powder coat finish with subtle satin sheen (10-15% specular reflection), and preserve leg angles, positions, and mounting points exactly as in the 3D model.

Background & Lighting:
Background: {backgroundStyle}, creating professional depth without distraction. Three-point softbox lighting at 5500K with soft shadows beneath the table and even illumination revealing wood grain depth.

Camera:
{cameraSetting}. {lightingSetting}. Camera distance two to three times the table's longest dimension, 50-70mm lens equivalent, sharp focus across the entire table.

Quality Requirements:
Photorealistic material rendering, high resolution, artifact-free, commercial-grade quality suitable for e-commerce product listings. Neutral white balance with true-to-life material colors.{modelDimensions}`

var lifestyleScenes = map[string]string{
	"cafe": `Scene Context - Modern Independent Cafe:
Corner table near large windows, mid-morning warm light, industrial-chic interior with exposed brick. Props on table (three to five items on at most a quarter of the surface): ceramic coffee cup with latte art, pastry on a small plate slightly eaten, folded magazine, smartphone face-down, reading glasses casually placed. Natural window light from camera left at 4800-5200K, blurred cafe interior behind. The scene tells a story of a creative professional taking a morning coffee break.`,
	"office": `Scene Context - Contemporary Home Office:
Desk near a window with neutral afternoon daylight, minimalist Scandinavian interior. Props on table (three to five items on at most a third of the surface): open notebook with handwritten notes, fountain pen resting on it, ceramic mug in a muted tone, small succulent in a modern pot. Directional window light at 5500-6000K, bookshelf and blurred office chair behind. The scene tells a story of a focused professional during a productive afternoon.`,
	"dining": `Scene Context - Elegant Residential Dining Room:
Dining area in warm early-evening light, refined but livable European-inspired interior. Props on table (four to six items on at most a third of the surface): simple place setting with cream ceramic plates, casually placed linen napkin, wine glass partially full, small vase with a few fresh stems, artisan bread on a wooden board. Warm ambient lighting at 3800-4500K, elegant chairs softly blurred behind. The scene suggests preparing for a relaxed dinner with friends.`,
	"living": `Scene Context - Design-Conscious Living Room:
Open-plan living space on a leisurely weekend morning, Scandinavian-inspired cozy minimalism. Props on table (three to five items on at most a quarter of the surface): a slightly askew stack of design magazines, Nordic-style ceramic mug, small bowl with fruit, reading glasses on the magazines. Abundant natural window light at 5000-5500K, sofa and houseplants heavily blurred behind. The scene tells a story of a cozy weekend morning with coffee and magazines.`,
}

const lifestyleBasePrompt = `Transform this product photograph into an authentic lifestyle scene (variation {variationNumber}).

CRITICAL - Product Integrity:
The table remains the HERO of the image. It must maintain its exact photorealistic appearance from the clean product shot, stay in sharp focus while the background softens to 60-70% blur, occupy 40-50% of the frame, and be clearly identifiable as the primary subject.

{sceneContext}

Styling Philosophy - "Organized Authenticity":
Create a lived-in feeling, not staged perfection. Props show use, arrangement follows the rule of thirds with natural asymmetry, and nothing obscures the table's corners or distinctive wood grain.

E-Commerce Optimization:
The table clearly showcases its size, wood grain, leg design, and construction. Professional quality suitable for product listings and marketing materials, aspirational yet attainable.

Variation {variationNumber}:
Vary prop arrangement by 5-10 degrees and adjust the camera angle slightly while maintaining the same scene category, quality standards, and product focus.`

// tableDimensions maps a model size code to its physical measurements in mm.
var tableDimensions = map[string]struct {
	length, width, thickness int
}{
	"150x80":  {1500, 800, 40},
	"200x80":  {2000, 800, 40},
	"240x110": {2400, 1100, 50},
	"600":     {600, 600, 40},
	"800":     {800, 800, 40},
}

// buildCleanPrompt assembles the turn-2 prompt for one clean variation.
// Unknown variation numbers fall back to variation 1's camera settings.
func buildCleanPrompt(variation int, legStyle, backgroundStyle, modelSize string) string {
	if legStyle == "" {
		legStyle = defaultLegStyle
	}
	if backgroundStyle == "" {
		backgroundStyle = defaultBackgroundStyle
	}
	settings, ok := cleanVariationSettings[variation]
	if !ok {
		settings = cleanVariationSettings[1]
	}

	r := strings.NewReplacer(
		"{variationNumber}", strconv.Itoa(variation),
		"{legStyle}", legStyle,
		"{backgroundStyle}", backgroundStyle,
		"{cameraSetting}", settings.camera,
		"{lightingSetting}", settings.lighting,
		"{modelDimensions}", dimensionAddendum(modelSize),
	)
	return r.Replace(cleanBasePrompt)
}

// buildLifestylePrompt assembles the turn-3 prompt for one category. Unknown
// categories fall back to the cafe scene.
func buildLifestylePrompt(category string, variation int) string {
	scene, ok := lifestyleScenes[category]
	if !ok {
		scene = lifestyleScenes["cafe"]
	}
	r := strings.NewReplacer(
		"{variationNumber}", strconv.Itoa(variation),
		"{sceneContext}", scene,
	)
	return r.Replace(lifestyleBasePrompt)
}

func dimensionAddendum(modelSize string) string {
	specs, ok := tableDimensions[modelSize]
	if !ok {
		return ""
	}
	ratio := float64(specs.length) / float64(specs.width)
	thicknessPercent := float64(specs.thickness) / float64(specs.width) * 100
	return fmt.Sprintf(`

DIMENSIONAL ACCURACY REQUIREMENT (CRITICAL):
This table is %dmm long x %dmm wide x %dmm thick. The generated image MUST show a length-to-width ratio of %.2f:1, with the thickness appearing as %.1f%% of the table width. Leg proportions must match the 3D model exactly. Acceptable dimensional variance: plus or minus 3%% maximum.`,
		specs.length, specs.width, specs.thickness, ratio, thicknessPercent)
}
