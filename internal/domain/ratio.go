package domain

import (
	"fmt"
	"strings"
)

// PostAspectRatios enumerates the ratio tokens a post variant may target. Each
// maps to the exact canvas the compositor renders and to a dedicated column on
// the posts table.
var PostAspectRatios = []string{"1:1", "16:9", "9:16"}

// MoodAspectRatios is the wider set accepted for standalone mood images.
var MoodAspectRatios = []string{"1:1", "3:4", "4:3", "16:9", "9:16"}

// CanvasSize is the target pixel dimensions for a single aspect ratio.
type CanvasSize struct {
	Width  int
	Height int
}

var canvasSizes = map[string]CanvasSize{
	"1:1":  {Width: 1080, Height: 1080},
	"16:9": {Width: 1920, Height: 1080},
	"9:16": {Width: 1080, Height: 1920},
	"3:4":  {Width: 1080, Height: 1440},
	"4:3":  {Width: 1440, Height: 1080},
}

// CanvasFor returns the canvas size for a ratio token. Unknown tokens fall back
// to the square canvas; validation happens before generation, so this is only a
// guard for internal misuse.
func CanvasFor(ratio string) CanvasSize {
	if size, ok := canvasSizes[strings.TrimSpace(ratio)]; ok {
		return size
	}
	return canvasSizes["1:1"]
}

// DimensionHint renders the advisory dimension phrase embedded into generation
// prompts, e.g. "1080x1080 pixels (square)".
func DimensionHint(ratio string) string {
	size := CanvasFor(ratio)
	var shape string
	switch ratio {
	case "16:9":
		shape = "landscape"
	case "9:16":
		shape = "vertical/story format"
	case "4:3":
		shape = "landscape"
	case "3:4":
		shape = "portrait"
	default:
		shape = "square"
	}
	return fmt.Sprintf("%dx%d pixels (%s)", size.Width, size.Height, shape)
}

// ValidatePostRatios checks every requested token against the allowed post set
// and reports the first offending value.
func ValidatePostRatios(ratios []string) error {
	if len(ratios) == 0 {
		return fmt.Errorf("%w: at least one aspect ratio is required", ErrInvalidInput)
	}
	for _, ratio := range ratios {
		if !containsRatio(PostAspectRatios, ratio) {
			return fmt.Errorf("%w: unsupported aspect ratio %q", ErrInvalidInput, ratio)
		}
	}
	return nil
}

// ValidateMoodRatios checks mood-image ratio tokens; at most three per request.
func ValidateMoodRatios(ratios []string) error {
	if len(ratios) == 0 {
		return fmt.Errorf("%w: at least one aspect ratio is required", ErrInvalidInput)
	}
	if len(ratios) > 3 {
		return fmt.Errorf("%w: at most 3 aspect ratios per request", ErrInvalidInput)
	}
	for _, ratio := range ratios {
		if !containsRatio(MoodAspectRatios, ratio) {
			return fmt.Errorf("%w: unsupported aspect ratio %q", ErrInvalidInput, ratio)
		}
	}
	return nil
}

func containsRatio(allowed []string, ratio string) bool {
	for _, a := range allowed {
		if a == ratio {
			return true
		}
	}
	return false
}

// RatioSlug converts a ratio token into its filename form: "16:9" -> "16-9".
func RatioSlug(ratio string) string {
	return strings.ReplaceAll(ratio, ":", "-")
}

// VariantFilename is the on-disk name of a post variant, e.g. "image_16-9.png".
func VariantFilename(ratio string) string {
	return fmt.Sprintf("image_%s.png", RatioSlug(ratio))
}
