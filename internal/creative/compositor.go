package creative

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"path"

	"github.com/disintegration/imaging"

	"adforge/internal/domain"
	"adforge/internal/infra"
	"adforge/internal/storage"
)

const (
	borderWidth    = 8
	logoMargin     = 30
	logoBoundStory = 120
	logoBound      = 150
)

// ComposeParams describes one output variant. Creative may be nil, in which
// case the variant is a plain white canvas. Logo may be nil to skip the brand
// overlay. Folder is the pre-sanitized per-post directory relative to the
// storage root, e.g. "posts/Campaign_Headline".
type ComposeParams struct {
	AspectRatio string
	Creative    *BaseCreative
	Logo        []byte
	Folder      string
	Filename    string
}

// Compositor finalizes each creative variant: exact canvas sizing, brand logo
// overlay and a full-perimeter border, then writes the PNG into the post
// folder.
type Compositor struct {
	store  *storage.FileStore
	logger infra.Logger
}

func NewCompositor(store *storage.FileStore, logger infra.Logger) *Compositor {
	return &Compositor{store: store, logger: logger}
}

// ComposePostImage renders one variant and returns its path relative to the
// storage root, e.g. "posts/Campaign_Headline/image_1-1.png".
func (c *Compositor) ComposePostImage(ctx context.Context, p ComposeParams) (string, error) {
	size := domain.CanvasFor(p.AspectRatio)

	canvas, err := c.layoutCanvas(p.Creative, size)
	if err != nil {
		return "", err
	}
	canvas = c.overlayLogo(canvas, p.Logo, p.AspectRatio)
	canvas = drawBorder(canvas)

	buf := &bytes.Buffer{}
	if err := imaging.Encode(buf, canvas, imaging.PNG); err != nil {
		return "", fmt.Errorf("encode post image: %w", err)
	}

	key := path.Join(p.Folder, p.Filename)
	if _, err := c.store.Write(ctx, key, buf.Bytes()); err != nil {
		return "", fmt.Errorf("write post image: %w", err)
	}

	c.logger.Debug().
		Str("path", key).
		Str("aspect_ratio", p.AspectRatio).
		Bool("white_canvas", p.Creative == nil).
		Msg("creative: variant composited")
	return key, nil
}

// layoutCanvas produces the exactly-sized background: white when there is no
// creative, a straight copy when dimensions already match, otherwise a uniform
// scale-to-cover plus center crop. The image is never stretched.
func (c *Compositor) layoutCanvas(creative *BaseCreative, size domain.CanvasSize) (*image.NRGBA, error) {
	if creative == nil {
		return imaging.New(size.Width, size.Height, color.NRGBA{R: 255, G: 255, B: 255, A: 255}), nil
	}

	img, err := imaging.Decode(bytes.NewReader(creative.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode generated creative: %v", domain.ErrGenerationFailed, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() == size.Width && bounds.Dy() == size.Height {
		return imaging.Clone(img), nil
	}
	return imaging.Fill(img, size.Width, size.Height, imaging.Center, imaging.Lanczos), nil
}

// overlayLogo pastes the brand logo bottom-right, honoring its alpha channel.
// A logo that fails to decode is skipped with a warning; the variant is still
// produced.
func (c *Compositor) overlayLogo(canvas *image.NRGBA, logo []byte, aspectRatio string) *image.NRGBA {
	if len(logo) == 0 {
		return canvas
	}

	logoImg, err := imaging.Decode(bytes.NewReader(logo))
	if err != nil {
		c.logger.Warn().Err(err).Msg("creative: brand logo skipped")
		return canvas
	}

	bound := logoBound
	if aspectRatio == "9:16" {
		bound = logoBoundStory
	}
	logoImg = imaging.Fit(logoImg, bound, bound, imaging.Lanczos)

	size := canvas.Bounds()
	pos := image.Pt(
		size.Dx()-logoImg.Bounds().Dx()-logoMargin,
		size.Dy()-logoImg.Bounds().Dy()-logoMargin,
	)
	return imaging.Overlay(canvas, logoImg, pos, 1.0)
}

// drawBorder paints a solid black frame on the full perimeter.
func drawBorder(canvas *image.NRGBA) *image.NRGBA {
	w := canvas.Bounds().Dx()
	h := canvas.Bounds().Dy()
	black := color.NRGBA{A: 255}

	horizontal := imaging.New(w, borderWidth, black)
	vertical := imaging.New(borderWidth, h, black)

	canvas = imaging.Paste(canvas, horizontal, image.Pt(0, 0))
	canvas = imaging.Paste(canvas, horizontal, image.Pt(0, h-borderWidth))
	canvas = imaging.Paste(canvas, vertical, image.Pt(0, 0))
	return imaging.Paste(canvas, vertical, image.Pt(w-borderWidth, 0))
}
