package creative

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"path"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"adforge/internal/domain"
	"adforge/internal/infra"
	"adforge/internal/providers/genai"
	"adforge/internal/storage"
)

const productCanvasSize = 1080

// ProductImageRenderer produces a fresh product photo from the product's text
// fields. The image model is strictly image-to-image, so each render seeds it
// with a neutral light-gray template canvas and lets the prompt carry the
// product details.
type ProductImageRenderer struct {
	images ImageGenerator
	store  *storage.FileStore
	logger infra.Logger
}

func NewProductImageRenderer(images ImageGenerator, store *storage.FileStore, logger infra.Logger) *ProductImageRenderer {
	return &ProductImageRenderer{images: images, store: store, logger: logger}
}

// Render generates and stores a square product photo, returning its key below
// the storage root.
func (r *ProductImageRenderer) Render(ctx context.Context, product *domain.Product, userPrompt, requestID string) (string, error) {
	template, err := templateCanvas()
	if err != nil {
		return "", err
	}

	asset, err := r.images.GenerateImage(ctx, genai.ImageRequest{
		Prompt:      buildProductImagePrompt(product.Name, product.Description, userPrompt),
		Sources:     []genai.SourceImage{{Data: template, MIME: "image/png"}},
		AspectRatio: "1:1",
		RequestID:   requestID,
	})
	if err != nil {
		return "", fmt.Errorf("generate product image: %w", err)
	}

	name := fmt.Sprintf("generated_%s_%s.png", SanitizeName(product.Name), uuid.NewString()[:8])
	key, err := r.store.Write(ctx, path.Join(infra.MediaDir, name), asset.Data)
	if err != nil {
		return "", fmt.Errorf("write product image: %w", err)
	}

	r.logger.Info().
		Str("request_id", requestID).
		Str("product_id", product.ID).
		Str("path", key).
		Msg("creative: product image regenerated")
	return key, nil
}

// templateCanvas renders the light-gray seed image handed to the model.
func templateCanvas() ([]byte, error) {
	canvas := imaging.New(productCanvasSize, productCanvasSize, color.NRGBA{R: 245, G: 245, B: 245, A: 255})
	buf := &bytes.Buffer{}
	if err := imaging.Encode(buf, canvas, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode template canvas: %w", err)
	}
	return buf.Bytes(), nil
}
