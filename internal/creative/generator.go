package creative

import (
	"context"
	"fmt"

	"adforge/internal/infra"
	"adforge/internal/providers/genai"
)

// ImageGenerator is the narrow capability the ratio loop needs from the model
// client: one call that produces a fresh creative and one that reshapes an
// existing one.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req genai.ImageRequest) (*genai.ImageAsset, error)
	AdaptImage(ctx context.Context, base genai.SourceImage, prompt, aspectRatio, requestID string) (*genai.ImageAsset, error)
}

// BaseCreative is the single generated image threaded through the ratio loop.
// Every ratio after the first adapts this same image; it is never regenerated
// and adaptations are never chained off each other.
type BaseCreative struct {
	Data []byte
	MIME string
}

// CreativeRequest is the shared context for the base generation call.
type CreativeRequest struct {
	CampaignMessage string
	Headline        string
	UserPrompt      string
	Sources         []ResolvedSource
	RequestID       string
}

// CreativeGenerator produces the AI creative for each requested ratio. With a
// single source it runs an image-to-image transform; with several it blends
// them into one composition. Zero sources is a valid terminal state that
// yields no creative at all, leaving the compositor to paint a white canvas.
type CreativeGenerator struct {
	images ImageGenerator
	logger infra.Logger
}

func NewCreativeGenerator(images ImageGenerator, logger infra.Logger) *CreativeGenerator {
	return &CreativeGenerator{images: images, logger: logger}
}

// GenerateBase runs the first-ratio model call and returns the base creative,
// or nil when there are no sources to work from.
func (g *CreativeGenerator) GenerateBase(ctx context.Context, req CreativeRequest, aspectRatio string) (*BaseCreative, error) {
	if len(req.Sources) == 0 {
		g.logger.Debug().
			Str("request_id", req.RequestID).
			Msg("creative: no sources, skipping base generation")
		return nil, nil
	}

	sources := make([]genai.SourceImage, 0, len(req.Sources))
	for _, src := range req.Sources {
		sources = append(sources, genai.SourceImage{Data: src.Data, MIME: src.MIME})
	}

	asset, err := g.images.GenerateImage(ctx, genai.ImageRequest{
		Prompt: buildCreativePrompt(creativePromptParams{
			CampaignMessage: req.CampaignMessage,
			Headline:        req.Headline,
			UserPrompt:      req.UserPrompt,
			AspectRatio:     aspectRatio,
			SourceCount:     len(req.Sources),
		}),
		Sources:     sources,
		AspectRatio: aspectRatio,
		RequestID:   req.RequestID,
	})
	if err != nil {
		return nil, fmt.Errorf("generate base creative: %w", err)
	}

	g.logger.Info().
		Str("request_id", req.RequestID).
		Str("aspect_ratio", aspectRatio).
		Int("sources", len(req.Sources)).
		Msg("creative: base generated")
	return &BaseCreative{Data: asset.Data, MIME: asset.MIME}, nil
}

// AdaptToRatio reshapes the base creative for a subsequent ratio. A nil base
// passes through so the whole ratio loop stays on the white-canvas path.
func (g *CreativeGenerator) AdaptToRatio(ctx context.Context, base *BaseCreative, headline, aspectRatio, requestID string) (*BaseCreative, error) {
	if base == nil {
		return nil, nil
	}

	asset, err := g.images.AdaptImage(ctx,
		genai.SourceImage{Data: base.Data, MIME: base.MIME},
		buildAdaptationPrompt(headline, aspectRatio),
		aspectRatio,
		requestID,
	)
	if err != nil {
		return nil, fmt.Errorf("adapt creative to %s: %w", aspectRatio, err)
	}

	g.logger.Info().
		Str("request_id", requestID).
		Str("aspect_ratio", aspectRatio).
		Msg("creative: base adapted")
	return &BaseCreative{Data: asset.Data, MIME: asset.MIME}, nil
}
