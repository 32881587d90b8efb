package mood

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"adforge/internal/creative"
	"adforge/internal/domain"
	"adforge/internal/infra"
	"adforge/internal/providers/genai"
	"adforge/internal/sqlinline"
	"adforge/internal/storage"
)

const (
	// campaignPrefixLimit caps the campaign-name fragment inside mood
	// filenames so generated names stay readable.
	campaignPrefixLimit = 20

	// sourceBudgetBytes is the combined size limit for the reference images
	// attached to one request; the model API rejects larger payloads.
	sourceBudgetBytes = 17 << 20

	// maxVideoSources is the reference cap the video model accepts.
	maxVideoSources = 3

	stampLayout = "20060102_150405"
)

// MediaGenerator is the slice of the model client the mood board consumes.
type MediaGenerator interface {
	GenerateImage(ctx context.Context, req genai.ImageRequest) (*genai.ImageAsset, error)
	GenerateVideo(ctx context.Context, req genai.VideoRequest) (*genai.VideoAsset, error)
	ImageModelName() string
	VideoModelName() string
}

var _ MediaGenerator = (*genai.Client)(nil)

// ImagesRequest asks for one standalone mood image per listed ratio.
type ImagesRequest struct {
	CampaignID   string
	Prompt       string
	SourceImages []string
	Ratios       []string
	RequestID    string
}

// VideoRequest asks for one short mood clip.
type VideoRequest struct {
	CampaignID      string
	Prompt          string
	SourceImages    []string
	AspectRatio     string
	DurationSeconds int
	RequestID       string
}

// Service generates standalone mood assets: one independent image per ratio,
// or a single short video. Unlike post creatives there is no base-then-adapt
// chain; every ratio is a full generation of its own, so they run
// concurrently.
type Service struct {
	sql    infra.SQLExecutor
	store  *storage.FileStore
	gen    MediaGenerator
	logger infra.Logger

	// now stamps generated filenames. Swapped out in tests.
	now func() time.Time
}

func NewService(sql infra.SQLExecutor, store *storage.FileStore, gen MediaGenerator, logger infra.Logger) *Service {
	return &Service{
		sql:    sql,
		store:  store,
		gen:    gen,
		logger: logger,
		now:    time.Now,
	}
}

// GenerateImages produces one mood image per requested ratio and persists a
// mood_media row for each. Rows are inserted in request order after every
// generation succeeded, so a failed ratio leaves nothing behind in the
// database.
func (s *Service) GenerateImages(ctx context.Context, req ImagesRequest) ([]domain.MoodMedia, error) {
	if err := domain.ValidateMoodRatios(req.Ratios); err != nil {
		return nil, err
	}

	name, err := s.loadCampaignName(ctx, req.CampaignID)
	if err != nil {
		return nil, err
	}

	sources, err := s.loadSources(req.SourceImages)
	if err != nil {
		return nil, err
	}

	prompt := buildImagePrompt(req.Prompt)
	prefix := campaignPrefix(name)
	stamp := s.now().UTC().Format(stampLayout)
	refsJSON := domain.EncodeImageList(req.SourceImages)
	metadata := imageMetadata(s.gen.ImageModelName())

	results := make([]domain.MoodMedia, len(req.Ratios))
	g, gctx := errgroup.WithContext(ctx)
	for i, ratio := range req.Ratios {
		i, ratio := i, ratio
		g.Go(func() error {
			asset, err := s.gen.GenerateImage(gctx, genai.ImageRequest{
				Prompt:      prompt,
				Sources:     sources,
				AspectRatio: ratio,
				RequestID:   req.RequestID,
			})
			if err != nil {
				return fmt.Errorf("generate mood image %s: %w", ratio, err)
			}

			filename := fmt.Sprintf("%s_img_%s_%s.png", prefix, stamp, domain.RatioSlug(ratio))
			key, err := s.store.Write(gctx, path.Join(infra.MoodsDir, filename), asset.Data)
			if err != nil {
				return fmt.Errorf("save mood image %s: %w", ratio, err)
			}

			results[i] = domain.MoodMedia{
				CampaignID:         req.CampaignID,
				FilePath:           storage.StaticRef(key),
				MediaType:          domain.MoodMediaImage,
				IsGenerated:        true,
				Prompt:             req.Prompt,
				SourceImages:       refsJSON,
				AspectRatio:        ratio,
				GenerationMetadata: metadata,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range results {
		if err := s.insertMedia(ctx, &results[i]); err != nil {
			return nil, err
		}
	}

	s.logger.Info().
		Str("campaign_id", req.CampaignID).
		Int("count", len(results)).
		Msg("mood: images generated")
	return results, nil
}

// GenerateVideo produces a single mood clip through the long-running video
// operation and persists its mood_media row.
func (s *Service) GenerateVideo(ctx context.Context, req VideoRequest) (*domain.MoodMedia, error) {
	if req.AspectRatio != "16:9" && req.AspectRatio != "9:16" {
		return nil, fmt.Errorf("%w: video aspect ratio must be 16:9 or 9:16", domain.ErrInvalidInput)
	}
	switch req.DurationSeconds {
	case 4, 6, 8:
	default:
		return nil, fmt.Errorf("%w: video duration must be 4, 6, or 8 seconds", domain.ErrInvalidInput)
	}
	if len(req.SourceImages) > maxVideoSources {
		return nil, fmt.Errorf("%w: at most %d source images for video generation", domain.ErrInvalidInput, maxVideoSources)
	}

	name, err := s.loadCampaignName(ctx, req.CampaignID)
	if err != nil {
		return nil, err
	}

	reference, err := s.loadVideoReference(req.SourceImages)
	if err != nil {
		return nil, err
	}

	asset, err := s.gen.GenerateVideo(ctx, genai.VideoRequest{
		Prompt:          buildVideoPrompt(req.Prompt, req.AspectRatio, req.DurationSeconds),
		AspectRatio:     req.AspectRatio,
		DurationSeconds: req.DurationSeconds,
		Reference:       reference,
		RequestID:       req.RequestID,
	})
	if err != nil {
		return nil, fmt.Errorf("generate mood video: %w", err)
	}

	filename := fmt.Sprintf("%s_vid_%s_%s.mp4", campaignPrefix(name), s.now().UTC().Format(stampLayout), domain.RatioSlug(req.AspectRatio))
	key, err := s.store.Write(ctx, path.Join(infra.MoodsDir, filename), asset.Data)
	if err != nil {
		return nil, fmt.Errorf("save mood video: %w", err)
	}

	media := domain.MoodMedia{
		CampaignID:         req.CampaignID,
		FilePath:           storage.StaticRef(key),
		MediaType:          domain.MoodMediaVideo,
		IsGenerated:        true,
		Prompt:             req.Prompt,
		SourceImages:       domain.EncodeImageList(req.SourceImages),
		AspectRatio:        req.AspectRatio,
		GenerationMetadata: videoMetadata(s.gen.VideoModelName(), req.DurationSeconds),
	}
	if err := s.insertMedia(ctx, &media); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("campaign_id", req.CampaignID).
		Str("aspect_ratio", req.AspectRatio).
		Int("duration_s", req.DurationSeconds).
		Msg("mood: video generated")
	return &media, nil
}

// Upload persists an externally produced media file on the mood board. The
// media type follows the declared content type; anything that is neither an
// image nor a video is rejected.
func (s *Service) Upload(ctx context.Context, campaignID, filename, contentType string, data []byte) (*domain.MoodMedia, error) {
	mediaType, err := mediaTypeFor(contentType)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: uploaded file is empty", domain.ErrInvalidInput)
	}

	name, err := s.loadCampaignName(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		if mediaType == domain.MoodMediaVideo {
			ext = ".mp4"
		} else {
			ext = ".png"
		}
	}
	stored := fmt.Sprintf("%s_upload_%s%s", campaignPrefix(name), s.now().UTC().Format(stampLayout), ext)
	key, err := s.store.Write(ctx, path.Join(infra.MoodsDir, stored), data)
	if err != nil {
		return nil, fmt.Errorf("save mood upload: %w", err)
	}

	metadata, err := json.Marshal(map[string]string{"original_filename": filename})
	if err != nil {
		metadata = []byte("{}")
	}
	media := domain.MoodMedia{
		CampaignID:         campaignID,
		FilePath:           storage.StaticRef(key),
		MediaType:          mediaType,
		IsGenerated:        false,
		SourceImages:       domain.EncodeImageList(nil),
		GenerationMetadata: string(metadata),
	}
	if err := s.insertMedia(ctx, &media); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("campaign_id", campaignID).
		Str("media_type", string(mediaType)).
		Msg("mood: upload stored")
	return &media, nil
}

func mediaTypeFor(contentType string) (domain.MoodMediaType, error) {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return domain.MoodMediaImage, nil
	case strings.HasPrefix(contentType, "video/"):
		return domain.MoodMediaVideo, nil
	}
	return "", fmt.Errorf("%w: only image and video uploads are allowed", domain.ErrInvalidInput)
}

// loadSources resolves refs to inline bytes. Unreadable refs are skipped with
// a warning; the request only fails when refs were given and none resolved,
// or when the combined payload exceeds the size budget.
func (s *Service) loadSources(refs []string) ([]genai.SourceImage, error) {
	sources := make([]genai.SourceImage, 0, len(refs))
	var failed []string
	var total int
	for _, ref := range refs {
		key := s.store.KeyFromURL(ref)
		if key == "" {
			s.logger.Warn().Str("ref", ref).Msg("mood: source ref is not a storage path")
			failed = append(failed, ref)
			continue
		}
		data, err := s.store.Read(key)
		if err != nil {
			s.logger.Warn().Str("ref", ref).Err(err).Msg("mood: source image unreadable")
			failed = append(failed, ref)
			continue
		}
		total += len(data)
		sources = append(sources, genai.SourceImage{Data: data, MIME: http.DetectContentType(data)})
	}
	if len(refs) > 0 && len(sources) == 0 {
		return nil, fmt.Errorf("%w: could not load any of the %d source images: %s", domain.ErrInvalidInput, len(refs), strings.Join(failed, ", "))
	}
	if total > sourceBudgetBytes {
		return nil, fmt.Errorf("%w: source images exceed %dMB limit (%.1fMB)", domain.ErrInvalidInput, sourceBudgetBytes>>20, float64(total)/(1<<20))
	}
	return sources, nil
}

// loadVideoReference verifies every listed ref and flattens the first one onto
// a white background. The video model accepts a single reference frame and
// rejects alpha channels, so transparency is composited away up front. Unlike
// image sources, a missing video reference is a hard error.
func (s *Service) loadVideoReference(refs []string) (*genai.SourceImage, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	var reference *genai.SourceImage
	var total int
	for i, ref := range refs {
		key := s.store.KeyFromURL(ref)
		if key == "" {
			return nil, fmt.Errorf("%w: reference image %q", domain.ErrNotFound, ref)
		}
		data, err := s.store.Read(key)
		if err != nil {
			return nil, fmt.Errorf("%w: reference image %q", domain.ErrNotFound, ref)
		}
		total += len(data)
		if i == 0 {
			flat, err := flattenToWhite(data)
			if err != nil {
				return nil, fmt.Errorf("%w: decode reference image %q: %v", domain.ErrInvalidInput, ref, err)
			}
			reference = &genai.SourceImage{Data: flat, MIME: "image/png"}
		}
	}
	if total > sourceBudgetBytes {
		return nil, fmt.Errorf("%w: source images exceed %dMB limit (%.1fMB)", domain.ErrInvalidInput, sourceBudgetBytes>>20, float64(total)/(1<<20))
	}
	return reference, nil
}

func (s *Service) loadCampaignName(ctx context.Context, campaignID string) (string, error) {
	var name string
	if err := s.sql.QueryRow(ctx, sqlinline.QSelectCampaignNameByID, campaignID).Scan(&name); err != nil {
		if infra.IsNoRows(err) {
			return "", fmt.Errorf("%w: campaign %s", domain.ErrNotFound, campaignID)
		}
		return "", fmt.Errorf("load campaign: %w", err)
	}
	return name, nil
}

func (s *Service) insertMedia(ctx context.Context, media *domain.MoodMedia) error {
	row := s.sql.QueryRow(ctx, sqlinline.QInsertMoodMedia,
		media.CampaignID,
		media.FilePath,
		string(media.MediaType),
		media.IsGenerated,
		media.Prompt,
		media.SourceImages,
		media.AspectRatio,
		media.GenerationMetadata,
	)
	if err := row.Scan(&media.ID, &media.CreatedAt); err != nil {
		return fmt.Errorf("insert mood media: %w", err)
	}
	return nil
}

// campaignPrefix reuses the shared filename sanitizer and trims the fragment
// embedded into mood filenames.
func campaignPrefix(name string) string {
	safe := creative.SanitizeName(name)
	if runes := []rune(safe); len(runes) > campaignPrefixLimit {
		safe = string(runes[:campaignPrefixLimit])
	}
	return safe
}

func flattenToWhite(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	canvas := imaging.New(bounds.Dx(), bounds.Dy(), color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	flat := imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, flat, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func imageMetadata(model string) string {
	raw, err := json.Marshal(map[string]string{"model": model})
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func videoMetadata(model string, durationSeconds int) string {
	raw, err := json.Marshal(map[string]any{"model": model, "duration": durationSeconds})
	if err != nil {
		return "{}"
	}
	return string(raw)
}
