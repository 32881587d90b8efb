package genai

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"adforge/internal/domain"
	"adforge/internal/infra"
)

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey            string
	BaseURL           string
	TextModel         string
	ImageModel        string
	VideoModel        string
	HTTPClient        *http.Client
	Logger            *infra.Logger
	VideoPollInterval time.Duration
	VideoPollAttempts int
}

// Client is a lightweight facade over the Gemini REST API. With an API key it
// performs real generateContent / predictLongRunning calls and any remote
// failure is surfaced to the caller; without a key it serves deterministic
// synthetic assets so the whole pipeline stays exercisable in local and CI
// environments.
type Client struct {
	apiKey            string
	baseURL           string
	textModel         string
	imageModel        string
	videoModel        string
	httpClient        *http.Client
	logger            *infra.Logger
	videoPollInterval time.Duration
	videoPollAttempts int
}

// SourceImage is an in-memory image handed to the model as inline data.
type SourceImage struct {
	Data []byte
	MIME string
}

// TextRequest asks the text model for a single completion.
type TextRequest struct {
	System    string
	Prompt    string
	RequestID string
}

// ImageRequest asks the image model for one generated image. Sources are
// attached in order ahead of the prompt text.
type ImageRequest struct {
	Prompt      string
	Sources     []SourceImage
	AspectRatio string
	RequestID   string
}

// VideoRequest asks the video model for a clip via a long-running operation.
type VideoRequest struct {
	Prompt          string
	AspectRatio     string
	DurationSeconds int
	Reference       *SourceImage
	RequestID       string
}

// ImageAsset is the normalized image result.
type ImageAsset struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// VideoAsset is the normalized video result.
type VideoAsset struct {
	Data []byte
	MIME string
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
	FileData   *geminiFileData   `json:"fileData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiFileData struct {
	MimeType string `json:"mimeType,omitempty"`
	FileURI  string `json:"fileUri,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature,omitempty"`
	CandidateCount   int     `json:"candidateCount,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type geminiGenerateContentRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiGenerateContentResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

type veoPredictRequest struct {
	Instances  []veoInstance `json:"instances"`
	Parameters veoParameters `json:"parameters"`
}

type veoInstance struct {
	Prompt string          `json:"prompt"`
	Image  *veoInlineImage `json:"image,omitempty"`
}

type veoInlineImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded,omitempty"`
	MimeType           string `json:"mimeType,omitempty"`
}

type veoParameters struct {
	AspectRatio     string `json:"aspectRatio,omitempty"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
}

type veoOperation struct {
	Name  string `json:"name"`
	Done  bool   `json:"done"`
	Error *struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error,omitempty"`
	Response *struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					URI string `json:"uri"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response,omitempty"`
}

// NewClient constructs a Gemini client with sane defaults. Callers may provide
// a nil HTTP client; a reusable one with a generous timeout will be created.
func NewClient(opts Options) (*Client, error) {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	textModel := opts.TextModel
	if textModel == "" {
		textModel = "gemini-2.5-flash"
	}
	imageModel := opts.ImageModel
	if imageModel == "" {
		imageModel = "gemini-2.5-flash-image"
	}
	videoModel := opts.VideoModel
	if videoModel == "" {
		videoModel = "veo-3.1-generate-preview"
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	pollInterval := opts.VideoPollInterval
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	pollAttempts := opts.VideoPollAttempts
	if pollAttempts <= 0 {
		pollAttempts = 120
	}

	return &Client{
		apiKey:            strings.TrimSpace(opts.APIKey),
		baseURL:           baseURL,
		textModel:         textModel,
		imageModel:        imageModel,
		videoModel:        videoModel,
		httpClient:        client,
		logger:            logger,
		videoPollInterval: pollInterval,
		videoPollAttempts: pollAttempts,
	}, nil
}

// HasCredentials reports whether real API calls are possible.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// ImageModelName reports the configured image model, recorded in generation
// metadata alongside stored assets.
func (c *Client) ImageModelName() string {
	return c.imageModel
}

// VideoModelName reports the configured video model.
func (c *Client) VideoModelName() string {
	return c.videoModel
}

// GenerateText performs one text-model call and returns the concatenated text
// parts of the first candidate.
func (c *Client) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if c.apiKey == "" {
		return c.syntheticCopy(req), nil
	}

	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{
			{
				Role:  "user",
				Parts: []geminiPart{{Text: req.Prompt}},
			},
		},
		GenerationConfig: &geminiGenerationConfig{Temperature: 0.7, CandidateCount: 1},
	}
	if strings.TrimSpace(req.System) != "" {
		payload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}

	var response geminiGenerateContentResponse
	if err := c.invokeGemini(ctx, fmt.Sprintf("/models/%s:generateContent", url.PathEscape(c.textModel)), payload, &response); err != nil {
		return "", err
	}

	text := collectText(response)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty text response", domain.ErrGenerationFailed)
	}

	c.logger.Debug().
		Str("request_id", req.RequestID).
		Str("model", c.textModel).
		Int("chars", len(text)).
		Msg("genai: text generated")

	return text, nil
}

// GenerateImage performs one image-model call; source images are attached as
// inline data ahead of the prompt. Exactly one asset is returned.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (*ImageAsset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if c.apiKey == "" {
		return c.syntheticImage(req), nil
	}

	parts := make([]geminiPart, 0, len(req.Sources)+1)
	for _, src := range req.Sources {
		mime := src.MIME
		if mime == "" {
			mime = "image/png"
		}
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MimeType: mime,
			Data:     base64.StdEncoding.EncodeToString(src.Data),
		}})
	}
	parts = append(parts, geminiPart{Text: req.Prompt})

	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
	}

	var response geminiGenerateContentResponse
	if err := c.invokeGemini(ctx, fmt.Sprintf("/models/%s:generateContent", url.PathEscape(c.imageModel)), payload, &response); err != nil {
		return nil, err
	}

	for _, candidate := range response.Candidates {
		for _, part := range candidate.Content.Parts {
			asset, err := c.decodeInlineAsset(ctx, part)
			if err != nil || len(asset.Data) == 0 {
				continue
			}
			mime := asset.MIME
			if mime == "" {
				mime = "image/png"
			}
			w, h := decodeImageDimensions(asset.Data)
			c.logger.Debug().
				Str("request_id", req.RequestID).
				Str("model", c.imageModel).
				Int("sources", len(req.Sources)).
				Msg("genai: image generated")
			return &ImageAsset{Data: asset.Data, MIME: mime, Width: w, Height: h}, nil
		}
	}

	return nil, fmt.Errorf("%w: no image content returned", domain.ErrGenerationFailed)
}

// AdaptImage recomposes a previously generated image to a new aspect ratio.
// It is a single-source image call kept as its own method so callers can
// distinguish base generation from adaptation.
func (c *Client) AdaptImage(ctx context.Context, base SourceImage, prompt, aspectRatio, requestID string) (*ImageAsset, error) {
	return c.GenerateImage(ctx, ImageRequest{
		Prompt:      prompt,
		Sources:     []SourceImage{base},
		AspectRatio: aspectRatio,
		RequestID:   requestID,
	})
}

// GenerateVideo starts a long-running video operation and polls it until the
// clip is ready, the budget is exhausted, or the context ends.
func (c *Client) GenerateVideo(ctx context.Context, req VideoRequest) (*VideoAsset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if c.apiKey == "" {
		return c.syntheticVideo(req), nil
	}

	instance := veoInstance{Prompt: req.Prompt}
	if req.Reference != nil && len(req.Reference.Data) > 0 {
		mime := req.Reference.MIME
		if mime == "" {
			mime = "image/png"
		}
		instance.Image = &veoInlineImage{
			BytesBase64Encoded: base64.StdEncoding.EncodeToString(req.Reference.Data),
			MimeType:           mime,
		}
	}

	payload := veoPredictRequest{
		Instances:  []veoInstance{instance},
		Parameters: veoParameters{AspectRatio: req.AspectRatio, DurationSeconds: req.DurationSeconds},
	}

	var op veoOperation
	if err := c.invokeGemini(ctx, fmt.Sprintf("/models/%s:predictLongRunning", url.PathEscape(c.videoModel)), payload, &op); err != nil {
		return nil, err
	}
	if op.Name == "" {
		return nil, fmt.Errorf("%w: video operation has no name", domain.ErrGenerationFailed)
	}

	uri, err := c.pollVideoOperation(ctx, op.Name, req.RequestID)
	if err != nil {
		return nil, err
	}

	data, mime, err := c.downloadFile(ctx, uri)
	if err != nil {
		return nil, err
	}
	if mime == "" {
		mime = "video/mp4"
	}

	c.logger.Debug().
		Str("request_id", req.RequestID).
		Str("model", c.videoModel).
		Int("bytes", len(data)).
		Msg("genai: video generated")

	return &VideoAsset{Data: data, MIME: mime}, nil
}

func (c *Client) pollVideoOperation(ctx context.Context, name, requestID string) (string, error) {
	ticker := time.NewTicker(c.videoPollInterval)
	defer ticker.Stop()

	for attempt := 0; attempt < c.videoPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		var op veoOperation
		if err := c.getJSON(ctx, "/"+strings.TrimLeft(name, "/"), &op); err != nil {
			return "", err
		}
		if !op.Done {
			c.logger.Debug().
				Str("request_id", requestID).
				Int("attempt", attempt+1).
				Msg("genai: video operation pending")
			continue
		}
		if op.Error != nil {
			return "", fmt.Errorf("%w: video operation failed: %s", domain.ErrGenerationFailed, op.Error.Message)
		}
		if op.Response == nil || len(op.Response.GenerateVideoResponse.GeneratedSamples) == 0 {
			return "", fmt.Errorf("%w: video operation returned no samples", domain.ErrGenerationFailed)
		}
		uri := op.Response.GenerateVideoResponse.GeneratedSamples[0].Video.URI
		if uri == "" {
			return "", fmt.Errorf("%w: video sample has no uri", domain.ErrGenerationFailed)
		}
		return uri, nil
	}

	return "", fmt.Errorf("%w: video operation still pending after %d polls", domain.ErrGenerationTimeout, c.videoPollAttempts)
}

type inlineAsset struct {
	Data []byte
	MIME string
}

func (c *Client) invokeGemini(ctx context.Context, path string, payload any, out any) error {
	endpoint := strings.TrimRight(c.baseURL, "/") + path
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	q := req.URL.Query()
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: invoke gemini: %v", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr geminiErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("%w: gemini status %d: %s", domain.ErrProviderFailure, resp.StatusCode, apiErr.Error.Message)
		}
		data, _ := io.ReadAll(resp.Body)
		if len(data) > 0 {
			return fmt.Errorf("%w: gemini status %d: %s", domain.ErrProviderFailure, resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return fmt.Errorf("%w: gemini status %d", domain.ErrProviderFailure, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode gemini response: %v", domain.ErrGenerationFailed, err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	endpoint := strings.TrimRight(c.baseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	q := req.URL.Query()
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: invoke gemini: %v", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: gemini status %d: %s", domain.ErrProviderFailure, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode gemini response: %v", domain.ErrGenerationFailed, err)
	}
	return nil
}

func (c *Client) decodeInlineAsset(ctx context.Context, part geminiPart) (inlineAsset, error) {
	if part.InlineData != nil && part.InlineData.Data != "" {
		data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
		if err != nil {
			return inlineAsset{}, fmt.Errorf("decode inline data: %w", err)
		}
		return inlineAsset{Data: data, MIME: part.InlineData.MimeType}, nil
	}

	if part.FileData != nil && part.FileData.FileURI != "" {
		data, mime, err := c.downloadFile(ctx, part.FileData.FileURI)
		if err != nil {
			return inlineAsset{}, err
		}
		return inlineAsset{Data: data, MIME: firstNonEmpty(part.FileData.MimeType, mime)}, nil
	}

	return inlineAsset{}, nil
}

func (c *Client) downloadFile(ctx context.Context, uri string) ([]byte, string, error) {
	target := uri
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		target = strings.TrimRight(c.baseURL, "/") + "/" + strings.TrimLeft(uri, "/")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create download request: %w", err)
	}
	if c.apiKey != "" {
		q := req.URL.Query()
		q.Set("key", c.apiKey)
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: download file: %v", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return nil, "", fmt.Errorf("%w: download file status %d: %s", domain.ErrProviderFailure, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read file: %w", err)
	}
	return blob, resp.Header.Get("Content-Type"), nil
}

func collectText(response geminiGenerateContentResponse) string {
	var b strings.Builder
	for _, candidate := range response.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				b.WriteString(part.Text)
			}
		}
		if b.Len() > 0 {
			break
		}
	}
	return b.String()
}

func decodeImageDimensions(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func (c *Client) syntheticCopy(req TextRequest) string {
	seed := deterministicSeed(req.RequestID, req.Prompt)
	payload := map[string]string{
		"headline":   "Fresh Creative " + strings.ToUpper(seed[:6]),
		"body_text":  "Synthetic copy generated without an API key. Configure GEMINI_API_KEY to produce real campaign text.",
		"caption":    "Synthetic caption #" + seed[:8],
		"text_color": "#" + strings.ToUpper(seed[:6]),
	}
	raw, _ := json.Marshal(payload)

	c.logger.Debug().
		Str("request_id", req.RequestID).
		Msg("genai: served synthetic copy")

	return string(raw)
}

func (c *Client) syntheticImage(req ImageRequest) *ImageAsset {
	width, height := normalizeAspect(req.AspectRatio)
	seed := deterministicSeed(req.RequestID, req.Prompt, req.AspectRatio, len(req.Sources))
	data := renderSyntheticImage(width, height, seed)

	c.logger.Debug().
		Str("request_id", req.RequestID).
		Str("aspect_ratio", req.AspectRatio).
		Msg("genai: served synthetic image")

	return &ImageAsset{Data: data, MIME: "image/png", Width: width, Height: height}
}

func (c *Client) syntheticVideo(req VideoRequest) *VideoAsset {
	seed := deterministicSeed(req.RequestID, req.Prompt, req.AspectRatio, req.DurationSeconds)
	lines := []string{
		"Synthetic Gemini video placeholder",
		fmt.Sprintf("Seed: %s", seed),
		fmt.Sprintf("Prompt: %s", strings.TrimSpace(req.Prompt)),
		"",
		"This placeholder represents where rendered video bytes would be stored once",
		"a GEMINI_API_KEY is configured.",
	}

	c.logger.Debug().
		Str("request_id", req.RequestID).
		Msg("genai: served synthetic video")

	return &VideoAsset{Data: []byte(strings.Join(lines, "\n")), MIME: "video/mp4"}
}

func renderSyntheticImage(width, height int, seed string) []byte {
	if width <= 0 {
		width = 1080
	}
	if height <= 0 {
		height = 1080
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	base := colorFromSeed(seed, 0)
	accent := colorFromSeed(seed, 1)
	draw.Draw(img, img.Bounds(), &image.Uniform{base}, image.Point{}, draw.Src)

	stripeHeight := maxInt(32, height/12)
	for y := 0; y < height; y += stripeHeight * 2 {
		stripe := image.Rect(0, y, width, minInt(height, y+stripeHeight))
		draw.Draw(img, stripe, &image.Uniform{accent}, image.Point{}, draw.Over)
	}

	diagonal := colorFromSeed(seed, 2)
	for i := 0; i < maxInt(width, height); i += maxInt(16, width/32) {
		for y := 0; y < height; y++ {
			xx := i + y
			if xx >= width {
				break
			}
			img.Set(xx, y, diagonal)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

func colorFromSeed(seed string, shift int) color.RGBA {
	if len(seed) < 6 {
		seed = "0f62fe0f62fe"
	}
	doubled := seed + seed
	start := (shift * 6) % len(seed)
	segment := doubled[start : start+6]
	r := mustParseHexByte(segment[0:2])
	g := mustParseHexByte(segment[2:4])
	b := mustParseHexByte(segment[4:6])
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func mustParseHexByte(s string) uint8 {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0
	}
	return uint8(v)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func deterministicSeed(parts ...any) string {
	hasher := sha256.New()
	for _, part := range parts {
		hasher.Write([]byte(fmt.Sprintf("%v", part)))
		hasher.Write([]byte{'|'})
	}
	return hex.EncodeToString(hasher.Sum(nil))[:16]
}

func normalizeAspect(aspect string) (int, int) {
	switch strings.TrimSpace(aspect) {
	case "16:9":
		return 1920, 1080
	case "9:16":
		return 1080, 1920
	case "4:3":
		return 1440, 1080
	case "3:4":
		return 1080, 1440
	default:
		return 1080, 1080
	}
}
