package creative

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"adforge/internal/domain"
	"adforge/internal/infra"
	"adforge/internal/providers/genai"
)

// TextGenerator is the narrow capability the copy step needs from the model
// client.
type TextGenerator interface {
	GenerateText(ctx context.Context, req genai.TextRequest) (string, error)
}

// CopyRequest carries the campaign and product context for one copy call.
type CopyRequest struct {
	CampaignMessage    string
	CallToAction       string
	TargetRegion       string
	TargetAudience     string
	ProductName        string
	ProductDescription string
	UserPrompt         string
	RequestID          string
}

// Copy is the finalized post text. TextColor is the accent hex the model picked
// for the embedded headline treatment.
type Copy struct {
	Headline  string
	BodyText  string
	Caption   string
	TextColor string
}

// CopyGenerator makes exactly one text-model call per generation request and
// parses the JSON payload out of whatever prose surrounds it.
type CopyGenerator struct {
	text   TextGenerator
	logger infra.Logger
}

func NewCopyGenerator(text TextGenerator, logger infra.Logger) *CopyGenerator {
	return &CopyGenerator{text: text, logger: logger}
}

func (g *CopyGenerator) Generate(ctx context.Context, req CopyRequest) (*Copy, error) {
	raw, err := g.text.GenerateText(ctx, genai.TextRequest{
		Prompt:    buildCopyPrompt(req),
		RequestID: req.RequestID,
	})
	if err != nil {
		return nil, fmt.Errorf("generate post copy: %w", err)
	}

	parsed, err := parseCopyPayload(raw)
	if err != nil {
		g.logger.Warn().
			Str("request_id", req.RequestID).
			Err(err).
			Msg("creative: copy payload rejected")
		return nil, err
	}

	g.logger.Info().
		Str("request_id", req.RequestID).
		Str("headline", parsed.Headline).
		Msg("creative: copy generated")
	return parsed, nil
}

var requiredCopyFields = []string{"headline", "body_text", "caption", "text_color"}

// parseCopyPayload extracts the first balanced JSON object from the model text
// and validates the four required fields. Models routinely wrap the object in
// prose or code fences; anything beyond that tolerance is a hard failure,
// never a silent default.
func parseCopyPayload(raw string) (*Copy, error) {
	fragment := extractJSONObject(raw)
	if fragment == "" {
		fragment = strings.TrimSpace(raw)
	}

	var fields map[string]string
	if err := json.Unmarshal([]byte(fragment), &fields); err != nil {
		return nil, fmt.Errorf("%w: parse copy payload: %v", domain.ErrGenerationFailed, err)
	}

	var missing []string
	for _, key := range requiredCopyFields {
		if _, ok := fields[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required fields: %s", domain.ErrGenerationFailed, strings.Join(missing, ", "))
	}

	return &Copy{
		Headline:  strings.TrimSpace(fields["headline"]),
		BodyText:  strings.TrimSpace(fields["body_text"]),
		Caption:   strings.TrimSpace(fields["caption"]),
		TextColor: strings.TrimSpace(fields["text_color"]),
	}, nil
}

// extractJSONObject returns the first balanced {...} substring, skipping brace
// characters that appear inside JSON string literals. An unclosed object
// returns "" so the caller can fall back to parsing the whole text.
func extractJSONObject(raw string) string {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}
	return ""
}
