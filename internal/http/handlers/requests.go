// Shared request and response plumbing: row scanners in the canonical column
// order of the sqlinline queries, and the map renderers every handler returns.
package handlers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"adforge/internal/domain"
)

const dateLayout = "2006-01-02"

// requireUUID rejects malformed path ids before they reach postgres, where a
// failed uuid cast would surface as a 500 instead of a 400.
func requireUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: malformed id %q", domain.ErrInvalidInput, id)
	}
	return nil
}

// stringField reads a string value out of a loosely-typed JSON object,
// returning "" for absent or non-string values.
func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// validationResponse echoes uploaded draft data back together with the fields
// still missing, so a client can walk the user through completing it.
type validationResponse struct {
	Data          map[string]any `json:"data"`
	MissingFields []string       `json:"missing_fields"`
	IsComplete    bool           `json:"is_complete"`
}

// parseDate reads a YYYY-MM-DD string; empty or malformed input becomes nil.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

func formatDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(dateLayout)
}

// stringList decodes a JSON string-array column for rendering; malformed or
// empty input renders as an empty array, never null.
func stringList(raw string) []string {
	refs := domain.DecodeImageList(raw)
	if refs == nil {
		refs = []string{}
	}
	return refs
}

// metadataJSON embeds a stored JSON object verbatim, or null when the column
// is empty or unparseable.
func metadataJSON(raw string) json.RawMessage {
	if raw == "" || !json.Valid([]byte(raw)) {
		return json.RawMessage("null")
	}
	return json.RawMessage(raw)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCampaign(s scanner) (domain.Campaign, error) {
	var c domain.Campaign
	err := s.Scan(&c.ID, &c.Name, &c.Message, &c.CallToAction, &c.TargetRegion, &c.TargetAudience,
		&c.BrandImages, &c.StartDate, &c.DurationDays, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanProduct(s scanner) (domain.Product, error) {
	var p domain.Product
	err := s.Scan(&p.ID, &p.CampaignID, &p.Name, &p.Description, &p.ImagePath, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func scanPost(s scanner) (domain.Post, error) {
	var p domain.Post
	err := s.Scan(&p.ID, &p.CampaignID, &p.ProductID, &p.MoodID, &p.SourceImages,
		&p.Headline, &p.BodyText, &p.Caption, &p.TextColor,
		&p.Image1x1, &p.Image16x9, &p.Image9x16,
		&p.GenerationPrompt, &p.ImageFolder, &p.CreatedAt)
	return p, err
}

func scanMood(s scanner) (domain.MoodMedia, error) {
	var m domain.MoodMedia
	err := s.Scan(&m.ID, &m.CampaignID, &m.FilePath, &m.MediaType, &m.IsGenerated,
		&m.Prompt, &m.SourceImages, &m.AspectRatio, &m.GenerationMetadata, &m.CreatedAt)
	return m, err
}

func scanScheduled(s scanner) (domain.ScheduledPost, error) {
	var sp domain.ScheduledPost
	err := s.Scan(&sp.ID, &sp.PostID, &sp.Platforms, &sp.PostText, &sp.MediaURL,
		&sp.ScheduleType, &sp.ScheduledAt, &sp.RecurrenceDays, &sp.RecurrenceTime,
		&sp.Status, &sp.ExternalRef, &sp.LastError, &sp.CreatedAt, &sp.UpdatedAt)
	return sp, err
}

func renderCampaign(c domain.Campaign) map[string]any {
	return map[string]any{
		"id":               c.ID,
		"name":             c.Name,
		"campaign_message": c.Message,
		"call_to_action":   c.CallToAction,
		"target_region":    c.TargetRegion,
		"target_audience":  c.TargetAudience,
		"brand_images":     stringList(c.BrandImages),
		"start_date":       formatDate(c.StartDate),
		"duration_days":    c.DurationDays,
		"created_at":       c.CreatedAt,
		"updated_at":       c.UpdatedAt,
	}
}

func renderProduct(p domain.Product) map[string]any {
	return map[string]any{
		"id":          p.ID,
		"campaign_id": p.CampaignID,
		"name":        p.Name,
		"description": p.Description,
		"image_path":  p.ImagePath,
		"created_at":  p.CreatedAt,
		"updated_at":  p.UpdatedAt,
	}
}

func renderPost(p domain.Post) map[string]any {
	return map[string]any{
		"id":                p.ID,
		"campaign_id":       p.CampaignID,
		"product_id":        p.ProductID,
		"mood_id":           p.MoodID,
		"source_images":     stringList(p.SourceImages),
		"headline":          p.Headline,
		"body_text":         p.BodyText,
		"caption":           p.Caption,
		"text_color":        p.TextColor,
		"image_1_1":         p.Image1x1,
		"image_16_9":        p.Image16x9,
		"image_9_16":        p.Image9x16,
		"generation_prompt": p.GenerationPrompt,
		"image_folder":      p.ImageFolder,
		"created_at":        p.CreatedAt,
	}
}

func renderMood(m domain.MoodMedia) map[string]any {
	return map[string]any{
		"id":                  m.ID,
		"campaign_id":         m.CampaignID,
		"file_path":           m.FilePath,
		"media_type":          string(m.MediaType),
		"is_generated":        m.IsGenerated,
		"prompt":              m.Prompt,
		"source_images":       stringList(m.SourceImages),
		"aspect_ratio":        m.AspectRatio,
		"generation_metadata": metadataJSON(m.GenerationMetadata),
		"created_at":          m.CreatedAt,
	}
}

func renderScheduled(sp domain.ScheduledPost) map[string]any {
	return map[string]any{
		"id":              sp.ID,
		"post_id":         sp.PostID,
		"platforms":       stringList(sp.Platforms),
		"post_text":       sp.PostText,
		"media_url":       sp.MediaURL,
		"schedule_type":   string(sp.ScheduleType),
		"scheduled_at":    sp.ScheduledAt,
		"recurrence_days": sp.RecurrenceDays,
		"recurrence_time": sp.RecurrenceTime,
		"status":          string(sp.Status),
		"external_ref":    sp.ExternalRef,
		"last_error":      sp.LastError,
		"created_at":      sp.CreatedAt,
		"updated_at":      sp.UpdatedAt,
	}
}
