package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Campaign is the root aggregate: it owns products, posts and mood media, and
// carries the marketing context every generation request reads.
type Campaign struct {
	ID             string
	Name           string
	Message        string
	CallToAction   string
	TargetRegion   string
	TargetAudience string
	BrandImages    string // JSON array of image refs, never null
	StartDate      *time.Time
	DurationDays   *int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BrandImageList decodes the brand_images JSON column. Malformed or empty
// payloads decode to an empty list rather than failing a generation request.
func (c Campaign) BrandImageList() []string {
	raw := strings.TrimSpace(c.BrandImages)
	if raw == "" {
		return nil
	}
	var refs []string
	if err := json.Unmarshal([]byte(raw), &refs); err != nil {
		return nil
	}
	out := refs[:0]
	for _, ref := range refs {
		if strings.TrimSpace(ref) != "" {
			out = append(out, ref)
		}
	}
	return out
}

// EncodeImageList renders a string slice as the canonical JSON stored in the
// list columns (brand_images, source_images, platforms). A nil slice encodes
// as "[]".
func EncodeImageList(refs []string) string {
	if refs == nil {
		refs = []string{}
	}
	raw, err := json.Marshal(refs)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

// DecodeImageList is the inverse of EncodeImageList with the same leniency as
// BrandImageList.
func DecodeImageList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var refs []string
	if err := json.Unmarshal([]byte(raw), &refs); err != nil {
		return nil
	}
	return refs
}
