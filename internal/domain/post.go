package domain

import "time"

// Post is the central output artifact of a generation run. Provenance is kept
// two ways: the nullable ProductID/MoodID back-references (first match only)
// and the full SourceImages list, which survives product deletion.
type Post struct {
	ID               string
	CampaignID       string
	ProductID        *string
	MoodID           *string
	SourceImages     string // JSON array of every ref actually used
	Headline         string
	BodyText         string
	Caption          string
	TextColor        string
	Image1x1         *string
	Image16x9        *string
	Image9x16        *string
	GenerationPrompt string
	ImageFolder      string
	CreatedAt        time.Time
}

// VariantPath returns the stored path for a ratio token, or nil when that
// variant was not requested.
func (p Post) VariantPath(ratio string) *string {
	switch ratio {
	case "1:1":
		return p.Image1x1
	case "16:9":
		return p.Image16x9
	case "9:16":
		return p.Image9x16
	}
	return nil
}

// SetVariantPath assigns the stored path for a ratio token.
func (p *Post) SetVariantPath(ratio, path string) {
	switch ratio {
	case "1:1":
		p.Image1x1 = &path
	case "16:9":
		p.Image16x9 = &path
	case "9:16":
		p.Image9x16 = &path
	}
}

// FirstVariantPath returns the first populated variant path in the fixed
// 1:1, 16:9, 9:16 order. The scheduling proxy attaches it as post media.
func (p Post) FirstVariantPath() string {
	for _, v := range []*string{p.Image1x1, p.Image16x9, p.Image9x16} {
		if v != nil && *v != "" {
			return *v
		}
	}
	return ""
}
