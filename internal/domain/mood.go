package domain

import "time"

// MoodMediaType enumerates mood asset kinds.
type MoodMediaType string

const (
	MoodMediaImage MoodMediaType = "image"
	MoodMediaVideo MoodMediaType = "video"
)

// MoodMedia is a generated-or-uploaded asset attached to a campaign but not to
// any specific product. Mood images double as alternative creative sources for
// post generation.
type MoodMedia struct {
	ID                 string
	CampaignID         string
	FilePath           string
	MediaType          MoodMediaType
	IsGenerated        bool
	Prompt             string
	SourceImages       string // JSON array of refs used during generation
	AspectRatio        string
	GenerationMetadata string
	CreatedAt          time.Time
}
