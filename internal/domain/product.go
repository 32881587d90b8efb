package domain

import "time"

// Product belongs to exactly one campaign. Posts keep their own denormalized
// source-image list, so deleting a product never corrupts historical posts.
type Product struct {
	ID          string
	CampaignID  string
	Name        string
	Description string
	ImagePath   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
