package models

import "time"

// PhotoRef points at an asset on the image host. PublicID is the handle
// needed to destroy it.
type PhotoRef struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

// Photo is an album upload.
type Photo struct {
	ID         string    `json:"id" db:"id"`
	URL        string    `json:"url" db:"url"`
	PublicID   string    `json:"public_id" db:"public_id"`
	Category   string    `json:"category" db:"category"`
	UploadedBy string    `json:"uploadedBy" db:"uploaded_by"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// DefaultPhotoCategory is used when an upload names no category
const DefaultPhotoCategory = "general"
