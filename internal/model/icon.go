// Package model defines domain entities for the application.
package model

import "time"

// Icon is the persisted record of one generated image. Rows are immutable
// once written; the URL is derived from the icon ID before upload.
type Icon struct {
	ID        string    `json:"id"`
	Prompt    string    `json:"prompt"`
	URL       string    `json:"url"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}
