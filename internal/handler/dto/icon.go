// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/iconforge/iconforge/internal/model"
)

// GenerateIconsRequest represents the request body for generating icons.
type GenerateIconsRequest struct {
	Prompt string `json:"prompt"`
	Color  string `json:"color"`
	// NumberOfIcons defaults to 1 when omitted.
	NumberOfIcons int `json:"number_of_icons,omitempty"`
}

// GeneratedIconResponse represents one generated icon in the response.
type GeneratedIconResponse struct {
	ImageURL string `json:"image_url"`
}

// GenerateIconsResponse represents the response for a generation request.
type GenerateIconsResponse struct {
	Data []GeneratedIconResponse `json:"data"`
}

// IconResponse represents a persisted icon in API responses.
type IconResponse struct {
	ID        string    `json:"id"`
	Prompt    string    `json:"prompt"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// IconListResponse represents a list of icons.
type IconListResponse struct {
	Data []IconResponse `json:"data"`
}

// CommunityIconResponse represents an icon in the public community feed.
// Owner and prompt are withheld; the feed shows images only.
type CommunityIconResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CommunityListResponse represents the community feed response.
type CommunityListResponse struct {
	Data []CommunityIconResponse `json:"data"`
}

// CreditsResponse represents a user's credit balance.
type CreditsResponse struct {
	Credits int `json:"credits"`
}

// CheckoutResponse represents a created checkout session.
type CheckoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ToIconResponse converts an Icon model to IconResponse DTO.
func ToIconResponse(icon *model.Icon) IconResponse {
	return IconResponse{
		ID:        icon.ID,
		Prompt:    icon.Prompt,
		URL:       icon.URL,
		CreatedAt: icon.CreatedAt,
	}
}

// ToIconListResponse converts a slice of Icon models to IconListResponse.
func ToIconListResponse(icons []*model.Icon) IconListResponse {
	responses := make([]IconResponse, len(icons))
	for i, icon := range icons {
		responses[i] = ToIconResponse(icon)
	}
	return IconListResponse{Data: responses}
}

// ToCommunityListResponse converts icons to the public community shape.
func ToCommunityListResponse(icons []*model.Icon) CommunityListResponse {
	responses := make([]CommunityIconResponse, len(icons))
	for i, icon := range icons {
		responses[i] = CommunityIconResponse{
			ID:  icon.ID,
			URL: icon.URL,
		}
	}
	return CommunityListResponse{Data: responses}
}
