package httpdto

import (
	"time"

	"github.com/google/uuid"

	"gebeya-market/internal/domain/listing"
)

type CategoryResponse struct {
	ID   uuid.UUID `json:"id"`
	Slug string    `json:"slug"`
	Name string    `json:"name"`
}

func NewCategoryResponse(c listing.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID, Slug: c.Slug, Name: c.Name}
}

type ListingResponse struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	CategoryID   uuid.UUID  `json:"category_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Price        float64    `json:"price"`
	Condition    string     `json:"condition,omitempty"`
	IsNegotiable bool       `json:"is_negotiable"`
	City         string     `json:"city"`
	Area         string     `json:"area,omitempty"`
	Images       []string   `json:"images"`
	Status       string     `json:"status"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func NewListingResponse(l listing.Listing) ListingResponse {
	resp := ListingResponse{
		ID:           l.ID,
		UserID:       l.UserID,
		CategoryID:   l.CategoryID,
		Title:        l.Title,
		Description:  l.Description,
		Price:        l.Price,
		Condition:    l.Condition,
		IsNegotiable: l.IsNegotiable,
		City:         l.City,
		Area:         l.Area.String,
		Images:       l.Images,
		Status:       l.Status,
		CreatedAt:    l.CreatedAt,
	}
	if resp.Images == nil {
		resp.Images = []string{}
	}
	if l.ExpiresAt.Valid {
		expires := l.ExpiresAt.Time
		resp.ExpiresAt = &expires
	}
	return resp
}

func NewListingResponses(listings []listing.Listing) []ListingResponse {
	out := make([]ListingResponse, 0, len(listings))
	for _, l := range listings {
		out = append(out, NewListingResponse(l))
	}
	return out
}

type CreateListingRequest struct {
	CategoryID   uuid.UUID `json:"category_id" binding:"required"`
	Title        string    `json:"title" binding:"required"`
	Description  string    `json:"description"`
	Price        float64   `json:"price"`
	Condition    string    `json:"condition"`
	IsNegotiable bool      `json:"is_negotiable"`
	City         string    `json:"city"`
	Area         string    `json:"area"`
	Images       []string  `json:"images"`
}

type UpdateListingRequest struct {
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	Price        *float64 `json:"price"`
	Condition    *string  `json:"condition"`
	IsNegotiable *bool    `json:"is_negotiable"`
	Area         *string  `json:"area"`
	Images       []string `json:"images"`
}

type UpdateListingStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
