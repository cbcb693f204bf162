package dto

import "time"

// CreateLinkRequest represents the body of POST /links
type CreateLinkRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=100" example:"My GitHub"`
	URL         string     `json:"url" validate:"required,url,max=2048" example:"https://github.com/ada"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=200" example:"Open source work"`
	Platform    string     `json:"platform" validate:"required,platform" example:"github"`
	IsActive    *bool      `json:"is_active,omitempty" example:"true"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty" example:"2024-01-15T10:30:00Z"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty" example:"2024-02-15T10:30:00Z"`
}

// UpdateLinkRequest represents the body of PUT /links/:id; omitted is_active keeps the current value
type UpdateLinkRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=100" example:"My GitHub"`
	URL         string     `json:"url" validate:"required,url,max=2048" example:"https://github.com/ada"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=200"`
	Platform    string     `json:"platform" validate:"required,platform" example:"github"`
	IsActive    *bool      `json:"is_active,omitempty" example:"true"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// ReorderLinkItem assigns a new position to one link
type ReorderLinkItem struct {
	ID       uint `json:"id" validate:"required" example:"3"`
	Position int  `json:"position" validate:"min=0" example:"1"`
}

// ReorderLinksRequest must name every link the caller owns exactly once
type ReorderLinksRequest struct {
	Links []ReorderLinkItem `json:"links" validate:"required,dive"`
}

// LinkDTO is a link as seen by its owner
type LinkDTO struct {
	ID           uint       `json:"id" example:"1"`
	Title        string     `json:"title" example:"My GitHub"`
	URL          string     `json:"url" example:"https://github.com/ada"`
	Description  *string    `json:"description,omitempty"`
	Platform     string     `json:"platform" example:"github"`
	Icon         string     `json:"icon" example:"🐙"`
	Position     int        `json:"position" example:"1"`
	IsActive     bool       `json:"is_active" example:"true"`
	ScheduledAt  *time.Time `json:"scheduled_at,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Clicks       int64      `json:"clicks" example:"42"`
	ClickCounter int64      `json:"click_counter" example:"42"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ListLinksResponse wraps the owner's links in display order
type ListLinksResponse struct {
	Links []LinkDTO `json:"links"`
}

// RecordClickRequest represents the click beacon sent when a visitor follows a link
type RecordClickRequest struct {
	LinkID uint `json:"link_id" validate:"required" example:"1"`
	UserID uint `json:"user_id" validate:"required" example:"1"`
}

// RecordClickResponse returns the id of the stored click
type RecordClickResponse struct {
	ClickID uint `json:"click_id" example:"1001"`
}
