// Package dto contains Data Transfer Objects for API request and response structures
package dto

// APIResponse represents the standard API response structure
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   any    `json:"error,omitempty"`
}

// ErrorDetail represents error details in API responses
type ErrorDetail struct {
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// FieldError describes one invalid request field
type FieldError struct {
	Field   string `json:"field" example:"title"`
	Message string `json:"message" example:"title is required"`
}
