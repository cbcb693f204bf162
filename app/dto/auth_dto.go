package dto

import "time"

// SignupRequest represents the request payload for password registration
type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50" example:"Ada Lovelace"`
	Email    string `json:"email" validate:"required,email,max=255" example:"ada@example.com"`
	Password string `json:"password" validate:"required,min=8,max=100" example:"SecurePass123!"`
}

// LoginRequest represents the request payload for password login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255" example:"ada@example.com"`
	Password string `json:"password" validate:"required,min=1,max=100" example:"SecurePass123!"`
}

// RefreshTokenRequest carries a refresh token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// UserDTO is the private view of the authenticated user
type UserDTO struct {
	ID           uint      `json:"id" example:"1"`
	Email        string    `json:"email" example:"ada@example.com"`
	Username     string    `json:"username" example:"ada"`
	Name         string    `json:"name" example:"Ada Lovelace"`
	Bio          *string   `json:"bio,omitempty"`
	Image        *string   `json:"image,omitempty"`
	Theme        string    `json:"theme" example:"default"`
	HasPassword  bool      `json:"has_password" example:"true"`
	GoogleLinked bool      `json:"google_linked" example:"false"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AuthResponse is returned by signup, login, Google login and refresh
type AuthResponse struct {
	AccessToken  string    `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	RefreshToken string    `json:"refresh_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	TokenType    string    `json:"token_type" example:"Bearer"`
	ExpiresIn    int       `json:"expires_in" example:"86400"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         *UserDTO  `json:"user,omitempty"`
}
