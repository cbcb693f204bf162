// Package models contains domain entities and business models for LinkHub
package models

import (
	"time"
)

// User owns a public profile and an ordered set of links.
// PasswordHash is nil for accounts created through Google login.
type User struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	Email         string  `gorm:"size:255;not null;uniqueIndex:uk_users_email" json:"email"`
	Username      string  `gorm:"size:20;not null;uniqueIndex:uk_users_username" json:"username"`
	Name          string  `gorm:"size:50;not null" json:"name"`
	Bio           *string `gorm:"size:160" json:"bio,omitempty"`
	Image         *string `gorm:"type:text" json:"image,omitempty"`
	Theme         Theme   `gorm:"size:20;not null" json:"theme"`
	PasswordHash  *string `gorm:"size:255" json:"-"`
	GoogleSubject *string `gorm:"size:255;uniqueIndex:uk_users_google_subject" json:"-"`

	CreatedAt time.Time `gorm:"not null;index:idx_users_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TableName returns the table name for User
func (User) TableName() string { return "users" }

// HasPassword reports whether the account can sign in with a password
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// UserFilter provides filter fields for repository queries
type UserFilter struct {
	ID            *uint
	Email         *string
	Username      *string
	GoogleSubject *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
