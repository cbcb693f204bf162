package models

import "time"

// Click is an immutable visit event on a link.
// UserID is copied from the link owner so analytics never join through links.
type Click struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	LinkID     uint      `gorm:"not null;index:idx_clicks_link_id" json:"link_id"`
	Link       *Link     `gorm:"foreignKey:LinkID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	UserID     uint      `gorm:"not null;index:idx_clicks_user_created,priority:1" json:"user_id"`
	User       *User     `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	UserAgent  *string   `gorm:"type:text" json:"user_agent,omitempty"`
	Browser    *string   `gorm:"size:100" json:"browser,omitempty"`
	OS         *string   `gorm:"column:os;size:100" json:"os,omitempty"`
	DeviceType *string   `gorm:"size:20" json:"device_type,omitempty"`
	IPAddress  *string   `gorm:"size:64" json:"ip_address,omitempty"`
	Country    *string   `gorm:"size:100" json:"country,omitempty"`
	City       *string   `gorm:"size:100" json:"city,omitempty"`
	Referrer   *string   `gorm:"type:text" json:"referrer,omitempty"`
	CreatedAt  time.Time `gorm:"not null;index:idx_clicks_user_created,priority:2" json:"created_at"`
}

// TableName returns the table name for Click
func (Click) TableName() string { return "clicks" }

// ClickFilter provides filter fields for repository queries
type ClickFilter struct {
	UserID        *uint
	LinkID        *uint
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

// Device type labels
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
)
