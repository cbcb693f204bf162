package models

import "time"

// Link is one outbound link on a user's page.
// Position orders links ascending; ties fall back to ID.
// ClickCount is a denormalized counter bumped in the same transaction as each click insert.
type Link struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;index:idx_links_user_position,priority:1" json:"user_id"`
	User        *User      `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	Title       string     `gorm:"size:100;not null" json:"title"`
	URL         string     `gorm:"type:text;not null" json:"url"`
	Description *string    `gorm:"size:200" json:"description,omitempty"`
	Platform    Platform   `gorm:"size:20;not null" json:"platform"`
	Position    int        `gorm:"not null;index:idx_links_user_position,priority:2" json:"position"`
	IsActive    bool       `gorm:"not null" json:"is_active"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	ClickCount  int64      `gorm:"not null;default:0" json:"click_count"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TableName returns the table name for Link
func (Link) TableName() string { return "links" }

// IsVisibleAt reports whether the link may appear on the public page at now
func (l *Link) IsVisibleAt(now time.Time) bool {
	if !l.IsActive {
		return false
	}
	if l.ScheduledAt != nil && l.ScheduledAt.After(now) {
		return false
	}
	if l.ExpiresAt != nil && !l.ExpiresAt.After(now) {
		return false
	}
	return true
}

// LinkFilter provides filter fields for repository queries
type LinkFilter struct {
	ID       *uint
	UserID   *uint
	IsActive *bool
	Platform *Platform
	// VisibleAt restricts results to links visible at the given instant
	VisibleAt *time.Time
}

// Platform tags a link with the service it points to
type Platform string

const (
	PlatformGithub    Platform = "github"
	PlatformYoutube   Platform = "youtube"
	PlatformTwitter   Platform = "twitter"
	PlatformLinkedin  Platform = "linkedin"
	PlatformInstagram Platform = "instagram"
	PlatformTiktok    Platform = "tiktok"
	PlatformWebsite   Platform = "website"
	PlatformOther     Platform = "other"
)

var platformIcons = map[Platform]string{
	PlatformGithub:    "🐙",
	PlatformYoutube:   "📺",
	PlatformTwitter:   "🐦",
	PlatformLinkedin:  "💼",
	PlatformInstagram: "📷",
	PlatformTiktok:    "🎵",
	PlatformWebsite:   "🌐",
	PlatformOther:     "🔗",
}

// Platforms lists every accepted platform value
func Platforms() []Platform {
	return []Platform{
		PlatformGithub, PlatformYoutube, PlatformTwitter, PlatformLinkedin,
		PlatformInstagram, PlatformTiktok, PlatformWebsite, PlatformOther,
	}
}

func (p Platform) IsValid() bool {
	_, ok := platformIcons[p]
	return ok
}

// Icon returns the display glyph for the platform
func (p Platform) Icon() string {
	if icon, ok := platformIcons[p]; ok {
		return icon
	}
	return platformIcons[PlatformOther]
}
