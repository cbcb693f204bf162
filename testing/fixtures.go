package testing

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/amirphl/LinkHub/models"
	"github.com/amirphl/LinkHub/utils"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the plain password of every fixture user
const TestPassword = "TestPass123!"

var fixtureSeq atomic.Int64

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateUser inserts a password account with a unique email and username
func (tf *TestFixtures) CreateUser() (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	n := fixtureSeq.Add(1)
	now := utils.UTCNow()
	user := &models.User{
		Email:        fmt.Sprintf("user%d@example.com", n),
		Username:     fmt.Sprintf("user%d", n),
		Name:         fmt.Sprintf("Test User %d", n),
		Theme:        models.ThemeDefault,
		PasswordHash: utils.ToPtr(string(hash)),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tf.DB.DB.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create test user: %w", err)
	}
	return user, nil
}

// LinkOption customizes a fixture link before it is inserted
type LinkOption func(*models.Link)

// WithInactive marks the link inactive
func WithInactive() LinkOption {
	return func(l *models.Link) { l.IsActive = false }
}

// WithSchedule sets the link's visibility window
func WithSchedule(scheduledAt, expiresAt *time.Time) LinkOption {
	return func(l *models.Link) {
		l.ScheduledAt = utils.TimeToUTCPtr(scheduledAt)
		l.ExpiresAt = utils.TimeToUTCPtr(expiresAt)
	}
}

// CreateLink inserts an active link at the given position
func (tf *TestFixtures) CreateLink(userID uint, position int, opts ...LinkOption) (*models.Link, error) {
	now := utils.UTCNow()
	link := &models.Link{
		UserID:    userID,
		Title:     fmt.Sprintf("Link %d", position),
		URL:       fmt.Sprintf("https://example.com/%d/%d", userID, position),
		Platform:  models.PlatformWebsite,
		Position:  position,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(link)
	}
	if err := tf.DB.DB.Create(link).Error; err != nil {
		return nil, fmt.Errorf("failed to create test link: %w", err)
	}
	return link, nil
}

// CreateClick inserts a raw click row at the given instant without touching the link counter
func (tf *TestFixtures) CreateClick(link *models.Link, at time.Time, mutate ...func(*models.Click)) (*models.Click, error) {
	click := &models.Click{
		LinkID:     link.ID,
		UserID:     link.UserID,
		Browser:    utils.ToPtr("Chrome"),
		OS:         utils.ToPtr("Linux"),
		DeviceType: utils.ToPtr("desktop"),
		IPAddress:  utils.ToPtr("203.0.113.10"),
		CreatedAt:  at.UTC(),
	}
	for _, m := range mutate {
		m(click)
	}
	if err := tf.DB.DB.Create(click).Error; err != nil {
		return nil, fmt.Errorf("failed to create test click: %w", err)
	}
	return click, nil
}
