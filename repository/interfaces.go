// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/amirphl/LinkHub/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// UserRepository defines operations for users
type UserRepository interface {
	Repository[models.User, models.UserFilter]
	ByEmail(ctx context.Context, email string) (*models.User, error)
	ByUsername(ctx context.Context, username string) (*models.User, error)
	ByGoogleSubject(ctx context.Context, subject string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// LinkRepository defines operations for links
type LinkRepository interface {
	Repository[models.Link, models.LinkFilter]
	ListByUser(ctx context.Context, userID uint) ([]*models.Link, error)
	ListVisibleByUser(ctx context.Context, userID uint, now time.Time) ([]*models.Link, error)
	ByIDAndUser(ctx context.Context, id, userID uint) (*models.Link, error)
	IDsByUser(ctx context.Context, userID uint) ([]uint, error)
	MaxPosition(ctx context.Context, userID uint) (*int, error)
	Update(ctx context.Context, link *models.Link) error
	DeleteByIDAndUser(ctx context.Context, id, userID uint) (int64, error)
	UpdatePosition(ctx context.Context, id, userID uint, position int) (int64, error)
	IncrementClickCount(ctx context.Context, id uint) error
}

// ClickDimension names a categorical click column that analytics may group by
type ClickDimension string

const (
	DimensionDevice  ClickDimension = "device_type"
	DimensionBrowser ClickDimension = "browser"
	DimensionOS      ClickDimension = "os"
	DimensionCountry ClickDimension = "country"
)

// LabelCount is one row of a grouped click count; Label is nil for NULL groups
type LabelCount struct {
	Label  *string
	Clicks int64
}

// ClickExportRow is a click joined with the title and url of its link
type ClickExportRow struct {
	ClickID    uint
	CreatedAt  time.Time
	LinkTitle  string
	LinkURL    string
	Browser    *string
	OS         *string
	DeviceType *string
	Country    *string
	City       *string
	Referrer   *string
	IPAddress  *string
}

// ClickRepository defines operations for click events
type ClickRepository interface {
	Repository[models.Click, models.ClickFilter]
	CountsByLink(ctx context.Context, userID uint) (map[uint]int64, error)
	CountDistinctIPs(ctx context.Context, userID uint, since time.Time) (int64, error)
	TimestampsSince(ctx context.Context, userID uint, since time.Time) ([]time.Time, error)
	GroupBy(ctx context.Context, userID uint, dim ClickDimension, since time.Time, skipNull bool, limit int) ([]LabelCount, error)
	ListForExport(ctx context.Context, userID uint, since time.Time) ([]*ClickExportRow, error)
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.AuditLog, error)
}
