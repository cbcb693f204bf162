package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/amirphl/LinkHub/models"
	"gorm.io/gorm"
)

// ClickRepositoryImpl implements ClickRepository
type ClickRepositoryImpl struct {
	*BaseRepository[models.Click, models.ClickFilter]
}

// NewClickRepository creates a new click repository
func NewClickRepository(db *gorm.DB) ClickRepository {
	return &ClickRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Click, models.ClickFilter](db),
	}
}

// CountsByLink returns the live click count of every link of the user that has clicks
func (r *ClickRepositoryImpl) CountsByLink(ctx context.Context, userID uint) (map[uint]int64, error) {
	db := r.getDB(ctx)

	var rows []struct {
		LinkID uint
		Clicks int64
	}
	err := db.Model(&models.Click{}).
		Select("link_id, COUNT(*) AS clicks").
		Where("user_id = ?", userID).
		Group("link_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count clicks by link: %w", err)
	}

	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.LinkID] = row.Clicks
	}
	return counts, nil
}

// CountDistinctIPs counts distinct client addresses since the given instant
func (r *ClickRepositoryImpl) CountDistinctIPs(ctx context.Context, userID uint, since time.Time) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	err := db.Model(&models.Click{}).
		Where("user_id = ? AND created_at >= ? AND ip_address IS NOT NULL", userID, since.UTC()).
		Distinct("ip_address").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count distinct visitors: %w", err)
	}
	return count, nil
}

// TimestampsSince returns the creation time of every click since the given instant
func (r *ClickRepositoryImpl) TimestampsSince(ctx context.Context, userID uint, since time.Time) ([]time.Time, error) {
	db := r.getDB(ctx)

	var stamps []time.Time
	err := db.Model(&models.Click{}).
		Where("user_id = ? AND created_at >= ?", userID, since.UTC()).
		Order("created_at ASC").
		Pluck("created_at", &stamps).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load click timestamps: %w", err)
	}
	return stamps, nil
}

// GroupBy counts clicks per value of dim, most frequent first
func (r *ClickRepositoryImpl) GroupBy(ctx context.Context, userID uint, dim ClickDimension, since time.Time, skipNull bool, limit int) ([]LabelCount, error) {
	switch dim {
	case DimensionDevice, DimensionBrowser, DimensionOS, DimensionCountry:
	default:
		return nil, fmt.Errorf("unsupported click dimension %q", dim)
	}

	db := r.getDB(ctx)
	col := string(dim)

	query := db.Model(&models.Click{}).
		Select(col+" AS label, COUNT(*) AS clicks").
		Where("user_id = ? AND created_at >= ?", userID, since.UTC())
	if skipNull {
		query = query.Where(col + " IS NOT NULL")
	}
	query = query.Group(col).Order("clicks DESC").Order(col + " ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []LabelCount
	if err := query.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to group clicks by %s: %w", col, err)
	}
	return rows, nil
}

// ListForExport returns the user's clicks since the given instant, newest first
func (r *ClickRepositoryImpl) ListForExport(ctx context.Context, userID uint, since time.Time) ([]*ClickExportRow, error) {
	db := r.getDB(ctx)

	var rows []*ClickExportRow
	err := db.Table("clicks").
		Select("clicks.id AS click_id, clicks.created_at, links.title AS link_title, links.url AS link_url, " +
			"clicks.browser, clicks.os, clicks.device_type, clicks.country, clicks.city, clicks.referrer, clicks.ip_address").
		Joins("JOIN links ON links.id = clicks.link_id").
		Where("clicks.user_id = ? AND clicks.created_at >= ?", userID, since.UTC()).
		Order("clicks.created_at DESC, clicks.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list clicks for export: %w", err)
	}
	return rows, nil
}

// ByFilter retrieves clicks based on filter criteria
func (r *ClickRepositoryImpl) ByFilter(ctx context.Context, filter models.ClickFilter, orderBy string, limit, offset int) ([]*models.Click, error) {
	db := r.getDB(ctx)

	query := paginate(r.applyFilter(db.Model(&models.Click{}), filter), orderBy, limit, offset)

	var clicks []*models.Click
	if err := query.Find(&clicks).Error; err != nil {
		return nil, fmt.Errorf("failed to find clicks by filter: %w", err)
	}
	return clicks, nil
}

// Count counts clicks; CreatedAfter is inclusive and CreatedBefore exclusive
func (r *ClickRepositoryImpl) Count(ctx context.Context, filter models.ClickFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	if err := r.applyFilter(db.Model(&models.Click{}), filter).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count clicks: %w", err)
	}
	return count, nil
}

func (r *ClickRepositoryImpl) Exists(ctx context.Context, filter models.ClickFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ClickRepositoryImpl) applyFilter(query *gorm.DB, filter models.ClickFilter) *gorm.DB {
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.LinkID != nil {
		query = query.Where("link_id = ?", *filter.LinkID)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", filter.CreatedAfter.UTC())
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", filter.CreatedBefore.UTC())
	}
	return query
}
