package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/amirphl/LinkHub/models"
	"github.com/amirphl/LinkHub/utils"
	"gorm.io/gorm"
)

// display order of a user's links; id breaks position ties
const linkDisplayOrder = "position ASC, id ASC"

// LinkRepositoryImpl implements LinkRepository
type LinkRepositoryImpl struct {
	*BaseRepository[models.Link, models.LinkFilter]
}

// NewLinkRepository creates a new link repository
func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &LinkRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Link, models.LinkFilter](db),
	}
}

// ListByUser returns every link of the user in display order
func (r *LinkRepositoryImpl) ListByUser(ctx context.Context, userID uint) ([]*models.Link, error) {
	return r.ByFilter(ctx, models.LinkFilter{UserID: &userID}, linkDisplayOrder, 0, 0)
}

// ListVisibleByUser returns the links that may appear on the public page at now
func (r *LinkRepositoryImpl) ListVisibleByUser(ctx context.Context, userID uint, now time.Time) ([]*models.Link, error) {
	return r.ByFilter(ctx, models.LinkFilter{UserID: &userID, VisibleAt: &now}, linkDisplayOrder, 0, 0)
}

// ByIDAndUser returns the link only when it belongs to userID
func (r *LinkRepositoryImpl) ByIDAndUser(ctx context.Context, id, userID uint) (*models.Link, error) {
	db := r.getDB(ctx)

	var link models.Link
	err := db.Where("id = ? AND user_id = ?", id, userID).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find link %d: %w", id, err)
	}
	return &link, nil
}

func (r *LinkRepositoryImpl) IDsByUser(ctx context.Context, userID uint) ([]uint, error) {
	db := r.getDB(ctx)

	var ids []uint
	if err := db.Model(&models.Link{}).Where("user_id = ?", userID).Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list link ids: %w", err)
	}
	return ids, nil
}

// MaxPosition returns the highest position of the user's links, nil when there are none
func (r *LinkRepositoryImpl) MaxPosition(ctx context.Context, userID uint) (*int, error) {
	db := r.getDB(ctx)

	var maxPos sql.NullInt64
	row := db.Model(&models.Link{}).Where("user_id = ?", userID).Select("MAX(position)").Row()
	if err := row.Scan(&maxPos); err != nil {
		return nil, fmt.Errorf("failed to read max position: %w", err)
	}
	if !maxPos.Valid {
		return nil, nil
	}
	return utils.ToPtr(int(maxPos.Int64)), nil
}

// DeleteByIDAndUser removes an owned link and its clicks, returning the number of links removed
func (r *LinkRepositoryImpl) DeleteByIDAndUser(ctx context.Context, id, userID uint) (affected int64, err error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return 0, err
	}
	defer finish(db, shouldCommit, &err)

	res := db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Link{})
	if res.Error != nil {
		err = fmt.Errorf("failed to delete link %d: %w", id, res.Error)
		return 0, err
	}
	if res.RowsAffected == 0 {
		return 0, nil
	}

	// engines without enforced foreign keys keep orphaned clicks otherwise
	if err = db.Where("link_id = ?", id).Delete(&models.Click{}).Error; err != nil {
		err = fmt.Errorf("failed to delete clicks of link %d: %w", id, err)
		return 0, err
	}

	return res.RowsAffected, nil
}

// UpdatePosition sets the position of an owned link and reports the rows touched
func (r *LinkRepositoryImpl) UpdatePosition(ctx context.Context, id, userID uint, position int) (int64, error) {
	db := r.getDB(ctx)

	res := db.Model(&models.Link{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{"position": position, "updated_at": utils.UTCNow()})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to update position of link %d: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}

// IncrementClickCount bumps the denormalized click counter by one
func (r *LinkRepositoryImpl) IncrementClickCount(ctx context.Context, id uint) error {
	db := r.getDB(ctx)

	res := db.Model(&models.Link{}).Where("id = ?", id).
		UpdateColumn("click_count", gorm.Expr("click_count + ?", 1))
	if res.Error != nil {
		return fmt.Errorf("failed to increment click count of link %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("failed to increment click count: link %d not found", id)
	}
	return nil
}

// ByFilter retrieves links based on filter criteria
func (r *LinkRepositoryImpl) ByFilter(ctx context.Context, filter models.LinkFilter, orderBy string, limit, offset int) ([]*models.Link, error) {
	db := r.getDB(ctx)

	query := paginate(r.applyFilter(db.Model(&models.Link{}), filter), orderBy, limit, offset)

	var links []*models.Link
	if err := query.Find(&links).Error; err != nil {
		return nil, fmt.Errorf("failed to find links by filter: %w", err)
	}
	return links, nil
}

func (r *LinkRepositoryImpl) Count(ctx context.Context, filter models.LinkFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	if err := r.applyFilter(db.Model(&models.Link{}), filter).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count links: %w", err)
	}
	return count, nil
}

func (r *LinkRepositoryImpl) Exists(ctx context.Context, filter models.LinkFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *LinkRepositoryImpl) applyFilter(query *gorm.DB, filter models.LinkFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Platform != nil {
		query = query.Where("platform = ?", *filter.Platform)
	}
	if filter.VisibleAt != nil {
		at := filter.VisibleAt.UTC()
		query = query.Where("is_active = ?", true).
			Where("(scheduled_at IS NULL OR scheduled_at <= ?)", at).
			Where("(expires_at IS NULL OR expires_at > ?)", at)
	}
	return query
}
