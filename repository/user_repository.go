package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/LinkHub/models"
	"gorm.io/gorm"
)

// UserRepositoryImpl implements UserRepository
type UserRepositoryImpl struct {
	*BaseRepository[models.User, models.UserFilter]
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &UserRepositoryImpl{
		BaseRepository: NewBaseRepository[models.User, models.UserFilter](db),
	}
}

func (r *UserRepositoryImpl) ByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepositoryImpl) ByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *UserRepositoryImpl) ByGoogleSubject(ctx context.Context, subject string) (*models.User, error) {
	return r.first(ctx, "google_subject = ?", subject)
}

func (r *UserRepositoryImpl) first(ctx context.Context, cond string, arg any) (*models.User, error) {
	db := r.getDB(ctx)

	var user models.User
	err := db.Where(cond, arg).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// ByFilter retrieves users based on filter criteria
func (r *UserRepositoryImpl) ByFilter(ctx context.Context, filter models.UserFilter, orderBy string, limit, offset int) ([]*models.User, error) {
	db := r.getDB(ctx)

	query := paginate(r.applyFilter(db.Model(&models.User{}), filter), orderBy, limit, offset)

	var users []*models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to find users by filter: %w", err)
	}
	return users, nil
}

func (r *UserRepositoryImpl) Count(ctx context.Context, filter models.UserFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	if err := r.applyFilter(db.Model(&models.User{}), filter).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func (r *UserRepositoryImpl) Exists(ctx context.Context, filter models.UserFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *UserRepositoryImpl) applyFilter(query *gorm.DB, filter models.UserFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Email != nil {
		query = query.Where("email = ?", *filter.Email)
	}
	if filter.Username != nil {
		query = query.Where("username = ?", *filter.Username)
	}
	if filter.GoogleSubject != nil {
		query = query.Where("google_subject = ?", *filter.GoogleSubject)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", filter.CreatedAfter.UTC())
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", filter.CreatedBefore.UTC())
	}
	return query
}
