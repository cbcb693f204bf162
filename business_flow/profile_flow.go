package businessflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/amirphl/LinkHub/app/dto"
	"github.com/amirphl/LinkHub/app/services"
	"github.com/amirphl/LinkHub/models"
	"github.com/amirphl/LinkHub/repository"
	"github.com/amirphl/LinkHub/utils"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ProfileFlow handles the owner's profile settings and dashboard
type ProfileFlow interface {
	GetProfile(ctx context.Context, userID uint) (*dto.UserDTO, error)
	UpdateProfile(ctx context.Context, userID uint, req *dto.UpdateProfileRequest, metadata *ClientMetadata) (*dto.UserDTO, error)
	Dashboard(ctx context.Context, userID uint) (*dto.DashboardResponse, error)
	UploadAvatar(ctx context.Context, userID uint, file io.Reader, metadata *ClientMetadata) (*dto.AvatarResponse, error)
}

// ProfileFlowImpl implements ProfileFlow
type ProfileFlowImpl struct {
	userRepo      repository.UserRepository
	linkRepo      repository.LinkRepository
	clickRepo     repository.ClickRepository
	avatars       services.AvatarStore
	audit         auditLogger
	validate      *validator.Validate
	publicBaseURL string
}

// NewProfileFlow creates a new profile flow instance
func NewProfileFlow(
	userRepo repository.UserRepository,
	linkRepo repository.LinkRepository,
	clickRepo repository.ClickRepository,
	auditRepo repository.AuditLogRepository,
	avatars services.AvatarStore,
	publicBaseURL string,
) ProfileFlow {
	return &ProfileFlowImpl{
		userRepo:      userRepo,
		linkRepo:      linkRepo,
		clickRepo:     clickRepo,
		avatars:       avatars,
		audit:         auditLogger{repo: auditRepo},
		validate:      NewValidator(),
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (f *ProfileFlowImpl) GetProfile(ctx context.Context, userID uint) (*dto.UserDTO, error) {
	user, err := f.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := ToUserDTO(user)
	return &out, nil
}

func (f *ProfileFlowImpl) UpdateProfile(ctx context.Context, userID uint, req *dto.UpdateProfileRequest, metadata *ClientMetadata) (*dto.UserDTO, error) {
	if req == nil {
		return nil, NewValidationError("body", "is required")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Username = strings.TrimSpace(req.Username)
	if req.Bio != nil {
		req.Bio = utils.ToPtr(strings.TrimSpace(*req.Bio))
	}
	if err := validateStruct(f.validate, req); err != nil {
		return nil, err
	}

	user, err := f.user(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Username != user.Username {
		holder, err := f.userRepo.ByUsername(ctx, req.Username)
		if err != nil {
			return nil, NewBusinessError("USER_FETCH_FAILED", "Failed to check username", err)
		}
		if holder != nil && holder.ID != user.ID {
			return nil, ErrUsernameTaken
		}
	}

	user.Name = req.Name
	user.Username = req.Username
	user.Bio = nil
	if req.Bio != nil && *req.Bio != "" {
		user.Bio = req.Bio
	}
	user.Theme = models.Theme(req.Theme)
	user.UpdatedAt = utils.UTCNow()

	if err := f.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, NewBusinessError("USER_UPDATE_FAILED", "Failed to update profile", err)
	}

	f.audit.record(ctx, &user.ID, models.AuditActionProfileUpdated, fmt.Sprintf("User %d updated profile", user.ID), true, nil, metadata)

	out := ToUserDTO(user)
	return &out, nil
}

func (f *ProfileFlowImpl) Dashboard(ctx context.Context, userID uint) (*dto.DashboardResponse, error) {
	user, err := f.user(ctx, userID)
	if err != nil {
		return nil, err
	}

	links, err := f.linkRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("LINK_LIST_FAILED", "Failed to list links", err)
	}
	counts, err := f.clickRepo.CountsByLink(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("CLICK_COUNT_FAILED", "Failed to count clicks", err)
	}

	return &dto.DashboardResponse{
		User:  ToUserDTO(user),
		Links: toLinkDTOs(links, counts),
	}, nil
}

// UploadAvatar stores a normalized copy of the image and points the profile at it
func (f *ProfileFlowImpl) UploadAvatar(ctx context.Context, userID uint, file io.Reader, metadata *ClientMetadata) (*dto.AvatarResponse, error) {
	if file == nil {
		return nil, NewValidationError("avatar", "is required")
	}

	user, err := f.user(ctx, userID)
	if err != nil {
		return nil, err
	}

	path, err := f.avatars.Save(user.ID, file)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAvatarTooLarge):
			return nil, NewValidationError("avatar", "must be at most 5MB")
		case errors.Is(err, services.ErrAvatarUnsupported):
			return nil, NewValidationError("avatar", "must be a png, jpeg, gif or webp image")
		default:
			return nil, NewBusinessError("AVATAR_SAVE_FAILED", "Failed to store avatar", err)
		}
	}

	previous := user.Image
	user.Image = utils.ToPtr(f.publicBaseURL + path)
	user.UpdatedAt = utils.UTCNow()

	if err := f.userRepo.Update(ctx, user); err != nil {
		if rmErr := f.avatars.Remove(path); rmErr != nil {
			log.Warn().Err(rmErr).Uint("user_id", user.ID).Msg("failed to remove orphaned avatar")
		}
		return nil, NewBusinessError("USER_UPDATE_FAILED", "Failed to update avatar", err)
	}

	if previous != nil && strings.Contains(*previous, services.AvatarURLPrefix) {
		if err := f.avatars.Remove(*previous); err != nil {
			log.Warn().Err(err).Uint("user_id", user.ID).Msg("failed to remove previous avatar")
		}
	}

	f.audit.record(ctx, &user.ID, models.AuditActionAvatarUpdated, fmt.Sprintf("User %d uploaded avatar", user.ID), true, nil, metadata)

	return &dto.AvatarResponse{Image: *user.Image}, nil
}

func (f *ProfileFlowImpl) user(ctx context.Context, userID uint) (*models.User, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	user, err := f.userRepo.ByID(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("USER_FETCH_FAILED", "Failed to fetch user", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
