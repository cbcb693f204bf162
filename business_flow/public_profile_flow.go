package businessflow

import (
	"context"
	"strings"

	"github.com/amirphl/LinkHub/app/dto"
	"github.com/amirphl/LinkHub/app/services"
	"github.com/amirphl/LinkHub/models"
	"github.com/amirphl/LinkHub/repository"
	"github.com/amirphl/LinkHub/utils"
	"github.com/rs/zerolog/log"
)

// PublicProfileFlow serves the anonymous side of LinkHub
type PublicProfileFlow interface {
	ResolveProfile(ctx context.Context, username string) (*dto.PublicProfileResponse, error)
	UsernameAvailable(ctx context.Context, username string) (*dto.UsernameAvailabilityResponse, error)
	ProfileQRCode(ctx context.Context, username string, size int) ([]byte, error)
	RecordPageView(ctx context.Context, req *dto.RecordPageViewRequest) (*dto.RecordPageViewResponse, error)
}

// PublicProfileFlowImpl implements PublicProfileFlow
type PublicProfileFlowImpl struct {
	userRepo      repository.UserRepository
	linkRepo      repository.LinkRepository
	pageViews     services.PageViewStore
	qr            services.QRCodeGenerator
	publicBaseURL string
}

// NewPublicProfileFlow creates a new public profile flow instance
func NewPublicProfileFlow(
	userRepo repository.UserRepository,
	linkRepo repository.LinkRepository,
	pageViews services.PageViewStore,
	qr services.QRCodeGenerator,
	publicBaseURL string,
) PublicProfileFlow {
	return &PublicProfileFlowImpl{
		userRepo:      userRepo,
		linkRepo:      linkRepo,
		pageViews:     pageViews,
		qr:            qr,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (f *PublicProfileFlowImpl) ResolveProfile(ctx context.Context, username string) (*dto.PublicProfileResponse, error) {
	user, err := f.findUser(ctx, username)
	if err != nil {
		return nil, err
	}

	now := utils.UTCNow()
	links, err := f.linkRepo.ListVisibleByUser(ctx, user.ID, now)
	if err != nil {
		return nil, NewBusinessError("LINK_LIST_FAILED", "Failed to list links", err)
	}

	visible := make([]dto.PublicLinkDTO, 0, len(links))
	for _, l := range links {
		if !l.IsVisibleAt(now) {
			continue
		}
		visible = append(visible, dto.PublicLinkDTO{
			ID:          l.ID,
			Title:       l.Title,
			URL:         l.URL,
			Description: l.Description,
			Platform:    string(l.Platform),
			Icon:        l.Platform.Icon(),
			Position:    l.Position,
		})
	}

	style := user.Theme.Style()
	return &dto.PublicProfileResponse{
		User: dto.PublicUserDTO{
			ID:       user.ID,
			Name:     user.Name,
			Username: user.Username,
			Bio:      user.Bio,
			Image:    user.Image,
			Theme:    string(user.Theme),
		},
		Links: visible,
		ThemeStyle: dto.ThemeStyleDTO{
			Background: style.Background,
			Card:       style.Card,
			Text:       style.Text,
			Accent:     style.Accent,
			Border:     style.Border,
		},
		ProfileURL: f.profileURL(user.Username),
	}, nil
}

func (f *PublicProfileFlowImpl) UsernameAvailable(ctx context.Context, username string) (*dto.UsernameAvailabilityResponse, error) {
	username = strings.TrimSpace(username)
	resp := &dto.UsernameAvailabilityResponse{Username: username}

	if !IsValidUsername(username) {
		resp.Reason = "invalid"
		return resp, nil
	}

	existing, err := f.userRepo.ByUsername(ctx, username)
	if err != nil {
		return nil, NewBusinessError("USER_FETCH_FAILED", "Failed to check username", err)
	}
	if existing != nil {
		resp.Reason = "taken"
		return resp, nil
	}

	resp.Available = true
	return resp, nil
}

func (f *PublicProfileFlowImpl) ProfileQRCode(ctx context.Context, username string, size int) ([]byte, error) {
	user, err := f.findUser(ctx, username)
	if err != nil {
		return nil, err
	}

	png, err := f.qr.PNG(f.profileURL(user.Username), size)
	if err != nil {
		return nil, NewBusinessError("QR_ENCODE_FAILED", "Failed to render QR code", err)
	}
	return png, nil
}

func (f *PublicProfileFlowImpl) RecordPageView(ctx context.Context, req *dto.RecordPageViewRequest) (*dto.RecordPageViewResponse, error) {
	if req == nil || req.UserID == 0 {
		return nil, NewValidationError("user_id", "is required")
	}

	user, err := f.userRepo.ByID(ctx, req.UserID)
	if err != nil {
		return nil, NewBusinessError("USER_FETCH_FAILED", "Failed to fetch user", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	n, err := f.pageViews.Increment(ctx, user.ID, utils.UTCNow())
	if err != nil {
		log.Warn().Err(err).Uint("user_id", user.ID).Msg("failed to record page view")
		return &dto.RecordPageViewResponse{}, nil
	}
	return &dto.RecordPageViewResponse{PageViewsToday: n}, nil
}

func (f *PublicProfileFlowImpl) findUser(ctx context.Context, username string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrUserNotFound
	}

	user, err := f.userRepo.ByUsername(ctx, username)
	if err != nil {
		return nil, NewBusinessError("USER_FETCH_FAILED", "Failed to fetch user", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (f *PublicProfileFlowImpl) profileURL(username string) string {
	return f.publicBaseURL + "/" + username
}
