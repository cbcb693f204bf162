package businessflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/amirphl/LinkHub/app/dto"
	"github.com/amirphl/LinkHub/models"
	"github.com/amirphl/LinkHub/repository"
	"github.com/amirphl/LinkHub/utils"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// LinkFlow manages the ordered link collection of a user
type LinkFlow interface {
	ListLinks(ctx context.Context, userID uint) (*dto.ListLinksResponse, error)
	CreateLink(ctx context.Context, userID uint, req *dto.CreateLinkRequest) (*dto.LinkDTO, error)
	UpdateLink(ctx context.Context, userID, linkID uint, req *dto.UpdateLinkRequest) (*dto.LinkDTO, error)
	DeleteLink(ctx context.Context, userID, linkID uint, metadata *ClientMetadata) error
	ReorderLinks(ctx context.Context, userID uint, req *dto.ReorderLinksRequest, metadata *ClientMetadata) (*dto.ListLinksResponse, error)
}

// LinkFlowImpl implements LinkFlow
type LinkFlowImpl struct {
	linkRepo  repository.LinkRepository
	clickRepo repository.ClickRepository
	audit     auditLogger
	validate  *validator.Validate
	db        *gorm.DB
}

// NewLinkFlow creates a new link flow instance
func NewLinkFlow(
	linkRepo repository.LinkRepository,
	clickRepo repository.ClickRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
) LinkFlow {
	return &LinkFlowImpl{
		linkRepo:  linkRepo,
		clickRepo: clickRepo,
		audit:     auditLogger{repo: auditRepo},
		validate:  NewValidator(),
		db:        db,
	}
}

func (f *LinkFlowImpl) ListLinks(ctx context.Context, userID uint) (*dto.ListLinksResponse, error) {
	links, err := f.linkRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("LINK_LIST_FAILED", "Failed to list links", err)
	}

	counts, err := f.clickRepo.CountsByLink(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("CLICK_COUNT_FAILED", "Failed to count clicks", err)
	}

	return &dto.ListLinksResponse{Links: toLinkDTOs(links, counts)}, nil
}

func (f *LinkFlowImpl) CreateLink(ctx context.Context, userID uint, req *dto.CreateLinkRequest) (*dto.LinkDTO, error) {
	if req == nil {
		return nil, NewValidationError("body", "is required")
	}
	normalizeLinkFields(&req.Title, &req.URL, &req.Description)
	if err := f.validateLink(req, req.ScheduledAt, req.ExpiresAt); err != nil {
		return nil, err
	}

	maxPos, err := f.linkRepo.MaxPosition(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("LINK_POSITION_FAILED", "Failed to compute link position", err)
	}
	position := 1
	if maxPos != nil {
		position = *maxPos + 1
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	now := utils.UTCNow()
	link := &models.Link{
		UserID:      userID,
		Title:       req.Title,
		URL:         req.URL,
		Description: req.Description,
		Platform:    models.Platform(req.Platform),
		Position:    position,
		IsActive:    isActive,
		ScheduledAt: utils.TimeToUTCPtr(req.ScheduledAt),
		ExpiresAt:   utils.TimeToUTCPtr(req.ExpiresAt),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := f.linkRepo.Save(ctx, link); err != nil {
		return nil, NewBusinessError("LINK_CREATE_FAILED", "Failed to create link", err)
	}

	log.Info().Uint("user_id", userID).Uint("link_id", link.ID).Int("position", position).Msg("link created")

	out := ToLinkDTO(link, 0)
	return &out, nil
}

func (f *LinkFlowImpl) UpdateLink(ctx context.Context, userID, linkID uint, req *dto.UpdateLinkRequest) (*dto.LinkDTO, error) {
	if req == nil {
		return nil, NewValidationError("body", "is required")
	}
	normalizeLinkFields(&req.Title, &req.URL, &req.Description)
	if err := f.validateLink(req, req.ScheduledAt, req.ExpiresAt); err != nil {
		return nil, err
	}

	link, err := f.linkRepo.ByIDAndUser(ctx, linkID, userID)
	if err != nil {
		return nil, NewBusinessError("LINK_FETCH_FAILED", "Failed to fetch link", err)
	}
	if link == nil {
		return nil, ErrLinkNotFound
	}

	link.Title = req.Title
	link.URL = req.URL
	link.Description = req.Description
	link.Platform = models.Platform(req.Platform)
	if req.IsActive != nil {
		link.IsActive = *req.IsActive
	}
	link.ScheduledAt = utils.TimeToUTCPtr(req.ScheduledAt)
	link.ExpiresAt = utils.TimeToUTCPtr(req.ExpiresAt)
	link.UpdatedAt = utils.UTCNow()

	if err := f.linkRepo.Update(ctx, link); err != nil {
		return nil, NewBusinessError("LINK_UPDATE_FAILED", "Failed to update link", err)
	}

	clicks, err := f.clickRepo.Count(ctx, models.ClickFilter{LinkID: &link.ID})
	if err != nil {
		return nil, NewBusinessError("CLICK_COUNT_FAILED", "Failed to count clicks", err)
	}

	out := ToLinkDTO(link, clicks)
	return &out, nil
}

func (f *LinkFlowImpl) DeleteLink(ctx context.Context, userID, linkID uint, metadata *ClientMetadata) error {
	affected, err := f.linkRepo.DeleteByIDAndUser(ctx, linkID, userID)
	if err != nil {
		return NewBusinessError("LINK_DELETE_FAILED", "Failed to delete link", err)
	}
	if affected == 0 {
		return ErrLinkNotFound
	}

	f.audit.record(ctx, &userID, models.AuditActionLinkDeleted, fmt.Sprintf("Link %d deleted", linkID), true, nil, metadata)
	return nil
}

// ReorderLinks applies every position in one transaction once the id set matches the owned set exactly
func (f *LinkFlowImpl) ReorderLinks(ctx context.Context, userID uint, req *dto.ReorderLinksRequest, metadata *ClientMetadata) (*dto.ListLinksResponse, error) {
	if req == nil {
		return nil, NewValidationError("links", "is required")
	}
	if err := validateStruct(f.validate, req); err != nil {
		return nil, err
	}

	requested := make(map[uint]struct{}, len(req.Links))
	for _, item := range req.Links {
		if _, dup := requested[item.ID]; dup {
			return nil, NewValidationError("links", fmt.Sprintf("link %d appears more than once", item.ID))
		}
		requested[item.ID] = struct{}{}
	}

	err := repository.WithTransaction(ctx, f.db, func(ctx context.Context) error {
		owned, err := f.linkRepo.IDsByUser(ctx, userID)
		if err != nil {
			return NewBusinessError("LINK_LIST_FAILED", "Failed to list links", err)
		}
		if !sameIDSet(owned, requested) {
			return ErrLinkSetMismatch
		}

		for _, item := range req.Links {
			affected, err := f.linkRepo.UpdatePosition(ctx, item.ID, userID, item.Position)
			if err != nil {
				return NewBusinessError("LINK_REORDER_FAILED", "Failed to reorder links", err)
			}
			if affected != 1 {
				return NewBusinessError("LINK_REORDER_FAILED", "Failed to reorder links", fmt.Errorf("link %d updated %d rows", item.ID, affected))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	f.audit.record(ctx, &userID, models.AuditActionLinksReordered, fmt.Sprintf("%d links reordered", len(req.Links)), true, nil, metadata)

	return f.ListLinks(ctx, userID)
}

func (f *LinkFlowImpl) validateLink(req any, scheduledAt, expiresAt *time.Time) error {
	if err := validateStruct(f.validate, req); err != nil {
		return err
	}
	if scheduledAt != nil && expiresAt != nil && !expiresAt.After(*scheduledAt) {
		return NewValidationError("expires_at", "must be after scheduled_at")
	}
	return nil
}

func normalizeLinkFields(title, url *string, description **string) {
	*title = strings.TrimSpace(*title)
	*url = strings.TrimSpace(*url)
	if *description != nil {
		*description = utils.NilIfEmpty(strings.TrimSpace(**description))
	}
}

func sameIDSet(owned []uint, requested map[uint]struct{}) bool {
	if len(owned) != len(requested) {
		return false
	}
	for _, id := range owned {
		if _, ok := requested[id]; !ok {
			return false
		}
	}
	return true
}
