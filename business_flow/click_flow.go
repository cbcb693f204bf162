package businessflow

import (
	"context"
	"fmt"

	"github.com/amirphl/LinkHub/app/dto"
	"github.com/amirphl/LinkHub/app/services"
	"github.com/amirphl/LinkHub/models"
	"github.com/amirphl/LinkHub/repository"
	"github.com/amirphl/LinkHub/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var clicksRecorded = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "linkhub_clicks_recorded_total",
		Help: "Total number of click events by outcome",
	},
	[]string{"result"},
)

// ClickFlow records link visits
type ClickFlow interface {
	RecordClick(ctx context.Context, req *dto.RecordClickRequest, metadata *ClientMetadata) (*dto.RecordClickResponse, error)
	Redirect(ctx context.Context, linkID uint, metadata *ClientMetadata) (string, error)
}

// ClickFlowImpl implements ClickFlow
type ClickFlowImpl struct {
	linkRepo  repository.LinkRepository
	clickRepo repository.ClickRepository
	uaParser  services.UserAgentParser
	geo       services.GeoService
	db        *gorm.DB
}

// NewClickFlow creates a new click flow instance
func NewClickFlow(
	linkRepo repository.LinkRepository,
	clickRepo repository.ClickRepository,
	uaParser services.UserAgentParser,
	geo services.GeoService,
	db *gorm.DB,
) ClickFlow {
	return &ClickFlowImpl{
		linkRepo:  linkRepo,
		clickRepo: clickRepo,
		uaParser:  uaParser,
		geo:       geo,
		db:        db,
	}
}

// RecordClick stores one enriched click and bumps the link counter atomically
func (f *ClickFlowImpl) RecordClick(ctx context.Context, req *dto.RecordClickRequest, metadata *ClientMetadata) (*dto.RecordClickResponse, error) {
	if req == nil || req.LinkID == 0 || req.UserID == 0 {
		clicksRecorded.WithLabelValues("invalid").Inc()
		return nil, NewValidationError("link_id", "link_id and user_id are required")
	}

	link, err := f.linkRepo.ByID(ctx, req.LinkID)
	if err != nil {
		clicksRecorded.WithLabelValues("error").Inc()
		return nil, NewBusinessError("LINK_FETCH_FAILED", "Failed to fetch link", err)
	}
	if link == nil || link.UserID != req.UserID {
		clicksRecorded.WithLabelValues("not_found").Inc()
		return nil, ErrLinkNotFound
	}

	click, err := f.store(ctx, link, metadata)
	if err != nil {
		clicksRecorded.WithLabelValues("error").Inc()
		return nil, err
	}

	clicksRecorded.WithLabelValues("recorded").Inc()
	return &dto.RecordClickResponse{ClickID: click.ID}, nil
}

// Redirect resolves a visible link to its target and records the visit best-effort
func (f *ClickFlowImpl) Redirect(ctx context.Context, linkID uint, metadata *ClientMetadata) (string, error) {
	link, err := f.linkRepo.ByID(ctx, linkID)
	if err != nil {
		return "", NewBusinessError("LINK_FETCH_FAILED", "Failed to fetch link", err)
	}
	if link == nil || !link.IsVisibleAt(utils.UTCNow()) {
		return "", ErrLinkNotFound
	}

	if _, err := f.store(ctx, link, metadata); err != nil {
		clicksRecorded.WithLabelValues("error").Inc()
		log.Warn().Err(err).Uint("link_id", link.ID).Msg("failed to record redirect click")
	} else {
		clicksRecorded.WithLabelValues("recorded").Inc()
	}

	return link.URL, nil
}

func (f *ClickFlowImpl) store(ctx context.Context, link *models.Link, metadata *ClientMetadata) (*models.Click, error) {
	click := f.enrich(link, metadata)

	err := repository.WithTransaction(ctx, f.db, func(ctx context.Context) error {
		if err := f.clickRepo.Save(ctx, click); err != nil {
			return err
		}
		return f.linkRepo.IncrementClickCount(ctx, link.ID)
	})
	if err != nil {
		return nil, NewBusinessError("CLICK_RECORD_FAILED", "Failed to record click", fmt.Errorf("link %d: %w", link.ID, err))
	}

	return click, nil
}

func (f *ClickFlowImpl) enrich(link *models.Link, metadata *ClientMetadata) *models.Click {
	if metadata == nil {
		metadata = &ClientMetadata{}
	}

	client := f.uaParser.Parse(metadata.UserAgent)
	loc := f.geo.Lookup(metadata.IPAddress)

	return &models.Click{
		LinkID:     link.ID,
		UserID:     link.UserID,
		UserAgent:  utils.NilIfEmpty(metadata.UserAgent),
		Browser:    utils.NilIfEmpty(client.Browser),
		OS:         utils.NilIfEmpty(client.OS),
		DeviceType: utils.NilIfEmpty(client.DeviceType),
		IPAddress:  utils.NilIfEmpty(metadata.IPAddress),
		Country:    utils.NilIfEmpty(loc.Country),
		City:       utils.NilIfEmpty(loc.City),
		Referrer:   utils.NilIfEmpty(metadata.Referrer),
		CreatedAt:  utils.UTCNow(),
	}
}
