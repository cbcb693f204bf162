package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amirphl/LinkHub/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var pageViewsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "linkhub_page_views_total",
	Help: "Total number of public profile page views recorded",
})

// PageViewStore keeps per-user daily page-view counters
type PageViewStore interface {
	Increment(ctx context.Context, userID uint, day time.Time) (int64, error)
	Count(ctx context.Context, userID uint, day time.Time) (int64, error)
}

type PageViewStoreImpl struct {
	rc        *redis.Client
	prefix    string
	retention time.Duration
}

// NewPageViewStore returns a store backed by redis; a nil client counts nothing
func NewPageViewStore(rc *redis.Client, prefix string) PageViewStore {
	if prefix == "" {
		prefix = "linkhub"
	}
	return &PageViewStoreImpl{rc: rc, prefix: prefix, retention: utils.PageViewRetention}
}

func (s *PageViewStoreImpl) key(userID uint, day time.Time) string {
	return fmt.Sprintf("%s:pageviews:%d:%s", s.prefix, userID, day.UTC().Format(utils.DateLayout))
}

func (s *PageViewStoreImpl) Increment(ctx context.Context, userID uint, day time.Time) (int64, error) {
	pageViewsTotal.Inc()
	if s.rc == nil {
		return 0, nil
	}

	key := s.key(userID, day)
	pipe := s.rc.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.retention)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to record page view: %w", err)
	}
	return incr.Val(), nil
}

func (s *PageViewStoreImpl) Count(ctx context.Context, userID uint, day time.Time) (int64, error) {
	if s.rc == nil {
		return 0, nil
	}
	n, err := s.rc.Get(ctx, s.key(userID, day)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read page views: %w", err)
	}
	return n, nil
}
