package service

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/civil"
	"github.com/patrickmn/go-cache"

	"github.com/guttosm/econpulse/internal/domain/models"
	"github.com/guttosm/econpulse/internal/logger"
	"github.com/guttosm/econpulse/internal/storage"
)

const (
	DefaultHistoryDays  = 30
	DefaultHistoryLimit = 100
	MaxHistoryLimit     = 1000

	latestStatsKey = "stats:latest"
)

// ErrIndicatorNotFound is returned when the requested code has no indicator row.
var ErrIndicatorNotFound = errors.New("indicator not found")

// LatestStats is a point-in-time view of the newest value per indicator.
type LatestStats struct {
	Timestamp time.Time
	Values    []models.LatestValue
}

// History is the value series of one indicator, newest first.
type History struct {
	Indicator models.Indicator
	Values    []models.IndicatorValue
}

// IndicatorService defines the read-side use cases over stored indicators.
type IndicatorService interface {
	ListIndicators(ctx context.Context) ([]models.LatestValue, error)
	GetIndicator(ctx context.Context, code string) (*models.LatestValue, error)
	GetHistory(ctx context.Context, code string, days, limit int) (*History, error)
	LatestStats(ctx context.Context) (*LatestStats, error)
	// Invalidate drops cached results, e.g. after a pipeline run.
	Invalidate()
}

type indicatorService struct {
	repo  storage.IndicatorsRepository
	cache *cache.Cache
	now   func() time.Time
}

// NewIndicatorService builds the service. LatestStats results are cached for
// ttl; a ttl <= 0 disables caching.
func NewIndicatorService(repo storage.IndicatorsRepository, ttl time.Duration) IndicatorService {
	var c *cache.Cache
	if ttl > 0 {
		c = cache.New(ttl, 2*ttl)
	}
	return &indicatorService{repo: repo, cache: c, now: time.Now}
}

func (s *indicatorService) ListIndicators(ctx context.Context) ([]models.LatestValue, error) {
	return s.repo.ListWithLatest(ctx)
}

func (s *indicatorService) GetIndicator(ctx context.Context, code string) (*models.LatestValue, error) {
	lv, err := s.repo.LatestValue(ctx, code)
	if err != nil {
		return nil, err
	}
	if lv == nil {
		return nil, ErrIndicatorNotFound
	}
	return lv, nil
}

// GetHistory returns values dated on or after today-days (UTC), newest
// first. days < 0 falls back to the default window; limit is clamped to
// 1..MaxHistoryLimit.
func (s *indicatorService) GetHistory(ctx context.Context, code string, days, limit int) (*History, error) {
	if days < 0 {
		days = DefaultHistoryDays
	}
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}

	ind, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if ind == nil {
		return nil, ErrIndicatorNotFound
	}

	from := civil.DateOf(s.now().UTC()).AddDays(-days)
	values, err := s.repo.History(ctx, code, from, limit)
	if err != nil {
		return nil, err
	}
	return &History{Indicator: *ind, Values: values}, nil
}

func (s *indicatorService) LatestStats(ctx context.Context) (*LatestStats, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(latestStatsKey); ok {
			return v.(*LatestStats), nil
		}
	}

	values, err := s.repo.LatestStats(ctx)
	if err != nil {
		return nil, err
	}
	stats := &LatestStats{Timestamp: s.now().UTC(), Values: values}
	if s.cache != nil {
		s.cache.SetDefault(latestStatsKey, stats)
	}
	return stats, nil
}

func (s *indicatorService) Invalidate() {
	if s.cache == nil {
		return
	}
	s.cache.Flush()
	logger.L().Debug().Msg("indicator cache flushed")
}
