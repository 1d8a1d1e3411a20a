// Package dashboard содержит агрегацию показателей платформы: сводную
// статистику и временной ряд количества осмотров с учётом часового пояса.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/car-dano/inspection-backend/internal/cache"
	"github.com/car-dano/inspection-backend/internal/lib/period"
	"github.com/car-dano/inspection-backend/internal/lib/sl"
	"github.com/car-dano/inspection-backend/internal/models"
)

const (
	statsCacheKey = "dashboard:stats"
	trendCacheTTL = time.Minute
	statsCacheTTL = time.Minute
)

// ErrBadRange диапазон временного ряда пуст или вывернут наизнанку.
var ErrBadRange = errors.New("invalid trend range")

// ErrBadTimezone часовой пояс не найден в базе IANA.
var ErrBadTimezone = errors.New("unknown timezone")

// Repository описывает контракт для агрегирующих запросов к базе данных.
type Repository interface {
	CountInspectionsByStatus(ctx context.Context) (map[string]int, error)
	CountUsersByRole(ctx context.Context) (map[string]int, error)
	SumCreditsSold(ctx context.Context) (int, error)
	CountDownloads(ctx context.Context) (int, error)
	CountInspectionsByBucket(ctx context.Context, start, end time.Time, tz, format string) (map[string]int, error)
}

// DashboardService реализует выборку показателей панели управления.
type DashboardService struct {
	repo      Repository
	cache     *cache.Cache
	defaultTZ string
	log       *slog.Logger
}

// NewDashboardService создает новый экземпляр DashboardService.
func NewDashboardService(repo Repository, c *cache.Cache, defaultTZ string, log *slog.Logger) *DashboardService {
	return &DashboardService{repo: repo, cache: c, defaultTZ: defaultTZ, log: log}
}

// Stats возвращает сводные показатели. Результат кешируется на минуту.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	const op = "dashboard.Stats"

	var cached models.DashboardStats
	found, err := s.cache.Get(statsCacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read stats cache", sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	byStatus, err := s.repo.CountInspectionsByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	byRole, err := s.repo.CountUsersByRole(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	creditsSold, err := s.repo.SumCreditsSold(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	downloads, err := s.repo.CountDownloads(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	stats := &models.DashboardStats{
		InspectionsByStatus: byStatus,
		UsersByRole:         byRole,
		CreditsSold:         creditsSold,
		ReportsDownloaded:   downloads,
		NFTsMinted:          byStatus[models.StatusArchived],
	}
	if err := s.cache.Set(statsCacheKey, stats, statsCacheTTL); err != nil {
		s.log.Warn("failed to write stats cache", sl.Err(err))
	}
	return stats, nil
}

// Trend строит временной ряд количества созданных осмотров между start и end.
// Гранулярность подбирается по длине диапазона, пустые корзины заполняются
// нулями, метки считаются в запрошенном часовом поясе.
func (s *DashboardService) Trend(ctx context.Context, start, end time.Time, tz string) (*models.TrendResult, error) {
	const op = "dashboard.Trend"

	if tz == "" {
		tz = s.defaultTZ
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, ErrBadTimezone
	}
	if !start.Before(end) {
		return nil, ErrBadRange
	}

	g := period.Pick(start, end)

	cacheKey := fmt.Sprintf("dashboard:trend:%d:%d:%s:%s", start.Unix(), end.Unix(), tz, g)
	var cached models.TrendResult
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read trend cache", sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	counts, err := s.repo.CountInspectionsByBucket(ctx, start, end, tz, period.SQLFormat(g))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	keys, err := period.Keys(start, end, g, loc)
	if err != nil {
		return nil, ErrBadRange
	}

	buckets := make([]models.TrendBucket, 0, len(keys))
	for _, key := range keys {
		buckets = append(buckets, models.TrendBucket{Key: key, Count: counts[key]})
	}

	result := &models.TrendResult{
		Granularity: string(g),
		Timezone:    tz,
		Buckets:     buckets,
	}
	if err := s.cache.Set(cacheKey, result, trendCacheTTL); err != nil {
		s.log.Warn("failed to write trend cache", sl.Err(err))
	}
	return result, nil
}
