package dashboard

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/car-dano/inspection-backend/internal/cache"
	"github.com/car-dano/inspection-backend/internal/models"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CountInspectionsByStatus(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockRepository) CountUsersByRole(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockRepository) SumCreditsSold(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) CountDownloads(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) CountInspectionsByBucket(ctx context.Context, start, end time.Time, tz, format string) (map[string]int, error) {
	args := m.Called(ctx, start, end, tz, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	return &cache.Cache{Db: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStats_AggregatesAndCaches(t *testing.T) {
	repo := new(MockRepository)
	svc := NewDashboardService(repo, newTestCache(t), "Asia/Jakarta", discardLogger())

	repo.On("CountInspectionsByStatus", mock.Anything).Return(map[string]int{
		models.StatusNeedReview: 3,
		models.StatusArchived:   7,
	}, nil).Once()
	repo.On("CountUsersByRole", mock.Anything).Return(map[string]int{
		models.RoleInspector: 4,
	}, nil).Once()
	repo.On("SumCreditsSold", mock.Anything).Return(120, nil).Once()
	repo.On("CountDownloads", mock.Anything).Return(55, nil).Once()

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, stats.NFTsMinted)
	assert.Equal(t, 120, stats.CreditsSold)
	assert.Equal(t, 55, stats.ReportsDownloaded)

	// второй вызов идёт из кеша
	again, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, stats.NFTsMinted, again.NFTsMinted)
	repo.AssertNumberOfCalls(t, "CountInspectionsByStatus", 1)
}

func TestTrend_DailyZeroFill(t *testing.T) {
	repo := new(MockRepository)
	svc := NewDashboardService(repo, newTestCache(t), "Asia/Jakarta", discardLogger())

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)

	repo.On("CountInspectionsByBucket", mock.Anything, start, end, "UTC", "YYYY-MM-DD").
		Return(map[string]int{
			"2025-06-01": 2,
			"2025-06-03": 5,
		}, nil)

	result, err := svc.Trend(context.Background(), start, end, "UTC")

	require.NoError(t, err)
	assert.Equal(t, "day", result.Granularity)
	require.Len(t, result.Buckets, 3)
	assert.Equal(t, models.TrendBucket{Key: "2025-06-01", Count: 2}, result.Buckets[0])
	assert.Equal(t, models.TrendBucket{Key: "2025-06-02", Count: 0}, result.Buckets[1])
	assert.Equal(t, models.TrendBucket{Key: "2025-06-03", Count: 5}, result.Buckets[2])
}

func TestTrend_DefaultTimezone(t *testing.T) {
	repo := new(MockRepository)
	svc := NewDashboardService(repo, newTestCache(t), "Asia/Jakarta", discardLogger())

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)

	repo.On("CountInspectionsByBucket", mock.Anything, start, end, "Asia/Jakarta", "YYYY-MM-DD HH24:00").
		Return(map[string]int{}, nil)

	result, err := svc.Trend(context.Background(), start, end, "")

	require.NoError(t, err)
	assert.Equal(t, "hour", result.Granularity)
	assert.Equal(t, "Asia/Jakarta", result.Timezone)
}

func TestTrend_BadRange(t *testing.T) {
	svc := NewDashboardService(new(MockRepository), newTestCache(t), "Asia/Jakarta", discardLogger())

	now := time.Now()
	_, err := svc.Trend(context.Background(), now, now, "UTC")

	assert.ErrorIs(t, err, ErrBadRange)
}

func TestTrend_BadTimezone(t *testing.T) {
	svc := NewDashboardService(new(MockRepository), newTestCache(t), "Asia/Jakarta", discardLogger())

	_, err := svc.Trend(context.Background(), time.Now().Add(-time.Hour), time.Now(), "Mars/Olympus")

	assert.ErrorIs(t, err, ErrBadTimezone)
}
