package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPick(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		end  time.Time
		want Granularity
	}{
		{"один час", base.Add(time.Hour), GranularityHour},
		{"ровно 48 часов", base.Add(48 * time.Hour), GranularityHour},
		{"трое суток", base.AddDate(0, 0, 3), GranularityDay},
		{"три месяца", base.AddDate(0, 3, 0), GranularityDay},
		{"полгода", base.AddDate(0, 6, 0), GranularityMonth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Pick(base, tt.end))
		})
	}
}

func TestKeys_Hourly(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	start := time.Date(2025, 3, 1, 10, 15, 0, 0, loc)
	end := time.Date(2025, 3, 1, 13, 0, 0, 0, loc)

	keys, err := Keys(start, end, GranularityHour, loc)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"2025-03-01 10:00",
		"2025-03-01 11:00",
		"2025-03-01 12:00",
	}, keys)
}

func TestKeys_Daily(t *testing.T) {
	loc := time.UTC
	start := time.Date(2025, 2, 27, 8, 0, 0, 0, loc)
	end := time.Date(2025, 3, 2, 0, 0, 0, 0, loc)

	keys, err := Keys(start, end, GranularityDay, loc)
	require.NoError(t, err)
	// 2025 год невисокосный, февраль заканчивается 28-м
	assert.Equal(t, []string{"2025-02-27", "2025-02-28", "2025-03-01"}, keys)
}

func TestKeys_Monthly(t *testing.T) {
	loc := time.UTC
	start := time.Date(2024, 11, 20, 0, 0, 0, 0, loc)
	end := time.Date(2025, 3, 1, 0, 0, 0, 0, loc)

	keys, err := Keys(start, end, GranularityMonth, loc)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-11", "2024-12", "2025-01", "2025-02"}, keys)
}

func TestKeys_TimezoneShiftsBucketBoundary(t *testing.T) {
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	// 23:30 UTC это уже 06:30 следующего дня в Джакарте
	start := time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	keys, err := Keys(start, end, GranularityDay, jakarta)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-02"}, keys)
}

func TestKeys_InvalidRange(t *testing.T) {
	now := time.Now()
	_, err := Keys(now, now, GranularityDay, time.UTC)
	assert.Error(t, err)

	_, err = Keys(now, now.Add(-time.Hour), GranularityDay, time.UTC)
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	loc := time.UTC
	moment := time.Date(2025, 7, 14, 16, 45, 12, 0, loc)

	assert.Equal(t, time.Date(2025, 7, 14, 16, 0, 0, 0, loc), Truncate(moment, GranularityHour, loc))
	assert.Equal(t, time.Date(2025, 7, 14, 0, 0, 0, 0, loc), Truncate(moment, GranularityDay, loc))
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, loc), Truncate(moment, GranularityMonth, loc))
}
