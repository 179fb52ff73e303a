// backend/services/staleness_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gramdarpan/mgnrega/backend/models"
)

func TestIsStale(t *testing.T) {
	now := time.Date(2025, time.June, 21, 0, 0, 0, 0, time.UTC)

	assert.False(t, IsStale(now.AddDate(0, 0, -19), 20, now))
	assert.False(t, IsStale(now.AddDate(0, 0, -20), 20, now), "exactly at threshold is not stale")
	assert.True(t, IsStale(now.Add(-20*24*time.Hour-time.Second), 20, now))
}

func TestCurrentPeriodFollowsFinancialYear(t *testing.T) {
	fy, month := CurrentPeriod(time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2025-2026", fy)
	assert.Equal(t, "Jun", month)

	// January belongs to the financial year that started the previous April.
	fy, month = CurrentPeriod(time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2025-2026", fy)
	assert.Equal(t, "Jan", month)
}

func TestIsCurrentPeriod(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, IsCurrentPeriod("2025-2026", "Jun", now))
	assert.False(t, IsCurrentPeriod("2025-2026", "May", now))
	assert.False(t, IsCurrentPeriod("2024-2025", "Jun", now))
}

func TestParseFinYear(t *testing.T) {
	first, second, err := ParseFinYear("2024-2025")
	require.NoError(t, err)
	assert.Equal(t, 2024, first)
	assert.Equal(t, 2025, second)

	for _, bad := range []string{"2024", "2024-2026", "24-25", "abcd-efgh", "2024/2025"} {
		_, _, err := ParseFinYear(bad)
		var verr *models.ValidationError
		assert.ErrorAs(t, err, &verr, "input %q", bad)
	}
}

func TestPeriodIndexOrdering(t *testing.T) {
	apr, err := PeriodIndex("2024-2025", "Apr")
	require.NoError(t, err)
	dec, err := PeriodIndex("2024-2025", "Dec")
	require.NoError(t, err)
	jan, err := PeriodIndex("2024-2025", "Jan")
	require.NoError(t, err)
	mar, err := PeriodIndex("2024-2025", "Mar")
	require.NoError(t, err)
	nextApr, err := PeriodIndex("2025-2026", "Apr")
	require.NoError(t, err)

	// Apr < Dec < Jan < Mar < next Apr, with no gaps across the year break.
	assert.Less(t, apr, dec)
	assert.Less(t, dec, jan)
	assert.Equal(t, dec+1, jan)
	assert.Less(t, jan, mar)
	assert.Equal(t, mar+1, nextApr)
}

func TestPeriodFromCalendarRoundTrip(t *testing.T) {
	fy, month, err := PeriodFromCalendar(2024, 7)
	require.NoError(t, err)
	assert.Equal(t, "2024-2025", fy)
	assert.Equal(t, "Jul", month)

	fy, month, err = PeriodFromCalendar(2025, 2)
	require.NoError(t, err)
	assert.Equal(t, "2024-2025", fy)
	assert.Equal(t, "Feb", month)

	// The derived index agrees with the calendar index.
	idx, err := PeriodIndex(fy, month)
	require.NoError(t, err)
	assert.Equal(t, CalendarIndex(2025, 2), idx)
}

func TestParseCalendar(t *testing.T) {
	y, m, err := ParseCalendar("2024-03")
	require.NoError(t, err)
	assert.Equal(t, 2024, y)
	assert.Equal(t, 3, m)

	for _, bad := range []string{"2024", "2024-13", "2024-00", "24-01", "2024-3x"} {
		_, _, err := ParseCalendar(bad)
		var verr *models.ValidationError
		assert.ErrorAs(t, err, &verr, "input %q", bad)
	}
}
