// backend/services/staleness.go
package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gramdarpan/mgnrega/backend/models"
)

// Pure period and staleness helpers. The canonical period representation for
// the whole backend is the government API's composite key: a financial-year
// label "YYYY-YYYY" plus a 3-letter month name. The financial year runs
// April through March, so Apr..Dec of label "2024-2025" fall in calendar
// 2024 and Jan..Mar in calendar 2025. PeriodIndex derives a sortable integer
// from that rule; PeriodFromCalendar converts the external "YYYY-MM" form
// used by the history endpoints.

var monthNames = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// MonthOrdinal maps a 3-letter month name to its zero-based calendar
// position (Jan=0).
func MonthOrdinal(month string) (int, bool) {
	for i, m := range monthNames {
		if m == month {
			return i, true
		}
	}
	return 0, false
}

// IsStale reports whether a record last updated at updatedAt has exceeded
// the configured age threshold in days.
func IsStale(updatedAt time.Time, thresholdDays int, now time.Time) bool {
	return now.Sub(updatedAt) > time.Duration(thresholdDays)*24*time.Hour
}

// CurrentPeriod returns the canonical (fin_year, month) pair for the wall
// clock instant now.
func CurrentPeriod(now time.Time) (finYear, month string) {
	fy, m, _ := PeriodFromCalendar(now.Year(), int(now.Month()))
	return fy, m
}

// IsCurrentPeriod reports whether (finYear, month) names the reporting
// interval now falls in. Used to pick the HOT TTL over HISTORICAL.
func IsCurrentPeriod(finYear, month string, now time.Time) bool {
	curFY, curMonth := CurrentPeriod(now)
	return finYear == curFY && month == curMonth
}

// ParseFinYear splits a "YYYY-YYYY" financial-year label into its two
// calendar years, rejecting malformed labels.
func ParseFinYear(finYear string) (first, second int, err error) {
	parts := strings.Split(finYear, "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 4 {
		return 0, 0, &models.ValidationError{Message: fmt.Sprintf("invalid financial year %q (expected YYYY-YYYY)", finYear)}
	}
	first, err1 := strconv.Atoi(parts[0])
	second, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || second != first+1 {
		return 0, 0, &models.ValidationError{Message: fmt.Sprintf("invalid financial year %q (expected consecutive years)", finYear)}
	}
	return first, second, nil
}

// PeriodIndex converts the canonical composite period to a sortable integer:
// calendarYear*12 + monthOrdinal. Chronological order of periods equals
// numeric order of indexes.
func PeriodIndex(finYear, month string) (int, error) {
	first, second, err := ParseFinYear(finYear)
	if err != nil {
		return 0, err
	}
	ord, ok := MonthOrdinal(month)
	if !ok {
		return 0, &models.ValidationError{Message: fmt.Sprintf("invalid month %q", month)}
	}
	calYear := first
	if ord < 3 { // Jan, Feb, Mar belong to the second calendar year
		calYear = second
	}
	return calYear*12 + ord, nil
}

// PeriodFromCalendar converts a calendar (year, month) pair to the canonical
// composite period.
func PeriodFromCalendar(year, month int) (finYear, monthName string, err error) {
	if month < 1 || month > 12 {
		return "", "", &models.ValidationError{Message: fmt.Sprintf("invalid calendar month %d", month)}
	}
	start := year
	if month < 4 {
		start = year - 1
	}
	return fmt.Sprintf("%d-%d", start, start+1), monthNames[month-1], nil
}

// ParseCalendar parses the external "YYYY-MM" form used by the history
// endpoints.
func ParseCalendar(s string) (year, month int, err error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 || len(parts[0]) != 4 {
		return 0, 0, &models.ValidationError{Message: fmt.Sprintf("invalid date %q (expected YYYY-MM)", s)}
	}
	year, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || month < 1 || month > 12 {
		return 0, 0, &models.ValidationError{Message: fmt.Sprintf("invalid date %q (expected YYYY-MM)", s)}
	}
	return year, month, nil
}

// CalendarIndex is PeriodIndex for the external calendar form.
func CalendarIndex(year, month int) int {
	return year*12 + month - 1
}
