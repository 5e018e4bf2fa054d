// Package accrual implements the monthly casual-leave accrual engine:
// enumerating eligible months per employee, creating or growing
// allocation records, and carrying unused balance forward.
package accrual

import (
	"time"

	"github.com/gvs/leave-engine/calendar"
)

// =============================================================================
// ACCOUNTING PERIOD - Fiscal year April 1 .. March 31
// =============================================================================

// PeriodFor returns the leave accounting period containing ref. The
// organization runs an April-to-March fiscal year: a January reference
// date belongs to the period that started the previous April.
func PeriodFor(ref calendar.Date, startMonth time.Month) calendar.Span {
	year := ref.Year()
	start := calendar.FirstOfMonth(year, startMonth)
	if ref.Before(start) {
		start = calendar.FirstOfMonth(year-1, startMonth)
	}
	end := start.AddMonths(12).AddDays(-1)
	return calendar.NewSpan(start, end)
}

// StartDate returns when accrual begins for an employee: the first day
// of the calendar month after the probation-end month, clamped forward
// to the accounting-period start when probation ended before it.
func StartDate(probationEnd, periodStart calendar.Date) calendar.Date {
	// Normalize to the first of the month BEFORE stepping forward:
	// adding a month to Jan 31 lands in March.
	start := calendar.MonthOf(probationEnd).AddMonths(1)
	if start.Before(periodStart) {
		return periodStart
	}
	return start
}

// EligibleMonths enumerates the month windows from start through today,
// in chronological order, dropping the excluded months.
func EligibleMonths(start, today calendar.Date, excluded []time.Month) []calendar.Span {
	var months []calendar.Span
	current := calendar.MonthOf(start)
	end := calendar.MonthOf(today)
	for current.BeforeOrEqual(end) {
		if !monthExcluded(current.Month(), excluded) {
			months = append(months, calendar.MonthSpan(current.Year(), current.Month()))
		}
		current = current.AddMonths(1)
	}
	return months
}

func monthExcluded(m time.Month, excluded []time.Month) bool {
	for _, e := range excluded {
		if e == m {
			return true
		}
	}
	return false
}
