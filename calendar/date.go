/*
Package calendar provides the date arithmetic and holiday-calendar
resolution that the leave engine is built on.

PURPOSE:
  Every policy check in this system is calendar-aware: holiday adjacency,
  month-spanning quota windows, accrual month enumeration. This package
  owns the two foundations those checks share:
  - Date/Span: day-granularity interval arithmetic with a single,
    uniform inclusive/inclusive walking abstraction
  - HolidayList/Resolver: which holiday calendar governs a given
    employee on a given date, and whether that date is a holiday

KEY CONCEPTS IN THIS FILE (date.go):
  - Date: A calendar day. No time-of-day, no timezone surprises - all
    dates are normalized to midnight UTC.
  - Month helpers: first/last day of month, month window as a Span

DESIGN PRINCIPLES:
  1. Value semantics: Date is comparable and cheap to copy
  2. Inclusive ranges: [From, To] everywhere, matching how HR thinks
     about leave ("10th to 12th" is three days)
  3. Pure computation: nothing in this package touches storage

SEE ALSO:
  - span.go: Span type and the interval walker
  - holiday.go: HolidayList and ListAssignment records
  - resolver.go: assignment-aware calendar resolution
*/
package calendar

import (
	"time"
)

// =============================================================================
// DATE - A calendar day, normalized to midnight UTC
// =============================================================================

type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time.Time to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses "2006-01-02".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// MustParseDate is ParseDate for tests and static configuration.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date   { return DateOf(d.t.AddDate(0, 0, n)) }
func (d Date) AddMonths(n int) Date { return DateOf(d.t.AddDate(0, n, 0)) }

// Properties
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) IsZero() bool          { return d.t.IsZero() }
func (d Date) Time() time.Time       { return d.t }

// InMonth reports whether the date falls in the given month window.
func (d Date) InMonth(year int, month time.Month) bool {
	return d.Year() == year && d.Month() == month
}

func (d Date) String() string { return d.t.Format("2006-01-02") }

// Display formats the date the way violation messages present it.
func (d Date) Display() string { return d.t.Format("02-01-2006") }

// =============================================================================
// MONTH HELPERS
// =============================================================================

func FirstOfMonth(year int, month time.Month) Date {
	return NewDate(year, month, 1)
}

func LastOfMonth(year int, month time.Month) Date {
	return DateOf(time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1))
}

// MonthOf returns the first day of the month containing d.
func MonthOf(d Date) Date {
	return FirstOfMonth(d.Year(), d.Month())
}

// MonthSpan returns the inclusive window covering a whole month.
func MonthSpan(year int, month time.Month) Span {
	return Span{From: FirstOfMonth(year, month), To: LastOfMonth(year, month)}
}

// MonthName formats a month window for user-facing messages, e.g. "March 2025".
func MonthName(year int, month time.Month) string {
	return FirstOfMonth(year, month).t.Format("January 2006")
}
