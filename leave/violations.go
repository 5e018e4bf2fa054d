/*
violations.go - Policy violation error types

PURPOSE:
  All user-facing rejection reasons in one place. A violation is the
  expected, terminal outcome of a failed policy check: it aborts the
  submission flow with a precise explanation and is NOT logged as a
  system error. Operational failures (store errors, missing calendars)
  are ordinary wrapped errors and take the other tier.

ERROR SHAPE:
  Each violation is a structured type carrying the concrete offending
  values (dates, counts, month names) and unwrapping to a sentinel so
  callers can classify with errors.Is:

    if errors.Is(err, leave.ErrQuotaExceeded) { ... }

  The messages ARE the product: they are the only feedback the
  requester receives, so every one names dates in dd-MM-yyyy form and
  counts without trailing zeros.
*/
package leave

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gvs/leave-engine/calendar"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrViolation is the root of every policy violation.
	ErrViolation = errors.New("leave policy violation")

	ErrBlockedMonth     = errors.New("blocked month")
	ErrHolidayAdjacent  = errors.New("adjacent day is a holiday")
	ErrStaybackConflict = errors.New("stayback day conflict")
	ErrQuotaExhausted   = errors.New("monthly quota exhausted")
	ErrQuotaExceeded    = errors.New("monthly quota exceeded")
	ErrRequestTooLong   = errors.New("request exceeds monthly quota by itself")
)

// IsViolation reports whether err is a policy violation (user-facing
// rejection) as opposed to an operational failure.
func IsViolation(err error) bool { return errors.Is(err, ErrViolation) }

// =============================================================================
// STRUCTURED VIOLATIONS
// =============================================================================

// BlockedMonthError rejects a request touching a blocked calendar month.
type BlockedMonthError struct {
	Date  calendar.Date
	Month time.Month
}

func (e *BlockedMonthError) Error() string {
	return fmt.Sprintf("Casual Leave cannot be applied in %s: %s falls in a blocked month.",
		e.Month, e.Date.Display())
}

func (e *BlockedMonthError) Unwrap() []error { return []error{ErrViolation, ErrBlockedMonth} }

// AdjacentHolidayError rejects a request that bridges a holiday.
type AdjacentHolidayError struct {
	RequestDay calendar.Date
	Holiday    calendar.Date
	// Next is true when the holiday follows the request day, false when
	// it precedes it.
	Next bool
}

func (e *AdjacentHolidayError) Error() string {
	side := "previous day"
	if e.Next {
		side = "next day"
	}
	return fmt.Sprintf("Casual Leave cannot be applied as %s (%s) is a holiday. Apply for %s instead.",
		e.Holiday.Display(), side, TypeLossOfPay)
}

func (e *AdjacentHolidayError) Unwrap() []error { return []error{ErrViolation, ErrHolidayAdjacent} }

// StaybackConflictError rejects a request covering the assigned stayback weekday.
type StaybackConflictError struct {
	Date    calendar.Date
	Weekday time.Weekday
}

func (e *StaybackConflictError) Error() string {
	return fmt.Sprintf("Casual Leave cannot be applied on %s because %s is your assigned stayback day. Apply for %s instead.",
		e.Date.Display(), e.Weekday, TypeLossOfPay)
}

func (e *StaybackConflictError) Unwrap() []error { return []error{ErrViolation, ErrStaybackConflict} }

// QuotaError rejects a request on the monthly quota. Exactly one of the
// three quota sentinels applies, chosen by the accountant's numbers:
//   - used == 0 && requested > limit: ErrRequestTooLong
//   - used >= limit: ErrQuotaExhausted
//   - used + requested > limit: ErrQuotaExceeded
type QuotaError struct {
	Year      int
	Month     time.Month
	Used      decimal.Decimal
	Requested decimal.Decimal
	Limit     decimal.Decimal
	kind      error
}

func (e *QuotaError) Error() string {
	monthName := calendar.MonthName(e.Year, e.Month)
	switch e.kind {
	case ErrRequestTooLong:
		return fmt.Sprintf("You cannot apply for %s day(s) of Casual Leave in %s. Maximum allowed is %s days per month.",
			e.Requested, monthName, e.Limit)
	case ErrQuotaExhausted:
		return fmt.Sprintf("You have already used %s day(s) of Casual Leave in %s. No further Casual Leave can be applied.",
			e.Used, monthName)
	default:
		return fmt.Sprintf("You have already used %s day(s) of Casual Leave in %s. You can only apply for %s more day(s). The monthly limit is %s days.",
			e.Used, monthName, e.Remaining(), e.Limit)
	}
}

// Remaining returns the exact allowance left in the month.
func (e *QuotaError) Remaining() decimal.Decimal { return e.Limit.Sub(e.Used) }

func (e *QuotaError) Unwrap() []error { return []error{ErrViolation, e.kind} }
