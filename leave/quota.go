/*
quota.go - Working-day counting and monthly consumption

PURPOSE:
  The Accountant answers the two quantitative questions the pipeline
  asks:
  - how many working days does a date range contribute to a month?
  - how much casual leave has this employee already consumed in a month?

  Both answers are decimal day counts: a half-day request subtracts 0.5
  in the month containing its half-day date.

COUNTING RULES:
  - Days are walked through calendar.Span.Walk; both endpoints count.
  - Each day resolves its own holiday calendar (assignment-aware);
    holidays are excluded from the count.
  - A request's contribution to a month is counted over the
    intersection of the request's range and the month window, so a
    Dec 30 -> Feb 2 request contributes to December, January and
    February separately.
  - Consumption is never negative; a zero-day result is valid (a
    request entirely outside the month).

CONSUMPTION SCOPE:
  Pending-or-approved requests count (status Open or Approved);
  rejected, cancelled and draft-status requests do not. The request
  under validation is excluded by identity.

SEE ALSO:
  - pipeline.go: the monthly quota check built on these numbers
  - calendar/resolver.go: per-day calendar resolution
*/
package leave

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/gvs/leave-engine/calendar"
)

var halfDay = decimal.NewFromFloat(0.5)

// Accountant aggregates consumed and requested leave-days within month
// windows. It has no state of its own; every call reads fresh.
type Accountant struct {
	Requests RequestRepository
	Resolver *calendar.Resolver
}

func NewAccountant(requests RequestRepository, resolver *calendar.Resolver) *Accountant {
	return &Accountant{Requests: requests, Resolver: resolver}
}

// =============================================================================
// WORKING-DAY COUNTING
// =============================================================================

// CountWorkingDays walks [span.From, span.To] and counts the days that
// are not holidays under each day's own resolved calendar. With
// excludeHolidays false it degenerates to the plain inclusive day count.
//
// A day with no resolvable calendar is a hard failure: the organization
// requires every requested day to be covered by a calendar.
func (a *Accountant) CountWorkingDays(ctx context.Context, emp *Employee, span calendar.Span, excludeHolidays bool) (decimal.Decimal, error) {
	if !excludeHolidays {
		return decimal.NewFromInt(int64(span.Days())), nil
	}

	count := int64(0)
	var walkErr error
	span.Walk(func(d calendar.Date) bool {
		holiday, err := a.Resolver.IsHoliday(ctx, emp.ID, emp.HolidayListID, d)
		if err != nil {
			walkErr = err
			return false
		}
		if !holiday {
			count++
		}
		return true
	})
	if walkErr != nil {
		return decimal.Zero, walkErr
	}
	return decimal.NewFromInt(count), nil
}

// RequestDaysIn returns the working-day contribution of req to the given
// month window, half-day adjusted. Zero when the request does not touch
// the month.
func (a *Accountant) RequestDaysIn(ctx context.Context, emp *Employee, req *Request, month calendar.Span) (decimal.Decimal, error) {
	overlap, ok := req.Span.Intersect(month)
	if !ok {
		return decimal.Zero, nil
	}

	days, err := a.CountWorkingDays(ctx, emp, overlap, true)
	if err != nil {
		return decimal.Zero, err
	}
	if req.HalfDayIn(month) {
		days = days.Sub(halfDay)
	}
	if days.IsNegative() {
		return decimal.Zero, nil
	}
	return days, nil
}

// =============================================================================
// MONTHLY CONSUMPTION
// =============================================================================

// MonthlyConsumption sums the working-day contribution of every
// pending-or-approved casual-leave request of emp that touches the
// given month, excluding the request identified by excludeID.
//
// The query is scoped per (month, year): validating a multi-month
// request evaluates each month against its own fresh consumption.
func (a *Accountant) MonthlyConsumption(ctx context.Context, emp *Employee, month calendar.Span, excludeID string) (decimal.Decimal, error) {
	existing, err := a.Requests.Requests(ctx, RequestFilter{
		EmployeeID:  emp.ID,
		Type:        TypeCasual,
		Statuses:    []Status{StatusOpen, StatusApproved},
		Overlapping: month,
		ExcludeID:   excludeID,
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("query existing requests for %s: %w", emp.ID, err)
	}

	total := decimal.Zero
	for _, req := range existing {
		if !req.CountsTowardQuota() {
			continue
		}
		days, err := a.RequestDaysIn(ctx, emp, req, month)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(days)
	}
	return total, nil
}
