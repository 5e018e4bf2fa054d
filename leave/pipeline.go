/*
pipeline.go - The casual-leave validation pipeline

PURPOSE:
  Orchestrates the fixed sequence of policy checks against one leave
  request. Each check either passes (continue) or returns a violation
  (terminal - no further checks run, the submission is rejected).

CHECK ORDER (short-circuit):
  1. Bypass       - the administrative identity skips everything
  2. Gate         - only restricted-type requests in an actionable
                    status enter the pipeline
  3. Blocked month - configured months reject unless the employee's
                    category is exempt
  4. Holiday adjacency - no bridging a holiday: for every requested day
                    d, the calendars for d-1 and d+1 are resolved
                    INDEPENDENTLY (each neighbor may fall under a
                    different list near assignment-window edges)
  5. Stayback day  - the assigned stayback weekday cannot be taken off
  6. Monthly quota - evaluated per (month, year) the request touches;
                    each month validates against its own consumption

  Ordering matters for cost too: the quota check reads the request
  repository; there is no point paying for it when an earlier check
  already rejects.

OUTCOMES:
  nil                  - request passes
  policy violation     - IsViolation(err) == true, message is the
                         user-facing rejection reason
  operational failure  - anything else (store error, unresolvable
                         calendar); the caller logs and aborts
*/
package leave

import (
	"context"
	"fmt"

	"github.com/gvs/leave-engine/calendar"
)

// Validator runs the validation pipeline over single leave requests.
type Validator struct {
	Config     Config
	Directory  Directory
	Accountant *Accountant
	Resolver   *calendar.Resolver
}

func NewValidator(cfg Config, dir Directory, acc *Accountant, res *calendar.Resolver) *Validator {
	return &Validator{Config: cfg, Directory: dir, Accountant: acc, Resolver: res}
}

// Validate checks req on behalf of actor. A nil return means the
// request is policy-compliant. Validation has no side effects and is
// idempotent against the same stored state.
func (v *Validator) Validate(ctx context.Context, req *Request, actor string) error {
	if actor == v.Config.BypassActor {
		return nil
	}

	// Gate: only restricted-type requests in an actionable status are
	// subject to the remaining checks.
	if req.Type != v.Config.RestrictedType {
		return nil
	}
	if req.Status != StatusOpen && req.Status != StatusApproved {
		return nil
	}

	if !req.Span.IsValid() {
		return fmt.Errorf("invalid request range %s", req.Span)
	}

	emp, err := v.Directory.Employee(ctx, req.EmployeeID)
	if err != nil {
		return fmt.Errorf("load employee %s: %w", req.EmployeeID, err)
	}

	if err := v.checkBlockedMonths(req, emp); err != nil {
		return err
	}
	if err := v.checkHolidayAdjacency(ctx, req, emp); err != nil {
		return err
	}
	if err := v.checkStayback(req, emp); err != nil {
		return err
	}
	return v.checkMonthlyQuota(ctx, req, emp)
}

// =============================================================================
// CHECK 3: BLOCKED MONTHS
// =============================================================================

func (v *Validator) checkBlockedMonths(req *Request, emp *Employee) error {
	if v.Config.isExempt(emp.Category) {
		return nil
	}

	var violation error
	req.Span.Walk(func(d calendar.Date) bool {
		if v.Config.isBlockedMonth(d.Month()) {
			violation = &BlockedMonthError{Date: d, Month: d.Month()}
			return false
		}
		return true
	})
	return violation
}

// =============================================================================
// CHECK 4: HOLIDAY ADJACENCY
// =============================================================================

// checkHolidayAdjacency rejects when any requested day has a holiday as
// immediate neighbor. d-1 and d+1 each resolve their own calendar; a
// neighbor with no resolvable calendar at all is a hard failure.
func (v *Validator) checkHolidayAdjacency(ctx context.Context, req *Request, emp *Employee) error {
	var result error
	req.Span.Walk(func(d calendar.Date) bool {
		prev := d.AddDays(-1)
		holiday, err := v.Resolver.IsHoliday(ctx, emp.ID, emp.HolidayListID, prev)
		if err != nil {
			result = err
			return false
		}
		if holiday {
			result = &AdjacentHolidayError{RequestDay: d, Holiday: prev, Next: false}
			return false
		}

		next := d.AddDays(1)
		holiday, err = v.Resolver.IsHoliday(ctx, emp.ID, emp.HolidayListID, next)
		if err != nil {
			result = err
			return false
		}
		if holiday {
			result = &AdjacentHolidayError{RequestDay: d, Holiday: next, Next: true}
			return false
		}
		return true
	})
	return result
}

// =============================================================================
// CHECK 5: STAYBACK DAY
// =============================================================================

func (v *Validator) checkStayback(req *Request, emp *Employee) error {
	if emp.StaybackDay == nil {
		return nil
	}

	var violation error
	req.Span.Walk(func(d calendar.Date) bool {
		if d.Weekday() == *emp.StaybackDay {
			violation = &StaybackConflictError{Date: d, Weekday: *emp.StaybackDay}
			return false
		}
		return true
	})
	return violation
}

// =============================================================================
// CHECK 6: MONTHLY QUOTA
// =============================================================================

// checkMonthlyQuota validates every month the request touches against
// that month's own quota. Months are independent: a two-day February
// tail does not eat March's allowance.
func (v *Validator) checkMonthlyQuota(ctx context.Context, req *Request, emp *Employee) error {
	max := v.Config.MaxPerMonth

	for _, month := range req.Span.Months() {
		current, err := v.Accountant.RequestDaysIn(ctx, emp, req, month)
		if err != nil {
			return err
		}
		used, err := v.Accountant.MonthlyConsumption(ctx, emp, month, req.ID)
		if err != nil {
			return err
		}

		quota := &QuotaError{
			Year:      month.From.Year(),
			Month:     month.From.Month(),
			Used:      used,
			Requested: current,
			Limit:     max,
		}
		switch {
		// An exhausted month rejects every touching request, even one
		// contributing zero working days to it (all holidays).
		case used.GreaterThanOrEqual(max):
			quota.kind = ErrQuotaExhausted
			return quota
		case current.IsZero():
			continue
		case used.IsZero() && current.GreaterThan(max):
			quota.kind = ErrRequestTooLong
			return quota
		case used.Add(current).GreaterThan(max):
			quota.kind = ErrQuotaExceeded
			return quota
		}
	}
	return nil
}
