/*
resolver.go - Assignment-aware holiday calendar resolution

PURPOSE:
  Answers "which holiday list governs this employee on this date?".
  The answer is per-DATE, not per-employee: an employee's calendar can
  change across a calendar-year boundary, and a leave request near that
  boundary may have its first day under one list and its last day (or a
  neighboring day) under another.

RESOLUTION ORDER:
  1. Finalized list assignments whose bound list's validity window
     covers the date. If several match, the list whose window starts
     latest wins (the most recently starting calendar supersedes).
  2. The employee's static holiday list reference, but only when the
     date falls inside that list's own validity window.
  3. Neither: ErrNoCalendar. The organization requires every requested
     day to be covered by a calendar, so callers treat this as a hard
     policy failure rather than silently assuming "no holidays".

An earlier revision of this engine resolved only the static reference.
That behavior goes stale across year boundaries and is superseded; do
not reintroduce it.

SEE ALSO:
  - holiday.go: HolidayList, ListAssignment
  - leave/quota.go: per-day resolution during working-day counting
*/
package calendar

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoCalendar is returned when no holiday list covers a date for an
// employee. Callers surface this as a policy failure, not a silent pass.
var ErrNoCalendar = errors.New("no holiday calendar covers date")

// NoCalendarError carries the employee and date that failed to resolve.
type NoCalendarError struct {
	EmployeeID string
	Date       Date
}

func (e *NoCalendarError) Error() string {
	return fmt.Sprintf("no holiday calendar covers %s for employee %s; contact HR", e.Date, e.EmployeeID)
}

func (e *NoCalendarError) Unwrap() error { return ErrNoCalendar }

// =============================================================================
// STORE INTERFACES
// =============================================================================

// ListStore fetches holiday lists by ID.
type ListStore interface {
	HolidayList(ctx context.Context, id ListID) (*HolidayList, error)
}

// AssignmentStore fetches the list assignments recorded for an employee.
type AssignmentStore interface {
	AssignmentsByEmployee(ctx context.Context, employeeID string) ([]ListAssignment, error)
}

// =============================================================================
// RESOLVER
// =============================================================================

// Resolver resolves the holiday list applicable to an employee on a date.
type Resolver struct {
	Lists       ListStore
	Assignments AssignmentStore
}

func NewResolver(lists ListStore, assignments AssignmentStore) *Resolver {
	return &Resolver{Lists: lists, Assignments: assignments}
}

// Resolve returns the holiday list governing employeeID on date.
// staticListID is the employee's static holiday list reference, used as
// fallback when no finalized assignment covers the date; pass "" if the
// employee has none.
func (r *Resolver) Resolve(ctx context.Context, employeeID string, staticListID ListID, date Date) (*HolidayList, error) {
	assignments, err := r.Assignments.AssignmentsByEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("load assignments for %s: %w", employeeID, err)
	}

	// Pick the covering list whose validity starts latest.
	var best *HolidayList
	for _, a := range assignments {
		if !a.Finalized {
			continue
		}
		list, err := r.Lists.HolidayList(ctx, a.ListID)
		if err != nil {
			return nil, fmt.Errorf("load holiday list %s: %w", a.ListID, err)
		}
		if list == nil || !list.Covers(date) {
			continue
		}
		if best == nil || list.Validity.From.After(best.Validity.From) {
			best = list
		}
	}
	if best != nil {
		return best, nil
	}

	if staticListID != "" {
		list, err := r.Lists.HolidayList(ctx, staticListID)
		if err != nil {
			return nil, fmt.Errorf("load holiday list %s: %w", staticListID, err)
		}
		if list != nil && list.Covers(date) {
			return list, nil
		}
	}

	return nil, &NoCalendarError{EmployeeID: employeeID, Date: date}
}

// IsHoliday resolves the calendar for date and reports whether date is a
// holiday under it.
func (r *Resolver) IsHoliday(ctx context.Context, employeeID string, staticListID ListID, date Date) (bool, error) {
	list, err := r.Resolve(ctx, employeeID, staticListID, date)
	if err != nil {
		return false, err
	}
	return list.IsHoliday(date), nil
}
