/*
Package leave implements casual-leave policy validation and quota
accounting.

PURPOSE:
  This package contains the domain model and the two core algorithms of
  the engine:
  - Accountant: aggregates consumed and requested leave-days within
    month windows, holiday-excluded and half-day adjusted (quota.go)
  - Validator: the fixed-order policy check pipeline that accepts or
    rejects a single leave request (pipeline.go)

KEY CONCEPTS IN THIS FILE (types.go):
  - Employee: read-only HR record (category, stayback day, calendar ref)
  - Request: a leave application with lifecycle status and half-day flag
  - Allocation: the authoritative monthly balance record with carry-over

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for every day count - half days make
     float arithmetic a correctness bug, not a style choice
  2. Read-only model: the engine validates and accounts; it never
     mutates Employee or Request records
  3. Explicit reference dates: "today" is always a parameter, never
     read from the clock inside the engine

SEE ALSO:
  - violations.go: policy violation error types
  - quota.go: working-day counting and monthly consumption
  - pipeline.go: the validation pipeline
  - store.go: repository interfaces this package consumes
*/
package leave

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gvs/leave-engine/calendar"
)

// =============================================================================
// LEAVE TYPE
// =============================================================================

// Type tags a request or allocation with its leave type.
type Type string

const (
	// TypeCasual is the restricted leave type: monthly quota, blocked
	// months, holiday adjacency and stayback rules all apply to it.
	TypeCasual Type = "Casual Leave"

	// TypeLossOfPay is the unrestricted escape hatch the violation
	// messages point employees at.
	TypeLossOfPay Type = "Leave Without Pay"
)

// =============================================================================
// EMPLOYEE - Read-only HR record
// =============================================================================

// StaffCategory is the employee's staff classification. Categories in
// the blocked-month exempt set may take casual leave in blocked months.
type StaffCategory string

const (
	CategoryPrimary   StaffCategory = "Primary"
	CategorySecondary StaffCategory = "Secondary"
	CategoryAdmin     StaffCategory = "Admin"
)

// Employee is the slice of the HR record the engine reads. Mutated only
// by external HR data entry.
type Employee struct {
	ID       string
	Name     string
	Category StaffCategory

	// StaybackDay is the assigned stayback weekday, nil when none.
	StaybackDay *time.Weekday

	// HolidayListID is the static holiday calendar reference, used as
	// fallback when no finalized list assignment covers a date.
	HolidayListID calendar.ListID

	// ProbationEnd gates accrual eligibility. Zero when not set.
	ProbationEnd calendar.Date

	Active bool
}

// =============================================================================
// REQUEST - A leave application
// =============================================================================

// Status is the request lifecycle status.
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusOpen      Status = "Open"
	StatusApproved  Status = "Approved"
	StatusRejected  Status = "Rejected"
	StatusCancelled Status = "Cancelled"
)

// Request is a leave application. The engine reads and validates it; it
// never advances the lifecycle itself.
type Request struct {
	ID         string
	EmployeeID string
	Type       Type
	Span       calendar.Span

	// HalfDay marks one day of the span as a half day. HalfDayDate
	// identifies which; when zero, the first day is assumed.
	HalfDay     bool
	HalfDayDate calendar.Date

	Status Status

	// Finalized distinguishes submitted requests from drafts still
	// being edited (docstatus 1 vs 0 upstream).
	Finalized bool
}

// CountsTowardQuota reports whether this request consumes monthly quota:
// pending-or-approved requests count, rejected and cancelled do not.
// Draft-status records are still mutable and do not count.
func (r *Request) CountsTowardQuota() bool {
	return r.Status == StatusOpen || r.Status == StatusApproved
}

// HalfDayIn reports whether the request's half day falls inside the
// given month window.
func (r *Request) HalfDayIn(month calendar.Span) bool {
	if !r.HalfDay {
		return false
	}
	hd := r.HalfDayDate
	if hd.IsZero() {
		hd = r.Span.From
	}
	return month.Contains(hd)
}

// =============================================================================
// ALLOCATION - Authoritative balance record
// =============================================================================

// Allocation is the persisted leave balance for an employee, leave type
// and validity window. TotalAllocated is cumulative and monotonically
// non-decreasing across updates; the persistence layer recomputes it
// when NewAllocated is incremented.
type Allocation struct {
	ID         string
	EmployeeID string
	Type       Type
	Span       calendar.Span

	// NewAllocated is the increment added at creation/update time.
	NewAllocated decimal.Decimal

	// TotalAllocated is the cumulative total as persisted. The store
	// may refuse to raise it (external cap); callers compare before
	// and after a write to detect that.
	TotalAllocated decimal.Decimal

	// Unused is the carry-over from the prior accounting window.
	Unused decimal.Decimal

	Cancelled bool
}

// Active reports whether the allocation still counts - at most one
// active allocation should cover an employee/type/period triple.
func (a *Allocation) Active() bool { return !a.Cancelled }
