/*
store.go - Repository interfaces the engine consumes

PURPOSE:
  The engine is pure policy logic over external records. These
  interfaces are its only view of persistence; store/ provides an
  in-memory implementation and store/sqlite the durable one.

CONTRACTS:
  RequestRepository: date-range overlap queries over leave applications.
  Directory:         read-only employee lookups.
  AllocationStore:   allocation lifecycle. Writes MUST return the record
                     as persisted - the accrual engine compares the
                     persisted total before and after an increment to
                     detect writes the store silently refused (external
                     caps). An unchanged total is a "no-op", reported
                     distinctly from success.
*/
package leave

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/gvs/leave-engine/calendar"
)

// Operational sentinels shared by store implementations.
var (
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrAllocationNotFound = errors.New("allocation not found")
)

// =============================================================================
// REQUEST REPOSITORY
// =============================================================================

// RequestFilter narrows a leave application query. Zero-valued fields
// are ignored. Overlapping uses inclusive date-range overlap, which
// catches requests that span clear across the window (e.g. Dec 30 ->
// Feb 2 overlapping January).
type RequestFilter struct {
	EmployeeID  string
	Type        Type
	Statuses    []Status
	Overlapping calendar.Span
	ExcludeID   string
}

// RequestRepository queries leave applications.
type RequestRepository interface {
	Requests(ctx context.Context, filter RequestFilter) ([]*Request, error)
}

// =============================================================================
// EMPLOYEE DIRECTORY
// =============================================================================

// Directory is the read-only employee lookup.
type Directory interface {
	Employee(ctx context.Context, id string) (*Employee, error)

	// ActiveEmployees returns all active employees, for accrual runs.
	ActiveEmployees(ctx context.Context) ([]*Employee, error)
}

// =============================================================================
// ALLOCATION STORE
// =============================================================================

// AllocationFilter narrows an allocation query to active (non-cancelled)
// records for an employee and type overlapping a window.
type AllocationFilter struct {
	EmployeeID  string
	Type        Type
	Overlapping calendar.Span
}

// AllocationStore persists allocation records. Each create/update is an
// independent commit; the engine never spans transactions across records.
type AllocationStore interface {
	// CreateAllocation persists a new allocation and returns it as
	// persisted (ID assigned, total recomputed).
	CreateAllocation(ctx context.Context, a Allocation) (*Allocation, error)

	// Allocations returns active allocations matching the filter, ordered
	// by Span.From ascending.
	Allocations(ctx context.Context, filter AllocationFilter) ([]*Allocation, error)

	// AddToAllocation increments NewAllocated on an existing record and
	// returns the record as persisted afterwards. The persisted
	// TotalAllocated may be unchanged if the store refused the increase;
	// callers must treat that as a no-op, not a success.
	AddToAllocation(ctx context.Context, id string, increment decimal.Decimal) (*Allocation, error)

	// CancelAllocation marks an allocation cancelled (superseded).
	CancelAllocation(ctx context.Context, id string) error
}
