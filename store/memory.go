/*
Package store provides an in-memory implementation of every repository
interface the engine consumes. It backs the test suites and the
development server; store/sqlite is the durable implementation.

Thread-safe. Reads return copies so callers can never mutate stored
records in place.
*/
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gvs/leave-engine/calendar"
	"github.com/gvs/leave-engine/leave"
)

// Memory holds all records in maps guarded by one RWMutex.
type Memory struct {
	mu          sync.RWMutex
	employees   map[string]leave.Employee
	lists       map[calendar.ListID]*calendar.HolidayList
	assignments map[string][]calendar.ListAssignment // by employee ID
	requests    map[string]leave.Request
	allocations map[string]leave.Allocation
}

func NewMemory() *Memory {
	return &Memory{
		employees:   make(map[string]leave.Employee),
		lists:       make(map[calendar.ListID]*calendar.HolidayList),
		assignments: make(map[string][]calendar.ListAssignment),
		requests:    make(map[string]leave.Request),
		allocations: make(map[string]leave.Allocation),
	}
}

// =============================================================================
// SEEDING (used by tests and the dev server)
// =============================================================================

func (m *Memory) PutEmployee(e leave.Employee) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[e.ID] = e
}

func (m *Memory) PutHolidayList(hl *calendar.HolidayList) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists[hl.ID] = hl
}

func (m *Memory) PutAssignment(a calendar.ListAssignment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments[a.EmployeeID] = append(m.assignments[a.EmployeeID], a)
}

func (m *Memory) PutRequest(r leave.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	m.requests[r.ID] = r
}

// =============================================================================
// calendar.ListStore / calendar.AssignmentStore
// =============================================================================

func (m *Memory) HolidayList(_ context.Context, id calendar.ListID) (*calendar.HolidayList, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lists[id], nil
}

func (m *Memory) AssignmentsByEmployee(_ context.Context, employeeID string) ([]calendar.ListAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]calendar.ListAssignment, len(m.assignments[employeeID]))
	copy(out, m.assignments[employeeID])
	return out, nil
}

// =============================================================================
// leave.Directory
// =============================================================================

func (m *Memory) Employee(_ context.Context, id string) (*leave.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.employees[id]
	if !ok {
		return nil, leave.ErrEmployeeNotFound
	}
	return &e, nil
}

func (m *Memory) ActiveEmployees(_ context.Context) ([]*leave.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*leave.Employee
	for _, e := range m.employees {
		if e.Active {
			e := e
			out = append(out, &e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// =============================================================================
// leave.RequestRepository
// =============================================================================

func (m *Memory) Requests(_ context.Context, f leave.RequestFilter) ([]*leave.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*leave.Request
	for _, r := range m.requests {
		if f.EmployeeID != "" && r.EmployeeID != f.EmployeeID {
			continue
		}
		if f.Type != "" && r.Type != f.Type {
			continue
		}
		if f.ExcludeID != "" && r.ID == f.ExcludeID {
			continue
		}
		if len(f.Statuses) > 0 && !statusIn(r.Status, f.Statuses) {
			continue
		}
		if f.Overlapping.IsValid() && !r.Span.Overlaps(f.Overlapping) {
			continue
		}
		r := r
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Span.From.Before(out[j].Span.From) })
	return out, nil
}

func statusIn(s leave.Status, set []leave.Status) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// =============================================================================
// leave.AllocationStore
// =============================================================================

func (m *Memory) CreateAllocation(_ context.Context, a leave.Allocation) (*leave.Allocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	m.allocations[a.ID] = a
	out := a
	return &out, nil
}

func (m *Memory) Allocations(_ context.Context, f leave.AllocationFilter) ([]*leave.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*leave.Allocation
	for _, a := range m.allocations {
		if a.Cancelled {
			continue
		}
		if f.EmployeeID != "" && a.EmployeeID != f.EmployeeID {
			continue
		}
		if f.Type != "" && a.Type != f.Type {
			continue
		}
		if f.Overlapping.IsValid() && !a.Span.Overlaps(f.Overlapping) {
			continue
		}
		a := a
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Span.From.Before(out[j].Span.From) })
	return out, nil
}

func (m *Memory) AddToAllocation(_ context.Context, id string, increment decimal.Decimal) (*leave.Allocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.allocations[id]
	if !ok {
		return nil, leave.ErrAllocationNotFound
	}
	a.NewAllocated = a.NewAllocated.Add(increment)
	a.TotalAllocated = a.TotalAllocated.Add(increment)
	m.allocations[id] = a
	out := a
	return &out, nil
}

func (m *Memory) CancelAllocation(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.allocations[id]
	if !ok {
		return leave.ErrAllocationNotFound
	}
	a.Cancelled = true
	m.allocations[id] = a
	return nil
}

// =============================================================================
// CAPPED ALLOCATIONS - For exercising no-op detection
// =============================================================================

// CappedAllocations wraps Memory and refuses to raise any allocation
// total above Cap, mirroring an upstream store with an external
// allocation cap. The write "succeeds" but the persisted total is
// unchanged - exactly the silent refusal the accrual engine must
// detect.
type CappedAllocations struct {
	*Memory
	Cap decimal.Decimal
}

func (c *CappedAllocations) AddToAllocation(ctx context.Context, id string, increment decimal.Decimal) (*leave.Allocation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	a, ok := c.allocations[id]
	if !ok {
		return nil, leave.ErrAllocationNotFound
	}
	if a.TotalAllocated.Add(increment).GreaterThan(c.Cap) {
		out := a
		return &out, nil
	}
	a.NewAllocated = a.NewAllocated.Add(increment)
	a.TotalAllocated = a.TotalAllocated.Add(increment)
	c.allocations[id] = a
	out := a
	return &out, nil
}
