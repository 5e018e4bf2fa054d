package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gvs/leave-engine/calendar"
	"github.com/gvs/leave-engine/leave"
	"github.com/gvs/leave-engine/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func d(s string) calendar.Date { return calendar.MustParseDate(s) }

func span(from, to string) calendar.Span {
	return calendar.NewSpan(d(from), d(to))
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestEmployee_RoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	wed := time.Wednesday
	want := leave.Employee{
		ID:            "emp-1",
		Name:          "Asha",
		Category:      leave.CategorySecondary,
		StaybackDay:   &wed,
		HolidayListID: "hl-main",
		ProbationEnd:  d("2024-10-20"),
		Active:        true,
	}
	require.NoError(t, s.SaveEmployee(ctx, want))

	got, err := s.Employee(ctx, "emp-1")
	require.NoError(t, err)

	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Category, got.Category)
	require.NotNil(t, got.StaybackDay)
	assert.Equal(t, time.Wednesday, *got.StaybackDay)
	assert.Equal(t, want.HolidayListID, got.HolidayListID)
	assert.Equal(t, want.ProbationEnd, got.ProbationEnd)
	assert.True(t, got.Active)
}

func TestEmployee_NullableFields(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveEmployee(ctx, leave.Employee{
		ID: "emp-min", Name: "Min", Category: leave.CategoryAdmin, Active: true,
	}))

	got, err := s.Employee(ctx, "emp-min")
	require.NoError(t, err)

	assert.Nil(t, got.StaybackDay)
	assert.True(t, got.ProbationEnd.IsZero())
}

func TestEmployee_NotFound(t *testing.T) {
	s := newStore(t)

	_, err := s.Employee(context.Background(), "emp-ghost")

	assert.ErrorIs(t, err, leave.ErrEmployeeNotFound)
}

func TestActiveEmployees_FiltersInactive(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveEmployee(ctx, leave.Employee{ID: "emp-b", Name: "B", Category: leave.CategoryAdmin, Active: true}))
	require.NoError(t, s.SaveEmployee(ctx, leave.Employee{ID: "emp-a", Name: "A", Category: leave.CategoryAdmin, Active: true}))
	require.NoError(t, s.SaveEmployee(ctx, leave.Employee{ID: "emp-gone", Name: "Gone", Category: leave.CategoryAdmin, Active: false}))

	got, err := s.ActiveEmployees(ctx)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "emp-a", got[0].ID, "ordered by id")
	assert.Equal(t, "emp-b", got[1].ID)
}

// =============================================================================
// HOLIDAY LISTS AND ASSIGNMENTS
// =============================================================================

func TestHolidayList_RoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	hl := calendar.NewHolidayList("hl-2025", span("2025-01-01", "2025-12-31"),
		d("2025-01-01"), d("2025-08-15"))
	hl.Name = "India 2025"
	require.NoError(t, s.SaveHolidayList(ctx, hl))

	got, err := s.HolidayList(ctx, "hl-2025")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "India 2025", got.Name)
	assert.Equal(t, hl.Validity, got.Validity)
	assert.True(t, got.IsHoliday(d("2025-08-15")))
	assert.False(t, got.IsHoliday(d("2025-08-16")))
}

func TestHolidayList_SaveReplacesHolidays(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	hl := calendar.NewHolidayList("hl-1", span("2025-01-01", "2025-12-31"), d("2025-06-01"))
	require.NoError(t, s.SaveHolidayList(ctx, hl))

	replacement := calendar.NewHolidayList("hl-1", span("2025-01-01", "2025-12-31"), d("2025-07-01"))
	require.NoError(t, s.SaveHolidayList(ctx, replacement))

	got, err := s.HolidayList(ctx, "hl-1")
	require.NoError(t, err)
	assert.False(t, got.IsHoliday(d("2025-06-01")), "old holidays replaced")
	assert.True(t, got.IsHoliday(d("2025-07-01")))
}

func TestHolidayList_MissingReturnsNil(t *testing.T) {
	s := newStore(t)

	got, err := s.HolidayList(context.Background(), "hl-ghost")
	require.NoError(t, err)

	assert.Nil(t, got)
}

func TestAssignments_ByEmployee(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveAssignment(ctx, calendar.ListAssignment{EmployeeID: "emp-1", ListID: "hl-a", Finalized: true}))
	require.NoError(t, s.SaveAssignment(ctx, calendar.ListAssignment{EmployeeID: "emp-1", ListID: "hl-b", Finalized: false}))
	require.NoError(t, s.SaveAssignment(ctx, calendar.ListAssignment{EmployeeID: "emp-2", ListID: "hl-a", Finalized: true}))

	got, err := s.AssignmentsByEmployee(ctx, "emp-1")
	require.NoError(t, err)

	assert.Len(t, got, 2)
	for _, a := range got {
		assert.NotEmpty(t, a.ID, "ids are generated on save")
	}
}

// =============================================================================
// REQUESTS
// =============================================================================

func TestRequests_FilterByStatusAndOverlap(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	save := func(id, from, to string, status leave.Status) {
		require.NoError(t, s.SaveRequest(ctx, leave.Request{
			ID: id, EmployeeID: "emp-1", Type: leave.TypeCasual,
			Span: span(from, to), Status: status, Finalized: true,
		}))
	}
	save("r-jun", "2025-06-10", "2025-06-11", leave.StatusOpen)
	save("r-cross", "2025-06-30", "2025-07-02", leave.StatusApproved)
	save("r-rej", "2025-06-12", "2025-06-12", leave.StatusRejected)
	save("r-jul", "2025-07-10", "2025-07-10", leave.StatusOpen)

	got, err := s.Requests(ctx, leave.RequestFilter{
		EmployeeID:  "emp-1",
		Type:        leave.TypeCasual,
		Statuses:    []leave.Status{leave.StatusOpen, leave.StatusApproved},
		Overlapping: calendar.MonthSpan(2025, time.June),
	})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "r-jun", got[0].ID, "ordered by from_date")
	assert.Equal(t, "r-cross", got[1].ID, "cross-month request overlaps June")
}

func TestRequests_ExcludeByID(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRequest(ctx, leave.Request{
		ID: "r-self", EmployeeID: "emp-1", Type: leave.TypeCasual,
		Span: span("2025-06-10", "2025-06-11"), Status: leave.StatusOpen,
	}))

	got, err := s.Requests(ctx, leave.RequestFilter{EmployeeID: "emp-1", ExcludeID: "r-self"})
	require.NoError(t, err)

	assert.Empty(t, got)
}

func TestRequests_HalfDayFieldsSurvive(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRequest(ctx, leave.Request{
		ID: "r-half", EmployeeID: "emp-1", Type: leave.TypeCasual,
		Span: span("2025-06-10", "2025-06-11"), Status: leave.StatusOpen,
		HalfDay: true, HalfDayDate: d("2025-06-11"),
	}))

	got, err := s.Requests(ctx, leave.RequestFilter{EmployeeID: "emp-1"})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.True(t, got[0].HalfDay)
	assert.Equal(t, d("2025-06-11"), got[0].HalfDayDate)
}

// =============================================================================
// ALLOCATIONS
// =============================================================================

func TestAllocations_CreateAndQuery(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	created, err := s.CreateAllocation(ctx, leave.Allocation{
		EmployeeID:     "emp-1",
		Type:           leave.TypeCasual,
		Span:           span("2024-11-01", "2024-11-30"),
		NewAllocated:   decimal.NewFromInt(1),
		TotalAllocated: decimal.NewFromInt(1),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID, "id generated on create")

	got, err := s.Allocations(ctx, leave.AllocationFilter{
		EmployeeID:  "emp-1",
		Type:        leave.TypeCasual,
		Overlapping: calendar.MonthSpan(2024, time.November),
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].TotalAllocated.Equal(decimal.NewFromInt(1)))
}

func TestAddToAllocation_ReturnsPersistedTotals(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	created, err := s.CreateAllocation(ctx, leave.Allocation{
		EmployeeID:     "emp-1",
		Type:           leave.TypeCasual,
		Span:           span("2025-04-01", "2026-03-31"),
		NewAllocated:   decimal.NewFromInt(1),
		TotalAllocated: decimal.NewFromInt(1),
	})
	require.NoError(t, err)

	after, err := s.AddToAllocation(ctx, created.ID, decimal.NewFromInt(1))
	require.NoError(t, err)

	assert.True(t, after.TotalAllocated.Equal(decimal.NewFromInt(2)))
	assert.True(t, after.NewAllocated.Equal(decimal.NewFromInt(2)))
}

func TestAddToAllocation_HalfDayIncrementKeepsPrecision(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	created, err := s.CreateAllocation(ctx, leave.Allocation{
		EmployeeID:     "emp-1",
		Type:           leave.TypeCasual,
		Span:           span("2025-04-01", "2026-03-31"),
		NewAllocated:   decimal.NewFromFloat(0.5),
		TotalAllocated: decimal.NewFromFloat(0.5),
	})
	require.NoError(t, err)

	after, err := s.AddToAllocation(ctx, created.ID, decimal.NewFromFloat(0.5))
	require.NoError(t, err)

	assert.Equal(t, "1", after.TotalAllocated.String())
}

func TestCancelAllocation_HidesFromQueries(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	created, err := s.CreateAllocation(ctx, leave.Allocation{
		EmployeeID:     "emp-1",
		Type:           leave.TypeCasual,
		Span:           span("2024-11-01", "2024-11-30"),
		NewAllocated:   decimal.NewFromInt(1),
		TotalAllocated: decimal.NewFromInt(1),
	})
	require.NoError(t, err)

	require.NoError(t, s.CancelAllocation(ctx, created.ID))

	got, err := s.Allocations(ctx, leave.AllocationFilter{EmployeeID: "emp-1"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCancelAllocation_Missing(t *testing.T) {
	s := newStore(t)

	err := s.CancelAllocation(context.Background(), "alloc-ghost")

	assert.ErrorIs(t, err, leave.ErrAllocationNotFound)
}
