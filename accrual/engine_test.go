/*
engine_test.go - Accrual engine behavior

Covers both run variants:
- RunMonthly: cumulative allocation growth with persisted-total no-op
  detection
- Backfill: idempotent per-month chain reconstruction with carry-over
*/
package accrual_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gvs/leave-engine/accrual"
	"github.com/gvs/leave-engine/calendar"
	"github.com/gvs/leave-engine/leave"
	"github.com/gvs/leave-engine/store"
)

// =============================================================================
// TEST INFRASTRUCTURE
// =============================================================================

func span(from, to string) calendar.Span {
	return calendar.NewSpan(d(from), d(to))
}

func dec(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

// seedWorld creates the holiday list and one eligible employee whose
// probation ended on the given date.
func seedWorld(probationEnd string) *store.Memory {
	m := store.NewMemory()
	m.PutHolidayList(calendar.NewHolidayList("hl-main", span("2024-01-01", "2026-12-31")))
	m.PutEmployee(leave.Employee{
		ID:            "emp-1",
		Name:          "Asha",
		Category:      leave.CategorySecondary,
		HolidayListID: "hl-main",
		ProbationEnd:  d(probationEnd),
		Active:        true,
	})
	return m
}

func newEngine(m *store.Memory) *accrual.Engine {
	return newEngineWith(m, m)
}

func newEngineWith(m *store.Memory, allocs leave.AllocationStore) *accrual.Engine {
	accountant := leave.NewAccountant(m, calendar.NewResolver(m, m))
	return accrual.NewEngine(accrual.DefaultConfig(), m, allocs, accountant)
}

func allocationsOf(t *testing.T, allocs leave.AllocationStore, employeeID string) []*leave.Allocation {
	t.Helper()
	out, err := allocs.Allocations(context.Background(), leave.AllocationFilter{EmployeeID: employeeID})
	require.NoError(t, err)
	return out
}

// =============================================================================
// RUN MONTHLY
// =============================================================================

func TestRunMonthly_CreatesAllocationOnFirstRun(t *testing.T) {
	// GIVEN: an eligible employee with no allocation yet
	m := seedWorld("2024-06-15")
	engine := newEngine(m)

	// WHEN: the June run executes
	summary, err := engine.RunMonthly(context.Background(), d("2025-06-10"))
	require.NoError(t, err)

	// THEN: one allocation spanning accrual start to period end
	assert.Equal(t, 1, summary.Created)
	assert.Zero(t, summary.Failed)

	allocs := allocationsOf(t, m, "emp-1")
	require.Len(t, allocs, 1)
	assert.Equal(t, d("2025-04-01"), allocs[0].Span.From, "clamped to period start")
	assert.Equal(t, d("2026-03-31"), allocs[0].Span.To)
	assert.True(t, allocs[0].TotalAllocated.Equal(dec("1")))
}

func TestRunMonthly_GrowsExistingAllocation(t *testing.T) {
	m := seedWorld("2024-06-15")
	engine := newEngine(m)
	ctx := context.Background()

	_, err := engine.RunMonthly(ctx, d("2025-06-10"))
	require.NoError(t, err)

	// WHEN: the next month's run executes
	summary, err := engine.RunMonthly(ctx, d("2025-07-10"))
	require.NoError(t, err)

	// THEN: the same record grew by one
	assert.Equal(t, 1, summary.Updated)
	allocs := allocationsOf(t, m, "emp-1")
	require.Len(t, allocs, 1)
	assert.True(t, allocs[0].TotalAllocated.Equal(dec("2")))
}

func TestRunMonthly_ExcludedMonthAllocatesNothing(t *testing.T) {
	m := seedWorld("2024-06-15")
	engine := newEngine(m)

	// February is excluded
	summary, err := engine.RunMonthly(context.Background(), d("2025-02-10"))
	require.NoError(t, err)

	assert.Equal(t, accrual.Summary{}, summary)
	assert.Empty(t, allocationsOf(t, m, "emp-1"))
}

func TestRunMonthly_SkipsEmployeesStillOnProbation(t *testing.T) {
	// GIVEN: probation ends after today
	m := seedWorld("2025-09-30")
	engine := newEngine(m)

	summary, err := engine.RunMonthly(context.Background(), d("2025-06-10"))
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Skipped)
	assert.Empty(t, allocationsOf(t, m, "emp-1"))
}

func TestRunMonthly_SkipsEmployeesWithoutProbationEnd(t *testing.T) {
	m := store.NewMemory()
	m.PutEmployee(leave.Employee{ID: "emp-x", Name: "X", Category: leave.CategorySecondary, Active: true})
	engine := newEngine(m)

	summary, err := engine.RunMonthly(context.Background(), d("2025-06-10"))
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Skipped)
}

func TestRunMonthly_SkipsBeforeAccrualStart(t *testing.T) {
	// GIVEN: probation ends May 20, accrual starts Jun 1
	m := seedWorld("2025-05-20")
	engine := newEngine(m)

	// WHEN: running on May 25 (probation over, accrual not started)
	summary, err := engine.RunMonthly(context.Background(), d("2025-05-25"))
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Skipped)
}

func TestRunMonthly_DetectsSilentlyRefusedWrite(t *testing.T) {
	// GIVEN: a store that caps totals at 1
	m := seedWorld("2024-06-15")
	capped := &store.CappedAllocations{Memory: m, Cap: dec("1")}
	engine := newEngineWith(m, capped)
	ctx := context.Background()

	_, err := engine.RunMonthly(ctx, d("2025-06-10"))
	require.NoError(t, err)

	// WHEN: the next increment is silently refused
	summary, err := engine.RunMonthly(ctx, d("2025-07-10"))
	require.NoError(t, err)

	// THEN: the run reports a no-op, not an update
	assert.Equal(t, 1, summary.NoOps)
	assert.Zero(t, summary.Updated)

	allocs := allocationsOf(t, capped, "emp-1")
	require.Len(t, allocs, 1)
	assert.True(t, allocs[0].TotalAllocated.Equal(dec("1")), "persisted total unchanged")
}

func TestRunMonthly_EmployeeFailureDoesNotAbortRun(t *testing.T) {
	// GIVEN: two eligible employees; allocation writes fail for the first
	m := seedWorld("2024-06-15")
	m.PutEmployee(leave.Employee{
		ID:            "emp-2",
		Name:          "Ravi",
		Category:      leave.CategorySecondary,
		HolidayListID: "hl-main",
		ProbationEnd:  d("2024-06-15"),
		Active:        true,
	})
	failing := &failingAllocations{Memory: m, failFor: "emp-1"}
	engine := newEngineWith(m, failing)

	summary, err := engine.RunMonthly(context.Background(), d("2025-06-10"))
	require.NoError(t, err)

	// THEN: the failure is counted and the other employee still accrues
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Created)
	assert.Len(t, allocationsOf(t, m, "emp-2"), 1)
}

// failingAllocations rejects writes for one employee.
type failingAllocations struct {
	*store.Memory
	failFor string
}

func (f *failingAllocations) CreateAllocation(ctx context.Context, a leave.Allocation) (*leave.Allocation, error) {
	if a.EmployeeID == f.failFor {
		return nil, assert.AnError
	}
	return f.Memory.CreateAllocation(ctx, a)
}

// =============================================================================
// BACKFILL
// =============================================================================

func TestBackfill_FirstAccrualMonthSkipsExcludedFebruary(t *testing.T) {
	// GIVEN: probation ended Jan 15, so accrual would start Feb 1 - but
	// February is excluded
	m := seedWorld("2025-01-15")
	engine := newEngine(m)

	// WHEN: backfilling as of Mar 10 (period Apr 2024 .. Mar 2025)
	summary, err := engine.Backfill(context.Background(), d("2025-03-10"), false)
	require.NoError(t, err)

	// THEN: exactly one allocation, for March
	assert.Equal(t, 1, summary.Created)
	allocs := allocationsOf(t, m, "emp-1")
	require.Len(t, allocs, 1)
	assert.Equal(t, calendar.MonthSpan(2025, time.March), allocs[0].Span)
	assert.True(t, allocs[0].TotalAllocated.Equal(dec("1")))
}

func TestBackfill_CarryOverChain(t *testing.T) {
	// GIVEN: probation ended Oct 20 2024; one casual day consumed in
	// November
	m := seedWorld("2024-10-20")
	m.PutRequest(leave.Request{
		ID:         "r-nov",
		EmployeeID: "emp-1",
		Type:       leave.TypeCasual,
		Span:       span("2024-11-12", "2024-11-12"),
		Status:     leave.StatusApproved,
		Finalized:  true,
	})
	engine := newEngine(m)

	// WHEN: backfilling through Jan 15 2025
	summary, err := engine.Backfill(context.Background(), d("2025-01-15"), false)
	require.NoError(t, err)

	// THEN: Nov, Dec, Jan allocations with carry-over
	//   Nov: total 1, fully consumed  -> carry 0
	//   Dec: total 1, untouched       -> carry 1
	//   Jan: total 1 + 1 carried = 2
	assert.Equal(t, 3, summary.Created)

	allocs := allocationsOf(t, m, "emp-1")
	require.Len(t, allocs, 3)
	assert.Equal(t, calendar.MonthSpan(2024, time.November), allocs[0].Span)
	assert.True(t, allocs[0].TotalAllocated.Equal(dec("1")))
	assert.True(t, allocs[0].Unused.IsZero())

	assert.Equal(t, calendar.MonthSpan(2024, time.December), allocs[1].Span)
	assert.True(t, allocs[1].TotalAllocated.Equal(dec("1")))

	assert.Equal(t, calendar.MonthSpan(2025, time.January), allocs[2].Span)
	assert.True(t, allocs[2].TotalAllocated.Equal(dec("2")))
	assert.True(t, allocs[2].Unused.Equal(dec("1")), "carried one unused day into January")
}

func TestBackfill_ConsumptionClampedAtTotal(t *testing.T) {
	// GIVEN: more consumption in a month than was allocated (requests
	// approved through the administrative bypass)
	m := seedWorld("2024-10-20")
	m.PutRequest(leave.Request{
		ID:         "r-nov",
		EmployeeID: "emp-1",
		Type:       leave.TypeCasual,
		Span:       span("2024-11-11", "2024-11-12"),
		Status:     leave.StatusApproved,
		Finalized:  true,
	})
	engine := newEngine(m)

	_, err := engine.Backfill(context.Background(), d("2024-12-15"), false)
	require.NoError(t, err)

	// THEN: November over-consumption never drives the carry negative
	allocs := allocationsOf(t, m, "emp-1")
	require.Len(t, allocs, 2)
	assert.True(t, allocs[1].Unused.IsZero())
	assert.True(t, allocs[1].TotalAllocated.Equal(dec("1")))
}

func TestBackfill_SecondRunCreatesNothing(t *testing.T) {
	m := seedWorld("2024-10-20")
	engine := newEngine(m)
	ctx := context.Background()

	first, err := engine.Backfill(ctx, d("2025-01-15"), false)
	require.NoError(t, err)
	require.Equal(t, 3, first.Created)

	// WHEN: running the identical backfill again
	second, err := engine.Backfill(ctx, d("2025-01-15"), false)
	require.NoError(t, err)

	// THEN: every month is skipped, nothing new is written
	assert.Zero(t, second.Created)
	assert.Equal(t, 3, second.Skipped)
	assert.Len(t, allocationsOf(t, m, "emp-1"), 3)
}

func TestBackfill_RebuildReplacesCumulativeAllocation(t *testing.T) {
	// GIVEN: a cumulative allocation from the monthly run
	m := seedWorld("2024-10-20")
	engine := newEngine(m)
	ctx := context.Background()

	_, err := engine.RunMonthly(ctx, d("2025-01-15"))
	require.NoError(t, err)
	require.Len(t, allocationsOf(t, m, "emp-1"), 1)

	// WHEN: rebuilding the per-month chain
	summary, err := engine.Backfill(ctx, d("2025-01-15"), true)
	require.NoError(t, err)

	// THEN: the cumulative record is cancelled and the chain replaces it
	assert.Equal(t, 3, summary.Created)
	allocs := allocationsOf(t, m, "emp-1")
	require.Len(t, allocs, 3)
	for _, a := range allocs {
		assert.True(t, a.Active())
	}
}
