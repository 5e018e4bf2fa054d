/*
engine.go - The monthly accrual engine

PURPOSE:
  Computes, for each eligible employee, how much casual leave should
  have accrued by a reference date, and reconciles that against the
  allocation records already on file. Runs on a schedule; every entry
  point takes "today" as a parameter so the engine itself never reads
  the clock.

TWO VARIANTS (both supported):
  RunMonthly (cumulative):
    One growing allocation per accounting period. The current month's
    increment is added to the existing record; the persisted total is
    compared before and after the write. An unchanged total means the
    store refused the increase (external cap) - that is a NO-OP
    outcome, counted and logged, never a success.

  Backfill (per-month chain):
    Independent month-bounded allocations with carry-over:
      total  = increment + unused_from_previous_month
      unused = total - min(consumed_in_month, total)
    Skips months that already have an active allocation (idempotent);
    with rebuild=true it first cancels the period's active allocations
    and reconstructs the whole chain.

ISOLATION:
  Employees are processed sequentially and independently: a failure for
  one is logged, counted, and does not abort the run. A panic anywhere
  in a run is caught at the top so the run reports that it did not
  complete normally instead of crashing silently.

SEE ALSO:
  - period.go: accounting period and eligible-month enumeration
  - leave/store.go: AllocationStore contract (persisted-total reads)
*/
package accrual

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gvs/leave-engine/calendar"
	"github.com/gvs/leave-engine/leave"
)

// =============================================================================
// CONFIG
// =============================================================================

// Config carries the accrual policy parameters.
type Config struct {
	LeaveType        leave.Type
	MonthlyIncrement decimal.Decimal

	// ExcludedMonths accrue nothing.
	ExcludedMonths []time.Month

	// PeriodStartMonth anchors the accounting period (April for the
	// organization's fiscal year).
	PeriodStartMonth time.Month
}

func DefaultConfig() Config {
	return Config{
		LeaveType:        leave.TypeCasual,
		MonthlyIncrement: decimal.NewFromInt(1),
		ExcludedMonths:   []time.Month{time.February, time.April},
		PeriodStartMonth: time.April,
	}
}

// =============================================================================
// RUN SUMMARY
// =============================================================================

// Summary is the per-run accounting reported to operators.
type Summary struct {
	Created int // new allocations persisted
	Updated int // existing allocations grown
	Skipped int // not yet eligible, or month excluded
	NoOps   int // writes the store silently refused
	Failed  int // employees that errored (run continued)
}

func (s Summary) String() string {
	return fmt.Sprintf("created=%d updated=%d skipped=%d noops=%d failed=%d",
		s.Created, s.Updated, s.Skipped, s.NoOps, s.Failed)
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine runs accrual over the employee directory.
type Engine struct {
	Config      Config
	Directory   leave.Directory
	Allocations leave.AllocationStore
	Accountant  *leave.Accountant
}

func NewEngine(cfg Config, dir leave.Directory, allocs leave.AllocationStore, acc *leave.Accountant) *Engine {
	return &Engine{Config: cfg, Directory: dir, Allocations: allocs, Accountant: acc}
}

// eligible reports whether emp accrues at all: active, probation ended
// strictly before today.
func (e *Engine) eligible(emp *leave.Employee, today calendar.Date) bool {
	return emp.Active && !emp.ProbationEnd.IsZero() && emp.ProbationEnd.Before(today)
}

// =============================================================================
// RUN MONTHLY - Cumulative variant
// =============================================================================

// RunMonthly accrues the current month's increment for every eligible
// employee, growing the period's single allocation record or creating
// it. Running twice in the same month grows the record twice - callers
// schedule it once per month; Backfill is the idempotent variant.
func (e *Engine) RunMonthly(ctx context.Context, today calendar.Date) (summary Summary, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("accrual run panicked: %v", r)
			log.Printf("[Accrual] CRITICAL: run did not complete normally: %v", r)
		}
	}()

	if monthExcluded(today.Month(), e.Config.ExcludedMonths) {
		log.Printf("[Accrual] %s is an excluded month, nothing to allocate", today.Month())
		return summary, nil
	}

	period := PeriodFor(today, e.Config.PeriodStartMonth)

	employees, err := e.Directory.ActiveEmployees(ctx)
	if err != nil {
		return summary, fmt.Errorf("list active employees: %w", err)
	}

	for _, emp := range employees {
		if !e.eligible(emp, today) {
			summary.Skipped++
			continue
		}
		start := StartDate(emp.ProbationEnd, period.From)
		if start.After(today) {
			summary.Skipped++
			continue
		}

		outcome, err := e.accrueOne(ctx, emp, start, period)
		if err != nil {
			log.Printf("[Accrual] employee %s (%s): %v", emp.ID, emp.Name, err)
			summary.Failed++
			continue
		}
		switch outcome {
		case outcomeCreated:
			summary.Created++
		case outcomeUpdated:
			summary.Updated++
		case outcomeNoOp:
			summary.NoOps++
		}
	}

	log.Printf("[Accrual] monthly run for %s: %s", calendar.MonthName(today.Year(), today.Month()), summary)
	return summary, nil
}

type outcome int

const (
	outcomeCreated outcome = iota
	outcomeUpdated
	outcomeNoOp
)

// accrueOne adds one monthly increment for emp inside period. Each
// write is an independent commit; there is no cross-record transaction.
func (e *Engine) accrueOne(ctx context.Context, emp *leave.Employee, start calendar.Date, period calendar.Span) (outcome, error) {
	existing, err := e.Allocations.Allocations(ctx, leave.AllocationFilter{
		EmployeeID:  emp.ID,
		Type:        e.Config.LeaveType,
		Overlapping: period,
	})
	if err != nil {
		return 0, fmt.Errorf("query allocations: %w", err)
	}

	if len(existing) == 0 {
		_, err := e.Allocations.CreateAllocation(ctx, leave.Allocation{
			EmployeeID:     emp.ID,
			Type:           e.Config.LeaveType,
			Span:           calendar.NewSpan(start, period.To),
			NewAllocated:   e.Config.MonthlyIncrement,
			TotalAllocated: e.Config.MonthlyIncrement,
		})
		if err != nil {
			return 0, fmt.Errorf("create allocation: %w", err)
		}
		return outcomeCreated, nil
	}

	// Grow the earliest active allocation and verify the persisted
	// total actually moved.
	target := existing[0]
	before := target.TotalAllocated
	after, err := e.Allocations.AddToAllocation(ctx, target.ID, e.Config.MonthlyIncrement)
	if err != nil {
		return 0, fmt.Errorf("increment allocation %s: %w", target.ID, err)
	}
	if !after.TotalAllocated.GreaterThan(before) {
		log.Printf("[Accrual] allocation %s total unchanged at %s, store refused increase",
			target.ID, after.TotalAllocated)
		return outcomeNoOp, nil
	}
	return outcomeUpdated, nil
}

// =============================================================================
// BACKFILL - Per-month chain with carry-over
// =============================================================================

// Backfill reconstructs the per-month allocation chain from each
// employee's accrual start through today. Months that already have an
// active allocation are skipped, so running twice creates nothing the
// second time. With rebuild=true, the period's active allocations are
// cancelled first and the chain is rebuilt from scratch.
func (e *Engine) Backfill(ctx context.Context, today calendar.Date, rebuild bool) (summary Summary, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("backfill panicked: %v", r)
			log.Printf("[Accrual] CRITICAL: backfill did not complete normally: %v", r)
		}
	}()

	period := PeriodFor(today, e.Config.PeriodStartMonth)

	employees, err := e.Directory.ActiveEmployees(ctx)
	if err != nil {
		return summary, fmt.Errorf("list active employees: %w", err)
	}

	for _, emp := range employees {
		if !e.eligible(emp, today) {
			summary.Skipped++
			continue
		}
		if err := e.backfillOne(ctx, emp, today, period, rebuild, &summary); err != nil {
			log.Printf("[Accrual] backfill employee %s (%s): %v", emp.ID, emp.Name, err)
			summary.Failed++
		}
	}

	log.Printf("[Accrual] backfill through %s: %s", today, summary)
	return summary, nil
}

func (e *Engine) backfillOne(ctx context.Context, emp *leave.Employee, today calendar.Date, period calendar.Span, rebuild bool, summary *Summary) error {
	start := StartDate(emp.ProbationEnd, period.From)
	if start.After(today) {
		summary.Skipped++
		return nil
	}

	if rebuild {
		if err := e.cancelSuperseded(ctx, emp, period); err != nil {
			return err
		}
	}

	carry := decimal.Zero
	for _, month := range EligibleMonths(start, today, e.Config.ExcludedMonths) {
		existing, err := e.Allocations.Allocations(ctx, leave.AllocationFilter{
			EmployeeID:  emp.ID,
			Type:        e.Config.LeaveType,
			Overlapping: month,
		})
		if err != nil {
			return fmt.Errorf("query allocations for %s: %w", month, err)
		}

		consumed, err := e.Accountant.MonthlyConsumption(ctx, emp, month, "")
		if err != nil {
			return fmt.Errorf("consumption in %s: %w", month, err)
		}

		if len(existing) > 0 {
			// Already allocated: keep the record, continue the chain
			// from its persisted total.
			total := existing[0].TotalAllocated
			carry = total.Sub(decimal.Min(consumed, total))
			summary.Skipped++
			continue
		}

		total := e.Config.MonthlyIncrement.Add(carry)
		if _, err := e.Allocations.CreateAllocation(ctx, leave.Allocation{
			EmployeeID:     emp.ID,
			Type:           e.Config.LeaveType,
			Span:           month,
			NewAllocated:   e.Config.MonthlyIncrement,
			TotalAllocated: total,
			Unused:         carry,
		}); err != nil {
			return fmt.Errorf("create allocation for %s: %w", month, err)
		}
		summary.Created++

		carry = total.Sub(decimal.Min(consumed, total))
	}
	return nil
}

// cancelSuperseded cancels every active allocation of the configured
// type inside the period, ahead of a chain rebuild.
func (e *Engine) cancelSuperseded(ctx context.Context, emp *leave.Employee, period calendar.Span) error {
	existing, err := e.Allocations.Allocations(ctx, leave.AllocationFilter{
		EmployeeID:  emp.ID,
		Type:        e.Config.LeaveType,
		Overlapping: period,
	})
	if err != nil {
		return fmt.Errorf("query allocations: %w", err)
	}
	for _, a := range existing {
		if err := e.Allocations.CancelAllocation(ctx, a.ID); err != nil {
			return fmt.Errorf("cancel allocation %s: %w", a.ID, err)
		}
	}
	return nil
}
