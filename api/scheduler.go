/*
scheduler.go - Automated accrual scheduler

PURPOSE:
  Runs the monthly accrual engine without operator intervention. Checks
  periodically whether the current month has been processed yet; at
  most one monthly run happens per calendar month regardless of how
  often the check fires.

DESIGN:
  - Background goroutine with configurable check interval
  - Tracks the last processed month in memory; a restart mid-month
    re-runs that month's accrual, which the idempotent backfill mode
    repairs if it double-counts (see Engine.RunMonthly vs Backfill)
  - Run summaries are mailed to the HR operations inbox, best-effort

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewAccrualScheduler(engine, mailer)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: TriggerAccrual endpoint (manual runs)
  - accrual/engine.go: the engine itself
*/
package api

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gvs/leave-engine/accrual"
	"github.com/gvs/leave-engine/calendar"
	"github.com/gvs/leave-engine/notify"
)

// AccrualScheduler triggers the monthly accrual run.
type AccrualScheduler struct {
	Engine        *accrual.Engine
	Mailer        notify.Mailer
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex

	// lastRun is the "2006-01" key of the last month processed.
	lastRun string
}

// NewAccrualScheduler creates a new scheduler.
func NewAccrualScheduler(engine *accrual.Engine, mailer notify.Mailer) *AccrualScheduler {
	return &AccrualScheduler{
		Engine:        engine,
		Mailer:        mailer,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (s *AccrualScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	s.ticker = time.NewTicker(s.CheckInterval)
	s.wg.Add(1)

	go s.run()

	log.Printf("[Scheduler] Started with check interval: %v", s.CheckInterval)
}

// Stop stops the scheduler.
func (s *AccrualScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (s *AccrualScheduler) run() {
	defer s.wg.Done()

	// Run immediately on start
	s.checkAndProcess()

	for {
		select {
		case <-s.ticker.C:
			s.checkAndProcess()
		case <-s.stop:
			return
		}
	}
}

func (s *AccrualScheduler) checkAndProcess() {
	today := calendar.DateOf(time.Now())
	monthKey := fmt.Sprintf("%04d-%02d", today.Year(), int(today.Month()))

	s.mu.Lock()
	done := s.lastRun == monthKey
	s.mu.Unlock()
	if done {
		return
	}

	log.Printf("[Scheduler] Running monthly accrual for %s", calendar.MonthName(today.Year(), today.Month()))

	summary, err := s.Engine.RunMonthly(context.Background(), today)
	if err != nil {
		log.Printf("[Scheduler] Accrual run failed: %v", err)
		s.notify(fmt.Sprintf("Leave accrual FAILED for %s", monthKey), err.Error())
		return
	}

	s.mu.Lock()
	s.lastRun = monthKey
	s.mu.Unlock()

	log.Printf("[Scheduler] Completed: %s", summary)
	s.notify(
		fmt.Sprintf("Leave accrual completed for %s", monthKey),
		fmt.Sprintf("Monthly accrual run for %s\n\n%s\n", calendar.MonthName(today.Year(), today.Month()), summary),
	)
}

func (s *AccrualScheduler) notify(subject, body string) {
	if s.Mailer == nil {
		return
	}
	if err := s.Mailer.SendRunSummary(subject, body); err != nil {
		log.Printf("[Scheduler] Failed to send summary mail: %v", err)
	}
}

// RunNow triggers an immediate check (for testing/admin).
func (s *AccrualScheduler) RunNow() {
	s.checkAndProcess()
}
