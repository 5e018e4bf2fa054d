/*
Package sqlite provides a SQLite-backed implementation of the engine's
repository interfaces.

PURPOSE:
  Implements calendar.ListStore, calendar.AssignmentStore,
  leave.Directory, leave.RequestRepository and leave.AllocationStore
  using SQLite. In production the same patterns apply to PostgreSQL -
  only minor SQL dialect differences.

STORAGE CONVENTIONS:
  - Dates stored as TEXT in "2006-01-02"; lexical order == date order,
    so range predicates work directly in SQL
  - Day-count amounts stored as TEXT and parsed with shopspring/decimal;
    REAL would reintroduce the float errors the engine exists to avoid
  - Every allocation write re-reads the row, so callers always see the
    totals as PERSISTED (the accrual engine's no-op detection depends
    on this)

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better
  concurrency: multiple readers don't block, single writer at a time,
  better crash recovery.

USAGE:
  store, err := sqlite.New("./data/leave.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - leave/store.go: interface contracts
  - store/memory.go: in-memory implementation backing the tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/gvs/leave-engine/calendar"
	"github.com/gvs/leave-engine/leave"
)

// Store implements all repository interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database at dbPath. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		stayback_day TEXT,
		holiday_list_id TEXT,
		probation_end TEXT,
		active BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE TABLE IF NOT EXISTS holiday_lists (
		id TEXT PRIMARY KEY,
		name TEXT,
		valid_from TEXT NOT NULL,
		valid_to TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS holidays (
		list_id TEXT NOT NULL,
		date TEXT NOT NULL,
		PRIMARY KEY (list_id, date)
	);

	CREATE TABLE IF NOT EXISTS list_assignments (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		list_id TEXT NOT NULL,
		finalized BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE INDEX IF NOT EXISTS idx_assignments_employee
		ON list_assignments(employee_id);

	CREATE TABLE IF NOT EXISTS requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		leave_type TEXT NOT NULL,
		from_date TEXT NOT NULL,
		to_date TEXT NOT NULL,
		half_day BOOLEAN NOT NULL DEFAULT FALSE,
		half_day_date TEXT,
		status TEXT NOT NULL,
		finalized BOOLEAN NOT NULL DEFAULT FALSE
	);

	-- Overlap queries are the hot path for quota accounting
	CREATE INDEX IF NOT EXISTS idx_requests_employee_type_dates
		ON requests(employee_id, leave_type, from_date, to_date);

	CREATE TABLE IF NOT EXISTS allocations (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		leave_type TEXT NOT NULL,
		from_date TEXT NOT NULL,
		to_date TEXT NOT NULL,
		new_allocated TEXT NOT NULL,
		total_allocated TEXT NOT NULL,
		unused TEXT NOT NULL DEFAULT '0',
		cancelled BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE INDEX IF NOT EXISTS idx_allocations_employee_type_dates
		ON allocations(employee_id, leave_type, from_date, to_date);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// WRITE SIDE (HR data entry / seeding)
// =============================================================================

func (s *Store) SaveEmployee(ctx context.Context, e leave.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stayback any
	if e.StaybackDay != nil {
		stayback = e.StaybackDay.String()
	}
	var probation any
	if !e.ProbationEnd.IsZero() {
		probation = e.ProbationEnd.String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO employees
		(id, name, category, stayback_day, holiday_list_id, probation_end, active)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, string(e.Category), stayback, string(e.HolidayListID), probation, e.Active)
	if err != nil {
		return fmt.Errorf("save employee %s: %w", e.ID, err)
	}
	return nil
}

func (s *Store) SaveHolidayList(ctx context.Context, hl *calendar.HolidayList) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO holiday_lists (id, name, valid_from, valid_to)
		VALUES (?, ?, ?, ?)`,
		string(hl.ID), hl.Name, hl.Validity.From.String(), hl.Validity.To.String()); err != nil {
		return fmt.Errorf("save holiday list %s: %w", hl.ID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM holidays WHERE list_id = ?`, string(hl.ID)); err != nil {
		return fmt.Errorf("clear holidays for %s: %w", hl.ID, err)
	}
	for d := range hl.Holidays {
		if _, err := tx.ExecContext(ctx, `INSERT INTO holidays (list_id, date) VALUES (?, ?)`,
			string(hl.ID), d.String()); err != nil {
			return fmt.Errorf("save holiday %s: %w", d, err)
		}
	}
	return tx.Commit()
}

func (s *Store) SaveAssignment(ctx context.Context, a calendar.ListAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO list_assignments (id, employee_id, list_id, finalized)
		VALUES (?, ?, ?, ?)`,
		a.ID, a.EmployeeID, string(a.ListID), a.Finalized)
	if err != nil {
		return fmt.Errorf("save assignment %s: %w", a.ID, err)
	}
	return nil
}

func (s *Store) SaveRequest(ctx context.Context, r leave.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	var halfDayDate any
	if !r.HalfDayDate.IsZero() {
		halfDayDate = r.HalfDayDate.String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO requests
		(id, employee_id, leave_type, from_date, to_date, half_day, half_day_date, status, finalized)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.EmployeeID, string(r.Type), r.Span.From.String(), r.Span.To.String(),
		r.HalfDay, halfDayDate, string(r.Status), r.Finalized)
	if err != nil {
		return fmt.Errorf("save request %s: %w", r.ID, err)
	}
	return nil
}

// =============================================================================
// calendar.ListStore / calendar.AssignmentStore
// =============================================================================

func (s *Store) HolidayList(ctx context.Context, id calendar.ListID) (*calendar.HolidayList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var name, validFrom, validTo string
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(name, ''), valid_from, valid_to FROM holiday_lists WHERE id = ?`,
		string(id)).Scan(&name, &validFrom, &validTo)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load holiday list %s: %w", id, err)
	}

	from, err := calendar.ParseDate(validFrom)
	if err != nil {
		return nil, fmt.Errorf("holiday list %s valid_from: %w", id, err)
	}
	to, err := calendar.ParseDate(validTo)
	if err != nil {
		return nil, fmt.Errorf("holiday list %s valid_to: %w", id, err)
	}

	hl := calendar.NewHolidayList(id, calendar.NewSpan(from, to))
	hl.Name = name

	rows, err := s.db.QueryContext(ctx, `SELECT date FROM holidays WHERE list_id = ?`, string(id))
	if err != nil {
		return nil, fmt.Errorf("load holidays for %s: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var ds string
		if err := rows.Scan(&ds); err != nil {
			return nil, err
		}
		d, err := calendar.ParseDate(ds)
		if err != nil {
			return nil, fmt.Errorf("holiday date for %s: %w", id, err)
		}
		hl.Holidays[d] = struct{}{}
	}
	return hl, rows.Err()
}

func (s *Store) AssignmentsByEmployee(ctx context.Context, employeeID string) ([]calendar.ListAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, employee_id, list_id, finalized FROM list_assignments WHERE employee_id = ?`,
		employeeID)
	if err != nil {
		return nil, fmt.Errorf("load assignments for %s: %w", employeeID, err)
	}
	defer rows.Close()

	var out []calendar.ListAssignment
	for rows.Next() {
		var a calendar.ListAssignment
		var listID string
		if err := rows.Scan(&a.ID, &a.EmployeeID, &listID, &a.Finalized); err != nil {
			return nil, err
		}
		a.ListID = calendar.ListID(listID)
		out = append(out, a)
	}
	return out, rows.Err()
}

// =============================================================================
// leave.Directory
// =============================================================================

const employeeColumns = `id, name, category, stayback_day, holiday_list_id, probation_end, active`

func (s *Store) Employee(ctx context.Context, id string) (*leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id)
	emp, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, leave.ErrEmployeeNotFound
	}
	return emp, err
}

func (s *Store) ActiveEmployees(ctx context.Context) ([]*leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list active employees: %w", err)
	}
	defer rows.Close()

	var out []*leave.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (*leave.Employee, error) {
	var e leave.Employee
	var category, listID string
	var stayback, probation sql.NullString
	if err := row.Scan(&e.ID, &e.Name, &category, &stayback, &listID, &probation, &e.Active); err != nil {
		return nil, err
	}
	e.Category = leave.StaffCategory(category)
	e.HolidayListID = calendar.ListID(listID)
	if stayback.Valid && stayback.String != "" {
		wd, err := parseWeekday(stayback.String)
		if err != nil {
			return nil, fmt.Errorf("employee %s stayback day: %w", e.ID, err)
		}
		e.StaybackDay = &wd
	}
	if probation.Valid && probation.String != "" {
		d, err := calendar.ParseDate(probation.String)
		if err != nil {
			return nil, fmt.Errorf("employee %s probation end: %w", e.ID, err)
		}
		e.ProbationEnd = d
	}
	return &e, nil
}

var weekdays = map[string]time.Weekday{
	"Sunday":    time.Sunday,
	"Monday":    time.Monday,
	"Tuesday":   time.Tuesday,
	"Wednesday": time.Wednesday,
	"Thursday":  time.Thursday,
	"Friday":    time.Friday,
	"Saturday":  time.Saturday,
}

func parseWeekday(name string) (time.Weekday, error) {
	wd, ok := weekdays[name]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", name)
	}
	return wd, nil
}

// =============================================================================
// leave.RequestRepository
// =============================================================================

func (s *Store) Requests(ctx context.Context, f leave.RequestFilter) ([]*leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, employee_id, leave_type, from_date, to_date, half_day, half_day_date, status, finalized
		FROM requests WHERE 1=1`
	var args []any

	if f.EmployeeID != "" {
		query += ` AND employee_id = ?`
		args = append(args, f.EmployeeID)
	}
	if f.Type != "" {
		query += ` AND leave_type = ?`
		args = append(args, string(f.Type))
	}
	if len(f.Statuses) > 0 {
		query += ` AND status IN (?` + strings.Repeat(",?", len(f.Statuses)-1) + `)`
		for _, st := range f.Statuses {
			args = append(args, string(st))
		}
	}
	if f.Overlapping.IsValid() {
		// Inclusive range overlap: from <= window.to AND to >= window.from
		query += ` AND from_date <= ? AND to_date >= ?`
		args = append(args, f.Overlapping.To.String(), f.Overlapping.From.String())
	}
	if f.ExcludeID != "" {
		query += ` AND id != ?`
		args = append(args, f.ExcludeID)
	}
	query += ` ORDER BY from_date ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query requests: %w", err)
	}
	defer rows.Close()

	var out []*leave.Request
	for rows.Next() {
		var r leave.Request
		var leaveType, fromDate, toDate, status string
		var halfDayDate sql.NullString
		if err := rows.Scan(&r.ID, &r.EmployeeID, &leaveType, &fromDate, &toDate,
			&r.HalfDay, &halfDayDate, &status, &r.Finalized); err != nil {
			return nil, err
		}
		r.Type = leave.Type(leaveType)
		r.Status = leave.Status(status)
		from, err := calendar.ParseDate(fromDate)
		if err != nil {
			return nil, fmt.Errorf("request %s from_date: %w", r.ID, err)
		}
		to, err := calendar.ParseDate(toDate)
		if err != nil {
			return nil, fmt.Errorf("request %s to_date: %w", r.ID, err)
		}
		r.Span = calendar.NewSpan(from, to)
		if halfDayDate.Valid && halfDayDate.String != "" {
			hd, err := calendar.ParseDate(halfDayDate.String)
			if err != nil {
				return nil, fmt.Errorf("request %s half_day_date: %w", r.ID, err)
			}
			r.HalfDayDate = hd
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// =============================================================================
// leave.AllocationStore
// =============================================================================

func (s *Store) CreateAllocation(ctx context.Context, a leave.Allocation) (*leave.Allocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO allocations
		(id, employee_id, leave_type, from_date, to_date, new_allocated, total_allocated, unused, cancelled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, FALSE)`,
		a.ID, a.EmployeeID, string(a.Type), a.Span.From.String(), a.Span.To.String(),
		a.NewAllocated.String(), a.TotalAllocated.String(), a.Unused.String())
	if err != nil {
		return nil, fmt.Errorf("create allocation: %w", err)
	}
	return s.allocationByID(ctx, a.ID)
}

func (s *Store) Allocations(ctx context.Context, f leave.AllocationFilter) ([]*leave.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, employee_id, leave_type, from_date, to_date, new_allocated, total_allocated, unused, cancelled
		FROM allocations WHERE NOT cancelled`
	var args []any
	if f.EmployeeID != "" {
		query += ` AND employee_id = ?`
		args = append(args, f.EmployeeID)
	}
	if f.Type != "" {
		query += ` AND leave_type = ?`
		args = append(args, string(f.Type))
	}
	if f.Overlapping.IsValid() {
		query += ` AND from_date <= ? AND to_date >= ?`
		args = append(args, f.Overlapping.To.String(), f.Overlapping.From.String())
	}
	query += ` ORDER BY from_date ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query allocations: %w", err)
	}
	defer rows.Close()

	var out []*leave.Allocation
	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AddToAllocation grows new_allocated and total_allocated, then
// re-reads the row: the caller must see the totals as PERSISTED, since
// a trigger or external cap may have clamped the write.
func (s *Store) AddToAllocation(ctx context.Context, id string, increment decimal.Decimal) (*leave.Allocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.allocationByID(ctx, id)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE allocations SET new_allocated = ?, total_allocated = ? WHERE id = ?`,
		current.NewAllocated.Add(increment).String(),
		current.TotalAllocated.Add(increment).String(),
		id)
	if err != nil {
		return nil, fmt.Errorf("increment allocation %s: %w", id, err)
	}
	return s.allocationByID(ctx, id)
}

func (s *Store) CancelAllocation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `UPDATE allocations SET cancelled = TRUE WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("cancel allocation %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return leave.ErrAllocationNotFound
	}
	return nil
}

func (s *Store) allocationByID(ctx context.Context, id string) (*leave.Allocation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, employee_id, leave_type, from_date, to_date, new_allocated, total_allocated, unused, cancelled
		FROM allocations WHERE id = ?`, id)
	a, err := scanAllocation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, leave.ErrAllocationNotFound
	}
	return a, err
}

func scanAllocation(row rowScanner) (*leave.Allocation, error) {
	var a leave.Allocation
	var leaveType, fromDate, toDate, newAlloc, totalAlloc, unused string
	if err := row.Scan(&a.ID, &a.EmployeeID, &leaveType, &fromDate, &toDate,
		&newAlloc, &totalAlloc, &unused, &a.Cancelled); err != nil {
		return nil, err
	}
	a.Type = leave.Type(leaveType)

	from, err := calendar.ParseDate(fromDate)
	if err != nil {
		return nil, fmt.Errorf("allocation %s from_date: %w", a.ID, err)
	}
	to, err := calendar.ParseDate(toDate)
	if err != nil {
		return nil, fmt.Errorf("allocation %s to_date: %w", a.ID, err)
	}
	a.Span = calendar.NewSpan(from, to)

	if a.NewAllocated, err = decimal.NewFromString(newAlloc); err != nil {
		return nil, fmt.Errorf("allocation %s new_allocated: %w", a.ID, err)
	}
	if a.TotalAllocated, err = decimal.NewFromString(totalAlloc); err != nil {
		return nil, fmt.Errorf("allocation %s total_allocated: %w", a.ID, err)
	}
	if a.Unused, err = decimal.NewFromString(unused); err != nil {
		return nil, fmt.Errorf("allocation %s unused: %w", a.ID, err)
	}
	return &a, nil
}
