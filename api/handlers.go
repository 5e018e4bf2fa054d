/*
handlers.go - HTTP API handlers for the leave validation engine

PURPOSE:
  Exposes the validation pipeline and accrual engine via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to
  domain logic.

ENDPOINTS:
  Employees:
    GET    /api/employees                    List active employees
    POST   /api/employees                    Create/update employee
    GET    /api/employees/{id}               Get employee
    GET    /api/employees/{id}/allocations   Active allocations
    GET    /api/employees/{id}/consumption   Monthly quota usage

  Requests:
    POST   /api/requests/validate            Dry-run policy validation
    POST   /api/requests                     Validate and persist

  Calendars:
    GET    /api/holidays/{id}                Get holiday list
    POST   /api/holidays                     Create/replace holiday list

  Admin:
    POST   /api/admin/assignments            Bind employee to holiday list
    POST   /api/admin/accrual/run            Trigger an accrual run

ERROR HANDLING:
  Policy violations are NOT errors at the HTTP layer: validation
  returns 200 with allowed=false and the rejection reason, because a
  rejected request is the expected outcome of a working pipeline.
  Operational failures return JSON error bodies:
  - 400: invalid input
  - 404: resource not found
  - 500: internal errors

SECURITY NOTE:
  The acting identity comes from the X-Actor header; there is no
  authentication. Put this behind the gateway that authenticates HR
  staff.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gvs/leave-engine/accrual"
	"github.com/gvs/leave-engine/calendar"
	"github.com/gvs/leave-engine/leave"
	"github.com/gvs/leave-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     *sqlite.Store
	Validator *leave.Validator
	Engine    *accrual.Engine
}

// NewHandler creates a new handler with the given dependencies.
func NewHandler(store *sqlite.Store, validator *leave.Validator, engine *accrual.Engine) *Handler {
	return &Handler{Store: store, Validator: validator, Engine: engine}
}

// actor returns the acting identity for the request. Empty when the
// caller did not identify itself; the bypass identity must be explicit.
func actor(r *http.Request) string {
	return r.Header.Get("X-Actor")
}

// =============================================================================
// EMPLOYEE ENDPOINTS
// =============================================================================

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ActiveEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	emp, err := h.Store.Employee(r.Context(), id)
	if errors.Is(err, leave.ErrEmployeeNotFound) {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	emp := leave.Employee{
		ID:            req.ID,
		Name:          req.Name,
		Category:      leave.StaffCategory(req.Category),
		HolidayListID: calendar.ListID(req.HolidayListID),
		Active:        true,
	}
	if req.Active != nil {
		emp.Active = *req.Active
	}
	if req.StaybackDay != "" {
		wd, ok := parseWeekday(req.StaybackDay)
		if !ok {
			writeError(w, http.StatusBadRequest, "Invalid stayback_day (use weekday name)", nil)
			return
		}
		emp.StaybackDay = &wd
	}
	if req.ProbationEnd != "" {
		d, err := calendar.ParseDate(req.ProbationEnd)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid probation_end format (use YYYY-MM-DD)", err)
			return
		}
		emp.ProbationEnd = d
	}

	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(&emp))
}

func (h *Handler) GetAllocations(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	allocs, err := h.Store.Allocations(r.Context(), leave.AllocationFilter{EmployeeID: id})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get allocations", err)
		return
	}

	dtos := make([]AllocationDTO, len(allocs))
	for i, a := range allocs {
		dtos[i] = AllocationDTO{
			ID:             a.ID,
			EmployeeID:     a.EmployeeID,
			LeaveType:      string(a.Type),
			FromDate:       a.Span.From.String(),
			ToDate:         a.Span.To.String(),
			NewAllocated:   a.NewAllocated.String(),
			TotalAllocated: a.TotalAllocated.String(),
			Unused:         a.Unused.String(),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetConsumption reports quota usage for ?year=&month=, defaulting to
// the current month.
func (h *Handler) GetConsumption(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	emp, err := h.Store.Employee(r.Context(), id)
	if errors.Is(err, leave.ErrEmployeeNotFound) {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}

	now := time.Now()
	year, month := now.Year(), now.Month()
	if y := r.URL.Query().Get("year"); y != "" {
		n, err := strconv.Atoi(y)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		year = n
	}
	if m := r.URL.Query().Get("month"); m != "" {
		n, err := strconv.Atoi(m)
		if err != nil || n < 1 || n > 12 {
			writeError(w, http.StatusBadRequest, "Invalid month", err)
			return
		}
		month = time.Month(n)
	}

	window := calendar.MonthSpan(year, month)
	consumed, err := h.Validator.Accountant.MonthlyConsumption(r.Context(), emp, window, "")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute consumption", err)
		return
	}

	writeJSON(w, http.StatusOK, ConsumptionDTO{
		EmployeeID: id,
		Year:       year,
		Month:      int(month),
		Consumed:   consumed.String(),
	})
}

// =============================================================================
// REQUEST ENDPOINTS
// =============================================================================

// ValidateRequest dry-runs the policy pipeline. It never persists
// anything; submitting the same payload twice gives the same answer.
func (h *Handler) ValidateRequest(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeLeaveRequest(w, r)
	if !ok {
		return
	}

	err := h.Validator.Validate(r.Context(), req, actor(r))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, ValidationResultDTO{Allowed: true})
	case leave.IsViolation(err):
		writeJSON(w, http.StatusOK, ValidationResultDTO{Allowed: false, Reason: err.Error()})
	default:
		writeError(w, http.StatusInternalServerError, "Validation failed", err)
	}
}

// SubmitRequest validates and, on success, persists the request. A
// policy violation returns 422 with the rejection reason.
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeLeaveRequest(w, r)
	if !ok {
		return
	}

	err := h.Validator.Validate(r.Context(), req, actor(r))
	if leave.IsViolation(err) {
		writeJSON(w, http.StatusUnprocessableEntity, ValidationResultDTO{Allowed: false, Reason: err.Error()})
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Validation failed", err)
		return
	}

	if err := h.Store.SaveRequest(r.Context(), *req); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save request", err)
		return
	}
	writeJSON(w, http.StatusCreated, ValidationResultDTO{Allowed: true})
}

func (h *Handler) decodeLeaveRequest(w http.ResponseWriter, r *http.Request) (*leave.Request, bool) {
	var dto LeaveRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return nil, false
	}
	if dto.EmployeeID == "" {
		writeError(w, http.StatusBadRequest, "employee_id is required", nil)
		return nil, false
	}

	from, err := calendar.ParseDate(dto.FromDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from_date format (use YYYY-MM-DD)", err)
		return nil, false
	}
	to, err := calendar.ParseDate(dto.ToDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to_date format (use YYYY-MM-DD)", err)
		return nil, false
	}

	req := &leave.Request{
		ID:         dto.ID,
		EmployeeID: dto.EmployeeID,
		Type:       leave.Type(dto.LeaveType),
		Span:       calendar.NewSpan(from, to),
		HalfDay:    dto.HalfDay,
		Status:     leave.Status(dto.Status),
		Finalized:  dto.Finalized,
	}
	if dto.HalfDayDate != "" {
		hd, err := calendar.ParseDate(dto.HalfDayDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid half_day_date format (use YYYY-MM-DD)", err)
			return nil, false
		}
		req.HalfDayDate = hd
	}
	return req, true
}

// =============================================================================
// CALENDAR ENDPOINTS
// =============================================================================

func (h *Handler) GetHolidayList(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	hl, err := h.Store.HolidayList(r.Context(), calendar.ListID(id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get holiday list", err)
		return
	}
	if hl == nil {
		writeError(w, http.StatusNotFound, "Holiday list not found", nil)
		return
	}

	holidays := make([]string, 0, len(hl.Holidays))
	for d := range hl.Holidays {
		holidays = append(holidays, d.String())
	}
	writeJSON(w, http.StatusOK, HolidayListDTO{
		ID:        string(hl.ID),
		Name:      hl.Name,
		ValidFrom: hl.Validity.From.String(),
		ValidTo:   hl.Validity.To.String(),
		Holidays:  holidays,
	})
}

func (h *Handler) CreateHolidayList(w http.ResponseWriter, r *http.Request) {
	var dto HolidayListDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if dto.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required", nil)
		return
	}

	from, err := calendar.ParseDate(dto.ValidFrom)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid valid_from format (use YYYY-MM-DD)", err)
		return
	}
	to, err := calendar.ParseDate(dto.ValidTo)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid valid_to format (use YYYY-MM-DD)", err)
		return
	}

	hl := calendar.NewHolidayList(calendar.ListID(dto.ID), calendar.NewSpan(from, to))
	hl.Name = dto.Name
	for _, ds := range dto.Holidays {
		d, err := calendar.ParseDate(ds)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid holiday date format (use YYYY-MM-DD)", err)
			return
		}
		hl.Holidays[d] = struct{}{}
	}

	if err := h.Store.SaveHolidayList(r.Context(), hl); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save holiday list", err)
		return
	}
	writeJSON(w, http.StatusCreated, dto)
}

// =============================================================================
// ADMIN ENDPOINTS
// =============================================================================

func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req CreateAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.EmployeeID == "" || req.ListID == "" {
		writeError(w, http.StatusBadRequest, "employee_id and list_id are required", nil)
		return
	}

	a := calendar.ListAssignment{
		EmployeeID: req.EmployeeID,
		ListID:     calendar.ListID(req.ListID),
		Finalized:  req.Finalized,
	}
	if err := h.Store.SaveAssignment(r.Context(), a); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save assignment", err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// TriggerAccrual runs the accrual engine on demand. The scheduler calls
// the same engine; this endpoint exists for catch-up and repair.
func (h *Handler) TriggerAccrual(w http.ResponseWriter, r *http.Request) {
	var req AccrualRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	asOf := calendar.DateOf(time.Now())
	if req.AsOf != "" {
		d, err := calendar.ParseDate(req.AsOf)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of format (use YYYY-MM-DD)", err)
			return
		}
		asOf = d
	}

	var summary accrual.Summary
	var err error
	if req.Backfill {
		summary, err = h.Engine.Backfill(r.Context(), asOf, req.Rebuild)
	} else {
		summary, err = h.Engine.RunMonthly(r.Context(), asOf)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Accrual run failed", err)
		return
	}

	writeJSON(w, http.StatusOK, AccrualRunDTO{
		AsOf:    asOf.String(),
		Created: summary.Created,
		Updated: summary.Updated,
		Skipped: summary.Skipped,
		NoOps:   summary.NoOps,
		Failed:  summary.Failed,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func toEmployeeDTO(e *leave.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		ID:            e.ID,
		Name:          e.Name,
		Category:      string(e.Category),
		HolidayListID: string(e.HolidayListID),
		Active:        e.Active,
	}
	if e.StaybackDay != nil {
		dto.StaybackDay = e.StaybackDay.String()
	}
	if !e.ProbationEnd.IsZero() {
		dto.ProbationEnd = e.ProbationEnd.String()
	}
	return dto
}

func parseWeekday(name string) (time.Weekday, bool) {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if wd.String() == name {
			return wd, true
		}
	}
	return 0, false
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
