/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types
  decouple the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data
  carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Category      string `json:"category"`
	StaybackDay   string `json:"stayback_day,omitempty"`
	HolidayListID string `json:"holiday_list_id,omitempty"`
	ProbationEnd  string `json:"probation_end,omitempty"`
	Active        bool   `json:"active"`
}

// CreateEmployeeRequest is the request to create or update an employee.
type CreateEmployeeRequest struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Category      string `json:"category"`
	StaybackDay   string `json:"stayback_day"`
	HolidayListID string `json:"holiday_list_id"`
	ProbationEnd  string `json:"probation_end"`
	Active        *bool  `json:"active"`
}

// LeaveRequestDTO carries a leave application in both directions.
type LeaveRequestDTO struct {
	ID          string `json:"id,omitempty"`
	EmployeeID  string `json:"employee_id"`
	LeaveType   string `json:"leave_type"`
	FromDate    string `json:"from_date"`
	ToDate      string `json:"to_date"`
	HalfDay     bool   `json:"half_day,omitempty"`
	HalfDayDate string `json:"half_day_date,omitempty"`
	Status      string `json:"status"`
	Finalized   bool   `json:"finalized,omitempty"`
}

// ValidationResultDTO is the outcome of a validation call. Reason is
// the user-facing rejection message, empty when allowed.
type ValidationResultDTO struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// AllocationDTO represents a leave allocation in API responses. Day
// amounts are decimal strings: "1.5", never 1.5000000001.
type AllocationDTO struct {
	ID             string `json:"id"`
	EmployeeID     string `json:"employee_id"`
	LeaveType      string `json:"leave_type"`
	FromDate       string `json:"from_date"`
	ToDate         string `json:"to_date"`
	NewAllocated   string `json:"new_allocated"`
	TotalAllocated string `json:"total_allocated"`
	Unused         string `json:"unused"`
}

// ConsumptionDTO reports one month's quota usage.
type ConsumptionDTO struct {
	EmployeeID string `json:"employee_id"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	Consumed   string `json:"consumed"`
}

// HolidayListDTO represents a holiday calendar.
type HolidayListDTO struct {
	ID        string   `json:"id"`
	Name      string   `json:"name,omitempty"`
	ValidFrom string   `json:"valid_from"`
	ValidTo   string   `json:"valid_to"`
	Holidays  []string `json:"holidays"`
}

// CreateAssignmentRequest binds an employee to a holiday list.
type CreateAssignmentRequest struct {
	EmployeeID string `json:"employee_id"`
	ListID     string `json:"list_id"`
	Finalized  bool   `json:"finalized"`
}

// AccrualRunRequest triggers an accrual run. AsOf defaults to today;
// Backfill selects the idempotent per-month chain variant.
type AccrualRunRequest struct {
	AsOf     string `json:"as_of"`
	Backfill bool   `json:"backfill"`
	Rebuild  bool   `json:"rebuild"`
}

// AccrualRunDTO is the run summary returned to the operator.
type AccrualRunDTO struct {
	AsOf    string `json:"as_of"`
	Created int    `json:"created"`
	Updated int    `json:"updated"`
	Skipped int    `json:"skipped"`
	NoOps   int    `json:"noops"`
	Failed  int    `json:"failed"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
