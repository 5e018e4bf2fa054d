package calendar

// =============================================================================
// HOLIDAY LIST - A named set of holiday dates with a validity window
// =============================================================================

// ListID identifies a holiday list.
type ListID string

// HolidayList is a set of holiday dates valid for a window of time.
// Holiday dates are assumed to lie inside Validity; that invariant is
// owned by whoever maintains the lists, not enforced here.
type HolidayList struct {
	ID       ListID
	Name     string
	Validity Span
	Holidays map[Date]struct{}
}

// NewHolidayList builds a list from its holiday dates.
func NewHolidayList(id ListID, validity Span, holidays ...Date) *HolidayList {
	set := make(map[Date]struct{}, len(holidays))
	for _, h := range holidays {
		set[h] = struct{}{}
	}
	return &HolidayList{ID: id, Validity: validity, Holidays: set}
}

// IsHoliday returns true iff d is in the list's holiday set.
func (hl *HolidayList) IsHoliday(d Date) bool {
	_, ok := hl.Holidays[d]
	return ok
}

// Covers reports whether d falls inside the list's validity window.
func (hl *HolidayList) Covers(d Date) bool {
	return hl.Validity.Contains(d)
}

// =============================================================================
// LIST ASSIGNMENT - Time-bounded binding of an employee to a holiday list
// =============================================================================

// ListAssignment binds an employee to a holiday list. An employee may
// have several assignments over time; their bound lists' validity
// windows are assumed non-overlapping.
//
// Only finalized assignments participate in resolution - drafts are
// still being edited by HR and must not affect policy decisions.
type ListAssignment struct {
	ID         string
	EmployeeID string
	ListID     ListID
	Finalized  bool
}
