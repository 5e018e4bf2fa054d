package calendar

// =============================================================================
// SPAN - Inclusive date range and the interval walker
// =============================================================================

// Span is an inclusive date range [From, To].
//
// Every component that iterates a range of days does it through Walk so
// that boundary behavior is uniform: both endpoints are visited, days
// ascend, and a zero-length span (From == To) visits exactly one day.
type Span struct {
	From Date
	To   Date
}

func NewSpan(from, to Date) Span { return Span{From: from, To: to} }

// IsValid reports From <= To.
func (s Span) IsValid() bool { return s.From.BeforeOrEqual(s.To) }

// Contains returns true if d is within [From, To].
func (s Span) Contains(d Date) bool {
	return d.AfterOrEqual(s.From) && d.BeforeOrEqual(s.To)
}

// Overlaps reports whether two inclusive ranges share at least one day.
func (s Span) Overlaps(other Span) bool {
	return s.From.BeforeOrEqual(other.To) && other.From.BeforeOrEqual(s.To)
}

// Intersect clips s to other. The second return is false when they are disjoint.
func (s Span) Intersect(other Span) (Span, bool) {
	from := s.From
	if other.From.After(from) {
		from = other.From
	}
	to := s.To
	if other.To.Before(to) {
		to = other.To
	}
	if from.After(to) {
		return Span{}, false
	}
	return Span{From: from, To: to}, true
}

// Walk visits each day in ascending order. Returning false stops the walk.
// The walk is pure and restartable: walking twice yields the same days.
func (s Span) Walk(visit func(Date) bool) {
	for d := s.From; d.BeforeOrEqual(s.To); d = d.AddDays(1) {
		if !visit(d) {
			return
		}
	}
}

// Days returns the number of days in the span, counting both endpoints.
func (s Span) Days() int {
	if !s.IsValid() {
		return 0
	}
	return int(s.To.t.Sub(s.From.t).Hours()/24) + 1
}

// Months returns the distinct (year, month) windows the span touches,
// in chronological order. A request from Jan 30 to Feb 2 touches two.
func (s Span) Months() []Span {
	var months []Span
	current := MonthOf(s.From)
	end := MonthOf(s.To)
	for current.BeforeOrEqual(end) {
		months = append(months, MonthSpan(current.Year(), current.Month()))
		current = current.AddMonths(1)
	}
	return months
}

func (s Span) String() string {
	return "[" + s.From.String() + ", " + s.To.String() + "]"
}
