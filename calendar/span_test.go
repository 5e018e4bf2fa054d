package calendar_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gvs/leave-engine/calendar"
)

func span(from, to string) calendar.Span {
	return calendar.NewSpan(d(from), d(to))
}

// =============================================================================
// WALK
// =============================================================================

func TestSpan_Walk_VisitsBothEndpointsAscending(t *testing.T) {
	var visited []string
	span("2025-03-10", "2025-03-12").Walk(func(day calendar.Date) bool {
		visited = append(visited, day.String())
		return true
	})

	assert.Equal(t, []string{"2025-03-10", "2025-03-11", "2025-03-12"}, visited)
}

func TestSpan_Walk_SingleDaySpanVisitsExactlyOnce(t *testing.T) {
	count := 0
	span("2025-03-10", "2025-03-10").Walk(func(calendar.Date) bool {
		count++
		return true
	})

	assert.Equal(t, 1, count)
}

func TestSpan_Walk_StopsWhenVisitorReturnsFalse(t *testing.T) {
	var visited []string
	span("2025-03-01", "2025-03-31").Walk(func(day calendar.Date) bool {
		visited = append(visited, day.String())
		return day.Day() < 3
	})

	assert.Equal(t, []string{"2025-03-01", "2025-03-02", "2025-03-03"}, visited)
}

func TestSpan_Walk_IsRestartable(t *testing.T) {
	// GIVEN: a span walked once to completion
	s := span("2025-03-10", "2025-03-12")
	first := 0
	s.Walk(func(calendar.Date) bool { first++; return true })

	// WHEN: walking the same span again
	second := 0
	s.Walk(func(calendar.Date) bool { second++; return true })

	// THEN: the second walk sees the same days
	assert.Equal(t, first, second)
}

func TestSpan_Walk_InvalidSpanVisitsNothing(t *testing.T) {
	count := 0
	span("2025-03-12", "2025-03-10").Walk(func(calendar.Date) bool {
		count++
		return true
	})

	assert.Zero(t, count)
}

// =============================================================================
// RANGE ALGEBRA
// =============================================================================

func TestSpan_Contains_InclusiveBothEnds(t *testing.T) {
	s := span("2025-03-10", "2025-03-12")

	assert.True(t, s.Contains(d("2025-03-10")))
	assert.True(t, s.Contains(d("2025-03-12")))
	assert.False(t, s.Contains(d("2025-03-09")))
	assert.False(t, s.Contains(d("2025-03-13")))
}

func TestSpan_Overlaps_SharedEndpointCounts(t *testing.T) {
	assert.True(t, span("2025-03-01", "2025-03-10").Overlaps(span("2025-03-10", "2025-03-20")))
	assert.False(t, span("2025-03-01", "2025-03-09").Overlaps(span("2025-03-10", "2025-03-20")))
}

func TestSpan_Intersect(t *testing.T) {
	got, ok := span("2025-01-30", "2025-02-02").Intersect(calendar.MonthSpan(2025, time.February))
	assert.True(t, ok)
	assert.Equal(t, span("2025-02-01", "2025-02-02"), got)

	_, ok = span("2025-01-01", "2025-01-15").Intersect(calendar.MonthSpan(2025, time.February))
	assert.False(t, ok)
}

func TestSpan_Days(t *testing.T) {
	assert.Equal(t, 3, span("2025-03-10", "2025-03-12").Days())
	assert.Equal(t, 1, span("2025-03-10", "2025-03-10").Days())
	assert.Equal(t, 0, span("2025-03-12", "2025-03-10").Days())
}

func TestSpan_Months_CrossMonthRequest(t *testing.T) {
	// A Dec 30 -> Feb 2 request touches three month windows.
	months := span("2024-12-30", "2025-02-02").Months()

	assert.Len(t, months, 3)
	assert.Equal(t, calendar.MonthSpan(2024, time.December), months[0])
	assert.Equal(t, calendar.MonthSpan(2025, time.January), months[1])
	assert.Equal(t, calendar.MonthSpan(2025, time.February), months[2])
}

func TestSpan_Months_SingleMonth(t *testing.T) {
	months := span("2025-03-10", "2025-03-12").Months()

	assert.Len(t, months, 1)
	assert.Equal(t, calendar.MonthSpan(2025, time.March), months[0])
}
