// Package billing holds the pure 30-day payment-cycle arithmetic. Cycles are
// anchored to the date of a group's first lesson; nothing here touches a
// clock, a store or the network.
package billing

import "time"

const (
	// CycleDays is the fixed length of a payment cycle.
	CycleDays = 30

	// ReminderDay is the day index within a cycle on which a payment
	// reminder falls due.
	ReminderDay = 10
)

type (
	// Cycle is one 30-day billing window. Start is inclusive, End exclusive.
	Cycle struct {
		Start  time.Time
		End    time.Time
		Number int
	}

	// Window is a closed date range, used for settlement lookups.
	Window struct {
		Start time.Time
		End   time.Time
	}

	// Schedule carries the two dates the enforcement sweep acts on.
	Schedule struct {
		DueDate      time.Time
		ReminderDate time.Time
	}

	// Action is an enforcement decision for one enrollment on one day.
	Action int
)

const (
	ActionNone Action = iota
	// ActionRemind: today is the reminder day of the current cycle.
	ActionRemind
	// ActionEnforce: today is a cycle boundary; the cycle that just ended
	// must be settled or the student is removed.
	ActionEnforce
)

// First reports whether c is the enrollment's very first cycle, during which
// the attendance payment gate does not apply.
func (c Cycle) First() bool { return c.Number == 0 }

// Contains reports whether t falls inside the cycle window.
func (c Cycle) Contains(t time.Time) bool {
	return !t.Before(c.Start) && t.Before(c.End)
}

// ComputeCycle returns the cycle containing now, anchored to firstLesson.
// The result is undefined for now < firstLesson: callers must report
// "no lessons" instead of calling (a group with no lessons has no cycles).
func ComputeCycle(firstLesson, now time.Time) Cycle {
	days := daysBetween(firstLesson, now)
	number := days / CycleDays
	start := dateOf(firstLesson).AddDate(0, 0, number*CycleDays)
	return Cycle{
		Start:  start,
		End:    start.AddDate(0, 0, CycleDays),
		Number: number,
	}
}

// PreviousWindow returns the settlement window of the cycle preceding c:
// [c.Start - 30d, c.Start - 1d]. The payment gate checks this window when c
// is not the first cycle.
func PreviousWindow(c Cycle) Window {
	return Window{
		Start: c.Start.AddDate(0, 0, -CycleDays),
		End:   c.Start.AddDate(0, 0, -1),
	}
}

// ScheduleFor returns the due and reminder dates of the cycle containing today.
// The due date is the cycle boundary (the first day of the next cycle); the
// reminder date is 10 days into the current cycle.
func ScheduleFor(firstLesson, today time.Time) Schedule {
	c := ComputeCycle(firstLesson, today)
	return Schedule{
		DueDate:      c.End,
		ReminderDate: c.Start.AddDate(0, 0, ReminderDay),
	}
}

// PlanEnforcement decides, from dates alone, what the enforcement sweep should
// do for an enrollment today. The decision is recomputed from the calendar on
// every call, so re-running the sweep on the same day yields the same answer.
func PlanEnforcement(firstLesson, today time.Time) Action {
	days := daysBetween(firstLesson, today)
	if days <= 0 {
		return ActionNone
	}
	switch days % CycleDays {
	case 0:
		return ActionEnforce
	case ReminderDay:
		return ActionRemind
	}
	return ActionNone
}

// daysBetween counts whole days from a to b at date granularity.
func daysBetween(a, b time.Time) int {
	return int(dateOf(b).Sub(dateOf(a)).Hours() / 24)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
