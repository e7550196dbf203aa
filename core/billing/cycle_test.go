package billing

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeCycle(t *testing.T) {
	first := date(2024, time.January, 10)

	tests := []struct {
		name      string
		now       time.Time
		wantStart time.Time
		wantEnd   time.Time
		wantNum   int
	}{
		{name: "first lesson day", now: first, wantStart: first, wantEnd: date(2024, time.February, 9), wantNum: 0},
		{name: "mid first cycle", now: date(2024, time.January, 25), wantStart: first, wantEnd: date(2024, time.February, 9), wantNum: 0},
		{name: "last day of first cycle", now: date(2024, time.February, 8), wantStart: first, wantEnd: date(2024, time.February, 9), wantNum: 0},
		{
			name: "second cycle", now: date(2024, time.February, 15),
			wantStart: date(2024, time.February, 9), wantEnd: date(2024, time.March, 10), wantNum: 1,
		},
		{
			name: "boundary day starts next cycle", now: date(2024, time.February, 9),
			wantStart: date(2024, time.February, 9), wantEnd: date(2024, time.March, 10), wantNum: 1,
		},
		{
			name: "a year later", now: date(2025, time.January, 4), // 360 days in
			wantStart: date(2025, time.January, 4), wantEnd: date(2025, time.February, 3), wantNum: 12,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ComputeCycle(first, tt.now)
			if !c.Start.Equal(tt.wantStart) {
				t.Errorf("Start = %v; want %v", c.Start, tt.wantStart)
			}
			if !c.End.Equal(tt.wantEnd) {
				t.Errorf("End = %v; want %v", c.End, tt.wantEnd)
			}
			if c.Number != tt.wantNum {
				t.Errorf("Number = %d; want %d", c.Number, tt.wantNum)
			}
			if first := c.First(); first != (tt.wantNum == 0) {
				t.Errorf("First() = %v; want %v", first, tt.wantNum == 0)
			}
			if !c.Contains(tt.now) {
				t.Errorf("cycle %v - %v does not contain now %v", c.Start, c.End, tt.now)
			}
		})
	}
}

// Cycle windows must be contiguous, non-overlapping and exactly 30 days each,
// and every day must land in exactly one window.
func TestComputeCycle_windowsAreContiguous(t *testing.T) {
	first := date(2023, time.November, 3)

	prev := ComputeCycle(first, first)
	for day := 0; day < 365; day++ {
		now := first.AddDate(0, 0, day)
		c := ComputeCycle(first, now)

		if got := int(c.End.Sub(c.Start).Hours() / 24); got != CycleDays {
			t.Fatalf("day %d: window is %d days; want %d", day, got, CycleDays)
		}
		if !c.Contains(now) {
			t.Fatalf("day %d: now %v outside window %v - %v", day, now, c.Start, c.End)
		}
		switch c.Number {
		case prev.Number:
			if !c.Start.Equal(prev.Start) {
				t.Fatalf("day %d: window moved within cycle %d", day, c.Number)
			}
		case prev.Number + 1:
			if !c.Start.Equal(prev.End) {
				t.Fatalf("day %d: gap between cycle %d and %d", day, prev.Number, c.Number)
			}
		default:
			t.Fatalf("day %d: cycle jumped from %d to %d", day, prev.Number, c.Number)
		}
		prev = c
	}
}

func TestPreviousWindow(t *testing.T) {
	first := date(2024, time.January, 10)
	c := ComputeCycle(first, date(2024, time.February, 15)) // second cycle

	w := PreviousWindow(c)
	if want := date(2024, time.January, 10); !w.Start.Equal(want) {
		t.Errorf("Start = %v; want %v", w.Start, want)
	}
	if want := date(2024, time.February, 8); !w.End.Equal(want) {
		t.Errorf("End = %v; want %v", w.End, want)
	}
}

func TestScheduleFor(t *testing.T) {
	first := date(2024, time.January, 10)

	s := ScheduleFor(first, date(2024, time.January, 12))
	if want := date(2024, time.February, 9); !s.DueDate.Equal(want) {
		t.Errorf("DueDate = %v; want %v", s.DueDate, want)
	}
	if want := date(2024, time.January, 20); !s.ReminderDate.Equal(want) {
		t.Errorf("ReminderDate = %v; want %v", s.ReminderDate, want)
	}
}

func TestPlanEnforcement(t *testing.T) {
	first := date(2024, time.January, 10)

	tests := []struct {
		name  string
		today time.Time
		want  Action
	}{
		{name: "first lesson day", today: first, want: ActionNone},
		{name: "before anything is due", today: date(2024, time.January, 15), want: ActionNone},
		{name: "reminder day of first cycle", today: date(2024, time.January, 20), want: ActionRemind},
		{name: "day before boundary", today: date(2024, time.February, 8), want: ActionNone},
		{name: "first boundary", today: date(2024, time.February, 9), want: ActionEnforce},
		{name: "day after boundary", today: date(2024, time.February, 10), want: ActionNone},
		{name: "reminder day of second cycle", today: date(2024, time.February, 19), want: ActionRemind},
		{name: "second boundary", today: date(2024, time.March, 10), want: ActionEnforce},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlanEnforcement(first, tt.today); got != tt.want {
				t.Errorf("PlanEnforcement() = %v; want %v", got, tt.want)
			}
			// stable under repeated same-day invocation
			if got := PlanEnforcement(first, tt.today); got != tt.want {
				t.Errorf("PlanEnforcement() not stable on re-run")
			}
		})
	}
}
