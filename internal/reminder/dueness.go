package reminder

import (
	"time"

	"tutorbook/internal/core"
)

// Phase tells where today falls relative to a due date.
type Phase string

const (
	PhaseBefore  Phase = "before"
	PhaseToday   Phase = "today"
	PhaseOverdue Phase = "overdue"
)

// DueDate returns the day a monthly fee falls due in the given month. Fees
// fall due on the join date's day of month, clamped to the month's last day.
func DueDate(joinDate core.Date, month core.MonthKey) core.Date {
	year, m, ok := month.YearMonth()
	if joinDate.IsEmpty() || !ok {
		return core.Date{}
	}
	targetDay := joinDate.Day()
	lastDayOfMonth := time.Date(year, time.Month(m)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if targetDay > lastDayOfMonth {
		targetDay = lastDayOfMonth
	}
	return core.NewDate(year, m, targetDay)
}

// Window is the inclusive span in which a reminder applies.
func Window(due core.Date, days Days) (start, end core.Date) {
	return due.AddDays(-days.Before), due.AddDays(days.After)
}

// PhaseOf assumes today is inside the due date's window.
func PhaseOf(today, due core.Date) Phase {
	switch {
	case today.Before(due.Time):
		return PhaseBefore
	case today.Equal(due.Time):
		return PhaseToday
	default:
		return PhaseOverdue
	}
}

func inWindow(today core.Date, due core.Date, days Days) bool {
	start, end := Window(due, days)
	return !today.Before(start.Time) && !today.After(end.Time)
}
