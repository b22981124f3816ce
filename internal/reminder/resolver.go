// Package reminder resolves how many days before and after a fee's due date
// a student should be reminded, and finds the students due for a reminder.
package reminder

import "tutorbook/internal/core"

// Days is an effective reminder window around a due date.
type Days struct {
	Before int `json:"before"`
	After  int `json:"after"`
}

// EffectiveReminder applies global settings, then the group override, then
// the student override. Each override only replaces the fields it sets, and
// only when its toggle is on. With duplicate override rows the first one
// wins. Nil settings start from zero and disable both overrides.
func EffectiveReminder(
	studentID, groupID string,
	settings *core.ReminderSettings,
	groupOverrides []core.GroupReminderOverride,
	studentOverrides []core.StudentReminderOverride,
) Days {
	if settings == nil {
		return Days{}
	}
	days := Days{Before: settings.DaysBefore, After: settings.DaysAfter}

	if settings.UseGroupOverride && groupID != "" {
		for _, o := range groupOverrides {
			if o.GroupID == groupID {
				days = days.apply(o.ReminderOverride)
				break
			}
		}
	}

	if settings.UseStudentOverride && studentID != "" {
		for _, o := range studentOverrides {
			if o.StudentID == studentID {
				days = days.apply(o.ReminderOverride)
				break
			}
		}
	}

	return days
}

func (d Days) apply(o core.ReminderOverride) Days {
	return Days{
		Before: o.DaysBefore.OrElse(d.Before),
		After:  o.DaysAfter.OrElse(d.After),
	}
}

// Resolver binds the reminder configuration of one snapshot.
type Resolver struct {
	settings         *core.ReminderSettings
	groupOverrides   []core.GroupReminderOverride
	studentOverrides []core.StudentReminderOverride
}

func NewResolver(snap core.Snapshot) Resolver {
	return Resolver{
		settings:         snap.Settings,
		groupOverrides:   snap.GroupOverrides,
		studentOverrides: snap.StudentOverrides,
	}
}

// For resolves a student using the student's own group.
func (r Resolver) For(s core.Student) Days {
	return EffectiveReminder(s.ID, s.GroupID, r.settings, r.groupOverrides, r.studentOverrides)
}
