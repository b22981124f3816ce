package core

import "time"

type (
	// ReminderSettings are the account-wide reminder defaults.
	ReminderSettings struct {
		DaysBefore         int       `json:"reminder_days_before" db:"reminder_days_before"`
		DaysAfter          int       `json:"reminder_days_after" db:"reminder_days_after"`
		UseGroupOverride   bool      `json:"use_group_override" db:"use_group_override"`
		UseStudentOverride bool      `json:"use_student_override" db:"use_student_override"`
		UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
	}

	// ReminderOverride fields that are None inherit from the layer below.
	ReminderOverride struct {
		DaysBefore Optional[int] `json:"reminder_days_before" db:"reminder_days_before"`
		DaysAfter  Optional[int] `json:"reminder_days_after" db:"reminder_days_after"`
	}

	GroupReminderOverride struct {
		GroupID string `json:"group_id" db:"group_id"`
		ReminderOverride
	}

	StudentReminderOverride struct {
		StudentID string `json:"student_id" db:"student_id"`
		ReminderOverride
	}
)

// DefaultReminderSettings are used when an account has not saved any.
func DefaultReminderSettings() ReminderSettings {
	return ReminderSettings{DaysBefore: 3, DaysAfter: 2}
}

func (s ReminderSettings) Validate() error {
	if s.DaysBefore < 0 || s.DaysAfter < 0 {
		return ErrNegativeDays
	}
	return nil
}

func (o ReminderOverride) Validate() error {
	if v, ok := o.DaysBefore.Get(); ok && v < 0 {
		return ErrNegativeDays
	}
	if v, ok := o.DaysAfter.Get(); ok && v < 0 {
		return ErrNegativeDays
	}
	return nil
}
