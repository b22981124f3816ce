package storage

import (
	"context"
	"fmt"

	"tutorbook/internal/core"
)

const overrideColumns = `reminder_days_before, reminder_days_after`

// GetSettings returns the saved reminder settings, or the defaults when none
// were saved yet.
func (s *Store) GetSettings(ctx context.Context) (core.ReminderSettings, error) {
	var rows []core.ReminderSettings
	query := `SELECT reminder_days_before, reminder_days_after, use_group_override, use_student_override, updated_at
		FROM settings WHERE id = 1`
	if err := s.selectAll(ctx, &rows, query); err != nil {
		return core.ReminderSettings{}, fmt.Errorf("get settings: %w", err)
	}
	if len(rows) == 0 {
		return core.DefaultReminderSettings(), nil
	}
	return rows[0], nil
}

func (s *Store) SaveSettings(ctx context.Context, rs core.ReminderSettings) (core.ReminderSettings, error) {
	rs.UpdatedAt = s.now()
	_, err := s.exec(ctx, `INSERT INTO settings (id, reminder_days_before, reminder_days_after, use_group_override, use_student_override, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			reminder_days_before = excluded.reminder_days_before,
			reminder_days_after = excluded.reminder_days_after,
			use_group_override = excluded.use_group_override,
			use_student_override = excluded.use_student_override,
			updated_at = excluded.updated_at`,
		rs.DaysBefore, rs.DaysAfter, rs.UseGroupOverride, rs.UseStudentOverride, rs.UpdatedAt)
	if err != nil {
		return core.ReminderSettings{}, fmt.Errorf("save settings: %w", err)
	}
	return rs, nil
}

func (s *Store) ListGroupOverrides(ctx context.Context) ([]core.GroupReminderOverride, error) {
	rows := []core.GroupReminderOverride{}
	if err := s.selectAll(ctx, &rows, `SELECT group_id, `+overrideColumns+` FROM group_settings ORDER BY group_id`); err != nil {
		return nil, fmt.Errorf("list group overrides: %w", err)
	}
	return rows, nil
}

// SaveGroupOverride upserts the single override row of a group.
func (s *Store) SaveGroupOverride(ctx context.Context, o core.GroupReminderOverride) (core.GroupReminderOverride, error) {
	_, err := s.exec(ctx, `INSERT INTO group_settings (group_id, reminder_days_before, reminder_days_after, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (group_id) DO UPDATE SET
			reminder_days_before = excluded.reminder_days_before,
			reminder_days_after = excluded.reminder_days_after,
			updated_at = excluded.updated_at`,
		o.GroupID, o.DaysBefore, o.DaysAfter, s.now())
	if err != nil {
		return core.GroupReminderOverride{}, fmt.Errorf("save group override %s: %w", o.GroupID, err)
	}
	return o, nil
}

func (s *Store) ListStudentOverrides(ctx context.Context) ([]core.StudentReminderOverride, error) {
	rows := []core.StudentReminderOverride{}
	if err := s.selectAll(ctx, &rows, `SELECT student_id, `+overrideColumns+` FROM student_settings ORDER BY student_id`); err != nil {
		return nil, fmt.Errorf("list student overrides: %w", err)
	}
	return rows, nil
}

// SaveStudentOverride upserts the single override row of a student.
func (s *Store) SaveStudentOverride(ctx context.Context, o core.StudentReminderOverride) (core.StudentReminderOverride, error) {
	_, err := s.exec(ctx, `INSERT INTO student_settings (student_id, reminder_days_before, reminder_days_after, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (student_id) DO UPDATE SET
			reminder_days_before = excluded.reminder_days_before,
			reminder_days_after = excluded.reminder_days_after,
			updated_at = excluded.updated_at`,
		o.StudentID, o.DaysBefore, o.DaysAfter, s.now())
	if err != nil {
		return core.StudentReminderOverride{}, fmt.Errorf("save student override %s: %w", o.StudentID, err)
	}
	return o, nil
}
