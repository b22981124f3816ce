package datasource

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"tutorbook/internal/core"
)

// Demo returns the built-in demo data. Dates fall in the month of now so
// the dashboard has something to show in the current period.
func Demo(now time.Time) core.Snapshot {
	now = now.UTC()
	created := now.Truncate(time.Second)
	day := func(d int) core.Date {
		return core.NewDate(now.Year(), int(now.Month()), max(1, d))
	}

	return core.Snapshot{
		Groups: []core.Group{
			{ID: "demo-group-1", Name: "الفيزياء 12", CreatedAt: created},
			{ID: "demo-group-2", Name: "الرياضيات 11", CreatedAt: created},
			{ID: "demo-group-3", Name: "الكيمياء 10", CreatedAt: created},
		},
		Students: []core.Student{
			{ID: "demo-student-1", Name: "أحمد إبراهيم", Phone: "01012345678", GroupID: "demo-group-1",
				JoinDate: day(5), MonthlyFee: core.AmountFromInt(450), CreatedAt: created},
			{ID: "demo-student-2", Name: "سارة يوسف", Phone: "01098765432", GroupID: "demo-group-2",
				JoinDate: day(10), MonthlyFee: core.AmountFromInt(400), Note: "حصة إضافية كل أسبوع", CreatedAt: created},
			{ID: "demo-student-3", Name: "ليان خالد", Phone: "01077777777", GroupID: "demo-group-1",
				JoinDate: day(15), MonthlyFee: core.AmountFromInt(450), CreatedAt: created},
		},
		Payments: []core.Payment{
			{ID: "demo-payment-1", StudentID: "demo-student-1", Amount: core.AmountFromInt(450), Date: day(4), CreatedAt: created},
			{ID: "demo-payment-2", StudentID: "demo-student-2", Amount: core.AmountFromInt(400), Date: day(8), Note: "دفعة مقدمة", CreatedAt: created},
		},
		Expenses: []core.Expense{
			{ID: "demo-expense-1", Description: "إيجار القاعة", Amount: core.AmountFromInt(300), Date: day(2), CreatedAt: created},
			{ID: "demo-expense-2", Description: "مواد تعليمية", Amount: core.AmountFromInt(120), Date: day(12), CreatedAt: created},
		},
		Settings: &core.ReminderSettings{
			DaysBefore: 3,
			DaysAfter:  2,
			UpdatedAt:  created,
		},
		GroupOverrides:   []core.GroupReminderOverride{},
		StudentOverrides: []core.StudentReminderOverride{},
	}
}

// LoadFixtureFile reads a snapshot from a JSON file. Malformed amounts and
// dates inside the file are kept as invalid values rather than rejected.
func LoadFixtureFile(path string) (core.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("read fixture file: %w", err)
	}
	var snap core.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return core.Snapshot{}, fmt.Errorf("decode fixture file %s: %w", path, err)
	}
	return snap, nil
}
