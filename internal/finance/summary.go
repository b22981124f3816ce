package finance

import "tutorbook/internal/core"

// StatementRows maps payments to statement lines. Unresolvable students and
// groups get placeholder names instead of being dropped.
func StatementRows(payments []core.Payment, students []core.Student, groups []core.Group) []core.StatementRow {
	snap := core.Snapshot{Students: students, Groups: groups}
	rows := make([]core.StatementRow, 0, len(payments))
	for _, p := range payments {
		rows = append(rows, StatementRow(p, snap))
	}
	return rows
}

// StatementRow maps a single payment against a snapshot's lookups.
func StatementRow(p core.Payment, snap core.Snapshot) core.StatementRow {
	row := core.StatementRow{
		PaymentID: p.ID,
		Student:   UnknownStudent,
		Group:     UnassignedGroup,
		Amount:    p.Amount.Contribution(),
		Date:      p.Date,
		Note:      p.Note,
	}
	if st, ok := snap.Student(p.StudentID); ok {
		row.Student = st.Name
		if g, ok := snap.Group(st.GroupID); ok {
			row.Group = g.Name
		}
	}
	return row
}

// Summarize computes the dashboard figures for a snapshot.
func Summarize(snap core.Snapshot) core.Summary {
	income := TotalAmount(snap.Payments)
	expenses := TotalAmount(snap.Expenses)
	return core.Summary{
		Version:        snap.Version,
		TotalIncome:    income,
		TotalExpenses:  expenses,
		NetIncome:      income.Sub(expenses),
		PayingStudents: DistinctPayingEntities(snap.Payments),
		StudentCount:   len(snap.Students),
		GroupCount:     len(snap.Groups),
		Monthly:        MonthlyTotals(snap.Payments, snap.Expenses),
		Groups:         GroupTotalsByGroup(snap.Payments, snap.Students, snap.Groups),
	}
}
