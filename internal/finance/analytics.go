package finance

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"tutorbook/internal/core"
)

const (
	UnassignedGroup = "unassigned"
	UnknownStudent  = "unknown"
)

// MonthlyTotals compares income and expenses per month, oldest month first.
// A month present on either side appears in the result.
func MonthlyTotals(payments []core.Payment, expenses []core.Expense) []core.MonthTotal {
	income := GroupByMonth(payments)
	spent := GroupByMonth(expenses)

	keys := make(map[core.MonthKey]struct{}, income.Len()+spent.Len())
	for _, k := range income.Keys() {
		keys[k] = struct{}{}
	}
	for _, k := range spent.Keys() {
		keys[k] = struct{}{}
	}
	sorted := make([]core.MonthKey, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	out := make([]core.MonthTotal, 0, len(sorted))
	for _, k := range sorted {
		out = append(out, core.MonthTotal{
			Month:    k,
			Income:   TotalAmount(income.Get(k)),
			Expenses: TotalAmount(spent.Get(k)),
		})
	}
	return out
}

// GroupDistribution splits income by group name for the distribution chart.
// Unlike GroupTotalsByGroup, payments that cannot be tied to a known group
// land in an "unassigned" slice. Empty slices are left out.
func GroupDistribution(payments []core.Payment, students []core.Student, groups []core.Group) []core.DistributionSlice {
	snap := core.Snapshot{Students: students, Groups: groups}

	var order []string
	sums := map[string]decimal.Decimal{}
	for _, p := range payments {
		name := UnassignedGroup
		if st, ok := snap.Student(p.StudentID); ok {
			if g, ok := snap.Group(st.GroupID); ok {
				name = g.Name
			}
		}
		if _, ok := sums[name]; !ok {
			order = append(order, name)
			sums[name] = decimal.Zero
		}
		sums[name] = sums[name].Add(p.Amount.Contribution())
	}

	out := make([]core.DistributionSlice, 0, len(order))
	for _, name := range order {
		if sums[name].IsZero() {
			continue
		}
		out = append(out, core.DistributionSlice{Name: name, Total: sums[name]})
	}
	return out
}

// FilterByMonth keeps the records dated in the given month. An empty key
// keeps everything.
func FilterByMonth[T Dated](records []T, key core.MonthKey) []T {
	if key == "" {
		return records
	}
	out := make([]T, 0, len(records))
	for _, r := range records {
		if r.When().MonthKey() == key {
			out = append(out, r)
		}
	}
	return out
}

// StudentHistory returns a student's payments, newest first. Payments with
// equal dates keep their input order.
func StudentHistory(studentID string, payments []core.Payment) []core.Payment {
	var out []core.Payment
	if studentID == "" {
		return out
	}
	for _, p := range payments {
		if p.StudentID == studentID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	return out
}

// SearchStudents matches names case-insensitively by substring. A blank
// query matches nobody.
func SearchStudents(students []core.Student, query string) []core.Student {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []core.Student
	if q == "" {
		return out
	}
	for _, s := range students {
		if strings.Contains(strings.ToLower(s.Name), q) {
			out = append(out, s)
		}
	}
	return out
}
