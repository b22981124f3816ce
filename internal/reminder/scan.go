package reminder

import (
	"sort"
	"time"

	"tutorbook/internal/core"
)

// Due is a student who should be reminded about a fee.
type Due struct {
	StudentID   string        `json:"student_id"`
	StudentName string        `json:"student_name"`
	GroupID     string        `json:"group_id"`
	Month       core.MonthKey `json:"month"`
	DueDate     core.Date     `json:"due_date"`
	Phase       Phase         `json:"phase"`
	Days        Days          `json:"days"`
	Fee         core.Amount   `json:"fee"`
}

// Scan lists the students whose reminder window contains now and who have
// not paid for the month the window belongs to. Windows of the previous and
// next month are checked too, since they can reach into the current one.
// Each student appears at most once, for the earliest unpaid fee.
func Scan(snap core.Snapshot, now time.Time) []Due {
	today := core.DateOf(now.UTC())
	current := today.MonthKey()
	resolver := NewResolver(snap)
	paid := paidMonths(snap.Payments)

	var out []Due
	for _, st := range snap.Students {
		if st.JoinDate.IsEmpty() || st.JoinDate.After(today.Time) {
			continue
		}
		days := resolver.For(st)
		for _, month := range []core.MonthKey{current.AddMonths(-1), current, current.AddMonths(1)} {
			due := DueDate(st.JoinDate, month)
			if due.IsEmpty() || due.Before(st.JoinDate.Time) {
				continue
			}
			if _, ok := paid[paidKey{st.ID, month}]; ok {
				continue
			}
			if !inWindow(today, due, days) {
				continue
			}
			out = append(out, Due{
				StudentID:   st.ID,
				StudentName: st.Name,
				GroupID:     st.GroupID,
				Month:       month,
				DueDate:     due,
				Phase:       PhaseOf(today, due),
				Days:        days,
				Fee:         st.MonthlyFee,
			})
			break
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate.Time) {
			return out[i].DueDate.Before(out[j].DueDate.Time)
		}
		if out[i].StudentName != out[j].StudentName {
			return out[i].StudentName < out[j].StudentName
		}
		return out[i].StudentID < out[j].StudentID
	})
	return out
}

type paidKey struct {
	studentID string
	month     core.MonthKey
}

func paidMonths(payments []core.Payment) map[paidKey]struct{} {
	out := make(map[paidKey]struct{}, len(payments))
	for _, p := range payments {
		key := p.Date.MonthKey()
		if p.StudentID == "" || key == "" {
			continue
		}
		out[paidKey{p.StudentID, key}] = struct{}{}
	}
	return out
}
