package finance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutorbook/internal/core"
)

func fixtureSnapshot() core.Snapshot {
	return core.Snapshot{
		Version: 4,
		Groups:  []core.Group{{ID: "g1", Name: "Physics 12"}, {ID: "g2", Name: "Maths 11"}},
		Students: []core.Student{
			{ID: "s1", Name: "Ahmed Ibrahim", GroupID: "g1"},
			{ID: "s2", Name: "Sara Youssef", GroupID: "g2"},
			{ID: "s3", Name: "Layan Khaled"},
		},
		Payments: []core.Payment{
			payment("p1", "s1", "450", "2024-03-04"),
			payment("p2", "s2", "400", "2024-03-08"),
			payment("p3", "s3", "300", "2024-02-10"),
			payment("p4", "ghost", "100", "2024-02-11"),
			payment("p5", "s1", "450", "2024-02-01"),
		},
		Expenses: []core.Expense{
			expense("rent", "300", "2024-03-02"),
			expense("books", "120", "2024-01-12"),
		},
	}
}

func TestMonthlyTotals(t *testing.T) {
	snap := fixtureSnapshot()
	got := MonthlyTotals(snap.Payments, snap.Expenses)
	require.Len(t, got, 3)

	assert.Equal(t, core.MonthKey("2024-01"), got[0].Month)
	assert.True(t, got[0].Income.IsZero())
	assert.True(t, got[0].Expenses.Equal(dec("120")))

	assert.Equal(t, core.MonthKey("2024-02"), got[1].Month)
	assert.True(t, got[1].Income.Equal(dec("850")))

	assert.Equal(t, core.MonthKey("2024-03"), got[2].Month)
	assert.True(t, got[2].Income.Equal(dec("850")))
	assert.True(t, got[2].Expenses.Equal(dec("300")))
}

func TestGroupDistributionKeepsUnassigned(t *testing.T) {
	snap := fixtureSnapshot()
	got := GroupDistribution(snap.Payments, snap.Students, snap.Groups)
	require.Len(t, got, 3)
	assert.Equal(t, "Physics 12", got[0].Name)
	assert.True(t, got[0].Total.Equal(dec("900")))
	assert.Equal(t, "Maths 11", got[1].Name)
	assert.Equal(t, UnassignedGroup, got[2].Name)
	assert.True(t, got[2].Total.Equal(dec("400")))
}

func TestFilterByMonth(t *testing.T) {
	snap := fixtureSnapshot()
	march := FilterByMonth(snap.Payments, "2024-03")
	assert.Equal(t, []string{"p1", "p2"}, ids(march))
	assert.True(t, TotalAmount(march).Equal(dec("850")))
	assert.Len(t, FilterByMonth(snap.Payments, ""), len(snap.Payments))
	assert.Empty(t, FilterByMonth(snap.Payments, "1999-01"))
}

func TestStudentHistory(t *testing.T) {
	snap := fixtureSnapshot()
	assert.Equal(t, []string{"p1", "p5"}, ids(StudentHistory("s1", snap.Payments)))
	assert.Empty(t, StudentHistory("", snap.Payments))
	assert.Empty(t, StudentHistory("nobody", snap.Payments))
}

func TestSearchStudents(t *testing.T) {
	snap := fixtureSnapshot()
	got := SearchStudents(snap.Students, "  sARa ")
	require.Len(t, got, 1)
	assert.Equal(t, "s2", got[0].ID)
	assert.Len(t, SearchStudents(snap.Students, "a"), 3)
	assert.Empty(t, SearchStudents(snap.Students, ""))
}

func TestStatementRows(t *testing.T) {
	snap := fixtureSnapshot()
	rows := StatementRows(snap.Payments, snap.Students, snap.Groups)
	require.Len(t, rows, 5)

	assert.Equal(t, "Ahmed Ibrahim", rows[0].Student)
	assert.Equal(t, "Physics 12", rows[0].Group)
	assert.Equal(t, "Layan Khaled", rows[2].Student)
	assert.Equal(t, UnassignedGroup, rows[2].Group)
	assert.Equal(t, UnknownStudent, rows[3].Student)
	assert.Equal(t, UnassignedGroup, rows[3].Group)
	assert.True(t, rows[3].Amount.Equal(dec("100")))
}

func TestSummarize(t *testing.T) {
	s := Summarize(fixtureSnapshot())
	assert.Equal(t, uint64(4), s.Version)
	assert.True(t, s.TotalIncome.Equal(dec("1700")))
	assert.True(t, s.TotalExpenses.Equal(dec("420")))
	assert.True(t, s.NetIncome.Equal(dec("1280")))
	assert.Equal(t, 4, s.PayingStudents)
	assert.Equal(t, 3, s.StudentCount)
	assert.Len(t, s.Groups, 2)
	assert.Len(t, s.Monthly, 3)

	empty := Summarize(core.Snapshot{})
	assert.True(t, empty.NetIncome.IsZero())
	assert.Empty(t, empty.Groups)
}
