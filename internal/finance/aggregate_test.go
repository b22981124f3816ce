package finance

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutorbook/internal/core"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func payment(id, student, amount, date string) core.Payment {
	return core.Payment{ID: id, StudentID: student, Amount: core.ParseAmount(amount), Date: core.ParseDate(date)}
}

func expense(id, amount, date string) core.Expense {
	return core.Expense{ID: id, Description: id, Amount: core.ParseAmount(amount), Date: core.ParseDate(date)}
}

func TestTotalAmount(t *testing.T) {
	tests := []struct {
		name     string
		payments []core.Payment
		want     string
	}{
		{"empty", nil, "0"},
		{"plain", []core.Payment{payment("a", "s1", "450", "2024-03-01"), payment("b", "s2", "400.5", "2024-03-02")}, "850.5"},
		{"missing and garbage amounts", []core.Payment{payment("a", "s1", "", ""), payment("b", "s1", "abc", ""), payment("c", "s1", "10", "")}, "10"},
		{"negative string coerced", []core.Payment{payment("a", "s1", "-50", ""), payment("b", "s1", "20", "")}, "20"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TotalAmount(tt.payments)
			assert.True(t, got.Equal(dec(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestTotalAmountIsTotalOverDecodedJSON(t *testing.T) {
	raw := `[
		{"id": "1", "amount": 100},
		{"id": "2", "amount": null},
		{"id": "3"},
		{"id": "4", "amount": "-7"},
		{"id": "5", "amount": "NaN"},
		{"id": "6", "amount": {"nested": true}},
		{"id": "7", "amount": "25.25"}
	]`
	var payments []core.Payment
	require.NoError(t, json.Unmarshal([]byte(raw), &payments))

	got := TotalAmount(payments)
	assert.True(t, got.Equal(dec("125.25")), "got %s", got)
	assert.False(t, got.IsNegative())
}

func TestNetIncomeIdentity(t *testing.T) {
	cases := []struct {
		p []core.Payment
		e []core.Expense
	}{
		{nil, nil},
		{[]core.Payment{payment("a", "s1", "450", "2024-01-01")}, nil},
		{nil, []core.Expense{expense("rent", "300", "2024-01-02")}},
		{
			[]core.Payment{payment("a", "s1", "100", "2024-01-01")},
			[]core.Expense{expense("rent", "300", "2024-01-02"), expense("bad", "x", "2024-01-02")},
		},
	}
	for _, c := range cases {
		net := NetIncome(c.p, c.e)
		assert.True(t, net.Equal(TotalAmount(c.p).Sub(TotalAmount(c.e))))
	}
	assert.True(t, NetIncome(cases[3].p, cases[3].e).Equal(dec("-200")))
}

func TestDistinctPayingEntities(t *testing.T) {
	same := make([]core.Payment, 5)
	for i := range same {
		same[i] = payment("p", "s-1", "10", "2024-01-01")
	}
	assert.Equal(t, 1, DistinctPayingEntities(same))

	mixed := []core.Payment{
		payment("a", "s1", "1", ""),
		payment("b", "", "1", ""),
		payment("c", "s2", "1", ""),
		payment("d", "s1", "1", ""),
		payment("e", "ghost", "1", ""),
	}
	assert.Equal(t, 3, DistinctPayingEntities(mixed))
	assert.Equal(t, 0, DistinctPayingEntities(nil))
}

func TestGroupByMonth(t *testing.T) {
	records := []core.Payment{
		payment("a", "s1", "1", "2024-03-05"),
		payment("b", "s1", "1", "2024-01-10"),
		payment("c", "s1", "1", "garbage"),
		payment("d", "s1", "1", "2024-03-01"),
		payment("e", "s1", "1", ""),
	}

	b := GroupByMonth(records)
	assert.Equal(t, []core.MonthKey{"2024-03", "2024-01"}, b.Keys())
	assert.Equal(t, []string{"a", "d"}, ids(b.Get("2024-03")))
	assert.Equal(t, []string{"b"}, ids(b.Get("2024-01")))
	assert.Empty(t, b.Get("2024-02"))

	// Regrouping the flattened output is a no-op.
	again := GroupByMonth(b.Flatten())
	assert.Equal(t, b.Keys(), again.Keys())
	for _, k := range b.Keys() {
		assert.Equal(t, ids(b.Get(k)), ids(again.Get(k)))
	}
}

func TestGroupTotalsByGroup(t *testing.T) {
	groups := []core.Group{{ID: "g1", Name: "Physics"}, {ID: "g2", Name: "Maths"}, {ID: "g3", Name: "Chemistry"}, {ID: "g1", Name: "dup"}}
	students := []core.Student{
		{ID: "s1", GroupID: "g1"},
		{ID: "s2", GroupID: "g2"},
		{ID: "s3"},
		{ID: "s4", GroupID: "g-deleted"},
	}
	payments := []core.Payment{
		payment("a", "s1", "450", "2024-01-01"),
		payment("b", "s1", "50", "2024-02-01"),
		payment("c", "s2", "400", "2024-01-01"),
		payment("d", "s3", "999", "2024-01-01"),
		payment("e", "gone", "999", "2024-01-01"),
		payment("f", "", "999", "2024-01-01"),
		payment("g", "s4", "999", "2024-01-01"),
	}

	got := GroupTotalsByGroup(payments, students, groups)
	require.Len(t, got, 3)
	assert.Equal(t, "g1", got[0].GroupID)
	assert.True(t, got[0].Total.Equal(dec("500")))
	assert.Equal(t, "Maths", got[1].GroupName)
	assert.True(t, got[1].Total.Equal(dec("400")))
	assert.Equal(t, "g3", got[2].GroupID)
	assert.True(t, got[2].Total.IsZero())
}

func ids(ps []core.Payment) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}
