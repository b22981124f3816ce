package core

import "github.com/shopspring/decimal"

// GroupTotal is the income attributed to one group.
type GroupTotal struct {
	GroupID   string          `json:"group_id"`
	GroupName string          `json:"group_name"`
	Total     decimal.Decimal `json:"total"`
}

// MonthTotal compares income and expenses for one month.
type MonthTotal struct {
	Month    MonthKey        `json:"month"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

// DistributionSlice is one slice of the income-by-group chart.
type DistributionSlice struct {
	Name  string          `json:"name"`
	Total decimal.Decimal `json:"total"`
}

// StatementRow is one payment line as written to the statement sheet.
type StatementRow struct {
	PaymentID string          `json:"payment_id"`
	Student   string          `json:"student"`
	Group     string          `json:"group"`
	Amount    decimal.Decimal `json:"amount"`
	Date      Date            `json:"date"`
	Note      string          `json:"note"`
}

// Summary holds the dashboard figures for one snapshot version.
type Summary struct {
	Version        uint64          `json:"version"`
	TotalIncome    decimal.Decimal `json:"total_income"`
	TotalExpenses  decimal.Decimal `json:"total_expenses"`
	NetIncome      decimal.Decimal `json:"net_income"`
	PayingStudents int             `json:"paying_students"`
	StudentCount   int             `json:"student_count"`
	GroupCount     int             `json:"group_count"`
	Monthly        []MonthTotal    `json:"monthly"`
	Groups         []GroupTotal    `json:"groups"`
}
