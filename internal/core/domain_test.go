package core

import (
	"strings"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestPaymentValidate(t *testing.T) {
	good := Payment{Date: NewDate(2025, 1, 1), Amount: AmountFromInt(450)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	free := Payment{Date: NewDate(2025, 1, 1), Amount: AmountFromInt(0)}
	if err := free.Validate(); err != nil {
		t.Fatalf("zero amount should be accepted, got %v", err)
	}

	bads := []Payment{
		{Date: Date{}, Amount: AmountFromInt(1)},
		{Date: NewDate(2025, 1, 1), Amount: Amount{}},
		{Date: NewDate(2025, 1, 1), Amount: ParseAmount("-5")},
	}
	for i, p := range bads {
		if err := p.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		Date:        NewDate(2025, 1, 1),
		Description: "hall rent",
		Amount:      AmountFromInt(300),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expense{
		{Date: Date{Time: time.Time{}}, Description: "a", Amount: AmountFromInt(1)}, // zero date
		{Date: NewDate(2025, 1, 1), Description: "  ", Amount: AmountFromInt(1)},
		{Date: NewDate(2025, 1, 1), Description: strings.Repeat("x", 201), Amount: AmountFromInt(1)},
		{Date: NewDate(2025, 1, 1), Description: "a", Amount: ParseAmount("nope")},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestStudentValidate(t *testing.T) {
	tests := []struct {
		name    string
		student Student
		wantErr error
	}{
		{"minimal", Student{Name: "Ahmed"}, nil},
		{"full", Student{Name: "Sara", Phone: "01098765432", MonthlyFee: AmountFromInt(400), JoinDate: NewDate(2025, 3, 10)}, nil},
		{"blank name", Student{Name: " "}, ErrEmptyName},
		{"bad phone prefix", Student{Name: "Layan", Phone: "01312345678"}, ErrInvalidPhone},
		{"short phone", Student{Name: "Layan", Phone: "0101234"}, ErrInvalidPhone},
		{"negative fee", Student{Name: "Omar", MonthlyFee: ParseAmount("-1")}, ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.student.Validate()
			if err != tt.wantErr {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-03-05", "2024-03-05"},
		{"2024-03-05T10:00:00Z", "2024-03-05"},
		{"2024-03-05 23:59:59", "2024-03-05"},
		{" 2024-12-31 ", "2024-12-31"},
		{"05/03/2024", ""},
		{"", ""},
		{"not a date", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseDate(tt.in).String(); got != tt.want {
				t.Errorf("ParseDate(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMonthKey(t *testing.T) {
	if got := NewDate(2024, 3, 31).MonthKey(); got != "2024-03" {
		t.Fatalf("MonthKey() = %q", got)
	}
	if got := (Date{}).MonthKey(); got != "" {
		t.Fatalf("zero date MonthKey() = %q, want empty", got)
	}
	if got := MonthKey("2024-12").AddMonths(1); got != "2025-01" {
		t.Fatalf("AddMonths(1) = %q", got)
	}
	if got := MonthKey("2024-01").AddMonths(-1); got != "2023-12" {
		t.Fatalf("AddMonths(-1) = %q", got)
	}
	if _, err := ParseMonthKey("2024-13"); err == nil {
		t.Fatalf("expected error for month 13")
	}
	if k, err := ParseMonthKey("2024-07"); err != nil || k != "2024-07" {
		t.Fatalf("ParseMonthKey = %q, %v", k, err)
	}
}

func TestDateJSONIsLenient(t *testing.T) {
	var d Date
	if err := d.UnmarshalJSON([]byte(`123`)); err != nil || !d.IsEmpty() {
		t.Fatalf("number should give zero date without error, got %v %v", d, err)
	}
	if err := d.UnmarshalJSON([]byte(`"2025-02-01"`)); err != nil || d.String() != "2025-02-01" {
		t.Fatalf("unexpected %v %v", d, err)
	}
}
