package google

import (
	"context"
	"testing"

	"tutorbook/internal/core"
)

func TestParseStatement(t *testing.T) {
	values := [][]interface{}{
		{"Payment ID", "Date", "Student", "Group", "Amount", "Note"},
		{"p1", "2024-03-04", "أحمد", "المجموعة الأولى", "150.00", "March"},
		{"", "2024-03-05", "stray", "", "1"},
		{"p2", "2024-03-08", "سارة", "", "200,50"},
		{"p3", "", "", "", "n/a"},
	}

	rows := parseStatement(values)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d: %+v", len(rows), rows)
	}
	if rows[0].PaymentID != "p1" || rows[0].Student != "أحمد" || rows[0].Note != "March" {
		t.Errorf("unexpected first row: %+v", rows[0])
	}
	if !rows[0].Date.Equal(core.NewDate(2024, 3, 4).Time) {
		t.Errorf("unexpected date: %v", rows[0].Date)
	}
	if rows[1].Amount.String() != "200.5" {
		t.Errorf("decimal comma not parsed: %v", rows[1].Amount)
	}
	if !rows[2].Amount.IsZero() || !rows[2].Date.IsEmpty() {
		t.Errorf("unparseable cells should be zero: %+v", rows[2])
	}
}

func TestFindRowIndex(t *testing.T) {
	values := [][]interface{}{
		{"Payment ID"},
		{"p1"},
		{},
		{" p2 "},
	}
	tests := []struct {
		id   string
		want int
	}{
		{"p1", 1},
		{"p2", 3},
		{"p9", -1},
		{"", -1},
	}
	for _, tt := range tests {
		if got := findRowIndex(values, tt.id); got != tt.want {
			t.Errorf("findRowIndex(%q) = %d, want %d", tt.id, got, tt.want)
		}
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Payments", 2024, "2024 Payments"},
		{" Payments ", 2025, "2025 Payments"},
		{"2023 Payments", 2025, "2023 Payments"},
		{"", 2025, ""},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
		}
	}
}

func TestClient_RequiresService(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetBase: "Payments"}
	row := core.StatementRow{PaymentID: "p1", Date: core.NewDate(2024, 3, 4)}

	if _, err := c.AppendRow(context.Background(), row); err == nil {
		t.Error("expected error when service is nil")
	}
	if _, err := c.AppendRow(context.Background(), core.StatementRow{Date: row.Date}); err == nil {
		t.Error("expected error for a row without payment id")
	}
	if err := c.DeleteRow(context.Background(), row); err == nil {
		t.Error("expected error when service is nil")
	}
	if _, err := c.ListRows(context.Background(), 2024); err == nil {
		t.Error("expected error when service is nil")
	}
}

func TestNewClient_MissingSpreadsheetID(t *testing.T) {
	_, err := NewClient(context.Background(), " ", "Payments", nil)
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewClient_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	if _, err := NewClient(context.Background(), "sheet-id", "", nil); err == nil {
		t.Error("expected error without credentials")
	}
}
