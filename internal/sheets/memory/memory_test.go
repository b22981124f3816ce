package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"tutorbook/internal/core"
	ports "tutorbook/internal/sheets"
)

func TestMemoryStoreAppendListDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	row := core.StatementRow{PaymentID: "p1", Student: "أحمد", Amount: decimal.NewFromInt(150), Date: core.NewDate(2024, 3, 4)}
	ref, err := s.AppendRow(ctx, row)
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}
	if _, err := s.AppendRow(ctx, core.StatementRow{PaymentID: "p2", Date: core.NewDate(2023, 12, 30)}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := s.AppendRow(ctx, core.StatementRow{}); err == nil {
		t.Fatal("expected error for a row without payment id")
	}

	rows, _ := s.ListRows(ctx, 2024)
	if len(rows) != 1 || rows[0].PaymentID != "p1" {
		t.Fatalf("unexpected 2024 rows: %+v", rows)
	}

	// Rows are looked up in their own year only.
	if err := s.DeleteRow(ctx, core.StatementRow{PaymentID: "p2", Date: core.NewDate(2024, 1, 1)}); !errors.Is(err, ports.ErrRowNotFound) {
		t.Fatalf("expected ErrRowNotFound across years, got %v", err)
	}
	if err := s.DeleteRow(ctx, row); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteRow(ctx, row); !errors.Is(err, ports.ErrRowNotFound) {
		t.Fatalf("expected ErrRowNotFound, got %v", err)
	}
	if got := s.Rows(); len(got) != 1 || got[0].PaymentID != "p2" {
		t.Fatalf("unexpected remaining rows: %+v", got)
	}
}
