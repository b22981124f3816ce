package storage

import (
	"context"
	"fmt"

	"tutorbook/internal/core"
	applog "tutorbook/internal/log"
)

const (
	paymentColumns = `id, COALESCE(student_id, '') AS student_id, amount, date, COALESCE(note, '') AS note, created_at`
	expenseColumns = `id, description, amount, date, COALESCE(note, '') AS note, created_at`
)

// ListPayments returns payments newest first.
func (s *Store) ListPayments(ctx context.Context) ([]core.Payment, error) {
	payments := []core.Payment{}
	query := `SELECT ` + paymentColumns + ` FROM payments ORDER BY date DESC, created_at DESC`
	if err := s.selectAll(ctx, &payments, query); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

func (s *Store) GetPayment(ctx context.Context, id string) (core.Payment, error) {
	var payments []core.Payment
	if err := s.selectAll(ctx, &payments, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id); err != nil {
		return core.Payment{}, fmt.Errorf("get payment %s: %w", id, err)
	}
	if len(payments) == 0 {
		return core.Payment{}, ErrNotFound
	}
	return payments[0], nil
}

func (s *Store) CreatePayment(ctx context.Context, p core.Payment) (core.Payment, error) {
	p.ID = newID(p.ID)
	p.CreatedAt = s.now()
	_, err := s.exec(ctx, `INSERT INTO payments (id, student_id, amount, date, note, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, nullable(p.StudentID), p.Amount, p.Date, p.Note, p.CreatedAt)
	if err != nil {
		return core.Payment{}, fmt.Errorf("create payment: %w", err)
	}

	s.logger.InfoContext(ctx, "Payment saved",
		applog.FieldPaymentID, p.ID,
		applog.FieldStudentID, p.StudentID,
		applog.FieldAmount, p.Amount.String(),
		applog.FieldOperation, applog.OpCreate)
	return p, nil
}

// UpdatePayment clears synced_at so the statement worker picks the row up again.
func (s *Store) UpdatePayment(ctx context.Context, p core.Payment) (core.Payment, error) {
	err := s.execOne(ctx, `UPDATE payments SET student_id = ?, amount = ?, date = ?, note = ?, synced_at = NULL WHERE id = ?`,
		nullable(p.StudentID), p.Amount, p.Date, p.Note, p.ID)
	if err != nil {
		return core.Payment{}, fmt.Errorf("update payment %s: %w", p.ID, err)
	}
	return s.GetPayment(ctx, p.ID)
}

func (s *Store) DeletePayment(ctx context.Context, id string) error {
	if err := s.execOne(ctx, `DELETE FROM payments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete payment %s: %w", id, err)
	}
	s.logger.InfoContext(ctx, "Payment deleted", applog.FieldPaymentID, id, applog.FieldOperation, applog.OpDelete)
	return nil
}

// ListUnsyncedPayments returns up to limit payments not yet written to the
// statement, oldest first.
func (s *Store) ListUnsyncedPayments(ctx context.Context, limit int) ([]core.Payment, error) {
	payments := []core.Payment{}
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE synced_at IS NULL ORDER BY created_at ASC LIMIT ?`
	if err := s.selectAll(ctx, &payments, query, limit); err != nil {
		return nil, fmt.Errorf("list unsynced payments: %w", err)
	}
	return payments, nil
}

// MarkPaymentSynced records that a payment reached the statement.
func (s *Store) MarkPaymentSynced(ctx context.Context, id string) error {
	if err := s.execOne(ctx, `UPDATE payments SET synced_at = ? WHERE id = ?`, s.now(), id); err != nil {
		return fmt.Errorf("mark payment synced: %w", err)
	}
	s.logger.DebugContext(ctx, "Payment marked as synced", applog.FieldPaymentID, id, applog.FieldOperation, applog.OpSync)
	return nil
}

// ListExpenses returns expenses newest first.
func (s *Store) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	expenses := []core.Expense{}
	query := `SELECT ` + expenseColumns + ` FROM expenses ORDER BY date DESC, created_at DESC`
	if err := s.selectAll(ctx, &expenses, query); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

func (s *Store) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.ID = newID(e.ID)
	e.CreatedAt = s.now()
	_, err := s.exec(ctx, `INSERT INTO expenses (id, description, amount, date, note, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Description, e.Amount, e.Date, e.Note, e.CreatedAt)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	s.logger.InfoContext(ctx, "Expense saved",
		applog.FieldExpenseID, e.ID,
		applog.FieldAmount, e.Amount.String(),
		applog.FieldOperation, applog.OpCreate)
	return e, nil
}

func (s *Store) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	err := s.execOne(ctx, `UPDATE expenses SET description = ?, amount = ?, date = ?, note = ? WHERE id = ?`,
		e.Description, e.Amount, e.Date, e.Note, e.ID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense %s: %w", e.ID, err)
	}
	var expenses []core.Expense
	if err := s.selectAll(ctx, &expenses, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, e.ID); err != nil {
		return core.Expense{}, fmt.Errorf("get expense %s: %w", e.ID, err)
	}
	if len(expenses) == 0 {
		return core.Expense{}, ErrNotFound
	}
	return expenses[0], nil
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	if err := s.execOne(ctx, `DELETE FROM expenses WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete expense %s: %w", id, err)
	}
	s.logger.InfoContext(ctx, "Expense deleted", applog.FieldExpenseID, id, applog.FieldOperation, applog.OpDelete)
	return nil
}
