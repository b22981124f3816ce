// Package memory is a statement adapter that keeps rows in process. It backs
// fixture mode and tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"tutorbook/internal/core"
	ports "tutorbook/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows []core.StatementRow
	seq  int
}

var _ ports.Statement = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// AppendRow stores the row and returns a synthetic row reference.
func (s *Store) AppendRow(_ context.Context, row core.StatementRow) (string, error) {
	if row.PaymentID == "" {
		return "", errors.New("statement row has no payment id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	s.seq++
	return fmt.Sprintf("mem:%d", s.seq), nil
}

// DeleteRow only looks at rows of row's year, like the per-year sheets.
func (s *Store) DeleteRow(_ context.Context, row core.StatementRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.rows {
		if r.PaymentID == row.PaymentID && r.Date.Year() == row.Date.Year() {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ports.ErrRowNotFound, row.PaymentID)
}

func (s *Store) ListRows(_ context.Context, year int) ([]core.StatementRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.StatementRow
	for _, r := range s.rows {
		if r.Date.Year() == year {
			out = append(out, r)
		}
	}
	return out, nil
}

// Rows returns every stored row in append order.
func (s *Store) Rows() []core.StatementRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.StatementRow(nil), s.rows...)
}
