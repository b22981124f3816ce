package sheets

import (
	"context"
	"errors"

	"tutorbook/internal/core"
)

// ErrRowNotFound is returned when a statement row for a payment is missing.
var ErrRowNotFound = errors.New("statement row not found")

// Ports for outbound adapters.
type (
	StatementWriter interface {
		AppendRow(ctx context.Context, row core.StatementRow) (rowRef string, err error)
	}

	// StatementDeleter removes the row written for a payment. The row is
	// looked up in the sheet of the payment's year.
	StatementDeleter interface {
		DeleteRow(ctx context.Context, row core.StatementRow) error
	}

	// StatementReader lists the rows of one year's statement sheet.
	StatementReader interface {
		ListRows(ctx context.Context, year int) ([]core.StatementRow, error)
	}

	// Statement is implemented by every adapter.
	Statement interface {
		StatementWriter
		StatementDeleter
		StatementReader
	}
)
