package datasource

import (
	"context"

	"tutorbook/internal/core"
)

// Store is the ledger data layer. The SQL store and the in-memory demo
// store both implement it.
type Store interface {
	ListGroups(ctx context.Context) ([]core.Group, error)
	CreateGroup(ctx context.Context, g core.Group) (core.Group, error)
	DeleteGroup(ctx context.Context, id string) error

	ListStudents(ctx context.Context) ([]core.Student, error)
	CreateStudent(ctx context.Context, s core.Student) (core.Student, error)
	UpdateStudent(ctx context.Context, s core.Student) (core.Student, error)
	DeleteStudent(ctx context.Context, id string) error

	ListPayments(ctx context.Context) ([]core.Payment, error)
	GetPayment(ctx context.Context, id string) (core.Payment, error)
	CreatePayment(ctx context.Context, p core.Payment) (core.Payment, error)
	UpdatePayment(ctx context.Context, p core.Payment) (core.Payment, error)
	DeletePayment(ctx context.Context, id string) error
	ListUnsyncedPayments(ctx context.Context, limit int) ([]core.Payment, error)
	MarkPaymentSynced(ctx context.Context, id string) error

	ListExpenses(ctx context.Context) ([]core.Expense, error)
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	DeleteExpense(ctx context.Context, id string) error

	GetSettings(ctx context.Context) (core.ReminderSettings, error)
	SaveSettings(ctx context.Context, s core.ReminderSettings) (core.ReminderSettings, error)
	ListGroupOverrides(ctx context.Context) ([]core.GroupReminderOverride, error)
	SaveGroupOverride(ctx context.Context, o core.GroupReminderOverride) (core.GroupReminderOverride, error)
	ListStudentOverrides(ctx context.Context) ([]core.StudentReminderOverride, error)
	SaveStudentOverride(ctx context.Context, o core.StudentReminderOverride) (core.StudentReminderOverride, error)

	Ping(ctx context.Context) error
	Close() error
}

// Kind is chosen once at startup.
type Kind string

const (
	KindLive    Kind = "live"
	KindFixture Kind = "fixture"
)

// String implements fmt.Stringer
func (k Kind) String() string {
	return string(k)
}

// IsValid returns true if the kind is known
func (k Kind) IsValid() bool {
	switch k {
	case KindLive, KindFixture:
		return true
	default:
		return false
	}
}
