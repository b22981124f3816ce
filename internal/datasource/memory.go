package datasource

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"tutorbook/internal/core"
	"tutorbook/internal/storage"
)

// Memory is an in-process Store used in fixture mode and in tests.
type Memory struct {
	mu               sync.Mutex
	groups           []core.Group
	students         []core.Student
	payments         []core.Payment
	expenses         []core.Expense
	settings         *core.ReminderSettings
	groupOverrides   []core.GroupReminderOverride
	studentOverrides []core.StudentReminderOverride
	synced           map[string]bool
	now              func() time.Time
}

// NewMemory seeds a store with a copy of seed's collections. Duplicate ids
// keep their first occurrence.
func NewMemory(seed core.Snapshot) *Memory {
	m := &Memory{
		groups:           dedupeBy(seed.Groups, func(g core.Group) string { return g.ID }),
		students:         dedupeBy(seed.Students, func(s core.Student) string { return s.ID }),
		payments:         dedupeBy(seed.Payments, func(p core.Payment) string { return p.ID }),
		expenses:         dedupeBy(seed.Expenses, func(e core.Expense) string { return e.ID }),
		groupOverrides:   dedupeBy(seed.GroupOverrides, func(o core.GroupReminderOverride) string { return o.GroupID }),
		studentOverrides: dedupeBy(seed.StudentOverrides, func(o core.StudentReminderOverride) string { return o.StudentID }),
		synced:           map[string]bool{},
		now:              func() time.Time { return time.Now().UTC() },
	}
	if seed.Settings != nil {
		s := *seed.Settings
		m.settings = &s
	}
	return m
}

func (m *Memory) ListGroups(_ context.Context) ([]core.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.groups), nil
}

func (m *Memory) CreateGroup(_ context.Context, g core.Group) (core.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g.ID = idOr(g.ID)
	g.CreatedAt = m.now()
	m.groups = append(m.groups, g)
	return g, nil
}

func (m *Memory) DeleteGroup(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.IndexFunc(m.groups, func(g core.Group) bool { return g.ID == id })
	if i < 0 {
		return storage.ErrNotFound
	}
	if len(m.groups) <= 1 {
		return storage.ErrLastGroup
	}
	m.groups = slices.Delete(m.groups, i, i+1)
	m.groupOverrides = slices.DeleteFunc(m.groupOverrides, func(o core.GroupReminderOverride) bool { return o.GroupID == id })
	return nil
}

// ListStudents returns students newest first.
func (m *Memory) ListStudents(_ context.Context) ([]core.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := slices.Clone(m.students)
	slices.SortStableFunc(out, func(a, b core.Student) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (m *Memory) CreateStudent(_ context.Context, s core.Student) (core.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = idOr(s.ID)
	s.CreatedAt = m.now()
	m.students = append(m.students, s)
	return s, nil
}

func (m *Memory) UpdateStudent(_ context.Context, s core.Student) (core.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.IndexFunc(m.students, func(st core.Student) bool { return st.ID == s.ID })
	if i < 0 {
		return core.Student{}, storage.ErrNotFound
	}
	s.CreatedAt = m.students[i].CreatedAt
	m.students[i] = s
	return s, nil
}

func (m *Memory) DeleteStudent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.students)
	m.students = slices.DeleteFunc(m.students, func(s core.Student) bool { return s.ID == id })
	if len(m.students) == n {
		return storage.ErrNotFound
	}
	m.studentOverrides = slices.DeleteFunc(m.studentOverrides, func(o core.StudentReminderOverride) bool { return o.StudentID == id })
	return nil
}

// ListPayments returns payments newest first.
func (m *Memory) ListPayments(_ context.Context) ([]core.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := slices.Clone(m.payments)
	slices.SortStableFunc(out, func(a, b core.Payment) int {
		return cmp.Or(b.Date.Compare(a.Date.Time), b.CreatedAt.Compare(a.CreatedAt))
	})
	return out, nil
}

func (m *Memory) GetPayment(_ context.Context, id string) (core.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.IndexFunc(m.payments, func(p core.Payment) bool { return p.ID == id })
	if i < 0 {
		return core.Payment{}, storage.ErrNotFound
	}
	return m.payments[i], nil
}

func (m *Memory) CreatePayment(_ context.Context, p core.Payment) (core.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = idOr(p.ID)
	p.CreatedAt = m.now()
	m.payments = append(m.payments, p)
	return p, nil
}

func (m *Memory) UpdatePayment(_ context.Context, p core.Payment) (core.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.IndexFunc(m.payments, func(x core.Payment) bool { return x.ID == p.ID })
	if i < 0 {
		return core.Payment{}, storage.ErrNotFound
	}
	p.CreatedAt = m.payments[i].CreatedAt
	m.payments[i] = p
	delete(m.synced, p.ID)
	return p, nil
}

func (m *Memory) DeletePayment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.payments)
	m.payments = slices.DeleteFunc(m.payments, func(p core.Payment) bool { return p.ID == id })
	if len(m.payments) == n {
		return storage.ErrNotFound
	}
	delete(m.synced, id)
	return nil
}

// ListUnsyncedPayments returns up to limit unsynced payments, oldest first.
func (m *Memory) ListUnsyncedPayments(_ context.Context, limit int) ([]core.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Payment
	for _, p := range m.payments {
		if !m.synced[p.ID] {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b core.Payment) int { return a.CreatedAt.Compare(b.CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) MarkPaymentSynced(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !slices.ContainsFunc(m.payments, func(p core.Payment) bool { return p.ID == id }) {
		return storage.ErrNotFound
	}
	m.synced[id] = true
	return nil
}

// ListExpenses returns expenses newest first.
func (m *Memory) ListExpenses(_ context.Context) ([]core.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := slices.Clone(m.expenses)
	slices.SortStableFunc(out, func(a, b core.Expense) int {
		return cmp.Or(b.Date.Compare(a.Date.Time), b.CreatedAt.Compare(a.CreatedAt))
	})
	return out, nil
}

func (m *Memory) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = idOr(e.ID)
	e.CreatedAt = m.now()
	m.expenses = append(m.expenses, e)
	return e, nil
}

func (m *Memory) UpdateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.IndexFunc(m.expenses, func(x core.Expense) bool { return x.ID == e.ID })
	if i < 0 {
		return core.Expense{}, storage.ErrNotFound
	}
	e.CreatedAt = m.expenses[i].CreatedAt
	m.expenses[i] = e
	return e, nil
}

func (m *Memory) DeleteExpense(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.expenses)
	m.expenses = slices.DeleteFunc(m.expenses, func(e core.Expense) bool { return e.ID == id })
	if len(m.expenses) == n {
		return storage.ErrNotFound
	}
	return nil
}

func (m *Memory) GetSettings(_ context.Context) (core.ReminderSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settings == nil {
		return core.DefaultReminderSettings(), nil
	}
	return *m.settings, nil
}

func (m *Memory) SaveSettings(_ context.Context, s core.ReminderSettings) (core.ReminderSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.UpdatedAt = m.now()
	m.settings = &s
	return s, nil
}

func (m *Memory) ListGroupOverrides(_ context.Context) ([]core.GroupReminderOverride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.groupOverrides), nil
}

func (m *Memory) SaveGroupOverride(_ context.Context, o core.GroupReminderOverride) (core.GroupReminderOverride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groupOverrides = upsert(m.groupOverrides, o, func(x core.GroupReminderOverride) bool { return x.GroupID == o.GroupID })
	return o, nil
}

func (m *Memory) ListStudentOverrides(_ context.Context) ([]core.StudentReminderOverride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.studentOverrides), nil
}

func (m *Memory) SaveStudentOverride(_ context.Context, o core.StudentReminderOverride) (core.StudentReminderOverride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.studentOverrides = upsert(m.studentOverrides, o, func(x core.StudentReminderOverride) bool { return x.StudentID == o.StudentID })
	return o, nil
}

func (m *Memory) Ping(context.Context) error { return nil }
func (m *Memory) Close() error               { return nil }

func idOr(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func upsert[T any](items []T, v T, match func(T) bool) []T {
	if i := slices.IndexFunc(items, match); i >= 0 {
		items[i] = v
		return items
	}
	return append(items, v)
}

func dedupeBy[T any](in []T, key func(T) string) []T {
	seen := map[string]struct{}{}
	out := make([]T, 0, len(in))
	for _, v := range in {
		k := key(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}
