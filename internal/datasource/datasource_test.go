package datasource

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutorbook/internal/config"
	"tutorbook/internal/core"
	"tutorbook/internal/storage"
)

var errBroken = errors.New("connection refused")

// flakyStore fails the collections listed in broken.
type flakyStore struct {
	*Memory
	broken map[string]bool
}

func (f *flakyStore) ListPayments(ctx context.Context) ([]core.Payment, error) {
	if f.broken["payments"] {
		return nil, errBroken
	}
	return f.Memory.ListPayments(ctx)
}

func (f *flakyStore) ListStudents(ctx context.Context) ([]core.Student, error) {
	if f.broken["students"] {
		return nil, errBroken
	}
	return f.Memory.ListStudents(ctx)
}

func (f *flakyStore) ListGroups(ctx context.Context) ([]core.Group, error) {
	if f.broken["groups"] {
		return nil, errBroken
	}
	return f.Memory.ListGroups(ctx)
}

func (f *flakyStore) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	if f.broken["expenses"] {
		return nil, errBroken
	}
	return f.Memory.ListExpenses(ctx)
}

func (f *flakyStore) GetSettings(ctx context.Context) (core.ReminderSettings, error) {
	if f.broken["settings"] {
		return core.ReminderSettings{}, errBroken
	}
	return f.Memory.GetSettings(ctx)
}

func (f *flakyStore) ListGroupOverrides(ctx context.Context) ([]core.GroupReminderOverride, error) {
	if f.broken["group_settings"] {
		return nil, errBroken
	}
	return f.Memory.ListGroupOverrides(ctx)
}

func (f *flakyStore) ListStudentOverrides(ctx context.Context) ([]core.StudentReminderOverride, error) {
	if f.broken["student_settings"] {
		return nil, errBroken
	}
	return f.Memory.ListStudentOverrides(ctx)
}

func TestDemo(t *testing.T) {
	now := time.Date(2024, 2, 20, 15, 0, 0, 0, time.UTC)
	snap := Demo(now)

	assert.Len(t, snap.Groups, 3)
	assert.Len(t, snap.Students, 3)
	assert.Len(t, snap.Payments, 2)
	assert.Len(t, snap.Expenses, 2)
	require.NotNil(t, snap.Settings)
	assert.Equal(t, 3, snap.Settings.DaysBefore)
	assert.Equal(t, 2, snap.Settings.DaysAfter)
	assert.False(t, snap.Settings.UseGroupOverride)
	assert.False(t, snap.Settings.UseStudentOverride)
	for _, p := range snap.Payments {
		assert.Equal(t, core.MonthKey("2024-02"), p.Date.MonthKey())
		assert.NoError(t, p.Validate())
	}
	for _, s := range snap.Students {
		assert.NoError(t, s.Validate())
	}
}

func TestLoadFixtureFileIsLenient(t *testing.T) {
	snap, err := LoadFixtureFile(filepath.Join("testdata", "fixture.json"))
	require.NoError(t, err)

	require.Len(t, snap.Payments, 2)
	assert.False(t, snap.Payments[1].Amount.Valid())
	assert.True(t, snap.Students[1].JoinDate.IsZero())
	assert.Equal(t, "400", snap.Students[1].MonthlyFee.String())
	require.Len(t, snap.GroupOverrides, 1)
	assert.Equal(t, 5, snap.GroupOverrides[0].DaysBefore.OrElse(0))
	assert.False(t, snap.GroupOverrides[0].DaysAfter.IsSome())

	_, err = LoadFixtureFile(filepath.Join("testdata", "missing.json"))
	assert.Error(t, err)
}

func TestSourceLoadFallsBackPerCollection(t *testing.T) {
	live := NewMemory(core.Snapshot{
		Payments: []core.Payment{{ID: "live-p", Amount: core.AmountFromInt(1), Date: core.NewDate(2024, 3, 1)}},
		Students: []core.Student{{ID: "live-s", Name: "Live"}},
	})
	fallback := Demo(time.Now())
	src := NewSource(KindLive, &flakyStore{Memory: live, broken: map[string]bool{"students": true}}, fallback, nil)

	snap, err := src.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Payments, 1)
	assert.Equal(t, "live-p", snap.Payments[0].ID)
	assert.Equal(t, fallback.Students, snap.Students, "failed collection uses fallback data")
	require.NotNil(t, snap.Settings)
	assert.Equal(t, core.DefaultReminderSettings().DaysBefore, snap.Settings.DaysBefore)
}

func TestSourceLoadAllCollectionsFailing(t *testing.T) {
	broken := map[string]bool{}
	for _, c := range []string{"groups", "students", "payments", "expenses", "settings", "group_settings", "student_settings"} {
		broken[c] = true
	}
	fallback := Demo(time.Now())
	src := NewSource(KindLive, &flakyStore{Memory: NewMemory(core.Snapshot{}), broken: broken}, fallback, nil)

	snap, err := src.Load(context.Background())
	require.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Contains(t, err.Error(), "student_settings")
	assert.Len(t, snap.Payments, len(fallback.Payments))
}

func TestSourceVersion(t *testing.T) {
	src := FromSnapshot(core.Snapshot{}, nil)
	v := src.Version()

	snap, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, v, snap.Version)

	assert.Equal(t, v+1, src.Invalidate())
	snap, err = src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, v+1, snap.Version)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(Demo(time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)))

	t.Run("last group cannot be deleted", func(t *testing.T) {
		require.NoError(t, m.DeleteGroup(ctx, "demo-group-3"))
		require.NoError(t, m.DeleteGroup(ctx, "demo-group-2"))
		assert.ErrorIs(t, m.DeleteGroup(ctx, "demo-group-1"), storage.ErrLastGroup)
		assert.ErrorIs(t, m.DeleteGroup(ctx, "nope"), storage.ErrNotFound)
	})

	t.Run("payments newest first and sync tracking", func(t *testing.T) {
		payments, err := m.ListPayments(ctx)
		require.NoError(t, err)
		require.Len(t, payments, 2)
		assert.Equal(t, "demo-payment-2", payments[0].ID)

		unsynced, err := m.ListUnsyncedPayments(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, unsynced, 1)

		require.NoError(t, m.MarkPaymentSynced(ctx, "demo-payment-1"))
		require.NoError(t, m.MarkPaymentSynced(ctx, "demo-payment-2"))
		unsynced, err = m.ListUnsyncedPayments(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, unsynced)

		p := payments[0]
		p.Note = "edited"
		_, err = m.UpdatePayment(ctx, p)
		require.NoError(t, err)
		unsynced, err = m.ListUnsyncedPayments(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, unsynced, 1)

		assert.ErrorIs(t, m.MarkPaymentSynced(ctx, "nope"), storage.ErrNotFound)
	})

	t.Run("overrides upsert", func(t *testing.T) {
		_, err := m.SaveStudentOverride(ctx, core.StudentReminderOverride{StudentID: "demo-student-1", ReminderOverride: core.ReminderOverride{DaysBefore: core.Some(1)}})
		require.NoError(t, err)
		_, err = m.SaveStudentOverride(ctx, core.StudentReminderOverride{StudentID: "demo-student-1", ReminderOverride: core.ReminderOverride{DaysBefore: core.Some(4)}})
		require.NoError(t, err)

		rows, err := m.ListStudentOverrides(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, 4, rows[0].DaysBefore.OrElse(0))

		require.NoError(t, m.DeleteStudent(ctx, "demo-student-1"))
		rows, err = m.ListStudentOverrides(ctx)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("fixture from file", func(t *testing.T) {
		src, err := New(ctx, &config.Config{DataSource: "fixture", FixtureFile: filepath.Join("testdata", "fixture.json")}, nil)
		require.NoError(t, err)
		assert.Equal(t, KindFixture, src.Kind())

		snap, err := src.Load(ctx)
		require.NoError(t, err)
		assert.Len(t, snap.Groups, 2)
	})

	t.Run("live sqlite", func(t *testing.T) {
		src, err := New(ctx, &config.Config{
			DataSource:   "live",
			DBDriver:     "sqlite",
			SQLiteDBPath: filepath.Join(t.TempDir(), "live.db"),
		}, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = src.Close() })
		assert.Equal(t, KindLive, src.Kind())

		snap, err := src.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, snap.Payments)
		require.NotNil(t, snap.Settings)
		assert.Equal(t, 3, snap.Settings.DaysBefore)
	})

	t.Run("invalid kind", func(t *testing.T) {
		_, err := New(ctx, &config.Config{DataSource: "supabase"}, nil)
		assert.Error(t, err)
	})
}
