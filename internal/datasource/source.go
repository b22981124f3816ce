package datasource

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"tutorbook/internal/core"
	applog "tutorbook/internal/log"
)

// ErrSourceUnavailable is returned by Load when no collection could be read.
// The snapshot returned alongside it is made of fallback data only.
var ErrSourceUnavailable = errors.New("data source unavailable")

// Source loads snapshots from a Store and tracks the snapshot version.
// Writers call Invalidate after every successful write.
type Source struct {
	kind     Kind
	store    Store
	fallback core.Snapshot
	version  atomic.Uint64
	logger   *applog.Logger
}

// NewSource binds a store. fallback supplies a collection's value whenever
// reading it from the store fails.
func NewSource(kind Kind, store Store, fallback core.Snapshot, logger *applog.Logger) *Source {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	s := &Source{
		kind:     kind,
		store:    store,
		fallback: fallback,
		logger:   logger.WithComponent(applog.ComponentDataSource),
	}
	s.version.Store(1)
	return s
}

func (s *Source) Kind() Kind   { return s.kind }
func (s *Source) Store() Store { return s.store }

// Version identifies the data as of the last write.
func (s *Source) Version() uint64 { return s.version.Load() }

// Invalidate bumps the version and returns the new one.
func (s *Source) Invalidate() uint64 { return s.version.Add(1) }

func (s *Source) Close() error { return s.store.Close() }

// Load reads every collection concurrently. A collection that fails to load
// is replaced by its fallback value and logged; Load only returns an error
// when every collection failed.
func (s *Source) Load(ctx context.Context) (core.Snapshot, error) {
	snap := core.Snapshot{Version: s.Version()}

	var (
		mu     sync.Mutex
		failed []string
	)
	fail := func(name string, err error) {
		s.logger.WarnContext(ctx, "Collection load failed, using fallback data",
			applog.FieldCollection, name,
			applog.FieldDataSource, s.kind.String(),
			applog.FieldError, err)
		mu.Lock()
		failed = append(failed, name)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	load := func(name string, fn func(context.Context) error) {
		g.Go(func() error {
			if err := fn(gctx); err != nil {
				fail(name, err)
			}
			return nil
		})
	}

	load("groups", func(ctx context.Context) error {
		v, err := s.store.ListGroups(ctx)
		if err != nil {
			snap.Groups = s.fallback.Groups
			return err
		}
		snap.Groups = v
		return nil
	})
	load("students", func(ctx context.Context) error {
		v, err := s.store.ListStudents(ctx)
		if err != nil {
			snap.Students = s.fallback.Students
			return err
		}
		snap.Students = v
		return nil
	})
	load("payments", func(ctx context.Context) error {
		v, err := s.store.ListPayments(ctx)
		if err != nil {
			snap.Payments = s.fallback.Payments
			return err
		}
		snap.Payments = v
		return nil
	})
	load("expenses", func(ctx context.Context) error {
		v, err := s.store.ListExpenses(ctx)
		if err != nil {
			snap.Expenses = s.fallback.Expenses
			return err
		}
		snap.Expenses = v
		return nil
	})
	load("settings", func(ctx context.Context) error {
		v, err := s.store.GetSettings(ctx)
		if err != nil {
			snap.Settings = s.fallback.Settings
			return err
		}
		snap.Settings = &v
		return nil
	})
	load("group_settings", func(ctx context.Context) error {
		v, err := s.store.ListGroupOverrides(ctx)
		if err != nil {
			snap.GroupOverrides = s.fallback.GroupOverrides
			return err
		}
		snap.GroupOverrides = v
		return nil
	})
	load("student_settings", func(ctx context.Context) error {
		v, err := s.store.ListStudentOverrides(ctx)
		if err != nil {
			snap.StudentOverrides = s.fallback.StudentOverrides
			return err
		}
		snap.StudentOverrides = v
		return nil
	})

	_ = g.Wait()

	if len(failed) == collectionCount {
		sort.Strings(failed)
		return snap, fmt.Errorf("%w: %s", ErrSourceUnavailable, strings.Join(failed, ", "))
	}

	s.logger.DebugContext(ctx, "Snapshot loaded",
		applog.FieldVersion, snap.Version,
		applog.FieldOperation, applog.OpLoad,
		"failed_collections", len(failed))
	return snap, nil
}

const collectionCount = 7
