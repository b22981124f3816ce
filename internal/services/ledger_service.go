package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"tutorbook/internal/amqp"
	"tutorbook/internal/cache"
	"tutorbook/internal/core"
	"tutorbook/internal/datasource"
	"tutorbook/internal/finance"
	applog "tutorbook/internal/log"
	"tutorbook/internal/reminder"
	"tutorbook/internal/storage"
)

// Publisher sends ledger events. *amqp.Client implements it.
type Publisher interface {
	PublishPaymentSync(ctx context.Context, msg amqp.PaymentSyncMessage) error
	PublishPaymentDelete(ctx context.Context, msg amqp.PaymentDeleteMessage) error
	PublishReminderDue(ctx context.Context, msg amqp.ReminderDueMessage) error
}

type Options struct {
	CacheSize int
	CacheTTL  time.Duration
}

// LedgerService orchestrates ledger writes across the data source and AMQP,
// and serves snapshots and summaries memoized by snapshot version.
type LedgerService struct {
	src       *datasource.Source
	publisher Publisher
	snapshots *cache.LRUCache[uint64, core.Snapshot]
	summaries *cache.LRUCache[uint64, core.Summary]
	logger    *applog.Logger
}

// NewLedgerService wires the service. publisher may be nil, in which case
// events are skipped.
func NewLedgerService(src *datasource.Source, publisher Publisher, opts Options, logger *applog.Logger) *LedgerService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	if opts.CacheSize < 1 {
		opts.CacheSize = 16
	}
	return &LedgerService{
		src:       src,
		publisher: publisher,
		snapshots: cache.NewLRUCache[uint64, core.Snapshot](opts.CacheSize, opts.CacheTTL),
		summaries: cache.NewLRUCache[uint64, core.Summary](opts.CacheSize, opts.CacheTTL),
		logger:    logger.WithComponent(applog.ComponentLedger),
	}
}

// RegisterCaches hands the service caches to m for periodic cleanup.
func (s *LedgerService) RegisterCaches(m *cache.Manager) {
	m.Register(s.snapshots)
	m.Register(s.summaries)
}

func (s *LedgerService) Source() *datasource.Source { return s.src }

// Snapshot returns the data as of the current version, loading it on a miss.
// When the source is unavailable the fallback data is served and not cached.
func (s *LedgerService) Snapshot(ctx context.Context) (core.Snapshot, error) {
	snap, _, err := s.load(ctx, s.src.Version())
	return snap, err
}

// Summary returns the dashboard figures for the current snapshot.
func (s *LedgerService) Summary(ctx context.Context) (core.Summary, error) {
	version := s.src.Version()
	if sum, ok := s.summaries.Get(version); ok {
		return sum, nil
	}
	snap, cached, err := s.load(ctx, version)
	if err != nil {
		return core.Summary{}, err
	}
	sum := finance.Summarize(snap)
	if cached {
		s.summaries.Set(version, sum)
	}
	return sum, nil
}

func (s *LedgerService) load(ctx context.Context, version uint64) (core.Snapshot, bool, error) {
	if snap, ok := s.snapshots.Get(version); ok {
		return snap, true, nil
	}
	snap, err := s.src.Load(ctx)
	if errors.Is(err, datasource.ErrSourceUnavailable) {
		s.logger.WarnContext(ctx, "Serving fallback data", applog.FieldError, err)
		return snap, false, nil
	}
	if err != nil {
		return core.Snapshot{}, false, fmt.Errorf("load snapshot: %w", err)
	}
	s.snapshots.Set(version, snap)
	return snap, true, nil
}

// EffectiveReminder resolves the reminder window of one student.
func (s *LedgerService) EffectiveReminder(ctx context.Context, studentID string) (reminder.Days, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return reminder.Days{}, err
	}
	st, ok := snap.Student(studentID)
	if !ok {
		return reminder.Days{}, fmt.Errorf("student %s: %w", studentID, storage.ErrNotFound)
	}
	return reminder.NewResolver(snap).For(st), nil
}

// DueReminders lists the students to remind at now.
func (s *LedgerService) DueReminders(ctx context.Context, now time.Time) ([]reminder.Due, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return reminder.Scan(snap, now), nil
}

// CreatePayment saves a payment and publishes a sync message
func (s *LedgerService) CreatePayment(ctx context.Context, p core.Payment) (core.Payment, error) {
	if err := validatePayment(p); err != nil {
		return core.Payment{}, err
	}
	saved, err := s.src.Store().CreatePayment(ctx, p)
	if err != nil {
		return core.Payment{}, fmt.Errorf("save payment: %w", err)
	}
	version := s.written(ctx, applog.OpCreate, applog.FieldPaymentID, saved.ID)

	// Don't fail the request - the payment is saved
	if err := s.publishSync(ctx, amqp.PaymentSyncMessage{PaymentID: saved.ID, Version: version}); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish sync message",
			applog.FieldPaymentID, saved.ID, applog.FieldError, err)
	}
	return saved, nil
}

// UpdatePayment saves the change and asks for the statement row to be
// rewritten. A payment moved to another year also names the old year, whose
// sheet still holds its row.
func (s *LedgerService) UpdatePayment(ctx context.Context, p core.Payment) (core.Payment, error) {
	if err := validatePayment(p); err != nil {
		return core.Payment{}, err
	}
	prev, err := s.src.Store().GetPayment(ctx, p.ID)
	if err != nil {
		return core.Payment{}, fmt.Errorf("get payment: %w", err)
	}
	saved, err := s.src.Store().UpdatePayment(ctx, p)
	if err != nil {
		return core.Payment{}, fmt.Errorf("update payment: %w", err)
	}
	version := s.written(ctx, applog.OpUpdate, applog.FieldPaymentID, saved.ID)

	msg := amqp.PaymentSyncMessage{PaymentID: saved.ID, Version: version}
	if y := prev.Date.Year(); y != saved.Date.Year() {
		msg.PreviousYear = y
	}
	if err := s.publishSync(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish sync message",
			applog.FieldPaymentID, saved.ID, applog.FieldError, err)
	}
	return saved, nil
}

// DeletePayment removes a payment and publishes a delete message carrying
// the statement row it had, so the worker can find it in the sheet.
func (s *LedgerService) DeletePayment(ctx context.Context, id string) error {
	p, err := s.src.Store().GetPayment(ctx, id)
	if err != nil {
		return fmt.Errorf("get payment: %w", err)
	}
	var row core.StatementRow
	if snap, err := s.Snapshot(ctx); err == nil {
		row = finance.StatementRow(p, snap)
	} else {
		row = finance.StatementRow(p, core.Snapshot{})
	}

	if err := s.src.Store().DeletePayment(ctx, id); err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	s.written(ctx, applog.OpDelete, applog.FieldPaymentID, id)

	if err := s.publishDelete(ctx, amqp.PaymentDeleteMessage{PaymentID: id, Row: row}); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish delete message",
			applog.FieldPaymentID, id, applog.FieldError, err)
	}
	return nil
}

func (s *LedgerService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := validateExpense(e); err != nil {
		return core.Expense{}, err
	}
	saved, err := s.src.Store().CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	s.written(ctx, applog.OpCreate, applog.FieldExpenseID, saved.ID)
	return saved, nil
}

func (s *LedgerService) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := validateExpense(e); err != nil {
		return core.Expense{}, err
	}
	saved, err := s.src.Store().UpdateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	s.written(ctx, applog.OpUpdate, applog.FieldExpenseID, saved.ID)
	return saved, nil
}

func (s *LedgerService) DeleteExpense(ctx context.Context, id string) error {
	if err := s.src.Store().DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	s.written(ctx, applog.OpDelete, applog.FieldExpenseID, id)
	return nil
}

func (s *LedgerService) CreateStudent(ctx context.Context, st core.Student) (core.Student, error) {
	if err := validateStudent(st); err != nil {
		return core.Student{}, err
	}
	saved, err := s.src.Store().CreateStudent(ctx, st)
	if err != nil {
		return core.Student{}, fmt.Errorf("save student: %w", err)
	}
	s.written(ctx, applog.OpCreate, applog.FieldStudentID, saved.ID)
	return saved, nil
}

func (s *LedgerService) UpdateStudent(ctx context.Context, st core.Student) (core.Student, error) {
	if err := validateStudent(st); err != nil {
		return core.Student{}, err
	}
	saved, err := s.src.Store().UpdateStudent(ctx, st)
	if err != nil {
		return core.Student{}, fmt.Errorf("update student: %w", err)
	}
	s.written(ctx, applog.OpUpdate, applog.FieldStudentID, saved.ID)
	return saved, nil
}

func (s *LedgerService) DeleteStudent(ctx context.Context, id string) error {
	if err := s.src.Store().DeleteStudent(ctx, id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	s.written(ctx, applog.OpDelete, applog.FieldStudentID, id)
	return nil
}

func (s *LedgerService) CreateGroup(ctx context.Context, g core.Group) (core.Group, error) {
	if err := g.Validate(); err != nil {
		return core.Group{}, fieldError("name", err)
	}
	saved, err := s.src.Store().CreateGroup(ctx, g)
	if err != nil {
		return core.Group{}, fmt.Errorf("save group: %w", err)
	}
	s.written(ctx, applog.OpCreate, applog.FieldGroupID, saved.ID)
	return saved, nil
}

// DeleteGroup refuses to remove the last remaining group.
func (s *LedgerService) DeleteGroup(ctx context.Context, id string) error {
	if err := s.src.Store().DeleteGroup(ctx, id); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	s.written(ctx, applog.OpDelete, applog.FieldGroupID, id)
	return nil
}

func (s *LedgerService) SaveSettings(ctx context.Context, rs core.ReminderSettings) (core.ReminderSettings, error) {
	if err := rs.Validate(); err != nil {
		return core.ReminderSettings{}, fieldError("reminder_days", err)
	}
	saved, err := s.src.Store().SaveSettings(ctx, rs)
	if err != nil {
		return core.ReminderSettings{}, fmt.Errorf("save settings: %w", err)
	}
	s.written(ctx, applog.OpUpdate, applog.FieldCollection, "settings")
	return saved, nil
}

func (s *LedgerService) SaveGroupOverride(ctx context.Context, o core.GroupReminderOverride) (core.GroupReminderOverride, error) {
	if err := o.Validate(); err != nil {
		return core.GroupReminderOverride{}, fieldError("reminder_days", err)
	}
	saved, err := s.src.Store().SaveGroupOverride(ctx, o)
	if err != nil {
		return core.GroupReminderOverride{}, fmt.Errorf("save group override: %w", err)
	}
	s.written(ctx, applog.OpUpdate, applog.FieldGroupID, o.GroupID)
	return saved, nil
}

func (s *LedgerService) SaveStudentOverride(ctx context.Context, o core.StudentReminderOverride) (core.StudentReminderOverride, error) {
	if err := o.Validate(); err != nil {
		return core.StudentReminderOverride{}, fieldError("reminder_days", err)
	}
	saved, err := s.src.Store().SaveStudentOverride(ctx, o)
	if err != nil {
		return core.StudentReminderOverride{}, fmt.Errorf("save student override: %w", err)
	}
	s.written(ctx, applog.OpUpdate, applog.FieldStudentID, o.StudentID)
	return saved, nil
}

// Ready reports whether the backing store answers.
func (s *LedgerService) Ready(ctx context.Context) error {
	return s.src.Store().Ping(ctx)
}

// written bumps the snapshot version after a successful write.
func (s *LedgerService) written(ctx context.Context, op, field, id string) uint64 {
	version := s.src.Invalidate()
	s.logger.InfoContext(ctx, "Ledger updated",
		applog.FieldOperation, op,
		field, id,
		applog.FieldVersion, version)
	return version
}

func (s *LedgerService) publishSync(ctx context.Context, msg amqp.PaymentSyncMessage) error {
	if s.publisher == nil {
		s.logger.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}
	return s.publisher.PublishPaymentSync(ctx, msg)
}

func (s *LedgerService) publishDelete(ctx context.Context, msg amqp.PaymentDeleteMessage) error {
	if s.publisher == nil {
		s.logger.WarnContext(ctx, "AMQP client not available, skipping delete message")
		return nil
	}
	return s.publisher.PublishPaymentDelete(ctx, msg)
}

// Close closes the data source and the publisher connection.
func (s *LedgerService) Close() error {
	var errs []error
	if err := s.src.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close data source: %w", err))
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	return errors.Join(errs...)
}
