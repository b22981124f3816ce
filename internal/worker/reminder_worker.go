package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tutorbook/internal/amqp"
	"tutorbook/internal/core"
	applog "tutorbook/internal/log"
	"tutorbook/internal/reminder"
)

type ReminderPublisher interface {
	PublishReminderDue(ctx context.Context, msg amqp.ReminderDueMessage) error
}

// ReminderWorker publishes a reminder.due message for every student whose
// reminder window contains the current day.
type ReminderWorker struct {
	snapshots SnapshotLoader
	publisher ReminderPublisher
	logger    *applog.Logger

	mu sync.Mutex
	// student id -> day the last reminder was published
	sent map[string]core.Date
}

func NewReminderWorker(snapshots SnapshotLoader, publisher ReminderPublisher, logger *applog.Logger) *ReminderWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &ReminderWorker{
		snapshots: snapshots,
		publisher: publisher,
		logger:    logger.WithComponent(applog.ComponentReminder),
		sent:      make(map[string]core.Date),
	}
}

// ProcessDue publishes reminders due at now, at most once per student per
// day. It returns how many were published.
func (w *ReminderWorker) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if w.snapshots == nil || w.publisher == nil {
		return 0, fmt.Errorf("reminder worker not properly initialized")
	}

	snap, err := w.snapshots.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load snapshot: %w", err)
	}

	today := core.DateOf(now.UTC())
	due := reminder.Scan(snap, now)

	w.logger.InfoContext(ctx, "Processing due reminders",
		applog.FieldOperation, applog.OpScan,
		"due", len(due),
		"processing_date", today.String())

	published := 0
	for _, d := range due {
		if w.alreadySent(d.StudentID, today) {
			continue
		}

		st, _ := snap.Student(d.StudentID)
		msg := amqp.ReminderDueMessage{
			StudentID:   d.StudentID,
			StudentName: d.StudentName,
			Phone:       st.Phone,
			DueDate:     d.DueDate,
			Phase:       string(d.Phase),
			DaysBefore:  d.Days.Before,
			DaysAfter:   d.Days.After,
			Fee:         d.Fee,
		}
		if err := w.publisher.PublishReminderDue(ctx, msg); err != nil {
			w.logger.ErrorContext(ctx, "Failed to publish reminder",
				applog.FieldStudentID, d.StudentID,
				applog.FieldError, err)
			continue
		}

		w.markSent(d.StudentID, today)
		published++
		w.logger.InfoContext(ctx, "Reminder published",
			applog.FieldStudentID, d.StudentID,
			applog.FieldDueDate, d.DueDate.String(),
			applog.FieldPhase, string(d.Phase))
	}

	w.logger.InfoContext(ctx, "Reminder processing complete",
		"published", published,
		"total_due", len(due))
	return published, nil
}

func (w *ReminderWorker) alreadySent(studentID string, today core.Date) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	day, ok := w.sent[studentID]
	return ok && day.Equal(today.Time)
}

func (w *ReminderWorker) markSent(studentID string, today core.Date) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for id, day := range w.sent {
		if day.Before(today.Time) {
			delete(w.sent, id)
		}
	}
	w.sent[studentID] = today
}
