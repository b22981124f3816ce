package worker

import (
	"context"
	"errors"
	"fmt"

	"tutorbook/internal/amqp"
	"tutorbook/internal/core"
	"tutorbook/internal/finance"
	applog "tutorbook/internal/log"
	"tutorbook/internal/sheets"
	"tutorbook/internal/storage"
)

// PaymentStore is the part of the ledger store the statement worker needs.
type PaymentStore interface {
	GetPayment(ctx context.Context, id string) (core.Payment, error)
	ListUnsyncedPayments(ctx context.Context, limit int) ([]core.Payment, error)
	MarkPaymentSynced(ctx context.Context, id string) error
}

// SnapshotLoader is satisfied by *datasource.Source.
type SnapshotLoader interface {
	Load(ctx context.Context) (core.Snapshot, error)
}

// StatementWorker keeps the payment statement sheet in line with the ledger.
type StatementWorker struct {
	store     PaymentStore
	snapshots SnapshotLoader
	writer    sheets.StatementWriter
	deleter   sheets.StatementDeleter
	batchSize int
	logger    *applog.Logger
}

// NewStatementWorker wires the worker. deleter may be nil, in which case
// deletions and rewrites of updated payments are skipped.
func NewStatementWorker(store PaymentStore, snapshots SnapshotLoader, writer sheets.StatementWriter, deleter sheets.StatementDeleter, batchSize int, logger *applog.Logger) *StatementWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	if batchSize < 1 {
		batchSize = 10
	}
	return &StatementWorker{
		store:     store,
		snapshots: snapshots,
		writer:    writer,
		deleter:   deleter,
		batchSize: batchSize,
		logger:    logger.WithComponent(applog.ComponentWorker),
	}
}

// Handlers returns the AMQP handlers for payment messages.
func (w *StatementWorker) Handlers() map[amqp.MessageType]amqp.Handler {
	return map[amqp.MessageType]amqp.Handler{
		amqp.TypePaymentSync: func(ctx context.Context, env *amqp.Envelope) error {
			var msg amqp.PaymentSyncMessage
			if err := env.Decode(&msg); err != nil {
				return err
			}
			return w.HandlePaymentSync(ctx, &msg)
		},
		amqp.TypePaymentDelete: func(ctx context.Context, env *amqp.Envelope) error {
			var msg amqp.PaymentDeleteMessage
			if err := env.Decode(&msg); err != nil {
				return err
			}
			return w.HandlePaymentDelete(ctx, &msg)
		},
	}
}

// HandlePaymentSync writes the payment's statement row. A payment deleted
// before the message arrived is skipped.
func (w *StatementWorker) HandlePaymentSync(ctx context.Context, msg *amqp.PaymentSyncMessage) error {
	w.logger.InfoContext(ctx, "Processing sync message",
		applog.FieldPaymentID, msg.PaymentID,
		applog.FieldVersion, msg.Version)

	p, err := w.store.GetPayment(ctx, msg.PaymentID)
	if errors.Is(err, storage.ErrNotFound) {
		w.logger.WarnContext(ctx, "Payment no longer exists, skipping sync",
			applog.FieldPaymentID, msg.PaymentID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get payment from storage: %w", err)
	}

	snap, err := w.snapshots.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if err := w.removeFromYear(ctx, p.ID, msg.PreviousYear, p.Date.Year()); err != nil {
		return err
	}
	return w.syncPayment(ctx, p, snap)
}

// removeFromYear drops a payment's row from an earlier year's sheet after
// its date was moved to another year.
func (w *StatementWorker) removeFromYear(ctx context.Context, paymentID string, year, current int) error {
	if w.deleter == nil || year == 0 || year == current {
		return nil
	}
	stale := core.StatementRow{PaymentID: paymentID, Date: core.NewDate(year, 1, 1)}
	err := w.deleter.DeleteRow(ctx, stale)
	if err != nil && !errors.Is(err, sheets.ErrRowNotFound) {
		return fmt.Errorf("remove statement row from %d: %w", year, err)
	}
	return nil
}

// HandlePaymentDelete removes the row written for a deleted payment.
func (w *StatementWorker) HandlePaymentDelete(ctx context.Context, msg *amqp.PaymentDeleteMessage) error {
	w.logger.InfoContext(ctx, "Processing delete message", applog.FieldPaymentID, msg.PaymentID)

	if w.deleter == nil {
		w.logger.WarnContext(ctx, "No statement deleter configured, skipping deletion",
			applog.FieldPaymentID, msg.PaymentID)
		return nil
	}

	row := msg.Row
	if row.PaymentID == "" {
		row.PaymentID = msg.PaymentID
	}
	err := w.deleter.DeleteRow(ctx, row)
	if errors.Is(err, sheets.ErrRowNotFound) {
		w.logger.WarnContext(ctx, "Statement row not found, nothing to delete",
			applog.FieldPaymentID, msg.PaymentID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete statement row: %w", err)
	}

	w.logger.InfoContext(ctx, "Successfully deleted statement row", applog.FieldPaymentID, msg.PaymentID)
	return nil
}

// ProcessPending syncs payments that haven't been written yet. It backs up
// the AMQP path in case messages are lost.
func (w *StatementWorker) ProcessPending(ctx context.Context) (int, error) {
	return w.processPending(ctx, w.batchSize)
}

// StartupSyncCheck runs a larger pending pass to recover from worker downtime.
func (w *StatementWorker) StartupSyncCheck(ctx context.Context) (int, error) {
	return w.processPending(ctx, w.batchSize*5)
}

func (w *StatementWorker) processPending(ctx context.Context, limit int) (int, error) {
	pending, err := w.store.ListUnsyncedPayments(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("get pending payments: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	snap, err := w.snapshots.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load snapshot: %w", err)
	}

	synced := 0
	for _, p := range pending {
		if ctx.Err() != nil {
			break
		}
		if err := w.syncPayment(ctx, p, snap); err != nil {
			w.logger.ErrorContext(ctx, "Failed to sync payment",
				applog.FieldPaymentID, p.ID, applog.FieldError, err)
			continue
		}
		synced++
	}

	w.logger.InfoContext(ctx, "Pending payments processed",
		applog.FieldOperation, applog.OpSync,
		"total", len(pending),
		"synced", synced)
	return synced, nil
}

// syncPayment replaces any earlier row for the payment, then marks it synced.
func (w *StatementWorker) syncPayment(ctx context.Context, p core.Payment, snap core.Snapshot) error {
	row := finance.StatementRow(p, snap)

	if w.deleter != nil {
		if err := w.deleter.DeleteRow(ctx, row); err != nil && !errors.Is(err, sheets.ErrRowNotFound) {
			return fmt.Errorf("remove previous statement row: %w", err)
		}
	}

	ref, err := w.writer.AppendRow(ctx, row)
	if err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}

	// The row is written; a failed mark only means it is rewritten later.
	if err := w.store.MarkPaymentSynced(ctx, p.ID); err != nil {
		w.logger.ErrorContext(ctx, "Failed to mark as synced",
			applog.FieldPaymentID, p.ID, applog.FieldError, err)
	}

	w.logger.InfoContext(ctx, "Successfully synced payment",
		applog.FieldPaymentID, p.ID,
		applog.FieldSheetsRef, ref,
		applog.FieldAmount, row.Amount.String())
	return nil
}
