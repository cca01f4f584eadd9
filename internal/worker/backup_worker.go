// Package worker maintains an xlsx backup snapshot of the ledgers. It reacts
// to ledger-change events from AMQP and sweeps for rows the events missed.
package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"treasury/internal/amqp"
	"treasury/internal/core"
	"treasury/internal/export"
	"treasury/internal/log"
	"treasury/internal/storage"
)

const snapshotName = "treasury-backup.xlsx"

// BackupWorker rewrites the backup snapshot whenever the ledgers change and
// marks the covered rows as synced.
type BackupWorker struct {
	storage   *storage.SQLiteRepository
	backupDir string
	batchSize int
	logger    *log.Logger
}

func NewBackupWorker(storage *storage.SQLiteRepository, backupDir string, batchSize int) *BackupWorker {
	return &BackupWorker{
		storage:   storage,
		backupDir: backupDir,
		batchSize: batchSize,
		logger:    log.New(log.Config{Component: log.ComponentWorker}),
	}
}

// SnapshotPath is where the current backup file lives.
func (w *BackupWorker) SnapshotPath() string {
	return filepath.Join(w.backupDir, snapshotName)
}

// HandleLedgerEvent processes a single ledger-change message from AMQP. The
// snapshot is a full dump, so any event triggers a rewrite covering every
// pending row at once.
func (w *BackupWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	w.logger.InfoContext(ctx, "Processing ledger event",
		"id", msg.ID,
		log.FieldKind, msg.Kind,
		"deleted", msg.Deleted)

	if err := w.writeSnapshot(ctx); err != nil {
		return fmt.Errorf("write backup snapshot: %w", err)
	}
	return w.markPendingSynced(ctx, w.batchSize)
}

// ProcessPending is the backup mechanism for lost AMQP messages: if any rows
// are still unsynced, rewrite the snapshot and mark them.
func (w *BackupWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.GetPendingSyncTransactions(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	w.logger.InfoContext(ctx, "Processing pending transactions", log.FieldOperation, log.OpSync, "count", len(pending))

	if err := w.writeSnapshot(ctx); err != nil {
		return fmt.Errorf("write backup snapshot: %w", err)
	}
	for _, p := range pending {
		if err := w.storage.MarkSynced(ctx, p.ID); err != nil {
			w.logger.ErrorContext(ctx, "Failed to mark transaction synced", "id", p.ID, log.FieldError, err)
		}
	}
	return nil
}

// StartupCheck recovers from missed messages or worker downtime by running a
// larger sweep once at boot.
func (w *BackupWorker) StartupCheck(ctx context.Context) error {
	pending, err := w.storage.GetPendingSyncTransactions(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending transactions for startup check: %w", err)
	}
	if len(pending) == 0 {
		w.logger.InfoContext(ctx, "No pending transactions found on startup")
		return nil
	}

	w.logger.InfoContext(ctx, "Found pending transactions on startup, rewriting snapshot",
		log.FieldOperation, log.OpStartup, "count", len(pending))

	if err := w.writeSnapshot(ctx); err != nil {
		return fmt.Errorf("write backup snapshot: %w", err)
	}
	for _, p := range pending {
		if err := w.storage.MarkSynced(ctx, p.ID); err != nil {
			w.logger.ErrorContext(ctx, "Failed to mark transaction synced", "id", p.ID, log.FieldError, err)
		}
	}
	return nil
}

// writeSnapshot dumps both ledgers into a fresh xlsx file, replacing the
// previous snapshot atomically via rename.
func (w *BackupWorker) writeSnapshot(ctx context.Context) error {
	if err := os.MkdirAll(w.backupDir, 0755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}

	incomes, err := w.storage.ListTransactions(ctx, core.KindIncome, storage.DateRange{})
	if err != nil {
		return fmt.Errorf("list incomes: %w", err)
	}
	expenses, err := w.storage.ListTransactions(ctx, core.KindExpense, storage.DateRange{})
	if err != nil {
		return fmt.Errorf("list expenses: %w", err)
	}

	period := "backup " + time.Now().UTC().Format("2006-01-02 15:04:05")
	tmp := w.SnapshotPath() + ".tmp"
	if err := export.SaveReport(tmp, incomes, expenses, period); err != nil {
		return err
	}
	if err := os.Rename(tmp, w.SnapshotPath()); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}

	w.logger.InfoContext(ctx, "Backup snapshot written",
		"path", w.SnapshotPath(),
		"incomes", len(incomes),
		"expenses", len(expenses))
	return nil
}

func (w *BackupWorker) markPendingSynced(ctx context.Context, limit int) error {
	pending, err := w.storage.GetPendingSyncTransactions(ctx, limit)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}
	for _, p := range pending {
		if err := w.storage.MarkSynced(ctx, p.ID); err != nil {
			w.logger.ErrorContext(ctx, "Failed to mark transaction synced", "id", p.ID, log.FieldError, err)
		}
	}
	return nil
}
