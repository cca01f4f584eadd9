package services

import (
	"context"
	"fmt"
	"log/slog"

	"treasury/internal/amqp"
	"treasury/internal/core"
	"treasury/internal/storage"
)

// Session identifies who performs an action. It is passed explicitly to
// every mutating operation; there is no ambient current-user state.
type Session struct {
	Username string
	Role     string
}

// LedgerService orchestrates ledger mutations across SQLite, the audit log
// and the backup event queue.
type LedgerService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewLedgerService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *LedgerService {
	return &LedgerService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// CreateTransaction validates and saves a ledger record, requiring the
// category to be in the active set at entry time. Later renames or removals
// of that category never touch the stored record.
func (s *LedgerService) CreateTransaction(ctx context.Context, sess Session, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	ok, err := s.storage.HasCategory(ctx, t.Kind, t.Category)
	if err != nil {
		return 0, fmt.Errorf("check category: %w", err)
	}
	if !ok {
		return 0, fmt.Errorf("%w: %q not in active set", core.ErrEmptyCategory, t.Category)
	}

	id, err := s.storage.CreateTransaction(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("save transaction: %w", err)
	}

	s.audit(ctx, sess, "transaction.create", fmt.Sprintf("%s #%d %s", t.Kind, id, t.Amount))
	s.publishEvent(ctx, id, t.Kind, false)
	return id, nil
}

// UpdateTransaction rewrites a record. Edits after a receipt was issued are
// allowed and not tracked beyond the audit entry.
func (s *LedgerService) UpdateTransaction(ctx context.Context, sess Session, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := s.storage.UpdateTransaction(ctx, t); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	s.audit(ctx, sess, "transaction.update", fmt.Sprintf("%s #%d", t.Kind, t.ID))
	s.publishEvent(ctx, t.ID, t.Kind, false)
	return nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, sess Session, kind core.Kind, id int64) error {
	if err := s.storage.DeleteTransaction(ctx, kind, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.audit(ctx, sess, "transaction.delete", fmt.Sprintf("%s #%d", kind, id))
	s.publishEvent(ctx, id, kind, true)
	return nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, kind core.Kind, id int64) (core.Transaction, error) {
	return s.storage.GetTransaction(ctx, kind, id)
}

// ListTransactions snapshots one ledger for browsing or aggregation.
func (s *LedgerService) ListTransactions(ctx context.Context, kind core.Kind, rng storage.DateRange) ([]core.Transaction, error) {
	return s.storage.ListTransactions(ctx, kind, rng)
}

// RestoreBackup replaces both ledgers with the given records. Categories are
// restored as historical labels without checking the active set; the backup
// may predate renames and removals.
func (s *LedgerService) RestoreBackup(ctx context.Context, sess Session, incomes, expenses []core.Transaction) error {
	for _, t := range append(append([]core.Transaction{}, incomes...), expenses...) {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("invalid backup record (%s %s): %w", t.Kind, t.Date, err)
		}
	}

	if err := s.storage.ClearTransactions(ctx); err != nil {
		return err
	}
	for _, t := range incomes {
		if _, err := s.storage.CreateTransaction(ctx, t); err != nil {
			return fmt.Errorf("restore income: %w", err)
		}
	}
	for _, t := range expenses {
		if _, err := s.storage.CreateTransaction(ctx, t); err != nil {
			return fmt.Errorf("restore expense: %w", err)
		}
	}

	s.audit(ctx, sess, "backup.restore",
		fmt.Sprintf("%d incomes, %d expenses", len(incomes), len(expenses)))
	return nil
}

func (s *LedgerService) audit(ctx context.Context, sess Session, action, details string) {
	if err := s.storage.AppendAudit(ctx, sess.Username, action, details); err != nil {
		// The mutation already happened; a failed audit write must not
		// undo it, but it is worth shouting about.
		slog.ErrorContext(ctx, "Failed to write audit entry",
			"action", action, "username", sess.Username, "error", err)
	}
}

func (s *LedgerService) publishEvent(ctx context.Context, id int64, kind core.Kind, deleted bool) {
	if s.amqpClient == nil {
		slog.DebugContext(ctx, "AMQP client not configured, skipping ledger event")
		return
	}
	if err := s.amqpClient.PublishLedgerEvent(ctx, id, kind, deleted); err != nil {
		// Don't fail the request, the record is saved locally.
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"id", id, "kind", kind, "error", err)
	}
}

// Close closes storage and the AMQP connection.
func (s *LedgerService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}

	return nil
}
