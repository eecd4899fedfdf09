// Package worker mirrors the transaction table into a spreadsheet, one change
// event at a time plus a scheduled full resync.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"ledger/internal/amqp"
	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/sheets"
)

// TransactionReader is the read side of the transaction repository.
type TransactionReader interface {
	Get(ctx context.Context, id int64) (core.Transaction, error)
	List(ctx context.Context, f core.Filter) ([]core.Transaction, error)
}

// SyncWorker applies transaction events to a sheets.Mirror.
type SyncWorker struct {
	reader TransactionReader
	mirror sheets.Mirror
	logger *applog.Logger
}

func NewSyncWorker(reader TransactionReader, mirror sheets.Mirror, logger *applog.Logger) *SyncWorker {
	if logger == nil {
		logger = applog.Discard()
	}
	return &SyncWorker{
		reader: reader,
		mirror: mirror,
		logger: logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleEvent brings the mirror row for event.TransactionID in line with the
// database. The current row is always re-read, so an update event for a
// since-deleted transaction removes the row instead of restoring it.
func (w *SyncWorker) HandleEvent(ctx context.Context, event *amqp.TransactionEvent) error {
	logger := w.logger.With(
		applog.FieldEventID, event.EventID.String(),
		applog.FieldEventKind, string(event.Kind),
		applog.FieldTransactionID, event.TransactionID,
	)

	if event.Kind == amqp.EventDeleted {
		if err := w.mirror.Remove(ctx, event.TransactionID); err != nil {
			return fmt.Errorf("remove row %d: %w", event.TransactionID, err)
		}
		logger.InfoContext(ctx, "Mirror row removed")
		return nil
	}

	t, err := w.reader.Get(ctx, event.TransactionID)
	if errors.Is(err, core.ErrNotFound) {
		if err := w.mirror.Remove(ctx, event.TransactionID); err != nil {
			return fmt.Errorf("remove stale row %d: %w", event.TransactionID, err)
		}
		logger.InfoContext(ctx, "Transaction gone, mirror row removed")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read transaction %d: %w", event.TransactionID, err)
	}

	if err := w.mirror.Upsert(ctx, t); err != nil {
		return fmt.Errorf("upsert row %d: %w", t.ID, err)
	}
	logger.InfoContext(ctx, "Mirror row written")
	return nil
}

// Resync rewrites the whole mirror from the database, ordered by id.
func (w *SyncWorker) Resync(ctx context.Context) error {
	txs, err := w.reader.List(ctx, core.Filter{})
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].ID < txs[j].ID })

	if err := w.mirror.ReplaceAll(ctx, txs); err != nil {
		return fmt.Errorf("replace mirror: %w", err)
	}
	w.logger.InfoContext(ctx, "Mirror resynced",
		applog.FieldOperation, applog.OpResync,
		applog.FieldRows, len(txs))
	return nil
}
