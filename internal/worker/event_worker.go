// Package worker processes transaction change events off the message bus.
package worker

import (
	"context"
	"errors"
	"fmt"

	"wisetogether/internal/aggregate"
	"wisetogether/internal/amqp"
	"wisetogether/internal/core"
	"wisetogether/internal/log"
	"wisetogether/internal/sheets"
	"wisetogether/internal/store"
)

// EventWorker audits changed transactions and mirrors them to the ledger.
type EventWorker struct {
	txs      store.TransactionStore
	accounts store.SharedAccountStore
	ledger   sheets.LedgerExporter
	logger   *log.Logger
	audit    *log.StructuredLogger
}

// NewEventWorker builds a worker. ledger may be nil, in which case events
// are only audited.
func NewEventWorker(txs store.TransactionStore, accounts store.SharedAccountStore, ledger sheets.LedgerExporter, logger *log.Logger) *EventWorker {
	logger = logger.WithComponent(log.ComponentWorker)
	return &EventWorker{
		txs:      txs,
		accounts: accounts,
		ledger:   ledger,
		logger:   logger,
		audit:    log.NewStructuredLogger(logger),
	}
}

// HandleEvent processes one event. A returned error asks for redelivery.
func (w *EventWorker) HandleEvent(ctx context.Context, evt *amqp.TransactionEvent) error {
	w.logger.InfoContext(ctx, "Processing transaction event",
		"type", string(evt.Type),
		log.FieldTransactionID, evt.TransactionID,
		log.FieldVersion, evt.Version)

	switch evt.Type {
	case amqp.EventDeleted:
		return w.handleDelete(ctx, evt)
	case amqp.EventCreated, amqp.EventUpdated:
		return w.handleChange(ctx, evt)
	}
	w.logger.WarnContext(ctx, "Ignoring unknown event type", "type", string(evt.Type))
	return nil
}

func (w *EventWorker) handleChange(ctx context.Context, evt *amqp.TransactionEvent) error {
	tx, err := w.txs.GetTransaction(ctx, evt.TransactionID)
	if errors.Is(err, store.ErrNotFound) {
		w.logger.InfoContext(ctx, "Transaction no longer exists, skipping",
			log.FieldTransactionID, evt.TransactionID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}
	if tx.Version > evt.Version {
		w.logger.DebugContext(ctx, "Event is older than stored transaction, exporting current state",
			log.FieldTransactionID, tx.ID,
			"event_version", evt.Version,
			log.FieldVersion, tx.Version)
	}

	for _, a := range aggregate.Anomalies([]core.Transaction{tx}, w.accountOf(ctx, tx)) {
		w.audit.LogAnomaly(ctx, a.TransactionID, a.Err)
	}

	if w.ledger == nil {
		return nil
	}
	ref, err := w.ledger.UpsertTransaction(ctx, tx)
	if err != nil {
		return fmt.Errorf("export transaction: %w", err)
	}
	w.logger.InfoContext(ctx, "Transaction exported to ledger",
		log.FieldTransactionID, tx.ID,
		log.FieldOperation, log.OpExport,
		"row", ref)
	return nil
}

func (w *EventWorker) handleDelete(ctx context.Context, evt *amqp.TransactionEvent) error {
	if w.ledger == nil {
		w.logger.InfoContext(ctx, "Transaction deleted", log.FieldTransactionID, evt.TransactionID)
		return nil
	}
	if err := w.ledger.RemoveTransaction(ctx, evt.TransactionID); err != nil {
		return fmt.Errorf("remove transaction from ledger: %w", err)
	}
	w.logger.InfoContext(ctx, "Transaction removed from ledger",
		log.FieldTransactionID, evt.TransactionID,
		log.FieldOperation, log.OpDelete)
	return nil
}

// accountOf returns the owner's account if it is the one tx belongs to.
// Lookup failures only weaken the audit, so they are logged and ignored.
func (w *EventWorker) accountOf(ctx context.Context, tx core.Transaction) *core.SharedAccount {
	if !tx.IsShared() || w.accounts == nil {
		return nil
	}
	acc, err := w.accounts.FindSharedAccountByMember(ctx, tx.OwnerID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			w.logger.WarnContext(ctx, "Shared account lookup failed",
				log.NewFields().WithMember(tx.OwnerID).WithError(err, log.ErrorTypeDatabase).ToSlice()...)
		}
		return nil
	}
	if acc.ID != tx.SharedAccountID {
		return &core.SharedAccount{ID: tx.SharedAccountID}
	}
	return &acc
}
