// Package sheets mirrors transactions into an external ledger spreadsheet.
package sheets

import (
	"context"

	"wisetogether/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerExporter keeps one row per transaction in an external ledger.
	LedgerExporter interface {
		// UpsertTransaction writes the row for tx, replacing an existing row
		// with the same transaction id. It returns a reference to the row.
		UpsertTransaction(ctx context.Context, tx core.Transaction) (rowRef string, err error)
		// RemoveTransaction clears the row for id, if present.
		RemoveTransaction(ctx context.Context, id string) error
	}
)
