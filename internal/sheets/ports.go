// Package sheets defines the spreadsheet mirror of the transaction table.
package sheets

import (
	"context"

	"ledger/internal/core"
)

// Header is the first row of the mirrored sheet.
var Header = []string{"ID", "Date", "Category", "Amount", "Note"}

// Mirror keeps a copy of the transaction table outside the database.
// Rows are keyed by transaction id.
type Mirror interface {
	// Upsert writes t, replacing the row with the same id if present.
	Upsert(ctx context.Context, t core.Transaction) error
	// Remove deletes the row for id. A missing row is not an error.
	Remove(ctx context.Context, id int64) error
	// ReplaceAll rewrites the whole mirror with txs.
	ReplaceAll(ctx context.Context, txs []core.Transaction) error
}
