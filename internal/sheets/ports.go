// Package sheets defines the mirror ports the worker writes through.
package sheets

import (
	"context"

	"despesas/internal/core"
)

// LedgerMirror maintains a one-row-per-master copy of the ledger in an
// external sheet. Implementations are keyed by master id.
type LedgerMirror interface {
	// UpsertRow writes or replaces the row for a master.
	UpsertRow(ctx context.Context, m core.MasterTransaction) error

	// DeleteRow clears the row for a master id. Unknown ids are a no-op.
	DeleteRow(ctx context.Context, id string) error
}
