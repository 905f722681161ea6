package services

import (
	"context"

	"despesas/internal/core"
)

// Repository is the persistence contract shared by the in-memory and SQLite backends.
// Implementations return copies; callers may mutate the results freely.
type Repository interface {
	// LoadAll returns every master transaction in insertion order.
	LoadAll(ctx context.Context) ([]core.MasterTransaction, error)

	// Get returns the master with the given id, or core.ErrNotFound.
	Get(ctx context.Context, id string) (core.MasterTransaction, error)

	// Upsert inserts or fully replaces a master transaction.
	Upsert(ctx context.Context, m core.MasterTransaction) error

	// UpsertMany applies Upsert to each master atomically.
	UpsertMany(ctx context.Context, masters []core.MasterTransaction) error

	// MarkPaid marks the occurrence of the master falling on the given date as paid.
	// For monthly masters this records the occurrence month; everything else flips
	// the master status.
	MarkPaid(ctx context.Context, id string, occurrence core.Date) error

	// DeleteOne removes a single master, or returns core.ErrNotFound.
	DeleteOne(ctx context.Context, id string) error

	// DeleteGroup removes every master sharing the installment group id and
	// returns the ids that were removed.
	DeleteGroup(ctx context.Context, groupID string) ([]string, error)

	// ReplaceAll wipes the store and installs the given masters.
	ReplaceAll(ctx context.Context, masters []core.MasterTransaction) error

	Close() error
}
