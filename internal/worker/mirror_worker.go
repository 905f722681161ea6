package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"despesas/internal/amqp"
	"despesas/internal/core"
	"despesas/internal/sheets"
	"despesas/internal/storage"
)

// MirrorWorker keeps the spreadsheet copy of the ledger in step with SQLite.
// AMQP events drive the hot path; the pending scan is the backup mechanism
// for events lost while the worker was down.
type MirrorWorker struct {
	storage   *storage.SQLiteRepository
	mirror    sheets.LedgerMirror
	batchSize int
}

func NewMirrorWorker(storage *storage.SQLiteRepository, mirror sheets.LedgerMirror, batchSize int) *MirrorWorker {
	return &MirrorWorker{
		storage:   storage,
		mirror:    mirror,
		batchSize: batchSize,
	}
}

// HandleLedgerEvent processes a single ledger event from AMQP.
func (w *MirrorWorker) HandleLedgerEvent(ctx context.Context, event *amqp.LedgerEvent) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"op", event.Op,
		"master_id", event.ID)

	switch event.Op {
	case amqp.OpDelete:
		if err := w.mirror.DeleteRow(ctx, event.ID); err != nil {
			return fmt.Errorf("delete mirror row: %w", err)
		}
		return nil

	case amqp.OpUpsert:
		return w.mirrorMaster(ctx, event.ID)

	default:
		return fmt.Errorf("unknown ledger event op: %q", event.Op)
	}
}

// ProcessPending mirrors masters whose latest write never produced a
// successful event.
func (w *MirrorWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.PendingMirror(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending masters: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending mirrors", "count", len(pending))

	for _, candidate := range pending {
		if err := w.mirrorMaster(ctx, candidate.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror master",
				"master_id", candidate.ID, "error", err)
		}
	}

	return nil
}

// StartupCheck drains the pending backlog with a larger batch before the
// consumer starts, recovering from worker downtime.
func (w *MirrorWorker) StartupCheck(ctx context.Context) error {
	pending, err := w.storage.PendingMirror(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending masters for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending mirrors found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending mirrors on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0
	for _, candidate := range pending {
		if err := w.mirrorMaster(ctx, candidate.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror master during startup",
				"master_id", candidate.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup mirror check completed",
		"total", len(pending),
		"mirrored", successCount,
		"errors", errorCount)

	return nil
}

func (w *MirrorWorker) mirrorMaster(ctx context.Context, id string) error {
	master, err := w.storage.Get(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted between the event and now; remove the stale row.
		slog.WarnContext(ctx, "Master vanished before mirroring, clearing row",
			"master_id", id)
		return w.mirror.DeleteRow(ctx, id)
	}
	if err != nil {
		return fmt.Errorf("get master from storage: %w", err)
	}

	if err := w.mirror.UpsertRow(ctx, master); err != nil {
		if markErr := w.storage.MarkMirrorError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark mirror error",
				"master_id", id, "error", markErr)
		}
		return fmt.Errorf("upsert mirror row: %w", err)
	}

	if err := w.storage.MarkMirrored(ctx, id); err != nil {
		// The mirror write itself worked; only the bookkeeping failed.
		slog.ErrorContext(ctx, "Failed to mark as mirrored",
			"master_id", id, "error", err)
	}

	slog.InfoContext(ctx, "Mirrored master transaction",
		"master_id", id,
		"description", master.Description,
		"amount_cents", master.Amount.Cents())

	return nil
}
