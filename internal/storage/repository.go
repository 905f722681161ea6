package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"despesas/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// CASCADE on paid_occurrences depends on this
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const masterColumns = `id, description, category, type, frequency, amount_cents,
	anchor_date, end_date, total_amount_cents, total_installments,
	installment_group_id, status`

// LoadAll returns every master in insertion order, with paid months attached.
func (r *SQLiteRepository) LoadAll(ctx context.Context) ([]core.MasterTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+masterColumns+` FROM master_transactions ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query masters: %w", err)
	}
	defer rows.Close()

	var masters []core.MasterTransaction
	index := make(map[string]int)
	for rows.Next() {
		m, err := scanMaster(rows)
		if err != nil {
			return nil, err
		}
		index[m.ID] = len(masters)
		masters = append(masters, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate masters: %w", err)
	}

	paidRows, err := r.db.QueryContext(ctx,
		`SELECT master_id, month_key FROM paid_occurrences`)
	if err != nil {
		return nil, fmt.Errorf("query paid occurrences: %w", err)
	}
	defer paidRows.Close()

	for paidRows.Next() {
		var masterID, monthKey string
		if err := paidRows.Scan(&masterID, &monthKey); err != nil {
			return nil, fmt.Errorf("scan paid occurrence: %w", err)
		}
		i, ok := index[masterID]
		if !ok {
			continue
		}
		if masters[i].PaidOccurrences == nil {
			masters[i].PaidOccurrences = make(map[string]struct{})
		}
		masters[i].PaidOccurrences[monthKey] = struct{}{}
	}
	if err := paidRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate paid occurrences: %w", err)
	}

	return masters, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.MasterTransaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+masterColumns+` FROM master_transactions WHERE id = ?`, id)

	m, err := scanMaster(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.MasterTransaction{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	if err != nil {
		return core.MasterTransaction{}, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT month_key FROM paid_occurrences WHERE master_id = ?`, id)
	if err != nil {
		return core.MasterTransaction{}, fmt.Errorf("query paid occurrences: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var monthKey string
		if err := rows.Scan(&monthKey); err != nil {
			return core.MasterTransaction{}, fmt.Errorf("scan paid occurrence: %w", err)
		}
		if m.PaidOccurrences == nil {
			m.PaidOccurrences = make(map[string]struct{})
		}
		m.PaidOccurrences[monthKey] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return core.MasterTransaction{}, fmt.Errorf("iterate paid occurrences: %w", err)
	}

	return m, nil
}

func (r *SQLiteRepository) Upsert(ctx context.Context, m core.MasterTransaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := upsertInTx(ctx, tx, m); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}

	slog.InfoContext(ctx, "Master transaction saved",
		"master_id", m.ID,
		"frequency", m.Frequency,
		"amount_cents", m.Amount.Cents())
	return nil
}

func (r *SQLiteRepository) UpsertMany(ctx context.Context, masters []core.MasterTransaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, m := range masters {
		if err := upsertInTx(ctx, tx, m); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert many: %w", err)
	}
	return nil
}

func upsertInTx(ctx context.Context, tx *sql.Tx, m core.MasterTransaction) error {
	// The status column carries a CHECK constraint; monthly records written
	// outside the create flow may arrive with the zero status.
	status := m.Status
	if status == "" {
		status = core.StatusPending
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO master_transactions (
			id, description, category, type, frequency, amount_cents,
			anchor_date, end_date, total_amount_cents, total_installments,
			installment_group_id, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			description = excluded.description,
			category = excluded.category,
			type = excluded.type,
			frequency = excluded.frequency,
			amount_cents = excluded.amount_cents,
			anchor_date = excluded.anchor_date,
			end_date = excluded.end_date,
			total_amount_cents = excluded.total_amount_cents,
			total_installments = excluded.total_installments,
			installment_group_id = excluded.installment_group_id,
			status = excluded.status,
			mirror_status = 'pending',
			updated_at = CURRENT_TIMESTAMP`,
		m.ID, m.Description, m.Category, string(m.Type), string(m.Frequency),
		m.Amount.Cents(), m.AnchorDate.String(), nullString(m.EndDate.String()),
		m.TotalAmount.Cents(), m.TotalInstallments,
		nullString(m.InstallmentGroupID), string(status))
	if err != nil {
		return fmt.Errorf("upsert master %s: %w", m.ID, err)
	}

	// Paid months are replaced wholesale so the row set mirrors the record.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM paid_occurrences WHERE master_id = ?`, m.ID); err != nil {
		return fmt.Errorf("clear paid occurrences for %s: %w", m.ID, err)
	}
	for monthKey := range m.PaidOccurrences {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO paid_occurrences (master_id, month_key) VALUES (?, ?)`,
			m.ID, monthKey); err != nil {
			return fmt.Errorf("insert paid occurrence %s/%s: %w", m.ID, monthKey, err)
		}
	}

	return nil
}

// MarkPaid records payment for the occurrence falling on the given date.
// Monthly masters get a paid month row; everything else flips the status.
func (r *SQLiteRepository) MarkPaid(ctx context.Context, id string, occurrence core.Date) error {
	var frequency string
	err := r.db.QueryRowContext(ctx,
		`SELECT frequency FROM master_transactions WHERE id = ?`, id).Scan(&frequency)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("lookup master %s: %w", id, err)
	}

	if core.Frequency(frequency) == core.Monthly {
		_, err = r.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO paid_occurrences (master_id, month_key) VALUES (?, ?)`,
			id, core.MonthKey(occurrence))
		if err != nil {
			return fmt.Errorf("insert paid occurrence: %w", err)
		}
	} else {
		_, err = r.db.ExecContext(ctx,
			`UPDATE master_transactions SET status = 'paid' WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE master_transactions
		SET mirror_status = 'pending', updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("reset mirror status: %w", err)
	}

	slog.InfoContext(ctx, "Occurrence marked paid",
		"master_id", id,
		"month_key", core.MonthKey(occurrence))
	return nil
}

func (r *SQLiteRepository) DeleteOne(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM master_transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete master %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	return nil
}

func (r *SQLiteRepository) DeleteGroup(ctx context.Context, groupID string) ([]string, error) {
	if groupID == "" {
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM master_transactions WHERE installment_group_id = ? ORDER BY rowid`,
		groupID)
	if err != nil {
		return nil, fmt.Errorf("query group %s: %w", groupID, err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan group member: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate group members: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM master_transactions WHERE installment_group_id = ?`, groupID); err != nil {
		return nil, fmt.Errorf("delete group %s: %w", groupID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit group delete: %w", err)
	}

	slog.InfoContext(ctx, "Installment group deleted",
		"group_id", groupID,
		"removed", len(ids))
	return ids, nil
}

func (r *SQLiteRepository) ReplaceAll(ctx context.Context, masters []core.MasterTransaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM master_transactions`); err != nil {
		return fmt.Errorf("clear masters: %w", err)
	}

	for _, m := range masters {
		if err := upsertInTx(ctx, tx, m); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace all: %w", err)
	}

	slog.InfoContext(ctx, "Replaced all master transactions", "count", len(masters))
	return nil
}

// MirrorCandidate identifies a master awaiting a sheet mirror pass.
type MirrorCandidate struct {
	ID        string
	UpdatedAt time.Time
}

// PendingMirror returns masters whose latest write has not reached the sheet.
func (r *SQLiteRepository) PendingMirror(ctx context.Context, limit int) ([]MirrorCandidate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, updated_at FROM master_transactions
		WHERE mirror_status = 'pending'
		ORDER BY updated_at
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending mirrors: %w", err)
	}
	defer rows.Close()

	var candidates []MirrorCandidate
	for rows.Next() {
		var c MirrorCandidate
		if err := rows.Scan(&c.ID, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan pending mirror: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending mirrors: %w", err)
	}
	return candidates, nil
}

// MarkMirrored marks a master as successfully mirrored to the sheet.
func (r *SQLiteRepository) MarkMirrored(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE master_transactions SET mirror_status = 'mirrored' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark mirrored: %w", err)
	}
	slog.InfoContext(ctx, "Master marked as mirrored", "master_id", id)
	return nil
}

// MarkMirrorError marks a master as having failed its mirror attempt.
func (r *SQLiteRepository) MarkMirrorError(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE master_transactions SET mirror_status = 'error' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark mirror error: %w", err)
	}
	slog.WarnContext(ctx, "Master marked with mirror error", "master_id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMaster(row rowScanner) (core.MasterTransaction, error) {
	var (
		endDate          sql.NullString
		groupID          sql.NullString
		out              core.MasterTransaction
		amountCents      int64
		totalAmountCents int64
		typ, freq, stat  string
		anchor           string
	)
	err := row.Scan(&out.ID, &out.Description, &out.Category, &typ, &freq,
		&amountCents, &anchor, &endDate, &totalAmountCents,
		&out.TotalInstallments, &groupID, &stat)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.MasterTransaction{}, err
		}
		return core.MasterTransaction{}, fmt.Errorf("scan master: %w", err)
	}

	out.Type = core.TransactionType(typ)
	out.Frequency = core.Frequency(freq)
	out.Status = core.PaymentStatus(stat)
	out.Amount = core.MoneyFromCents(amountCents)
	out.TotalAmount = core.MoneyFromCents(totalAmountCents)
	if groupID.Valid {
		out.InstallmentGroupID = groupID.String
	}

	out.AnchorDate, err = core.ParseDate(anchor)
	if err != nil {
		return core.MasterTransaction{}, fmt.Errorf("master %s: %w", out.ID, err)
	}
	if endDate.Valid && endDate.String != "" {
		out.EndDate, err = core.ParseDate(endDate.String)
		if err != nil {
			return core.MasterTransaction{}, fmt.Errorf("master %s: %w", out.ID, err)
		}
	}

	return out, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
