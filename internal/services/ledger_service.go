package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"despesas/internal/amqp"
	"despesas/internal/core"
)

// MonthView is the full projection of one month: the resolved occurrences
// plus their aggregate summary.
type MonthView struct {
	Month       core.MonthRef     `json:"month"`
	Occurrences []core.Occurrence `json:"occurrences"`
	Summary     Summary           `json:"summary"`
}

// LedgerService orchestrates master transaction mutations and month
// projections across the repository and AMQP.
type LedgerService struct {
	repo       Repository
	amqpClient *amqp.Client
	now        func() time.Time
}

func NewLedgerService(repo Repository, amqpClient *amqp.Client) *LedgerService {
	return &LedgerService{
		repo:       repo,
		amqpClient: amqpClient,
		now:        time.Now,
	}
}

// Month projects all masters into the target month, resolves statuses against
// today and aggregates the summary. The summary always covers the whole month;
// the type filter narrows only the returned occurrence list.
func (s *LedgerService) Month(ctx context.Context, year, month int, filter core.TransactionType) (MonthView, error) {
	target := core.NewMonthRef(year, month)
	if err := target.Validate(); err != nil {
		return MonthView{}, err
	}
	if filter != "" && filter != core.TypeIncome && filter != core.TypeExpense {
		return MonthView{}, fmt.Errorf("%w: %q", core.ErrInvalidType, filter)
	}

	masters, err := s.repo.LoadAll(ctx)
	if err != nil {
		return MonthView{}, fmt.Errorf("load masters: %w", err)
	}

	occurrences, err := MonthOccurrences(ctx, masters, target)
	if err != nil {
		return MonthView{}, err
	}

	n := s.now().UTC()
	today := core.NewDate(n.Year(), int(n.Month()), n.Day())
	resolved := ResolveStatuses(occurrences, today)

	return MonthView{
		Month:       target,
		Occurrences: FilterByType(resolved, filter),
		Summary:     Summarize(resolved),
	}, nil
}

// Create mints ids for a new master, validates it and persists it.
func (s *LedgerService) Create(ctx context.Context, m core.MasterTransaction) (core.MasterTransaction, error) {
	if strings.TrimSpace(m.ID) == "" {
		m.ID = uuid.NewString()
	}
	if m.Frequency == core.Installment && m.InstallmentGroupID == "" {
		m.InstallmentGroupID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = core.StatusPending
	}

	if err := m.Validate(); err != nil {
		return core.MasterTransaction{}, err
	}
	if integrityErr := m.CheckIntegrity(); integrityErr != nil {
		return core.MasterTransaction{}, integrityErr
	}

	if err := s.repo.Upsert(ctx, m); err != nil {
		return core.MasterTransaction{}, fmt.Errorf("save master: %w", err)
	}

	s.publishUpsert(ctx, m.ID)
	return m, nil
}

// Update replaces an existing master. The edit payload carries neither
// payment state nor group id, so status, paid occurrence history, and the
// installment group id are inherited from the stored record unless the caller
// supplies its own. A frequency change drops the old payment state instead.
func (s *LedgerService) Update(ctx context.Context, m core.MasterTransaction) (core.MasterTransaction, error) {
	existing, err := s.repo.Get(ctx, m.ID)
	if err != nil {
		return core.MasterTransaction{}, err
	}
	if m.PaidOccurrences == nil && m.Frequency == existing.Frequency {
		m.PaidOccurrences = existing.PaidOccurrences
	}
	if m.Status == "" {
		if m.Frequency == existing.Frequency {
			m.Status = existing.Status
		} else {
			m.Status = core.StatusPending
		}
	}
	if m.Frequency == core.Installment && m.InstallmentGroupID == "" {
		if existing.Frequency == core.Installment {
			m.InstallmentGroupID = existing.InstallmentGroupID
		} else {
			m.InstallmentGroupID = uuid.NewString()
		}
	}

	if err := m.Validate(); err != nil {
		return core.MasterTransaction{}, err
	}
	if integrityErr := m.CheckIntegrity(); integrityErr != nil {
		return core.MasterTransaction{}, integrityErr
	}

	if err := s.repo.Upsert(ctx, m); err != nil {
		return core.MasterTransaction{}, fmt.Errorf("update master: %w", err)
	}

	s.publishUpsert(ctx, m.ID)
	return m, nil
}

// MarkPaid marks the occurrence of a master falling on the given date as paid.
func (s *LedgerService) MarkPaid(ctx context.Context, id string, occurrence core.Date) error {
	if err := s.repo.MarkPaid(ctx, id, occurrence); err != nil {
		return err
	}
	s.publishUpsert(ctx, id)
	return nil
}

// Delete removes a single master transaction.
func (s *LedgerService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteOne(ctx, id); err != nil {
		return err
	}
	s.publishDelete(ctx, id)
	return nil
}

// DeleteGroup removes every master sharing an installment group id.
func (s *LedgerService) DeleteGroup(ctx context.Context, groupID string) (int, error) {
	ids, err := s.repo.DeleteGroup(ctx, groupID)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		s.publishDelete(ctx, id)
	}
	return len(ids), nil
}

func (s *LedgerService) publishUpsert(ctx context.Context, id string) {
	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishUpsert(ctx, id); err != nil {
		// Local write already succeeded; the worker catch-up scan covers the gap.
		slog.ErrorContext(ctx, "Failed to publish upsert event", "master_id", id, "error", err)
	}
}

func (s *LedgerService) publishDelete(ctx context.Context, id string) {
	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishDelete(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete event", "master_id", id, "error", err)
	}
}

// Close closes the repository and the AMQP connection.
func (s *LedgerService) Close() error {
	var errs []error

	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("repository: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	return errors.Join(errs...)
}
