package services

import (
	"context"
	"log/slog"
	"sort"

	"despesas/internal/core"
)

// MonthOccurrences expands master transactions into the dated occurrences that
// fall inside the target month. Masters that fail the integrity check are
// skipped with a warning rather than poisoning the whole projection.
func MonthOccurrences(ctx context.Context, masters []core.MasterTransaction, month core.MonthRef) ([]core.Occurrence, error) {
	if err := month.Validate(); err != nil {
		return nil, err
	}

	occurrences := make([]core.Occurrence, 0, len(masters))
	for _, m := range masters {
		if integrityErr := m.CheckIntegrity(); integrityErr != nil {
			slog.WarnContext(ctx, "Skipping inconsistent master transaction",
				"master_id", integrityErr.MasterID,
				"reason", integrityErr.Reason)
			continue
		}

		occ, ok := expand(m, month)
		if !ok {
			continue
		}
		occurrences = append(occurrences, occ)
	}

	// Stable sort keeps the stored order for occurrences sharing a date.
	sort.SliceStable(occurrences, func(i, j int) bool {
		return occurrences[i].Date.Before(occurrences[j].Date)
	})

	return occurrences, nil
}

// expand produces the single occurrence of a master inside the target month,
// if any. A master yields at most one occurrence per month.
func expand(m core.MasterTransaction, month core.MonthRef) (core.Occurrence, bool) {
	switch m.Frequency {
	case core.Once:
		if !month.Contains(m.AnchorDate) {
			return core.Occurrence{}, false
		}
		occ := baseOccurrence(m, month)
		occ.Date = m.AnchorDate
		occ.Status = m.Status
		return occ, true

	case core.Monthly:
		anchor := core.MonthOf(m.AnchorDate)
		if core.MonthsBetween(anchor, month) < 0 {
			return core.Occurrence{}, false // not started yet
		}
		if !m.EndDate.IsEmpty() && core.MonthsBetween(core.MonthOf(m.EndDate), month) > 0 {
			return core.Occurrence{}, false // already ended
		}
		occ := baseOccurrence(m, month)
		occ.Date = month.DateAtDay(m.AnchorDate.Day())
		if m.PaidFor(month.Key()) {
			occ.Status = core.StatusPaid
		} else {
			occ.Status = core.StatusPending
		}
		return occ, true

	case core.Installment:
		n := core.MonthsBetween(core.MonthOf(m.AnchorDate), month)
		if n < 0 || n >= m.TotalInstallments {
			return core.Occurrence{}, false
		}
		occ := baseOccurrence(m, month)
		occ.Date = month.DateAtDay(m.AnchorDate.Day())
		occ.Status = m.Status
		occ.CurrentInstallment = n + 1
		occ.TotalInstallments = m.TotalInstallments
		occ.TotalAmount = m.TotalAmount
		occ.InstallmentGroupID = m.InstallmentGroupID
		return occ, true

	default:
		return core.Occurrence{}, false
	}
}

func baseOccurrence(m core.MasterTransaction, month core.MonthRef) core.Occurrence {
	return core.Occurrence{
		ID:          core.OccurrenceID(m.ID, month),
		MasterID:    m.ID,
		Description: m.Description,
		Category:    m.Category,
		Type:        m.Type,
		Frequency:   m.Frequency,
		Amount:      m.Amount,
	}
}
