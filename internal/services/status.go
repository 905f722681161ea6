package services

import "despesas/internal/core"

// ResolveStatuses derives the display status of each occurrence against the
// given reference date. Overdue is never stored: a pending expense dated
// strictly before today becomes overdue, and income is always considered paid.
func ResolveStatuses(occurrences []core.Occurrence, today core.Date) []core.Occurrence {
	resolved := make([]core.Occurrence, len(occurrences))
	for i, occ := range occurrences {
		if occ.Type == core.TypeIncome {
			occ.Status = core.StatusPaid
		} else if occ.Status == core.StatusPending && occ.Date.Before(today) {
			occ.Status = core.StatusOverdue
		}
		resolved[i] = occ
	}
	return resolved
}
