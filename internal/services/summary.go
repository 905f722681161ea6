package services

import "despesas/internal/core"

// Summary holds the aggregate figures for one month of occurrences.
type Summary struct {
	Income          core.Money `json:"income"`
	PaidExpenses    core.Money `json:"paidExpenses"`
	PendingExpenses core.Money `json:"pendingExpenses"`
	Balance         core.Money `json:"balance"`
}

// Summarize aggregates resolved occurrences into monthly totals. Overdue
// expenses count toward the pending bucket. Amounts are taken as absolute
// values so stored signs cannot flip the totals.
func Summarize(occurrences []core.Occurrence) Summary {
	var s Summary
	for _, occ := range occurrences {
		amount := occ.Amount.Abs()
		switch {
		case occ.Type == core.TypeIncome:
			s.Income = s.Income.Add(amount)
		case occ.Status == core.StatusPaid:
			s.PaidExpenses = s.PaidExpenses.Add(amount)
		default:
			s.PendingExpenses = s.PendingExpenses.Add(amount)
		}
	}
	s.Balance = s.Income.Sub(s.PaidExpenses.Add(s.PendingExpenses))
	return s
}

// FilterByType keeps only occurrences of the given type. An empty filter
// returns the input unchanged.
func FilterByType(occurrences []core.Occurrence, t core.TransactionType) []core.Occurrence {
	if t == "" {
		return occurrences
	}
	filtered := make([]core.Occurrence, 0, len(occurrences))
	for _, occ := range occurrences {
		if occ.Type == t {
			filtered = append(filtered, occ)
		}
	}
	return filtered
}
