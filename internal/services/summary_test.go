package services

import (
	"testing"

	"despesas/internal/core"
)

func TestSummarize(t *testing.T) {
	occurrences := []core.Occurrence{
		occ(core.TypeIncome, core.StatusPaid, core.NewDate(2025, 6, 1)),   // 10.00
		occ(core.TypeExpense, core.StatusPaid, core.NewDate(2025, 6, 5)),  // 10.00
		occ(core.TypeExpense, core.StatusPending, core.NewDate(2025, 6, 20)), // 10.00
		occ(core.TypeExpense, core.StatusOverdue, core.NewDate(2025, 6, 2)),  // 10.00, counts as pending
	}
	occurrences[0].Amount = core.MoneyFromCents(250000)

	s := Summarize(occurrences)

	if got := s.Income.Cents(); got != 250000 {
		t.Errorf("Income = %d, want 250000", got)
	}
	if got := s.PaidExpenses.Cents(); got != 1000 {
		t.Errorf("PaidExpenses = %d, want 1000", got)
	}
	if got := s.PendingExpenses.Cents(); got != 2000 {
		t.Errorf("PendingExpenses = %d, want 2000", got)
	}
	// balance = income - (paid + pending)
	if got := s.Balance.Cents(); got != 247000 {
		t.Errorf("Balance = %d, want 247000", got)
	}
}

func TestSummarizeUsesAbsoluteAmounts(t *testing.T) {
	negative := occ(core.TypeExpense, core.StatusPaid, core.NewDate(2025, 6, 1))
	negative.Amount = core.MoneyFromCents(-5000)

	s := Summarize([]core.Occurrence{negative})
	if got := s.PaidExpenses.Cents(); got != 5000 {
		t.Errorf("PaidExpenses = %d, want 5000", got)
	}
	if got := s.Balance.Cents(); got != -5000 {
		t.Errorf("Balance = %d, want -5000", got)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if !s.Income.IsZero() || !s.Balance.IsZero() {
		t.Errorf("empty summary = %+v", s)
	}
	if s.Balance.String() != "0.00" {
		t.Errorf("Balance.String() = %q", s.Balance.String())
	}
}

func TestFilterByType(t *testing.T) {
	occurrences := []core.Occurrence{
		occ(core.TypeIncome, core.StatusPaid, core.NewDate(2025, 6, 1)),
		occ(core.TypeExpense, core.StatusPending, core.NewDate(2025, 6, 2)),
	}

	if got := FilterByType(occurrences, core.TypeIncome); len(got) != 1 || got[0].Type != core.TypeIncome {
		t.Errorf("income filter = %v", got)
	}
	if got := FilterByType(occurrences, core.TypeExpense); len(got) != 1 || got[0].Type != core.TypeExpense {
		t.Errorf("expense filter = %v", got)
	}
	if got := FilterByType(occurrences, ""); len(got) != 2 {
		t.Errorf("empty filter = %v", got)
	}
}
