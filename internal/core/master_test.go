package core

import (
	"errors"
	"testing"
)

func validOnceMaster() MasterTransaction {
	return MasterTransaction{
		ID:          "m-once",
		Description: "dentist",
		Category:    "health",
		Type:        TypeExpense,
		Frequency:   Once,
		Amount:      MoneyFromCents(15000),
		AnchorDate:  NewDate(2025, 6, 10),
		Status:      StatusPending,
	}
}

func validInstallmentMaster() MasterTransaction {
	return MasterTransaction{
		ID:                 "m-inst",
		Description:        "laptop",
		Category:           "tech",
		Type:               TypeExpense,
		Frequency:          Installment,
		Amount:             MoneyFromCents(10000),
		AnchorDate:         NewDate(2025, 1, 15),
		TotalAmount:        MoneyFromCents(120000),
		TotalInstallments:  12,
		InstallmentGroupID: "g-1",
		Status:             StatusPending,
	}
}

func TestMasterValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*MasterTransaction)
		wantErr error
	}{
		{"valid", func(m *MasterTransaction) {}, nil},
		{"empty description", func(m *MasterTransaction) { m.Description = " " }, ErrEmptyDescription},
		{"empty category", func(m *MasterTransaction) { m.Category = "" }, ErrEmptyCategory},
		{"bad type", func(m *MasterTransaction) { m.Type = "transfer" }, ErrInvalidType},
		{"bad frequency", func(m *MasterTransaction) { m.Frequency = "weekly" }, ErrInvalidFrequency},
		{"bad status", func(m *MasterTransaction) { m.Status = "maybe" }, ErrInvalidStatus},
		{"zero amount", func(m *MasterTransaction) { m.Amount = Money{} }, ErrInvalidAmount},
		{"missing anchor date", func(m *MasterTransaction) { m.AnchorDate = Date{} }, ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validOnceMaster()
			tt.mutate(&m)
			err := m.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMasterCheckIntegrity(t *testing.T) {
	t.Run("once with installment fields", func(t *testing.T) {
		m := validOnceMaster()
		m.TotalInstallments = 3
		if m.CheckIntegrity() == nil {
			t.Error("expected integrity error for once transaction with installment count")
		}
	})

	t.Run("installment missing group id", func(t *testing.T) {
		m := validInstallmentMaster()
		m.InstallmentGroupID = ""
		if m.CheckIntegrity() == nil {
			t.Error("expected integrity error for installment without group id")
		}
	})

	t.Run("installment with zero count", func(t *testing.T) {
		m := validInstallmentMaster()
		m.TotalInstallments = 0
		if m.CheckIntegrity() == nil {
			t.Error("expected integrity error for installment with zero count")
		}
	})

	t.Run("installment with end date", func(t *testing.T) {
		m := validInstallmentMaster()
		m.EndDate = NewDate(2025, 12, 1)
		if m.CheckIntegrity() == nil {
			t.Error("expected integrity error for installment carrying an end date")
		}
	})

	t.Run("valid installment", func(t *testing.T) {
		m := validInstallmentMaster()
		if got := m.CheckIntegrity(); got != nil {
			t.Errorf("unexpected integrity error: %v", got)
		}
	})
}

func TestMarkPaid(t *testing.T) {
	t.Run("monthly records the occurrence month", func(t *testing.T) {
		m := validOnceMaster()
		m.Frequency = Monthly
		m.MarkPaid(NewDate(2025, 6, 10))
		if !m.PaidFor("2025-06") {
			t.Error("expected 2025-06 to be marked paid")
		}
		if m.PaidFor("2025-07") {
			t.Error("2025-07 must not be marked paid")
		}
		if m.Status != StatusPending {
			t.Errorf("monthly master status changed to %q", m.Status)
		}
	})

	t.Run("once flips the master status", func(t *testing.T) {
		m := validOnceMaster()
		m.MarkPaid(NewDate(2025, 6, 10))
		if m.Status != StatusPaid {
			t.Errorf("status = %q, want %q", m.Status, StatusPaid)
		}
	})
}

func TestCloneIsolatesPaidOccurrences(t *testing.T) {
	m := validOnceMaster()
	m.Frequency = Monthly
	m.MarkPaid(NewDate(2025, 1, 10))

	c := m.Clone()
	c.MarkPaid(NewDate(2025, 2, 10))

	if m.PaidFor("2025-02") {
		t.Error("mutating the clone leaked into the original")
	}
	if !c.PaidFor("2025-01") {
		t.Error("clone lost the original paid month")
	}
}

func TestOccurrenceID(t *testing.T) {
	got := OccurrenceID("abc", NewMonthRef(2025, 3))
	if got != "abc-2025-03" {
		t.Errorf("OccurrenceID = %q, want %q", got, "abc-2025-03")
	}
}
