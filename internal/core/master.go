package core

import (
	"errors"
	"strings"
)

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"

	// Frequencies match the stored representation: a single occurrence, an
	// open- or close-ended monthly series, or a fixed-length installment plan.
	Once        Frequency = "once"
	Monthly     Frequency = "monthly"
	Installment Frequency = "installment"

	StatusPaid    PaymentStatus = "paid"
	StatusPending PaymentStatus = "pending"
	// StatusOverdue is derived at query time over a pending expense whose
	// date has passed. It is never stored.
	StatusOverdue PaymentStatus = "overdue"
)

type (
	TransactionType string
	Frequency       string
	PaymentStatus   string
)

func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

func (f Frequency) Valid() bool {
	return f == Once || f == Monthly || f == Installment
}

// MasterTransaction is the stored, user-authored record. Projection expands
// it into per-month occurrences; the record itself never multiplies.
type MasterTransaction struct {
	ID          string
	Description string
	Category    string
	Type        TransactionType
	Frequency   Frequency
	// Amount is the value of one occurrence. For installment plans this is
	// the per-installment amount, not the purchase total.
	Amount Money
	// AnchorDate is the single occurrence date (once) or the first
	// occurrence date of the series (monthly, installment).
	AnchorDate Date
	// EndDate bounds a monthly series to its last applicable month. Zero
	// means open-ended. Meaningful only for monthly.
	EndDate Date

	// Installment-only fields. TotalAmount need not equal
	// Amount * TotalInstallments exactly; rounding differences live in the
	// stored per-installment amount.
	TotalAmount        Money
	TotalInstallments  int
	InstallmentGroupID string

	// Status is the stored payment state for once and installment records.
	// Monthly series track payment per month in PaidOccurrences instead.
	Status PaymentStatus

	// PaidOccurrences is the set of YYYY-MM month keys a monthly series has
	// been paid for. A missing key means that month is pending.
	PaidOccurrences map[string]struct{}
}

// Validate checks the full record for the create/edit flows. Frequency-field
// consistency is the same check projection applies per month, but here any
// violation is a hard error.
func (t MasterTransaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("empty id")
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if !t.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.AnchorDate.Validate(); err != nil {
		return err
	}
	if ierr := t.CheckIntegrity(); ierr != nil {
		return ierr
	}
	switch t.Frequency {
	case Once, Installment:
		if t.Status != StatusPaid && t.Status != StatusPending {
			return ErrInvalidStatus
		}
	case Monthly:
		if !t.EndDate.IsEmpty() && t.EndDate.Before(t.AnchorDate) {
			return errors.New("end date before start date")
		}
	}
	return nil
}

// CheckIntegrity verifies that exactly the field group matching the declared
// frequency is populated. It returns nil for a consistent record and a
// *DataIntegrityError otherwise; projection uses it to skip-and-warn.
func (t MasterTransaction) CheckIntegrity() *DataIntegrityError {
	fail := func(reason string) *DataIntegrityError {
		return &DataIntegrityError{MasterID: t.ID, Reason: reason}
	}
	switch t.Frequency {
	case Once:
		if t.TotalInstallments != 0 || t.InstallmentGroupID != "" {
			return fail("once record carries installment fields")
		}
	case Monthly:
		if t.TotalInstallments != 0 || t.InstallmentGroupID != "" {
			return fail("monthly record carries installment fields")
		}
	case Installment:
		if t.TotalInstallments <= 0 {
			return fail("installment record without total installments")
		}
		if t.TotalAmount.IsZero() {
			return fail("installment record without total amount")
		}
		if t.InstallmentGroupID == "" {
			return fail("installment record without group id")
		}
		if !t.EndDate.IsEmpty() {
			return fail("installment record carries an end date")
		}
	default:
		return fail("unknown frequency " + string(t.Frequency))
	}
	return nil
}

// PaidFor reports whether a monthly series is marked paid for a month key.
func (t MasterTransaction) PaidFor(monthKey string) bool {
	_, ok := t.PaidOccurrences[monthKey]
	return ok
}

// MarkPaid records payment for the occurrence falling on the given date:
// monthly series get the month key added to PaidOccurrences, everything else
// flips the stored status.
func (t *MasterTransaction) MarkPaid(occurrence Date) {
	if t.Frequency == Monthly {
		if t.PaidOccurrences == nil {
			t.PaidOccurrences = make(map[string]struct{})
		}
		t.PaidOccurrences[MonthKey(occurrence)] = struct{}{}
		return
	}
	t.Status = StatusPaid
}

// Clone returns a deep copy; PaidOccurrences is the only reference field.
func (t MasterTransaction) Clone() MasterTransaction {
	out := t
	if t.PaidOccurrences != nil {
		out.PaidOccurrences = make(map[string]struct{}, len(t.PaidOccurrences))
		for k := range t.PaidOccurrences {
			out.PaidOccurrences[k] = struct{}{}
		}
	}
	return out
}
