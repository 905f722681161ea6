package core

// Occurrence is a master transaction projected onto one specific month. It is
// derived on every query and never persisted; its ID exists only so a list
// of occurrences can be keyed uniquely.
type Occurrence struct {
	// ID is the synthetic per-month key: masterID-YYYY-MM.
	ID       string
	MasterID string

	Description string
	Category    string
	Type        TransactionType
	Frequency   Frequency
	Amount      Money
	Date        Date

	// Status is paid/pending as projected from the master record, upgraded
	// to overdue by the status resolver for past-due pending expenses.
	Status PaymentStatus

	// Installment context, zero for other frequencies.
	CurrentInstallment int
	TotalInstallments  int
	TotalAmount        Money
	InstallmentGroupID string
}

// OccurrenceID builds the synthetic composite id for a master's occurrence in
// a month.
func OccurrenceID(masterID string, month MonthRef) string {
	return masterID + "-" + month.Key()
}
