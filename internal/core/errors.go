package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrInvalidStatus    = errors.New("invalid payment status")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrNotFound         = errors.New("transaction not found")
)

// DataIntegrityError marks a master record whose fields are inconsistent with
// its declared frequency. Such records are excluded from projection for the
// affected month and reported, never allowed to abort a whole query.
type DataIntegrityError struct {
	MasterID string
	Reason   string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity: master %s: %s", e.MasterID, e.Reason)
}
