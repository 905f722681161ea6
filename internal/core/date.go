package core

import (
	"fmt"
	"time"
)

// dateLayout is the single canonical date format, on the wire and in storage.
// Anything else is rejected at the boundary; the engine never sees ambiguous
// day/month ordering.
const dateLayout = "2006-01-02"

// Date is a calendar date with day precision. Time of day is always midnight
// UTC; comparisons are date-only.
type Date struct {
	time.Time
}

// NewDate creates a Date from year, 1-based month and day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a canonical YYYY-MM-DD string. Any other format, including
// DD/MM/YYYY, fails with ErrInvalidDate.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// Day returns the day of the month.
func (d Date) Day() int { return d.Time.Day() }

// Month returns the 1-based month.
func (d Date) Month() int { return int(d.Time.Month()) }

// Year returns the year.
func (d Date) Year() int { return d.Time.Year() }

// IsEmpty reports whether the date is unset (used for optional end dates).
func (d Date) IsEmpty() bool { return d.IsZero() }

// Before reports whether d falls strictly before other, comparing dates only.
func (d Date) Before(other Date) bool {
	dy, dm, dd := d.Time.Date()
	oy, om, od := other.Time.Date()
	if dy != oy {
		return dy < oy
	}
	if dm != om {
		return dm < om
	}
	return dd < od
}

// Equal reports whether d and other are the same calendar date.
func (d Date) Equal(other Date) bool {
	dy, dm, dd := d.Time.Date()
	oy, om, od := other.Time.Date()
	return dy == oy && dm == om && dd == od
}

// String renders the canonical YYYY-MM-DD form, empty string for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time.Format(dateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// MarshalJSON renders the canonical YYYY-MM-DD form, null for the zero date.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Time.Format(dateLayout) + `"`), nil
}

// UnmarshalJSON accepts the canonical YYYY-MM-DD form or null.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		*d = Date{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("%w: %s", ErrInvalidDate, s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MonthRef identifies one calendar month. Month is 1-based.
type MonthRef struct {
	Year  int
	Month int
}

// NewMonthRef builds a MonthRef from year and 1-based month.
func NewMonthRef(year, month int) MonthRef {
	return MonthRef{Year: year, Month: month}
}

// MonthOf returns the month a date falls in.
func MonthOf(d Date) MonthRef {
	return MonthRef{Year: d.Year(), Month: d.Month()}
}

func (m MonthRef) Validate() error {
	if m.Month < 1 || m.Month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Key returns the canonical zero-padded YYYY-MM month key. It is the
// membership key of paid-occurrence bookkeeping, so the 1-based padding is
// load-bearing and covered by tests.
func (m MonthRef) Key() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}

// Contains reports whether the date falls inside this month.
func (m MonthRef) Contains(d Date) bool {
	return d.Year() == m.Year && d.Month() == m.Month
}

// index maps the month onto a single monotonic axis for ordering arithmetic.
func (m MonthRef) index() int {
	return m.Year*12 + (m.Month - 1)
}

// MonthsBetween returns the signed difference in calendar months from one
// month to another. It counts month boundaries, not elapsed 30-day periods:
// January 31 to February 1 is one month. Installment indices are built on it.
func MonthsBetween(from, to MonthRef) int {
	return to.index() - from.index()
}

// MonthKey returns the YYYY-MM key of the month a date falls in.
func MonthKey(d Date) string {
	return MonthOf(d).Key()
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year, month int) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDayToMonth pins an anchor day inside the target month, so a series
// anchored on the 31st lands on the 28th/29th/30th in shorter months instead
// of rolling over into the next one.
func ClampDayToMonth(day, year, month int) int {
	if last := DaysInMonth(year, month); day > last {
		return last
	}
	return day
}

// DateAtDay projects an anchor day onto this month, clamping to the month's
// last day.
func (m MonthRef) DateAtDay(day int) Date {
	return NewDate(m.Year, m.Month, ClampDayToMonth(day, m.Year, m.Month))
}
