package core

import (
	"errors"
	"testing"
)

func TestClampDayToMonth(t *testing.T) {
	tests := []struct {
		name  string
		day   int
		year  int
		month int
		want  int
	}{
		{"day fits", 15, 2025, 6, 15},
		{"31 in a 30-day month", 31, 2025, 4, 30},
		{"31 in february", 31, 2025, 2, 28},
		{"31 in leap february", 31, 2024, 2, 29},
		{"29 in non-leap february", 29, 2025, 2, 28},
		{"last day exactly", 30, 2025, 4, 30},
		{"first day", 1, 2025, 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampDayToMonth(tt.day, tt.year, tt.month); got != tt.want {
				t.Errorf("ClampDayToMonth(%d, %d, %d) = %d, want %d", tt.day, tt.year, tt.month, got, tt.want)
			}
		})
	}
}

func TestMonthKey(t *testing.T) {
	tests := []struct {
		name string
		date Date
		want string
	}{
		{"single-digit month is zero padded", NewDate(2025, 3, 15), "2025-03"},
		{"double-digit month", NewDate(2025, 12, 1), "2025-12"},
		{"january", NewDate(2024, 1, 31), "2024-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MonthKey(tt.date); got != tt.want {
				t.Errorf("MonthKey(%v) = %q, want %q", tt.date, got, tt.want)
			}
		})
	}
}

func TestMonthsBetween(t *testing.T) {
	tests := []struct {
		name string
		from MonthRef
		to   MonthRef
		want int
	}{
		{"same month", NewMonthRef(2025, 1), NewMonthRef(2025, 1), 0},
		{"next month", NewMonthRef(2025, 1), NewMonthRef(2025, 2), 1},
		{"previous month", NewMonthRef(2025, 2), NewMonthRef(2025, 1), -1},
		{"across a year boundary", NewMonthRef(2024, 11), NewMonthRef(2025, 2), 3},
		{"whole years", NewMonthRef(2023, 5), NewMonthRef(2025, 5), 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MonthsBetween(tt.from, tt.to); got != tt.want {
				t.Errorf("MonthsBetween(%v, %v) = %d, want %d", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"2025-01-15", false},
		{"2024-02-29", false},
		{"15/01/2025", true}, // legacy day-first format is not accepted
		{"2025-1-15", true},
		{"2025-01-15T00:00:00Z", true},
		{"", true},
		{"not-a-date", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseDate(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDate(%q) expected error, got %v", tt.in, d)
				}
				if !errors.Is(err, ErrInvalidDate) {
					t.Errorf("ParseDate(%q) error = %v, want ErrInvalidDate", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) unexpected error: %v", tt.in, err)
			}
			if d.String() != tt.in {
				t.Errorf("ParseDate(%q).String() = %q", tt.in, d.String())
			}
		})
	}
}

func TestDateBefore(t *testing.T) {
	a := NewDate(2025, 3, 14)
	b := NewDate(2025, 3, 15)
	if !a.Before(b) {
		t.Error("expected 14th before 15th")
	}
	if b.Before(a) {
		t.Error("15th is not before 14th")
	}
	if b.Before(b) {
		t.Error("a date is not before itself")
	}
}

func TestMonthRefContains(t *testing.T) {
	m := NewMonthRef(2025, 2)
	if !m.Contains(NewDate(2025, 2, 28)) {
		t.Error("expected 2025-02-28 inside 2025-02")
	}
	if m.Contains(NewDate(2025, 3, 1)) {
		t.Error("2025-03-01 is not inside 2025-02")
	}
	if m.Contains(NewDate(2024, 2, 15)) {
		t.Error("same month of another year is not contained")
	}
}

func TestDateAtDayClamps(t *testing.T) {
	got := NewMonthRef(2025, 2).DateAtDay(31)
	want := NewDate(2025, 2, 28)
	if !got.Equal(want) {
		t.Errorf("DateAtDay(31) = %v, want %v", got, want)
	}
}
