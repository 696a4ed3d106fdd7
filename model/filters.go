package model

import (
	"strconv"
	"strings"
)

// Unset is the canonical form of a filter dimension the caller left empty.
const Unset = "all"

// Filters narrows a race or season query. The zero value matches everything.
type Filters struct {
	// Gender matches the gender column ("male", "female", ...). Empty or
	// "all" matches every row.
	Gender string

	// Division matches the division column ("open", "pro", "doubles", ...).
	// Empty or "all" matches every row.
	Division string

	// Year pins the event edition when a location hosted the same season more
	// than once. Zero means any edition. It selects the remote artifact during
	// resolution; rows carry no year column, so it never filters rows.
	Year int

	// MinTotalTime and MaxTotalTime bound the total race time in minutes.
	// Zero means unbounded on that side.
	MinTotalTime float64
	MaxTotalTime float64
}

// IsZero reports whether no dimension is set.
func (f Filters) IsZero() bool {
	return f == Filters{}
}

// CanonicalGender returns the casefolded gender dimension, Unset when empty.
func (f Filters) CanonicalGender() string { return canonicalString(f.Gender) }

// CanonicalDivision returns the casefolded division dimension, Unset when empty.
func (f Filters) CanonicalDivision() string { return canonicalString(f.Division) }

// CanonicalYear returns the year dimension as decimal digits, Unset when zero.
func (f Filters) CanonicalYear() string {
	if f.Year == 0 {
		return Unset
	}
	return strconv.Itoa(f.Year)
}

// CanonicalMinTotalTime returns the lower time bound with fixed two-decimal
// precision, Unset when zero.
func (f Filters) CanonicalMinTotalTime() string { return canonicalBound(f.MinTotalTime) }

// CanonicalMaxTotalTime returns the upper time bound with fixed two-decimal
// precision, Unset when zero.
func (f Filters) CanonicalMaxTotalTime() string { return canonicalBound(f.MaxTotalTime) }

// KeyParts returns every dimension in canonical form, in a fixed order.
// Cache keys are built from this slice, so two Filters values that differ
// only in spelling or omission collapse to the same parts.
func (f Filters) KeyParts() []string {
	return []string{
		f.CanonicalGender(),
		f.CanonicalDivision(),
		f.CanonicalYear(),
		f.CanonicalMinTotalTime(),
		f.CanonicalMaxTotalTime(),
	}
}

func canonicalString(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Unset
	}
	return s
}

func canonicalBound(v float64) string {
	if v == 0 {
		return Unset
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
