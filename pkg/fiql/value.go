package fiql

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// DateLayout is the wire form of date constraint arguments.
const DateLayout = "2006-01-02"

// Static errors for err113 compliance.
var (
	ErrKindMismatch = errors.New("constraint values are of different kinds")
	ErrInvalidValue = errors.New("invalid constraint value")
)

// Kind identifies the concrete type held by a Value.
type Kind int

const (
	// KindNone is the zero Value; it marks an absent bound.
	KindNone Kind = iota
	// KindInt is an integer identifier (year id, term id, generic id).
	KindInt
	// KindDate is a calendar date without a time component.
	KindDate
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindDate:
		return "date"
	default:
		return "none"
	}
}

// Value is a constraint bound: an integer, a date, or nothing.
// The zero Value is the absent bound.
type Value struct {
	kind Kind
	num  int
	date time.Time
}

// Int returns an integer Value.
func Int(n int) Value {
	return Value{kind: KindInt, num: n}
}

// Date returns a date Value. The time of day and location are dropped.
func Date(t time.Time) Value {
	y, m, d := t.Date()

	return Value{kind: KindDate, date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string into a date Value.
func ParseDate(s string) (Value, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %q is not a date: %w", ErrInvalidValue, s, err)
	}

	return Date(t), nil
}

// ParseValue parses an integer or a YYYY-MM-DD date.
func ParseValue(s string) (Value, error) {
	n, err := strconv.Atoi(s)
	if err == nil {
		return Int(n), nil
	}

	return ParseDate(s)
}

// Kind reports the concrete type of v.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNone reports whether v is the absent bound.
func (v Value) IsNone() bool {
	return v.kind == KindNone
}

// IntValue returns the integer held by v.
func (v Value) IntValue() (int, bool) {
	return v.num, v.kind == KindInt
}

// DateValue returns the date held by v.
func (v Value) DateValue() (time.Time, bool) {
	return v.date, v.kind == KindDate
}

// String renders v as a constraint argument.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.Itoa(v.num)
	case KindDate:
		return v.date.Format(DateLayout)
	default:
		return ""
	}
}

// Compare returns -1, 0 or 1 when v is before, equal to or after other.
// Values of different kinds cannot be compared.
func (v Value) Compare(other Value) (int, error) {
	if v.kind != other.kind {
		return 0, fmt.Errorf("%w: %s and %s", ErrKindMismatch, v.kind, other.kind)
	}

	switch v.kind {
	case KindInt:
		switch {
		case v.num < other.num:
			return -1, nil
		case v.num > other.num:
			return 1, nil
		}

		return 0, nil
	case KindDate:
		return v.date.Compare(other.date), nil
	default:
		return 0, nil
	}
}
