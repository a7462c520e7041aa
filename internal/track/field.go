package track

import (
	"math"
	"time"
)

// FieldKind discriminates the value held in a FieldValue.
type FieldKind int

const (
	FieldNull FieldKind = iota
	FieldFloat
	FieldTime
)

// FieldValue is the typed sum value stored in a point's open field map.
// Any numeric sensor column may appear as a field, so the closed set of kinds
// is kept small: a float (possibly NaN), an instant, or an explicit null.
type FieldValue struct {
	kind FieldKind
	num  float64
	ts   time.Time
}

// Float wraps a numeric field value. NaN is a legal payload and is how
// null-propagating arithmetic represents missing readings.
func Float(v float64) FieldValue { return FieldValue{kind: FieldFloat, num: v} }

// Time wraps an instant field value.
func Time(t time.Time) FieldValue { return FieldValue{kind: FieldTime, ts: t} }

// Null is the explicit missing-value marker.
func Null() FieldValue { return FieldValue{kind: FieldNull} }

// Kind returns the value's discriminator.
func (v FieldValue) Kind() FieldKind { return v.kind }

// Float returns the numeric payload. ok is false for non-float kinds.
func (v FieldValue) Float() (float64, bool) {
	if v.kind != FieldFloat {
		return math.NaN(), false
	}
	return v.num, true
}

// Time returns the instant payload. ok is false for non-time kinds.
func (v FieldValue) Time() (time.Time, bool) {
	if v.kind != FieldTime {
		return time.Time{}, false
	}
	return v.ts, true
}

// IsNull reports whether the value is the explicit null marker or a NaN float.
func (v FieldValue) IsNull() bool {
	return v.kind == FieldNull || (v.kind == FieldFloat && math.IsNaN(v.num))
}
