package eventlog

import (
	"errors"
	"fmt"
	"math"
)

var ErrFull = errors.New("eventlog: log is full")

// RateTolerance is the absolute difference below which two rates are equal.
const RateTolerance = 1e-7

func ratesEqual(a, b float64) bool {
	return math.Abs(a-b) < RateTolerance
}

func eventsEqual(a, b Event) bool {
	switch x := a.(type) {
	case SegmentEvent:
		y, ok := b.(SegmentEvent)
		if !ok {
			return false
		}
		s, t := x.Segment, y.Segment
		return ratesEqual(s.Rate, t.Rate) && ratesEqual(s.AppliedRate, t.AppliedRate) &&
			s.Base == t.Base && s.Offset == t.Offset && s.Start == t.Start &&
			s.Stop == t.Stop && s.Time == t.Time
	case BufferEvent:
		y, ok := b.(BufferEvent)
		return ok && x == y
	default:
		panic(fmt.Sprintf("eventlog: unknown event %T", a))
	}
}

// Compare reports whether the logs match and, if not, the index of the
// first differing event. Logs that agree up to the shorter length differ at
// that length.
func Compare(actual, expected *Log) (ok bool, index int) {
	n := len(actual.events)
	if len(expected.events) < n {
		n = len(expected.events)
	}
	for i := 0; i < n; i++ {
		if !eventsEqual(actual.events[i], expected.events[i]) {
			return false, i
		}
	}
	if len(actual.events) != len(expected.events) {
		return false, n
	}
	return true, -1
}

// MismatchError describes where two logs diverge.
type MismatchError struct {
	Actual   *Log
	Expected *Log
	Index    int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("\nExpected events:\n%sActual events:\n%sMismatch starts at event with index=%d (marked)",
		e.Expected.Format(e.Index), e.Actual.Format(e.Index), e.Index)
}

// Diff returns nil when the logs match and a *MismatchError otherwise.
func Diff(actual, expected *Log) error {
	if ok, index := Compare(actual, expected); !ok {
		return &MismatchError{Actual: actual, Expected: expected, Index: index}
	}
	return nil
}
