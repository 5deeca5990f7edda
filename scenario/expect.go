package scenario

import (
	"fmt"

	"github.com/deepch/elstcheck/demux"
	"github.com/deepch/elstcheck/eventlog"
	"github.com/deepch/elstcheck/segment"
)

// Presentation times of the six frames and their durations, in the
// demuxer's truncated nanoseconds.
const (
	pts100 segment.ClockTime = 333333333
	pts200 segment.ClockTime = 666666666
	pts300 segment.ClockTime = 1000000000
	pts400 segment.ClockTime = 1333333333
	pts500 segment.ClockTime = 1666666666
	pts600 segment.ClockTime = 2000000000

	dur     segment.ClockTime = 333333333
	durLong segment.ClockTime = 333333334

	second segment.ClockTime = 1000000000
)

// expectation accumulates an expected log. The first error sticks.
type expectation struct {
	log *eventlog.Log
	q   Quirks
	cur segment.Segment
	err error
}

func (e *expectation) segment(s segment.Segment) {
	if e.err == nil {
		e.err = e.log.AddSegment(s)
	}
}

// typical announces the edit [start, start+duration) following the
// current segment.
func (e *expectation) typical(start, duration segment.ClockTime) {
	e.cur = segment.Continue(e.cur, start, duration)
	e.segment(e.cur)
}

// empty announces a gap and restarts the timeline after it.
func (e *expectation) empty(start, duration segment.ClockTime) {
	if e.q.EmptyEditSegments {
		e.segment(segment.Empty(start, duration))
	}
	e.cur = segment.New()
	e.cur.Time = start + duration
	e.cur.Base = start + duration
}

func (e *expectation) buffer(streamPTS int64, pts, duration segment.ClockTime) {
	if e.err == nil {
		e.err = e.log.AddBuffer(streamPTS, pts, duration)
	}
}

func (e *expectation) spurious(streamPTS int64, pts, duration segment.ClockTime) {
	if e.q.SpuriousExtraFrame {
		e.buffer(streamPTS, pts, duration)
	}
}

// Expected returns the events a conforming demuxer emits for the case.
func (c Case) Expected(q Quirks) (*eventlog.Log, error) {
	e := &expectation{log: &eventlog.Log{}, q: q, cur: segment.New()}
	if c.Delivery != demux.Pull && q.DummySegment {
		e.segment(segment.New())
	}

	switch c.Pattern {
	case NoEdts:
		e.typical(0, 2*second)
		e.buffer(333333333, pts100, dur)
		e.buffer(1000000000, pts300, dur)
		e.buffer(666666666, pts200, durLong)
		e.buffer(1333333333, pts400, dur)
		e.buffer(2000000000, pts600, dur)
		e.buffer(1666666666, pts500, durLong)

	case Basic, BasicZeroDur, BasicZeroDurNoMehd:
		e.typical(333333333, 2*second)
		e.basicBuffers(0)

	case BasicEmptyEditStart:
		e.empty(0, second)
		e.typical(333333333, 2*second)
		e.basicBuffers(int64(second))

	case Skipping:
		e.typical(333333333, 333333333)
		e.buffer(0, pts100, dur)
		e.spurious(666666667, pts300, dur)
		e.typical(1333333333, 666666667)
		e.buffer(333333333, pts400, dur)
		e.buffer(1000000000, pts600, dur)
		e.buffer(666666666, pts500, durLong)

	case SkippingNonRAP:
		e.typical(333333333, 333333333)
		e.buffer(0, pts100, dur)
		e.spurious(666666667, pts300, dur)
		e.typical(2000000000, 333333333)
		// frames decoded ahead of the edit start precede the segment
		e.buffer(-333333334, pts400, dur)
		e.buffer(333333333, pts600, dur)
		e.spurious(-1, pts500, durLong)

	case EmptyEditStartThenClip:
		e.empty(0, second)
		e.typical(1333333333, 333333333)
		e.buffer(1000000000, pts400, dur)
		e.spurious(1666666667, pts600, dur)

	case EmptyEditMiddle:
		e.typical(333333333, 333333333)
		e.buffer(0, pts100, dur)
		e.spurious(666666667, pts300, dur)
		e.empty(333333333, 666666667)
		e.typical(1333333333, 333333333)
		e.buffer(1000000000, pts400, dur)
		e.spurious(1666666667, pts600, dur)

	case Reorder:
		e.typical(1333333333, second)
		e.buffer(0, pts400, dur)
		e.buffer(666666667, pts600, dur)
		e.buffer(333333333, pts500, durLong)
		e.typical(333333333, second)
		e.buffer(1000000000, pts100, dur)
		e.buffer(1666666667, pts300, dur)
		e.buffer(1333333333, pts200, durLong)
		e.spurious(2000000000, pts400, dur)

	case Repeating:
		for i := int64(0); i < 2; i++ {
			e.typical(1333333333, second)
			e.buffer(i*int64(second), pts400, dur)
			e.buffer(i*int64(second)+666666667, pts600, dur)
			e.buffer(i*int64(second)+333333333, pts500, durLong)
		}

	default:
		return nil, fmt.Errorf("scenario: unknown pattern %q", c.Pattern)
	}
	if e.err != nil {
		return nil, e.err
	}
	return e.log, nil
}

// basicBuffers are the six frames of a movie trimmed by one frame at the
// start, shifted by offset in stream time.
func (e *expectation) basicBuffers(offset int64) {
	e.buffer(offset+0, pts100, dur)
	e.buffer(offset+666666667, pts300, dur)
	e.buffer(offset+333333333, pts200, durLong)
	e.buffer(offset+1000000000, pts400, dur)
	e.buffer(offset+1666666667, pts600, dur)
	e.buffer(offset+1333333333, pts500, durLong)
}
