// Package capture converts what a demuxer emits into an event log.
package capture

import (
	"errors"
	"fmt"

	"github.com/deepch/elstcheck/eventlog"
	"github.com/deepch/elstcheck/segment"
)

var ErrNoSegment = errors.New("capture: buffer before any segment")

// Writer appends the demuxer's output to a log. It is not safe for
// concurrent use; the demuxer calls it from one goroutine at a time.
type Writer struct {
	log     *eventlog.Log
	current *segment.Segment
}

func NewWriter(log *eventlog.Log) *Writer {
	return &Writer{log: log}
}

func (w *Writer) Log() *eventlog.Log {
	return w.log
}

// OnSegment records s and makes it the segment later buffers are
// converted against.
func (w *Writer) OnSegment(s segment.Segment) error {
	w.current = &s
	return w.log.AddSegment(s)
}

// OnBuffer records a buffer with its stream time in the current segment.
func (w *Writer) OnBuffer(pts, duration segment.ClockTime) error {
	if w.current == nil {
		return ErrNoSegment
	}
	st, err := w.current.ToStreamTime(pts)
	if err != nil {
		return fmt.Errorf("capture: buffer pts %s: %w", pts, err)
	}
	return w.log.AddBuffer(st, pts, duration)
}
