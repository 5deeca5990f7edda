// Package eventlog records what a demuxer emitted as segment and buffer
// events and compares two such logs.
package eventlog

import (
	"fmt"
	"strings"

	"github.com/deepch/elstcheck/segment"
)

// Event is either a SegmentEvent or a BufferEvent.
type Event interface {
	fmt.Stringer
	event()
}

type SegmentEvent struct {
	Segment segment.Segment
}

func (SegmentEvent) event() {}

func (e SegmentEvent) String() string {
	s := e.Segment
	return fmt.Sprintf("segment: rate=%g applied_rate=%g base=%s offset=%s start=%s stop=%s time=%s",
		s.Rate, s.AppliedRate,
		segment.FormatTime(s.Base), segment.FormatTime(s.Offset),
		segment.FormatTime(s.Start), segment.FormatTime(s.Stop), segment.FormatTime(s.Time))
}

// BufferEvent is a buffer with its stream time, which may be negative for
// buffers before the segment start.
type BufferEvent struct {
	StreamPTS int64
	PTS       segment.ClockTime
	Duration  segment.ClockTime
}

func (BufferEvent) event() {}

func (e BufferEvent) String() string {
	return fmt.Sprintf("buffer: stream_pts=%s buffer_pts=%s duration=%s",
		segment.FormatSTime(e.StreamPTS), segment.FormatTime(e.PTS), segment.FormatTime(e.Duration))
}

// Log is an append-only sequence of events.
type Log struct {
	// Limit caps the number of events; 0 means unbounded.
	Limit int

	events []Event
}

func (l *Log) add(e Event) error {
	if l.Limit > 0 && len(l.events) >= l.Limit {
		return fmt.Errorf("%w: limit is %d", ErrFull, l.Limit)
	}
	l.events = append(l.events, e)
	return nil
}

func (l *Log) AddSegment(s segment.Segment) error {
	return l.add(SegmentEvent{Segment: s})
}

func (l *Log) AddBuffer(streamPTS int64, pts, duration segment.ClockTime) error {
	return l.add(BufferEvent{StreamPTS: streamPTS, PTS: pts, Duration: duration})
}

func (l *Log) Len() int {
	return len(l.events)
}

func (l *Log) Events() []Event {
	return append([]Event(nil), l.events...)
}

// Format renders one line per event. The event at index mark, if any, is
// flagged with a leading "> " and a trailing " <<".
func (l *Log) Format(mark int) string {
	if len(l.events) == 0 {
		return "<no buffers or segments>\n"
	}
	var sb strings.Builder
	for i, e := range l.events {
		if i == mark {
			sb.WriteString("> ")
		}
		sb.WriteString(e.String())
		if i == mark {
			sb.WriteString(" <<")
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (l *Log) String() string {
	return l.Format(-1)
}
