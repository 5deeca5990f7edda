// Package demux defines how a demuxer under test is driven and how it
// reports what it emits.
package demux

import (
	"fmt"

	"github.com/deepch/elstcheck/segment"
)

// Delivery is how the demuxer receives its input.
type Delivery int

const (
	// Pull lets the demuxer read and seek the file at will.
	Pull Delivery = iota
	// Push feeds the file sequentially; seeking is still answered.
	Push
	// PushNoSeek feeds the file sequentially and refuses seeking.
	PushNoSeek
)

var Deliveries = []Delivery{Pull, Push, PushNoSeek}

func (d Delivery) String() string {
	switch d {
	case Pull:
		return "pull"
	case Push:
		return "push"
	case PushNoSeek:
		return "push_no_seek"
	}
	return fmt.Sprintf("Delivery(%d)", int(d))
}

// Sink receives segments and buffers in the order the demuxer emits them.
type Sink interface {
	OnSegment(s segment.Segment) error
	OnBuffer(pts, duration segment.ClockTime) error
}

// Demuxer runs a demuxer over the file at path until it reaches the end
// of the stream or fails. A nil error means end of stream. An error
// returned by the sink aborts the run and is returned.
type Demuxer interface {
	Demux(path string, mode Delivery, sink Sink) error
}

// DemuxerFunc adapts a function to Demuxer.
type DemuxerFunc func(path string, mode Delivery, sink Sink) error

func (f DemuxerFunc) Demux(path string, mode Delivery, sink Sink) error {
	return f(path, mode, sink)
}
