// Package segment models the presentation segments a demuxer announces
// ahead of the buffers they apply to.
package segment

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ClockTime is a time in nanoseconds. None means unset or unbounded.
type ClockTime uint64

const None = ^ClockTime(0)

func (t ClockTime) Valid() bool {
	return t != None
}

func (t ClockTime) String() string {
	return FormatTime(t)
}

var ErrNoTime = errors.New("segment: time is not set")

// Segment is a time segment. Position and Duration are carried along but
// take no part in comparisons.
type Segment struct {
	Rate        float64
	AppliedRate float64
	Base        ClockTime
	Offset      ClockTime
	Start       ClockTime
	Stop        ClockTime
	Time        ClockTime
	Position    ClockTime
	Duration    ClockTime
}

// New returns the default time segment.
func New() Segment {
	return Segment{
		Rate:        1,
		AppliedRate: 1,
		Stop:        None,
		Duration:    None,
	}
}

// Continue returns the segment that follows prev for an edit starting at
// start in the media timeline. Stream time and base carry on from where
// prev ended when prev was bounded.
func Continue(prev Segment, start, duration ClockTime) Segment {
	s := prev
	if prev.Stop.Valid() {
		played := prev.Stop - prev.Start
		s.Time += ClockTime(prev.AppliedRate * float64(played))
		s.Base += ClockTime(float64(played) / prev.Rate)
	}
	s.Rate = 1
	s.AppliedRate = 1
	s.Start = start
	s.Stop = None
	if duration.Valid() {
		s.Stop = start + duration
	}
	s.Duration = duration
	s.Offset = 0
	return s
}

// Empty returns the segment announcing a gap of duration at start.
func Empty(start, duration ClockTime) Segment {
	s := New()
	s.Time = start
	s.Base = start
	s.Start = start
	s.Stop = start + duration
	return s
}

// ToStreamTime converts a buffer timestamp to stream time. Positions
// before Start yield negative results.
func (s Segment) ToStreamTime(pos ClockTime) (int64, error) {
	if !s.Time.Valid() || !pos.Valid() {
		return 0, ErrNoTime
	}
	var d uint64
	sign := 1
	if pos < s.Start {
		d = uint64(s.Start - pos)
		sign = -1
	} else {
		d = uint64(pos - s.Start)
	}
	if abs := math.Abs(s.AppliedRate); abs != 1 {
		d = uint64(float64(d) * abs)
	}
	t := uint64(s.Time)
	switch {
	case s.AppliedRate > 0 && sign > 0:
		return int64(d + t), nil
	case s.AppliedRate > 0:
		return int64(t) - int64(d), nil
	case sign > 0:
		return int64(t) - int64(d), nil
	default:
		return int64(t + d), nil
	}
}

// ToRunningTime converts pos to running time. It reports false for
// positions outside the segment.
func (s Segment) ToRunningTime(pos ClockTime) (ClockTime, bool) {
	if !pos.Valid() {
		return None, false
	}
	start, stop := s.Start, s.Stop
	if s.Rate > 0 {
		start += s.Offset
	} else if stop.Valid() {
		stop -= s.Offset
	}
	if pos < start || (stop.Valid() && pos > stop) {
		return None, false
	}
	var d ClockTime
	if s.Rate > 0 {
		d = pos - start
	} else {
		if !stop.Valid() {
			return None, false
		}
		d = stop - pos
	}
	if abs := math.Abs(s.Rate); abs != 1 {
		d = ClockTime(float64(d) / abs)
	}
	return d + s.Base, true
}

func (s Segment) String() string {
	return fmt.Sprintf("rate=%g applied_rate=%g base=%s offset=%s start=%s stop=%s time=%s",
		s.Rate, s.AppliedRate, s.Base, s.Offset, s.Start, s.Stop, s.Time)
}

// FormatTime renders t as h:mm:ss.nnnnnnnnn.
func FormatTime(t ClockTime) string {
	if !t.Valid() {
		return "99:99:99.999999999"
	}
	d := uint64(t)
	sec := uint64(time.Second)
	return fmt.Sprintf("%d:%02d:%02d.%09d", d/(3600*sec), d/(60*sec)%60, d/sec%60, d%sec)
}

// FormatSTime renders a signed time with a leading sign.
func FormatSTime(t int64) string {
	if t < 0 {
		return "-" + FormatTime(ClockTime(-t))
	}
	return "+" + FormatTime(ClockTime(t))
}
