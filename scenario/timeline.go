package scenario

import (
	"fmt"

	"github.com/deepch/elstcheck/eventlog"
	"github.com/deepch/elstcheck/segment"
)

// Timeline renders a log in running time: the window each segment covers
// and where each buffer lands in the segment before it. Buffers outside
// their segment show as clipped.
func Timeline(log *eventlog.Log) []string {
	var (
		cur   segment.Segment
		have  bool
		lines []string
	)
	for _, ev := range log.Events() {
		switch e := ev.(type) {
		case eventlog.SegmentEvent:
			cur, have = e.Segment, true
			lines = append(lines, fmt.Sprintf("segment running=[%s, %s]",
				runningTime(cur, cur.Start), runningTime(cur, cur.Stop)))
		case eventlog.BufferEvent:
			rt := "clipped"
			if have {
				rt = runningTime(cur, e.PTS)
			}
			lines = append(lines, fmt.Sprintf("buffer pts=%s running=%s", segment.FormatTime(e.PTS), rt))
		}
	}
	return lines
}

func runningTime(s segment.Segment, pos segment.ClockTime) string {
	if !pos.Valid() {
		return segment.FormatTime(pos)
	}
	rt, ok := s.ToRunningTime(pos)
	if !ok {
		return "clipped"
	}
	return segment.FormatTime(rt)
}
