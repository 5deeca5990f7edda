package scenario

import (
	"strings"
	"testing"

	"github.com/deepch/elstcheck/eventlog"
	"github.com/deepch/elstcheck/segment"
)

func TestExpectedBasicLog(t *testing.T) {
	want := &eventlog.Log{}
	want.AddSegment(segment.Segment{
		Rate:        1,
		AppliedRate: 1,
		Start:       333333333,
		Stop:        2333333333,
		Time:        0,
		Base:        0,
	})
	buffers := []struct {
		PTS      segment.ClockTime
		Duration segment.ClockTime
	}{
		{333333333, 333333333},
		{1000000000, 333333333},
		{666666666, 333333334},
		{1333333333, 333333333},
		{2000000000, 333333333},
		{1666666666, 333333334},
	}
	for _, b := range buffers {
		want.AddBuffer(int64(b.PTS)-333333333, b.PTS, b.Duration)
	}

	for _, p := range []Pattern{Basic, BasicZeroDur, BasicZeroDurNoMehd} {
		got, err := Case{Pattern: p}.Expected(DefaultQuirks())
		if err != nil {
			t.Fatal(err)
		}
		if err := eventlog.Diff(got, want); err != nil {
			t.Errorf("%s: %v", p, err)
		}
	}
}

type bounds struct {
	Start, Stop, Time, Base segment.ClockTime
}

func TestExpectedSegments(t *testing.T) {
	values := []struct {
		P        Pattern
		Segments []bounds
	}{
		{NoEdts, []bounds{
			{0, 2000000000, 0, 0},
		}},
		{Basic, []bounds{
			{333333333, 2333333333, 0, 0},
		}},
		{BasicEmptyEditStart, []bounds{
			{0, 1000000000, 0, 0},
			{333333333, 2333333333, 1000000000, 1000000000},
		}},
		{Skipping, []bounds{
			{333333333, 666666666, 0, 0},
			{1333333333, 2000000000, 333333333, 333333333},
		}},
		{SkippingNonRAP, []bounds{
			{333333333, 666666666, 0, 0},
			{2000000000, 2333333333, 333333333, 333333333},
		}},
		{EmptyEditStartThenClip, []bounds{
			{0, 1000000000, 0, 0},
			{1333333333, 1666666666, 1000000000, 1000000000},
		}},
		{EmptyEditMiddle, []bounds{
			{333333333, 666666666, 0, 0},
			{333333333, 1000000000, 333333333, 333333333},
			{1333333333, 1666666666, 1000000000, 1000000000},
		}},
		{Reorder, []bounds{
			{1333333333, 2333333333, 0, 0},
			{333333333, 1333333333, 1000000000, 1000000000},
		}},
		{Repeating, []bounds{
			{1333333333, 2333333333, 0, 0},
			{1333333333, 2333333333, 1000000000, 1000000000},
		}},
	}
	for _, ex := range values {
		log, err := Case{Pattern: ex.P}.Expected(DefaultQuirks())
		if err != nil {
			t.Fatalf("%s: %v", ex.P, err)
		}
		var got []bounds
		for _, e := range log.Events() {
			if s, ok := e.(eventlog.SegmentEvent); ok {
				got = append(got, bounds{s.Segment.Start, s.Segment.Stop, s.Segment.Time, s.Segment.Base})
			}
		}
		if len(got) != len(ex.Segments) {
			t.Errorf("%s: %d segments, expected %d", ex.P, len(got), len(ex.Segments))
			continue
		}
		for i := range got {
			if got[i] != ex.Segments[i] {
				t.Errorf("%s: segment %d is %+v, expected %+v", ex.P, i, got[i], ex.Segments[i])
			}
		}
	}
}

func TestExpectedSkippingDuration(t *testing.T) {
	log, err := Case{Pattern: Skipping}.Expected(DefaultQuirks())
	if err != nil {
		t.Fatal(err)
	}
	var clip *segment.Segment
	for _, e := range log.Events() {
		if s, ok := e.(eventlog.SegmentEvent); ok && s.Segment.Start == 1333333333 {
			clip = &s.Segment
		}
	}
	if clip == nil {
		t.Fatal("no segment at 1333333333")
	}
	if clip.Duration != 666666667 {
		t.Errorf("duration %d, expected 666666667", clip.Duration)
	}
}

func TestTimeline(t *testing.T) {
	log, err := Case{Pattern: Basic}.Expected(DefaultQuirks())
	if err != nil {
		t.Fatal(err)
	}
	lines := Timeline(log)
	want := []string{
		"segment running=[0:00:00.000000000, 0:00:02.000000000]",
		"buffer pts=0:00:00.333333333 running=0:00:00.000000000",
		"buffer pts=0:00:01.000000000 running=0:00:00.666666667",
		"buffer pts=0:00:00.666666666 running=0:00:00.333333333",
		"buffer pts=0:00:01.333333333 running=0:00:01.000000000",
		"buffer pts=0:00:02.000000000 running=0:00:01.666666667",
		"buffer pts=0:00:01.666666666 running=0:00:01.333333333",
	}
	if strings.Join(lines, "\n") != strings.Join(want, "\n") {
		t.Errorf("unexpected timeline\n got %q\nwant %q", lines, want)
	}

	// frames decoded ahead of the edit start fall outside the second segment
	log, err = Case{Pattern: SkippingNonRAP}.Expected(DefaultQuirks())
	if err != nil {
		t.Fatal(err)
	}
	lines = Timeline(log)
	if got := lines[4]; got != "buffer pts=0:00:01.333333333 running=clipped" {
		t.Errorf("unexpected line %q", got)
	}
	if got := lines[3]; got != "segment running=[0:00:00.333333333, 0:00:00.666666666]" {
		t.Errorf("unexpected line %q", got)
	}
}
