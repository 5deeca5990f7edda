package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/deepch/elstcheck/capture"
	"github.com/deepch/elstcheck/demux"
	"github.com/deepch/elstcheck/eventlog"
	"github.com/deepch/elstcheck/format/mp4/editlist"
	"github.com/deepch/elstcheck/format/mp4/movietpl"
	"github.com/deepch/elstcheck/format/mp4/mp4io"
	"github.com/deepch/elstcheck/segment"
	"github.com/google/go-cmp/cmp"
)

func templates(t *testing.T) *movietpl.Templates {
	t.Helper()
	ts, err := movietpl.SynthesizeTemplates()
	if err != nil {
		t.Fatal(err)
	}
	return ts
}

// replay emits the events of log through sink the way a demuxer would.
func replay(log *eventlog.Log, sink demux.Sink) error {
	for _, e := range log.Events() {
		var err error
		switch e := e.(type) {
		case eventlog.SegmentEvent:
			err = sink.OnSegment(e.Segment)
		case eventlog.BufferEvent:
			err = sink.OnBuffer(e.PTS, e.Duration)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// scripted is a demuxer that checks the vector it is given and replays
// what a conforming demuxer would emit, passed through edit.
func scripted(q Quirks, edit func(*eventlog.Log) *eventlog.Log) demux.Demuxer {
	return demux.DemuxerFunc(func(path string, mode demux.Delivery, sink demux.Sink) error {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		atoms, err := mp4io.ReadFileAtoms(f)
		if err != nil {
			return err
		}
		if len(atoms) < 2 || atoms[1].Tag() != mp4io.MOOV {
			return errors.New("not a movie")
		}
		var c Case
		for _, cc := range Cases() {
			if cc.Delivery == mode && matches(cc, atoms[1]) {
				c = cc
				break
			}
		}
		expected, err := c.Expected(q)
		if err != nil {
			return err
		}
		if edit != nil {
			expected = edit(expected)
		}
		return replay(expected, sink)
	})
}

// matches reports whether moov carries the edit list of c.
func matches(c Case, moov mp4io.Atom) bool {
	want := edits[c.Pattern]
	elst, _ := mp4io.FindChildren(moov, mp4io.ELST).(*mp4io.EditList)
	if elst == nil {
		return want == nil
	}
	if len(elst.Entries) != len(want) {
		return false
	}
	for i, e := range elst.Entries {
		if e.SegmentDuration != want[i].duration || e.MediaTime != want[i].mediaTime {
			return false
		}
	}
	return true
}

func TestCases(t *testing.T) {
	cases := Cases()
	if len(cases) != 35 {
		t.Errorf("expected 35 cases, got %d", len(cases))
	}
	broken := 0
	names := map[string]bool{}
	for _, c := range cases {
		if c.KnownBroken {
			broken++
		}
		if names[c.Name()] {
			t.Errorf("duplicate case %s", c.Name())
		}
		names[c.Name()] = true
	}
	if broken != 10 {
		t.Errorf("expected 10 known broken cases, got %d", broken)
	}
	for _, name := range []string{
		"non_frag_pull_no_edts",
		"non_frag_push_basic_zero_dur",
		"frag_push_no_seek_basic_zero_dur_no_mehd",
		"frag_pull_repeating",
	} {
		if !names[name] {
			t.Errorf("missing case %s", name)
		}
	}
	for _, name := range []string{
		"non_frag_pull_basic_zero_dur_no_mehd",
		"non_frag_push_basic",
		"frag_push_skipping",
	} {
		if names[name] {
			t.Errorf("unsupported case %s listed", name)
		}
	}
	if c, ok := Find("frag_pull_reorder"); !ok || !c.KnownBroken {
		t.Errorf("frag_pull_reorder: %+v %v", c, ok)
	}
	if c, ok := Find("non_frag_pull_reorder"); !ok || c.KnownBroken {
		t.Errorf("non_frag_pull_reorder: %+v %v", c, ok)
	}
}

func TestExpectedBasicEquivalence(t *testing.T) {
	q := DefaultQuirks()
	basic, err := Case{Pattern: Basic}.Expected(q)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range []Pattern{BasicZeroDur, BasicZeroDurNoMehd} {
		other, err := Case{Frag: Frag, Pattern: p}.Expected(q)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(basic.Events(), other.Events()); diff != "" {
			t.Errorf("%s differs from basic (-basic +%s):\n%s", p, p, diff)
		}
	}
}

func TestExpectedQuirks(t *testing.T) {
	pull, _ := Case{Pattern: BasicZeroDur}.Expected(DefaultQuirks())
	push, _ := Case{Delivery: demux.Push, Pattern: BasicZeroDur}.Expected(DefaultQuirks())
	if push.Len() != pull.Len()+1 {
		t.Fatalf("push log has %d events, pull %d", push.Len(), pull.Len())
	}
	if diff := cmp.Diff(push.Events()[1:], pull.Events()); diff != "" {
		t.Errorf("push log is not pull log with a prefix:\n%s", diff)
	}
	if diff := cmp.Diff(eventlog.Event(eventlog.SegmentEvent{Segment: segment.New()}), push.Events()[0]); diff != "" {
		t.Errorf("unexpected dummy segment:\n%s", diff)
	}

	none := Quirks{}
	values := []struct {
		P          Pattern
		With, Bare int
	}{
		{Skipping, 7, 6},
		{SkippingNonRAP, 7, 5},
		{EmptyEditStartThenClip, 4, 2},
		{EmptyEditMiddle, 7, 4},
		{Reorder, 9, 8},
		{Repeating, 8, 8},
	}
	for _, ex := range values {
		with, _ := Case{Pattern: ex.P}.Expected(DefaultQuirks())
		bare, _ := Case{Pattern: ex.P}.Expected(none)
		if with.Len() != ex.With || bare.Len() != ex.Bare {
			t.Errorf("%s: %d/%d events, expected %d/%d", ex.P, with.Len(), bare.Len(), ex.With, ex.Bare)
		}
	}
}

func TestVector(t *testing.T) {
	ts := templates(t)
	for _, c := range Cases() {
		vec, err := c.Vector(ts)
		if err != nil {
			t.Fatalf("%s: %v", c.Name(), err)
		}
		if vec.Len() != c.template(ts).Len() {
			t.Errorf("%s: vector is %d bytes", c.Name(), vec.Len())
		}
		if c.Pattern == NoEdts {
			continue
		}
		offset, size := c.template(ts).SpliceRegion()
		block, err := editlist.Decode(vec.Bytes()[offset : offset+size])
		if err != nil {
			t.Fatalf("%s: %v", c.Name(), err)
		}
		if len(block.Entries()) != len(edits[c.Pattern]) {
			t.Errorf("%s: %d entries", c.Name(), len(block.Entries()))
		}
	}
}

func TestRunConforming(t *testing.T) {
	ts := templates(t)
	for _, q := range []Quirks{DefaultQuirks(), {}} {
		dir := t.TempDir()
		r := &Runner{Demuxer: scripted(q, nil), Templates: ts, Quirks: q, TempDir: dir}
		for _, res := range r.RunAll(Cases(), true) {
			if res.Err != nil {
				t.Errorf("%s: %v", res.Case.Name(), res.Err)
			}
		}
		if left, _ := filepath.Glob(filepath.Join(dir, "*")); len(left) != 0 {
			t.Errorf("vector files left behind: %v", left)
		}
	}
}

func TestRunMismatch(t *testing.T) {
	ts := templates(t)
	dropLast := func(l *eventlog.Log) *eventlog.Log {
		out := &eventlog.Log{}
		events := l.Events()
		for _, e := range events[:len(events)-1] {
			switch e := e.(type) {
			case eventlog.SegmentEvent:
				out.AddSegment(e.Segment)
			case eventlog.BufferEvent:
				out.AddBuffer(e.StreamPTS, e.PTS, e.Duration)
			}
		}
		return out
	}
	dir := t.TempDir()
	r := &Runner{Demuxer: scripted(DefaultQuirks(), dropLast), Templates: ts, Quirks: DefaultQuirks(), TempDir: dir, KeepFailed: true}
	c, _ := Find("non_frag_pull_basic")
	results := r.RunAll([]Case{c}, false)
	var mismatch *eventlog.MismatchError
	if !errors.As(results[0].Err, &mismatch) {
		t.Fatalf("expected mismatch, got %v", results[0].Err)
	}
	if mismatch.Index != 6 {
		t.Errorf("mismatch at %d, expected 6", mismatch.Index)
	}
	if _, err := os.Stat(results[0].Path); err != nil {
		t.Errorf("failed vector not kept: %v", err)
	}
}

func TestRunDemuxerError(t *testing.T) {
	ts := templates(t)
	dir := t.TempDir()
	boom := errors.New("internal data stream error")
	r := &Runner{
		Demuxer: demux.DemuxerFunc(func(string, demux.Delivery, demux.Sink) error {
			return boom
		}),
		Templates: ts,
		Quirks:    DefaultQuirks(),
		TempDir:   dir,
	}
	c, _ := Find("non_frag_pull_basic")
	if err := r.Run(c); !errors.Is(err, boom) {
		t.Errorf("expected demuxer error, got %v", err)
	}
	if left, _ := filepath.Glob(filepath.Join(dir, "*")); len(left) != 0 {
		t.Errorf("vector files left behind: %v", left)
	}

	r.Demuxer = demux.DemuxerFunc(func(_ string, _ demux.Delivery, sink demux.Sink) error {
		return sink.OnBuffer(0, 1)
	})
	if err := r.Run(c); !errors.Is(err, capture.ErrNoSegment) {
		t.Errorf("expected ErrNoSegment, got %v", err)
	}
}

func TestRunSkipsBroken(t *testing.T) {
	r := &Runner{Demuxer: demux.DemuxerFunc(func(string, demux.Delivery, demux.Sink) error {
		t.Error("broken case was run")
		return nil
	})}
	c, _ := Find("frag_pull_skipping")
	if res := r.RunAll([]Case{c}, false); !res[0].Skipped {
		t.Error("known broken case not skipped")
	}
}

type recordingLogger struct {
	noopLogger
	debug []string
}

func (l *recordingLogger) Debugf(format string, args ...interface{}) {
	l.debug = append(l.debug, fmt.Sprintf(format, args...))
}

func TestRunLogsTimeline(t *testing.T) {
	logger := &recordingLogger{}
	r := &Runner{
		Demuxer:   scripted(DefaultQuirks(), nil),
		Templates: templates(t),
		Quirks:    DefaultQuirks(),
		TempDir:   t.TempDir(),
		Logger:    logger,
	}
	c, _ := Find("non_frag_pull_basic")
	if err := r.Run(c); err != nil {
		t.Fatal(err)
	}
	want := "non_frag_pull_basic: segment running=[0:00:00.000000000, 0:00:02.000000000]"
	for _, line := range logger.debug {
		if line == want {
			return
		}
	}
	t.Errorf("no %q in debug output %q", want, logger.debug)
}
