package segment

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNew(t *testing.T) {
	want := Segment{Rate: 1, AppliedRate: 1, Stop: None, Duration: None}
	if diff := cmp.Diff(want, New()); diff != "" {
		t.Errorf("default segment (-want +got):\n%s", diff)
	}
}

func TestContinueChain(t *testing.T) {
	s1 := Continue(New(), 333333333, 333333333)
	s2 := Continue(s1, 1333333333, 666666667)
	s3 := Continue(s2, 333333333, 1000000000)

	values := []struct {
		S                       Segment
		Base, Start, Stop, Time ClockTime
	}{
		{s1, 0, 333333333, 666666666, 0},
		{s2, 333333333, 1333333333, 2000000000, 333333333},
		{s3, 1000000000, 333333333, 1333333333, 1000000000},
	}
	for i, ex := range values {
		if ex.S.Base != ex.Base || ex.S.Start != ex.Start || ex.S.Stop != ex.Stop || ex.S.Time != ex.Time {
			t.Errorf("segment %d: got %s", i+1, ex.S)
		}
		if ex.S.Rate != 1 || ex.S.AppliedRate != 1 || ex.S.Offset != 0 {
			t.Errorf("segment %d: unexpected rates or offset: %s", i+1, ex.S)
		}
	}
}

func TestContinueUnbounded(t *testing.T) {
	s := Continue(New(), 0, None)
	if s.Stop != None || s.Duration != None {
		t.Errorf("expected unbounded segment, got %s", s)
	}
	// an unbounded predecessor does not advance time or base
	next := Continue(s, 100, 50)
	if next.Time != 0 || next.Base != 0 || next.Stop != 150 {
		t.Errorf("got %s", next)
	}
}

func TestEmpty(t *testing.T) {
	s := Empty(333333333, 666666667)
	want := New()
	want.Time, want.Base, want.Start, want.Stop = 333333333, 333333333, 333333333, 1000000000
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("empty segment (-want +got):\n%s", diff)
	}
}

func TestToStreamTime(t *testing.T) {
	clip := Continue(Continue(New(), 333333333, 333333333), 2000000000, 333333333)
	reverse := New()
	reverse.AppliedRate = -1
	reverse.Start, reverse.Time = 1000, 5000
	double := New()
	double.AppliedRate = 2
	double.Start, double.Time = 1000, 0

	values := []struct {
		S   Segment
		Pos ClockTime
		V   int64
	}{
		{New(), 333333333, 333333333},
		{Continue(New(), 333333333, 2000000000), 333333333, 0},
		{Continue(New(), 333333333, 2000000000), 1000000000, 666666667},
		{clip, 2000000000, 333333333},
		{clip, 1333333333, -333333334},
		{clip, 1666666666, -1},
		{reverse, 2000, 4000},
		{reverse, 500, 5500},
		{reverse, 7000, -1000},
		{double, 1500, 1000},
		{double, 500, -1000},
	}
	for i, ex := range values {
		v, err := ex.S.ToStreamTime(ex.Pos)
		if err != nil {
			t.Fatalf("%d: %v", i, err)
		}
		if v != ex.V {
			t.Errorf("%d: pos %s: expected %d, got %d", i, ex.Pos, ex.V, v)
		}
	}

	if _, err := New().ToStreamTime(None); !errors.Is(err, ErrNoTime) {
		t.Errorf("expected ErrNoTime, got %v", err)
	}
	noTime := New()
	noTime.Time = None
	if _, err := noTime.ToStreamTime(0); !errors.Is(err, ErrNoTime) {
		t.Errorf("expected ErrNoTime, got %v", err)
	}
}

func TestToRunningTime(t *testing.T) {
	s := Continue(Continue(New(), 333333333, 333333333), 1333333333, 666666667)
	if rt, ok := s.ToRunningTime(1333333333); !ok || rt != 333333333 {
		t.Errorf("got %s %v", rt, ok)
	}
	if _, ok := s.ToRunningTime(1000000000); ok {
		t.Error("position before start is not in segment")
	}
	if _, ok := s.ToRunningTime(2000000001); ok {
		t.Error("position after stop is not in segment")
	}
}

func TestFormat(t *testing.T) {
	values := []struct {
		S, V string
	}{
		{FormatTime(0), "0:00:00.000000000"},
		{FormatTime(1333333333), "0:00:01.333333333"},
		{FormatTime(ClockTime(3723) * 1000000000), "1:02:03.000000000"},
		{FormatTime(None), "99:99:99.999999999"},
		{FormatSTime(-333333334), "-0:00:00.333333334"},
		{FormatSTime(666666667), "+0:00:00.666666667"},
	}
	for _, ex := range values {
		if ex.S != ex.V {
			t.Errorf("expected %s, got %s", ex.V, ex.S)
		}
	}
}
