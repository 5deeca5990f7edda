package vdkmp4

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/deepch/elstcheck/format/mp4/movietpl"
)

func TestProbe(t *testing.T) {
	tpl, err := movietpl.Synthesize(movietpl.Options{})
	if err != nil {
		t.Fatal(err)
	}
	r := tpl.Raw().Reader()
	tm, err := probe(r)
	if err != nil {
		t.Fatal(err)
	}
	if tm.movie != 2000000000 || tm.track != 2000000000 {
		t.Errorf("unexpected durations %s %s", tm.movie, tm.track)
	}
	if pos, _ := r.Seek(0, io.SeekCurrent); pos != 0 {
		t.Errorf("reader left at %d", pos)
	}

	if _, err := probe(bytes.NewReader(nil)); !errors.Is(err, ErrNoMovieFound) {
		t.Errorf("expected ErrNoMovieFound, got %v", err)
	}
}

func TestNoSeekReader(t *testing.T) {
	r := &noSeekReader{r: bytes.NewReader([]byte("0123456789"))}
	p := make([]byte, 4)
	if _, err := io.ReadFull(r, p); err != nil {
		t.Fatal(err)
	}
	if pos, err := r.Seek(0, io.SeekCurrent); err != nil || pos != 4 {
		t.Errorf("tell: %d %v", pos, err)
	}
	if _, err := r.Seek(4, io.SeekStart); err != nil {
		t.Errorf("seek to current position: %v", err)
	}
	if _, err := r.Seek(0, io.SeekStart); !errors.Is(err, ErrSeekRefused) {
		t.Errorf("expected ErrSeekRefused, got %v", err)
	}
	if _, err := r.Seek(0, io.SeekEnd); !errors.Is(err, ErrSeekRefused) {
		t.Errorf("expected ErrSeekRefused, got %v", err)
	}
}
