// Package vdkmp4 drives the vdk MP4 demuxer as a demux.Demuxer.
package vdkmp4

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/deepch/elstcheck/demux"
	"github.com/deepch/elstcheck/format/mp4/mp4io"
	"github.com/deepch/elstcheck/format/mp4/timescale"
	"github.com/deepch/elstcheck/segment"
	"github.com/deepch/vdk/av"
	"github.com/deepch/vdk/format/mp4"
)

var (
	ErrNoVideo      = errors.New("vdkmp4: no video stream")
	ErrSeekRefused  = errors.New("vdkmp4: seeking refused")
	ErrNoMovieFound = errors.New("vdkmp4: no moov")
)

// Demuxer runs vdk's mp4 demuxer. The vdk demuxer always reads through a
// seeker, so Push behaves like Pull and PushNoSeek fails on the first
// seek that moves the read position.
type Demuxer struct{}

func New() *Demuxer {
	return &Demuxer{}
}

type timing struct {
	movie segment.ClockTime
	track segment.ClockTime
}

// probe reads the durations vdk does not expose.
func probe(r io.ReadSeeker) (t timing, err error) {
	atoms, err := mp4io.ReadFileAtoms(r)
	if err != nil {
		return
	}
	t.movie, t.track = segment.None, segment.None
	for _, atom := range atoms {
		moov, ok := atom.(*mp4io.Movie)
		if !ok {
			continue
		}
		if moov.Header != nil && moov.Header.TimeScale != 0 {
			t.movie = segment.ClockTime(timescale.FromScale(uint64(moov.Header.Duration), moov.Header.TimeScale))
		}
		if mdhd, ok := mp4io.FindChildren(moov, mp4io.MDHD).(*mp4io.MediaHeader); ok && mdhd.TimeScale != 0 {
			t.track = segment.ClockTime(timescale.FromScale(uint64(mdhd.Duration), mdhd.TimeScale))
		}
		_, err = r.Seek(0, io.SeekStart)
		return
	}
	err = ErrNoMovieFound
	return
}

type noSeekReader struct {
	r   io.Reader
	pos int64
}

func (n *noSeekReader) Read(p []byte) (int, error) {
	c, err := n.r.Read(p)
	n.pos += int64(c)
	return c, err
}

func (n *noSeekReader) Seek(offset int64, whence int) (int64, error) {
	target := offset
	switch whence {
	case io.SeekCurrent:
		target += n.pos
	case io.SeekEnd:
		return n.pos, ErrSeekRefused
	}
	if target != n.pos {
		return n.pos, fmt.Errorf("%w: from %d to %d", ErrSeekRefused, n.pos, target)
	}
	return n.pos, nil
}

func (d *Demuxer) Demux(path string, mode demux.Delivery, sink demux.Sink) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("vdkmp4: %w", err)
	}
	defer f.Close()

	t, err := probe(f)
	if err != nil {
		return fmt.Errorf("vdkmp4: probing %s: %w", path, err)
	}

	var r io.ReadSeeker = f
	if mode == demux.PushNoSeek {
		r = &noSeekReader{r: f}
	}
	dmx := mp4.NewDemuxer(r)
	streams, err := dmx.Streams()
	if err != nil {
		return fmt.Errorf("vdkmp4: %w", err)
	}
	video := -1
	for i, s := range streams {
		if s.Type().IsVideo() {
			video = i
			break
		}
	}
	if video < 0 {
		return ErrNoVideo
	}

	if err := sink.OnSegment(segment.Continue(segment.New(), 0, t.movie)); err != nil {
		return err
	}

	// a packet's duration is only known once the next one is read
	var pending *av.Packet
	flush := func(next time.Duration) error {
		if pending == nil {
			return nil
		}
		pts := pending.Time + pending.CompositionTime
		return sink.OnBuffer(segment.ClockTime(pts), segment.ClockTime(next-pending.Time))
	}
	for {
		pkt, err := dmx.ReadPacket()
		if err == io.EOF {
			end := time.Duration(t.track)
			if pending != nil && !t.track.Valid() {
				end = pending.Time
			}
			return flush(end)
		}
		if err != nil {
			return fmt.Errorf("vdkmp4: %w", err)
		}
		if int(pkt.Idx) != video {
			continue
		}
		if err := flush(pkt.Time); err != nil {
			return err
		}
		pending = &pkt
	}
}
