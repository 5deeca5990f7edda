package mp4io

import (
	"fmt"

	"github.com/deepch/vdk/utils/bits/pio"
)

const MVEX = Tag(0x6d766578)

type MovieExtend struct {
	Header   *MovieExtendHeader
	Tracks   []*TrackExtend
	Unknowns []Atom
	AtomPos
}

func (a MovieExtend) Marshal(b []byte) (n int) {
	n = 8
	for _, atom := range a.Children() {
		n += atom.Marshal(b[n:])
	}
	putHeader(b, MVEX, n)
	return
}

func (a MovieExtend) Len() (n int) {
	n = 8
	for _, atom := range a.Children() {
		n += atom.Len()
	}
	return
}

func (a *MovieExtend) Unmarshal(b []byte, offset int) (n int, err error) {
	a.setPos(offset, len(b))
	a.Unknowns, err = walkChildren(b, 8, offset, func(tag Tag, body []byte, pos int) (bool, error) {
		switch tag {
		case MEHD:
			a.Header = &MovieExtendHeader{}
			_, err := a.Header.Unmarshal(body, pos)
			return true, err
		case TREX:
			atom := &TrackExtend{}
			a.Tracks = append(a.Tracks, atom)
			_, err := atom.Unmarshal(body, pos)
			return true, err
		}
		return false, nil
	})
	return len(b), err
}

func (a MovieExtend) Children() (r []Atom) {
	if a.Header != nil {
		r = append(r, a.Header)
	}
	for _, atom := range a.Tracks {
		r = append(r, atom)
	}
	return append(r, a.Unknowns...)
}

func (a MovieExtend) Tag() Tag {
	return MVEX
}

const MEHD = Tag(0x6d656864)

// MovieExtendHeader carries the overall duration of a fragmented movie in
// the movie timescale.
type MovieExtendHeader struct {
	Version          uint8
	Flags            uint32
	FragmentDuration uint64
	AtomPos
}

func (a MovieExtendHeader) Marshal(b []byte) (n int) {
	n = 8
	n += putFullHeader(b[n:], a.Version, a.Flags)
	if a.Version == 1 {
		pio.PutU64BE(b[n:], a.FragmentDuration)
		n += 8
	} else {
		pio.PutU32BE(b[n:], uint32(a.FragmentDuration))
		n += 4
	}
	putHeader(b, MEHD, n)
	return
}

func (a MovieExtendHeader) Len() int {
	if a.Version == 1 {
		return 20
	}
	return 16
}

func (a *MovieExtendHeader) Unmarshal(b []byte, offset int) (n int, err error) {
	a.setPos(offset, len(b))
	if a.Version, a.Flags, err = getFullHeader(b, 8, offset); err != nil {
		return
	}
	if len(b) < a.Len() {
		err = parseErr("FragmentDuration", offset+12, nil)
		return
	}
	if a.Version == 1 {
		a.FragmentDuration = pio.U64BE(b[12:])
	} else {
		a.FragmentDuration = uint64(pio.U32BE(b[12:]))
	}
	return a.Len(), nil
}

func (a MovieExtendHeader) Children() (r []Atom) {
	return
}

func (a MovieExtendHeader) Tag() Tag {
	return MEHD
}

func (a MovieExtendHeader) String() string {
	return fmt.Sprintf("dur=%d", a.FragmentDuration)
}

const TREX = Tag(0x74726578)

type TrackExtend struct {
	Version               uint8
	Flags                 uint32
	TrackID               uint32
	DefaultSampleDescIdx  uint32
	DefaultSampleDuration uint32
	DefaultSampleSize     uint32
	DefaultSampleFlags    SampleFlags
	AtomPos
}

func (a TrackExtend) Marshal(b []byte) (n int) {
	n = 8
	n += putFullHeader(b[n:], a.Version, a.Flags)
	for _, v := range [...]uint32{a.TrackID, a.DefaultSampleDescIdx, a.DefaultSampleDuration, a.DefaultSampleSize, uint32(a.DefaultSampleFlags)} {
		pio.PutU32BE(b[n:], v)
		n += 4
	}
	putHeader(b, TREX, n)
	return
}

func (a TrackExtend) Len() int {
	return 32
}

func (a *TrackExtend) Unmarshal(b []byte, offset int) (n int, err error) {
	a.setPos(offset, len(b))
	if len(b) < a.Len() {
		err = parseErr("trex", offset, nil)
		return
	}
	if a.Version, a.Flags, err = getFullHeader(b, 8, offset); err != nil {
		return
	}
	a.TrackID = pio.U32BE(b[12:])
	a.DefaultSampleDescIdx = pio.U32BE(b[16:])
	a.DefaultSampleDuration = pio.U32BE(b[20:])
	a.DefaultSampleSize = pio.U32BE(b[24:])
	a.DefaultSampleFlags = SampleFlags(pio.U32BE(b[28:]))
	return 32, nil
}

func (a TrackExtend) Children() (r []Atom) {
	return
}

func (a TrackExtend) Tag() Tag {
	return TREX
}
