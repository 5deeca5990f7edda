package mp4io

import (
	"fmt"

	"github.com/deepch/vdk/utils/bits/pio"
)

const MOOV = Tag(0x6d6f6f76)

type Movie struct {
	Header      *MovieHeader
	Tracks      []*Track
	MovieExtend *MovieExtend
	Unknowns    []Atom
	AtomPos
}

func (a Movie) Marshal(b []byte) (n int) {
	n = 8
	if a.Header != nil {
		n += a.Header.Marshal(b[n:])
	}
	for _, atom := range a.Tracks {
		n += atom.Marshal(b[n:])
	}
	if a.MovieExtend != nil {
		n += a.MovieExtend.Marshal(b[n:])
	}
	for _, atom := range a.Unknowns {
		n += atom.Marshal(b[n:])
	}
	putHeader(b, MOOV, n)
	return
}

func (a Movie) Len() (n int) {
	n = 8
	if a.Header != nil {
		n += a.Header.Len()
	}
	for _, atom := range a.Tracks {
		n += atom.Len()
	}
	if a.MovieExtend != nil {
		n += a.MovieExtend.Len()
	}
	for _, atom := range a.Unknowns {
		n += atom.Len()
	}
	return
}

func (a *Movie) Unmarshal(b []byte, offset int) (n int, err error) {
	a.setPos(offset, len(b))
	a.Unknowns, err = walkChildren(b, 8, offset, func(tag Tag, body []byte, pos int) (bool, error) {
		switch tag {
		case MVHD:
			a.Header = &MovieHeader{}
			_, err := a.Header.Unmarshal(body, pos)
			return true, err
		case TRAK:
			atom := &Track{}
			a.Tracks = append(a.Tracks, atom)
			_, err := atom.Unmarshal(body, pos)
			return true, err
		case MVEX:
			a.MovieExtend = &MovieExtend{}
			_, err := a.MovieExtend.Unmarshal(body, pos)
			return true, err
		}
		return false, nil
	})
	return len(b), err
}

func (a Movie) Children() (r []Atom) {
	if a.Header != nil {
		r = append(r, a.Header)
	}
	for _, atom := range a.Tracks {
		r = append(r, atom)
	}
	if a.MovieExtend != nil {
		r = append(r, a.MovieExtend)
	}
	r = append(r, a.Unknowns...)
	return
}

func (a Movie) Tag() Tag {
	return MOOV
}

const MVHD = Tag(0x6d766864)

// MovieHeader is a version 0 mvhd. Creation and modification times are
// always written as zero.
type MovieHeader struct {
	Version         uint8
	Flags           uint32
	TimeScale       uint32
	Duration        uint32
	PreferredRate   float64
	PreferredVolume float64
	Matrix          [9]int32
	NextTrackID     uint32
	AtomPos
}

func (a MovieHeader) Marshal(b []byte) (n int) {
	n = 8
	n += putFullHeader(b[n:], a.Version, a.Flags)
	n += 8
	pio.PutU32BE(b[n:], a.TimeScale)
	n += 4
	pio.PutU32BE(b[n:], a.Duration)
	n += 4
	PutFixed32(b[n:], a.PreferredRate)
	n += 4
	PutFixed16(b[n:], a.PreferredVolume)
	n += 2
	n += 10
	for _, entry := range a.Matrix {
		pio.PutI32BE(b[n:], entry)
		n += 4
	}
	n += 24
	pio.PutU32BE(b[n:], a.NextTrackID)
	n += 4
	putHeader(b, MVHD, n)
	return
}

func (a MovieHeader) Len() int {
	return 108
}

func (a *MovieHeader) Unmarshal(b []byte, offset int) (n int, err error) {
	a.setPos(offset, len(b))
	if len(b) < a.Len() {
		err = parseErr("mvhd", offset, nil)
		return
	}
	if a.Version, a.Flags, err = getFullHeader(b, 8, offset); err != nil {
		return
	}
	if a.Version != 0 {
		err = parseErr("Version", offset+8, fmt.Errorf("mvhd version %d not supported", a.Version))
		return
	}
	n = 20
	a.TimeScale = pio.U32BE(b[n:])
	a.Duration = pio.U32BE(b[n+4:])
	a.PreferredRate = GetFixed32(b[n+8:])
	a.PreferredVolume = GetFixed16(b[n+12:])
	n += 24
	for i := range a.Matrix {
		a.Matrix[i] = pio.I32BE(b[n:])
		n += 4
	}
	n += 24
	a.NextTrackID = pio.U32BE(b[n:])
	n += 4
	return
}

func (a MovieHeader) Children() (r []Atom) {
	return
}

func (a MovieHeader) Tag() Tag {
	return MVHD
}

func (a MovieHeader) String() string {
	return fmt.Sprintf("timescale=%d dur=%d", a.TimeScale, a.Duration)
}

const TRAK = Tag(0x7472616b)

// Track is a trak box. EditList and Free sit between tkhd and mdia, the
// place where a muxer writes edts.
type Track struct {
	Header   *TrackHeader
	EditList *EditListBox
	Free     *Free
	Media    *Media
	Unknowns []Atom
	AtomPos
}

func (a Track) Marshal(b []byte) (n int) {
	n = 8
	if a.Header != nil {
		n += a.Header.Marshal(b[n:])
	}
	if a.EditList != nil {
		n += a.EditList.Marshal(b[n:])
	}
	if a.Free != nil {
		n += a.Free.Marshal(b[n:])
	}
	if a.Media != nil {
		n += a.Media.Marshal(b[n:])
	}
	for _, atom := range a.Unknowns {
		n += atom.Marshal(b[n:])
	}
	putHeader(b, TRAK, n)
	return
}

func (a Track) Len() (n int) {
	n = 8
	if a.Header != nil {
		n += a.Header.Len()
	}
	if a.EditList != nil {
		n += a.EditList.Len()
	}
	if a.Free != nil {
		n += a.Free.Len()
	}
	if a.Media != nil {
		n += a.Media.Len()
	}
	for _, atom := range a.Unknowns {
		n += atom.Len()
	}
	return
}

func (a *Track) Unmarshal(b []byte, offset int) (n int, err error) {
	a.setPos(offset, len(b))
	a.Unknowns, err = walkChildren(b, 8, offset, func(tag Tag, body []byte, pos int) (bool, error) {
		switch tag {
		case TKHD:
			a.Header = &TrackHeader{}
			_, err := a.Header.Unmarshal(body, pos)
			return true, err
		case EDTS:
			a.EditList = &EditListBox{}
			_, err := a.EditList.Unmarshal(body, pos)
			return true, err
		case FREE:
			if a.Free != nil {
				return false, nil
			}
			a.Free = &Free{}
			_, err := a.Free.Unmarshal(body, pos)
			return true, err
		case MDIA:
			a.Media = &Media{}
			_, err := a.Media.Unmarshal(body, pos)
			return true, err
		}
		return false, nil
	})
	return len(b), err
}

func (a Track) Children() (r []Atom) {
	if a.Header != nil {
		r = append(r, a.Header)
	}
	if a.EditList != nil {
		r = append(r, a.EditList)
	}
	if a.Free != nil {
		r = append(r, a.Free)
	}
	if a.Media != nil {
		r = append(r, a.Media)
	}
	r = append(r, a.Unknowns...)
	return
}

func (a Track) Tag() Tag {
	return TRAK
}

const TKHD = Tag(0x746b6864)

// TrackHeader is a version 0 tkhd.
type TrackHeader struct {
	Version        uint8
	Flags          uint32
	TrackID        uint32
	Duration       uint32
	Layer          int16
	AlternateGroup int16
	Volume         float64
	Matrix         [9]int32
	TrackWidth     float64
	TrackHeight    float64
	AtomPos
}

func (a TrackHeader) Marshal(b []byte) (n int) {
	n = 8
	n += putFullHeader(b[n:], a.Version, a.Flags)
	n += 8
	pio.PutU32BE(b[n:], a.TrackID)
	n += 8
	pio.PutU32BE(b[n:], a.Duration)
	n += 12
	pio.PutI16BE(b[n:], a.Layer)
	n += 2
	pio.PutI16BE(b[n:], a.AlternateGroup)
	n += 2
	PutFixed16(b[n:], a.Volume)
	n += 4
	for _, entry := range a.Matrix {
		pio.PutI32BE(b[n:], entry)
		n += 4
	}
	PutFixed32(b[n:], a.TrackWidth)
	n += 4
	PutFixed32(b[n:], a.TrackHeight)
	n += 4
	putHeader(b, TKHD, n)
	return
}

func (a TrackHeader) Len() int {
	return 92
}

func (a *TrackHeader) Unmarshal(b []byte, offset int) (n int, err error) {
	a.setPos(offset, len(b))
	if len(b) < a.Len() {
		err = parseErr("tkhd", offset, nil)
		return
	}
	if a.Version, a.Flags, err = getFullHeader(b, 8, offset); err != nil {
		return
	}
	if a.Version != 0 {
		err = parseErr("Version", offset+8, fmt.Errorf("tkhd version %d not supported", a.Version))
		return
	}
	a.TrackID = pio.U32BE(b[20:])
	a.Duration = pio.U32BE(b[28:])
	a.Layer = pio.I16BE(b[40:])
	a.AlternateGroup = pio.I16BE(b[42:])
	a.Volume = GetFixed16(b[44:])
	n = 48
	for i := range a.Matrix {
		a.Matrix[i] = pio.I32BE(b[n:])
		n += 4
	}
	a.TrackWidth = GetFixed32(b[n:])
	a.TrackHeight = GetFixed32(b[n+4:])
	n += 8
	return
}

func (a TrackHeader) Children() (r []Atom) {
	return
}

func (a TrackHeader) Tag() Tag {
	return TKHD
}

func (a TrackHeader) String() string {
	return fmt.Sprintf("id=%d dur=%d", a.TrackID, a.Duration)
}
