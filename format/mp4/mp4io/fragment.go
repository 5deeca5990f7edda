package mp4io

import (
	"fmt"

	"github.com/deepch/vdk/utils/bits/pio"
)

const MOOF = Tag(0x6d6f6f66)

type MovieFrag struct {
	Header   *MovieFragHeader
	Tracks   []*TrackFrag
	Unknowns []Atom
	AtomPos
}

func (a MovieFrag) Marshal(b []byte) (n int) {
	n = 8
	for _, atom := range a.Children() {
		n += atom.Marshal(b[n:])
	}
	putHeader(b, MOOF, n)
	return
}

func (a MovieFrag) Len() (n int) {
	n = 8
	for _, atom := range a.Children() {
		n += atom.Len()
	}
	return
}

func (a *MovieFrag) Unmarshal(b []byte, offset int) (n int, err error) {
	a.setPos(offset, len(b))
	a.Unknowns, err = walkChildren(b, 8, offset, func(tag Tag, body []byte, pos int) (bool, error) {
		switch tag {
		case MFHD:
			a.Header = &MovieFragHeader{}
			_, err := a.Header.Unmarshal(body, pos)
			return true, err
		case TRAF:
			atom := &TrackFrag{}
			a.Tracks = append(a.Tracks, atom)
			_, err := atom.Unmarshal(body, pos)
			return true, err
		}
		return false, nil
	})
	return len(b), err
}

func (a MovieFrag) Children() (r []Atom) {
	if a.Header != nil {
		r = append(r, a.Header)
	}
	for _, atom := range a.Tracks {
		r = append(r, atom)
	}
	return append(r, a.Unknowns...)
}

func (a MovieFrag) Tag() Tag {
	return MOOF
}

const MFHD = Tag(0x6d666864)

type MovieFragHeader struct {
	Version uint8
	Flags   uint32
	Seqnum  uint32
	AtomPos
}

func (a MovieFragHeader) Marshal(b []byte) (n int) {
	n = 8
	n += putFullHeader(b[n:], a.Version, a.Flags)
	pio.PutU32BE(b[n:], a.Seqnum)
	n += 4
	putHeader(b, MFHD, n)
	return
}

func (a MovieFragHeader) Len() int {
	return 16
}

func (a *MovieFragHeader) Unmarshal(b []byte, offset int) (n int, err error) {
	a.setPos(offset, len(b))
	if a.Version, a.Flags, err = getFullHeader(b, 8, offset); err != nil {
		return
	}
	if len(b) < 16 {
		err = parseErr("Seqnum", offset+12, nil)
		return
	}
	a.Seqnum = pio.U32BE(b[12:])
	return 16, nil
}

func (a MovieFragHeader) Children() (r []Atom) {
	return
}

func (a MovieFragHeader) Tag() Tag {
	return MFHD
}

func (a MovieFragHeader) String() string {
	return fmt.Sprintf("seq=%d", a.Seqnum)
}

const TRAF = Tag(0x74726166)

type TrackFrag struct {
	Header     *TrackFragHeader
	DecodeTime *TrackFragDecodeTime
	Run        *TrackFragRun
	Unknowns   []Atom
	AtomPos
}

func (a TrackFrag) Marshal(b []byte) (n int) {
	n = 8
	for _, atom := range a.Children() {
		n += atom.Marshal(b[n:])
	}
	putHeader(b, TRAF, n)
	return
}

func (a TrackFrag) Len() (n int) {
	n = 8
	for _, atom := range a.Children() {
		n += atom.Len()
	}
	return
}

func (a *TrackFrag) Unmarshal(b []byte, offset int) (n int, err error) {
	a.setPos(offset, len(b))
	a.Unknowns, err = walkChildren(b, 8, offset, func(tag Tag, body []byte, pos int) (bool, error) {
		switch tag {
		case TFHD:
			a.Header = &TrackFragHeader{}
			_, err := a.Header.Unmarshal(body, pos)
			return true, err
		case TFDT:
			a.DecodeTime = &TrackFragDecodeTime{}
			_, err := a.DecodeTime.Unmarshal(body, pos)
			return true, err
		case TRUN:
			a.Run = &TrackFragRun{}
			_, err := a.Run.Unmarshal(body, pos)
			return true, err
		}
		return false, nil
	})
	return len(b), err
}

func (a TrackFrag) Children() (r []Atom) {
	if a.Header != nil {
		r = append(r, a.Header)
	}
	if a.DecodeTime != nil {
		r = append(r, a.DecodeTime)
	}
	if a.Run != nil {
		r = append(r, a.Run)
	}
	return append(r, a.Unknowns...)
}

func (a TrackFrag) Tag() Tag {
	return TRAF
}

const TFHD = Tag(0x74666864)

type TrackFragHeader struct {
	Version         uint8
	Flags           TrackFragFlags
	TrackID         uint32
	BaseDataOffset  uint64
	StsdID          uint32
	DefaultDuration uint32
	DefaultSize     uint32
	DefaultFlags    SampleFlags
	AtomPos
}

type TrackFragFlags uint32

const (
	TrackFragBaseDataOffset    TrackFragFlags = 0x01
	TrackFragStsdID            TrackFragFlags = 0x02
	TrackFragDefaultDuration   TrackFragFlags = 0x08
	TrackFragDefaultSize       TrackFragFlags = 0x10
	TrackFragDefaultFlags      TrackFragFlags = 0x20
	TrackFragDurationIsEmpty   TrackFragFlags = 0x010000
	TrackFragDefaultBaseIsMOOF TrackFragFlags = 0x020000
)

// optional32 lists the 32-bit fields that follow the base data offset,
// in wire order, with the flag that enables each.
func (a *TrackFragHeader) optional32() []struct {
	flag TrackFragFlags
	v    *uint32
} {
	return []struct {
		flag TrackFragFlags
		v    *uint32
	}{
		{TrackFragStsdID, &a.StsdID},
		{TrackFragDefaultDuration, &a.DefaultDuration},
		{TrackFragDefaultSize, &a.DefaultSize},
		{TrackFragDefaultFlags, (*uint32)(&a.DefaultFlags)},
	}
}

func (a TrackFragHeader) Marshal(b []byte) (n int) {
	n = 8
	n += putFullHeader(b[n:], a.Version, uint32(a.Flags))
	pio.PutU32BE(b[n:], a.TrackID)
	n += 4
	if a.Flags&TrackFragBaseDataOffset != 0 {
		pio.PutU64BE(b[n:], a.BaseDataOffset)
		n += 8
	}
	for _, f := range a.optional32() {
		if a.Flags&f.flag != 0 {
			pio.PutU32BE(b[n:], *f.v)
			n += 4
		}
	}
	putHeader(b, TFHD, n)
	return
}

func (a TrackFragHeader) Len() (n int) {
	n = 16
	if a.Flags&TrackFragBaseDataOffset != 0 {
		n += 8
	}
	for _, f := range a.optional32() {
		if a.Flags&f.flag != 0 {
			n += 4
		}
	}
	return
}

func (a *TrackFragHeader) Unmarshal(b []byte, offset int) (n int, err error) {
	a.setPos(offset, len(b))
	var flags uint32
	if a.Version, flags, err = getFullHeader(b, 8, offset); err != nil {
		return
	}
	a.Flags = TrackFragFlags(flags)
	if len(b) < a.Len() {
		err = parseErr("tfhd", offset, fmt.Errorf("flags %#x need %d bytes", flags, a.Len()))
		return
	}
	n = 12
	a.TrackID = pio.U32BE(b[n:])
	n += 4
	if a.Flags&TrackFragBaseDataOffset != 0 {
		a.BaseDataOffset = pio.U64BE(b[n:])
		n += 8
	}
	for _, f := range a.optional32() {
		if a.Flags&f.flag != 0 {
			*f.v = pio.U32BE(b[n:])
			n += 4
		}
	}
	return
}

func (a TrackFragHeader) Children() (r []Atom) {
	return
}

func (a TrackFragHeader) Tag() Tag {
	return TFHD
}

func (a TrackFragHeader) String() string {
	return fmt.Sprintf("track=%d flags=%#x", a.TrackID, uint32(a.Flags))
}

const TFDT = Tag(0x74666474)

type TrackFragDecodeTime struct {
	Version uint8
	Flags   uint32
	Time    uint64
	AtomPos
}

func (a TrackFragDecodeTime) Marshal(b []byte) (n int) {
	n = 8
	n += putFullHeader(b[n:], a.Version, a.Flags)
	if a.Version != 0 {
		pio.PutU64BE(b[n:], a.Time)
		n += 8
	} else {
		pio.PutU32BE(b[n:], uint32(a.Time))
		n += 4
	}
	putHeader(b, TFDT, n)
	return
}

func (a TrackFragDecodeTime) Len() int {
	if a.Version != 0 {
		return 20
	}
	return 16
}

func (a *TrackFragDecodeTime) Unmarshal(b []byte, offset int) (n int, err error) {
	a.setPos(offset, len(b))
	if a.Version, a.Flags, err = getFullHeader(b, 8, offset); err != nil {
		return
	}
	if len(b) < a.Len() {
		err = parseErr("Time", offset+12, nil)
		return
	}
	if a.Version != 0 {
		a.Time = pio.U64BE(b[12:])
	} else {
		a.Time = uint64(pio.U32BE(b[12:]))
	}
	return a.Len(), nil
}

func (a TrackFragDecodeTime) Children() (r []Atom) {
	return
}

func (a TrackFragDecodeTime) Tag() Tag {
	return TFDT
}

func (a TrackFragDecodeTime) String() string {
	return fmt.Sprintf("time=%d", a.Time)
}

const TRUN = Tag(0x7472756e)

type TrackFragRun struct {
	Version          uint8
	Flags            TrackRunFlags
	DataOffset       int32
	FirstSampleFlags SampleFlags
	Entries          []TrackFragRunEntry
	AtomPos
}

type TrackFragRunEntry struct {
	Duration uint32
	Size     uint32
	Flags    SampleFlags
	CTS      int32
}

type TrackRunFlags uint32

const (
	TrackRunDataOffset       TrackRunFlags = 0x01
	TrackRunFirstSampleFlags TrackRunFlags = 0x04
	TrackRunSampleDuration   TrackRunFlags = 0x100
	TrackRunSampleSize       TrackRunFlags = 0x200
	TrackRunSampleFlags      TrackRunFlags = 0x400
	TrackRunSampleCTS        TrackRunFlags = 0x800
)

func (a TrackFragRun) entryLen() (n int) {
	for _, f := range [...]TrackRunFlags{TrackRunSampleDuration, TrackRunSampleSize, TrackRunSampleFlags, TrackRunSampleCTS} {
		if a.Flags&f != 0 {
			n += 4
		}
	}
	return
}

func (a TrackFragRun) headerLen() (n int) {
	n = 16
	if a.Flags&TrackRunDataOffset != 0 {
		n += 4
	}
	if a.Flags&TrackRunFirstSampleFlags != 0 {
		n += 4
	}
	return
}

func (a TrackFragRun) Marshal(b []byte) (n int) {
	n = 8
	n += putFullHeader(b[n:], a.Version, uint32(a.Flags))
	pio.PutU32BE(b[n:], uint32(len(a.Entries)))
	n += 4
	if a.Flags&TrackRunDataOffset != 0 {
		pio.PutI32BE(b[n:], a.DataOffset)
		n += 4
	}
	if a.Flags&TrackRunFirstSampleFlags != 0 {
		pio.PutU32BE(b[n:], uint32(a.FirstSampleFlags))
		n += 4
	}
	for _, entry := range a.Entries {
		if a.Flags&TrackRunSampleDuration != 0 {
			pio.PutU32BE(b[n:], entry.Duration)
			n += 4
		}
		if a.Flags&TrackRunSampleSize != 0 {
			pio.PutU32BE(b[n:], entry.Size)
			n += 4
		}
		if a.Flags&TrackRunSampleFlags != 0 {
			pio.PutU32BE(b[n:], uint32(entry.Flags))
			n += 4
		}
		if a.Flags&TrackRunSampleCTS != 0 {
			pio.PutI32BE(b[n:], entry.CTS)
			n += 4
		}
	}
	putHeader(b, TRUN, n)
	return
}

func (a TrackFragRun) Len() int {
	return a.headerLen() + a.entryLen()*len(a.Entries)
}

func (a *TrackFragRun) Unmarshal(b []byte, offset int) (n int, err error) {
	a.setPos(offset, len(b))
	var flags uint32
	if a.Version, flags, err = getFullHeader(b, 8, offset); err != nil {
		return
	}
	a.Flags = TrackRunFlags(flags)
	if len(b) < a.headerLen() {
		err = parseErr("trun", offset, nil)
		return
	}
	count := int(pio.U32BE(b[12:]))
	n = 16
	if a.Flags&TrackRunDataOffset != 0 {
		a.DataOffset = pio.I32BE(b[n:])
		n += 4
	}
	if a.Flags&TrackRunFirstSampleFlags != 0 {
		a.FirstSampleFlags = SampleFlags(pio.U32BE(b[n:]))
		n += 4
	}
	if len(b) < n+count*a.entryLen() {
		err = parseErr("Entries", offset+n, fmt.Errorf("%d entries do not fit in %d bytes", count, len(b)-n))
		return
	}
	a.Entries = make([]TrackFragRunEntry, count)
	for i := range a.Entries {
		entry := &a.Entries[i]
		if a.Flags&TrackRunSampleDuration != 0 {
			entry.Duration = pio.U32BE(b[n:])
			n += 4
		}
		if a.Flags&TrackRunSampleSize != 0 {
			entry.Size = pio.U32BE(b[n:])
			n += 4
		}
		if a.Flags&TrackRunSampleFlags != 0 {
			entry.Flags = SampleFlags(pio.U32BE(b[n:]))
			n += 4
		}
		if a.Flags&TrackRunSampleCTS != 0 {
			entry.CTS = pio.I32BE(b[n:])
			n += 4
		}
	}
	return
}

func (a TrackFragRun) Children() (r []Atom) {
	return
}

func (a TrackFragRun) Tag() Tag {
	return TRUN
}

func (a TrackFragRun) String() string {
	return fmt.Sprintf("samples=%d dataoffset=%d", len(a.Entries), a.DataOffset)
}
