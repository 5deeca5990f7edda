package mp4io

import (
	"fmt"

	"github.com/deepch/vdk/utils/bits/pio"
)

const STBL = Tag(0x7374626c)

type SampleTable struct {
	SampleDesc        *SampleDesc
	TimeToSample      *TimeToSample
	CompositionOffset *CompositionOffset
	SyncSample        *SyncSample
	SampleSize        *SampleSize
	SampleToChunk     *SampleToChunk
	ChunkOffset       *ChunkOffset
	Unknowns          []Atom
	AtomPos
}

func (a SampleTable) atoms() (r []Atom) {
	if a.SampleDesc != nil {
		r = append(r, a.SampleDesc)
	}
	if a.TimeToSample != nil {
		r = append(r, a.TimeToSample)
	}
	if a.CompositionOffset != nil {
		r = append(r, a.CompositionOffset)
	}
	if a.SyncSample != nil {
		r = append(r, a.SyncSample)
	}
	if a.SampleSize != nil {
		r = append(r, a.SampleSize)
	}
	if a.SampleToChunk != nil {
		r = append(r, a.SampleToChunk)
	}
	if a.ChunkOffset != nil {
		r = append(r, a.ChunkOffset)
	}
	return append(r, a.Unknowns...)
}

func (a SampleTable) Marshal(b []byte) (n int) {
	n = 8
	for _, atom := range a.atoms() {
		n += atom.Marshal(b[n:])
	}
	putHeader(b, STBL, n)
	return
}

func (a SampleTable) Len() (n int) {
	n = 8
	for _, atom := range a.atoms() {
		n += atom.Len()
	}
	return
}

func (a *SampleTable) Unmarshal(b []byte, offset int) (n int, err error) {
	a.setPos(offset, len(b))
	a.Unknowns, err = walkChildren(b, 8, offset, func(tag Tag, body []byte, pos int) (bool, error) {
		var atom Atom
		switch tag {
		case STSD:
			a.SampleDesc = &SampleDesc{}
			atom = a.SampleDesc
		case STTS:
			a.TimeToSample = &TimeToSample{}
			atom = a.TimeToSample
		case CTTS:
			a.CompositionOffset = &CompositionOffset{}
			atom = a.CompositionOffset
		case STSS:
			a.SyncSample = &SyncSample{}
			atom = a.SyncSample
		case STSZ:
			a.SampleSize = &SampleSize{}
			atom = a.SampleSize
		case STSC:
			a.SampleToChunk = &SampleToChunk{}
			atom = a.SampleToChunk
		case STCO:
			a.ChunkOffset = &ChunkOffset{}
			atom = a.ChunkOffset
		default:
			return false, nil
		}
		_, err := atom.Unmarshal(body, pos)
		return true, err
	})
	return len(b), err
}

func (a SampleTable) Children() []Atom {
	return a.atoms()
}

func (a SampleTable) Tag() Tag {
	return STBL
}

const STSD = Tag(0x73747364)

type SampleDesc struct {
	Version  uint8
	Flags    uint32
	AVC1Desc *AVC1Desc
	Unknowns []Atom
	AtomPos
}

func (a SampleDesc) Marshal(b []byte) (n int) {
	n = 8
	n += putFullHeader(b[n:], a.Version, a.Flags)
	count := len(a.Unknowns)
	if a.AVC1Desc != nil {
		count++
	}
	pio.PutU32BE(b[n:], uint32(count))
	n += 4
	if a.AVC1Desc != nil {
		n += a.AVC1Desc.Marshal(b[n:])
	}
	for _, atom := range a.Unknowns {
		n += atom.Marshal(b[n:])
	}
	putHeader(b, STSD, n)
	return
}

func (a SampleDesc) Len() (n int) {
	n = 16
	if a.AVC1Desc != nil {
		n += a.AVC1Desc.Len()
	}
	for _, atom := range a.Unknowns {
		n += atom.Len()
	}
	return
}

func (a *SampleDesc) Unmarshal(b []byte, offset int) (n int, err error) {
	a.setPos(offset, len(b))
	if a.Version, a.Flags, err = getFullHeader(b, 8, offset); err != nil {
		return
	}
	a.Unknowns, err = walkChildren(b, 16, offset, func(tag Tag, body []byte, pos int) (bool, error) {
		if tag != AVC1 || a.AVC1Desc != nil {
			return false, nil
		}
		a.AVC1Desc = &AVC1Desc{}
		_, err := a.AVC1Desc.Unmarshal(body, pos)
		return true, err
	})
	return len(b), err
}

func (a SampleDesc) Children() (r []Atom) {
	if a.AVC1Desc != nil {
		r = append(r, a.AVC1Desc)
	}
	return append(r, a.Unknowns...)
}

func (a SampleDesc) Tag() Tag {
	return STSD
}

// putTable writes the version/flags word, the entry count and count
// entries of width bytes each through put.
func putTable(b []byte, tag Tag, version uint8, flags uint32, count, width int, put func(b []byte, i int)) (n int) {
	n = 8
	n += putFullHeader(b[n:], version, flags)
	pio.PutU32BE(b[n:], uint32(count))
	n += 4
	for i := 0; i < count; i++ {
		put(b[n:], i)
		n += width
	}
	putHeader(b, tag, n)
	return
}

// getTable checks a table box and returns its entry count.
func getTable(b []byte, offset int, width int) (version uint8, flags uint32, count int, err error) {
	if version, flags, err = getFullHeader(b, 8, offset); err != nil {
		return
	}
	if len(b) < 16 {
		err = parseErr("len", offset+12, nil)
		return
	}
	count = int(pio.U32BE(b[12:]))
	if len(b) < 16+count*width {
		err = parseErr("Entries", offset+16, fmt.Errorf("%d entries do not fit in %d bytes", count, len(b)-16))
	}
	return
}

const STTS = Tag(0x73747473)

type TimeToSample struct {
	Version uint8
	Flags   uint32
	Entries []TimeToSampleEntry
	AtomPos
}

type TimeToSampleEntry struct {
	Count    uint32
	Duration uint32
}

func (a TimeToSample) Marshal(b []byte) int {
	return putTable(b, STTS, a.Version, a.Flags, len(a.Entries), 8, func(b []byte, i int) {
		pio.PutU32BE(b, a.Entries[i].Count)
		pio.PutU32BE(b[4:], a.Entries[i].Duration)
	})
}

func (a TimeToSample) Len() int {
	return 16 + 8*len(a.Entries)
}

func (a *TimeToSample) Unmarshal(b []byte, offset int) (n int, err error) {
	a.setPos(offset, len(b))
	var count int
	if a.Version, a.Flags, count, err = getTable(b, offset, 8); err != nil {
		return
	}
	a.Entries = make([]TimeToSampleEntry, count)
	for i := range a.Entries {
		e := b[16+8*i:]
		a.Entries[i] = TimeToSampleEntry{Count: pio.U32BE(e), Duration: pio.U32BE(e[4:])}
	}
	return len(b), nil
}

func (a TimeToSample) Children() (r []Atom) {
	return
}

func (a TimeToSample) Tag() Tag {
	return STTS
}

const CTTS = Tag(0x63747473)

// CompositionOffset is a ctts box. Offsets are signed, as allowed by
// version 1.
type CompositionOffset struct {
	Version uint8
	Flags   uint32
	Entries []CompositionOffsetEntry
	AtomPos
}

type CompositionOffsetEntry struct {
	Count  uint32
	Offset int32
}

func (a CompositionOffset) Marshal(b []byte) int {
	return putTable(b, CTTS, a.Version, a.Flags, len(a.Entries), 8, func(b []byte, i int) {
		pio.PutU32BE(b, a.Entries[i].Count)
		pio.PutI32BE(b[4:], a.Entries[i].Offset)
	})
}

func (a CompositionOffset) Len() int {
	return 16 + 8*len(a.Entries)
}

func (a *CompositionOffset) Unmarshal(b []byte, offset int) (n int, err error) {
	a.setPos(offset, len(b))
	var count int
	if a.Version, a.Flags, count, err = getTable(b, offset, 8); err != nil {
		return
	}
	a.Entries = make([]CompositionOffsetEntry, count)
	for i := range a.Entries {
		e := b[16+8*i:]
		a.Entries[i] = CompositionOffsetEntry{Count: pio.U32BE(e), Offset: pio.I32BE(e[4:])}
	}
	return len(b), nil
}

func (a CompositionOffset) Children() (r []Atom) {
	return
}

func (a CompositionOffset) Tag() Tag {
	return CTTS
}

const STSC = Tag(0x73747363)

type SampleToChunk struct {
	Version uint8
	Flags   uint32
	Entries []SampleToChunkEntry
	AtomPos
}

type SampleToChunkEntry struct {
	FirstChunk      uint32
	SamplesPerChunk uint32
	SampleDescId    uint32
}

func (a SampleToChunk) Marshal(b []byte) int {
	return putTable(b, STSC, a.Version, a.Flags, len(a.Entries), 12, func(b []byte, i int) {
		pio.PutU32BE(b, a.Entries[i].FirstChunk)
		pio.PutU32BE(b[4:], a.Entries[i].SamplesPerChunk)
		pio.PutU32BE(b[8:], a.Entries[i].SampleDescId)
	})
}

func (a SampleToChunk) Len() int {
	return 16 + 12*len(a.Entries)
}

func (a *SampleToChunk) Unmarshal(b []byte, offset int) (n int, err error) {
	a.setPos(offset, len(b))
	var count int
	if a.Version, a.Flags, count, err = getTable(b, offset, 12); err != nil {
		return
	}
	a.Entries = make([]SampleToChunkEntry, count)
	for i := range a.Entries {
		e := b[16+12*i:]
		a.Entries[i] = SampleToChunkEntry{FirstChunk: pio.U32BE(e), SamplesPerChunk: pio.U32BE(e[4:]), SampleDescId: pio.U32BE(e[8:])}
	}
	return len(b), nil
}

func (a SampleToChunk) Children() (r []Atom) {
	return
}

func (a SampleToChunk) Tag() Tag {
	return STSC
}

const STSS = Tag(0x73747373)

// SyncSample lists the 1-based numbers of random access samples.
type SyncSample struct {
	Version uint8
	Flags   uint32
	Entries []uint32
	AtomPos
}

func (a SyncSample) Marshal(b []byte) int {
	return putTable(b, STSS, a.Version, a.Flags, len(a.Entries), 4, func(b []byte, i int) {
		pio.PutU32BE(b, a.Entries[i])
	})
}

func (a SyncSample) Len() int {
	return 16 + 4*len(a.Entries)
}

func (a *SyncSample) Unmarshal(b []byte, offset int) (n int, err error) {
	a.setPos(offset, len(b))
	a.Version, a.Flags, a.Entries, err = getU32Table(b, offset)
	return len(b), err
}

func (a SyncSample) Children() (r []Atom) {
	return
}

func (a SyncSample) Tag() Tag {
	return STSS
}

const STCO = Tag(0x7374636f)

type ChunkOffset struct {
	Version uint8
	Flags   uint32
	Entries []uint32
	AtomPos
}

func (a ChunkOffset) Marshal(b []byte) int {
	return putTable(b, STCO, a.Version, a.Flags, len(a.Entries), 4, func(b []byte, i int) {
		pio.PutU32BE(b, a.Entries[i])
	})
}

func (a ChunkOffset) Len() int {
	return 16 + 4*len(a.Entries)
}

func (a *ChunkOffset) Unmarshal(b []byte, offset int) (n int, err error) {
	a.setPos(offset, len(b))
	a.Version, a.Flags, a.Entries, err = getU32Table(b, offset)
	return len(b), err
}

func (a ChunkOffset) Children() (r []Atom) {
	return
}

func (a ChunkOffset) Tag() Tag {
	return STCO
}

func getU32Table(b []byte, offset int) (version uint8, flags uint32, entries []uint32, err error) {
	var count int
	if version, flags, count, err = getTable(b, offset, 4); err != nil {
		return
	}
	entries = make([]uint32, count)
	for i := range entries {
		entries[i] = pio.U32BE(b[16+4*i:])
	}
	return
}

const STSZ = Tag(0x7374737a)

// SampleSize is an stsz box. A non-zero SampleSize means every sample has
// that size and no entries follow.
type SampleSize struct {
	Version    uint8
	Flags      uint32
	SampleSize uint32
	Entries    []uint32
	AtomPos
}

func (a SampleSize) Marshal(b []byte) (n int) {
	n = 8
	n += putFullHeader(b[n:], a.Version, a.Flags)
	pio.PutU32BE(b[n:], a.SampleSize)
	n += 4
	pio.PutU32BE(b[n:], uint32(len(a.Entries)))
	n += 4
	if a.SampleSize == 0 {
		for _, size := range a.Entries {
			pio.PutU32BE(b[n:], size)
			n += 4
		}
	}
	putHeader(b, STSZ, n)
	return
}

func (a SampleSize) Len() int {
	if a.SampleSize != 0 {
		return 20
	}
	return 20 + 4*len(a.Entries)
}

func (a *SampleSize) Unmarshal(b []byte, offset int) (n int, err error) {
	a.setPos(offset, len(b))
	if a.Version, a.Flags, err = getFullHeader(b, 8, offset); err != nil {
		return
	}
	if len(b) < 20 {
		err = parseErr("len", offset+12, nil)
		return
	}
	a.SampleSize = pio.U32BE(b[12:])
	count := int(pio.U32BE(b[16:]))
	if a.SampleSize != 0 {
		return len(b), nil
	}
	if len(b) < 20+4*count {
		err = parseErr("Entries", offset+20, nil)
		return
	}
	a.Entries = make([]uint32, count)
	for i := range a.Entries {
		a.Entries[i] = pio.U32BE(b[20+4*i:])
	}
	return len(b), nil
}

func (a SampleSize) Children() (r []Atom) {
	return
}

func (a SampleSize) Tag() Tag {
	return STSZ
}
