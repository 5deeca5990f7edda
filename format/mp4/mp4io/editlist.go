package mp4io

import (
	"fmt"

	"github.com/deepch/vdk/utils/bits/pio"
)

const EDTS = Tag(0x65647473)

type EditListBox struct {
	List     *EditList
	Unknowns []Atom
	AtomPos
}

func (a EditListBox) Marshal(b []byte) (n int) {
	n = 8
	if a.List != nil {
		n += a.List.Marshal(b[n:])
	}
	for _, atom := range a.Unknowns {
		n += atom.Marshal(b[n:])
	}
	putHeader(b, EDTS, n)
	return
}

func (a EditListBox) Len() (n int) {
	n = 8
	if a.List != nil {
		n += a.List.Len()
	}
	for _, atom := range a.Unknowns {
		n += atom.Len()
	}
	return
}

func (a *EditListBox) Unmarshal(b []byte, offset int) (n int, err error) {
	a.setPos(offset, len(b))
	a.Unknowns, err = walkChildren(b, 8, offset, func(tag Tag, body []byte, pos int) (bool, error) {
		if tag != ELST {
			return false, nil
		}
		a.List = &EditList{}
		_, err := a.List.Unmarshal(body, pos)
		return true, err
	})
	return len(b), err
}

func (a EditListBox) Children() (r []Atom) {
	if a.List != nil {
		r = append(r, a.List)
	}
	r = append(r, a.Unknowns...)
	return
}

func (a EditListBox) Tag() Tag {
	return EDTS
}

const ELST = Tag(0x656c7374)

// EditList is an elst box. Version 1 widens SegmentDuration and MediaTime
// to 64 bits.
type EditList struct {
	Version uint8
	Flags   uint32
	Entries []EditListEntry
	AtomPos
}

type EditListEntry struct {
	SegmentDuration   uint64
	MediaTime         int64
	MediaRateInteger  int16
	MediaRateFraction int16
}

// EntrySize is the encoded size of one entry for the given version.
func EntrySize(version uint8) int {
	if version == 1 {
		return 20
	}
	return 12
}

func (a EditList) Marshal(b []byte) (n int) {
	n = 8
	n += putFullHeader(b[n:], a.Version, a.Flags)
	pio.PutU32BE(b[n:], uint32(len(a.Entries)))
	n += 4
	for _, entry := range a.Entries {
		if a.Version == 1 {
			pio.PutU64BE(b[n:], entry.SegmentDuration)
			pio.PutU64BE(b[n+8:], uint64(entry.MediaTime))
			n += 16
		} else {
			pio.PutU32BE(b[n:], uint32(entry.SegmentDuration))
			pio.PutU32BE(b[n+4:], uint32(entry.MediaTime))
			n += 8
		}
		pio.PutI16BE(b[n:], entry.MediaRateInteger)
		pio.PutI16BE(b[n+2:], entry.MediaRateFraction)
		n += 4
	}
	putHeader(b, ELST, n)
	return
}

func (a EditList) Len() int {
	return 16 + EntrySize(a.Version)*len(a.Entries)
}

func (a *EditList) Unmarshal(b []byte, offset int) (n int, err error) {
	a.setPos(offset, len(b))
	if a.Version, a.Flags, err = getFullHeader(b, 8, offset); err != nil {
		return
	}
	n = 12
	if len(b) < n+4 {
		err = parseErr("len", n+offset, nil)
		return
	}
	count := int(pio.U32BE(b[n:]))
	n += 4
	size := EntrySize(a.Version)
	if len(b) < n+size*count {
		err = parseErr("Entries", n+offset, fmt.Errorf("%d entries do not fit in %d bytes", count, len(b)-n))
		return
	}
	a.Entries = make([]EditListEntry, count)
	for i := range a.Entries {
		entry := &a.Entries[i]
		if a.Version == 1 {
			entry.SegmentDuration = pio.U64BE(b[n:])
			entry.MediaTime = int64(pio.U64BE(b[n+8:]))
			n += 16
		} else {
			entry.SegmentDuration = uint64(pio.U32BE(b[n:]))
			entry.MediaTime = int64(pio.I32BE(b[n+4:]))
			n += 8
		}
		entry.MediaRateInteger = pio.I16BE(b[n:])
		entry.MediaRateFraction = pio.I16BE(b[n+2:])
		n += 4
	}
	return
}

func (a EditList) Children() (r []Atom) {
	return
}

func (a EditList) Tag() Tag {
	return ELST
}

func (a EditList) String() string {
	s := fmt.Sprintf("version=%d entries=%d", a.Version, len(a.Entries))
	for _, e := range a.Entries {
		s += fmt.Sprintf(" [dur=%d media_time=%d rate=%d.%d]", e.SegmentDuration, e.MediaTime, e.MediaRateInteger, e.MediaRateFraction)
	}
	return s
}

const FREE = Tag(0x66726565)

// Free is a free box. Data is the payload after the header.
type Free struct {
	Data []byte
	AtomPos
}

func (a Free) Marshal(b []byte) (n int) {
	n = a.Len()
	putHeader(b, FREE, n)
	copy(b[8:], a.Data)
	return
}

func (a Free) Len() int {
	return 8 + len(a.Data)
}

func (a *Free) Unmarshal(b []byte, offset int) (n int, err error) {
	a.setPos(offset, len(b))
	a.Data = b[8:]
	return len(b), nil
}

func (a Free) Children() (r []Atom) {
	return
}

func (a Free) Tag() Tag {
	return FREE
}
