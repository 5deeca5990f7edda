package mp4io

import (
	"fmt"

	"github.com/deepch/vdk/utils/bits/pio"
)

const MDIA = Tag(0x6d646961)

type Media struct {
	Header   *MediaHeader
	Handler  *HandlerRefer
	Info     *MediaInfo
	Unknowns []Atom
	AtomPos
}

func (a Media) Marshal(b []byte) (n int) {
	n = 8
	if a.Header != nil {
		n += a.Header.Marshal(b[n:])
	}
	if a.Handler != nil {
		n += a.Handler.Marshal(b[n:])
	}
	if a.Info != nil {
		n += a.Info.Marshal(b[n:])
	}
	for _, atom := range a.Unknowns {
		n += atom.Marshal(b[n:])
	}
	putHeader(b, MDIA, n)
	return
}

func (a Media) Len() (n int) {
	n = 8
	if a.Header != nil {
		n += a.Header.Len()
	}
	if a.Handler != nil {
		n += a.Handler.Len()
	}
	if a.Info != nil {
		n += a.Info.Len()
	}
	for _, atom := range a.Unknowns {
		n += atom.Len()
	}
	return
}

func (a *Media) Unmarshal(b []byte, offset int) (n int, err error) {
	a.setPos(offset, len(b))
	a.Unknowns, err = walkChildren(b, 8, offset, func(tag Tag, body []byte, pos int) (bool, error) {
		switch tag {
		case MDHD:
			a.Header = &MediaHeader{}
			_, err := a.Header.Unmarshal(body, pos)
			return true, err
		case HDLR:
			a.Handler = &HandlerRefer{}
			_, err := a.Handler.Unmarshal(body, pos)
			return true, err
		case MINF:
			a.Info = &MediaInfo{}
			_, err := a.Info.Unmarshal(body, pos)
			return true, err
		}
		return false, nil
	})
	return len(b), err
}

func (a Media) Children() (r []Atom) {
	if a.Header != nil {
		r = append(r, a.Header)
	}
	if a.Handler != nil {
		r = append(r, a.Handler)
	}
	if a.Info != nil {
		r = append(r, a.Info)
	}
	r = append(r, a.Unknowns...)
	return
}

func (a Media) Tag() Tag {
	return MDIA
}

const MDHD = Tag(0x6d646864)

// MediaHeader is a version 0 mdhd. Language is the packed ISO-639-2 code.
type MediaHeader struct {
	Version   uint8
	Flags     uint32
	TimeScale uint32
	Duration  uint32
	Language  int16
	Quality   int16
	AtomPos
}

func (a MediaHeader) Marshal(b []byte) (n int) {
	n = 8
	n += putFullHeader(b[n:], a.Version, a.Flags)
	n += 8
	pio.PutU32BE(b[n:], a.TimeScale)
	n += 4
	pio.PutU32BE(b[n:], a.Duration)
	n += 4
	pio.PutI16BE(b[n:], a.Language)
	n += 2
	pio.PutI16BE(b[n:], a.Quality)
	n += 2
	putHeader(b, MDHD, n)
	return
}

func (a MediaHeader) Len() int {
	return 32
}

func (a *MediaHeader) Unmarshal(b []byte, offset int) (n int, err error) {
	a.setPos(offset, len(b))
	if len(b) < a.Len() {
		err = parseErr("mdhd", offset, nil)
		return
	}
	if a.Version, a.Flags, err = getFullHeader(b, 8, offset); err != nil {
		return
	}
	if a.Version != 0 {
		err = parseErr("Version", offset+8, fmt.Errorf("mdhd version %d not supported", a.Version))
		return
	}
	a.TimeScale = pio.U32BE(b[20:])
	a.Duration = pio.U32BE(b[24:])
	a.Language = pio.I16BE(b[28:])
	a.Quality = pio.I16BE(b[30:])
	n = 32
	return
}

func (a MediaHeader) Children() (r []Atom) {
	return
}

func (a MediaHeader) Tag() Tag {
	return MDHD
}

func (a MediaHeader) String() string {
	return fmt.Sprintf("timescale=%d dur=%d", a.TimeScale, a.Duration)
}

const HDLR = Tag(0x68646c72)

type HandlerRefer struct {
	Version uint8
	Flags   uint32
	Type    Tag
	Name    string
	AtomPos
}

func (a HandlerRefer) Marshal(b []byte) (n int) {
	n = 8
	n += putFullHeader(b[n:], a.Version, a.Flags)
	n += 4
	pio.PutU32BE(b[n:], uint32(a.Type))
	n += 4
	n += 3 * 4
	copy(b[n:], a.Name)
	n += len(a.Name)
	b[n] = 0
	n++
	putHeader(b, HDLR, n)
	return
}

func (a HandlerRefer) Len() int {
	return 32 + len(a.Name) + 1
}

func (a *HandlerRefer) Unmarshal(b []byte, offset int) (n int, err error) {
	a.setPos(offset, len(b))
	if len(b) < 32 {
		err = parseErr("hdlr", offset, nil)
		return
	}
	if a.Version, a.Flags, err = getFullHeader(b, 8, offset); err != nil {
		return
	}
	a.Type = Tag(pio.U32BE(b[16:]))
	name := b[32:]
	for i, c := range name {
		if c == 0 {
			name = name[:i]
			break
		}
	}
	a.Name = string(name)
	return len(b), nil
}

func (a HandlerRefer) Children() (r []Atom) {
	return
}

func (a HandlerRefer) Tag() Tag {
	return HDLR
}

func (a HandlerRefer) String() string {
	return fmt.Sprintf("type=%s", a.Type)
}

const MINF = Tag(0x6d696e66)

type MediaInfo struct {
	Video    *VideoMediaInfo
	Data     *DataInfo
	Sample   *SampleTable
	Unknowns []Atom
	AtomPos
}

func (a MediaInfo) Marshal(b []byte) (n int) {
	n = 8
	if a.Video != nil {
		n += a.Video.Marshal(b[n:])
	}
	if a.Data != nil {
		n += a.Data.Marshal(b[n:])
	}
	if a.Sample != nil {
		n += a.Sample.Marshal(b[n:])
	}
	for _, atom := range a.Unknowns {
		n += atom.Marshal(b[n:])
	}
	putHeader(b, MINF, n)
	return
}

func (a MediaInfo) Len() (n int) {
	n = 8
	if a.Video != nil {
		n += a.Video.Len()
	}
	if a.Data != nil {
		n += a.Data.Len()
	}
	if a.Sample != nil {
		n += a.Sample.Len()
	}
	for _, atom := range a.Unknowns {
		n += atom.Len()
	}
	return
}

func (a *MediaInfo) Unmarshal(b []byte, offset int) (n int, err error) {
	a.setPos(offset, len(b))
	a.Unknowns, err = walkChildren(b, 8, offset, func(tag Tag, body []byte, pos int) (bool, error) {
		switch tag {
		case VMHD:
			a.Video = &VideoMediaInfo{}
			_, err := a.Video.Unmarshal(body, pos)
			return true, err
		case DINF:
			a.Data = &DataInfo{}
			_, err := a.Data.Unmarshal(body, pos)
			return true, err
		case STBL:
			a.Sample = &SampleTable{}
			_, err := a.Sample.Unmarshal(body, pos)
			return true, err
		}
		return false, nil
	})
	return len(b), err
}

func (a MediaInfo) Children() (r []Atom) {
	if a.Video != nil {
		r = append(r, a.Video)
	}
	if a.Data != nil {
		r = append(r, a.Data)
	}
	if a.Sample != nil {
		r = append(r, a.Sample)
	}
	r = append(r, a.Unknowns...)
	return
}

func (a MediaInfo) Tag() Tag {
	return MINF
}

const VMHD = Tag(0x766d6864)

type VideoMediaInfo struct {
	Version      uint8
	Flags        uint32
	GraphicsMode int16
	Opcolor      [3]int16
	AtomPos
}

func (a VideoMediaInfo) Marshal(b []byte) (n int) {
	n = 8
	n += putFullHeader(b[n:], a.Version, a.Flags)
	pio.PutI16BE(b[n:], a.GraphicsMode)
	n += 2
	for _, c := range a.Opcolor {
		pio.PutI16BE(b[n:], c)
		n += 2
	}
	putHeader(b, VMHD, n)
	return
}

func (a VideoMediaInfo) Len() int {
	return 20
}

func (a *VideoMediaInfo) Unmarshal(b []byte, offset int) (n int, err error) {
	a.setPos(offset, len(b))
	if len(b) < a.Len() {
		err = parseErr("vmhd", offset, nil)
		return
	}
	if a.Version, a.Flags, err = getFullHeader(b, 8, offset); err != nil {
		return
	}
	n = 12
	a.GraphicsMode = pio.I16BE(b[n:])
	n += 2
	for i := range a.Opcolor {
		a.Opcolor[i] = pio.I16BE(b[n:])
		n += 2
	}
	return
}

func (a VideoMediaInfo) Children() (r []Atom) {
	return
}

func (a VideoMediaInfo) Tag() Tag {
	return VMHD
}

const DINF = Tag(0x64696e66)

type DataInfo struct {
	Refer    *DataRefer
	Unknowns []Atom
	AtomPos
}

func (a DataInfo) Marshal(b []byte) (n int) {
	n = 8
	if a.Refer != nil {
		n += a.Refer.Marshal(b[n:])
	}
	for _, atom := range a.Unknowns {
		n += atom.Marshal(b[n:])
	}
	putHeader(b, DINF, n)
	return
}

func (a DataInfo) Len() (n int) {
	n = 8
	if a.Refer != nil {
		n += a.Refer.Len()
	}
	for _, atom := range a.Unknowns {
		n += atom.Len()
	}
	return
}

func (a *DataInfo) Unmarshal(b []byte, offset int) (n int, err error) {
	a.setPos(offset, len(b))
	a.Unknowns, err = walkChildren(b, 8, offset, func(tag Tag, body []byte, pos int) (bool, error) {
		if tag != DREF {
			return false, nil
		}
		a.Refer = &DataRefer{}
		_, err := a.Refer.Unmarshal(body, pos)
		return true, err
	})
	return len(b), err
}

func (a DataInfo) Children() (r []Atom) {
	if a.Refer != nil {
		r = append(r, a.Refer)
	}
	r = append(r, a.Unknowns...)
	return
}

func (a DataInfo) Tag() Tag {
	return DINF
}

const DREF = Tag(0x64726566)

type DataRefer struct {
	Version uint8
	Flags   uint32
	Url     *DataReferUrl
	AtomPos
}

func (a DataRefer) Marshal(b []byte) (n int) {
	n = 8
	n += putFullHeader(b[n:], a.Version, a.Flags)
	count := 0
	if a.Url != nil {
		count++
	}
	pio.PutU32BE(b[n:], uint32(count))
	n += 4
	if a.Url != nil {
		n += a.Url.Marshal(b[n:])
	}
	putHeader(b, DREF, n)
	return
}

func (a DataRefer) Len() (n int) {
	n = 16
	if a.Url != nil {
		n += a.Url.Len()
	}
	return
}

func (a *DataRefer) Unmarshal(b []byte, offset int) (n int, err error) {
	a.setPos(offset, len(b))
	if a.Version, a.Flags, err = getFullHeader(b, 8, offset); err != nil {
		return
	}
	_, err = walkChildren(b, 16, offset, func(tag Tag, body []byte, pos int) (bool, error) {
		if tag != URL {
			return false, nil
		}
		a.Url = &DataReferUrl{}
		_, err := a.Url.Unmarshal(body, pos)
		return true, err
	})
	return len(b), err
}

func (a DataRefer) Children() (r []Atom) {
	if a.Url != nil {
		r = append(r, a.Url)
	}
	return
}

func (a DataRefer) Tag() Tag {
	return DREF
}

const URL = Tag(0x75726c20)

// DataReferUrl is a url box; flag 1 marks media data in the same file.
type DataReferUrl struct {
	Version uint8
	Flags   uint32
	AtomPos
}

func (a DataReferUrl) Marshal(b []byte) (n int) {
	n = 8
	n += putFullHeader(b[n:], a.Version, a.Flags)
	putHeader(b, URL, n)
	return
}

func (a DataReferUrl) Len() int {
	return 12
}

func (a *DataReferUrl) Unmarshal(b []byte, offset int) (n int, err error) {
	a.setPos(offset, len(b))
	if a.Version, a.Flags, err = getFullHeader(b, 8, offset); err != nil {
		return
	}
	return 12, nil
}

func (a DataReferUrl) Children() (r []Atom) {
	return
}

func (a DataReferUrl) Tag() Tag {
	return URL
}
