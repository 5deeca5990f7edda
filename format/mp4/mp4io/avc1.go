package mp4io

import (
	"fmt"

	"github.com/deepch/vdk/utils/bits/pio"
)

const AVC1 = Tag(0x61766331)

// AVC1Desc is an avc1 visual sample entry. Version, revision, vendor and
// quality fields are written as zero.
type AVC1Desc struct {
	DataRefIdx           int16
	Width                int16
	Height               int16
	HorizontalResolution float64
	VerticalResolution   float64
	FrameCount           int16
	CompressorName       [32]byte
	Depth                int16
	ColorTableId         int16
	Conf                 *AVC1Conf
	Unknowns             []Atom
	AtomPos
}

const avc1FixedLen = 8 + 78

func (a AVC1Desc) Marshal(b []byte) (n int) {
	copy(b[8:avc1FixedLen], make([]byte, avc1FixedLen-8))
	pio.PutI16BE(b[14:], a.DataRefIdx)
	pio.PutI16BE(b[32:], a.Width)
	pio.PutI16BE(b[34:], a.Height)
	PutFixed32(b[36:], a.HorizontalResolution)
	PutFixed32(b[40:], a.VerticalResolution)
	pio.PutI16BE(b[48:], a.FrameCount)
	copy(b[50:], a.CompressorName[:])
	pio.PutI16BE(b[82:], a.Depth)
	pio.PutI16BE(b[84:], a.ColorTableId)
	n = avc1FixedLen
	if a.Conf != nil {
		n += a.Conf.Marshal(b[n:])
	}
	for _, atom := range a.Unknowns {
		n += atom.Marshal(b[n:])
	}
	putHeader(b, AVC1, n)
	return
}

func (a AVC1Desc) Len() (n int) {
	n = avc1FixedLen
	if a.Conf != nil {
		n += a.Conf.Len()
	}
	for _, atom := range a.Unknowns {
		n += atom.Len()
	}
	return
}

func (a *AVC1Desc) Unmarshal(b []byte, offset int) (n int, err error) {
	a.setPos(offset, len(b))
	if len(b) < avc1FixedLen {
		err = parseErr("avc1", offset, nil)
		return
	}
	a.DataRefIdx = pio.I16BE(b[14:])
	a.Width = pio.I16BE(b[32:])
	a.Height = pio.I16BE(b[34:])
	a.HorizontalResolution = GetFixed32(b[36:])
	a.VerticalResolution = GetFixed32(b[40:])
	a.FrameCount = pio.I16BE(b[48:])
	copy(a.CompressorName[:], b[50:82])
	a.Depth = pio.I16BE(b[82:])
	a.ColorTableId = pio.I16BE(b[84:])
	a.Unknowns, err = walkChildren(b, avc1FixedLen, offset, func(tag Tag, body []byte, pos int) (bool, error) {
		if tag != AVCC {
			return false, nil
		}
		a.Conf = &AVC1Conf{}
		_, err := a.Conf.Unmarshal(body, pos)
		return true, err
	})
	return len(b), err
}

func (a AVC1Desc) Children() (r []Atom) {
	if a.Conf != nil {
		r = append(r, a.Conf)
	}
	return append(r, a.Unknowns...)
}

func (a AVC1Desc) Tag() Tag {
	return AVC1
}

func (a AVC1Desc) String() string {
	return fmt.Sprintf("%dx%d", a.Width, a.Height)
}

const AVCC = Tag(0x61766343)

// AVC1Conf holds an AVCDecoderConfigurationRecord verbatim.
type AVC1Conf struct {
	Data []byte
	AtomPos
}

func (a AVC1Conf) Marshal(b []byte) (n int) {
	n = a.Len()
	putHeader(b, AVCC, n)
	copy(b[8:], a.Data)
	return
}

func (a AVC1Conf) Len() int {
	return 8 + len(a.Data)
}

func (a *AVC1Conf) Unmarshal(b []byte, offset int) (n int, err error) {
	a.setPos(offset, len(b))
	a.Data = b[8:]
	return len(b), nil
}

func (a AVC1Conf) Children() (r []Atom) {
	return
}

func (a AVC1Conf) Tag() Tag {
	return AVCC
}
