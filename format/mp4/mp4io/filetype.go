package mp4io

import "github.com/deepch/vdk/utils/bits/pio"

const FTYP = Tag(0x66747970)

type FileType struct {
	MajorBrand       uint32
	MinorVersion     uint32
	CompatibleBrands []uint32
	AtomPos
}

func (f FileType) Tag() Tag {
	return FTYP
}

func (f FileType) Marshal(b []byte) (n int) {
	n = f.Len()
	putHeader(b, FTYP, n)
	pio.PutU32BE(b[8:], f.MajorBrand)
	pio.PutU32BE(b[12:], f.MinorVersion)
	for i, v := range f.CompatibleBrands {
		pio.PutU32BE(b[16+4*i:], v)
	}
	return
}

func (f FileType) Len() int {
	return 16 + 4*len(f.CompatibleBrands)
}

func (f *FileType) Unmarshal(b []byte, offset int) (n int, err error) {
	f.setPos(offset, len(b))
	n = 8
	if len(b) < n+8 {
		return 0, parseErr("MajorBrand", offset+n, nil)
	}
	f.MajorBrand = pio.U32BE(b[n:])
	n += 4
	f.MinorVersion = pio.U32BE(b[n:])
	n += 4
	f.CompatibleBrands = nil
	for n < len(b)-3 {
		f.CompatibleBrands = append(f.CompatibleBrands, pio.U32BE(b[n:]))
		n += 4
	}
	return
}

func (f FileType) Children() []Atom {
	return nil
}

const MDAT = Tag(0x6d646174)

// MediaData is an mdat box holding the sample payloads.
type MediaData struct {
	Data []byte
	AtomPos
}

func (a MediaData) Tag() Tag {
	return MDAT
}

func (a MediaData) Marshal(b []byte) (n int) {
	n = a.Len()
	putHeader(b, MDAT, n)
	copy(b[8:], a.Data)
	return
}

func (a MediaData) Len() int {
	return 8 + len(a.Data)
}

func (a *MediaData) Unmarshal(b []byte, offset int) (n int, err error) {
	a.setPos(offset, len(b))
	a.Data = b[8:]
	return len(b), nil
}

func (a MediaData) Children() []Atom {
	return nil
}
