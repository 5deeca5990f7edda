package mp4io

import (
	"fmt"
	"io"
	"strings"

	"github.com/deepch/vdk/utils/bits/pio"
)

type Tag uint32

func (a Tag) String() string {
	var b [4]byte
	pio.PutU32BE(b[:], uint32(a))
	for i := 0; i < 4; i++ {
		if b[i] == 0 {
			b[i] = ' '
		}
	}
	return string(b[:])
}

func StringToTag(tag string) Tag {
	var b [4]byte
	copy(b[:], []byte(tag))
	return Tag(pio.U32BE(b[:]))
}

type Atom interface {
	Pos() (int, int)
	Tag() Tag
	Marshal([]byte) int
	Unmarshal([]byte, int) (int, error)
	Len() int
	Children() []Atom
}

type AtomPos struct {
	Offset int
	Size   int
}

func (a AtomPos) Pos() (int, int) {
	return a.Offset, a.Size
}

func (a *AtomPos) setPos(offset int, size int) {
	a.Offset, a.Size = offset, size
}

// Dummy keeps the raw bytes of an atom that is not decoded.
type Dummy struct {
	Data []byte
	Tag_ Tag
	AtomPos
}

func (a Dummy) Children() []Atom {
	return nil
}

func (a Dummy) Tag() Tag {
	return a.Tag_
}

func (a Dummy) Len() int {
	return len(a.Data)
}

func (a Dummy) Marshal(b []byte) int {
	copy(b, a.Data)
	return len(a.Data)
}

func (a *Dummy) Unmarshal(b []byte, offset int) (n int, err error) {
	a.setPos(offset, len(b))
	a.Data = b
	n = len(b)
	return
}

// putHeader writes the size and tag of a plain box whose total length is n.
func putHeader(b []byte, tag Tag, n int) {
	pio.PutU32BE(b[0:], uint32(n))
	pio.PutU32BE(b[4:], uint32(tag))
}

// ReadHeader returns the declared size and tag of the box at the start of b.
func ReadHeader(b []byte) (size int, tag Tag) {
	return int(pio.U32BE(b[0:])), Tag(pio.U32BE(b[4:]))
}

// putFullHeader writes the version and flags word of a full box.
func putFullHeader(b []byte, version uint8, flags uint32) int {
	pio.PutU8(b, version)
	pio.PutU24BE(b[1:], flags)
	return 4
}

func getFullHeader(b []byte, n int, offset int) (version uint8, flags uint32, err error) {
	if len(b) < n+4 {
		err = parseErr("fullAtom", n+offset, nil)
		return
	}
	version = pio.U8(b[n:])
	flags = pio.U24BE(b[n+1:])
	return
}

// walkChildren iterates over the boxes packed in b[n:], handing each one to
// fn together with its absolute offset. Boxes fn does not claim become
// Dummy atoms and are returned.
func walkChildren(b []byte, n int, offset int, fn func(tag Tag, body []byte, pos int) (bool, error)) (unknowns []Atom, err error) {
	for n+8 <= len(b) {
		size := int(pio.U32BE(b[n:]))
		tag := Tag(pio.U32BE(b[n+4:]))
		if size < 8 || len(b) < n+size {
			err = parseErr("TagSizeInvalid", n+offset, err)
			return
		}
		var claimed bool
		if claimed, err = fn(tag, b[n:n+size], offset+n); err != nil {
			err = parseErr(tag.String(), n+offset, err)
			return
		}
		if !claimed {
			atom := &Dummy{Tag_: tag}
			atom.Unmarshal(b[n:n+size], offset+n)
			unknowns = append(unknowns, atom)
		}
		n += size
	}
	return
}

func FindChildren(root Atom, tag Tag) Atom {
	if root.Tag() == tag {
		return root
	}
	for _, child := range root.Children() {
		if r := FindChildren(child, tag); r != nil {
			return r
		}
	}
	return nil
}

func ReadFileAtoms(r io.ReadSeeker) (atoms []Atom, err error) {
	for {
		offset, _ := r.Seek(0, io.SeekCurrent)
		taghdr := make([]byte, 8)
		if _, err = io.ReadFull(r, taghdr); err != nil {
			if err == io.EOF {
				err = nil
			}
			return
		}
		size := pio.U32BE(taghdr[0:])
		tag := Tag(pio.U32BE(taghdr[4:]))
		if size < 8 {
			err = parseErr("TagSizeInvalid", int(offset), nil)
			return
		}

		var atom Atom
		switch tag {
		case FTYP:
			atom = &FileType{}
		case MOOV:
			atom = &Movie{}
		case MOOF:
			atom = &MovieFrag{}
		}

		if atom != nil {
			b := make([]byte, int(size))
			if _, err = io.ReadFull(r, b[8:]); err != nil {
				return
			}
			copy(b, taghdr)
			if _, err = atom.Unmarshal(b, int(offset)); err != nil {
				return
			}
			atoms = append(atoms, atom)
		} else {
			dummy := &Dummy{Tag_: tag}
			dummy.setPos(int(offset), int(size))
			if _, err = r.Seek(int64(size)-8, io.SeekCurrent); err != nil {
				return
			}
			atoms = append(atoms, dummy)
		}
	}
}

func printatom(out io.Writer, root Atom, depth int) {
	offset, size := root.Pos()

	type stringintf interface {
		String() string
	}

	fmt.Fprintf(out,
		"%s%s offset=%d size=%d",
		strings.Repeat(" ", depth*2), root.Tag(), offset, size,
	)
	if str, ok := root.(stringintf); ok {
		fmt.Fprint(out, " ", str.String())
	}
	fmt.Fprintln(out)

	for _, child := range root.Children() {
		printatom(out, child, depth+1)
	}
}

func FprintAtom(out io.Writer, root Atom) {
	printatom(out, root, 0)
}
