// Package movietpl holds movie templates with a reserved free box in the
// track and splices edit list blocks over that region.
package movietpl

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/deepch/elstcheck/format/mp4/mp4io"
)

var (
	ErrSpliceSize = errors.New("movietpl: block does not match splice region")
	ErrNoRegion   = errors.New("movietpl: no free box in trak")
)

// Template is an immutable movie file with a splice region. It is safe to
// share between goroutines.
type Template struct {
	data         []byte
	spliceOffset int
	spliceSize   int
}

func New(data []byte, spliceOffset, spliceSize int) (*Template, error) {
	if spliceOffset < 0 || spliceSize < 8 || spliceOffset+spliceSize > len(data) {
		return nil, fmt.Errorf("movietpl: splice region %d+%d outside %d byte template", spliceOffset, spliceSize, len(data))
	}
	return &Template{data: data, spliceOffset: spliceOffset, spliceSize: spliceSize}, nil
}

// Parse locates the splice region of a template: the free box of the
// first track that has one.
func Parse(data []byte) (*Template, error) {
	atoms, err := mp4io.ReadFileAtoms(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("movietpl: %w", err)
	}
	for _, atom := range atoms {
		moov, ok := atom.(*mp4io.Movie)
		if !ok {
			continue
		}
		for _, trak := range moov.Tracks {
			if trak.Free != nil {
				offset, size := trak.Free.Pos()
				return New(data, offset, size)
			}
		}
	}
	return nil, ErrNoRegion
}

// Load reads and parses a template file.
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("movietpl: loading template: %w", err)
	}
	tpl, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tpl, nil
}

func (t *Template) SpliceRegion() (offset, size int) {
	return t.spliceOffset, t.spliceSize
}

func (t *Template) Len() int {
	return len(t.data)
}

// Raw returns the template unaltered.
func (t *Template) Raw() Vector {
	return Vector{t.data}
}

// Splice returns the template with block in place of the splice region.
// The prefix and suffix share the template's memory.
func (t *Template) Splice(block []byte) (Vector, error) {
	if len(block) != t.spliceSize {
		return nil, fmt.Errorf("%w: %d bytes, region is %d", ErrSpliceSize, len(block), t.spliceSize)
	}
	end := t.spliceOffset + t.spliceSize
	return Vector{t.data[:t.spliceOffset:t.spliceOffset], block, t.data[end:]}, nil
}
