// Package editlist encodes edit lists into fixed-size blocks that can be
// spliced over a reserved free box inside a trak.
package editlist

import (
	"errors"
	"fmt"
	"math"

	"github.com/deepch/elstcheck/format/mp4/mp4io"
)

const (
	// EmptyEdit as a media time marks a presentation gap.
	EmptyEdit int64 = -1

	// Poison fills a block before encoding so that unwritten bytes stand out.
	Poison byte = 0xaa

	// DefaultMaxEntries bounds a builder unless MaxEntries is changed.
	DefaultMaxEntries = 5
)

var (
	ErrTooManyEntries = errors.New("editlist: too many entries")
	ErrNoRoom         = errors.New("editlist: no room for padding")
	ErrRange          = errors.New("editlist: value does not fit version 0 fields")
	ErrMalformed      = errors.New("editlist: malformed block")
	ErrVersion        = errors.New("editlist: version must be 0 or 1")
)

type Entry = mp4io.EditListEntry

// Builder accumulates edit list entries. All entries share the field width
// selected by the version.
type Builder struct {
	// MaxEntries caps Add; 0 means unbounded.
	MaxEntries int

	version uint8
	entries []Entry
}

// NewBuilder returns a builder for the given elst version. Versions other
// than 0 and 1 are reported by Add and Build.
func NewBuilder(version uint8) *Builder {
	return &Builder{MaxEntries: DefaultMaxEntries, version: version}
}

func (b *Builder) Version() uint8 {
	return b.version
}

func (b *Builder) Entries() []Entry {
	return append([]Entry(nil), b.entries...)
}

// Add appends an entry. Duration is in movie timescale units, mediaTime in
// media timescale units or EmptyEdit.
func (b *Builder) Add(duration uint64, mediaTime int64, rateInt, rateFrac int16) error {
	if b.version > 1 {
		return fmt.Errorf("%w: got %d", ErrVersion, b.version)
	}
	if b.MaxEntries > 0 && len(b.entries) >= b.MaxEntries {
		return fmt.Errorf("%w: limit is %d", ErrTooManyEntries, b.MaxEntries)
	}
	if b.version == 0 && (duration > math.MaxUint32 || mediaTime > math.MaxInt32 || mediaTime < math.MinInt32) {
		return fmt.Errorf("%w: duration=%d media_time=%d", ErrRange, duration, mediaTime)
	}
	b.entries = append(b.entries, Entry{
		SegmentDuration:   duration,
		MediaTime:         mediaTime,
		MediaRateInteger:  rateInt,
		MediaRateFraction: rateFrac,
	})
	return nil
}

func (b *Builder) box() *mp4io.EditListBox {
	return &mp4io.EditListBox{List: &mp4io.EditList{Version: b.version, Entries: b.entries}}
}

// Len is the encoded size of the edts box without padding.
func (b *Builder) Len() int {
	return b.box().Len()
}

// Build encodes edts/elst into a block of exactly targetSize bytes. The
// remainder after the edts box is covered by a zeroed free box.
func (b *Builder) Build(targetSize int) ([]byte, error) {
	if b.version > 1 {
		return nil, fmt.Errorf("%w: got %d", ErrVersion, b.version)
	}
	edts := b.box()
	if need := edts.Len() + 8; need > targetSize {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrNoRoom, need, targetSize)
	}
	block := make([]byte, targetSize)
	for i := range block {
		block[i] = Poison
	}
	n := edts.Marshal(block)
	free := mp4io.Free{Data: make([]byte, targetSize-n-8)}
	free.Marshal(block[n:])
	return block, nil
}

// Decode parses a block produced by Build.
func Decode(block []byte) (*Builder, error) {
	var edts mp4io.EditListBox
	if len(block) < 8 {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformed, len(block))
	}
	size, tag := mp4io.ReadHeader(block)
	if tag != mp4io.EDTS || size < 8 || size > len(block) {
		return nil, fmt.Errorf("%w: no edts box at start", ErrMalformed)
	}
	if _, err := edts.Unmarshal(block[:size], 0); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if edts.List == nil {
		return nil, fmt.Errorf("%w: edts without elst", ErrMalformed)
	}
	if edts.List.Version > 1 {
		return nil, fmt.Errorf("%w: got %d", ErrVersion, edts.List.Version)
	}
	if rest := block[size:]; len(rest) > 0 {
		if len(rest) < 8 {
			return nil, fmt.Errorf("%w: %d stray bytes after edts", ErrMalformed, len(rest))
		}
		if size, tag := mp4io.ReadHeader(rest); tag != mp4io.FREE || size != len(rest) {
			return nil, fmt.Errorf("%w: padding is not a single free box", ErrMalformed)
		}
	}
	return &Builder{version: edts.List.Version, entries: edts.List.Entries}, nil
}
