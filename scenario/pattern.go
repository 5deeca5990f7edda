package scenario

import (
	"strings"

	"github.com/deepch/elstcheck/format/mp4/editlist"
)

// Pattern names an edit list shape.
type Pattern string

const (
	NoEdts                 Pattern = "no_edts"
	Basic                  Pattern = "basic"
	BasicZeroDur           Pattern = "basic_zero_dur"
	BasicZeroDurNoMehd     Pattern = "basic_zero_dur_no_mehd"
	BasicEmptyEditStart    Pattern = "basic_empty_edit_start"
	Skipping               Pattern = "skipping"
	SkippingNonRAP         Pattern = "skipping_non_rap"
	EmptyEditStartThenClip Pattern = "empty_edit_start_then_clip"
	EmptyEditMiddle        Pattern = "empty_edit_middle"
	Reorder                Pattern = "reorder"
	Repeating              Pattern = "repeating"
)

var Patterns = []Pattern{
	NoEdts,
	Basic,
	BasicZeroDur,
	BasicZeroDurNoMehd,
	BasicEmptyEditStart,
	Skipping,
	SkippingNonRAP,
	EmptyEditStartThenClip,
	EmptyEditMiddle,
	Reorder,
	Repeating,
}

// IsBasic reports whether the pattern is one of the basic_ variants, the
// only edit lists a push-fed demuxer is expected to honour.
func (p Pattern) IsBasic() bool {
	return strings.HasPrefix(string(p), "basic_")
}

// edit is one edit list entry: duration in movie timescale units, media
// time in track timescale units. Rates are always 1.0.
type edit struct {
	duration  uint64
	mediaTime int64
}

// Edit lists against the I-B-P-I-B-P movie: 30 movie units are one second,
// 100 track units are one frame.
var edits = map[Pattern][]edit{
	NoEdts:                 nil,
	Basic:                  {{60, 100}},
	BasicZeroDur:           {{0, 100}},
	BasicZeroDurNoMehd:     {{0, 100}},
	BasicEmptyEditStart:    {{30, editlist.EmptyEdit}, {60, 100}},
	Skipping:               {{10, 100}, {20, 400}},
	SkippingNonRAP:         {{10, 100}, {10, 600}},
	EmptyEditStartThenClip: {{30, editlist.EmptyEdit}, {10, 400}},
	EmptyEditMiddle:        {{10, 100}, {20, editlist.EmptyEdit}, {10, 400}},
	Reorder:                {{30, 400}, {30, 100}},
	Repeating:              {{30, 400}, {30, 400}},
}

// Fragmentation selects the template family.
type Fragmentation int

const (
	NonFrag Fragmentation = iota
	Frag
)

var Fragmentations = []Fragmentation{NonFrag, Frag}

func (f Fragmentation) String() string {
	if f == Frag {
		return "frag"
	}
	return "non_frag"
}
