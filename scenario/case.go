package scenario

import (
	"fmt"

	"github.com/deepch/elstcheck/demux"
	"github.com/deepch/elstcheck/eventlog"
	"github.com/deepch/elstcheck/format/mp4/editlist"
	"github.com/deepch/elstcheck/format/mp4/movietpl"
)

// Quirks are behaviours of the reference demuxer that expected logs
// account for. Each can be switched off independently.
type Quirks struct {
	// DummySegment: push-fed demuxers send a default segment before the
	// first real one.
	DummySegment bool
	// SpuriousExtraFrame: the frame following an edit in decode order is
	// emitted although it lies outside the edit.
	SpuriousExtraFrame bool
	// EmptyEditSegments: empty edits are announced with their own segment.
	EmptyEditSegments bool
}

func DefaultQuirks() Quirks {
	return Quirks{DummySegment: true, SpuriousExtraFrame: true, EmptyEditSegments: true}
}

// Case is one combination of template, delivery and edit list.
type Case struct {
	Frag        Fragmentation
	Delivery    demux.Delivery
	Pattern     Pattern
	KnownBroken bool
}

func (c Case) Name() string {
	return fmt.Sprintf("%s_%s_%s", c.Frag, c.Delivery, c.Pattern)
}

func (c Case) String() string {
	return c.Name()
}

func supported(frag Fragmentation, delivery demux.Delivery, p Pattern) bool {
	if frag != Frag && p == BasicZeroDurNoMehd {
		return false
	}
	if delivery == demux.Pull {
		return true
	}
	return p == NoEdts || p.IsBasic()
}

func knownBroken(frag Fragmentation, delivery demux.Delivery, p Pattern) bool {
	switch {
	case delivery != demux.Pull && p == NoEdts:
		// duration comes from min(mvhd, mdhd), so the last two frames are lost
		return true
	case frag == Frag && (p == Skipping || p == SkippingNonRAP):
		return true
	case frag == Frag && (p == EmptyEditStartThenClip || p == EmptyEditMiddle):
		// empty edits are ignored in fragmented movies
		return true
	case delivery == demux.Pull && frag == Frag && (p == Reorder || p == Repeating):
		return true
	}
	return false
}

// Cases lists every supported combination in a stable order.
func Cases() []Case {
	var cases []Case
	for _, frag := range Fragmentations {
		for _, delivery := range demux.Deliveries {
			for _, p := range Patterns {
				if !supported(frag, delivery, p) {
					continue
				}
				cases = append(cases, Case{
					Frag:        frag,
					Delivery:    delivery,
					Pattern:     p,
					KnownBroken: knownBroken(frag, delivery, p),
				})
			}
		}
	}
	return cases
}

func (c Case) template(ts *movietpl.Templates) *movietpl.Template {
	switch {
	case c.Pattern == BasicZeroDurNoMehd:
		return ts.FragNoMehd
	case c.Frag == Frag:
		return ts.Frag
	}
	return ts.NonFrag
}

// Vector returns the movie for the case.
func (c Case) Vector(ts *movietpl.Templates) (movietpl.Vector, error) {
	tpl := c.template(ts)
	if tpl == nil {
		return nil, fmt.Errorf("scenario: %s: template missing", c.Name())
	}
	list, ok := edits[c.Pattern]
	if !ok {
		return nil, fmt.Errorf("scenario: unknown pattern %q", c.Pattern)
	}
	if list == nil {
		return tpl.Raw(), nil
	}
	b := editlist.NewBuilder(0)
	for _, e := range list {
		if err := b.Add(e.duration, e.mediaTime, 1, 0); err != nil {
			return nil, fmt.Errorf("scenario: %s: %w", c.Name(), err)
		}
	}
	_, size := tpl.SpliceRegion()
	block, err := b.Build(size)
	if err != nil {
		return nil, fmt.Errorf("scenario: %s: %w", c.Name(), err)
	}
	return tpl.Splice(block)
}

// Build returns the input movie and the events a conforming demuxer emits
// for it.
func (c Case) Build(ts *movietpl.Templates, q Quirks) (movietpl.Vector, *eventlog.Log, error) {
	vec, err := c.Vector(ts)
	if err != nil {
		return nil, nil, err
	}
	expected, err := c.Expected(q)
	if err != nil {
		return nil, nil, err
	}
	return vec, expected, nil
}

// Find returns the case with the given name.
func Find(name string) (Case, bool) {
	for _, c := range Cases() {
		if c.Name() == name {
			return c, true
		}
	}
	return Case{}, false
}
