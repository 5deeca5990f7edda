package mp4io

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func marshalAtom(a Atom) []byte {
	b := make([]byte, a.Len())
	if n := a.Marshal(b); n != len(b) {
		panic("marshal length mismatch")
	}
	return b
}

func TestTagString(t *testing.T) {
	if s := ELST.String(); s != "elst" {
		t.Errorf("expected elst, got %q", s)
	}
	if tag := StringToTag("url "); tag != URL {
		t.Errorf("expected %v, got %v", URL, tag)
	}
}

func testMovie() *Movie {
	return &Movie{
		Header: &MovieHeader{TimeScale: 30, Duration: 60, PreferredRate: 1, PreferredVolume: 1, Matrix: IdentityMatrix, NextTrackID: 2},
		Tracks: []*Track{{
			Header: &TrackHeader{Flags: 3, TrackID: 1, Duration: 60, Matrix: IdentityMatrix, TrackWidth: 320, TrackHeight: 240},
			EditList: &EditListBox{List: &EditList{Entries: []EditListEntry{
				{SegmentDuration: 10, MediaTime: 100, MediaRateInteger: 1},
				{SegmentDuration: 20, MediaTime: -1, MediaRateInteger: 1},
			}}},
			Free: &Free{Data: make([]byte, 16)},
			Media: &Media{
				Header:  &MediaHeader{TimeScale: 300, Duration: 600},
				Handler: &HandlerRefer{Type: StringToTag("vide"), Name: "VideoHandler"},
				Info: &MediaInfo{
					Video: &VideoMediaInfo{Flags: 1},
					Data:  &DataInfo{Refer: &DataRefer{Url: &DataReferUrl{Flags: 1}}},
					Sample: &SampleTable{
						SampleDesc:        &SampleDesc{AVC1Desc: &AVC1Desc{DataRefIdx: 1, Width: 320, Height: 240, Depth: 24, ColorTableId: -1, Conf: &AVC1Conf{Data: []byte{1, 2, 3}}}},
						TimeToSample:      &TimeToSample{Entries: []TimeToSampleEntry{{Count: 6, Duration: 100}}},
						CompositionOffset: &CompositionOffset{Entries: []CompositionOffsetEntry{{Count: 1, Offset: 100}, {Count: 1, Offset: 200}, {Count: 1, Offset: 0}}},
						SyncSample:        &SyncSample{Entries: []uint32{1, 4}},
						SampleSize:        &SampleSize{Entries: []uint32{10, 11, 12}},
						SampleToChunk:     &SampleToChunk{Entries: []SampleToChunkEntry{{FirstChunk: 1, SamplesPerChunk: 6, SampleDescId: 1}}},
						ChunkOffset:       &ChunkOffset{Entries: []uint32{1000}},
					},
				},
			},
		}},
	}
}

func TestMovieRoundTrip(t *testing.T) {
	moov := testMovie()
	b := marshalAtom(moov)

	var got Movie
	if _, err := got.Unmarshal(b, 0); err != nil {
		t.Fatal(err)
	}
	opt := cmpopts.IgnoreTypes(AtomPos{})
	if diff := cmp.Diff(moov, &got, opt, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("movie differs after round trip (-want +got):\n%s", diff)
	}
	if !bytes.Equal(marshalAtom(&got), b) {
		t.Error("re-marshalled movie differs")
	}
	elst := FindChildren(&got, ELST).(*EditList)
	if off, size := elst.Pos(); size != elst.Len() || off != 8+108+8+92+8 {
		t.Errorf("unexpected elst position %d/%d", off, size)
	}
}

func TestEditListVersion1(t *testing.T) {
	elst := &EditList{Version: 1, Entries: []EditListEntry{{SegmentDuration: 1 << 40, MediaTime: -1, MediaRateInteger: 1}}}
	b := marshalAtom(elst)
	if len(b) != 16+20 {
		t.Fatalf("expected 36 bytes, got %d", len(b))
	}
	var got EditList
	if _, err := got.Unmarshal(b, 0); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(elst.Entries, got.Entries); diff != "" {
		t.Errorf("entries differ (-want +got):\n%s", diff)
	}
}

func TestTrackFragRunNegativeCTS(t *testing.T) {
	trun := &TrackFragRun{
		Version: 1,
		Flags:   TrackRunDataOffset | TrackRunSampleDuration | TrackRunSampleSize | TrackRunSampleCTS,
		Entries: []TrackFragRunEntry{{Duration: 100, Size: 3, CTS: -100}, {Duration: 100, Size: 4, CTS: 200}},
	}
	b := marshalAtom(trun)
	var got TrackFragRun
	if _, err := got.Unmarshal(b, 0); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(trun.Entries, got.Entries); diff != "" {
		t.Errorf("entries differ (-want +got):\n%s", diff)
	}
}

func TestParseErrorChain(t *testing.T) {
	b := marshalAtom(testMovie())
	// claim one more entry than the elst holds
	idx := bytes.Index(b, []byte("elst"))
	b[idx+11] = 3

	var moov Movie
	_, err := moov.Unmarshal(b, 0)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	for _, want := range []string{"trak", "edts", "elst", "Entries"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestReadFileAtoms(t *testing.T) {
	var buf bytes.Buffer
	ftyp := &FileType{MajorBrand: uint32(StringToTag("isom")), MinorVersion: 512, CompatibleBrands: []uint32{uint32(StringToTag("isom"))}}
	buf.Write(marshalAtom(ftyp))
	buf.Write(marshalAtom(testMovie()))
	buf.Write(marshalAtom(&MediaData{Data: []byte{1, 2, 3, 4}}))

	atoms, err := ReadFileAtoms(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	var tags []Tag
	for _, a := range atoms {
		tags = append(tags, a.Tag())
	}
	if diff := cmp.Diff([]Tag{FTYP, MOOV, MDAT}, tags); diff != "" {
		t.Errorf("tags differ (-want +got):\n%s", diff)
	}
	var out strings.Builder
	FprintAtom(&out, atoms[1])
	if !strings.Contains(out.String(), "elst offset=") || !strings.Contains(out.String(), "media_time=-1") {
		t.Errorf("unexpected tree:\n%s", out.String())
	}
}
