package movietpl

import (
	"time"

	"github.com/deepch/elstcheck/format/mp4/mp4io"
	"github.com/deepch/elstcheck/format/mp4/timescale"
)

// Timing of the synthesized movie: 3 fps, two I-B-P groups, 2 seconds.
const (
	MovieTimeScale = 30
	TrackTimeScale = 300
	SampleDuration = 100
	MovieDuration  = 2 * time.Second

	// SpliceSize is the size of the free box reserved for edit lists.
	SpliceSize = 128
)

// Samples in decode order.
var (
	CompositionOffsets = []int32{100, 200, 0, 100, 200, 0}
	SyncSamples        = []uint32{1, 4}
)

// avcC for a 320x240 baseline stream.
var avcConfig = []byte{
	0x01, 0x42, 0x00, 0x29, 0xff, 0xe1,
	0x00, 0x12, 0x67, 0x42, 0x00, 0x29, 0xe2, 0x90, 0x14, 0x07, 0xb6, 0x02, 0xdc, 0x04, 0x04, 0x06, 0x90, 0x78, 0x91, 0x15,
	0x01, 0x00, 0x04, 0x68, 0xce, 0x3c, 0x80,
}

// Options select the flavour of synthesized movie.
type Options struct {
	// Fragmented moves the samples into one moof/mdat pair per group of
	// pictures and adds mvex.
	Fragmented bool
	// NoMovieExtendsHeader leaves mehd out of mvex.
	NoMovieExtendsHeader bool
}

func isSync(i int) bool {
	for _, n := range SyncSamples {
		if int(n) == i+1 {
			return true
		}
	}
	return false
}

// sample returns a length-prefixed NAL unit for sample i.
func sample(i int) []byte {
	nal := byte(0x41)
	if isSync(i) {
		nal = 0x65
	}
	return []byte{0, 0, 0, 3, nal, 0x88, byte(i)}
}

func fileType() *mp4io.FileType {
	isom := uint32(mp4io.StringToTag("isom"))
	return &mp4io.FileType{
		MajorBrand:   isom,
		MinorVersion: 512,
		CompatibleBrands: []uint32{
			isom,
			uint32(mp4io.StringToTag("iso2")),
			uint32(mp4io.StringToTag("avc1")),
			uint32(mp4io.StringToTag("mp41")),
		},
	}
}

func movie(opts Options) *mp4io.Movie {
	movieDur := uint32(timescale.ToScale(MovieDuration, MovieTimeScale))
	trackDur := uint32(timescale.ToScale(MovieDuration, TrackTimeScale))
	stbl := &mp4io.SampleTable{
		SampleDesc: &mp4io.SampleDesc{AVC1Desc: &mp4io.AVC1Desc{
			DataRefIdx:           1,
			Width:                320,
			Height:               240,
			HorizontalResolution: 72,
			VerticalResolution:   72,
			FrameCount:           1,
			Depth:                24,
			ColorTableId:         -1,
			Conf:                 &mp4io.AVC1Conf{Data: avcConfig},
		}},
		TimeToSample:  &mp4io.TimeToSample{},
		SampleToChunk: &mp4io.SampleToChunk{},
		SampleSize:    &mp4io.SampleSize{},
		ChunkOffset:   &mp4io.ChunkOffset{},
	}
	if !opts.Fragmented {
		n := len(CompositionOffsets)
		stbl.TimeToSample.Entries = []mp4io.TimeToSampleEntry{{Count: uint32(n), Duration: SampleDuration}}
		stbl.CompositionOffset = &mp4io.CompositionOffset{}
		for i, off := range CompositionOffsets {
			stbl.CompositionOffset.Entries = append(stbl.CompositionOffset.Entries, mp4io.CompositionOffsetEntry{Count: 1, Offset: off})
			stbl.SampleSize.Entries = append(stbl.SampleSize.Entries, uint32(len(sample(i))))
		}
		stbl.SyncSample = &mp4io.SyncSample{Entries: SyncSamples}
		stbl.SampleToChunk.Entries = []mp4io.SampleToChunkEntry{{FirstChunk: 1, SamplesPerChunk: uint32(n), SampleDescId: 1}}
		stbl.ChunkOffset.Entries = []uint32{0}
	}

	moov := &mp4io.Movie{
		Header: &mp4io.MovieHeader{
			TimeScale:       MovieTimeScale,
			Duration:        movieDur,
			PreferredRate:   1,
			PreferredVolume: 1,
			Matrix:          mp4io.IdentityMatrix,
			NextTrackID:     2,
		},
		Tracks: []*mp4io.Track{{
			Header: &mp4io.TrackHeader{
				Flags:       0x3,
				TrackID:     1,
				Duration:    movieDur,
				Matrix:      mp4io.IdentityMatrix,
				TrackWidth:  320,
				TrackHeight: 240,
			},
			Free: &mp4io.Free{Data: make([]byte, SpliceSize-8)},
			Media: &mp4io.Media{
				Header:  &mp4io.MediaHeader{TimeScale: TrackTimeScale, Duration: trackDur, Language: 0x55c4},
				Handler: &mp4io.HandlerRefer{Type: mp4io.StringToTag("vide"), Name: "VideoHandler"},
				Info: &mp4io.MediaInfo{
					Video:  &mp4io.VideoMediaInfo{Flags: 1},
					Data:   &mp4io.DataInfo{Refer: &mp4io.DataRefer{Url: &mp4io.DataReferUrl{Flags: 1}}},
					Sample: stbl,
				},
			},
		}},
	}
	if opts.Fragmented {
		moov.MovieExtend = &mp4io.MovieExtend{
			Tracks: []*mp4io.TrackExtend{{TrackID: 1, DefaultSampleDescIdx: 1}},
		}
		if !opts.NoMovieExtendsHeader {
			moov.MovieExtend.Header = &mp4io.MovieExtendHeader{FragmentDuration: uint64(movieDur)}
		}
	}
	return moov
}

// fragment builds the moof for samples [first, first+count).
func fragment(seq uint32, first, count int) *mp4io.MovieFrag {
	trun := &mp4io.TrackFragRun{
		Flags: mp4io.TrackRunDataOffset | mp4io.TrackRunSampleDuration | mp4io.TrackRunSampleSize |
			mp4io.TrackRunSampleFlags | mp4io.TrackRunSampleCTS,
	}
	for i := first; i < first+count; i++ {
		flags := mp4io.SampleNonKeyframe
		if isSync(i) {
			flags = mp4io.SampleNoDependencies
		}
		trun.Entries = append(trun.Entries, mp4io.TrackFragRunEntry{
			Duration: SampleDuration,
			Size:     uint32(len(sample(i))),
			Flags:    flags,
			CTS:      CompositionOffsets[i],
		})
	}
	moof := &mp4io.MovieFrag{
		Header: &mp4io.MovieFragHeader{Seqnum: seq},
		Tracks: []*mp4io.TrackFrag{{
			Header:     &mp4io.TrackFragHeader{Flags: mp4io.TrackFragDefaultBaseIsMOOF, TrackID: 1},
			DecodeTime: &mp4io.TrackFragDecodeTime{Version: 1, Time: uint64(first * SampleDuration)},
			Run:        trun,
		}},
	}
	trun.DataOffset = int32(moof.Len() + 8)
	return moof
}

func mediaData(first, count int) *mp4io.MediaData {
	mdat := &mp4io.MediaData{}
	for i := first; i < first+count; i++ {
		mdat.Data = append(mdat.Data, sample(i)...)
	}
	return mdat
}

// Synthesize builds an I-B-P-I-B-P movie with an empty splice region right
// after tkhd.
func Synthesize(opts Options) (*Template, error) {
	ftyp := fileType()
	moov := movie(opts)
	atoms := []mp4io.Atom{ftyp, moov}
	n := len(CompositionOffsets)
	if opts.Fragmented {
		gop := int(SyncSamples[1] - SyncSamples[0])
		for seq, first := uint32(1), 0; first < n; seq, first = seq+1, first+gop {
			atoms = append(atoms, fragment(seq, first, gop), mediaData(first, gop))
		}
	} else {
		stco := moov.Tracks[0].Media.Info.Sample.ChunkOffset
		stco.Entries[0] = uint32(ftyp.Len() + moov.Len() + 8)
		atoms = append(atoms, mediaData(0, n))
	}

	size := 0
	for _, atom := range atoms {
		size += atom.Len()
	}
	data := make([]byte, size)
	pos := 0
	for _, atom := range atoms {
		pos += atom.Marshal(data[pos:])
	}
	return New(data, ftyp.Len()+8+moov.Header.Len()+8+moov.Tracks[0].Header.Len(), SpliceSize)
}
