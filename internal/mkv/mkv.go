// Package mkv describes the Matroska tracks the recorder writes and reads
// recorded streams back for their duration and block counts.
package mkv

import (
	"io"
	"time"

	"github.com/at-wat/ebml-go/mkvcore"
	"github.com/at-wat/ebml-go/webm"
)

// Track types.
const (
	TrackVideo = 1
	TrackAudio = 2
)

// TimecodeScale is one millisecond per tick, which is what block writers
// take their timestamps in.
const TimecodeScale = uint64(time.Millisecond)

// TrackEntry is the subset of a Matroska TrackEntry the recorder needs.
// Unlike webm.TrackEntry it carries BitDepth, which PCM tracks require.
type TrackEntry struct {
	Name            string `ebml:"Name,omitempty"`
	TrackNumber     uint64 `ebml:"TrackNumber"`
	TrackUID        uint64 `ebml:"TrackUID"`
	CodecID         string `ebml:"CodecID"`
	TrackType       uint64 `ebml:"TrackType"`
	FlagLacing      uint64 `ebml:"FlagLacing"`
	DefaultDuration uint64 `ebml:"DefaultDuration,omitempty"`
	Video           *Video `ebml:"Video,omitempty"`
	Audio           *Audio `ebml:"Audio,omitempty"`
}

type Video struct {
	PixelWidth  uint64 `ebml:"PixelWidth"`
	PixelHeight uint64 `ebml:"PixelHeight"`
}

type Audio struct {
	SamplingFrequency float64 `ebml:"SamplingFrequency"`
	Channels          uint64  `ebml:"Channels"`
	BitDepth          uint64  `ebml:"BitDepth,omitempty"`
}

// SegmentInfo is the segment's Info element.
type SegmentInfo struct {
	TimecodeScale uint64  `ebml:"TimecodeScale"`
	MuxingApp     string  `ebml:"MuxingApp,omitempty"`
	WritingApp    string  `ebml:"WritingApp,omitempty"`
	Duration      float64 `ebml:"Duration,omitempty"`
}

// Header returns the EBML header of a Matroska document.
func Header() *webm.EBMLHeader {
	return &webm.EBMLHeader{
		EBMLVersion:        1,
		EBMLReadVersion:    1,
		EBMLMaxIDLength:    4,
		EBMLMaxSizeLength:  8,
		DocType:            "matroska",
		DocTypeVersion:     4,
		DocTypeReadVersion: 2,
	}
}

// NewWriter writes the header and tracks to w and returns one block writer
// per track, in order. Blocks go into unknown-size clusters as they arrive;
// w is closed once every block writer is closed.
func NewWriter(w io.WriteCloser, app string, tracks ...TrackEntry) ([]mkvcore.BlockWriteCloser, error) {
	desc := make([]mkvcore.TrackDescription, len(tracks))
	for i, t := range tracks {
		desc[i] = mkvcore.TrackDescription{TrackNumber: t.TrackNumber, TrackEntry: t}
	}
	return mkvcore.NewSimpleBlockWriter(w, desc,
		mkvcore.WithEBMLHeader(Header()),
		mkvcore.WithSegmentInfo(&SegmentInfo{
			TimecodeScale: TimecodeScale,
			MuxingApp:     app,
			WritingApp:    app,
		}),
	)
}
