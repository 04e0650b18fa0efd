package mkv

import (
	"fmt"
	"io"
	"time"

	"github.com/at-wat/ebml-go"
	"github.com/at-wat/ebml-go/webm"
)

// Track describes one TrackEntry.
type Track struct {
	Number          uint64
	Type            uint64
	CodecID         string
	DefaultDuration time.Duration
}

// Info summarizes a Matroska/WebM stream.
type Info struct {
	DocType       string
	TimecodeScale uint64 // nanoseconds per timecode tick
	Tracks        []Track
	Clusters      int
	VideoFrames   int
	AudioBlocks   int
	Duration      time.Duration
}

// Track returns the entry for number, if present.
func (in *Info) Track(number uint64) (Track, bool) {
	for _, t := range in.Tracks {
		if t.Number == number {
			return t, true
		}
	}
	return Track{}, false
}

type stream struct {
	Header  webm.EBMLHeader `ebml:"EBML"`
	Segment segment         `ebml:"Segment"`
}

type segment struct {
	Info    SegmentInfo `ebml:"Info"`
	Tracks  tracks      `ebml:"Tracks"`
	Cluster []cluster   `ebml:"Cluster"`
}

type tracks struct {
	TrackEntry []TrackEntry `ebml:"TrackEntry"`
}

type cluster struct {
	Timecode    uint64       `ebml:"Timecode"`
	SimpleBlock []ebml.Block `ebml:"SimpleBlock"`
	BlockGroup  []blockGroup `ebml:"BlockGroup"`
}

type blockGroup struct {
	Block ebml.Block `ebml:"Block"`
}

// Inspect reads a complete stream and reports its tracks, block counts and
// play duration. Duration is the end of the last video frame when the video
// track has a default duration, otherwise the latest block timestamp; an
// explicit segment Duration takes precedence.
func Inspect(r io.Reader) (Info, error) {
	var s stream
	if err := ebml.Unmarshal(r, &s); err != nil {
		return Info{}, fmt.Errorf("read matroska: %w", err)
	}

	in := Info{
		DocType:       s.Header.DocType,
		TimecodeScale: s.Segment.Info.TimecodeScale,
		Clusters:      len(s.Segment.Cluster),
	}
	if in.TimecodeScale == 0 {
		in.TimecodeScale = TimecodeScale
	}
	for _, e := range s.Segment.Tracks.TrackEntry {
		in.Tracks = append(in.Tracks, Track{
			Number:          e.TrackNumber,
			Type:            e.TrackType,
			CodecID:         e.CodecID,
			DefaultDuration: time.Duration(e.DefaultDuration),
		})
	}

	var (
		lastVideo = time.Duration(-1)
		lastBlock time.Duration
	)
	count := func(clusterTC uint64, b ebml.Block) {
		ts := time.Duration((int64(clusterTC) + int64(b.Timecode)) * int64(in.TimecodeScale))
		lastBlock = max(lastBlock, ts)
		t, _ := in.Track(b.TrackNumber)
		switch t.Type {
		case TrackVideo:
			in.VideoFrames++
			lastVideo = max(lastVideo, ts)
		case TrackAudio:
			in.AudioBlocks++
		}
	}
	for _, c := range s.Segment.Cluster {
		for _, b := range c.SimpleBlock {
			count(c.Timecode, b)
		}
		for _, g := range c.BlockGroup {
			count(c.Timecode, g.Block)
		}
	}

	switch {
	case s.Segment.Info.Duration > 0:
		in.Duration = time.Duration(s.Segment.Info.Duration * float64(in.TimecodeScale))
	case lastVideo >= 0:
		in.Duration = lastVideo
		for _, t := range in.Tracks {
			if t.Type == TrackVideo {
				in.Duration += t.DefaultDuration
				break
			}
		}
	default:
		in.Duration = lastBlock
	}
	return in, nil
}
