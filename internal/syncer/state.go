package syncer

import (
	"karolbroda.com/lyroverlay/internal/lyrics"
	"karolbroda.com/lyroverlay/internal/track"
)

// MatchState tells the renderer what to show when there is no line.
type MatchState int

const (
	Searching MatchState = iota
	Found
	NotFound
	PureMusic
)

func (s MatchState) String() string {
	switch s {
	case Searching:
		return "searching"
	case Found:
		return "found"
	case NotFound:
		return "not found"
	case PureMusic:
		return "pure music"
	default:
		return "unknown"
	}
}

// RequestID identifies one lyric lookup. Zero is never issued.
type RequestID uint64

// Frame is what one tick resolved.
type Frame struct {
	Line           lyrics.Line
	HasLine        bool
	Index          int
	State          MatchState
	Track          *track.Info
	PositionMillis int64
	OffsetMillis   int64
	// Changed is set when the displayed line or match state differs from
	// the previous tick.
	Changed bool
}
