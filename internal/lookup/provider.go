package lookup

import (
	"context"
	"errors"
	"strings"

	"karolbroda.com/lyroverlay/internal/lyrics"
	"karolbroda.com/lyroverlay/internal/syncer"
	"karolbroda.com/lyroverlay/internal/track"
)

var (
	ErrNotFound     = errors.New("no lyrics found")
	ErrInstrumental = errors.New("track is instrumental")
	ErrInvalidTrack = errors.New("track title or artist is empty")
)

// Result is what a provider found for one track. Synced holds LRC text,
// Plain holds untimed lyrics when that is all the provider had.
type Result struct {
	Provider     string
	TrackID      string
	TrackName    string
	ArtistName   string
	AlbumName    string
	Synced       string
	Plain        string
	Instrumental bool
}

// HasSynced reports whether the result carries timed lyrics.
func (r *Result) HasSynced() bool {
	return r != nil && strings.TrimSpace(r.Synced) != ""
}

func (r *Result) hit() bool {
	return r != nil && (r.Instrumental || r.HasSynced())
}

// Provider looks up lyrics for a track. Implementations return ErrNotFound
// (possibly wrapped) when they have nothing for it.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, info track.Info) (*Result, error)
}

// Classify turns a lookup outcome into what the sync controller expects.
func Classify(result *Result, err error) (*lyrics.Document, syncer.MatchState) {
	if errors.Is(err, ErrInstrumental) {
		return nil, syncer.PureMusic
	}
	if err != nil || result == nil {
		return nil, syncer.NotFound
	}
	if result.Instrumental {
		return nil, syncer.PureMusic
	}

	doc := lyrics.Parse(result.Synced)
	if doc.IsEmpty() {
		return nil, syncer.NotFound
	}

	return doc, syncer.Found
}

func validTrack(info track.Info) error {
	if strings.TrimSpace(info.Title) == "" || strings.TrimSpace(info.Artist) == "" {
		return ErrInvalidTrack
	}
	return nil
}
