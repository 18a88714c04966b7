package player

import (
	"context"
	"errors"

	"karolbroda.com/lyroverlay/internal/playback"
	"karolbroda.com/lyroverlay/internal/track"
)

var ErrNoTrack = errors.New("nothing is playing")

type EventKind int

const (
	// EventMetadata carries the track that is now loaded.
	EventMetadata EventKind = iota
	// EventPlayback carries a fresh position sample.
	EventPlayback
)

func (k EventKind) String() string {
	switch k {
	case EventMetadata:
		return "metadata"
	case EventPlayback:
		return "playback"
	default:
		return "unknown"
	}
}

type Event struct {
	Kind   EventKind
	Track  *track.Info
	Sample playback.Sample
}

// Source reports what a music player is doing. Events are delivered on a
// buffered channel. When the consumer falls behind, playback samples are
// dropped, but metadata events wait for room until the source is stopped.
type Source interface {
	Name() string
	Start(ctx context.Context) error
	Events() <-chan Event
	Snapshot() (*track.Info, playback.Sample, error)
	Stop()
}

const eventBuffer = 16

// emit queues event on ch. A later sample supersedes a dropped one, so
// playback events never block; a lost track change would leave the
// consumer on the wrong track, so metadata blocks until sent or done closes.
func emit(ch chan Event, done <-chan struct{}, event Event) {
	if event.Kind == EventMetadata {
		select {
		case ch <- event:
		case <-done:
		}
		return
	}
	select {
	case ch <- event:
	default:
	}
}
