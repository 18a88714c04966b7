package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"karolbroda.com/lyroverlay/internal/logging"
	"karolbroda.com/lyroverlay/internal/lookup"
	"karolbroda.com/lyroverlay/internal/player"
	"karolbroda.com/lyroverlay/internal/syncer"
)

var ErrNoSource = errors.New("no player source")

type Options struct {
	SearchTimeout time.Duration
	OffsetMillis  int64
	Logger        *log.Logger
}

// Session owns the controller, the searcher and the player source of one
// listening session.
type Session struct {
	source     player.Source
	controller *syncer.Controller
	searcher   *lookup.Searcher
	logger     *log.Logger

	// mu pairs each MetadataChanged with its Search, so a retry and a
	// track change cannot interleave.
	mu sync.Mutex
}

func New(source player.Source, provider lookup.Provider, opts Options) *Session {
	logger := logging.OrDiscard(opts.Logger)
	controller := syncer.NewController()
	controller.SetOffset(opts.OffsetMillis)

	return &Session{
		source:     source,
		controller: controller,
		searcher:   lookup.NewSearcher(provider, controller, opts.SearchTimeout, logger),
		logger:     logger,
	}
}

func (s *Session) Controller() *syncer.Controller { return s.controller }

func (s *Session) Source() player.Source { return s.source }

// Run starts the source and feeds its events to the controller until ctx
// is done.
func (s *Session) Run(ctx context.Context) error {
	if s.source == nil {
		return ErrNoSource
	}
	if err := s.source.Start(ctx); err != nil {
		return fmt.Errorf("failed to start %s: %w", s.source.Name(), err)
	}
	defer s.source.Stop()
	defer s.searcher.Close()

	s.logger.Printf("listening to %s", s.source.Name())

	events := s.source.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			s.handle(event)
		}
	}
}

func (s *Session) handle(event player.Event) {
	switch event.Kind {
	case player.EventMetadata:
		if !event.Track.IsValid() {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()

		current := s.controller.Track()
		if event.Track.IsSameTrack(current) {
			if event.Track.DurationMillis != current.DurationMillis {
				s.controller.SetDuration(event.Track.DurationMillis)
			}
			return
		}
		s.logger.Printf("now playing: %s", event.Track.String())
		id := s.controller.MetadataChanged(event.Track)
		s.searcher.Search(id, *event.Track)
	case player.EventPlayback:
		logging.Debugf(s.logger, "sample: pos=%dms playing=%v", event.Sample.PositionMillis, event.Sample.Playing)
		s.controller.PlaybackStateChanged(event.Sample)
	}
}

// Retry searches again for the current track.
func (s *Session) Retry() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.controller.Track()
	if !current.IsValid() {
		return false
	}
	id := s.controller.MetadataChanged(current)
	s.searcher.Search(id, *current)
	return true
}

// Wait blocks until pending lookups have been delivered.
func (s *Session) Wait() {
	s.searcher.Wait()
}
