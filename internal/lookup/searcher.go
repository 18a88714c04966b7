package lookup

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"karolbroda.com/lyroverlay/internal/logging"
	"karolbroda.com/lyroverlay/internal/lyrics"
	"karolbroda.com/lyroverlay/internal/syncer"
	"karolbroda.com/lyroverlay/internal/track"
)

const DefaultSearchTimeout = 20 * time.Second

// Matcher receives lookup outcomes. *syncer.Controller implements it.
type Matcher interface {
	TrackMatched(id syncer.RequestID, doc *lyrics.Document, state syncer.MatchState) bool
}

// Searcher runs at most one lookup at a time on behalf of a controller.
// Starting a search cancels the previous one; a result that still arrives
// late is rejected by the controller because its request id is stale.
// Request ids only grow, so a search for an id older than the newest one
// started is ignored and cannot cancel its successor.
type Searcher struct {
	provider Provider
	target   Matcher
	timeout  time.Duration
	logger   *log.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	latest syncer.RequestID
	closed bool
	wg     sync.WaitGroup
}

func NewSearcher(provider Provider, target Matcher, timeout time.Duration, logger *log.Logger) *Searcher {
	if timeout <= 0 {
		timeout = DefaultSearchTimeout
	}
	return &Searcher{
		provider: provider,
		target:   target,
		timeout:  timeout,
		logger:   logging.OrDiscard(logger),
	}
}

// Search starts looking up info for request id.
func (s *Searcher) Search(id syncer.RequestID, info track.Info) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if id < s.latest {
		logging.Debugf(s.logger, "ignored out-of-order lookup %d for %s (newest %d)", id, info.String(), s.latest)
		return
	}
	s.latest = id

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.run(ctx, id, info)
	}()
}

func (s *Searcher) run(ctx context.Context, id syncer.RequestID, info track.Info) {
	result, err := s.provider.Lookup(ctx, info)
	if errors.Is(err, context.Canceled) {
		logging.Debugf(s.logger, "lookup %d for %s cancelled", id, info.String())
		return
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.Printf("warning: lyrics lookup for %s failed: %v", info.String(), err)
	}

	doc, state := Classify(result, err)
	if !s.target.TrackMatched(id, doc, state) {
		logging.Debugf(s.logger, "dropped stale lookup %d for %s", id, info.String())
		return
	}
	logging.Debugf(s.logger, "lookup %d for %s: %s", id, info.String(), state)
}

// Wait blocks until every started lookup has delivered or given up.
func (s *Searcher) Wait() {
	s.wg.Wait()
}

// Close cancels the running lookup and refuses new ones.
func (s *Searcher) Close() {
	s.mu.Lock()
	s.closed = true
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
}
