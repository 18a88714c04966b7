package syncer

import (
	"sync"

	"karolbroda.com/lyroverlay/internal/lyrics"
	"karolbroda.com/lyroverlay/internal/playback"
	"karolbroda.com/lyroverlay/internal/track"
)

// Controller ties player notifications, lookup results and render ticks
// together for one listening session. All methods are safe for concurrent
// use and none of them block on I/O or return errors.
type Controller struct {
	mu sync.Mutex

	clock   playback.Clock
	cursor  *lyrics.Cursor
	state   MatchState
	track   *track.Info
	offset  int64
	request RequestID

	rendered  bool
	lastLine  lyrics.Line
	lastHas   bool
	lastState MatchState
}

func NewController() *Controller {
	return &Controller{
		cursor: lyrics.NewCursor(nil),
		state:  NotFound,
	}
}

// MetadataChanged starts a new track. The active document is dropped, the
// state becomes Searching and the returned id must tag the lookup result.
func (c *Controller) MetadataChanged(info *track.Info) RequestID {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.request++
	if info != nil {
		copied := *info
		c.track = &copied
		c.clock.SetDuration(info.DurationMillis)
	} else {
		c.track = nil
		c.clock.SetDuration(0)
	}
	c.cursor = lyrics.NewCursor(nil)
	c.state = Searching
	c.clearRendered()

	return c.request
}

// SetDuration updates the length of the current track without starting a
// new lookup.
func (c *Controller) SetDuration(durationMillis int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.track != nil {
		c.track.DurationMillis = durationMillis
	}
	c.clock.SetDuration(durationMillis)
}

// TrackMatched installs a lookup result. Results whose id is not the most
// recent request are stale and dropped; the return value reports whether
// the result was applied. A Found result without lines degrades to NotFound.
func (c *Controller) TrackMatched(id RequestID, doc *lyrics.Document, state MatchState) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id == 0 || id != c.request {
		return false
	}

	if state == Found && doc.IsEmpty() {
		state = NotFound
	}
	if state != Found {
		doc = nil
	}

	c.cursor = lyrics.NewCursor(doc)
	c.state = state
	c.clearRendered()
	return true
}

// clearRendered forgets the last resolved line, so accessors never report
// text from a previous document and the next Tick reports a change.
func (c *Controller) clearRendered() {
	c.rendered = false
	c.lastLine = lyrics.Line{}
	c.lastHas = false
}

func (c *Controller) PlaybackStateChanged(sample playback.Sample) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clock.Update(sample)
}

// AdjustOffset adds delta to the manual offset and returns the new value.
// Positive values move the estimated position forward, so lyrics show up
// earlier ("faster"); negative values delay them.
func (c *Controller) AdjustOffset(deltaMillis int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset += deltaMillis
	return c.offset
}

func (c *Controller) SetOffset(offsetMillis int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset = offsetMillis
}

func (c *Controller) Offset() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offset
}

// Tick resolves the line for the given wall-clock time. Calling it
// repeatedly with the same time and no other change yields the same frame.
func (c *Controller) Tick(nowMillis int64) Frame {
	c.mu.Lock()
	defer c.mu.Unlock()

	position := c.clock.EstimatePositionMillis(nowMillis, c.offset)

	frame := Frame{
		Index:          -1,
		State:          c.state,
		PositionMillis: position,
		OffsetMillis:   c.offset,
	}
	if c.track != nil {
		copied := *c.track
		frame.Track = &copied
	}

	if c.state == Found {
		frame.Line, frame.HasLine = c.cursor.Advance(position)
		frame.Index = c.cursor.Index()
	}

	frame.Changed = !c.rendered ||
		frame.HasLine != c.lastHas ||
		frame.Line.Text != c.lastLine.Text ||
		frame.State != c.lastState

	c.rendered = true
	c.lastLine = frame.Line
	c.lastHas = frame.HasLine
	c.lastState = frame.State

	return frame
}

// CurrentDisplayLine returns the line resolved by the latest tick.
func (c *Controller) CurrentDisplayLine() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.lastHas {
		return "", false
	}
	return c.lastLine.Text, true
}

func (c *Controller) MatchState() MatchState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Document returns the active lyric document, nil unless lyrics were found.
func (c *Controller) Document() *lyrics.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor.Document()
}

func (c *Controller) Track() *track.Info {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.track == nil {
		return nil
	}
	copied := *c.track
	return &copied
}

// CurrentRequest is the id the next lookup result must carry.
func (c *Controller) CurrentRequest() RequestID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.request
}

func (c *Controller) Sample() playback.Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clock.Sample()
}
