package playback

import (
	"sync"
	"time"
)

// Sample is the most recent authoritative reading from the player.
type Sample struct {
	PositionMillis   int64
	CapturedAtMillis int64
	Playing          bool
}

// NewSample stamps a position reading with the wall-clock time it was taken.
func NewSample(positionMillis int64, playing bool, capturedAt time.Time) Sample {
	return Sample{
		PositionMillis:   positionMillis,
		CapturedAtMillis: capturedAt.UnixMilli(),
		Playing:          playing,
	}
}

// Clock extrapolates the playback position from the last sample.
// One writer replaces samples; any number of readers estimate from a
// consistent snapshot.
type Clock struct {
	mu             sync.RWMutex
	sample         Sample
	durationMillis int64
}

func (c *Clock) Update(sample Sample) {
	c.mu.Lock()
	c.sample = sample
	c.mu.Unlock()
}

// SetDuration records the track length; zero means unknown.
func (c *Clock) SetDuration(durationMillis int64) {
	if durationMillis < 0 {
		durationMillis = 0
	}
	c.mu.Lock()
	c.durationMillis = durationMillis
	c.mu.Unlock()
}

func (c *Clock) Sample() Sample {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sample
}

func (c *Clock) Duration() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.durationMillis
}

// Frozen reports whether the estimate stops following wall-clock time:
// playback is paused, or the player already sits at or past the end.
func (c *Clock) Frozen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return frozen(c.sample, c.durationMillis)
}

// EstimatePositionMillis returns the position the player should be at now,
// shifted by the manual offset. A frozen clock returns the last known
// position as is, without extrapolation or offset.
func (c *Clock) EstimatePositionMillis(nowMillis int64, offsetMillis int64) int64 {
	c.mu.RLock()
	sample, duration := c.sample, c.durationMillis
	c.mu.RUnlock()

	if frozen(sample, duration) {
		return sample.PositionMillis
	}
	return sample.PositionMillis + (nowMillis - sample.CapturedAtMillis) + offsetMillis
}

func frozen(sample Sample, durationMillis int64) bool {
	if !sample.Playing {
		return true
	}
	return durationMillis > 0 && sample.PositionMillis >= durationMillis
}
