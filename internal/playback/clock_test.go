package playback

import (
	"sync"
	"testing"
	"time"
)

func TestEstimateWhilePlaying(t *testing.T) {
	var c Clock
	c.Update(Sample{PositionMillis: 10_000, CapturedAtMillis: 1_000, Playing: true})

	tests := []struct {
		name   string
		now    int64
		offset int64
		want   int64
	}{
		{"at capture", 1_000, 0, 10_000},
		{"elapsed", 3_500, 0, 12_500},
		{"positive offset", 3_500, 400, 12_900},
		{"negative offset", 3_500, -600, 11_900},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.EstimatePositionMillis(tt.now, tt.offset); got != tt.want {
				t.Errorf("EstimatePositionMillis(%d, %d) = %d, want %d", tt.now, tt.offset, got, tt.want)
			}
		})
	}
}

func TestEstimateFrozenWhenPaused(t *testing.T) {
	var c Clock
	c.Update(Sample{PositionMillis: 42_000, CapturedAtMillis: 1_000, Playing: false})

	first := c.EstimatePositionMillis(2_000, 0)
	later := c.EstimatePositionMillis(60_000, 0)
	if first != 42_000 || later != 42_000 {
		t.Fatalf("paused estimate moved: %d then %d, want 42000", first, later)
	}
	if !c.Frozen() {
		t.Fatal("Frozen() = false for a paused sample")
	}
}

func TestFrozenEstimateIgnoresOffset(t *testing.T) {
	var c Clock
	c.Update(Sample{PositionMillis: 42_000, CapturedAtMillis: 1_000, Playing: false})

	for _, offset := range []int64{5_000, -5_000, 500} {
		if got := c.EstimatePositionMillis(60_000, offset); got != 42_000 {
			t.Errorf("paused EstimatePositionMillis(60000, %d) = %d, want 42000", offset, got)
		}
	}

	c.SetDuration(42_000)
	c.Update(Sample{PositionMillis: 42_000, CapturedAtMillis: 1_000, Playing: true})
	if got := c.EstimatePositionMillis(60_000, 5_000); got != 42_000 {
		t.Errorf("ended EstimatePositionMillis(60000, 5000) = %d, want 42000", got)
	}
}

func TestEstimateFrozenAtEndOfTrack(t *testing.T) {
	var c Clock
	c.SetDuration(180_000)
	c.Update(Sample{PositionMillis: 180_000, CapturedAtMillis: 0, Playing: true})

	if got := c.EstimatePositionMillis(5_000, 0); got != 180_000 {
		t.Fatalf("estimate past the end = %d, want 180000", got)
	}

	c.SetDuration(0)
	if got := c.EstimatePositionMillis(5_000, 0); got != 185_000 {
		t.Fatalf("unknown duration should extrapolate, got %d", got)
	}
}

func TestResumeAfterPause(t *testing.T) {
	var c Clock
	c.Update(Sample{PositionMillis: 5_000, CapturedAtMillis: 0, Playing: false})
	c.Update(Sample{PositionMillis: 5_000, CapturedAtMillis: 30_000, Playing: true})

	if got := c.EstimatePositionMillis(31_000, 0); got != 6_000 {
		t.Fatalf("estimate after resume = %d, want 6000", got)
	}
}

func TestNewSample(t *testing.T) {
	at := time.UnixMilli(1_700_000_000_123)
	s := NewSample(900, true, at)
	if s.CapturedAtMillis != 1_700_000_000_123 || s.PositionMillis != 900 || !s.Playing {
		t.Fatalf("NewSample() = %#v", s)
	}
}

func TestConcurrentUpdateAndEstimate(t *testing.T) {
	var c Clock
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := int64(0); i < 1000; i++ {
			c.Update(Sample{PositionMillis: i, CapturedAtMillis: i, Playing: true})
		}
	}()
	go func() {
		defer wg.Done()
		for i := int64(0); i < 1000; i++ {
			// position and capture time always move together, so the
			// estimate at "now == capture" equals the position.
			s := c.Sample()
			if got := c.EstimatePositionMillis(s.CapturedAtMillis, 0); got < 0 {
				t.Errorf("negative estimate %d", got)
				return
			}
		}
	}()
	wg.Wait()
}
