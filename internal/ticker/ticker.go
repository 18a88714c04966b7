package ticker

import (
	"context"
	"time"
)

const DefaultInterval = 50 * time.Millisecond

// Run calls fn right away and then once per interval until ctx is done.
// It blocks; callers that want it in the background start a goroutine.
func Run(ctx context.Context, interval time.Duration, fn func(now time.Time)) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	now := time.Now()
	for {
		if ctx.Err() != nil {
			return
		}
		fn(now)
		select {
		case <-ctx.Done():
			return
		case now = <-ticker.C:
		}
	}
}

// Start runs Run in a goroutine and returns a channel that is closed once
// it has stopped.
func Start(ctx context.Context, interval time.Duration, fn func(now time.Time)) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		Run(ctx, interval, fn)
	}()
	return done
}
