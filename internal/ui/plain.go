package ui

import (
	"context"
	"fmt"
	"io"
	"time"

	"karolbroda.com/lyroverlay/internal/ticker"
)

// RunPlain prints the displayed line to w every time it changes, without a
// terminal UI. It returns when ctx is done.
func RunPlain(ctx context.Context, controller Controller, interval time.Duration, w io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var writeErr error
	ticker.Run(ctx, interval, func(now time.Time) {
		frame := controller.Tick(now.UnixMilli())
		if !frame.Changed {
			return
		}
		if _, err := fmt.Fprintln(w, DisplayText(frame)); err != nil {
			writeErr = err
			cancel()
		}
	})
	return writeErr
}
