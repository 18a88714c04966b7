package lookup

import (
	"context"
	"errors"
	"fmt"
	"log"

	"karolbroda.com/lyroverlay/internal/logging"
	"karolbroda.com/lyroverlay/internal/track"
)

// Chain asks each provider in turn and returns the first synced or
// instrumental result. A plain-only result is kept as a fallback.
type Chain struct {
	providers []Provider
	logger    *log.Logger
}

func NewChain(logger *log.Logger, providers ...Provider) *Chain {
	return &Chain{
		providers: providers,
		logger:    logging.OrDiscard(logger),
	}
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) Providers() []Provider { return c.providers }

func (c *Chain) Lookup(ctx context.Context, info track.Info) (*Result, error) {
	if err := validTrack(info); err != nil {
		return nil, err
	}

	var fallback *Result
	var failure error
	for _, provider := range c.providers {
		result, err := provider.Lookup(ctx, info)
		switch {
		case errors.Is(err, ErrInstrumental):
			return &Result{Provider: provider.Name(), Instrumental: true}, nil
		case err == nil && result.hit():
			logging.Debugf(c.logger, "%s matched %s", provider.Name(), info.String())
			return result, nil
		case err == nil:
			if fallback == nil && result != nil && result.Plain != "" {
				fallback = result
			}
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case errors.Is(err, ErrNotFound):
			logging.Debugf(c.logger, "%s: nothing for %s", provider.Name(), info.String())
		default:
			c.logger.Printf("warning: %s lookup failed: %v", provider.Name(), err)
			if failure == nil {
				failure = fmt.Errorf("%s: %w", provider.Name(), err)
			}
		}
	}

	if fallback != nil {
		return fallback, nil
	}
	if failure != nil {
		return nil, failure
	}
	return nil, fmt.Errorf("%s: %w", info.String(), ErrNotFound)
}
