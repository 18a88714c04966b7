package lookup

import (
	"context"
	"log"

	"karolbroda.com/lyroverlay/internal/cache"
	"karolbroda.com/lyroverlay/internal/logging"
	"karolbroda.com/lyroverlay/internal/track"
)

// Cached stores the results of another provider in a disk cache. With
// skipReads set it still writes, so a forced refresh repopulates the cache.
type Cached struct {
	next      Provider
	store     *cache.DiskCache
	skipReads bool
	logger    *log.Logger
}

func NewCached(next Provider, store *cache.DiskCache, skipReads bool, logger *log.Logger) *Cached {
	return &Cached{
		next:      next,
		store:     store,
		skipReads: skipReads,
		logger:    logging.OrDiscard(logger),
	}
}

func (c *Cached) Name() string { return c.next.Name() }

func (c *Cached) Lookup(ctx context.Context, info track.Info) (*Result, error) {
	if err := validTrack(info); err != nil {
		return nil, err
	}

	if !c.skipReads {
		if entry, err := c.store.Get(info.Artist, info.Title); err == nil {
			logging.Debugf(c.logger, "cache hit for %s (%s)", info.String(), entry.Provider)
			return resultFromEntry(entry), nil
		}
	}

	result, err := c.next.Lookup(ctx, info)
	if err != nil {
		return nil, err
	}

	if result.hit() {
		if err := c.store.Set(info.Artist, info.Title, entryFromResult(result, info)); err != nil {
			c.logger.Printf("warning: failed to cache lyrics for %s: %v", info.String(), err)
		}
	}

	return result, nil
}

func entryFromResult(result *Result, info track.Info) *cache.Entry {
	return &cache.Entry{
		Provider:       result.Provider,
		TrackID:        result.TrackID,
		TrackName:      firstNonEmpty(result.TrackName, info.Title),
		ArtistName:     firstNonEmpty(result.ArtistName, info.Artist),
		AlbumName:      firstNonEmpty(result.AlbumName, info.Album),
		DurationMillis: info.DurationMillis,
		Instrumental:   result.Instrumental,
		PlainLyrics:    result.Plain,
		SyncedLyrics:   result.Synced,
	}
}

func resultFromEntry(entry *cache.Entry) *Result {
	return &Result{
		Provider:     entry.Provider,
		TrackID:      entry.TrackID,
		TrackName:    entry.TrackName,
		ArtistName:   entry.ArtistName,
		AlbumName:    entry.AlbumName,
		Synced:       entry.SyncedLyrics,
		Plain:        entry.PlainLyrics,
		Instrumental: entry.Instrumental,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
