package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/godbus/dbus/v5"

	"karolbroda.com/lyroverlay/internal/cache"
	"karolbroda.com/lyroverlay/internal/config"
	"karolbroda.com/lyroverlay/internal/logging"
	"karolbroda.com/lyroverlay/internal/lookup"
	"karolbroda.com/lyroverlay/internal/player"
)

// openLogger returns the process logger. The overlay owns the terminal, so
// without a log file it logs nothing while the TUI runs.
func openLogger(cfg config.Config, ownsTerminal bool) (*log.Logger, func(), error) {
	if ownsTerminal && cfg.LogFile == "" {
		logging.SetDebug(cfg.Debug)
		return logging.Discard(), func() {}, nil
	}

	logger, closer, err := logging.New(cfg.LogFile, cfg.Debug)
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = closer.Close() }, nil
}

// openCache falls back to a memory-only cache when the directory is unusable.
func openCache(cfg config.Config, logger *log.Logger) *cache.DiskCache {
	dir := cfg.CacheDir
	if dir == "" {
		var err error
		dir, err = cache.DefaultDir()
		if err != nil {
			logger.Printf("warning: no cache directory: %v", err)
			return cache.NewMemory()
		}
	}

	store, err := cache.New(dir)
	if err != nil {
		logger.Printf("warning: cache disabled: %v", err)
		return cache.NewMemory()
	}
	return store
}

// buildProviders returns the configured providers in lookup order. With
// watch set, a local directory is re-indexed on changes until ctx is done.
func buildProviders(ctx context.Context, cfg config.Config, watch bool, logger *log.Logger) ([]lookup.Provider, error) {
	client := lookup.NewHTTPClient(cfg.HTTPTimeout)

	var providers []lookup.Provider
	for _, name := range cfg.Providers {
		switch name {
		case config.ProviderLocal:
			if cfg.LyricsDir == "" {
				logging.Debugf(logger, "local provider skipped: no lyrics directory")
				continue
			}
			local, err := lookup.NewLocal(cfg.LyricsDir, logger)
			if err != nil {
				logger.Printf("warning: local lyrics disabled: %v", err)
				continue
			}
			if watch {
				if err := local.Watch(ctx); err != nil {
					logger.Printf("warning: %v", err)
				}
			}
			providers = append(providers, local)

		case config.ProviderLRCLIB:
			providers = append(providers, lookup.NewLRCLIB(cfg.LrclibURL, lookup.WithLRCLIBClient(client)))

		case config.ProviderNetease:
			providers = append(providers, lookup.NewNetease(cfg.NeteaseURL, client))
		}
	}

	if len(providers) == 0 {
		return nil, errors.New("no usable lyric provider")
	}
	return providers, nil
}

// buildProvider chains the configured providers behind the lookup cache.
func buildProvider(ctx context.Context, cfg config.Config, store *cache.DiskCache, watch bool, logger *log.Logger) (lookup.Provider, error) {
	providers, err := buildProviders(ctx, cfg, watch, logger)
	if err != nil {
		return nil, err
	}
	return lookup.NewCached(lookup.NewChain(logger, providers...), store, cfg.NoCache, logger), nil
}

// openSource connects to the configured player. The returned close func
// releases the bus connection, if any.
func openSource(cfg config.Config, logger *log.Logger) (player.Source, func(), error) {
	switch cfg.Source {
	case config.SourceMPD:
		return player.NewMPD(cfg.MPDAddr, cfg.MPDPassword, logger), func() {}, nil

	default:
		bus, err := dbus.ConnectSessionBus()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to session bus: %w", err)
		}

		src, err := player.NewMPRIS(bus, cfg.MprisService, cfg.PollInterval, logger)
		if err != nil {
			bus.Close()
			return nil, nil, fmt.Errorf("failed to create player service: %w", err)
		}
		return src, func() { bus.Close() }, nil
	}
}
