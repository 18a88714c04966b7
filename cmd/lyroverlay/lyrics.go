package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"karolbroda.com/lyroverlay/internal/lookup"
	"karolbroda.com/lyroverlay/internal/lyrics"
	"karolbroda.com/lyroverlay/internal/syncer"
	"karolbroda.com/lyroverlay/internal/track"
)

var (
	// flags shared by the lookup subcommands
	lookupAlbum    string
	lookupDuration float64
)

var lyricsCmd = &cobra.Command{
	Use:   "lyrics",
	Short: "lyrics search and management",
	Long:  `search the configured providers, pre-fetch to cache, preview lyrics, or check an lrc file.`,
}

var lyricsSearchCmd = &cobra.Command{
	Use:   "search <artist> <title>",
	Short: "ask every provider for lyrics",
	Long:  `query each configured provider in turn, bypassing the cache, and report what each one has.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, closeLog, err := openLogger(cfg, false)
		if err != nil {
			return err
		}
		defer closeLog()

		providers, err := buildProviders(cmd.Context(), cfg, false, logger)
		if err != nil {
			return err
		}

		info := trackFromArgs(args)
		fmt.Printf("searching for: %s\n\n", info.String())

		found := 0
		for _, provider := range providers {
			result, err := lookupWithTimeout(cmd.Context(), provider, info)
			_, state := lookup.Classify(result, err)

			fmt.Printf("%s: %s\n", provider.Name(), state)
			switch {
			case err != nil && !errors.Is(err, lookup.ErrNotFound):
				fmt.Printf("  error:        %v\n", err)
			case result != nil:
				printResult(result)
			}
			fmt.Println()

			if state == syncer.Found || state == syncer.PureMusic {
				found++
			}
		}

		if found == 0 {
			return fmt.Errorf("no provider has synced lyrics for %s", info.String())
		}

		fmt.Println("use 'lyroverlay lyrics fetch' to save to cache")
		return nil
	},
}

var lyricsFetchCmd = &cobra.Command{
	Use:   "fetch <artist> <title>",
	Short: "pre-fetch and cache lyrics",
	Long:  `look the song up through the provider chain and save the result to the local cache for instant loading.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, closeLog, err := openLogger(cfg, false)
		if err != nil {
			return err
		}
		defer closeLog()

		info := trackFromArgs(args)
		store := openCache(cfg, logger)

		if cached, err := store.Get(info.Artist, info.Title); err == nil && !cfg.NoCache {
			fmt.Printf("'%s' is already cached (from %s)\n", info.String(), cached.Provider)
			return nil
		}

		provider, err := buildProvider(cmd.Context(), cfg, store, false, logger)
		if err != nil {
			return err
		}

		fmt.Printf("fetching: %s\n", info.String())

		result, err := lookupWithTimeout(cmd.Context(), provider, info)
		doc, state := lookup.Classify(result, err)
		switch state {
		case syncer.Found:
			fmt.Printf("cached successfully: %d synced lines from %s\n", doc.Len(), result.Provider)
		case syncer.PureMusic:
			fmt.Println("cached successfully: instrumental track")
		default:
			if err != nil {
				return fmt.Errorf("failed to fetch lyrics: %w", err)
			}
			return errors.New("no synced lyrics available for this song")
		}

		return nil
	},
}

var lyricsPreviewCmd = &cobra.Command{
	Use:   "preview <artist> <title>",
	Short: "preview lyrics in terminal",
	Long:  `display the lyrics the overlay would use, with timestamps.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, closeLog, err := openLogger(cfg, false)
		if err != nil {
			return err
		}
		defer closeLog()

		provider, err := buildProvider(cmd.Context(), cfg, openCache(cfg, logger), false, logger)
		if err != nil {
			return err
		}

		info := trackFromArgs(args)
		result, err := lookupWithTimeout(cmd.Context(), provider, info)
		doc, state := lookup.Classify(result, err)

		switch state {
		case syncer.PureMusic:
			fmt.Printf("\n%s\n%s\n\n[instrumental]\n", info.String(), strings.Repeat("─", 60))
			return nil
		case syncer.Found:
		default:
			if result != nil && result.Plain != "" {
				fmt.Printf("\n%s\n%s\n\nplain lyrics (no timestamps):\n\n%s\n", info.String(), strings.Repeat("─", 60), result.Plain)
				return nil
			}
			if err != nil {
				return fmt.Errorf("lyrics not found: %w", err)
			}
			return errors.New("lyrics not found")
		}

		fmt.Printf("\n%s - %s\n", firstNonEmpty(result.ArtistName, info.Artist), firstNonEmpty(result.TrackName, info.Title))
		if result.AlbumName != "" {
			fmt.Printf("%s\n", result.AlbumName)
		}
		fmt.Printf("(from %s)\n", result.Provider)
		fmt.Println(strings.Repeat("─", 60))

		printDocument(doc)
		return nil
	},
}

var lyricsParseCmd = &cobra.Command{
	Use:   "parse <file.lrc>",
	Short: "check an lrc file",
	Long:  `parse a local lrc file the way the overlay does and print the timed lines and tags it found.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read lyrics file: %w", err)
		}

		doc := lyrics.Parse(string(raw))
		if doc.IsEmpty() {
			return fmt.Errorf("%s has no timed lines", args[0])
		}

		for _, tag := range []string{"ti", "ar", "al", "by"} {
			if value, ok := doc.Tag(tag); ok {
				fmt.Printf("%s: %s\n", tag, value)
			}
		}
		if offset, ok := doc.OffsetTag(); ok {
			fmt.Printf("offset: %dms (not applied)\n", offset)
		}

		printDocument(doc)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lyricsCmd)

	lyricsCmd.AddCommand(lyricsSearchCmd)
	lyricsCmd.AddCommand(lyricsFetchCmd)
	lyricsCmd.AddCommand(lyricsPreviewCmd)
	lyricsCmd.AddCommand(lyricsParseCmd)

	for _, c := range []*cobra.Command{lyricsSearchCmd, lyricsFetchCmd, lyricsPreviewCmd} {
		c.Flags().StringVar(&lookupAlbum, "album", "", "album name, improves matching")
		c.Flags().Float64Var(&lookupDuration, "duration", 0, "track length in seconds, improves matching")
	}
}

func trackFromArgs(args []string) track.Info {
	return track.Info{
		Artist:         args[0],
		Title:          args[1],
		Album:          lookupAlbum,
		DurationMillis: int64(math.Round(lookupDuration * 1000)),
	}
}

func lookupWithTimeout(ctx context.Context, provider lookup.Provider, info track.Info) (*lookup.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, lookup.DefaultSearchTimeout)
	defer cancel()
	return provider.Lookup(ctx, info)
}

func printResult(result *lookup.Result) {
	if result.TrackName != "" {
		fmt.Printf("  track:        %s\n", result.TrackName)
	}
	if result.ArtistName != "" {
		fmt.Printf("  artist:       %s\n", result.ArtistName)
	}
	if result.AlbumName != "" {
		fmt.Printf("  album:        %s\n", result.AlbumName)
	}
	fmt.Printf("  instrumental: %v\n", result.Instrumental)

	if result.HasSynced() {
		fmt.Printf("  synced lines: %d\n", lyrics.Parse(result.Synced).Len())
	} else {
		fmt.Printf("  synced lines: none\n")
	}
	if result.Plain != "" {
		fmt.Printf("  plain lines:  %d\n", len(strings.Split(strings.TrimSpace(result.Plain), "\n")))
	} else {
		fmt.Printf("  plain lines:  none\n")
	}
}

func printDocument(doc *lyrics.Document) {
	fmt.Printf("\nsynced lyrics (%d lines):\n\n", doc.Len())
	for _, line := range doc.Lines() {
		fmt.Printf("%s %s\n", lyrics.FormatTimestamp(line.TimestampMillis), line.Text)
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
