package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"karolbroda.com/lyroverlay/internal/cache"
	"karolbroda.com/lyroverlay/internal/logging"
)

var (
	// flags for cache list
	cacheSortBy  string
	cacheConfirm bool
)

const maxSuggestions = 5

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "manage the lyrics cache",
	Long:  `manage cached lookup results, including viewing statistics, listing entries, and clearing the cache.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "show cache statistics",
	Long:  `display cache statistics including number of entries, total size, and cache location.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		diskCache, err := openCacheForCommand(cmd)
		if err != nil {
			return err
		}

		count, sizeBytes, err := diskCache.Stats()
		if err != nil {
			return fmt.Errorf("failed to get cache stats: %w", err)
		}

		location := diskCache.Dir()
		if location == "" {
			location = "(memory only)"
		}

		fmt.Println("cache statistics:")
		fmt.Printf("  location: %s\n", location)
		fmt.Printf("  entries:  %d\n", count)
		fmt.Printf("  size:     %s\n", formatBytes(sizeBytes))

		return nil
	},
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "list all cached songs",
	Long:  `list all songs in the cache with the provider that answered and the cache date.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		diskCache, err := openCacheForCommand(cmd)
		if err != nil {
			return err
		}

		entries, err := diskCache.ListAll()
		if err != nil {
			return fmt.Errorf("failed to list cache: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("cache is empty")
			return nil
		}

		sortCacheEntries(entries, cacheSortBy)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ARTIST\tTITLE\tPROVIDER\tKIND\tCACHED")

		for _, entry := range entries {
			cacheDate := time.Unix(entry.CreatedAt, 0).Format("2006-01-02")
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", entry.ArtistName, entry.TrackName, entry.Provider, entryKind(entry), cacheDate)
		}

		w.Flush()

		fmt.Printf("\ntotal: %d songs\n", len(entries))

		return nil
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show <artist> <title>",
	Short: "show cached entry for specific song",
	Long:  `display detailed information about a cached song.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		artist, title := args[0], args[1]

		diskCache, err := openCacheForCommand(cmd)
		if err != nil {
			return err
		}

		entry, err := diskCache.Get(artist, title)
		if err != nil {
			return notCachedError(diskCache, artist, title, err)
		}

		fmt.Printf("artist:       %s\n", entry.ArtistName)
		fmt.Printf("title:        %s\n", entry.TrackName)
		fmt.Printf("album:        %s\n", entry.AlbumName)
		fmt.Printf("provider:     %s\n", entry.Provider)
		if entry.DurationMillis > 0 {
			fmt.Printf("duration:     %s\n", formatDuration(entry.DurationMillis))
		}
		fmt.Printf("instrumental: %v\n", entry.Instrumental)
		fmt.Printf("cached:       %s (%s)\n", time.Unix(entry.CreatedAt, 0).Format("2006-01-02 15:04:05"), humanize.Time(time.Unix(entry.CreatedAt, 0)))
		fmt.Printf("expires:      %s (%s)\n", time.Unix(entry.ExpiresAt, 0).Format("2006-01-02 15:04:05"), humanize.Time(time.Unix(entry.ExpiresAt, 0)))

		switch {
		case entry.SyncedLyrics != "":
			lines := strings.Split(strings.TrimSpace(entry.SyncedLyrics), "\n")
			fmt.Printf("\nsynced lyrics: %d lines\n", len(lines))
		case entry.PlainLyrics != "":
			lines := strings.Split(strings.TrimSpace(entry.PlainLyrics), "\n")
			fmt.Printf("\nplain lyrics: %d lines (no sync data)\n", len(lines))
		default:
			fmt.Println("\nno lyrics available")
		}

		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "clear all cached entries",
	Long:  `remove all cached lookup results. use --confirm to skip confirmation prompt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		diskCache, err := openCacheForCommand(cmd)
		if err != nil {
			return err
		}

		if !cacheConfirm {
			fmt.Print("are you sure you want to clear all cache? (y/n): ")
			var response string
			fmt.Scanln(&response)
			response = strings.ToLower(response)
			if response != "y" && response != "yes" {
				fmt.Println("cancelled")
				return nil
			}
		}

		if err := diskCache.Clear(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}

		fmt.Println("cache cleared successfully")
		return nil
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "remove expired cache entries",
	Long:  `remove expired and unreadable cache entries to free up disk space.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		diskCache, err := openCacheForCommand(cmd)
		if err != nil {
			return err
		}

		pruned, err := diskCache.Prune()
		if err != nil {
			return fmt.Errorf("failed to prune cache: %w", err)
		}

		fmt.Printf("removed %d expired entries\n", pruned)
		return nil
	},
}

var cacheDeleteCmd = &cobra.Command{
	Use:   "delete <artist> <title>",
	Short: "remove specific song from cache",
	Long:  `remove a specific song from the cache by artist and title.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		artist, title := args[0], args[1]

		diskCache, err := openCacheForCommand(cmd)
		if err != nil {
			return err
		}

		if _, err := diskCache.Get(artist, title); err != nil && !errors.Is(err, cache.ErrCacheExpired) {
			return notCachedError(diskCache, artist, title, err)
		}

		if err := diskCache.Delete(artist, title); err != nil {
			return fmt.Errorf("failed to delete from cache: %w", err)
		}

		fmt.Printf("deleted '%s - %s' from cache\n", artist, title)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cachePruneCmd)
	cacheCmd.AddCommand(cacheDeleteCmd)

	cacheListCmd.Flags().StringVar(&cacheSortBy, "sort", "date", "sort by: date, artist, title")
	cacheClearCmd.Flags().BoolVar(&cacheConfirm, "confirm", false, "skip confirmation prompt")
}

func openCacheForCommand(cmd *cobra.Command) (*cache.DiskCache, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return openCache(cfg, logging.Discard()), nil
}

// notCachedError prints close matches to stderr, if any, and returns the
// error to report.
func notCachedError(diskCache *cache.DiskCache, artist, title string, cause error) error {
	suggestions := findSimilarCachedSongs(diskCache, artist, title)
	if len(suggestions) == 0 {
		return fmt.Errorf("song not found in cache: %w", cause)
	}

	fmt.Fprintf(os.Stderr, "song not found in cache\n\n")
	fmt.Fprintf(os.Stderr, "did you mean one of these?\n")
	for _, s := range suggestions {
		fmt.Fprintf(os.Stderr, "  %s - %s\n", s.ArtistName, s.TrackName)
	}
	return fmt.Errorf("%s - %s is not cached", artist, title)
}

func entryKind(entry *cache.Entry) string {
	switch {
	case entry.Instrumental:
		return "instrumental"
	case entry.SyncedLyrics != "":
		return "synced"
	case entry.PlainLyrics != "":
		return "plain"
	default:
		return "-"
	}
}

func formatBytes(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}

func sortCacheEntries(entries []*cache.Entry, sortBy string) {
	switch sortBy {
	case "artist":
		sort.SliceStable(entries, func(i, j int) bool {
			return strings.ToLower(entries[i].ArtistName) < strings.ToLower(entries[j].ArtistName)
		})
	case "title":
		sort.SliceStable(entries, func(i, j int) bool {
			return strings.ToLower(entries[i].TrackName) < strings.ToLower(entries[j].TrackName)
		})
	default:
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].CreatedAt > entries[j].CreatedAt
		})
	}
}

// findSimilarCachedSongs prefers entries by the same artist with a
// related title, then loose matches on both.
func findSimilarCachedSongs(diskCache *cache.DiskCache, artist, title string) []*cache.Entry {
	allEntries, err := diskCache.ListAll()
	if err != nil || len(allEntries) == 0 {
		return nil
	}

	artistLower := strings.ToLower(artist)
	titleLower := strings.ToLower(title)
	related := func(a, b string) bool {
		return strings.Contains(a, b) || strings.Contains(b, a)
	}

	var matches []*cache.Entry
	for _, entry := range allEntries {
		if strings.ToLower(entry.ArtistName) == artistLower && related(strings.ToLower(entry.TrackName), titleLower) {
			matches = append(matches, entry)
		}
	}

	if len(matches) == 0 {
		for _, entry := range allEntries {
			if related(strings.ToLower(entry.ArtistName), artistLower) && related(strings.ToLower(entry.TrackName), titleLower) {
				matches = append(matches, entry)
			}
		}
	}

	if len(matches) > maxSuggestions {
		matches = matches[:maxSuggestions]
	}
	return matches
}
