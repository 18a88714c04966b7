package main

import (
	"context"
	"testing"

	"karolbroda.com/lyroverlay/internal/cache"
	"karolbroda.com/lyroverlay/internal/config"
	"karolbroda.com/lyroverlay/internal/logging"
)

func TestFormatDuration(t *testing.T) {
	tests := map[int64]string{-5: "0:00", 0: "0:00", 59_999: "0:59", 61_000: "1:01", 3_600_000: "60:00"}
	for in, want := range tests {
		if got := formatDuration(in); got != want {
			t.Errorf("formatDuration(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{-1: "0 B", 512: "512 B", 2048: "2.0 KiB", 3 * 1024 * 1024: "3.0 MiB"}
	for in, want := range tests {
		if got := formatBytes(in); got != want {
			t.Errorf("formatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestEntryKind(t *testing.T) {
	tests := []struct {
		entry cache.Entry
		want  string
	}{
		{cache.Entry{Instrumental: true, SyncedLyrics: "x"}, "instrumental"},
		{cache.Entry{SyncedLyrics: "[00:01.00]a"}, "synced"},
		{cache.Entry{PlainLyrics: "a"}, "plain"},
		{cache.Entry{}, "-"},
	}
	for _, tt := range tests {
		if got := entryKind(&tt.entry); got != tt.want {
			t.Errorf("entryKind(%+v) = %q, want %q", tt.entry, got, tt.want)
		}
	}
}

func TestSortCacheEntries(t *testing.T) {
	entries := []*cache.Entry{
		{ArtistName: "b", TrackName: "z", CreatedAt: 1},
		{ArtistName: "A", TrackName: "y", CreatedAt: 3},
		{ArtistName: "c", TrackName: "x", CreatedAt: 2},
	}

	sortCacheEntries(entries, "artist")
	if entries[0].ArtistName != "A" || entries[2].ArtistName != "c" {
		t.Fatalf("artist order: %s %s %s", entries[0].ArtistName, entries[1].ArtistName, entries[2].ArtistName)
	}

	sortCacheEntries(entries, "title")
	if entries[0].TrackName != "x" {
		t.Fatalf("title order starts with %s", entries[0].TrackName)
	}

	sortCacheEntries(entries, "date")
	if entries[0].CreatedAt != 3 || entries[2].CreatedAt != 1 {
		t.Fatal("date order is not newest first")
	}
}

func TestFindSimilarCachedSongs(t *testing.T) {
	store := cache.NewMemory()
	for _, e := range []cache.Entry{
		{ArtistName: "Band", TrackName: "Song (Live)"},
		{ArtistName: "Band", TrackName: "Other"},
		{ArtistName: "The Band", TrackName: "Song"},
	} {
		entry := e
		if err := store.Set(entry.ArtistName, entry.TrackName, &entry); err != nil {
			t.Fatal(err)
		}
	}

	got := findSimilarCachedSongs(store, "band", "song")
	if len(got) != 1 || got[0].TrackName != "Song (Live)" {
		t.Fatalf("same-artist pass returned %d entries", len(got))
	}

	got = findSimilarCachedSongs(store, "the", "song")
	if len(got) != 1 || got[0].ArtistName != "The Band" {
		t.Fatalf("loose pass returned %d entries", len(got))
	}

	if got := findSimilarCachedSongs(store, "nobody", "nothing"); len(got) != 0 {
		t.Fatalf("unexpected suggestions: %d", len(got))
	}
}

func TestBuildProvidersOrder(t *testing.T) {
	cfg := config.Default()
	cfg.LyricsDir = t.TempDir()
	cfg.SetProviders([]string{"netease", "local", "lrclib"})

	providers, err := buildProviders(context.Background(), cfg, false, logging.Discard())
	if err != nil {
		t.Fatalf("buildProviders() error = %v", err)
	}

	var names []string
	for _, p := range providers {
		names = append(names, p.Name())
	}
	want := []string{"netease", "local", "lrclib"}
	if len(names) != len(want) {
		t.Fatalf("providers = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("providers = %v, want %v", names, want)
		}
	}
}

func TestBuildProvidersSkipsMissingDir(t *testing.T) {
	cfg := config.Default()
	cfg.SetProviders([]string{"local"})

	if _, err := buildProviders(context.Background(), cfg, false, logging.Discard()); err == nil {
		t.Fatal("expected an error when no provider is usable")
	}
}

func TestOpenCacheUsesConfiguredDir(t *testing.T) {
	cfg := config.Default()
	cfg.CacheDir = t.TempDir()

	store := openCache(cfg, logging.Discard())
	if store.Dir() != cfg.CacheDir {
		t.Fatalf("Dir() = %q, want %q", store.Dir(), cfg.CacheDir)
	}
}
