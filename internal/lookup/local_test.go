package lookup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/text/encoding/simplifiedchinese"

	"karolbroda.com/lyroverlay/internal/track"
)

func writeLyricFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLocalLookup(t *testing.T) {
	dir := t.TempDir()
	writeLyricFile(t, dir, "Band - Song.lrc", []byte("[00:01.00]from artist file"))
	writeLyricFile(t, dir, "Lonely.LRC", []byte("[00:01.00]title only"))
	writeLyricFile(t, dir, "notes.txt", []byte("ignored"))

	local, err := NewLocal(dir, nil)
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}

	tests := []struct {
		name string
		info track.Info
		want string
	}{
		{"artist and title", track.Info{Title: "Song", Artist: "Band"}, "[00:01.00]from artist file"},
		{"case and spacing", track.Info{Title: "  song ", Artist: "BAND"}, "[00:01.00]from artist file"},
		{"version stripped", track.Info{Title: "Song (Live)", Artist: "Band"}, "[00:01.00]from artist file"},
		{"title only file", track.Info{Title: "Lonely", Artist: "Anyone"}, "[00:01.00]title only"},
		{"title part of artist file", track.Info{Title: "Song", Artist: "Cover Band"}, "[00:01.00]from artist file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := local.Lookup(context.Background(), tt.info)
			if err != nil {
				t.Fatalf("Lookup() error = %v", err)
			}
			if result.Synced != tt.want || result.Provider != "local" {
				t.Fatalf("Lookup() = %+v", result)
			}
		})
	}

	_, err = local.Lookup(context.Background(), track.Info{Title: "Missing", Artist: "Band"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Lookup() error = %v, want ErrNotFound", err)
	}
}

func TestLocalDecodesGBKAndBOM(t *testing.T) {
	dir := t.TempDir()

	gbk, err := simplifiedchinese.GBK.NewEncoder().String("[00:01.00]月亮代表我的心")
	if err != nil {
		t.Fatal(err)
	}
	writeLyricFile(t, dir, "gbk.lrc", []byte(gbk))
	writeLyricFile(t, dir, "bom.lrc", append([]byte{0xEF, 0xBB, 0xBF}, []byte("[00:02.00]bom")...))

	got, err := readTextFile(filepath.Join(dir, "gbk.lrc"))
	if err != nil || got != "[00:01.00]月亮代表我的心" {
		t.Fatalf("readTextFile(gbk) = %q, %v", got, err)
	}

	got, err = readTextFile(filepath.Join(dir, "bom.lrc"))
	if err != nil || got != "[00:02.00]bom" {
		t.Fatalf("readTextFile(bom) = %q, %v", got, err)
	}
}

func TestLocalRejectsMissingDir(t *testing.T) {
	if _, err := NewLocal(filepath.Join(t.TempDir(), "nope"), nil); err == nil {
		t.Fatal("NewLocal() on a missing directory succeeded")
	}
}

func TestLocalWatchPicksUpNewFiles(t *testing.T) {
	dir := t.TempDir()
	local, err := NewLocal(dir, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := local.Watch(ctx); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer local.Close()

	writeLyricFile(t, dir, "Band - Fresh.lrc", []byte("[00:01.00]fresh"))

	info := track.Info{Title: "Fresh", Artist: "Band"}
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := local.Lookup(ctx, info); err == nil {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("new lyric file was not indexed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
