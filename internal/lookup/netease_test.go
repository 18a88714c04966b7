package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"karolbroda.com/lyroverlay/internal/track"
)

func newNeteaseTest(t *testing.T, lyric map[string]any) (*Netease, *[]string) {
	t.Helper()

	var searches []string
	mux := http.NewServeMux()
	mux.HandleFunc(neteaseSearchPath, func(w http.ResponseWriter, r *http.Request) {
		searches = append(searches, r.URL.Query().Get("s"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code": 200,
			"result": map[string]any{
				"songs": []map[string]any{
					{"id": 186016, "name": "Song", "artists": []map[string]any{{"name": "Band"}}, "album": map[string]any{"name": "Record"}},
					{"id": 1, "name": "Other"},
				},
			},
		})
	})
	mux.HandleFunc(neteaseLyricPath, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") != "186016" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(lyric)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return NewNetease(server.URL, server.Client()), &searches
}

func TestNeteaseLookup(t *testing.T) {
	provider, searches := newNeteaseTest(t, map[string]any{
		"code": 200,
		"lrc":  map[string]any{"lyric": "[00:01.000]hello\n[00:02.500]world"},
	})

	info := track.Info{Title: "Song (feat. Someone)", Artist: "Band", Album: "Record"}
	result, err := provider.Lookup(context.Background(), info)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if result.TrackID != "186016" || result.ArtistName != "Band" || !result.HasSynced() {
		t.Fatalf("Lookup() = %+v", result)
	}
	if (*searches)[0] != "Song Band Record" {
		t.Fatalf("search query = %q", (*searches)[0])
	}

	doc, _ := Classify(result, nil)
	if doc.Len() != 2 || doc.Line(1).TimestampMillis != 2500 {
		t.Fatalf("parsed document = %q", doc.String())
	}
}

func TestNeteaseInstrumental(t *testing.T) {
	tests := []struct {
		name  string
		lyric map[string]any
	}{
		{"nolyric flag", map[string]any{"code": 200, "nolyric": true}},
		{"pure music marker", map[string]any{"code": 200, "lrc": map[string]any{"lyric": "[00:00.00]" + pureMusicMarker}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, _ := newNeteaseTest(t, tt.lyric)
			result, err := provider.Lookup(context.Background(), testTrack)
			if err != nil || !result.Instrumental {
				t.Fatalf("Lookup() = %+v, %v", result, err)
			}
		})
	}
}

func TestNeteaseMissing(t *testing.T) {
	tests := []struct {
		name  string
		lyric map[string]any
	}{
		{"uncollected", map[string]any{"code": 200, "uncollected": true}},
		{"empty lyric", map[string]any{"code": 200, "lrc": map[string]any{"lyric": ""}}},
		{"bad code", map[string]any{"code": 404}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, _ := newNeteaseTest(t, tt.lyric)
			_, err := provider.Lookup(context.Background(), testTrack)
			if !errors.Is(err, ErrNotFound) {
				t.Fatalf("Lookup() error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestNeteaseNoSearchResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":200,"result":{"songs":[]}}`))
	}))
	t.Cleanup(server.Close)

	_, err := NewNetease(server.URL, server.Client()).Lookup(context.Background(), testTrack)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Lookup() error = %v, want ErrNotFound", err)
	}
}

func TestSearchQuery(t *testing.T) {
	tests := []struct {
		info track.Info
		want string
	}{
		{track.Info{Title: "Song", Artist: "Band"}, "Song Band"},
		{track.Info{Title: "Song (Live)", Artist: "Band", Album: "Tour"}, "Song Band Tour"},
		{track.Info{Title: "歌（伴奏）", Artist: "歌手"}, "歌 歌手"},
	}
	for _, tt := range tests {
		if got := searchQuery(tt.info); got != tt.want {
			t.Errorf("searchQuery(%q) = %q, want %q", tt.info.Title, got, tt.want)
		}
	}
}
