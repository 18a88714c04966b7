package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"karolbroda.com/lyroverlay/internal/track"
)

const (
	DefaultNeteaseURL = "https://music.163.com"
	neteaseSearchPath = "/api/search/get/web"
	neteaseLyricPath  = "/api/song/lyric"
	neteaseOK         = 200
	pureMusicMarker   = "纯音乐，请欣赏"
)

var parenthesised = regexp.MustCompile(`\(.*?\)|（.*?）`)

type neteaseSearchResult struct {
	Code   int `json:"code"`
	Result struct {
		Songs []struct {
			ID      int64  `json:"id"`
			Name    string `json:"name"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
			Album struct {
				Name string `json:"name"`
			} `json:"album"`
		} `json:"songs"`
	} `json:"result"`
}

type neteaseLyricResult struct {
	Code        int  `json:"code"`
	NoLyric     bool `json:"nolyric"`
	Uncollected bool `json:"uncollected"`
	Lrc         struct {
		Lyric string `json:"lyric"`
	} `json:"lrc"`
}

// Netease searches the Netease Cloud Music web API and takes the first
// song it returns.
type Netease struct {
	baseURL string
	client  *http.Client
}

func NewNetease(baseURL string, client *http.Client) *Netease {
	if baseURL == "" {
		baseURL = DefaultNeteaseURL
	}
	if client == nil {
		client = NewHTTPClient(DefaultHTTPTimeout)
	}
	return &Netease{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (n *Netease) Name() string { return "netease" }

// searchQuery drops parenthesised parts of the title, which usually name a
// version or a featured artist, and appends artist and album.
func searchQuery(info track.Info) string {
	title := parenthesised.ReplaceAllString(info.Title, " ")
	return normalizeString(title + " " + info.Artist + " " + info.Album)
}

func (n *Netease) Lookup(ctx context.Context, info track.Info) (*Result, error) {
	if err := validTrack(info); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("s", searchQuery(info))
	params.Set("type", "1")
	params.Set("limit", "5")

	var search neteaseSearchResult
	if err := n.getJSON(ctx, neteaseSearchPath+"?"+params.Encode(), &search); err != nil {
		return nil, fmt.Errorf("netease search failed: %w", err)
	}
	if search.Code != neteaseOK || len(search.Result.Songs) == 0 {
		return nil, fmt.Errorf("netease: %s - %s: %w", info.Artist, info.Title, ErrNotFound)
	}

	song := search.Result.Songs[0]
	songID := strconv.FormatInt(song.ID, 10)

	params = url.Values{}
	params.Set("id", songID)
	params.Set("lv", "1")
	params.Set("kv", "1")
	params.Set("tv", "-1")

	var lyric neteaseLyricResult
	if err := n.getJSON(ctx, neteaseLyricPath+"?"+params.Encode(), &lyric); err != nil {
		return nil, fmt.Errorf("netease lyric request failed: %w", err)
	}
	if lyric.Code != neteaseOK {
		return nil, fmt.Errorf("netease returned code %d: %w", lyric.Code, ErrNotFound)
	}

	result := &Result{
		Provider:  n.Name(),
		TrackID:   songID,
		TrackName: song.Name,
		AlbumName: song.Album.Name,
	}
	if len(song.Artists) > 0 {
		result.ArtistName = song.Artists[0].Name
	}

	switch {
	case lyric.NoLyric || strings.Contains(lyric.Lrc.Lyric, pureMusicMarker):
		result.Instrumental = true
	case lyric.Uncollected || strings.TrimSpace(lyric.Lrc.Lyric) == "":
		return nil, fmt.Errorf("netease song %s: %w", songID, ErrNotFound)
	default:
		result.Synced = lyric.Lrc.Lyric
	}

	return result, nil
}

func (n *Netease) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build http request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", DefaultNeteaseURL)

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode netease json: %w", err)
	}
	return nil
}
