package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"karolbroda.com/lyroverlay/internal/track"
)

const (
	DefaultLrclibURL     = "https://lrclib.net/api/get"
	defaultStrategyPause = 100 * time.Millisecond
)

var errServerTimeout = errors.New("lyrics server took too long to respond")

type lrclibResponse struct {
	ID           int64   `json:"id"`
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}

// LRCLIB queries the lrclib.net get endpoint, retrying the request with
// progressively looser spellings of the track.
type LRCLIB struct {
	baseURL string
	client  *http.Client
	pause   time.Duration
}

type LRCLIBOption func(*LRCLIB)

func WithLRCLIBClient(client *http.Client) LRCLIBOption {
	return func(l *LRCLIB) {
		if client != nil {
			l.client = client
		}
	}
}

// WithStrategyPause sets the delay between two search variations.
func WithStrategyPause(pause time.Duration) LRCLIBOption {
	return func(l *LRCLIB) {
		if pause >= 0 {
			l.pause = pause
		}
	}
}

func NewLRCLIB(baseURL string, opts ...LRCLIBOption) *LRCLIB {
	if baseURL == "" {
		baseURL = DefaultLrclibURL
	}
	l := &LRCLIB{
		baseURL: baseURL,
		client:  NewHTTPClient(DefaultHTTPTimeout),
		pause:   defaultStrategyPause,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *LRCLIB) Name() string { return "lrclib" }

type searchStrategy struct {
	artist   string
	title    string
	album    string
	duration int64
}

func (s searchStrategy) key() string {
	return fmt.Sprintf("%s|%s|%s|%d", s.artist, s.title, s.album, s.duration)
}

// strategies lists the distinct query variations for a track, strictest
// first.
func strategies(info track.Info) []searchStrategy {
	normalizedArtist := normalizeString(info.Artist)
	normalizedTitle := normalizeString(info.Title)
	strippedArtist := stripVersionInfo(info.Artist)
	strippedTitle := stripVersionInfo(info.Title)
	durationSecs := (info.DurationMillis + 500) / 1000

	candidates := []searchStrategy{
		{normalizedArtist, normalizedTitle, info.Album, durationSecs},
		{normalizedArtist, normalizedTitle, "", durationSecs},
		{normalizedArtist, normalizedTitle, "", 0},
		{strippedArtist, strippedTitle, "", 0},
		{strings.ToUpper(normalizedArtist), strings.ToUpper(normalizedTitle), "", 0},
		{strings.ToLower(normalizedArtist), strings.ToLower(normalizedTitle), "", 0},
		{toTitleCase(normalizedArtist), toTitleCase(normalizedTitle), "", 0},
		{info.Artist, info.Title, "", 0},
	}

	seen := make(map[string]bool)
	var unique []searchStrategy
	for _, candidate := range candidates {
		if candidate.artist == "" || candidate.title == "" {
			continue
		}
		if !seen[candidate.key()] {
			seen[candidate.key()] = true
			unique = append(unique, candidate)
		}
	}
	return unique
}

func (l *LRCLIB) Lookup(ctx context.Context, info track.Info) (*Result, error) {
	if err := validTrack(info); err != nil {
		return nil, err
	}

	parsedURL, err := url.Parse(l.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid lrclib url %q: %w", l.baseURL, err)
	}

	var plainOnly *Result
	var lastErr error
	for idx, strategy := range strategies(info) {
		query := url.Values{}
		query.Set("artist_name", strategy.artist)
		query.Set("track_name", strategy.title)
		if strategy.album != "" {
			query.Set("album_name", strategy.album)
		}
		if strategy.duration > 0 {
			query.Set("duration", strconv.FormatInt(strategy.duration, 10))
		}
		parsedURL.RawQuery = query.Encode()

		if idx > 0 && l.pause > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(l.pause):
			}
		}

		payload, err := l.doFetchRequest(ctx, parsedURL.String())
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if isTimeoutError(err) {
				return nil, errServerTimeout
			}
			continue
		}

		result := payload.result()
		if result.hit() {
			return result, nil
		}
		if result.Plain != "" && plainOnly == nil {
			plainOnly = result
		}
		lastErr = ErrNotFound
	}

	if plainOnly != nil {
		return plainOnly, nil
	}
	if lastErr != nil && !errors.Is(lastErr, ErrNotFound) {
		return nil, fmt.Errorf("no lyrics found for %s - %s: %w", info.Artist, info.Title, lastErr)
	}
	return nil, fmt.Errorf("%s - %s: %w", info.Artist, info.Title, ErrNotFound)
}

func (p *lrclibResponse) result() *Result {
	result := &Result{
		Provider:     "lrclib",
		TrackName:    p.TrackName,
		ArtistName:   p.ArtistName,
		AlbumName:    p.AlbumName,
		Synced:       p.SyncedLyrics,
		Plain:        p.PlainLyrics,
		Instrumental: p.Instrumental,
	}
	if p.ID > 0 {
		result.TrackID = strconv.FormatInt(p.ID, 10)
	}
	return result
}

func (l *LRCLIB) doFetchRequest(ctx context.Context, requestURL string) (*lrclibResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build http request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("lrclib returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload lrclibResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode lrclib json: %w", err)
	}

	return &payload, nil
}

func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// normalizeString trims and collapses runs of spaces.
func normalizeString(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// stripVersionInfo drops (...) and [...] sections such as remix or
// remaster notes.
func stripVersionInfo(s string) string {
	s = stripEnclosed(s, '(', ')')
	s = stripEnclosed(s, '[', ']')
	return normalizeString(s)
}

func stripEnclosed(s string, open, close byte) string {
	for {
		start := strings.IndexByte(s, open)
		if start < 0 {
			return s
		}
		end := strings.IndexByte(s[start:], close)
		if end < 0 {
			return s
		}
		s = s[:start] + " " + s[start+end+1:]
	}
}

func toTitleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		runes := []rune(word)
		words[i] = strings.ToUpper(string(runes[0])) + strings.ToLower(string(runes[1:]))
	}
	return strings.Join(words, " ")
}
