package player

import (
	"testing"
	"time"

	"github.com/fhs/gompd/v2/mpd"
)

func TestTrackFromAttrs(t *testing.T) {
	tests := []struct {
		name     string
		song     mpd.Attrs
		status   mpd.Attrs
		artist   string
		duration int64
	}{
		{
			name:     "status duration",
			song:     mpd.Attrs{"Title": "Song", "Artist": "Band", "file": "band/song.flac", "Time": "200"},
			status:   mpd.Attrs{"duration": "201.480"},
			artist:   "Band",
			duration: 201_480,
		},
		{
			name:     "song duration",
			song:     mpd.Attrs{"Title": "Song", "Artist": "Band", "duration": "90.5"},
			status:   mpd.Attrs{},
			artist:   "Band",
			duration: 90_500,
		},
		{
			name:     "legacy time and album artist",
			song:     mpd.Attrs{"Title": "Song", "AlbumArtist": "Various", "Time": "61"},
			status:   mpd.Attrs{},
			artist:   "Various",
			duration: 61_000,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := trackFromAttrs(tt.song, tt.status)
			if info.Artist != tt.artist || info.DurationMillis != tt.duration {
				t.Fatalf("trackFromAttrs() = %+v", info)
			}
		})
	}
}

func TestSampleFromStatus(t *testing.T) {
	now := time.UnixMilli(1_000_000)

	sample := sampleFromStatus(mpd.Attrs{"state": "play", "elapsed": "12.345"}, now)
	if sample.PositionMillis != 12_345 || !sample.Playing || sample.CapturedAtMillis != 1_000_000 {
		t.Fatalf("sampleFromStatus(play) = %+v", sample)
	}

	sample = sampleFromStatus(mpd.Attrs{"state": "pause", "elapsed": "3.000"}, now)
	if sample.Playing || sample.PositionMillis != 3_000 {
		t.Fatalf("sampleFromStatus(pause) = %+v", sample)
	}

	sample = sampleFromStatus(mpd.Attrs{"state": "stop"}, now)
	if sample.Playing || sample.PositionMillis != 0 {
		t.Fatalf("sampleFromStatus(stop) = %+v", sample)
	}
}

func TestSecondsToMillis(t *testing.T) {
	tests := map[string]int64{
		"":        0,
		"garbage": 0,
		"-1":      0,
		"1":       1_000,
		"0.0005":  1,
		"250.123": 250_123,
	}
	for in, want := range tests {
		if got := secondsToMillis(in); got != want {
			t.Errorf("secondsToMillis(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestNewMPDDefaults(t *testing.T) {
	m := NewMPD("", "", nil)
	if m.Name() != "mpd@"+DefaultMPDAddr {
		t.Fatalf("Name() = %q", m.Name())
	}
	m.Stop()
	m.Stop()
}
