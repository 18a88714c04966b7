package player

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/fhs/gompd/v2/mpd"

	"karolbroda.com/lyroverlay/internal/logging"
	"karolbroda.com/lyroverlay/internal/playback"
	"karolbroda.com/lyroverlay/internal/track"
)

const (
	DefaultMPDAddr   = "localhost:6600"
	mpdKeepAlive     = 30 * time.Second
	mpdStatePlay     = "play"
	mpdPlayerChanges = "player"
)

// MPD follows a Music Player Daemon through its idle "player" subsystem.
type MPD struct {
	addr     string
	password string
	logger   *log.Logger
	now      func() time.Time

	eventChan chan Event
	stopChan  chan struct{}
	stopOnce  sync.Once

	mu       sync.Mutex
	client   *mpd.Client
	watcher  *mpd.Watcher
	lastSong string
}

func NewMPD(addr, password string, logger *log.Logger) *MPD {
	if addr == "" {
		addr = DefaultMPDAddr
	}
	return &MPD{
		addr:      addr,
		password:  password,
		logger:    logging.OrDiscard(logger),
		now:       time.Now,
		eventChan: make(chan Event, eventBuffer),
		stopChan:  make(chan struct{}),
	}
}

func (m *MPD) Name() string { return "mpd@" + m.addr }

func (m *MPD) Events() <-chan Event { return m.eventChan }

func (m *MPD) connect() (*mpd.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		return m.client, nil
	}
	client, err := mpd.DialAuthenticated("tcp", m.addr, m.password)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MPD at %s: %w", m.addr, err)
	}
	m.client = client
	return client, nil
}

func (m *MPD) Start(ctx context.Context) error {
	if _, err := m.connect(); err != nil {
		return err
	}

	watcher, err := mpd.NewWatcher("tcp", m.addr, m.password, mpdPlayerChanges)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	m.mu.Lock()
	m.watcher = watcher
	m.mu.Unlock()

	if err := m.refresh(); err != nil {
		m.logger.Printf("warning: %s: %v", m.Name(), err)
	}

	go m.loop(ctx, watcher)
	return nil
}

func (m *MPD) loop(ctx context.Context, watcher *mpd.Watcher) {
	keepAlive := time.NewTicker(mpdKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			m.Stop()
			return
		case <-m.stopChan:
			return
		case subsystem, ok := <-watcher.Event:
			if !ok {
				return
			}
			logging.Debugf(m.logger, "mpd subsystem changed: %s", subsystem)
			if err := m.refresh(); err != nil {
				m.logger.Printf("warning: %s: %v", m.Name(), err)
			}
		case err, ok := <-watcher.Error:
			if !ok {
				return
			}
			m.logger.Printf("warning: mpd watcher: %v", err)
		case <-keepAlive.C:
			client, err := m.connect()
			if err == nil {
				err = client.Ping()
			}
			if err != nil {
				m.logger.Printf("warning: mpd ping failed: %v", err)
				m.dropClient()
			}
		}
	}
}

func (m *MPD) dropClient() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		_ = m.client.Close()
		m.client = nil
	}
}

// Snapshot asks MPD for the current song and status.
func (m *MPD) Snapshot() (*track.Info, playback.Sample, error) {
	client, err := m.connect()
	if err != nil {
		return nil, playback.Sample{}, err
	}

	status, err := client.Status()
	if err != nil {
		m.dropClient()
		return nil, playback.Sample{}, fmt.Errorf("failed to get status: %w", err)
	}
	song, err := client.CurrentSong()
	if err != nil {
		m.dropClient()
		return nil, playback.Sample{}, fmt.Errorf("failed to get current song: %w", err)
	}

	sample := sampleFromStatus(status, m.now())
	info := trackFromAttrs(song, status)
	if !info.IsValid() {
		return nil, sample, ErrNoTrack
	}
	return info, sample, nil
}

// refresh emits metadata when the song changed and a sample every time,
// since every player event may move the position.
func (m *MPD) refresh() error {
	info, sample, err := m.Snapshot()
	if err != nil && !errors.Is(err, ErrNoTrack) {
		return err
	}

	if info != nil {
		m.mu.Lock()
		changed := info.TrackID != m.lastSong
		m.lastSong = info.TrackID
		m.mu.Unlock()

		if changed {
			emit(m.eventChan, m.stopChan, Event{Kind: EventMetadata, Track: info})
		}
	}
	emit(m.eventChan, m.stopChan, Event{Kind: EventPlayback, Sample: sample})
	return nil
}

func (m *MPD) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)

		m.mu.Lock()
		watcher := m.watcher
		m.watcher = nil
		m.mu.Unlock()

		if watcher != nil {
			_ = watcher.Close()
		}
		m.dropClient()
	})
}

func trackFromAttrs(song, status mpd.Attrs) *track.Info {
	info := &track.Info{
		Title:   song["Title"],
		Artist:  song["Artist"],
		Album:   song["Album"],
		TrackID: song["file"],
	}
	if info.Artist == "" {
		info.Artist = song["AlbumArtist"]
	}

	// MPD reports duration in the status since 0.20 and in the song
	// as "duration" or the older whole-second "Time".
	for _, raw := range []string{status["duration"], song["duration"], song["Time"]} {
		if ms := secondsToMillis(raw); ms > 0 {
			info.DurationMillis = ms
			break
		}
	}
	return info
}

func sampleFromStatus(status mpd.Attrs, now time.Time) playback.Sample {
	return playback.NewSample(secondsToMillis(status["elapsed"]), status["state"] == mpdStatePlay, now)
}

func secondsToMillis(raw string) int64 {
	if raw == "" {
		return 0
	}
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil || seconds < 0 {
		return 0
	}
	return int64(seconds*1000 + 0.5)
}
