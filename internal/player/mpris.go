package player

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"karolbroda.com/lyroverlay/internal/logging"
	"karolbroda.com/lyroverlay/internal/playback"
	"karolbroda.com/lyroverlay/internal/ticker"
	"karolbroda.com/lyroverlay/internal/track"
)

const (
	mprisPath        = "/org/mpris/MediaPlayer2"
	mprisPlayerIface = "org.mpris.MediaPlayer2.Player"
	mprisPrefix      = "org.mpris.MediaPlayer2."

	DefaultMprisService = mprisPrefix + "spotify"
	DefaultPollInterval = time.Second

	// seekThreshold is how far a polled position may drift from the
	// extrapolated one before it counts as a seek.
	seekThreshold = 1500 * time.Millisecond
)

// positionState extrapolates the player position between readings.
type positionState struct {
	track          *track.Info
	positionMillis int64
	playing        bool
	updatedAt      time.Time
}

func (s *positionState) expectedAt(now time.Time) int64 {
	if !s.playing || s.updatedAt.IsZero() {
		return s.positionMillis
	}
	return s.positionMillis + now.Sub(s.updatedAt).Milliseconds()
}

func (s *positionState) detectSeek(positionMillis int64, now time.Time) bool {
	if s.updatedAt.IsZero() {
		return false
	}
	diff := positionMillis - s.expectedAt(now)
	if diff < 0 {
		diff = -diff
	}
	return diff > seekThreshold.Milliseconds()
}

func (s *positionState) update(positionMillis int64, playing bool, now time.Time) {
	s.positionMillis = positionMillis
	s.playing = playing
	s.updatedAt = now
}

func (s *positionState) sample() playback.Sample {
	return playback.NewSample(s.positionMillis, s.playing, s.updatedAt)
}

// MPRIS follows one player on the D-Bus session bus.
type MPRIS struct {
	bus          *dbus.Conn
	service      string
	pollInterval time.Duration
	logger       *log.Logger
	now          func() time.Time

	signalChan chan *dbus.Signal
	stopChan   chan struct{}
	stopOnce   sync.Once
	eventChan  chan Event

	mu    sync.Mutex
	state positionState
}

func NewMPRIS(bus *dbus.Conn, service string, pollInterval time.Duration, logger *log.Logger) (*MPRIS, error) {
	if bus == nil {
		return nil, errors.New("nil dbus connection")
	}
	if service == "" {
		return nil, errors.New("empty mpris service name")
	}
	if !strings.HasPrefix(service, mprisPrefix) {
		service = mprisPrefix + service
	}
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	return &MPRIS{
		bus:          bus,
		service:      service,
		pollInterval: pollInterval,
		logger:       logging.OrDiscard(logger),
		now:          time.Now,
		eventChan:    make(chan Event, eventBuffer),
		stopChan:     make(chan struct{}),
	}, nil
}

func (m *MPRIS) Name() string { return m.service }

func (m *MPRIS) Events() <-chan Event { return m.eventChan }

// Start subscribes to player signals, emits the current state and keeps
// polling the position so that seeks missed by the player are noticed.
func (m *MPRIS) Start(ctx context.Context) error {
	m.signalChan = make(chan *dbus.Signal, 10)

	m.bus.Signal(m.signalChan)

	matchPropertiesChanged := fmt.Sprintf(
		"type='signal',sender='%s',interface='org.freedesktop.DBus.Properties',member='PropertiesChanged',path='%s'",
		m.service, mprisPath,
	)
	matchSeeked := fmt.Sprintf(
		"type='signal',sender='%s',interface='%s',member='Seeked',path='%s'",
		m.service, mprisPlayerIface, mprisPath,
	)

	if err := m.bus.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, matchPropertiesChanged).Err; err != nil {
		return fmt.Errorf("failed to add properties match: %w", err)
	}
	if err := m.bus.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, matchSeeked).Err; err != nil {
		return fmt.Errorf("failed to add seeked match: %w", err)
	}

	if err := m.emitSnapshot(); err != nil {
		m.logger.Printf("warning: %s: %v", m.service, err)
	}

	pollCtx, cancel := context.WithCancel(ctx)
	go func() {
		<-m.stopChan
		cancel()
	}()
	go m.signalLoop(pollCtx)
	go ticker.Run(pollCtx, m.pollInterval, func(time.Time) {
		if err := m.Poll(); err != nil {
			logging.Debugf(m.logger, "%s poll: %v", m.service, err)
		}
	})

	return nil
}

func (m *MPRIS) Stop() {
	m.stopOnce.Do(func() {
		if m.signalChan != nil {
			m.bus.RemoveSignal(m.signalChan)
		}
		close(m.stopChan)
	})
}

func (m *MPRIS) object() dbus.BusObject {
	return m.bus.Object(m.service, mprisPath)
}

func (m *MPRIS) currentTrack() (*track.Info, error) {
	prop, err := m.object().GetProperty(mprisPlayerIface + ".Metadata")
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata property: %w", err)
	}

	metadata, ok := prop.Value().(map[string]dbus.Variant)
	if !ok {
		return nil, fmt.Errorf("unexpected metadata type %T", prop.Value())
	}

	info := trackFromMetadata(metadata)
	if !info.IsValid() {
		return nil, fmt.Errorf("missing title or artist in metadata (title=%q, artist=%q): %w", info.Title, info.Artist, ErrNoTrack)
	}
	return info, nil
}

func (m *MPRIS) currentPositionMillis() (int64, error) {
	prop, err := m.object().GetProperty(mprisPlayerIface + ".Position")
	if err != nil {
		return 0, fmt.Errorf("failed to get position property: %w", err)
	}

	micros, ok := prop.Value().(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected position type %T", prop.Value())
	}
	return microsToMillis(micros), nil
}

func (m *MPRIS) currentPlaying() (bool, error) {
	prop, err := m.object().GetProperty(mprisPlayerIface + ".PlaybackStatus")
	if err != nil {
		return false, fmt.Errorf("failed to get playback status: %w", err)
	}
	status, _ := prop.Value().(string)
	return isPlayingStatus(status), nil
}

// Snapshot reads track, position and play state straight from the player.
func (m *MPRIS) Snapshot() (*track.Info, playback.Sample, error) {
	info, err := m.currentTrack()
	if err != nil {
		return nil, playback.Sample{}, err
	}
	pos, err := m.currentPositionMillis()
	if err != nil {
		return info, playback.Sample{}, err
	}
	playing, err := m.currentPlaying()
	if err != nil {
		return info, playback.Sample{}, err
	}
	return info, playback.NewSample(pos, playing, m.now()), nil
}

func (m *MPRIS) emitSnapshot() error {
	info, sample, err := m.Snapshot()
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.state.track = info
	m.state.update(sample.PositionMillis, sample.Playing, m.now())
	m.mu.Unlock()

	emit(m.eventChan, m.stopChan, Event{Kind: EventMetadata, Track: info})
	emit(m.eventChan, m.stopChan, Event{Kind: EventPlayback, Sample: sample})
	return nil
}

// Poll re-reads the player. A new track, a change of play state or a
// position that drifted from the extrapolation produce events.
func (m *MPRIS) Poll() error {
	info, sample, err := m.Snapshot()
	if err != nil {
		return err
	}

	now := m.now()
	m.mu.Lock()
	trackChanged := !info.IsSameTrack(m.state.track)
	playingChanged := sample.Playing != m.state.playing
	seeked := m.state.detectSeek(sample.PositionMillis, now)
	m.state.update(sample.PositionMillis, sample.Playing, now)
	if trackChanged {
		m.state.track = info
	}
	m.mu.Unlock()

	if trackChanged {
		emit(m.eventChan, m.stopChan, Event{Kind: EventMetadata, Track: info})
	}
	if trackChanged || playingChanged || seeked {
		emit(m.eventChan, m.stopChan, Event{Kind: EventPlayback, Sample: sample})
	}
	return nil
}

func (m *MPRIS) signalLoop(ctx context.Context) {
	for {
		select {
		case sig, ok := <-m.signalChan:
			if !ok {
				return
			}
			m.handleSignal(sig)
		case <-ctx.Done():
			return
		}
	}
}

func (m *MPRIS) handleSignal(sig *dbus.Signal) {
	if sig == nil || sig.Path != mprisPath {
		return
	}

	switch sig.Name {
	case "org.freedesktop.DBus.Properties.PropertiesChanged":
		m.handlePropertiesChanged(sig)
	case mprisPlayerIface + ".Seeked":
		m.handleSeeked(sig)
	}
}

func (m *MPRIS) handlePropertiesChanged(sig *dbus.Signal) {
	if len(sig.Body) < 2 {
		return
	}

	interfaceName, ok := sig.Body[0].(string)
	if !ok || interfaceName != mprisPlayerIface {
		return
	}

	changedProps, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return
	}

	now := m.now()

	if metadataVariant, exists := changedProps["Metadata"]; exists {
		metadata, ok := metadataVariant.Value().(map[string]dbus.Variant)
		if ok {
			info := trackFromMetadata(metadata)
			if info.IsValid() {
				m.mu.Lock()
				changed := !info.IsSameTrack(m.state.track)
				m.state.track = info
				m.mu.Unlock()

				// players resend metadata when only the art or length changes
				emit(m.eventChan, m.stopChan, Event{Kind: EventMetadata, Track: info})
				if changed {
					m.resample(now)
				}
			}
		}
	}

	if playbackVariant, exists := changedProps["PlaybackStatus"]; exists {
		if status, ok := playbackVariant.Value().(string); ok {
			m.mu.Lock()
			m.state.playing = isPlayingStatus(status)
			m.mu.Unlock()
			m.resample(now)
		}
	}
}

// resample reads the position from the player, falling back to the
// extrapolated one, and emits it as a new sample.
func (m *MPRIS) resample(now time.Time) {
	pos, err := m.currentPositionMillis()

	m.mu.Lock()
	if err != nil {
		pos = m.state.expectedAt(now)
	}
	m.state.update(pos, m.state.playing, now)
	sample := m.state.sample()
	m.mu.Unlock()

	emit(m.eventChan, m.stopChan, Event{Kind: EventPlayback, Sample: sample})
}

func (m *MPRIS) handleSeeked(sig *dbus.Signal) {
	if len(sig.Body) < 1 {
		return
	}

	micros, ok := sig.Body[0].(int64)
	if !ok {
		return
	}

	m.mu.Lock()
	m.state.update(microsToMillis(micros), m.state.playing, m.now())
	sample := m.state.sample()
	m.mu.Unlock()

	emit(m.eventChan, m.stopChan, Event{Kind: EventPlayback, Sample: sample})
}

// ListPlayers returns the MPRIS players currently on the bus.
func ListPlayers(bus *dbus.Conn) ([]string, error) {
	var names []string
	if err := bus.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		return nil, fmt.Errorf("failed to list bus names: %w", err)
	}

	var players []string
	for _, name := range names {
		if strings.HasPrefix(name, mprisPrefix) {
			players = append(players, name)
		}
	}
	sort.Strings(players)
	return players, nil
}

func isPlayingStatus(status string) bool {
	return status == "Playing"
}

func microsToMillis(micros int64) int64 {
	if micros < 0 {
		return 0
	}
	return micros / 1000
}

func trackFromMetadata(metadata map[string]dbus.Variant) *track.Info {
	return &track.Info{
		Title:          extractString(metadata, "xesam:title"),
		Artist:         extractArtist(metadata, "xesam:artist"),
		Album:          extractString(metadata, "xesam:album"),
		ArtworkURL:     extractString(metadata, "mpris:artUrl"),
		TrackID:        extractTrackID(metadata, "mpris:trackid"),
		DurationMillis: extractDurationMillis(metadata, "mpris:length"),
	}
}

func lookupVariant(metadata map[string]dbus.Variant, key string) any {
	if metadata == nil {
		return nil
	}
	variant, exists := metadata[key]
	if !exists {
		return nil
	}
	return variant.Value()
}

func extractString(metadata map[string]dbus.Variant, key string) string {
	text, _ := lookupVariant(metadata, key).(string)
	return text
}

// extractTrackID accepts the object path MPRIS defines as well as the
// plain string some players send.
func extractTrackID(metadata map[string]dbus.Variant, key string) string {
	switch typed := lookupVariant(metadata, key).(type) {
	case dbus.ObjectPath:
		return string(typed)
	case string:
		return typed
	default:
		return ""
	}
}

func extractArtist(metadata map[string]dbus.Variant, key string) string {
	switch typed := lookupVariant(metadata, key).(type) {
	case []string:
		if len(typed) > 0 {
			return typed[0]
		}
		return ""
	case string:
		return typed
	default:
		return ""
	}
}

func extractDurationMillis(metadata map[string]dbus.Variant, key string) int64 {
	switch typed := lookupVariant(metadata, key).(type) {
	case int64:
		return microsToMillis(typed)
	case uint64:
		return microsToMillis(int64(typed))
	case int32:
		return microsToMillis(int64(typed))
	case float64:
		return microsToMillis(int64(typed))
	default:
		return 0
	}
}
