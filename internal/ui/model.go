package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"karolbroda.com/lyroverlay/internal/lyrics"
	"karolbroda.com/lyroverlay/internal/syncer"
	"karolbroda.com/lyroverlay/internal/ticker"
)

// Controller is the part of the sync controller the overlay drives.
type Controller interface {
	Tick(nowMillis int64) syncer.Frame
	AdjustOffset(deltaMillis int64) int64
	SetOffset(offsetMillis int64)
	Document() *lyrics.Document
}

type TickMsg time.Time

type ModelConfig struct {
	Controller   Controller
	TickInterval time.Duration
	HideHeader   bool
	// Retry starts a new lookup for the current track; optional.
	Retry func() bool
	// Now replaces time.Now in tests.
	Now func() time.Time
}

type Model struct {
	controller   Controller
	tickInterval time.Duration
	retry        func() bool
	now          func() time.Time
	keys         keyMap

	frame      syncer.Frame
	hideHeader bool
	quitting   bool
	width      int
	height     int
	renders    int
	view       string
}

func NewModel(cfg ModelConfig) Model {
	interval := cfg.TickInterval
	if interval <= 0 {
		interval = ticker.DefaultInterval
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	m := Model{
		controller:   cfg.Controller,
		tickInterval: interval,
		retry:        cfg.Retry,
		now:          now,
		keys:         defaultKeyMap(),
		hideHeader:   cfg.HideHeader,
		frame:        syncer.Frame{Index: -1, State: syncer.NotFound},
	}
	m.view = m.render()
	return m
}

func (m Model) Init() tea.Cmd {
	return m.tickCmd()
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.tickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// refresh ticks the controller and re-renders when the frame changed or
// force is set.
func (m *Model) refresh(now time.Time, force bool) {
	if m.controller == nil {
		return
	}

	frame := m.controller.Tick(now.UnixMilli())
	changed := frame.Changed ||
		frame.OffsetMillis != m.frame.OffsetMillis ||
		!frame.Track.IsSameTrack(m.frame.Track)
	m.frame = frame

	if changed || force {
		m.view = m.render()
		m.renders++
	}
}

func (m Model) Frame() syncer.Frame { return m.frame }
func (m Model) Width() int          { return m.width }
func (m Model) Height() int         { return m.height }
func (m Model) HideHeader() bool    { return m.hideHeader }
func (m Model) IsQuitting() bool    { return m.quitting }

// Renders counts how often the view was rebuilt.
func (m Model) Renders() int { return m.renders }
