package ui

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"karolbroda.com/lyroverlay/internal/lyrics"
	"karolbroda.com/lyroverlay/internal/playback"
	"karolbroda.com/lyroverlay/internal/syncer"
	"karolbroda.com/lyroverlay/internal/track"
)

var t0 = time.UnixMilli(1_000_000)

func newPlayingController(t *testing.T, lrc string) *syncer.Controller {
	t.Helper()
	c := syncer.NewController()
	id := c.MetadataChanged(&track.Info{Title: "Song", Artist: "Band", DurationMillis: 60_000})
	if !c.TrackMatched(id, lyrics.Parse(lrc), syncer.Found) {
		t.Fatal("TrackMatched rejected the current request")
	}
	c.PlaybackStateChanged(playback.NewSample(0, true, t0))
	return c
}

func newTestModel(c *syncer.Controller) Model {
	return NewModel(ModelConfig{
		Controller:   c,
		TickInterval: 10 * time.Millisecond,
		Now:          func() time.Time { return t0 },
	})
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return model, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestOffsetKeys(t *testing.T) {
	tests := []struct {
		name string
		keys []tea.KeyMsg
		want int64
	}{
		{"plus", []tea.KeyMsg{runes("+")}, 100},
		{"up", []tea.KeyMsg{{Type: tea.KeyUp}}, 100},
		{"minus", []tea.KeyMsg{runes("-")}, -100},
		{"down twice", []tea.KeyMsg{{Type: tea.KeyDown}, {Type: tea.KeyDown}}, -200},
		{"right", []tea.KeyMsg{{Type: tea.KeyRight}}, 500},
		{"left", []tea.KeyMsg{{Type: tea.KeyLeft}}, -500},
		{"reset", []tea.KeyMsg{{Type: tea.KeyRight}, runes("+"), runes("0")}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newPlayingController(t, "[00:00.00]a")
			m := newTestModel(c)
			for _, k := range tt.keys {
				m, _ = update(t, m, k)
			}
			if c.Offset() != tt.want {
				t.Fatalf("Offset() = %d, want %d", c.Offset(), tt.want)
			}
			if m.Frame().OffsetMillis != tt.want {
				t.Fatalf("frame offset = %d, want %d", m.Frame().OffsetMillis, tt.want)
			}
		})
	}
}

func TestOffsetKeyMovesLine(t *testing.T) {
	c := newPlayingController(t, "[00:00.00]first\n[00:00.50]second")
	m := newTestModel(c)

	m, _ = update(t, m, TickMsg(t0))
	if m.Frame().Line.Text != "first" {
		t.Fatalf("line = %q, want first", m.Frame().Line.Text)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if m.Frame().Line.Text != "second" {
		t.Fatalf("line after +0.5s = %q, want second", m.Frame().Line.Text)
	}
	if !strings.Contains(m.View(), "second") {
		t.Fatalf("view does not show the new line:\n%s", m.View())
	}
}

func TestQuitKeys(t *testing.T) {
	for _, k := range []tea.KeyMsg{runes("q"), {Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		m := newTestModel(newPlayingController(t, "[00:00.00]a"))
		m, cmd := update(t, m, k)
		if !m.IsQuitting() || cmd == nil {
			t.Fatalf("%q did not quit", k.String())
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Fatalf("%q command is not tea.Quit", k.String())
		}
		if m.View() != "" {
			t.Fatal("view not cleared on quit")
		}
	}
}

func TestTickRendersOnlyOnChange(t *testing.T) {
	c := newPlayingController(t, "[00:00.00]Hello\n[00:02.00]World")
	m := newTestModel(c)

	m, cmd := update(t, m, TickMsg(t0))
	if cmd == nil {
		t.Fatal("tick did not schedule the next tick")
	}
	renders := m.Renders()

	m, _ = update(t, m, TickMsg(t0.Add(500*time.Millisecond)))
	if m.Renders() != renders {
		t.Fatal("re-rendered although the line did not change")
	}

	m, _ = update(t, m, TickMsg(t0.Add(2100*time.Millisecond)))
	if m.Renders() != renders+1 {
		t.Fatalf("renders = %d, want %d", m.Renders(), renders+1)
	}
	if !strings.Contains(m.View(), "World") || !strings.Contains(m.View(), "Hello") {
		t.Fatalf("view should show World with Hello as context:\n%s", m.View())
	}
}

func TestToggleHeader(t *testing.T) {
	c := newPlayingController(t, "[00:00.00]a")
	m := newTestModel(c)
	m, _ = update(t, m, TickMsg(t0))
	if !strings.Contains(m.View(), "Band") {
		t.Fatalf("header missing:\n%s", m.View())
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if !m.HideHeader() || strings.Contains(m.View(), "Band") {
		t.Fatalf("header still shown:\n%s", m.View())
	}
}

func TestRetryKey(t *testing.T) {
	called := 0
	m := NewModel(ModelConfig{
		Controller: syncer.NewController(),
		Retry:      func() bool { called++; return true },
	})
	update(t, m, runes("r"))
	if called != 1 {
		t.Fatalf("retry called %d times, want 1", called)
	}
}

func TestWindowSize(t *testing.T) {
	m := newTestModel(newPlayingController(t, "[00:00.00]a"))
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 40, Height: 10})
	if m.Width() != 40 || m.Height() != 10 {
		t.Fatalf("size = %dx%d", m.Width(), m.Height())
	}
	if got := strings.Count(m.View(), "\n") + 1; got != 10 {
		t.Fatalf("view has %d lines, want 10", got)
	}
}

func TestDisplayText(t *testing.T) {
	info := &track.Info{Title: "Song", Artist: "Band"}
	tests := []struct {
		name  string
		frame syncer.Frame
		want  string
	}{
		{"line", syncer.Frame{HasLine: true, Line: lyrics.Line{Text: "la"}, State: syncer.Found, Track: info}, "la"},
		{"empty line", syncer.Frame{HasLine: true, State: syncer.Found, Track: info}, ""},
		{"searching", syncer.Frame{State: syncer.Searching, Track: info}, PlaceholderSearching},
		{"not found", syncer.Frame{State: syncer.NotFound, Track: info}, PlaceholderNotFound},
		{"pure music", syncer.Frame{State: syncer.PureMusic, Track: info}, PlaceholderPureMusic},
		{"before first line", syncer.Frame{State: syncer.Found, Track: info}, "Song"},
		{"no track", syncer.Frame{State: syncer.NotFound}, PlaceholderWaiting},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayText(tt.frame); got != tt.want {
				t.Fatalf("DisplayText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatOffset(t *testing.T) {
	tests := map[int64]string{0: "+0.0s", 100: "+0.1s", 1500: "+1.5s", -250: "-0.2s"}
	for in, want := range tests {
		if got := formatOffset(in); got != want {
			t.Errorf("formatOffset(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestRunPlain(t *testing.T) {
	c := syncer.NewController()
	id := c.MetadataChanged(&track.Info{Title: "Song", Artist: "Band"})
	c.TrackMatched(id, lyrics.Parse("[00:00.00]Hello\n[01:00.00]World"), syncer.Found)
	c.PlaybackStateChanged(playback.NewSample(0, true, time.Now()))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	if err := RunPlain(ctx, c, 5*time.Millisecond, &out); err != nil {
		t.Fatalf("RunPlain() error = %v", err)
	}
	if out.String() != "Hello\n" {
		t.Fatalf("output = %q, want one line", out.String())
	}
}
