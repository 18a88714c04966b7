package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"karolbroda.com/lyroverlay/internal/syncer"
)

const (
	PlaceholderWaiting   = "awaiting music"
	PlaceholderSearching = "searching lyrics…"
	PlaceholderNotFound  = "no lyrics found"
	PlaceholderPureMusic = "pure music, enjoy"

	defaultWidth  = 80
	defaultHeight = 8
)

var (
	currentStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F5F5F5"))
	contextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C"))
	statusStyle  = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#9A9A9A"))
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#B48EAD"))
	artistStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#88C0D0"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4C566A"))
)

// DisplayText is what the overlay shows as the main line for a frame.
func DisplayText(frame syncer.Frame) string {
	if frame.HasLine {
		return frame.Line.Text
	}
	switch frame.State {
	case syncer.Searching:
		return PlaceholderSearching
	case syncer.PureMusic:
		return PlaceholderPureMusic
	case syncer.Found:
		if frame.Track != nil {
			return frame.Track.Title
		}
		return ""
	}
	if frame.Track == nil {
		return PlaceholderWaiting
	}
	return PlaceholderNotFound
}

func (m Model) View() string {
	return m.view
}

func (m Model) render() string {
	if m.quitting {
		return ""
	}

	width := m.width
	if width == 0 {
		width = defaultWidth
	}
	height := m.height
	if height == 0 {
		height = defaultHeight
	}

	var lines []string
	if !m.hideHeader {
		lines = append(lines, m.renderHeader(width)...)
	}
	lines = append(lines, m.renderLyrics(width)...)

	body := lipgloss.PlaceVertical(height-1, lipgloss.Center, strings.Join(lines, "\n"))
	return body + "\n" + m.renderHelp(width)
}

func (m Model) renderHeader(width int) []string {
	trk := m.frame.Track
	if trk == nil {
		return nil
	}

	info := titleStyle.Render(trk.Title) + contextStyle.Render(" · ") + artistStyle.Render(trk.Artist)
	status := statusStyle.Render(fmt.Sprintf("%s  offset %s", m.frame.State, formatOffset(m.frame.OffsetMillis)))

	return []string{
		lipgloss.PlaceHorizontal(width, lipgloss.Center, info),
		lipgloss.PlaceHorizontal(width, lipgloss.Center, status),
		"",
	}
}

func (m Model) renderLyrics(width int) []string {
	text := DisplayText(m.frame)
	style := currentStyle
	if !m.frame.HasLine {
		style = statusStyle
	}

	prev, next := "", ""
	if m.frame.State == syncer.Found && m.controller != nil {
		doc := m.controller.Document()
		if m.frame.Index > 0 && m.frame.Index-1 < doc.Len() {
			prev = doc.Line(m.frame.Index - 1).Text
		}
		if m.frame.Index+1 < doc.Len() {
			next = doc.Line(m.frame.Index + 1).Text
		}
	}

	center := func(s string, st lipgloss.Style) string {
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, st.MaxWidth(width).Render(s))
	}

	return []string{
		center(prev, contextStyle),
		center(text, style),
		center(next, contextStyle),
	}
}

func (m Model) renderHelp(width int) string {
	var parts []string
	for _, binding := range m.keys.shortHelp() {
		help := binding.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}
	return helpStyle.MaxWidth(width).Render(strings.Join(parts, " • "))
}

// formatOffset renders milliseconds as a signed number of seconds.
func formatOffset(ms int64) string {
	sign := "+"
	if ms < 0 {
		sign = "-"
		ms = -ms
	}
	return fmt.Sprintf("%s%d.%01ds", sign, ms/1000, (ms%1000)/100)
}
