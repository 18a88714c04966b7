package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.view = m.render()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case TickMsg:
		m.refresh(time.Time(msg), false)
		return m, m.tickCmd()
	}

	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.view = ""
		return m, tea.Quit

	case key.Matches(msg, m.keys.Faster):
		m.adjust(fineStepMillis)

	case key.Matches(msg, m.keys.Slower):
		m.adjust(-fineStepMillis)

	case key.Matches(msg, m.keys.Forward):
		m.adjust(coarseStepMillis)

	case key.Matches(msg, m.keys.Back):
		m.adjust(-coarseStepMillis)

	case key.Matches(msg, m.keys.Reset):
		if m.controller != nil {
			m.controller.SetOffset(0)
		}
		m.refresh(m.now(), true)

	case key.Matches(msg, m.keys.Retry):
		if m.retry != nil && m.retry() {
			m.refresh(m.now(), true)
		}

	case key.Matches(msg, m.keys.ToggleHeader):
		m.hideHeader = !m.hideHeader
		m.view = m.render()
	}

	return m, nil
}

func (m *Model) adjust(deltaMillis int64) {
	if m.controller == nil {
		return
	}
	m.controller.AdjustOffset(deltaMillis)
	m.refresh(m.now(), true)
}
