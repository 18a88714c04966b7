package ui

import "github.com/charmbracelet/bubbles/key"

const (
	fineStepMillis   = 100
	coarseStepMillis = 500
)

type keyMap struct {
	Faster       key.Binding
	Slower       key.Binding
	Forward      key.Binding
	Back         key.Binding
	Reset        key.Binding
	Retry        key.Binding
	ToggleHeader key.Binding
	Quit         key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Faster: key.NewBinding(
			key.WithKeys("+", "=", "up", "k"),
			key.WithHelp("+/↑", "+0.1s"),
		),
		Slower: key.NewBinding(
			key.WithKeys("-", "down", "j"),
			key.WithHelp("-/↓", "-0.1s"),
		),
		Forward: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "+0.5s"),
		),
		Back: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "-0.5s"),
		),
		Reset: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "reset"),
		),
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "search again"),
		),
		ToggleHeader: key.NewBinding(
			key.WithKeys("tab", "i"),
			key.WithHelp("tab", "info"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) shortHelp() []key.Binding {
	return []key.Binding{k.Faster, k.Slower, k.Forward, k.Back, k.Reset, k.Retry, k.Quit}
}
