package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap lists the TUI bindings. They stand in for the global hotkeys of a
// desktop overlay; external daemons use the control server instead.
type KeyMap struct {
	Screen    key.Binding
	Region    key.Binding
	Clipboard key.Binding
	CycleMode key.Binding
	Copy      key.Binding
	Save      key.Binding
	Toggle    key.Binding
	Clear     key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
	Quit      key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Screen:    key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "screenshot")),
		Region:    key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "region")),
		Clipboard: key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "clipboard")),
		CycleMode: key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "mode")),
		Copy:      key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy")),
		Save:      key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "save")),
		Toggle:    key.NewBinding(key.WithKeys("ctrl+\\"), key.WithHelp("ctrl+\\", "toggle")),
		Clear:     key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear")),
		PageUp:    key.NewBinding(key.WithKeys("pgup")),
		PageDown:  key.NewBinding(key.WithKeys("pgdown")),
		Quit:      key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// ShortHelp returns the bindings shown in the help line.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Screen, k.Region, k.Clipboard, k.CycleMode, k.Copy, k.Save, k.Toggle, k.Quit}
}

// FullHelp returns the same bindings as ShortHelp in one column.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
