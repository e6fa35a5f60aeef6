package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Convert  key.Binding
	Clear    key.Binding
	Cancel   key.Binding
	Next     key.Binding
	Prev     key.Binding
	Activate key.Binding
	Newline  key.Binding
	Quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Convert:  key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "convert")),
		Clear:    key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear")),
		Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Next:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next control")),
		Prev:     key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous control")),
		Activate: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "press")),
		Newline:  key.NewBinding(key.WithKeys("ctrl+j"), key.WithHelp("ctrl+j", "newline")),
		Quit:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "quit")),
	}
}

// sync enables the bindings that make sense for the current loading state.
func (k *keyMap) sync(loading bool) {
	k.Convert.SetEnabled(!loading)
	k.Clear.SetEnabled(!loading)
	k.Newline.SetEnabled(!loading)
	k.Cancel.SetEnabled(loading)
	k.Quit.SetEnabled(!loading)
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Convert, k.Clear, k.Cancel, k.Next, k.Activate, k.Newline, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Convert, k.Clear, k.Cancel},
		{k.Next, k.Prev, k.Activate, k.Newline, k.Quit},
	}
}
