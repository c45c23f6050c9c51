package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap lists every binding of the navigator. It implements help.KeyMap.
type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Drill  key.Binding
	Back   key.Binding
	Next   key.Binding
	Prev   key.Binding
	Reset  key.Binding
	Attack key.Binding
	Defend key.Binding
	Copy   key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Drill:  key.NewBinding(key.WithKeys("enter", "l", "right"), key.WithHelp("enter", "drill in")),
		Back:   key.NewBinding(key.WithKeys("backspace", "h", "left", "esc"), key.WithHelp("⌫", "back")),
		Next:   key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next sibling")),
		Prev:   key.NewBinding(key.WithKeys("["), key.WithHelp("[", "prev sibling")),
		Reset:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		Attack: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "attack wave")),
		Defend: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "defend")),
		Copy:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy id")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp is shown in the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Drill, k.Back, k.Next, k.Prev, k.Help, k.Quit}
}

// FullHelp is shown when help is expanded.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Drill, k.Back},
		{k.Next, k.Prev, k.Reset},
		{k.Attack, k.Defend, k.Copy},
		{k.Help, k.Quit},
	}
}
