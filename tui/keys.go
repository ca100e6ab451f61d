package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap binds board actions to keys.
type KeyMap struct {
	Left      key.Binding
	Right     key.Binding
	Up        key.Binding
	Down      key.Binding
	MoveLeft  key.Binding
	MoveRight key.Binding
	New       key.Binding
	Edit      key.Binding
	EditDesc  key.Binding
	Delete    key.Binding
	Reload    key.Binding
	Quit      key.Binding
	Enter     key.Binding
	Back      key.Binding
	Tab       key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "column")),
		Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "column")),
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		MoveLeft:  key.NewBinding(key.WithKeys("shift+left", "H"), key.WithHelp("H", "move left")),
		MoveRight: key.NewBinding(key.WithKeys("shift+right", "L"), key.WithHelp("L", "move right")),
		New:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		Edit:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit title")),
		EditDesc:  key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "edit description")),
		Delete:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Reload:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Enter:     key.NewBinding(key.WithKeys("enter")),
		Back:      key.NewBinding(key.WithKeys("esc")),
		Tab:       key.NewBinding(key.WithKeys("tab", "shift+tab")),
	}
}

// ShortHelp lists the bindings shown in the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Up, k.MoveRight, k.New, k.Edit, k.EditDesc, k.Delete, k.Reload, k.Quit}
}
