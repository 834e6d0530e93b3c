package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Search
	Search key.Binding

	// Typed voice command
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Task actions
	Add    key.Binding
	Edit   key.Binding
	Toggle key.Binding
	Delete key.Binding

	// Deleted tray
	Trash   key.Binding
	Restore key.Binding
	Purge   key.Binding

	// Bulk
	ClearCompleted key.Binding
	EmptyTrash     key.Binding
	ClearAll       key.Binding

	// Filters and sort
	CycleStatus   key.Binding
	CyclePriority key.Binding
	CycleSort     key.Binding

	// Voice
	Listen    key.Binding
	AutoStop  key.Binding
	Voice     key.Binding
	SpeakLast key.Binding

	// Misc
	Export   key.Binding
	Settings key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "say a command"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Add: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new task"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("x", " "),
			key.WithHelp("x/space", "toggle done"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Trash: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "deleted tasks"),
		),
		Restore: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "restore"),
		),
		Purge: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete forever"),
		),
		ClearCompleted: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "clear completed"),
		),
		EmptyTrash: key.NewBinding(
			key.WithKeys("E"),
			key.WithHelp("E", "empty trash"),
		),
		ClearAll: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "delete all"),
		),
		CycleStatus: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "cycle status"),
		),
		CyclePriority: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "cycle priority"),
		),
		CycleSort: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "cycle sort"),
		),
		Listen: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "start/stop listening"),
		),
		AutoStop: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "toggle auto-stop"),
		),
		Voice: key.NewBinding(
			key.WithKeys("V"),
			key.WithHelp("V", "toggle voice output"),
		),
		SpeakLast: key.NewBinding(
			key.WithKeys("."),
			key.WithHelp(".", "repeat last message"),
		),
		Export: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "export"),
		),
		Settings: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "email settings"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Add, k.Toggle, k.Delete,
		k.Listen, k.Command, k.Help, k.Quit,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Back, k.Quit, k.Help},
		{k.Add, k.Edit, k.Toggle, k.Delete, k.Search},
		{k.Trash, k.Restore, k.Purge, k.ClearCompleted, k.EmptyTrash, k.ClearAll},
		{k.CycleStatus, k.CyclePriority, k.CycleSort, k.Export, k.Settings},
		{k.Listen, k.Command, k.AutoStop, k.Voice, k.SpeakLast},
	}
}
