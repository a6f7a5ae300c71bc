package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Pane switching
	SwitchPane key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Filters
	Search      key.Binding
	CycleStatus key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh
	Refresh key.Binding

	// Mutations (availability depends on the signed-in role)
	NewProject    key.Binding
	NewTask       key.Binding
	Edit          key.Binding
	DeleteItem    key.Binding
	AdvanceStatus key.Binding

	// Admin
	Users   key.Binding
	Promote key.Binding
	Demote  key.Binding

	// Account
	ChangePassword key.Binding
	Logout         key.Binding
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
		SwitchPane: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch pane"),
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
			key.WithHelp("/", "filter projects"),
		),
		CycleStatus: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "cycle status filter"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		NewProject: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "new project"),
		),
		NewTask: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new task"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit selected"),
		),
		DeleteItem: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete selected"),
		),
		AdvanceStatus: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "advance status"),
		),
		Users: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "manage users"),
		),
		Promote: key.NewBinding(
			key.WithKeys("+"),
			key.WithHelp("+", "promote"),
		),
		Demote: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "demote"),
		),
		ChangePassword: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "change password"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "log out"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.SwitchPane, k.Quit, k.Help,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.SwitchPane, k.Back, k.Quit},
		{k.Search, k.CycleStatus, k.Refresh, k.Help},
		{k.NewProject, k.NewTask, k.Edit, k.DeleteItem, k.AdvanceStatus},
		{k.Users, k.Promote, k.Demote, k.ChangePassword, k.Logout},
	}
}
