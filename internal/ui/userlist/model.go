package userlist

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"roleboard/internal/keys"
	"roleboard/internal/model"
	"roleboard/internal/theme"
)

// CloseMsg signals the parent to close the user roster.
type CloseMsg struct{}

// RoleChangeMsg asks the parent to move a user to a new role.
type RoleChangeMsg struct {
	UserID int64
	Role   model.Role
}

// Model is the admin-only user roster view.
type Model struct {
	users       []model.UserProfile
	keys        *keys.KeyMap
	selectedIdx int
	width       int
	height      int
}

// New creates a new user roster model.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{
		keys:   k,
		width:  width,
		height: height,
	}
}

// SetUsers replaces the displayed roster.
func (m *Model) SetUsers(users []model.UserProfile) {
	m.users = users
	if m.selectedIdx >= len(users) {
		m.selectedIdx = 0
	}
}

// Update handles messages for the roster.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(keyMsg, m.keys.Down):
		if len(m.users) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.users)
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.Up):
		if len(m.users) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.users) - 1
			}
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.Promote):
		return m.changeRole(1)

	case key.Matches(keyMsg, m.keys.Demote):
		return m.changeRole(-1)
	}

	return m, nil
}

// changeRole emits a RoleChangeMsg for the selected user, one tier up
// or down. Steps past either end of the hierarchy are ignored.
func (m Model) changeRole(step int) (Model, tea.Cmd) {
	if len(m.users) == 0 {
		return m, nil
	}

	u := m.users[m.selectedIdx]
	next := model.Role(int(u.Role) + step)
	if next < model.RoleUser || next > model.RoleAdmin {
		return m, nil
	}

	return m, func() tea.Msg {
		return RoleChangeMsg{UserID: u.ID, Role: next}
	}
}

// View renders the roster.
func (m Model) View() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	b.WriteString(titleStyle.Render("Users"))
	b.WriteString("\n\n")

	if len(m.users) == 0 {
		b.WriteString(theme.HelpStyle.Render("No users loaded. Press esc to go back."))
	} else {
		for i, u := range m.users {
			roleBadge := theme.RoleStyle(u.Role).Render(u.Role.String())
			label := fmt.Sprintf("%s  %s", u.Email, roleBadge)
			if !u.IsActive {
				label += theme.HelpStyle.Render(" (inactive)")
			}

			if i == m.selectedIdx {
				b.WriteString(theme.SelectedItemStyle.Render(label))
			} else {
				b.WriteString(theme.ListItemStyle.Render(label))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render("+ promote | - demote | esc back"))

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(b.String())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
