package projectform

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"roleboard/internal/forms"
	"roleboard/internal/model"
	"roleboard/internal/theme"
)

// SubmitMsg carries a validated project form. ID is zero when the form
// creates a new project.
type SubmitMsg struct {
	ID          int64
	Name        string
	Description string
}

// CancelMsg is dispatched when the user abandons the form.
type CancelMsg struct{}

type formBindings struct {
	name        string
	description string
}

// Model is the Bubble Tea model for creating or editing a project.
type Model struct {
	form    *huh.Form
	fb      *formBindings
	id      int64
	errText string
	busy    bool
	width   int
	height  int
}

// New creates a new project form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// StartCreate resets the form for a new project.
func (m *Model) StartCreate() tea.Cmd {
	m.id = 0
	m.fb.name = ""
	m.fb.description = ""
	m.errText = ""
	m.busy = false
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit preloads the form with an existing project.
func (m *Model) StartEdit(p model.Project) tea.Cmd {
	m.id = p.ID
	m.fb.name = p.Name
	m.fb.description = p.Description
	m.errText = ""
	m.busy = false
	m.form = m.buildForm()
	return m.form.Init()
}

// SetError shows a server rejection under the form and reopens it for
// another attempt, keeping the entered values.
func (m *Model) SetError(text string) {
	m.errText = text
	m.busy = false
	m.form = m.buildForm()
}

// Update handles messages for the project form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil || m.busy {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.busy = true
		m.errText = ""
		submit := SubmitMsg{
			ID:          m.id,
			Name:        m.fb.name,
			Description: m.fb.description,
		}
		return m, func() tea.Msg { return submit }
	case huh.StateAborted:
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the project form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	title := "New project"
	if m.id != 0 {
		title = "Edit project"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(title) + "\n" + m.form.View()
	if m.busy {
		content += "\n" + theme.HelpStyle.Render("Saving...")
	}
	if m.errText != "" {
		content += "\n" + theme.ErrorStyle.Render(m.errText)
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	schema := forms.ProjectSchema()

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&m.fb.name).
				Validate(schema.FieldRule("name")),
			huh.NewInput().
				Title("Description").
				Value(&m.fb.description).
				Validate(schema.FieldRule("description")),
		),
	).WithWidth(m.formWidth())
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 80 {
		w = 80
	}
	return w
}
