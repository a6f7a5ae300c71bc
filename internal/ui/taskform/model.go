package taskform

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"roleboard/internal/forms"
	"roleboard/internal/model"
	"roleboard/internal/theme"
)

// SubmitMsg carries a validated task form. ID is zero when the form
// creates a new task.
type SubmitMsg struct {
	ID        int64
	Title     string
	Status    string
	ProjectID int64
}

// CancelMsg is dispatched when the user abandons the form.
type CancelMsg struct{}

type formBindings struct {
	title     string
	status    string
	projectID string
}

// Model is the Bubble Tea model for creating or editing a task.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	id       int64
	projects []model.Project
	errText  string
	busy     bool
	width    int
	height   int
}

// New creates a new task form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// StartCreate resets the form for a new task. The project list feeds
// the project select; defaultProject preselects a project when nonzero.
func (m *Model) StartCreate(projects []model.Project, defaultProject int64) tea.Cmd {
	m.id = 0
	m.projects = projects
	m.fb.title = ""
	m.fb.status = model.StatusTodo
	m.fb.projectID = ""
	if defaultProject != 0 {
		m.fb.projectID = strconv.FormatInt(defaultProject, 10)
	}
	m.errText = ""
	m.busy = false
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit preloads the form with an existing task.
func (m *Model) StartEdit(t model.Task, projects []model.Project) tea.Cmd {
	m.id = t.ID
	m.projects = projects
	m.fb.title = t.Title
	m.fb.status = t.Status
	m.fb.projectID = strconv.FormatInt(t.ProjectID, 10)
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

// Update handles messages for the task form.
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
		projectID, _ := strconv.ParseInt(strings.TrimSpace(m.fb.projectID), 10, 64)
		submit := SubmitMsg{
			ID:        m.id,
			Title:     m.fb.title,
			Status:    m.fb.status,
			ProjectID: projectID,
		}
		return m, func() tea.Msg { return submit }
	case huh.StateAborted:
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the task form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	title := "New task"
	if m.id != 0 {
		title = "Edit task"
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
	schema := forms.TaskSchema()

	statusOptions := make([]huh.Option[string], 0, len(model.TaskStatuses))
	for _, s := range model.TaskStatuses {
		statusOptions = append(statusOptions, huh.NewOption(s, s))
	}

	projectOptions := make([]huh.Option[string], 0, len(m.projects))
	for _, p := range m.projects {
		projectOptions = append(projectOptions, huh.NewOption(
			fmt.Sprintf("%s (#%d)", p.Name, p.ID),
			strconv.FormatInt(p.ID, 10),
		))
	}

	fields := []huh.Field{
		huh.NewInput().
			Title("Title").
			Value(&m.fb.title).
			Validate(schema.FieldRule("title")),
		huh.NewSelect[string]().
			Title("Status").
			Options(statusOptions...).
			Value(&m.fb.status).
			Validate(schema.FieldRule("status")),
	}

	// Fall back to a raw ID input when the project list has not loaded.
	if len(projectOptions) > 0 {
		fields = append(fields, huh.NewSelect[string]().
			Title("Project").
			Options(projectOptions...).
			Value(&m.fb.projectID).
			Validate(schema.FieldRule("project_id")))
	} else {
		fields = append(fields, huh.NewInput().
			Title("Project ID").
			Value(&m.fb.projectID).
			Validate(schema.FieldRule("project_id")))
	}

	return huh.NewForm(huh.NewGroup(fields...)).WithWidth(m.formWidth())
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
