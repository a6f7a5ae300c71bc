package browse

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"roleboard/internal/keys"
	"roleboard/internal/model"
	"roleboard/internal/theme"
)

// FilterChangedMsg is sent when the user edits the project query or
// cycles the task status filter. The app reacts with a fresh refresh.
type FilterChangedMsg struct {
	Filter model.Filter
}

// pane identifies which side of the split view has focus.
type pane int

const (
	paneProjects pane = iota
	paneTasks
)

// statusFilters lists the task status filter cycle. The empty string
// means no status filter.
var statusFilters = []string{"", model.StatusTodo, model.StatusDoing, model.StatusDone}

// Model is the two-pane project and task browser.
type Model struct {
	projects    []model.Project
	taskList    list.Model
	keys        *keys.KeyMap
	filter      model.Filter
	statusIndex int
	pane        pane
	projIndex   int
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new browse model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, taskDelegate{}, width, height)
	l.Title = "Tasks"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "filter projects..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		taskList:    l,
		keys:        k,
		pane:        paneTasks,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// SetData replaces the displayed projects and tasks with a new snapshot.
func (m *Model) SetData(projects []model.Project, tasks []model.Task) tea.Cmd {
	m.projects = projects
	if m.projIndex >= len(projects) {
		m.projIndex = 0
	}

	names := make(map[int64]string, len(projects))
	for _, p := range projects {
		names[p.ID] = p.Name
	}

	items := make([]list.Item, len(tasks))
	for i, t := range tasks {
		items[i] = taskItem{task: t, project: names[t.ProjectID]}
	}
	return m.taskList.SetItems(items)
}

// Filter returns the active project query and status filter.
func (m Model) Filter() model.Filter {
	return m.filter
}

// SelectedProject returns the highlighted project, if any.
func (m Model) SelectedProject() (model.Project, bool) {
	if len(m.projects) == 0 || m.projIndex >= len(m.projects) {
		return model.Project{}, false
	}
	return m.projects[m.projIndex], true
}

// SelectedTask returns the highlighted task, if any.
func (m Model) SelectedTask() (model.Task, bool) {
	item, ok := m.taskList.SelectedItem().(taskItem)
	if !ok {
		return model.Task{}, false
	}
	return item.task, true
}

// ProjectsFocused reports whether the projects pane currently has focus.
func (m Model) ProjectsFocused() bool {
	return m.pane == paneProjects
}

// InSearchMode reports whether the query input is capturing keys.
func (m Model) InSearchMode() bool {
	return m.searchMode
}

// Update handles messages for the browse view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if m.searchMode {
			return m.handleSearchKeys(keyMsg)
		}
		return m.handleNormalKeys(keyMsg)
	}

	var cmd tea.Cmd
	m.taskList, cmd = m.taskList.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while the query bar is active.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.filter.Query = m.searchInput.Value()
		return m, m.filterChanged()

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.filter.Query = ""
		return m, m.filterChanged()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input outside search mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.SwitchPane):
		if m.pane == paneProjects {
			m.pane = paneTasks
		} else {
			m.pane = paneProjects
		}
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.SetValue(m.filter.Query)
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.CycleStatus):
		m.statusIndex = (m.statusIndex + 1) % len(statusFilters)
		m.filter.Status = statusFilters[m.statusIndex]
		return m, m.filterChanged()
	}

	if m.pane == paneProjects {
		switch {
		case key.Matches(msg, m.keys.Down):
			if m.projIndex < len(m.projects)-1 {
				m.projIndex++
			}
			return m, nil
		case key.Matches(msg, m.keys.Up):
			if m.projIndex > 0 {
				m.projIndex--
			}
			return m, nil
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.taskList, cmd = m.taskList.Update(msg)
	return m, cmd
}

// filterChanged announces the new filter to the app.
func (m Model) filterChanged() tea.Cmd {
	filter := m.filter
	return func() tea.Msg {
		return FilterChangedMsg{Filter: filter}
	}
}

// View renders the split project and task panes.
func (m Model) View() string {
	projectsWidth := m.width / 3
	tasksWidth := m.width - projectsWidth

	paneHeight := m.height
	if m.searchMode {
		paneHeight--
	}

	projectsPane := m.renderProjects(projectsWidth-2, paneHeight-2)
	m.taskList.SetSize(tasksWidth-2, paneHeight-2)
	tasksPane := m.taskList.View()

	projectStyle := theme.PanelStyle.Width(projectsWidth - 2).Height(paneHeight - 2)
	taskStyle := theme.PanelStyle.Width(tasksWidth - 2).Height(paneHeight - 2)
	if m.pane == paneProjects {
		projectStyle = projectStyle.BorderForeground(theme.ColorBlue)
	} else {
		taskStyle = taskStyle.BorderForeground(theme.ColorBlue)
	}

	body := lipgloss.JoinHorizontal(
		lipgloss.Top,
		projectStyle.Render(projectsPane),
		taskStyle.Render(tasksPane),
	)

	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, body)
	}

	return body
}

// renderProjects draws the project pane contents.
func (m Model) renderProjects(width, height int) string {
	title := theme.HeaderStyle.Render("Projects")
	if m.filter.Query != "" {
		title += theme.HelpStyle.Render(" /" + m.filter.Query)
	}

	lines := []string{title}
	for i, p := range m.projects {
		line := p.Name
		if i == m.projIndex {
			line = theme.SelectedItemStyle.Render(line)
		} else {
			line = theme.ListItemStyle.Render(line)
		}
		lines = append(lines, line)
		if len(lines) >= height {
			break
		}
	}

	if len(m.projects) == 0 {
		lines = append(lines, theme.HelpStyle.Render("No projects."))
	}

	return lipgloss.NewStyle().
		Width(width).
		MaxWidth(width).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// StatusFilterLabel describes the active status filter for the status bar.
func (m Model) StatusFilterLabel() string {
	if m.filter.Status == "" {
		return "all"
	}
	return m.filter.Status
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.taskList.SetSize(width-width/3-2, height-2)
	m.searchInput.Width = width - 4
}
