// Package app is the root Bubble Tea model. It routes between views,
// owns the layout, and translates view messages into session and sync
// operations.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"roleboard/internal/api"
	"roleboard/internal/keys"
	"roleboard/internal/model"
	"roleboard/internal/notify"
	"roleboard/internal/role"
	"roleboard/internal/session"
	appsync "roleboard/internal/sync"
	"roleboard/internal/theme"
	"roleboard/internal/ui"
	"roleboard/internal/ui/browse"
	helpview "roleboard/internal/ui/help"
	"roleboard/internal/ui/loginform"
	"roleboard/internal/ui/passwordform"
	"roleboard/internal/ui/projectform"
	"roleboard/internal/ui/taskform"
	"roleboard/internal/ui/userlist"
)

const sessionExpiredMessage = "Session expired, please sign in again"

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewBrowse
	ViewProjectForm
	ViewTaskForm
	ViewPasswordForm
	ViewUsers
	ViewHelp
)

// Model is the root Bubble Tea model that manages view routing,
// layout, session state, and the sync controller.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	session    *session.Manager
	controller *appsync.Controller
	notifier   *notify.Center

	loginView        loginform.Model
	browseView       browse.Model
	projectFormView  projectform.Model
	taskFormView     taskform.Model
	passwordFormView passwordform.Model
	userView         userlist.Model
	helpView         helpview.Model

	ready bool
}

// New creates the root application model. The controller's caches are
// registered to be cleared whenever the session is destroyed.
func New(sm *session.Manager, c *appsync.Controller, n *notify.Center) Model {
	k := keys.DefaultKeyMap()
	sm.OnLogout(c.Clear)

	return Model{
		currentView:      ViewLogin,
		keys:             k,
		session:          sm,
		controller:       c,
		notifier:         n,
		loginView:        loginform.New(80, 24),
		browseView:       browse.New(k, 80, 24),
		projectFormView:  projectform.New(80, 24),
		taskFormView:     taskform.New(80, 24),
		passwordFormView: passwordform.New(80, 24),
		userView:         userlist.New(k, 80, 24),
		helpView:         helpview.New(k, 80, 24),
	}
}

// Messages produced by the app's own commands.

type sessionRestoredMsg struct {
	ok  bool
	err error
}

type snapshotLoadedMsg struct {
	err error
}

type loginResultMsg struct {
	err error
}

type refreshDoneMsg struct {
	err error
}

type mutationDoneMsg struct {
	success string
	err     error
}

type usersLoadedMsg struct {
	err error
}

type roleChangedMsg struct {
	err error
}

type passwordChangedMsg struct {
	err error
}

// Init attempts to resume a persisted session and loads the last
// snapshot so the browse view has data before the first refresh.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadSnapshotCmd(), m.restoreSessionCmd())
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.loginView.SetSize(w, h)
		m.browseView.SetSize(w, h)
		m.projectFormView.SetSize(w, h)
		m.taskFormView.SetSize(w, h)
		m.passwordFormView.SetSize(w, h)
		m.userView.SetSize(w, h)
		m.helpView.SetSize(w, h)

		if !m.ready {
			m.ready = true
			if m.currentView == ViewLogin {
				return m, m.loginView.Start()
			}
		}
		// Forward so huh forms recalculate their layout.
		return m.updateActiveView(msg)

	case sessionRestoredMsg:
		if msg.ok {
			m.currentView = ViewBrowse
			return m, m.refreshCmd(m.browseView.Filter())
		}
		if msg.err != nil && !api.IsAuthError(msg.err) {
			return m, m.notifier.Notify(notify.KindError, msg.err.Error())
		}
		return m, nil

	case snapshotLoadedMsg:
		if msg.err != nil {
			return m, nil
		}
		return m, m.browseView.SetData(m.controller.Projects(), m.controller.Tasks())

	case loginform.SubmitMsg:
		return m, m.loginCmd(msg.Email, msg.Password)

	case loginResultMsg:
		if msg.err != nil {
			m.loginView.SetError(msg.err.Error())
			return m, nil
		}
		m.currentView = ViewBrowse
		return m, tea.Batch(
			m.refreshCmd(m.browseView.Filter()),
			m.notifier.Notify(notify.KindSuccess, "Signed in"),
		)

	case browse.FilterChangedMsg:
		return m, m.refreshCmd(msg.Filter)

	case refreshDoneMsg:
		if msg.err == nil {
			return m, m.browseView.SetData(m.controller.Projects(), m.controller.Tasks())
		}
		if api.IsAuthError(msg.err) {
			return m.sessionExpired()
		}
		// Stale results are superseded, not failures.
		if errors.Is(msg.err, appsync.ErrStaleRefresh) {
			return m, nil
		}
		return m, m.notifier.Notify(notify.KindError, msg.err.Error())

	case projectform.SubmitMsg:
		// The form stays open until the server accepts; a rejection
		// is shown inline on it.
		return m, m.saveProjectCmd(msg)

	case projectform.CancelMsg, taskform.CancelMsg, passwordform.CancelMsg:
		m.currentView = ViewBrowse
		return m, nil

	case taskform.SubmitMsg:
		return m, m.saveTaskCmd(msg)

	case mutationDoneMsg:
		if msg.err == nil {
			m.currentView = ViewBrowse
			return m, tea.Batch(
				m.browseView.SetData(m.controller.Projects(), m.controller.Tasks()),
				m.notifier.Notify(notify.KindSuccess, msg.success),
			)
		}
		if api.IsAuthError(msg.err) {
			return m.sessionExpired()
		}
		switch m.currentView {
		case ViewProjectForm:
			m.projectFormView.SetError(msg.err.Error())
			return m, nil
		case ViewTaskForm:
			m.taskFormView.SetError(msg.err.Error())
			return m, nil
		}
		return m, m.notifier.Notify(notify.KindError, msg.err.Error())

	case passwordform.SubmitMsg:
		return m, m.changePasswordCmd(msg.Current, msg.New)

	case passwordChangedMsg:
		if msg.err == nil {
			m.currentView = ViewBrowse
			return m, m.notifier.Notify(notify.KindSuccess, "Password changed")
		}
		if api.IsAuthError(msg.err) {
			return m.sessionExpired()
		}
		m.passwordFormView.SetError(msg.err.Error())
		return m, nil

	case usersLoadedMsg:
		if msg.err != nil {
			if api.IsAuthError(msg.err) {
				return m.sessionExpired()
			}
			return m, m.notifier.Notify(notify.KindError, msg.err.Error())
		}
		m.userView.SetUsers(m.controller.Users())
		m.currentView = ViewUsers
		return m, nil

	case userlist.RoleChangeMsg:
		return m, m.changeRoleCmd(msg.UserID, msg.Role)

	case roleChangedMsg:
		if msg.err != nil {
			if api.IsAuthError(msg.err) {
				return m.sessionExpired()
			}
			return m, m.notifier.Notify(notify.KindError, msg.err.Error())
		}
		m.userView.SetUsers(m.controller.Users())
		return m, m.notifier.Notify(notify.KindSuccess, "Role updated")

	case userlist.CloseMsg:
		m.currentView = ViewBrowse
		return m, nil

	case notify.ExpiredMsg:
		m.notifier.Expire(msg)
		return m, nil

	case tea.KeyMsg:
		if newModel, cmd, handled := m.handleGlobalKey(msg); handled {
			return newModel, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKey handles keys that operate above the active view.
// Returns handled=false when the key should fall through.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit, true
	}

	// Text inputs own the keyboard while active.
	if m.currentView != ViewBrowse && m.currentView != ViewUsers && m.currentView != ViewHelp {
		return m, nil, false
	}
	if m.currentView == ViewBrowse && m.browseView.InSearchMode() {
		return m, nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.currentView == ViewBrowse {
			return m, tea.Quit, true
		}

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
		} else {
			m.previousView = m.currentView
			m.currentView = ViewHelp
		}
		return m, nil, true

	case key.Matches(msg, m.keys.Back):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}

	case key.Matches(msg, m.keys.Refresh):
		if m.currentView == ViewBrowse {
			return m, m.refreshCmd(m.browseView.Filter()), true
		}

	case key.Matches(msg, m.keys.Logout):
		m.session.Logout()
		m.currentView = ViewLogin
		return m, tea.Batch(
			m.loginView.Start(),
			m.notifier.Notify(notify.KindInfo, "Signed out"),
		), true

	case key.Matches(msg, m.keys.ChangePassword):
		if m.currentView == ViewBrowse {
			m.currentView = ViewPasswordForm
			return m, m.passwordFormView.Start(), true
		}

	case key.Matches(msg, m.keys.Users):
		if m.currentView == ViewBrowse && m.can(role.ActionManageRoles) {
			return m, m.listUsersCmd(), true
		}

	case key.Matches(msg, m.keys.NewProject):
		if m.currentView == ViewBrowse && m.can(role.ActionCreateProject) {
			m.currentView = ViewProjectForm
			return m, m.projectFormView.StartCreate(), true
		}

	case key.Matches(msg, m.keys.NewTask):
		if m.currentView == ViewBrowse && m.can(role.ActionCreateTask) {
			var defaultProject int64
			if p, ok := m.browseView.SelectedProject(); ok && m.browseView.ProjectsFocused() {
				defaultProject = p.ID
			}
			m.currentView = ViewTaskForm
			return m, m.taskFormView.StartCreate(m.controller.Projects(), defaultProject), true
		}

	case key.Matches(msg, m.keys.Edit):
		if m.currentView != ViewBrowse {
			break
		}
		if m.browseView.ProjectsFocused() {
			if p, ok := m.browseView.SelectedProject(); ok && m.can(role.ActionUpdateProject) {
				m.currentView = ViewProjectForm
				return m, m.projectFormView.StartEdit(p), true
			}
		} else if t, ok := m.browseView.SelectedTask(); ok && m.can(role.ActionUpdateTask) {
			m.currentView = ViewTaskForm
			return m, m.taskFormView.StartEdit(t, m.controller.Projects()), true
		}

	case key.Matches(msg, m.keys.DeleteItem):
		if m.currentView != ViewBrowse {
			break
		}
		if m.browseView.ProjectsFocused() {
			if p, ok := m.browseView.SelectedProject(); ok && m.can(role.ActionDeleteProject) {
				return m, m.deleteProjectCmd(p.ID), true
			}
		} else if t, ok := m.browseView.SelectedTask(); ok && m.can(role.ActionDeleteTask) {
			return m, m.deleteTaskCmd(t.ID), true
		}

	case key.Matches(msg, m.keys.AdvanceStatus):
		if m.currentView == ViewBrowse && !m.browseView.ProjectsFocused() {
			if t, ok := m.browseView.SelectedTask(); ok && m.can(role.ActionUpdateTask) {
				return m, m.advanceStatusCmd(t), true
			}
		}
	}

	return m, nil, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewBrowse:
		m.browseView, cmd = m.browseView.Update(msg)
	case ViewProjectForm:
		m.projectFormView, cmd = m.projectFormView.Update(msg)
	case ViewTaskForm:
		m.taskFormView, cmd = m.taskFormView.Update(msg)
	case ViewPasswordForm:
		m.passwordFormView, cmd = m.passwordFormView.Update(msg)
	case ViewUsers:
		m.userView, cmd = m.userView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Roleboard", m.identity())
	banner := m.layout.RenderBanner(m.bannerText())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, banner, content, statusBar)
}

// renderContent returns the rendered string for the active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewBrowse:
		return m.browseView.View()
	case ViewProjectForm:
		return m.projectFormView.View()
	case ViewTaskForm:
		return m.taskFormView.View()
	case ViewPasswordForm:
		return m.passwordFormView.View()
	case ViewUsers:
		return m.userView.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return ""
	}
}

// identity describes the signed-in account for the header.
func (m Model) identity() string {
	u := m.session.User()
	if u == nil {
		return "signed out"
	}
	return fmt.Sprintf("%s (%s)", u.Email, u.Role)
}

// bannerText renders the transient notification, or the persistent
// expiry message while on the sign-in screen.
func (m Model) bannerText() string {
	if msg := m.notifier.Current(); msg != nil {
		return theme.BannerStyle(msg.Kind).Render(msg.Text)
	}
	if m.currentView == ViewLogin {
		if expired := m.session.ExpiredMessage(); expired != "" {
			return theme.BannerStyle(notify.KindError).Render(expired)
		}
	}
	return ""
}

// keyHints returns keyboard shortcut hints for the status bar, limited
// to actions the signed-in role may attempt.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewLogin:
		return "enter submit | ctrl+c quit"
	case ViewProjectForm, ViewTaskForm, ViewPasswordForm:
		return "enter submit | esc cancel"
	case ViewUsers:
		return "+ promote | - demote | esc back"
	case ViewHelp:
		return "? close help | esc back"
	default:
		hints := "q quit | ? help | tab pane | / filter | s status: " +
			m.browseView.StatusFilterLabel() + " | r refresh"
		if m.can(role.ActionCreateTask) {
			hints += " | n task"
		}
		if m.can(role.ActionCreateProject) {
			hints += " | p project"
		}
		if m.can(role.ActionManageRoles) {
			hints += " | u users"
		}
		return hints
	}
}

// can reports whether the signed-in role may attempt the action.
func (m Model) can(a role.Action) bool {
	u := m.session.User()
	return u != nil && role.Can(u.Role, a)
}

// sessionExpired tears down state after a rejected token and returns
// to the sign-in screen.
func (m Model) sessionExpired() (tea.Model, tea.Cmd) {
	m.session.Invalidate(sessionExpiredMessage)
	m.currentView = ViewLogin
	return m, m.loginView.Start()
}

func (m Model) restoreSessionCmd() tea.Cmd {
	sm := m.session
	return func() tea.Msg {
		ok, err := sm.Restore(context.Background())
		return sessionRestoredMsg{ok: ok, err: err}
	}
}

func (m Model) loadSnapshotCmd() tea.Cmd {
	c := m.controller
	return func() tea.Msg {
		return snapshotLoadedMsg{err: c.LoadSnapshot(context.Background())}
	}
}

func (m Model) loginCmd(email, password string) tea.Cmd {
	sm := m.session
	return func() tea.Msg {
		_, err := sm.Login(context.Background(), email, password)
		return loginResultMsg{err: err}
	}
}

func (m Model) refreshCmd(filter model.Filter) tea.Cmd {
	c := m.controller
	token := m.session.Token()
	return func() tea.Msg {
		_, err := c.Refresh(context.Background(), token, filter)
		return refreshDoneMsg{err: err}
	}
}

func (m Model) saveProjectCmd(msg projectform.SubmitMsg) tea.Cmd {
	c := m.controller
	token := m.session.Token()
	filter := m.browseView.Filter()
	payload := api.ProjectPayload{Name: msg.Name, Description: msg.Description}
	return func() tea.Msg {
		if msg.ID == 0 {
			_, err := c.CreateProject(context.Background(), token, filter, payload)
			return mutationDoneMsg{success: "Project created", err: err}
		}
		_, err := c.UpdateProject(context.Background(), token, filter, msg.ID, payload)
		return mutationDoneMsg{success: "Project updated", err: err}
	}
}

func (m Model) deleteProjectCmd(id int64) tea.Cmd {
	c := m.controller
	token := m.session.Token()
	filter := m.browseView.Filter()
	return func() tea.Msg {
		err := c.DeleteProject(context.Background(), token, filter, id)
		return mutationDoneMsg{success: "Project deleted", err: err}
	}
}

func (m Model) saveTaskCmd(msg taskform.SubmitMsg) tea.Cmd {
	c := m.controller
	token := m.session.Token()
	filter := m.browseView.Filter()
	return func() tea.Msg {
		if msg.ID == 0 {
			payload := api.TaskPayload{
				Title:     msg.Title,
				Status:    msg.Status,
				ProjectID: msg.ProjectID,
			}
			_, err := c.CreateTask(context.Background(), token, filter, payload)
			return mutationDoneMsg{success: "Task created", err: err}
		}
		title, status := msg.Title, msg.Status
		update := api.TaskUpdate{Title: &title, Status: &status}
		_, err := c.UpdateTask(context.Background(), token, filter, msg.ID, update)
		return mutationDoneMsg{success: "Task updated", err: err}
	}
}

func (m Model) deleteTaskCmd(id int64) tea.Cmd {
	c := m.controller
	token := m.session.Token()
	filter := m.browseView.Filter()
	return func() tea.Msg {
		err := c.DeleteTask(context.Background(), token, filter, id)
		return mutationDoneMsg{success: "Task deleted", err: err}
	}
}

// advanceStatusCmd moves a task to the next status in the cycle.
func (m Model) advanceStatusCmd(t model.Task) tea.Cmd {
	c := m.controller
	token := m.session.Token()
	filter := m.browseView.Filter()
	next := nextStatus(t.Status)
	return func() tea.Msg {
		update := api.TaskUpdate{Status: &next}
		_, err := c.UpdateTask(context.Background(), token, filter, t.ID, update)
		return mutationDoneMsg{success: "Task moved to " + next, err: err}
	}
}

func (m Model) listUsersCmd() tea.Cmd {
	c := m.controller
	token := m.session.Token()
	return func() tea.Msg {
		_, err := c.ListUsers(context.Background(), token)
		return usersLoadedMsg{err: err}
	}
}

func (m Model) changeRoleCmd(userID int64, r model.Role) tea.Cmd {
	c := m.controller
	token := m.session.Token()
	return func() tea.Msg {
		_, err := c.UpdateUserRole(context.Background(), token, userID, r)
		return roleChangedMsg{err: err}
	}
}

func (m Model) changePasswordCmd(current, next string) tea.Cmd {
	sm := m.session
	return func() tea.Msg {
		return passwordChangedMsg{err: sm.ChangePassword(context.Background(), current, next)}
	}
}

// nextStatus returns the status following s in the workflow cycle.
func nextStatus(s string) string {
	for i, st := range model.TaskStatuses {
		if st == s {
			return model.TaskStatuses[(i+1)%len(model.TaskStatuses)]
		}
	}
	return model.StatusTodo
}
