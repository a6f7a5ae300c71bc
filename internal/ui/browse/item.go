package browse

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"roleboard/internal/model"
	"roleboard/internal/theme"
)

// taskItem wraps a model.Task so it can be used in a bubbles/list.
type taskItem struct {
	task    model.Task
	project string
}

// FilterValue returns the string used for fuzzy filtering.
func (i taskItem) FilterValue() string { return i.task.Title }

// taskDelegate implements list.ItemDelegate for rendering task rows.
type taskDelegate struct{}

// Height returns the number of lines each item takes.
func (d taskDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d taskDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d taskDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single task line.
func (d taskDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(taskItem)
	if !ok {
		return
	}

	statusBadge := theme.StatusStyle(ti.task.Status).Render(ti.task.Status)

	projectBadge := ""
	if ti.project != "" {
		projectBadge = lipgloss.NewStyle().
			Foreground(theme.ColorBlue).
			Render(" [" + ti.project + "]")
	}

	timeStr := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(relativeTime(ti.task.CreatedAt))

	line := fmt.Sprintf("%s %s%s  %s", statusBadge, ti.task.Title, projectBadge, timeStr)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return fmt.Sprintf("%dw ago", int(d.Hours()/24/7))
	}
}
