// Package tui provides a terminal user interface for browsing and editing
// tasks grouped by category.
package tui

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tors/backend"
	"tors/internal/theme"
)

// Backend interface for task operations (subset of backend.TaskManager)
type Backend interface {
	ListTasksGroupedByCategory(ctx context.Context) (backend.Grouped, error)
	CreateTask(ctx context.Context, name, description, eta string) (*backend.Task, error)
	EditTask(ctx context.Context, id int, field backend.Field, value string) error
	DeleteTask(ctx context.Context, id int) error
	Theme(ctx context.Context) (string, error)
}

// Focus indicates which pane has focus
type Focus int

const (
	FocusGroups Focus = iota
	FocusTasks
)

// Mode indicates the current input mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeAdd
	ModeEdit
	ModeFilter
	ModeHelp
	ModeConfirmDelete
)

// Model represents the TUI state
type Model struct {
	backend Backend
	ctx     context.Context

	// Data
	groups      backend.Grouped
	labels      []string
	filteredIdx []int // indices into the selected group's tasks
	theme       string
	status      string

	// Selection
	groupCursor int
	taskCursor  int
	focus       Focus

	// Mode and input
	mode      Mode
	textInput textinput.Model
	filter    string

	// UI dimensions
	width  int
	height int

	// Styles
	groupPaneStyle lipgloss.Style
	taskPaneStyle  lipgloss.Style
	selectedStyle  lipgloss.Style
	idStyle        lipgloss.Style
	detailStyle    lipgloss.Style
	helpStyle      lipgloss.Style
	dialogStyle    lipgloss.Style
	statusBarStyle lipgloss.Style
	errorStyle     lipgloss.Style
}

// Message types
type groupsLoadedMsg struct {
	groups backend.Grouped
	theme  string
}

type taskChangedMsg struct {
	status string
}

type errMsg struct {
	err error
}

// New creates a new TUI model
func New(b Backend) *Model {
	ti := textinput.New()
	ti.Placeholder = "Enter text..."
	ti.CharLimit = 256

	m := &Model{
		backend:   b,
		ctx:       context.Background(),
		textInput: ti,
		focus:     FocusGroups,
		mode:      ModeNormal,
		groupPaneStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
		taskPaneStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
		idStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		detailStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),
		helpStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		statusBarStyle: lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1),
		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("1")),
	}
	m.applyTheme(theme.Default)
	return m
}

// applyTheme colors the selection and dialog border with the theme accent
func (m *Model) applyTheme(name string) {
	m.theme = name
	accent := theme.Accent(name)
	m.selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	m.dialogStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(1, 2)
}

// Init initializes the TUI
func (m *Model) Init() tea.Cmd {
	return m.loadGroups()
}

func (m *Model) loadGroups() tea.Cmd {
	return func() tea.Msg {
		groups, err := m.backend.ListTasksGroupedByCategory(m.ctx)
		if err != nil {
			return errMsg{err}
		}
		name, err := m.backend.Theme(m.ctx)
		if err != nil {
			return errMsg{err}
		}
		return groupsLoadedMsg{groups: groups, theme: name}
	}
}

func (m *Model) createTask(name string) tea.Cmd {
	return func() tea.Msg {
		task, err := m.backend.CreateTask(m.ctx, name, "", "")
		if err != nil {
			return errMsg{err}
		}
		return taskChangedMsg{status: "Created " + task.Name + " " + backend.FormatID(task.ID)}
	}
}

func (m *Model) renameTask(id int, name string) tea.Cmd {
	return func() tea.Msg {
		if err := m.backend.EditTask(m.ctx, id, backend.FieldName, name); err != nil {
			return errMsg{err}
		}
		return taskChangedMsg{status: "Renamed " + backend.FormatID(id)}
	}
}

func (m *Model) deleteTask(id int) tea.Cmd {
	return func() tea.Msg {
		if err := m.backend.DeleteTask(m.ctx, id); err != nil {
			return errMsg{err}
		}
		return taskChangedMsg{status: "Deleted " + backend.FormatID(id)}
	}
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case groupsLoadedMsg:
		m.setGroups(msg.groups)
		m.applyTheme(msg.theme)
		return m, nil

	case taskChangedMsg:
		m.status = msg.status
		return m, m.loadGroups()

	case errMsg:
		m.status = "Error: " + msg.err.Error()
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeAdd:
			return m.handleAddMode(msg)
		case ModeEdit:
			return m.handleEditMode(msg)
		case ModeFilter:
			return m.handleFilterMode(msg)
		case ModeHelp:
			return m.handleHelpMode(msg)
		case ModeConfirmDelete:
			return m.handleConfirmDeleteMode(msg)
		}

		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "tab":
			if m.focus == FocusGroups {
				m.focus = FocusTasks
			} else {
				m.focus = FocusGroups
			}
			return m, nil

		case "up", "k":
			if m.focus == FocusGroups {
				if m.groupCursor > 0 {
					m.groupCursor--
					m.taskCursor = 0
					m.applyFilter()
				}
			} else if m.taskCursor > 0 {
				m.taskCursor--
			}
			return m, nil

		case "down", "j":
			if m.focus == FocusGroups {
				if m.groupCursor < len(m.labels)-1 {
					m.groupCursor++
					m.taskCursor = 0
					m.applyFilter()
				}
			} else if m.taskCursor < len(m.filteredIdx)-1 {
				m.taskCursor++
			}
			return m, nil

		case "a":
			m.mode = ModeAdd
			m.textInput.Reset()
			m.textInput.Placeholder = "New task name..."
			m.textInput.Focus()
			return m, textinput.Blink

		case "e":
			if task, ok := m.selectedTask(); ok {
				m.mode = ModeEdit
				m.textInput.Reset()
				m.textInput.SetValue(task.Name)
				m.textInput.Focus()
				return m, textinput.Blink
			}
			return m, nil

		case "d":
			if _, ok := m.selectedTask(); ok {
				m.mode = ModeConfirmDelete
			}
			return m, nil

		case "r":
			return m, m.loadGroups()

		case "/":
			m.mode = ModeFilter
			m.textInput.Reset()
			m.textInput.Placeholder = "Search..."
			m.textInput.Focus()
			return m, textinput.Blink

		case "?":
			m.mode = ModeHelp
			return m, nil
		}
	}

	if m.mode == ModeAdd || m.mode == ModeEdit || m.mode == ModeFilter {
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// setGroups replaces the data and keeps the selected label when it still exists
func (m *Model) setGroups(groups backend.Grouped) {
	selected := m.selectedLabel()
	m.groups = groups
	m.labels = groups.Labels()

	m.groupCursor = 0
	for i, label := range m.labels {
		if label == selected {
			m.groupCursor = i
			break
		}
	}
	m.applyFilter()
}

func (m *Model) selectedLabel() string {
	if m.groupCursor < len(m.labels) {
		return m.labels[m.groupCursor]
	}
	return ""
}

func (m *Model) currentTasks() []backend.Task {
	return m.groups[m.selectedLabel()]
}

func (m *Model) selectedTask() (backend.Task, bool) {
	if len(m.filteredIdx) == 0 || m.taskCursor >= len(m.filteredIdx) {
		return backend.Task{}, false
	}
	return m.currentTasks()[m.filteredIdx[m.taskCursor]], true
}

func (m *Model) handleAddMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.Type {
	case tea.KeyEnter:
		value := strings.TrimSpace(m.textInput.Value())
		m.mode = ModeNormal
		if value != "" {
			return m, m.createTask(value)
		}
		return m, nil

	case tea.KeyEsc:
		m.mode = ModeNormal
		return m, nil
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m *Model) handleEditMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.Type {
	case tea.KeyEnter:
		value := strings.TrimSpace(m.textInput.Value())
		m.mode = ModeNormal
		if task, ok := m.selectedTask(); ok && value != "" {
			return m, m.renameTask(task.ID, value)
		}
		return m, nil

	case tea.KeyEsc:
		m.mode = ModeNormal
		return m, nil
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m *Model) handleFilterMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.Type {
	case tea.KeyEnter:
		m.filter = m.textInput.Value()
		m.applyFilter()
		m.mode = ModeNormal
		return m, nil

	case tea.KeyEsc:
		m.filter = ""
		m.applyFilter()
		m.mode = ModeNormal
		return m, nil
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m *Model) handleHelpMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyEnter:
		m.mode = ModeNormal
		return m, nil
	}
	if msg.String() == "q" {
		m.mode = ModeNormal
	}
	return m, nil
}

func (m *Model) handleConfirmDeleteMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.mode = ModeNormal
		if task, ok := m.selectedTask(); ok {
			return m, m.deleteTask(task.ID)
		}
		return m, nil

	case "n", "N", "esc":
		m.mode = ModeNormal
		return m, nil
	}
	return m, nil
}

// applyFilter matches the filter against task names and descriptions
func (m *Model) applyFilter() {
	m.filteredIdx = nil
	needle := strings.ToLower(m.filter)
	for i, task := range m.currentTasks() {
		if needle == "" ||
			strings.Contains(strings.ToLower(task.Name), needle) ||
			strings.Contains(strings.ToLower(task.Description), needle) {
			m.filteredIdx = append(m.filteredIdx, i)
		}
	}
	if m.taskCursor >= len(m.filteredIdx) {
		m.taskCursor = 0
	}
}

// View renders the TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		m.width = 80
		m.height = 24
	}

	switch m.mode {
	case ModeAdd:
		return m.renderInputDialog("Add New Task", "Enter: confirm  Esc: cancel")
	case ModeEdit:
		title := "Rename Task"
		if task, ok := m.selectedTask(); ok {
			title = "Rename: " + task.Name
		}
		return m.renderInputDialog(title, "Enter: confirm  Esc: cancel")
	case ModeFilter:
		return m.renderInputDialog("Search/Filter Tasks", "Enter: filter  Esc: clear")
	case ModeHelp:
		return m.centerDialog(m.dialogStyle.Render(helpText))
	case ModeConfirmDelete:
		return m.centerDialog(m.dialogStyle.Render(
			"Delete selected task?\n\n" + m.helpStyle.Render("y: yes  n: no"),
		))
	}

	groupWidth := m.width / 4
	taskWidth := m.width - groupWidth - 4

	groupPane := m.groupPaneStyle.Width(groupWidth).Height(m.height - 4).Render(m.renderGroupPane(groupWidth - 4))
	taskPane := m.taskPaneStyle.Width(taskWidth).Height(m.height - 4).Render(m.renderTaskPane(taskWidth - 4))

	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, groupPane, taskPane))
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m *Model) renderGroupPane(width int) string {
	var b strings.Builder
	b.WriteString("Categories\n")
	b.WriteString(strings.Repeat("─", max(width, 0)))
	b.WriteString("\n")

	for i, label := range m.labels {
		cursor := " "
		name := label + " (" + strconv.Itoa(len(m.groups[label])) + ")"
		if i == m.groupCursor {
			if m.focus == FocusGroups {
				cursor = ">"
			}
			name = m.selectedStyle.Render(name)
		}
		b.WriteString(cursor + " " + name + "\n")
	}
	return b.String()
}

func (m *Model) renderTaskPane(width int) string {
	var b strings.Builder
	b.WriteString("Tasks\n")
	b.WriteString(strings.Repeat("─", max(width, 0)))
	b.WriteString("\n")

	if len(m.filteredIdx) == 0 {
		b.WriteString("No tasks\n")
		return b.String()
	}

	tasks := m.currentTasks()
	for fi, idx := range m.filteredIdx {
		task := tasks[idx]
		cursor := " "
		name := task.Name
		if fi == m.taskCursor && m.focus == FocusTasks {
			cursor = ">"
			name = m.selectedStyle.Render(name)
		}
		b.WriteString(cursor + " " + name + " " + m.idStyle.Render(backend.FormatID(task.ID)) + "\n")
		if task.Description != "" {
			b.WriteString("    " + m.detailStyle.Render(task.Description) + "\n")
		}
		if task.ETA != "" {
			b.WriteString("    " + m.detailStyle.Render("ETA: "+task.ETA) + "\n")
		}
	}
	return b.String()
}

func (m *Model) renderStatusBar() string {
	left := m.selectedLabel()
	if m.status != "" {
		left = m.status
		if strings.HasPrefix(m.status, "Error: ") {
			left = m.errorStyle.Render(m.status)
		}
	}

	right := m.theme + "  q:quit  ?:help"
	if m.filter != "" {
		right = "Filter: " + m.filter + "  " + right
	}

	padding := m.width - lipgloss.Width(left) - len(right) - 2
	if padding < 1 {
		padding = 1
	}
	return m.statusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", padding) + right)
}

func (m *Model) renderInputDialog(title, hint string) string {
	return m.centerDialog(m.dialogStyle.Render(
		title + "\n\n" +
			m.textInput.View() + "\n\n" +
			m.helpStyle.Render(hint),
	))
}

const helpText = `Help - Key Bindings

Navigation:
  j/↓    Move down
  k/↑    Move up
  Tab    Switch focus between categories/tasks

Actions:
  a      Add new task
  e      Rename selected task
  d      Delete task (with confirm)
  /      Search/filter tasks
  r      Reload

General:
  ?      Show this help
  q      Quit

Press Esc to close`

func (m *Model) centerDialog(dialog string) string {
	lines := strings.Split(dialog, "\n")
	dialogHeight := len(lines)
	dialogWidth := lipgloss.Width(dialog)

	topPad := max((m.height-dialogHeight)/2, 0)
	leftPad := max((m.width-dialogWidth)/2, 0)

	var b strings.Builder
	for i := 0; i < topPad; i++ {
		b.WriteString("\n")
	}
	for _, line := range lines {
		b.WriteString(strings.Repeat(" ", leftPad))
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// Groups returns the currently loaded groups
func (m *Model) Groups() backend.Grouped {
	return m.groups
}

// Status returns the last status bar message
func (m *Model) Status() string {
	return m.status
}

// Theme returns the theme used for styling
func (m *Model) Theme() string {
	return m.theme
}
