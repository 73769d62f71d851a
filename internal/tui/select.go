// Package tui provides interactive terminal UI components.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"bookhunt/internal/orchestrator"
)

const (
	defaultListWidth  = 72
	defaultListHeight = 20
)

var runProgram = func(m tea.Model) (tea.Model, error) {
	return tea.NewProgram(m).Run()
}

// SelectionAction represents the user's action in the selection UI.
type SelectionAction int

const (
	// ActionNone indicates no action was taken.
	ActionNone SelectionAction = iota
	// ActionSelected indicates the user selected a candidate.
	ActionSelected
	// ActionSkipped indicates the user skipped the selection.
	ActionSkipped
	// ActionStopped indicates the user stopped the search entirely.
	ActionStopped
)

// SelectionResult holds the result of a TUI selection.
type SelectionResult struct {
	Action SelectionAction
	Index  int
}

type candidateItem struct {
	orchestrator.Candidate
}

func (i candidateItem) Title() string {
	return i.Candidate.Title
}

func (i candidateItem) FilterValue() string {
	return i.Candidate.Title
}

func (i candidateItem) Description() string {
	return i.Candidate.Description
}

type itemStyles struct {
	normal        lipgloss.Style
	selected      lipgloss.Style
	titleStyle    lipgloss.Style
	isbnStyle     lipgloss.Style
	metadataStyle lipgloss.Style
	descStyle     lipgloss.Style
}

func newItemStyles() itemStyles {
	asciiBorder := lipgloss.Border{
		Top:         "-",
		Bottom:      "-",
		Left:        "|",
		Right:       "|",
		TopLeft:     "+",
		TopRight:    "+",
		BottomLeft:  "+",
		BottomRight: "+",
	}

	container := lipgloss.NewStyle().
		Border(asciiBorder).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		Foreground(lipgloss.Color("252"))

	selected := container.Copy().
		BorderForeground(lipgloss.Color("214")).
		Foreground(lipgloss.Color("230")).
		Background(lipgloss.Color("237"))

	return itemStyles{
		normal:   container,
		selected: selected,
		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("254")),
		isbnStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("178")),
		metadataStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("247")).
			Faint(true),
		descStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("248")),
	}
}

type candidateDelegate struct {
	styles itemStyles
}

func newDelegate() candidateDelegate {
	return candidateDelegate{styles: newItemStyles()}
}

func (d candidateDelegate) Height() int                         { return 4 }
func (d candidateDelegate) Spacing() int                        { return 1 }
func (d candidateDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

func (d candidateDelegate) Render(w io.Writer, m list.Model, idx int, item list.Item) {
	candidate, ok := item.(candidateItem)
	if !ok {
		return
	}

	description := candidate.Candidate.Description
	if len(description) > 0 {
		description = truncate(description, m.Width()-4)
	}

	titleLine := d.styles.titleStyle.Render(candidate.Candidate.Title)
	isbnLine := d.styles.isbnStyle.Render(candidate.ISBN)
	metadataLine := d.styles.metadataStyle.Render(formatMetadata(candidate.Candidate))
	descLine := d.styles.descStyle.Render(description)

	content := lipgloss.JoinVertical(lipgloss.Left, titleLine, isbnLine, metadataLine, descLine)

	container := d.styles.normal
	if idx == m.Index() {
		container = d.styles.selected
	}
	_, _ = fmt.Fprint(w, container.Render(content))
}

type model struct {
	list   list.Model
	query  string
	result SelectionResult
}

func newModel(query string, items []candidateItem) *model {
	listItems := make([]list.Item, len(items))
	for i, item := range items {
		listItems[i] = item
	}

	delegate := newDelegate()
	l := list.New(listItems, delegate, defaultListWidth, defaultListHeight)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.SetShowPagination(false)
	l.DisableQuitKeybindings()
	l.Styles.NoItems = lipgloss.NewStyle()

	return &model{
		list:  l,
		query: query,
		result: SelectionResult{
			Action: ActionNone,
		},
	}
}

func (m *model) Init() tea.Cmd { return nil }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if _, ok := m.list.SelectedItem().(candidateItem); ok {
				m.result = SelectionResult{
					Action: ActionSelected,
					Index:  m.list.Index(),
				}
				return m, tea.Quit
			}
		case "s", "esc":
			m.result = SelectionResult{Action: ActionSkipped}
			return m, tea.Quit
		case "ctrl+c", "q":
			m.result = SelectionResult{Action: ActionStopped}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		width := clamp(defaultListWidth, msg.Width-4, 40)
		height := clamp(defaultListHeight, msg.Height-6, 5)
		m.list.SetSize(width, height)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *model) View() string {
	header := headerStyle.Render(fmt.Sprintf("Multiple books found for: %s", m.query))
	listView := m.list.View()
	buttons := lipgloss.JoinHorizontal(
		lipgloss.Left,
		skipButtonStyle.Render(" Skip "),
		lipgloss.NewStyle().Padding(0, 2).Render(""),
		stopButtonStyle.Render(" Stop "),
	)
	help := helpStyle.Render("Up/Down navigate | Enter select | s skip | q stop")
	return lipgloss.JoinVertical(lipgloss.Left, header, listView, buttons, help)
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			MarginBottom(1)

	skipButtonStyle = lipgloss.NewStyle().
			MarginTop(1).
			Padding(0, 2).
			Background(lipgloss.Color("178")).
			Foreground(lipgloss.Color("0")).
			Bold(true)

	stopButtonStyle = lipgloss.NewStyle().
			MarginTop(1).
			Padding(0, 2).
			Background(lipgloss.Color("161")).
			Foreground(lipgloss.Color("230")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			MarginTop(1).
			Foreground(lipgloss.Color("244"))
)

// Select presents an interactive selection UI for resolver candidates.
func Select(query string, candidates []orchestrator.Candidate) (SelectionResult, error) {
	if len(candidates) == 0 {
		return SelectionResult{Action: ActionSkipped}, nil
	}

	items := make([]candidateItem, len(candidates))
	for i, candidate := range candidates {
		items[i] = candidateItem{Candidate: candidate}
	}
	m := newModel(query, items)
	finalModel, err := runProgram(m)
	if err != nil {
		return SelectionResult{}, err
	}

	if typed, ok := finalModel.(*model); ok {
		return typed.result, nil
	}

	return SelectionResult{}, fmt.Errorf("unexpected program result")
}

func truncate(value string, width int) string {
	value = strings.Join(strings.Fields(value), " ")
	if width <= 0 || len(value) <= width {
		return value
	}
	if width <= 3 {
		return value[:width]
	}
	return value[:width-3] + "..."
}

// formatMetadata builds the author/publisher/date line.
func formatMetadata(candidate orchestrator.Candidate) string {
	var parts []string
	if candidate.Author != "" {
		parts = append(parts, candidate.Author)
	}
	if candidate.Publisher != "" {
		parts = append(parts, candidate.Publisher)
	}
	if candidate.PubDate != "" {
		parts = append(parts, candidate.PubDate)
	}
	return strings.Join(parts, " | ")
}

func clamp(preferred, available, minimum int) int {
	if available <= 0 {
		return preferred
	}
	if available < minimum {
		return minimum
	}
	if available < preferred {
		return available
	}
	return preferred
}
