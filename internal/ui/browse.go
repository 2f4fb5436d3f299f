// Package ui provides the interactive terminal browser for quarry.
// It renders a scrollable list of interactions with a detail pane for
// the selected record. All curation happens in commands; this view is
// read-only.
package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mwhitby/quarry/internal/model"
)

// Model is the browse view model.
type Model struct {
	title  string
	items  []model.Interaction
	labels map[string]model.Label

	cursor   int
	viewport int // index of first visible row
	width    int
	height   int
	detail   bool
}

// New creates a browse model over the given interactions. labels may
// be nil.
func New(title string, items []model.Interaction, labels map[string]model.Label) Model {
	if labels == nil {
		labels = make(map[string]model.Label)
	}
	return Model{
		title:  title,
		items:  items,
		labels: labels,
		width:  80,
		height: 24,
	}
}

// SelectedItem returns the currently selected interaction.
func (m Model) SelectedItem() (model.Interaction, bool) {
	if m.cursor >= 0 && m.cursor < len(m.items) {
		return m.items[m.cursor], true
	}
	return model.Interaction{}, false
}

// Cursor returns the current cursor position.
func (m Model) Cursor() int {
	return m.cursor
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Back):
			if m.detail {
				m.detail = false
				return m, nil
			}
			return m, tea.Quit
		case key.Matches(msg, keys.Detail):
			m.detail = !m.detail
		case key.Matches(msg, keys.Up):
			m.moveUp()
		case key.Matches(msg, keys.Down):
			m.moveDown()
		case key.Matches(msg, keys.PageUp):
			m.cursor = max(0, m.cursor-m.visibleRows())
		case key.Matches(msg, keys.PageDown):
			if len(m.items) > 0 {
				m.cursor = min(len(m.items)-1, m.cursor+m.visibleRows())
			}
		case key.Matches(msg, keys.Home):
			m.cursor = 0
			m.viewport = 0
		case key.Matches(msg, keys.End):
			if len(m.items) > 0 {
				m.cursor = len(m.items) - 1
			}
		}
	}

	m.ensureCursorVisible()
	return m, nil
}

func (m *Model) moveUp() {
	if m.cursor > 0 {
		m.cursor--
	}
}

func (m *Model) moveDown() {
	if m.cursor < len(m.items)-1 {
		m.cursor++
	}
}

func (m *Model) ensureCursorVisible() {
	visible := m.visibleRows()
	if visible <= 0 {
		return
	}
	if m.cursor < m.viewport {
		m.viewport = m.cursor
	}
	if m.cursor >= m.viewport+visible {
		m.viewport = m.cursor - visible + 1
	}
}

// visibleRows is the list capacity after header and status bar.
func (m Model) visibleRows() int {
	return max(1, m.height-4)
}

// View implements tea.Model.
func (m Model) View() string {
	if len(m.items) == 0 {
		return HelpStyle.Render("No interactions to browse.")
	}

	var b strings.Builder

	header := fmt.Sprintf("quarry browse: %s (%d interactions)", m.title, len(m.items))
	b.WriteString(Header.Render(header))
	b.WriteString("\n\n")

	if m.detail {
		m.renderDetail(&b)
	} else {
		m.renderList(&b)
	}

	b.WriteString("\n")
	b.WriteString(m.statusBar())
	return b.String()
}

func (m Model) renderList(b *strings.Builder) {
	end := min(m.viewport+m.visibleRows(), len(m.items))
	for i := m.viewport; i < end; i++ {
		b.WriteString(m.renderRow(m.items[i], i == m.cursor))
		b.WriteString("\n")
	}
}

func (m Model) renderRow(item model.Interaction, selected bool) string {
	id := truncate(item.ID, 12)

	verdict := ""
	if lbl, ok := m.labels[item.ID]; ok {
		verdict = " [" + lbl.Verdict + "]"
	}

	textWidth := m.width - len(id) - len(verdict) - 8
	if textWidth < 20 {
		textWidth = 20
	}
	text := truncate(oneLine(item.Input.Text), textWidth)

	if selected {
		return SelectedItem.Render(fmt.Sprintf("%-12s %s%s", id, text, verdict))
	}

	line := fmt.Sprintf("%s %s", IDBadge.Render(fmt.Sprintf("%-12s", id)), text)
	if verdict != "" {
		style := VerdictOther
		if m.labels[item.ID].Verdict == "pass" {
			style = VerdictPass
		}
		line += style.Render(verdict)
	}
	return NormalItem.Render(line)
}

func (m Model) renderDetail(b *strings.Builder) {
	item, ok := m.SelectedItem()
	if !ok {
		return
	}

	b.WriteString(DetailKey.Render("id") + "         " + item.ID + "\n")
	if !item.CreatedAt.IsZero() {
		b.WriteString(DetailKey.Render("created") + "    " + item.CreatedAt.Format("2006-01-02 15:04:05") + "\n")
	}

	if len(item.Dimensions) > 0 {
		dimKeys := make([]string, 0, len(item.Dimensions))
		for k := range item.Dimensions {
			dimKeys = append(dimKeys, k)
		}
		sort.Strings(dimKeys)
		b.WriteString(DetailKey.Render("dimensions") + "\n")
		for _, k := range dimKeys {
			b.WriteString(DimensionText.Render(fmt.Sprintf("  %s=%q", k, item.Dimensions[k])) + "\n")
		}
	}

	if len(item.Tags) > 0 {
		b.WriteString(DetailKey.Render("tags") + "       " + strings.Join(item.Tags, ", ") + "\n")
	}

	if lbl, ok := m.labels[item.ID]; ok {
		b.WriteString(DetailKey.Render("verdict") + "    " + lbl.Verdict + "\n")
		if lbl.Notes != "" {
			b.WriteString(DetailKey.Render("notes") + "      " + lbl.Notes + "\n")
		}
	}

	b.WriteString("\n")
	wrap := max(20, m.width-4)
	b.WriteString(NormalItem.Width(wrap).Render(item.Input.Text))
	b.WriteString("\n")
}

func (m Model) statusBar() string {
	position := StatusBarText.Render(fmt.Sprintf("%d/%d", m.cursor+1, len(m.items)))
	hints := StatusBarKey.Render("j/k") + StatusBarText.Render(" move  ") +
		StatusBarKey.Render("enter") + StatusBarText.Render(" detail  ") +
		StatusBarKey.Render("q") + StatusBarText.Render(" quit")
	return StatusBar.Render(position + "  " + hints)
}

// Key bindings
var keys = struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding
	Detail   key.Binding
	Back     key.Binding
	Quit     key.Binding
}{
	Up:       key.NewBinding(key.WithKeys("up", "k")),
	Down:     key.NewBinding(key.WithKeys("down", "j")),
	PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u")),
	PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d")),
	Home:     key.NewBinding(key.WithKeys("home", "g")),
	End:      key.NewBinding(key.WithKeys("end", "G")),
	Detail:   key.NewBinding(key.WithKeys("enter")),
	Back:     key.NewBinding(key.WithKeys("esc")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c")),
}

// oneLine collapses newlines so a record renders as a single row.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate shortens a string to max runes, appending "..." if truncated.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
