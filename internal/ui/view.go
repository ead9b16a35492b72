package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/kafka2i/kafka2i/internal/nav"
)

const (
	headerHeight  = 1
	commandHeight = 3
	footerHeight  = 1
	detailsHeight = 9
	// border plus title line
	panelChrome = 3
)

var listWidgets = []nav.Widget{nav.BrokersList, nav.ConsumerGroupsList, nav.TopicsList, nav.PartitionsList}

func (m *model) leftWidth() int {
	return max(m.width/3, 20)
}

func (m *model) rightWidth() int {
	return max(m.width-m.leftWidth(), 20)
}

func (m *model) bodyHeight() int {
	return max(m.height-headerHeight-commandHeight-footerHeight, len(listWidgets)*panelChrome)
}

func (m *model) resize(width, height int) {
	m.width, m.height = width, height
	inner := m.rightWidth() - 4
	m.help.Width = inner
	m.message.Width = inner
	m.message.Height = max(m.bodyHeight()-detailsHeight-panelChrome, 1)
	m.command.Width = max(width-8, 10)

	fieldHeight := max((m.bodyHeight()-detailsHeight)/fieldCount-panelChrome, 1)
	for i := range m.fields {
		m.fields[i].SetWidth(inner)
		m.fields[i].SetHeight(fieldHeight)
	}
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return fmt.Sprintf("\n  %s Initializing...\n", m.spinner.View())
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, m.viewLists(), m.viewSide())
	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewHeader(),
		body,
		m.viewCommand(),
		m.viewFooter(),
	)
}

func (m *model) viewHeader() string {
	header := fmt.Sprintf("kafka2i  %s", m.now.Format("15:04:05"))
	if stats := statsLine(m.stats); stats != "" {
		header += "  |  " + stats
	}
	return m.styles.Header().Render(truncate(header, m.width))
}

func (m *model) viewLists() string {
	height := m.bodyHeight() / len(listWidgets)
	panels := make([]string, 0, len(listWidgets))
	for _, w := range listWidgets {
		panels = append(panels, m.viewList(w, m.leftWidth(), height))
	}
	return lipgloss.JoinVertical(lipgloss.Left, panels...)
}

// viewList renders a window of the list that keeps the cursor visible
func (m *model) viewList(w nav.Widget, width, height int) string {
	list := m.state.List(w)
	inner := width - 4
	rows := max(height-panelChrome, 1)

	start := 0
	if list.Cursor >= rows {
		start = list.Cursor - rows + 1
	}
	end := min(start+rows, len(list.Items))

	lines := []string{m.styles.Title().Render(fmt.Sprintf("%s (%d)", list.Name, len(list.Items)))}
	for i := start; i < end; i++ {
		label := truncate(list.Items[i], inner)
		if i == list.Cursor {
			lines = append(lines, m.styles.SelectedItem().Render(label))
		} else {
			lines = append(lines, m.styles.Item().Render(label))
		}
	}

	return m.styles.Panel(m.state.Focus() == w).
		Width(width - 2).
		Height(height - 2).
		Render(strings.Join(lines, "\n"))
}

func (m *model) viewSide() string {
	width := m.rightWidth()

	if m.showHelp {
		return m.styles.Panel(false).
			Width(width - 2).
			Height(m.bodyHeight() - 2).
			Render(m.styles.Title().Render("Help") + "\n" + m.help.View(m.keys))
	}

	details := m.viewDetails(width)
	if m.state.AppMode() == nav.Producer {
		return lipgloss.JoinVertical(lipgloss.Left, details, m.viewFields(width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, details, m.viewMessage(width))
}

// viewDetails shows the details of the focused list, or of the last list
// when a producer field has focus.
func (m *model) viewDetails(width int) string {
	focus := m.state.Focus()
	if !focus.IsList() {
		focus = nav.PartitionsList
	}
	text := m.details[focus]
	if text == "" {
		text = m.styles.Muted().Render("Select an item")
	}
	title := m.styles.Title().Render(focus.String() + " Details")
	return m.styles.Panel(false).
		Width(width - 2).
		Height(detailsHeight - 2).
		Render(title + "\n" + text)
}

func (m *model) viewMessage(width int) string {
	title := "Message"
	if m.messageTitle != "" {
		title += "  " + m.messageTitle
	}

	content := m.message.View()
	if m.status != "" {
		content = fmt.Sprintf("%s %s", m.spinner.View(), m.status)
	}

	return m.styles.Panel(false).
		Width(width - 2).
		Height(m.bodyHeight() - detailsHeight - 2).
		Render(m.styles.Title().Render(truncate(title, width-4)) + "\n" + content)
}

func (m *model) viewFields(width int) string {
	height := (m.bodyHeight() - detailsHeight) / fieldCount
	panels := make([]string, 0, fieldCount)
	for i := range m.fields {
		w := nav.KeyField + nav.Widget(i)
		panels = append(panels, m.styles.Panel(m.state.Focus() == w).
			Width(width-2).
			Height(height-2).
			Render(m.styles.Title().Render(w.String())+"\n"+m.fields[i].View()))
	}
	if m.status != "" {
		panels = append(panels, fmt.Sprintf("%s %s", m.spinner.View(), m.status))
	} else if m.messageTitle != "" {
		panels = append(panels, m.styles.Muted().Render(m.messageTitle+": "+m.message.View()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, panels...)
}

func (m *model) viewCommand() string {
	content := m.styles.Muted().Render("press : to enter a command")
	if m.state.AppMode() == nav.Consumer && m.state.EditMode() == nav.Insert {
		content = m.command.View()
	} else if m.state.AppMode() == nav.Producer {
		content = m.styles.Muted().Render("press i to edit the message, s to send it")
	}
	return m.styles.Panel(m.state.EditMode() == nav.Insert && m.state.AppMode() == nav.Consumer).
		Width(max(m.width-2, 10)).
		Render(content)
}

func (m *model) viewFooter() string {
	mode := m.styles.Mode().Render(fmt.Sprintf(" Mode: %s | %s ", m.state.AppMode(), m.state.EditMode()))
	code := ""
	if m.footerCode != "" {
		code = " " + m.styles.Error().Render(m.footerCode) + " "
	}
	keys := m.styles.Muted().Render(m.help.ShortHelpView(m.keys.ShortHelp()))
	return lipgloss.NewStyle().MaxWidth(max(m.width, 1)).Render(mode + code + keys)
}

// truncate cuts s to width terminal cells
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
