package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"excelerate/internal/config"
	"excelerate/internal/datecodec"
	"excelerate/internal/view"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#BB86FC"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#BB86FC"))
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#777777")).Strikethrough(true)
	upcomingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F2C94C"))
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#CF6679"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Excelerate"))
	b.WriteString(mutedStyle.Render("  records + reminders"))
	b.WriteString("\n\n")

	rows := m.visible()
	switch {
	case m.loadErr != nil && len(m.records) == 0:
		b.WriteString(errorStyle.Render(loadErrorText(m.loadErr)))
	case len(rows) == 0:
		b.WriteString("No records found. Press 'a' to add one.")
	default:
		b.WriteString(m.renderTable())
	}

	b.WriteString("\n---\n")

	if m.form != nil {
		b.WriteString(m.renderFormBox())
		b.WriteString("\n")
		b.WriteString("Field: " + m.form.currentLabel())
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.saveFailed {
		b.WriteString(errorStyle.Render(m.status))
	} else {
		b.WriteString(m.status)
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(m.renderFilters()))
	b.WriteString("\n")
	b.WriteString(renderHelp(m.cfg.Keys))

	return b.String()
}

func (m Model) renderTable() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("  %-4s %-3s %-20s %-18s %s", "#", "", "Item", "Date", "Description")))
	b.WriteString("\n")

	today := m.now()
	for i, r := range m.visible() {
		cursor := " "
		if m.cursor == i && m.mode == modeList {
			cursor = ">"
		}
		checkbox := "[ ]"
		if r.Completed {
			checkbox = "[x]"
		}
		line := fmt.Sprintf("%s %-4d %s %-20s %-18s %s", cursor, r.SequenceNumber, checkbox,
			truncate(r.Item, 20), datecodec.ToDisplayString(r.Date), r.Description)
		switch {
		case r.Completed:
			line = doneStyle.Render(line)
		case view.IsUpcoming(r.Date, today):
			line = upcomingStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderFormBox() string {
	values := []string{m.form.item, m.form.description, m.form.date}
	var b strings.Builder
	for i, name := range formFields() {
		prefix := " "
		if i == m.form.index {
			prefix = ">"
		}
		val := values[i]
		if strings.TrimSpace(val) == "" {
			val = "(empty)"
		}
		b.WriteString(fmt.Sprintf("%s %-18s : %s\n", prefix, name, val))
	}
	return b.String()
}

func (m Model) renderFilters() string {
	scope := "all"
	if m.upcomingOnly {
		scope = "upcoming"
	}
	return fmt.Sprintf("sort: %s %s • showing: %s • %d/%d records",
		m.sortKey, m.sortDir, scope, len(m.visible()), len(m.records))
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s add • %s edit • space complete • %s delete • %s/%s sort • %s upcoming • %s reload • %s quit",
		k.Up, k.Down, k.Add, k.Edit, k.Delete, k.SortNext, k.SortDirection, k.UpcomingOnly, k.Reload, k.Quit)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
