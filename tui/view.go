package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"taskboard/domain"
)

const defaultWidth = 96

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Task Board"))
	b.WriteString("\n\n")

	if m.loading && len(m.board.Tasks()) == 0 {
		b.WriteString(m.styles.Status.Render(m.spinner.View() + " Loading tasks..."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.renderColumns())
	b.WriteString("\n")

	switch m.mode {
	case modeCreate:
		b.WriteString(m.renderForm("New task in "+columnTitle(domain.Statuses[m.col]), true))
		b.WriteString("\n")
	case modeEditTitle:
		b.WriteString(m.renderForm("Edit title", false))
		b.WriteString("\n")
	case modeEditDesc:
		b.WriteString(m.renderForm("Edit description (empty clears)", false))
		b.WriteString("\n")
	case modeConfirmDelete:
		b.WriteString(m.styles.Confirm.Render(fmt.Sprintf("Delete %q? (y/n)", m.target.Title)))
		b.WriteString("\n")
	}

	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render(m.help.ShortHelpView(m.keys.ShortHelp())))
	return b.String()
}

func (m *Model) renderColumns() string {
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}
	colWidth := max(width/len(domain.Statuses)-2, 18)

	cols := make([]string, 0, len(domain.Statuses))
	for i, status := range domain.Statuses {
		tasks := m.board.Column(status)

		var body strings.Builder
		body.WriteString(m.styles.ColumnHeader[status].Render(fmt.Sprintf("%s (%d)", columnTitle(status), len(tasks))))
		body.WriteString("\n")
		if len(tasks) == 0 {
			body.WriteString(m.styles.Empty.Render("No tasks"))
		}
		for j, t := range tasks {
			card := m.styles.Card
			if i == m.col && j == m.cursor[i] && m.mode == modeBoard {
				card = m.styles.CardSelected
			}
			body.WriteString(card.Width(colWidth - 2).Render(t.Title))
			body.WriteString("\n")
			if t.Description != nil {
				body.WriteString(m.styles.CardDesc.Width(colWidth - 2).Render(*t.Description))
				body.WriteString("\n")
			}
		}

		style := m.styles.Column
		if i == m.col {
			style = m.styles.ColumnFocus
		}
		cols = append(cols, style.Width(colWidth).Render(strings.TrimRight(body.String(), "\n")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m *Model) renderForm(heading string, both bool) string {
	var b strings.Builder
	b.WriteString(m.styles.Label.Render(heading))
	b.WriteString("\n")
	switch {
	case both:
		b.WriteString(m.title.View())
		b.WriteString("\n")
		b.WriteString(m.desc.View())
		b.WriteString("\n")
		b.WriteString(m.styles.Label.Render("tab switch field • enter save • esc cancel"))
	case m.mode == modeEditTitle:
		b.WriteString(m.title.View())
		b.WriteString("\n")
		b.WriteString(m.styles.Label.Render("enter save • esc cancel"))
	default:
		b.WriteString(m.desc.View())
		b.WriteString("\n")
		b.WriteString(m.styles.Label.Render("enter save • esc cancel"))
	}
	return m.styles.Form.Render(b.String())
}

func (m *Model) statusLine() string {
	switch {
	case m.err != nil:
		return m.styles.Error.Render(errorText(m.err))
	case m.board.Creating():
		return m.styles.Status.Render(m.spinner.View() + " Creating task...")
	case m.loading:
		return m.styles.Status.Render(m.spinner.View() + " Loading tasks...")
	}
	return m.styles.Status.Render(m.status)
}
