package tui

import (
	"github.com/charmbracelet/lipgloss"

	"taskboard/domain"
)

// Theme is the board color scheme.
type Theme struct {
	Foreground    lipgloss.Color
	ForegroundDim lipgloss.Color
	Primary       lipgloss.Color
	Success       lipgloss.Color
	Warning       lipgloss.Color
	Error         lipgloss.Color
	Border        lipgloss.Color
	BorderFocus   lipgloss.Color
	Selection     lipgloss.Color
}

var TokyoNight = Theme{
	Foreground:    lipgloss.Color("#c0caf5"),
	ForegroundDim: lipgloss.Color("#565f89"),
	Primary:       lipgloss.Color("#7aa2f7"),
	Success:       lipgloss.Color("#9ece6a"),
	Warning:       lipgloss.Color("#e0af68"),
	Error:         lipgloss.Color("#f7768e"),
	Border:        lipgloss.Color("#3b4261"),
	BorderFocus:   lipgloss.Color("#7aa2f7"),
	Selection:     lipgloss.Color("#33467c"),
}

// Styles holds the pre-computed styles for the board.
type Styles struct {
	Title        lipgloss.Style
	Column       lipgloss.Style
	ColumnFocus  lipgloss.Style
	ColumnHeader map[domain.Status]lipgloss.Style
	Card         lipgloss.Style
	CardSelected lipgloss.Style
	CardDesc     lipgloss.Style
	Empty        lipgloss.Style
	Form         lipgloss.Style
	Label        lipgloss.Style
	Confirm      lipgloss.Style
	Status       lipgloss.Style
	Error        lipgloss.Style
	Help         lipgloss.Style
}

func NewStyles(t Theme) Styles {
	column := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 1)

	header := lipgloss.NewStyle().Bold(true).MarginBottom(1)

	return Styles{
		Title: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true).
			Padding(0, 1),

		Column:      column,
		ColumnFocus: column.BorderForeground(t.BorderFocus),

		ColumnHeader: map[domain.Status]lipgloss.Style{
			domain.StatusTodo:       header.Foreground(t.Foreground),
			domain.StatusInProgress: header.Foreground(t.Warning),
			domain.StatusDone:       header.Foreground(t.Success),
		},

		Card: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Padding(0, 1),

		CardSelected: lipgloss.NewStyle().
			Foreground(t.Primary).
			Background(t.Selection).
			Padding(0, 1).
			Bold(true),

		CardDesc: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(0, 1),

		Empty: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Italic(true).
			Padding(0, 1),

		Form: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus).
			Padding(0, 1),

		Label: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),

		Confirm: lipgloss.NewStyle().
			Foreground(t.Error).
			Bold(true).
			Padding(0, 1),

		Status: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(0, 1),

		Error: lipgloss.NewStyle().
			Foreground(t.Error).
			Padding(0, 1),

		Help: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(0, 1),
	}
}
