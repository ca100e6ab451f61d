// Package tui renders the task board in the terminal and turns key presses
// into board intents.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskboard/board"
	"taskboard/client"
	"taskboard/domain"
)

type mode int

const (
	modeBoard mode = iota
	modeCreate
	modeEditTitle
	modeEditDesc
	modeConfirmDelete
)

type loadedMsg struct{ err error }

type createdMsg struct{ err error }

type deletedMsg struct{ err error }

type movedMsg struct {
	to  domain.Status
	err error
}

type editedMsg struct {
	changed bool
	err     error
}

// Model is the bubbletea model of the board screen.
type Model struct {
	board   *board.Controller
	styles  Styles
	keys    KeyMap
	help    help.Model
	spinner spinner.Model

	width  int
	height int

	col    int
	cursor [3]int

	mode      mode
	title     textinput.Model
	desc      textinput.Model
	focusDesc bool
	target    domain.Task

	loading bool
	status  string
	err     error
}

func New(b *board.Controller) *Model {
	title := textinput.New()
	title.Placeholder = "Task title"
	title.CharLimit = 200

	desc := textinput.New()
	desc.Placeholder = "Description (optional)"
	desc.CharLimit = 1000

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		board:   b,
		styles:  NewStyles(TokyoNight),
		keys:    DefaultKeyMap(),
		help:    help.New(),
		spinner: sp,
		title:   title,
		desc:    desc,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

func (m *Model) load() tea.Cmd {
	m.loading = true
	b := m.board
	return func() tea.Msg {
		return loadedMsg{err: b.Load(context.Background())}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loadedMsg:
		m.loading = false
		m.settle(msg.err, "")
		m.clampCursors()
		return m, nil

	case createdMsg:
		m.settle(msg.err, "Task created")
		return m, nil

	case deletedMsg:
		m.settle(msg.err, "Task deleted")
		m.clampCursors()
		return m, nil

	case movedMsg:
		m.settle(msg.err, "Moved to "+columnTitle(msg.to))
		m.clampCursors()
		return m, nil

	case editedMsg:
		if msg.err == nil && !msg.changed {
			m.settle(nil, "No changes")
			return m, nil
		}
		m.settle(msg.err, "Task updated")
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeCreate:
			return m.updateCreate(msg)
		case modeEditTitle, modeEditDesc:
			return m.updateEdit(msg)
		case modeConfirmDelete:
			return m.updateConfirmDelete(msg)
		}
		return m.updateBoard(msg)
	}
	return m, nil
}

func (m *Model) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.MoveLeft):
		return m, m.move(-1)

	case key.Matches(msg, m.keys.MoveRight):
		return m, m.move(1)

	case key.Matches(msg, m.keys.Left):
		if m.col > 0 {
			m.col--
		}

	case key.Matches(msg, m.keys.Right):
		if m.col < len(domain.Statuses)-1 {
			m.col++
		}

	case key.Matches(msg, m.keys.Up):
		if m.cursor[m.col] > 0 {
			m.cursor[m.col]--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor[m.col] < len(m.column())-1 {
			m.cursor[m.col]++
		}

	case key.Matches(msg, m.keys.New):
		m.mode = modeCreate
		m.focusDesc = false
		m.title.SetValue("")
		m.desc.SetValue("")
		m.desc.Blur()
		m.title.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Edit):
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.mode = modeEditTitle
		m.target = t
		m.title.SetValue(t.Title)
		m.title.CursorEnd()
		m.title.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.EditDesc):
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.mode = modeEditDesc
		m.target = t
		m.desc.SetValue("")
		if t.Description != nil {
			m.desc.SetValue(*t.Description)
		}
		m.desc.CursorEnd()
		m.desc.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Delete):
		if t, ok := m.selected(); ok {
			m.mode = modeConfirmDelete
			m.target = t
		}

	case key.Matches(msg, m.keys.Reload):
		return m, m.load()
	}
	return m, nil
}

// move shifts the selected card delta columns. The card changes column at
// once; the returned command waits for the server and settles the move.
func (m *Model) move(delta int) tea.Cmd {
	t, ok := m.selected()
	if !ok {
		return nil
	}
	next := m.col + delta
	if next < 0 || next >= len(domain.Statuses) {
		return nil
	}
	to := domain.Statuses[next]
	mv, err := m.board.BeginMove(t.ID, to)
	if err != nil {
		m.settle(err, "")
		return nil
	}
	if mv.Noop() {
		return nil
	}

	m.col = next
	for i, ct := range m.column() {
		if ct.ID == t.ID {
			m.cursor[m.col] = i
		}
	}
	m.clampCursors()
	return func() tea.Msg {
		return movedMsg{to: to, err: mv.Await(context.Background())}
	}
}

func (m *Model) updateCreate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.closeForm()
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		m.focusDesc = !m.focusDesc
		if m.focusDesc {
			m.title.Blur()
			m.desc.Focus()
		} else {
			m.desc.Blur()
			m.title.Focus()
		}
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Enter):
		title, desc := m.title.Value(), m.desc.Value()
		if strings.TrimSpace(title) == "" {
			m.settle(board.ErrEmptyTitle, "")
			return m, nil
		}
		status := domain.Statuses[m.col]
		m.closeForm()
		b := m.board
		return m, func() tea.Msg {
			_, err := b.Create(context.Background(), title, desc, status)
			return createdMsg{err: err}
		}
	}

	var cmd tea.Cmd
	if m.focusDesc {
		m.desc, cmd = m.desc.Update(msg)
	} else {
		m.title, cmd = m.title.Update(msg)
	}
	return m, cmd
}

func (m *Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.closeForm()
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		id, b := m.target.ID, m.board
		if m.mode == modeEditTitle {
			title := m.title.Value()
			if strings.TrimSpace(title) == "" {
				m.settle(board.ErrEmptyTitle, "")
				return m, nil
			}
			m.closeForm()
			return m, func() tea.Msg {
				changed, err := b.EditTitle(context.Background(), id, title)
				return editedMsg{changed: changed, err: err}
			}
		}
		desc := m.desc.Value()
		m.closeForm()
		return m, func() tea.Msg {
			changed, err := b.EditDescription(context.Background(), id, &desc)
			return editedMsg{changed: changed, err: err}
		}
	}

	var cmd tea.Cmd
	if m.mode == modeEditTitle {
		m.title, cmd = m.title.Update(msg)
	} else {
		m.desc, cmd = m.desc.Update(msg)
	}
	return m, cmd
}

func (m *Model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		id, b := m.target.ID, m.board
		m.mode = modeBoard
		return m, func() tea.Msg {
			return deletedMsg{err: b.Delete(context.Background(), id)}
		}
	case "n", "N", "esc":
		m.mode = modeBoard
	}
	return m, nil
}

func (m *Model) closeForm() {
	m.mode = modeBoard
	m.title.Blur()
	m.desc.Blur()
}

func (m *Model) settle(err error, status string) {
	m.err = err
	if err != nil {
		m.status = ""
		return
	}
	m.status = status
}

func (m *Model) column() []domain.Task {
	return m.board.Column(domain.Statuses[m.col])
}

func (m *Model) selected() (domain.Task, bool) {
	tasks := m.column()
	i := m.cursor[m.col]
	if i < 0 || i >= len(tasks) {
		return domain.Task{}, false
	}
	return tasks[i], true
}

func (m *Model) clampCursors() {
	for i, s := range domain.Statuses {
		n := len(m.board.Column(s))
		m.cursor[i] = max(0, min(m.cursor[i], n-1))
	}
}

func columnTitle(s domain.Status) string {
	switch s {
	case domain.StatusTodo:
		return "To Do"
	case domain.StatusInProgress:
		return "In Progress"
	case domain.StatusDone:
		return "Done"
	}
	return string(s)
}

// errorText prefers the server's message over the transport detail.
func errorText(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return fmt.Sprint(err)
}
