// Package tui holds the terminal presentation used by the studyguide CLI: a
// spinner shown while the model works and a Markdown renderer for guides.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

// doneMsg carries the outcome of the wrapped work.
type doneMsg struct {
	value any
	err   error
}

type spinnerModel struct {
	spinner spinner.Model
	label   string
	work    func() (any, error)

	done  bool
	value any
	err   error
}

func newSpinnerModel(label string, work func() (any, error)) spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	return spinnerModel{spinner: s, label: label, work: work}
}

func (m spinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		v, err := m.work()
		return doneMsg{value: v, err: err}
	})
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.done = true
		m.value = msg.value
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.done = true
			m.err = context.Canceled
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s %s\n", m.spinner.View(), labelStyle.Render(m.label))
}

// Spin runs work while drawing a spinner on out. The spinner is cleared once
// work returns. Cancelling ctx abandons the spinner and returns ctx.Err().
func Spin[T any](ctx context.Context, out io.Writer, label string, work func() (T, error)) (T, error) {
	var zero T
	m := newSpinnerModel(label, func() (any, error) { return work() })

	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithOutput(out),
		tea.WithInput(nil),
	)
	final, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return zero, ctx.Err()
		}
		return zero, fmt.Errorf("spinner: %w", err)
	}

	fm := final.(spinnerModel)
	if fm.err != nil {
		return zero, fm.err
	}
	v, _ := fm.value.(T)
	return v, nil
}
