package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	racingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	winnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98")).
			Bold(true)

	waiterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type callerState int

const (
	stateRacing callerState = iota
	stateWon
	stateWaited
	stateFailed
)

type callerRow struct {
	state   callerState
	value   int
	err     error
	elapsed time.Duration
}

type raceModel struct {
	spinner  spinner.Model
	rows     []callerRow
	events   chan callerResult
	execs    int64
	finished int
	delay    time.Duration
	failures int
	done     bool
	quitting bool
}

type resultMsg callerResult

type raceDoneMsg struct {
	execs int64
}

func newRaceModel(callers int, delay time.Duration, failures int) *raceModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = racingStyle

	return &raceModel{
		spinner:  sp,
		rows:     make([]callerRow, callers),
		events:   make(chan callerResult, callers),
		delay:    delay,
		failures: failures,
	}
}

func (m *raceModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startRace, m.nextResult)
}

// startRace runs the race in the background; per-caller results arrive
// through the events channel as they happen.
func (m *raceModel) startRace() tea.Msg {
	_, execs := race(len(m.rows), m.delay, m.failures, func(r callerResult) {
		m.events <- r
	})
	return raceDoneMsg{execs: execs}
}

func (m *raceModel) nextResult() tea.Msg {
	return resultMsg(<-m.events)
}

func (m *raceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case resultMsg:
		row := &m.rows[msg.id]
		row.value = msg.value
		row.err = msg.err
		row.elapsed = msg.elapsed
		switch {
		case msg.err != nil:
			row.state = stateFailed
		case msg.won:
			row.state = stateWon
		default:
			row.state = stateWaited
		}
		m.finished++
		if m.finished < len(m.rows) {
			return m, m.nextResult
		}
		return m, nil

	case raceDoneMsg:
		m.done = true
		m.execs = msg.execs
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *raceModel) View() string {
	if m.quitting {
		return ""
	}

	s := titleStyle.Render("lazy cell race") + "\n\n"

	for i, row := range m.rows {
		label := fmt.Sprintf("caller %2d  ", i)
		switch row.state {
		case stateRacing:
			s += label + m.spinner.View() + racingStyle.Render(" racing") + "\n"
		case stateWon:
			s += label + winnerStyle.Render(fmt.Sprintf("winner  value %d  (%v)", row.value, row.elapsed.Round(time.Microsecond))) + "\n"
		case stateWaited:
			s += label + waiterStyle.Render(fmt.Sprintf("waiter  value %d  (%v)", row.value, row.elapsed.Round(time.Microsecond))) + "\n"
		case stateFailed:
			s += label + errorStyle.Render(fmt.Sprintf("error   %v  (%v)", row.err, row.elapsed.Round(time.Microsecond))) + "\n"
		}
	}

	s += "\n"
	if m.done {
		s += fmt.Sprintf("initializer executions: %d\n", m.execs)
		s += helpStyle.Render("q to quit")
	} else {
		s += m.spinner.View() + helpStyle.Render(" racing... q to quit")
	}
	return s + "\n"
}

func runInteractive(callers int, delay time.Duration, failures int) error {
	p := tea.NewProgram(newRaceModel(callers, delay, failures))
	_, err := p.Run()
	return err
}
