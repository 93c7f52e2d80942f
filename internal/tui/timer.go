package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tomato/internal/session"
)

type timerModel struct {
	machine *session.Machine
	screen  *Screen
	width   int
	height  int
}

func newTimerModel(m *session.Machine, s *Screen) timerModel {
	return timerModel{machine: m, screen: s}
}

func (t *timerModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

func (t timerModel) update(msg tea.Msg) (timerModel, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return t, nil
	}

	switch {
	case key.Matches(kmsg, keys.Start):
		if t.screen.controls.Start {
			t.machine.Start()
		}
	case key.Matches(kmsg, keys.Stop):
		if t.screen.controls.Stop {
			t.machine.Stop()
		}
	case key.Matches(kmsg, keys.Reset):
		t.machine.Reset()
		return t, status("Timer reset")
	case key.Matches(kmsg, keys.LongBreak):
		if err := t.machine.ChooseLongBreak(); err != nil {
			return t, breakChoiceError(err)
		}
		return t, status("Long break started")
	case key.Matches(kmsg, keys.SkipBreak):
		if err := t.machine.SkipBreak(); err != nil {
			return t, breakChoiceError(err)
		}
		return t, status("Break skipped")
	}
	return t, nil
}

func breakChoiceError(err error) tea.Cmd {
	if errors.Is(err, session.ErrNoBreakChoice) {
		return status("No break to choose right now")
	}
	return func() tea.Msg { return errorStatus("Error: %v", err) }
}

func status(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text} }
}

func bellStatus(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, bell: true} }
}

func (t timerModel) view() string {
	w := t.width - 4
	snap := t.machine.Snapshot()

	clockStyle := clockIdleStyle
	switch {
	case snap.Running && snap.Mode == session.Focus:
		clockStyle = clockFocusStyle
	case snap.Mode != session.Focus:
		clockStyle = clockBreakStyle
	}
	clock := clockStyle.Width(max(w-6, 5)).Render(bigClock(t.screen.time))

	label := mutedStyle.Render("Focus")
	if t.screen.label != "" {
		label = highlightStyle.Bold(true).Render(t.screen.label)
	}

	task := mutedStyle.Render("No task selected (press 2 to pick one)")
	if current := t.machine.CurrentTask(); current != "" {
		task = "Working on " + titleStyle.Render(current)
	}

	every := t.machine.Durations().LongBreakEvery
	progress := dots(cycleDone(t.screen.count, every, snap.AwaitingChoice), every,
		successStyle.Render("●"), mutedStyle.Render("○")) +
		mutedStyle.Render(fmt.Sprintf("  %d completed", t.screen.count))

	rows := []string{titleStyle.Render("Pomodoro"), "", clock, label, "", progress, task}
	if t.screen.breakChoice {
		rows = append(rows, "", t.renderBreakChoice())
	}
	rows = append(rows, "", t.renderControls())

	timer := panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Center, rows...))
	return lipgloss.JoinVertical(lipgloss.Left, timer, t.renderHistory(w))
}

func (t timerModel) renderBreakChoice() string {
	prompt := warningStyle.Bold(true).Render("Time for a longer break?")
	opts := mutedStyle.Render(fmt.Sprintf("l: %s long break  k: skip",
		session.FormatMinutes(int(t.machine.Durations().LongBreak.Minutes()))))
	return lipgloss.JoinVertical(lipgloss.Center, prompt, opts)
}

func (t timerModel) renderControls() string {
	var hints []string
	if t.screen.controls.Start {
		hints = append(hints, "s: start")
	}
	if t.screen.controls.Stop {
		hints = append(hints, "x: stop")
	}
	hints = append(hints, "r: reset")
	return mutedStyle.Render(strings.Join(hints, "  "))
}

func (t timerModel) renderHistory(w int) string {
	title := titleStyle.Render(fmt.Sprintf("Last %d days", session.HistoryDays))
	if len(t.screen.history) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", mutedStyle.Render(session.NoHistoryMessage)))
	}

	rows := []string{title, ""}
	for _, line := range t.screen.history {
		rows = append(rows, fmt.Sprintf("  %-32s %s", truncate(line.Task, 32), highlightStyle.Render(line.Duration)))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

// cycleDone is how many dots of the current long-break cycle are filled.
// A finished cycle stays full while the break choice is pending.
func cycleDone(count, every int, awaiting bool) int {
	if awaiting && count > 0 {
		return (count-1)%every + 1
	}
	return count % every
}

// bigClock spaces the digits out so the countdown reads at a glance.
func bigClock(s string) string {
	return strings.Join(strings.Split(s, ""), " ")
}
