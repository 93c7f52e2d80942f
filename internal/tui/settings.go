package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tomato/internal/session"
	"github.com/sadopc/tomato/internal/store"
)

type settingsModel struct {
	store   *store.Store
	machine *session.Machine
	bell    *Bell
	width   int
	height  int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	focus      *string
	shortBreak *string
	longBreak  *string
	every      *string
	bellOn     *bool
}

func newSettingsModel(st *store.Store, m *session.Machine, b *Bell) settingsModel {
	f, sb, lb, ev := "", "", "", ""
	on := true
	return settingsModel{
		store:      st,
		machine:    m,
		bell:       b,
		focus:      &f,
		shortBreak: &sb,
		longBreak:  &lb,
		every:      &ev,
		bellOn:     &on,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, _ := s.store.GetAllSettings()
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Enter) {
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	ts := s.store.TimerSettings()
	*s.focus = strconv.Itoa(ts.FocusSeconds / 60)
	*s.shortBreak = strconv.Itoa(ts.ShortBreakSeconds / 60)
	*s.longBreak = strconv.Itoa(ts.LongBreakSeconds / 60)
	*s.every = strconv.Itoa(ts.LongBreakEvery)
	*s.bellOn = ts.Bell

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Focus (min)").Value(s.focus).Validate(positiveInt),
			huh.NewInput().Title("Short break (min)").Value(s.shortBreak).Validate(positiveInt),
			huh.NewInput().Title("Long break (min)").Value(s.longBreak).Validate(positiveInt),
			huh.NewInput().Title("Focus periods before long break").Value(s.every).Validate(positiveInt),
		).Title("Timer"),
		huh.NewGroup(
			huh.NewConfirm().Title("Ring the bell when a period ends?").Value(s.bellOn),
		).Title("Notifications"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
		if err := s.saveSettings(); err != nil {
			return s, func() tea.Msg { return errorStatus("Settings error: %v", err) }
		}
		s.apply()
		return s, tea.Batch(s.refresh(), status("Settings saved"))
	}

	return s, cmd
}

func (s settingsModel) saveSettings() error {
	bell := "on"
	if !*s.bellOn {
		bell = "off"
	}
	values := []store.Setting{
		{Key: "pomodoro_focus", Value: minToSecs(*s.focus)},
		{Key: "pomodoro_short_break", Value: minToSecs(*s.shortBreak)},
		{Key: "pomodoro_long_break", Value: minToSecs(*s.longBreak)},
		{Key: "pomodoro_long_break_every", Value: *s.every},
		{Key: "bell", Value: bell},
	}
	for _, v := range values {
		if err := s.store.SetSetting(v.Key, v.Value); err != nil {
			return err
		}
	}
	return nil
}

// apply pushes stored settings into the running machine and bell. An idle
// focus clock picks up the new length at once; otherwise it applies from
// the next period.
func (s settingsModel) apply() {
	ts := s.store.TimerSettings()
	s.machine.SetDurations(session.FromSettings(ts))
	if s.bell != nil {
		s.bell.SetEnabled(ts.Bell)
	}
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	rows := []string{title, ""}
	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(28).Render(setting.Key)
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}
	if s.bell != nil && !s.bell.allowed {
		rows = append(rows, "", warningStyle.Render("  bell is disabled in config.yaml"))
	}
	rows = append(rows, "", mutedStyle.Render("Press enter to edit settings"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string) string {
	switch k {
	case "pomodoro_focus", "pomodoro_short_break", "pomodoro_long_break":
		if secs, err := strconv.Atoi(v); err == nil {
			return fmt.Sprintf("%d min", secs/60)
		}
	}
	return v
}

func positiveInt(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fmt.Errorf("enter a whole number above zero")
	}
	return nil
}

func minToSecs(s string) string {
	if mins, err := strconv.Atoi(s); err == nil {
		return strconv.Itoa(mins * 60)
	}
	return s
}
