package tui

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tomato/internal/export"
	"github.com/sadopc/tomato/internal/session"
	"github.com/sadopc/tomato/internal/store"
)

// Options wires the App to the machine and the adapters built around it.
type Options struct {
	Store   *store.Store
	Machine *session.Machine
	Screen  *Screen
	Bell    *Bell
	Logger  *slog.Logger
	// ExportDir is where the export picker writes files; empty means $HOME.
	ExportDir string
}

// App is the root Bubble Tea model.
type App struct {
	store     *store.Store
	machine   *session.Machine
	screen    *Screen
	bell      *Bell
	log       *slog.Logger
	now       func() time.Time
	exportDir string
	width     int
	height    int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	timer    timerModel
	tasks    tasksModel
	history  historyModel
	settings settingsModel

	help    help.Model
	status  string
	isErr   bool
	ringing bool // emit the bell with the next frame
}

func NewApp(o Options) App {
	h := help.New()
	h.ShowAll = false

	logger := o.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return App{
		store:      o.Store,
		machine:    o.Machine,
		screen:     o.Screen,
		bell:       o.Bell,
		log:        logger,
		now:        time.Now,
		exportDir:  o.ExportDir,
		activeView: viewTimer,
		timer:      newTimerModel(o.Machine, o.Screen),
		tasks:      newTasksModel(o.Machine, o.Screen),
		history:    newHistoryModel(o.Store, o.Screen),
		settings:   newSettingsModel(o.Store, o.Machine, o.Bell),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(a.history.refresh(), a.settings.refresh())
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.timer.setSize(a.width, contentHeight)
		a.tasks.setSize(a.width, contentHeight)
		a.history.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		a.history.buildChart()
		return a, nil

	case scheduledMsg:
		a.ringing = false
		return a.runScheduled(msg)

	case tea.BlurMsg:
		a.log.Debug("terminal lost focus")
		a.machine.Background(a.now())
		return a, nil

	case tea.FocusMsg, tea.ResumeMsg:
		before := a.machine.Snapshot()
		a.machine.Foreground(a.now())
		a.log.Debug("resynced after focus or resume", "remaining", a.machine.Snapshot().Remaining)
		return a, a.afterTransition(before)

	case tea.KeyMsg:
		a.ringing = false

		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewTimer
			return a, a.history.refresh()
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewTasks
			return a, nil
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewHistory
			return a, a.history.refresh()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewSettings
			return a, a.settings.refresh()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, a.refreshCurrentView()
		}

		// Timer controls work from every tab.
		if a.activeView != viewTimer && isTimerKey(msg) {
			var cmd tea.Cmd
			a.timer, cmd = a.timer.update(msg)
			return a, cmd
		}

	case statusMsg:
		a.status = msg.text
		a.isErr = msg.isError
		a.ringing = msg.bell
		return a, nil

	case exportDoneMsg:
		a.status = fmt.Sprintf("Exported %d sessions to %s", msg.count, msg.path)
		a.isErr = false
		a.exportPicking = false
		return a, nil

	case historyDataMsg:
		a.machine.RefreshHistory()
		var cmd tea.Cmd
		a.history, cmd = a.history.update(msg)
		return a, cmd

	case settingsDataMsg:
		var cmd tea.Cmd
		a.settings, cmd = a.settings.update(msg)
		return a, cmd
	}

	return a.updateActiveView(msg)
}

func isTimerKey(msg tea.KeyMsg) bool {
	return key.Matches(msg, keys.Start) || key.Matches(msg, keys.Stop) ||
		key.Matches(msg, keys.LongBreak) || key.Matches(msg, keys.SkipBreak)
}

// runScheduled executes a tick delivered by the Scheduler and reports any
// period change it caused.
func (a App) runScheduled(msg scheduledMsg) (tea.Model, tea.Cmd) {
	before := a.machine.Snapshot()
	if !msg.run() {
		return a, nil
	}
	return a, a.afterTransition(before)
}

func (a App) afterTransition(before session.Snapshot) tea.Cmd {
	ring := a.bell.take()
	report := status
	if ring {
		report = bellStatus
	}

	after := a.machine.Snapshot()
	switch {
	case after.Completed > before.Completed:
		a.log.Info("focus period complete", "completed", after.Completed, "task", after.CurrentTask)
		text := "Focus complete. Break time!"
		if after.AwaitingChoice {
			text = "Focus complete. Take a long break? (l / k)"
		}
		return tea.Batch(report(text), a.history.refresh())
	case before.Mode != session.Focus && after.Mode == session.Focus:
		a.log.Info("break over")
		return report("Break over. Ready to focus")
	}
	return nil
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTimer:
		a.timer, cmd = a.timer.update(msg)
	case viewTasks:
		a.tasks, cmd = a.tasks.update(msg)
	case viewHistory:
		a.history, cmd = a.history.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTasks:
		return a.tasks.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewTimer, viewHistory:
		return a.history.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewTimer:
		content = a.timer.view()
	case viewTasks:
		content = a.tasks.view()
	case viewHistory:
		content = a.history.view()
	case viewSettings:
		content = a.settings.view()
	}

	contentHeight := max(a.height-lipgloss.Height(header)-lipgloss.Height(footer), 1)

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("tomato")
	gap := max(a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.isErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	// Countdown indicator for the other tabs.
	timerInfo := ""
	if snap := a.machine.Snapshot(); snap.Running && a.activeView != viewTimer {
		timerInfo = successStyle.Render(" ● " + a.screen.time)
		if snap.Mode != session.Focus {
			timerInfo = highlightStyle.Render(" ☕ " + a.screen.time)
		}
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status
	if a.ringing {
		right += "\a"
	}

	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

var exportFormats = []string{"CSV", "JSON"}

func (a App) renderExportPicker() string {
	rows := []string{titleStyle.Render("Export Sessions"), ""}
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: export  esc: cancel"))

	return activePanelStyle.Width(a.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	// Snapshot on the event loop; the command runs on its own goroutine.
	records := a.machine.Sessions()
	dir := a.exportDir
	date := a.now().Format(store.DateLayout)

	return func() tea.Msg {
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return errorStatus("Export error: %v", err)
			}
			dir = home
		}

		var path string
		if format == 0 {
			path = filepath.Join(dir, fmt.Sprintf("tomato-export-%s.csv", date))
			if err := export.ToCSV(records, path); err != nil {
				return errorStatus("CSV error: %v", err)
			}
		} else {
			path = filepath.Join(dir, fmt.Sprintf("tomato-export-%s.json", date))
			if err := export.ToJSON(records, path); err != nil {
				return errorStatus("JSON error: %v", err)
			}
		}
		return exportDoneMsg{path: path, count: len(records)}
	}
}
