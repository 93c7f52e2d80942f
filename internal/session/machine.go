package session

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/sadopc/tomato/internal/store"
)

// Config wires a Machine to its collaborators. Nil collaborators are
// replaced by no-op implementations (and an in-memory store).
type Config struct {
	Durations Durations
	Display   Display
	Storage   Storage
	Notifier  Notifier
	Scheduler Scheduler
	Now       func() time.Time
	Logger    *slog.Logger
}

// Snapshot is a read-only copy of the timer state.
type Snapshot struct {
	Remaining      int
	Mode           Mode
	Running        bool
	Completed      int
	AwaitingChoice bool
	CurrentTask    string
}

// Machine is the pomodoro state machine. It is not safe for concurrent
// use; every method must be called from the goroutine that handles UI
// events, which is also where the Scheduler delivers ticks.
type Machine struct {
	durations Durations
	display   Display
	storage   Storage
	notifier  Notifier
	scheduler Scheduler
	now       func() time.Time
	log       *slog.Logger

	remaining      int
	mode           Mode
	running        bool
	completed      int
	awaitingChoice bool
	cancelTick     Cancel
	lastActive     time.Time

	tasks    []string
	current  string
	sessions []store.SessionRecord
}

// New builds a Machine in Idle(Focus) with a full focus period on the
// clock and loads the task list and history from storage.
func New(cfg Config) *Machine {
	m := &Machine{
		durations: cfg.Durations.withDefaults(),
		display:   cfg.Display,
		storage:   cfg.Storage,
		notifier:  cfg.Notifier,
		scheduler: cfg.Scheduler,
		now:       cfg.Now,
		log:       cfg.Logger,
		mode:      Focus,
	}
	if m.display == nil {
		m.display = nopDisplay{}
	}
	if m.storage == nil {
		m.storage = store.NewMapStore()
	}
	if m.notifier == nil {
		m.notifier = nopNotifier{}
	}
	if m.scheduler == nil {
		m.scheduler = nopScheduler{}
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.log == nil {
		m.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	m.remaining = m.durations.seconds(Focus)

	m.tasks = m.loadTasks()
	m.sessions = m.loadSessions()

	m.renderTime()
	m.display.SetLabel("")
	m.display.SetSessionCount(0)
	m.display.SetTaskOptions(m.Tasks())
	m.display.SetBreakChoiceVisible(false)
	m.renderControls()
	m.renderHistory()
	return m
}

// Storage read failures degrade to an empty collection.
func (m *Machine) loadTasks() []string {
	tasks, err := m.storage.LoadTasks()
	if err != nil {
		m.log.Warn("load tasks", "err", err)
		return nil
	}
	var out []string
	for _, t := range tasks {
		t = strings.TrimSpace(t)
		if t == "" || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (m *Machine) loadSessions() []store.SessionRecord {
	records, err := m.storage.LoadSessions()
	if err != nil {
		m.log.Warn("load sessions", "err", err)
		return nil
	}
	return records
}

// Start begins counting down. It does nothing if already running or if a
// break choice is pending.
func (m *Machine) Start() {
	if m.running || m.awaitingChoice {
		return
	}
	m.running = true
	m.lastActive = m.now()
	m.cancelTick = m.scheduler.Every(time.Second, m.Tick)
	m.renderControls()
	m.log.Debug("timer started", "mode", m.mode.String(), "remaining", m.remaining)
}

// Stop pauses the countdown, keeping the remaining time.
func (m *Machine) Stop() {
	if !m.running {
		return
	}
	m.running = false
	if m.cancelTick != nil {
		m.cancelTick()
		m.cancelTick = nil
	}
	m.renderControls()
	m.log.Debug("timer stopped", "mode", m.mode.String(), "remaining", m.remaining)
}

// Reset returns to Idle(Focus) with a full focus period.
func (m *Machine) Reset() {
	m.Stop()
	m.awaitingChoice = false
	m.enterIdleFocus()
	m.display.SetBreakChoiceVisible(false)
	m.renderControls()
}

// Tick advances the countdown by the whole seconds elapsed since the last
// observed activity, at least one. A tick arriving after the process was
// suspended therefore catches up the missed time.
func (m *Machine) Tick() {
	if !m.running {
		return
	}
	now := m.now()
	step := int(now.Sub(m.lastActive) / time.Second)
	if step < 1 {
		step = 1
		m.lastActive = now
	} else {
		m.lastActive = m.lastActive.Add(time.Duration(step) * time.Second)
	}
	if m.remaining > 0 {
		if step > 1 {
			m.log.Debug("tick caught up", "seconds", step)
		}
		m.remaining = max(0, m.remaining-step)
		m.renderTime()
	}
	if m.remaining == 0 {
		m.completeSession()
	}
}

// Background records when the host stopped observing ticks.
func (m *Machine) Background(at time.Time) {
	if !m.running {
		return
	}
	m.lastActive = at
	m.log.Debug("backgrounded", "remaining", m.remaining)
}

// Foreground subtracts the whole seconds elapsed since the last observed
// activity. If that drains the period, it completes immediately.
func (m *Machine) Foreground(at time.Time) {
	if !m.running || m.lastActive.IsZero() {
		return
	}
	gap := int(at.Sub(m.lastActive) / time.Second)
	if gap <= 0 {
		return
	}
	m.lastActive = m.lastActive.Add(time.Duration(gap) * time.Second)
	m.remaining = max(0, m.remaining-gap)
	m.log.Debug("foregrounded", "gap_seconds", gap, "remaining", m.remaining)
	m.renderTime()
	if m.remaining == 0 {
		m.completeSession()
	}
}

func (m *Machine) completeSession() {
	m.Stop()
	if err := m.notifier.PlayCompletionCue(); err != nil {
		m.log.Debug("completion cue failed", "err", err)
	}

	if m.mode != Focus {
		m.log.Info("break finished", "mode", m.mode.String())
		m.enterIdleFocus()
		m.display.SetBreakChoiceVisible(false)
		m.renderControls()
		return
	}

	m.completed++
	m.recordSession()
	m.display.SetSessionCount(m.completed)
	m.log.Info("focus finished", "completed", m.completed, "task", m.current)

	if m.completed%m.durations.LongBreakEvery == 0 {
		m.awaitingChoice = true
		m.display.SetBreakChoiceVisible(true)
		m.renderControls()
		return
	}
	m.enterBreak(ShortBreak)
}

func (m *Machine) recordSession() {
	if m.current == "" {
		return
	}
	now := m.now()
	rec := store.SessionRecord{
		Task:    m.current,
		Date:    time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
		Minutes: int(m.durations.Focus / time.Minute),
	}
	m.sessions = append(m.sessions, rec)
	if err := m.storage.SaveSessions(m.Sessions()); err != nil {
		m.log.Error("save sessions", "err", err)
	}
	m.renderHistory()
}

// ChooseLongBreak starts the long break offered after every Nth focus.
func (m *Machine) ChooseLongBreak() error {
	if !m.awaitingChoice {
		return ErrNoBreakChoice
	}
	m.awaitingChoice = false
	m.display.SetBreakChoiceVisible(false)
	m.enterBreak(LongBreak)
	return nil
}

// SkipBreak declines the long break and returns to Idle(Focus).
func (m *Machine) SkipBreak() error {
	if !m.awaitingChoice {
		return ErrNoBreakChoice
	}
	m.awaitingChoice = false
	m.display.SetBreakChoiceVisible(false)
	m.enterIdleFocus()
	m.renderControls()
	return nil
}

func (m *Machine) enterBreak(mode Mode) {
	m.mode = mode
	m.remaining = m.durations.seconds(mode)
	m.display.SetLabel(mode.Label())
	m.renderTime()
	m.Start()
}

func (m *Machine) enterIdleFocus() {
	m.mode = Focus
	m.remaining = m.durations.seconds(Focus)
	m.display.SetLabel("")
	m.renderTime()
}

// AddTask appends a trimmed, previously unseen task name and persists the
// list. It reports whether the list changed.
func (m *Machine) AddTask(name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" || slices.Contains(m.tasks, name) {
		return false, nil
	}
	m.tasks = append(m.tasks, name)
	m.display.SetTaskOptions(m.Tasks())
	if err := m.storage.SaveTasks(m.Tasks()); err != nil {
		m.log.Error("save tasks", "err", err)
		return true, fmt.Errorf("save tasks: %w", err)
	}
	return true, nil
}

// SelectTask sets the task that completed focus periods are credited to.
// An empty name clears the selection.
func (m *Machine) SelectTask(name string) error {
	if name == "" {
		m.current = ""
		return nil
	}
	if !slices.Contains(m.tasks, name) {
		return fmt.Errorf("select %q: %w", name, ErrUnknownTask)
	}
	m.current = name
	return nil
}

// SetDurations replaces the period lengths. An untouched idle focus clock
// picks up the new length at once; a started or paused period keeps its
// remaining time and the new values apply from the next transition.
func (m *Machine) SetDurations(d Durations) {
	fresh := !m.running && !m.awaitingChoice && m.mode == Focus &&
		m.remaining == m.durations.seconds(Focus)
	m.durations = d.withDefaults()
	if fresh {
		m.enterIdleFocus()
	}
}

func (m *Machine) Tasks() []string                 { return slices.Clone(m.tasks) }
func (m *Machine) CurrentTask() string             { return m.current }
func (m *Machine) Sessions() []store.SessionRecord { return slices.Clone(m.sessions) }
func (m *Machine) Durations() Durations            { return m.durations }

// History aggregates the recent session records relative to now.
func (m *Machine) History(now time.Time) []HistoryLine {
	return Summarize(m.sessions, now, HistoryDays)
}

// RefreshHistory re-renders the recent history against the current clock,
// so the window moves when the date changes.
func (m *Machine) RefreshHistory() { m.renderHistory() }

func (m *Machine) Snapshot() Snapshot {
	return Snapshot{
		Remaining:      m.remaining,
		Mode:           m.mode,
		Running:        m.running,
		Completed:      m.completed,
		AwaitingChoice: m.awaitingChoice,
		CurrentTask:    m.current,
	}
}

func (m *Machine) renderTime() {
	m.display.SetTime(FormatClock(m.remaining))
}

func (m *Machine) renderControls() {
	m.display.SetControlsEnabled(Controls{
		Start: !m.running && !m.awaitingChoice,
		Stop:  m.running,
	})
}

func (m *Machine) renderHistory() {
	m.display.SetHistory(m.History(m.now()))
}
