// Package session implements the pomodoro state machine: the focus and
// break countdown, the completed-focus counter, task selection and the
// recent history view.
package session

import (
	"errors"
	"time"

	"github.com/sadopc/tomato/internal/store"
)

// Mode is the kind of period the countdown is measuring.
type Mode int

const (
	Focus Mode = iota
	ShortBreak
	LongBreak
)

var modeLabels = map[Mode]string{
	Focus:      "",
	ShortBreak: "Break Time",
	LongBreak:  "Long Break",
}

func (m Mode) String() string {
	switch m {
	case ShortBreak:
		return "short_break"
	case LongBreak:
		return "long_break"
	default:
		return "focus"
	}
}

// Label is the text shown next to the clock. Focus has none.
func (m Mode) Label() string { return modeLabels[m] }

var (
	ErrNoBreakChoice = errors.New("no break choice pending")
	ErrUnknownTask   = errors.New("unknown task")
)

// Durations configures period lengths and how often the long break is offered.
type Durations struct {
	Focus          time.Duration
	ShortBreak     time.Duration
	LongBreak      time.Duration
	LongBreakEvery int
}

// DefaultDurations returns 25/5/15 minutes with a long break every 4th focus.
func DefaultDurations() Durations {
	return Durations{
		Focus:          25 * time.Minute,
		ShortBreak:     5 * time.Minute,
		LongBreak:      15 * time.Minute,
		LongBreakEvery: 4,
	}
}

// FromSettings converts the store's settings into durations.
func FromSettings(s store.TimerSettings) Durations {
	return Durations{
		Focus:          time.Duration(s.FocusSeconds) * time.Second,
		ShortBreak:     time.Duration(s.ShortBreakSeconds) * time.Second,
		LongBreak:      time.Duration(s.LongBreakSeconds) * time.Second,
		LongBreakEvery: s.LongBreakEvery,
	}
}

func (d Durations) withDefaults() Durations {
	def := DefaultDurations()
	if d.Focus < time.Second {
		d.Focus = def.Focus
	}
	if d.ShortBreak < time.Second {
		d.ShortBreak = def.ShortBreak
	}
	if d.LongBreak < time.Second {
		d.LongBreak = def.LongBreak
	}
	if d.LongBreakEvery <= 0 {
		d.LongBreakEvery = def.LongBreakEvery
	}
	return d
}

func (d Durations) seconds(m Mode) int {
	switch m {
	case ShortBreak:
		return int(d.ShortBreak / time.Second)
	case LongBreak:
		return int(d.LongBreak / time.Second)
	default:
		return int(d.Focus / time.Second)
	}
}

// Controls says which of the start/stop controls should be usable.
type Controls struct {
	Start bool
	Stop  bool
}

// HistoryLine is one row of the recent history view.
type HistoryLine struct {
	Task     string
	Minutes  int
	Duration string
}

// Display receives everything the user should see.
type Display interface {
	SetTime(text string)
	SetLabel(text string)
	SetSessionCount(n int)
	SetTaskOptions(tasks []string)
	SetHistory(lines []HistoryLine)
	SetBreakChoiceVisible(visible bool)
	SetControlsEnabled(c Controls)
}

// Storage persists the task list and the session history.
type Storage interface {
	LoadTasks() ([]string, error)
	SaveTasks(tasks []string) error
	LoadSessions() ([]store.SessionRecord, error)
	SaveSessions(records []store.SessionRecord) error
}

// Notifier plays the completion cue. Errors are logged and otherwise ignored.
type Notifier interface {
	PlayCompletionCue() error
}

// Cancel stops a scheduled repeating action.
type Cancel func()

// Scheduler runs fn once per period until the returned Cancel is called.
// fn must be invoked on the same goroutine that drives the Machine.
type Scheduler interface {
	Every(period time.Duration, fn func()) Cancel
}

type nopDisplay struct{}

func (nopDisplay) SetTime(string)              {}
func (nopDisplay) SetLabel(string)             {}
func (nopDisplay) SetSessionCount(int)         {}
func (nopDisplay) SetTaskOptions([]string)     {}
func (nopDisplay) SetHistory([]HistoryLine)    {}
func (nopDisplay) SetBreakChoiceVisible(bool)  {}
func (nopDisplay) SetControlsEnabled(Controls) {}

type nopNotifier struct{}

func (nopNotifier) PlayCompletionCue() error { return nil }

type nopScheduler struct{}

func (nopScheduler) Every(time.Duration, func()) Cancel { return func() {} }
