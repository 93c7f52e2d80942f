package store

import "time"

// DateLayout is how session dates are written to disk.
const DateLayout = "2006-01-02"

// SessionRecord is one completed focus period credited to a task.
type SessionRecord struct {
	Task    string
	Date    time.Time // calendar day, time of day is zero
	Minutes int
}

type Setting struct {
	Key   string
	Value string
}

// TimerSettings holds the pomodoro lengths stored in the settings table.
type TimerSettings struct {
	FocusSeconds      int
	ShortBreakSeconds int
	LongBreakSeconds  int
	LongBreakEvery    int
	Bell              bool
}

// DefaultTimerSettings mirrors the seeded settings rows.
func DefaultTimerSettings() TimerSettings {
	return TimerSettings{
		FocusSeconds:      1500,
		ShortBreakSeconds: 300,
		LongBreakSeconds:  900,
		LongBreakEvery:    4,
		Bell:              true,
	}
}

// DailyTotal is the minutes spent on one task on one day.
type DailyTotal struct {
	Date     string
	Task     string
	Minutes  int
	Sessions int
}
