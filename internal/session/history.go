package session

import (
	"fmt"
	"slices"
	"time"

	"github.com/sadopc/tomato/internal/store"
)

// HistoryDays is how far back the history view looks, in calendar days.
const HistoryDays = 5

// NoHistoryMessage replaces an empty history view.
const NoHistoryMessage = "No tasks completed yet. Start your first Pomodoro session!"

// Summarize keeps records dated on or after the calendar day `days` days
// before now, totals minutes per task and orders the result by total
// descending. Ties keep the order in which tasks first appear.
func Summarize(records []store.SessionRecord, now time.Time, days int) []HistoryLine {
	cutoff := civilDay(now).AddDate(0, 0, -days)

	var lines []HistoryLine
	index := make(map[string]int)
	for _, r := range records {
		if civilDay(r.Date).Before(cutoff) {
			continue
		}
		i, ok := index[r.Task]
		if !ok {
			i = len(lines)
			index[r.Task] = i
			lines = append(lines, HistoryLine{Task: r.Task})
		}
		lines[i].Minutes += r.Minutes
	}

	slices.SortStableFunc(lines, func(a, b HistoryLine) int {
		return b.Minutes - a.Minutes
	})
	for i := range lines {
		lines[i].Duration = FormatMinutes(lines[i].Minutes)
	}
	return lines
}

// civilDay drops the time of day, keeping the calendar date as written.
func civilDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatMinutes renders 95 as "1h 35m" and 25 as "25m".
func FormatMinutes(total int) string {
	if total < 0 {
		total = 0
	}
	h, m := total/60, total%60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// FormatClock renders seconds as zero-padded MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
