package tui

import (
	"fmt"
	"strings"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTimer viewState = iota
	viewTasks
	viewHistory
	viewSettings
)

var viewNames = []string{"Timer", "Tasks", "History", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
	bell    bool // ring the terminal bell with this status
}

type exportDoneMsg struct {
	path  string
	count int
}

func errorStatus(format string, err error) statusMsg {
	return statusMsg{text: fmt.Sprintf(format, err), isError: true}
}

// --- Helpers ---

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

func dots(done, total int, on, off string) string {
	parts := make([]string, 0, total)
	for i := range total {
		if i < done {
			parts = append(parts, on)
		} else {
			parts = append(parts, off)
		}
	}
	return strings.Join(parts, " ")
}
