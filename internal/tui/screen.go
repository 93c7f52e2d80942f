package tui

import (
	"slices"

	"github.com/sadopc/tomato/internal/session"
)

// Screen holds what the machine last asked to show. The views read it
// during View; it is shared by pointer so value copies of the models see
// the same state.
type Screen struct {
	time        string
	label       string
	count       int
	tasks       []string
	history     []session.HistoryLine
	breakChoice bool
	controls    session.Controls
}

func NewScreen() *Screen {
	return &Screen{time: "00:00"}
}

func (s *Screen) SetTime(text string)                    { s.time = text }
func (s *Screen) SetLabel(text string)                   { s.label = text }
func (s *Screen) SetSessionCount(n int)                  { s.count = n }
func (s *Screen) SetTaskOptions(tasks []string)          { s.tasks = slices.Clone(tasks) }
func (s *Screen) SetHistory(lines []session.HistoryLine) { s.history = slices.Clone(lines) }
func (s *Screen) SetBreakChoiceVisible(visible bool)     { s.breakChoice = visible }
func (s *Screen) SetControlsEnabled(c session.Controls)  { s.controls = c }

var _ session.Display = (*Screen)(nil)
