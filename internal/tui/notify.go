package tui

// Bell rings the terminal bell when a period ends. The machine calls it
// from Update; the App picks up the pending cue and emits "\a" with the
// status line so only the renderer writes to the terminal.
type Bell struct {
	allowed bool // from config.yaml; false silences the bell regardless of settings
	enabled bool // from the bell setting
	pending bool
}

func NewBell(allowed bool) *Bell {
	return &Bell{allowed: allowed, enabled: true}
}

func (b *Bell) SetEnabled(on bool) { b.enabled = on }

func (b *Bell) Enabled() bool { return b.allowed && b.enabled }

func (b *Bell) PlayCompletionCue() error {
	if b.Enabled() {
		b.pending = true
	}
	return nil
}

// take reports whether a cue is waiting and clears it.
func (b *Bell) take() bool {
	if b == nil || !b.pending {
		return false
	}
	b.pending = false
	return true
}
