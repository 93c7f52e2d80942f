package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/tomato/internal/store"
)

type fakeDisplay struct {
	time         string
	times        []string
	label        string
	count        int
	tasks        []string
	history      []HistoryLine
	breakVisible bool
	controls     Controls
}

func (d *fakeDisplay) SetTime(text string) {
	d.time = text
	d.times = append(d.times, text)
}

func (d *fakeDisplay) SetLabel(text string)           { d.label = text }
func (d *fakeDisplay) SetSessionCount(n int)          { d.count = n }
func (d *fakeDisplay) SetTaskOptions(tasks []string)  { d.tasks = tasks }
func (d *fakeDisplay) SetHistory(lines []HistoryLine) { d.history = lines }
func (d *fakeDisplay) SetBreakChoiceVisible(v bool)   { d.breakVisible = v }
func (d *fakeDisplay) SetControlsEnabled(c Controls)  { d.controls = c }

// manualScheduler records the active callback; tests fire it explicitly.
type manualScheduler struct {
	fn      func()
	started int
}

func (s *manualScheduler) Every(_ time.Duration, fn func()) Cancel {
	s.fn = fn
	s.started++
	return func() { s.fn = nil }
}

func (s *manualScheduler) fire(n int) {
	for i := 0; i < n && s.fn != nil; i++ {
		s.fn()
	}
}

type countingNotifier struct {
	calls int
	err   error
}

func (n *countingNotifier) PlayCompletionCue() error {
	n.calls++
	return n.err
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type failingStorage struct{}

func (failingStorage) LoadTasks() ([]string, error)                 { return nil, errors.New("corrupt") }
func (failingStorage) SaveTasks([]string) error                     { return errors.New("disk full") }
func (failingStorage) LoadSessions() ([]store.SessionRecord, error) { return nil, errors.New("corrupt") }
func (failingStorage) SaveSessions([]store.SessionRecord) error     { return errors.New("disk full") }

type harness struct {
	m      *Machine
	disp   *fakeDisplay
	sched  *manualScheduler
	notify *countingNotifier
	clock  *fakeClock
	store  *store.MapStore
}

func newHarness(t *testing.T, d Durations) *harness {
	t.Helper()
	h := &harness{
		disp:   &fakeDisplay{},
		sched:  &manualScheduler{},
		notify: &countingNotifier{},
		clock:  &fakeClock{t: time.Date(2026, 10, 16, 9, 0, 0, 0, time.Local)},
		store:  store.NewMapStore(),
	}
	h.m = New(Config{
		Durations: d,
		Display:   h.disp,
		Storage:   h.store,
		Notifier:  h.notify,
		Scheduler: h.sched,
		Now:       h.clock.now,
	})
	return h
}

// shortDurations keeps the tick counts in tests small.
func shortDurations() Durations {
	return Durations{
		Focus:          3 * time.Second,
		ShortBreak:     2 * time.Second,
		LongBreak:      4 * time.Second,
		LongBreakEvery: 4,
	}
}

func TestNewStartsIdleFocus(t *testing.T) {
	h := newHarness(t, Durations{})

	snap := h.m.Snapshot()
	assert.Equal(t, 1500, snap.Remaining)
	assert.Equal(t, Focus, snap.Mode)
	assert.False(t, snap.Running)
	assert.Zero(t, snap.Completed)
	assert.Equal(t, "25:00", h.disp.time)
	assert.Empty(t, h.disp.label)
	assert.False(t, h.disp.breakVisible)
	assert.Equal(t, Controls{Start: true, Stop: false}, h.disp.controls)
}

func TestStartIsNoOpWhenRunning(t *testing.T) {
	h := newHarness(t, Durations{})
	h.m.Start()
	h.m.Start()

	assert.Equal(t, 1, h.sched.started)
	assert.True(t, h.m.Snapshot().Running)
	assert.Equal(t, Controls{Start: false, Stop: true}, h.disp.controls)
}

func TestStopPreservesRemaining(t *testing.T) {
	h := newHarness(t, Durations{})
	h.m.Start()
	h.sched.fire(10)
	h.m.Stop()

	snap := h.m.Snapshot()
	assert.False(t, snap.Running)
	assert.Equal(t, 1490, snap.Remaining)
	assert.Equal(t, "24:50", h.disp.time)
	assert.Nil(t, h.sched.fn, "stop must cancel the tick")

	h.m.Tick()
	assert.Equal(t, 1490, h.m.Snapshot().Remaining, "tick while stopped is ignored")
}

func TestTicksNeverIncreaseOrGoNegative(t *testing.T) {
	h := newHarness(t, shortDurations())
	h.m.Start()

	prev := h.m.Snapshot().Remaining
	for i := 0; i < 50; i++ {
		h.m.Tick()
		cur := h.m.Snapshot()
		require.GreaterOrEqual(t, cur.Remaining, 0)
		if cur.Mode == Focus && cur.Running {
			require.LessOrEqual(t, cur.Remaining, prev)
		}
		prev = cur.Remaining
	}
}

func TestFocusCompletionStartsShortBreak(t *testing.T) {
	h := newHarness(t, shortDurations())
	h.m.Start()
	h.sched.fire(3)

	snap := h.m.Snapshot()
	assert.Equal(t, 1, snap.Completed)
	assert.Equal(t, ShortBreak, snap.Mode)
	assert.True(t, snap.Running)
	assert.Equal(t, 2, snap.Remaining)
	assert.Equal(t, "Break Time", h.disp.label)
	assert.Equal(t, 1, h.disp.count)
	assert.Equal(t, 1, h.notify.calls)
}

func TestBreakCompletionReturnsToIdleFocus(t *testing.T) {
	h := newHarness(t, shortDurations())
	h.m.Start()
	h.sched.fire(3) // focus done
	h.sched.fire(2) // short break done

	snap := h.m.Snapshot()
	assert.Equal(t, Focus, snap.Mode)
	assert.False(t, snap.Running)
	assert.Equal(t, 3, snap.Remaining)
	assert.Equal(t, 1, snap.Completed, "break expiry does not count")
	assert.Empty(t, h.disp.label)
	assert.Equal(t, 2, h.notify.calls)
}

func TestFourthFocusOffersBreakChoice(t *testing.T) {
	h := newHarness(t, shortDurations())

	for i := 1; i <= 3; i++ {
		h.m.Start()
		h.sched.fire(3)
		require.Equal(t, ShortBreak, h.m.Snapshot().Mode, "focus %d", i)
		h.sched.fire(2)
	}
	h.m.Start()
	h.sched.fire(3)

	snap := h.m.Snapshot()
	assert.Equal(t, 4, snap.Completed)
	assert.True(t, snap.AwaitingChoice)
	assert.False(t, snap.Running)
	assert.True(t, h.disp.breakVisible)
	assert.Equal(t, Controls{Start: false, Stop: false}, h.disp.controls)

	h.m.Start()
	assert.False(t, h.m.Snapshot().Running, "start waits for the break choice")
}

func awaitChoice(t *testing.T, h *harness) {
	t.Helper()
	for i := 0; i < 4; i++ {
		h.m.Start()
		h.sched.fire(3)
		if i < 3 {
			h.sched.fire(2)
		}
	}
	require.True(t, h.m.Snapshot().AwaitingChoice)
}

func TestChooseLongBreak(t *testing.T) {
	h := newHarness(t, shortDurations())
	awaitChoice(t, h)

	require.NoError(t, h.m.ChooseLongBreak())
	snap := h.m.Snapshot()
	assert.Equal(t, LongBreak, snap.Mode)
	assert.True(t, snap.Running)
	assert.Equal(t, 4, snap.Remaining)
	assert.False(t, h.disp.breakVisible)
	assert.Equal(t, "Long Break", h.disp.label)

	h.sched.fire(4)
	snap = h.m.Snapshot()
	assert.Equal(t, Focus, snap.Mode)
	assert.False(t, snap.Running)
	assert.Equal(t, 4, snap.Completed)
}

func TestSkipBreak(t *testing.T) {
	h := newHarness(t, shortDurations())
	awaitChoice(t, h)

	require.NoError(t, h.m.SkipBreak())
	snap := h.m.Snapshot()
	assert.Equal(t, Focus, snap.Mode)
	assert.False(t, snap.Running)
	assert.False(t, snap.AwaitingChoice)
	assert.Equal(t, 3, snap.Remaining)
	assert.False(t, h.disp.breakVisible)
	assert.Equal(t, Controls{Start: true, Stop: false}, h.disp.controls)
}

func TestBreakChoiceOnlyWhenAwaiting(t *testing.T) {
	h := newHarness(t, shortDurations())
	assert.ErrorIs(t, h.m.ChooseLongBreak(), ErrNoBreakChoice)
	assert.ErrorIs(t, h.m.SkipBreak(), ErrNoBreakChoice)
	assert.Equal(t, Focus, h.m.Snapshot().Mode)
}

func TestResetFromAnyState(t *testing.T) {
	states := map[string]func(h *harness){
		"idle":    func(h *harness) {},
		"running": func(h *harness) { h.m.Start(); h.sched.fire(1) },
		"stopped": func(h *harness) { h.m.Start(); h.sched.fire(1); h.m.Stop() },
		"short break": func(h *harness) {
			h.m.Start()
			h.sched.fire(3)
		},
		"awaiting choice": func(h *harness) {
			for i := 0; i < 4; i++ {
				h.m.Start()
				h.sched.fire(3)
				h.sched.fire(2)
			}
		},
		"long break": func(h *harness) {
			for i := 0; i < 4; i++ {
				h.m.Start()
				h.sched.fire(3)
				h.sched.fire(2)
			}
			h.m.ChooseLongBreak()
		},
	}

	for name, setup := range states {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, shortDurations())
			setup(h)
			h.m.SetDurations(DefaultDurations())
			h.m.Reset()

			snap := h.m.Snapshot()
			assert.Equal(t, 1500, snap.Remaining)
			assert.Equal(t, Focus, snap.Mode)
			assert.False(t, snap.Running)
			assert.False(t, snap.AwaitingChoice)
			assert.False(t, h.disp.breakVisible)
			assert.Empty(t, h.disp.label)
			assert.Equal(t, "25:00", h.disp.time)
			assert.Nil(t, h.sched.fn)
		})
	}
}

func TestResetKeepsCompletedCount(t *testing.T) {
	h := newHarness(t, shortDurations())
	h.m.Start()
	h.sched.fire(3)
	h.m.Reset()
	assert.Equal(t, 1, h.m.Snapshot().Completed)
}

func TestRefreshHistoryMovesWindow(t *testing.T) {
	h := newHarness(t, shortDurations())
	h.m.AddTask("A")
	h.m.SelectTask("A")
	h.m.Start()
	h.sched.fire(3)
	require.Len(t, h.disp.history, 1)

	h.clock.advance(24 * time.Hour * (HistoryDays + 1))
	h.m.RefreshHistory()
	assert.Empty(t, h.disp.history)
}

func TestSessionRecordedOnlyWithTask(t *testing.T) {
	h := newHarness(t, shortDurations())

	// No task selected
	h.m.Start()
	h.sched.fire(3)
	h.m.Reset()
	assert.Empty(t, h.m.Sessions())

	_, err := h.m.AddTask("Write report")
	require.NoError(t, err)
	require.NoError(t, h.m.SelectTask("Write report"))

	h.m.Start()
	h.sched.fire(3)
	records := h.m.Sessions()
	require.Len(t, records, 1)
	assert.Equal(t, "Write report", records[0].Task)
	assert.Equal(t, 2026, records[0].Date.Year())
	assert.Equal(t, time.October, records[0].Date.Month())
	assert.Equal(t, 16, records[0].Date.Day())

	stored, _ := h.store.LoadSessions()
	assert.Len(t, stored, 1)

	// Break completion never records
	h.sched.fire(2)
	assert.Len(t, h.m.Sessions(), 1)

	// Resetting mid-focus never records
	h.m.Start()
	h.sched.fire(2)
	h.m.Reset()
	assert.Len(t, h.m.Sessions(), 1)

	require.Len(t, h.disp.history, 1)
	assert.Equal(t, "Write report", h.disp.history[0].Task)
}

func TestRecordedMinutesFollowFocusLength(t *testing.T) {
	h := newHarness(t, Durations{})
	h.m.AddTask("Deep work")
	h.m.SelectTask("Deep work")
	h.m.Start()
	h.sched.fire(1500)

	records := h.m.Sessions()
	require.Len(t, records, 1)
	assert.Equal(t, 25, records[0].Minutes)
}

func TestBackgroundShortGap(t *testing.T) {
	h := newHarness(t, Durations{Focus: 100 * time.Second})
	h.m.Start()
	h.m.Background(h.clock.now())
	h.clock.advance(70 * time.Second)
	h.m.Foreground(h.clock.now())

	snap := h.m.Snapshot()
	assert.Equal(t, 30, snap.Remaining)
	assert.Equal(t, Focus, snap.Mode)
	assert.True(t, snap.Running)
	assert.Zero(t, snap.Completed)
	assert.Equal(t, "00:30", h.disp.time)
}

func TestBackgroundLongGapCompletes(t *testing.T) {
	h := newHarness(t, Durations{Focus: 100 * time.Second})
	h.m.Start()
	h.m.Background(h.clock.now())
	h.clock.advance(150 * time.Second)
	h.m.Foreground(h.clock.now())

	snap := h.m.Snapshot()
	assert.Equal(t, 1, snap.Completed)
	assert.Equal(t, ShortBreak, snap.Mode)
	assert.Equal(t, 1, h.notify.calls)
}

func TestBackgroundDrainToZeroClamps(t *testing.T) {
	h := newHarness(t, Durations{Focus: 100 * time.Second})
	h.m.AddTask("A")
	h.m.SelectTask("A")
	h.m.Start()
	h.m.Background(h.clock.now())
	h.clock.advance(150 * time.Second)
	h.disp.times = nil
	h.m.Foreground(h.clock.now())

	assert.Len(t, h.m.Sessions(), 1)
	assert.Equal(t, 1, h.m.Snapshot().Completed)
	assert.Equal(t, 1, h.notify.calls)
	assert.Equal(t, []string{"00:00", "05:00"}, h.disp.times, "clock shows zero before the break starts")
	assert.Equal(t, ShortBreak, h.m.Snapshot().Mode)
}

func TestTickCatchesUpAfterSuspend(t *testing.T) {
	h := newHarness(t, Durations{})
	h.m.Start()
	h.clock.advance(time.Second)
	h.sched.fire(1)
	assert.Equal(t, 1499, h.m.Snapshot().Remaining)

	h.clock.advance(10 * time.Minute)
	h.sched.fire(1)
	assert.Equal(t, 899, h.m.Snapshot().Remaining)
	assert.Equal(t, "14:59", h.disp.time)

	// Sub-second jitter still counts as one second.
	h.clock.advance(300 * time.Millisecond)
	h.sched.fire(1)
	assert.Equal(t, 898, h.m.Snapshot().Remaining)
}

func TestTickCatchUpCompletesPeriod(t *testing.T) {
	h := newHarness(t, shortDurations())
	h.m.Start()
	h.clock.advance(time.Hour)
	h.sched.fire(1)

	snap := h.m.Snapshot()
	assert.Equal(t, 1, snap.Completed)
	assert.Equal(t, ShortBreak, snap.Mode)
	assert.Equal(t, 2, snap.Remaining, "the gap is not carried into the break")
}

func TestForegroundIgnoresObservedTicks(t *testing.T) {
	h := newHarness(t, Durations{Focus: 100 * time.Second})
	h.m.Start()
	for i := 0; i < 10; i++ {
		h.clock.advance(time.Second)
		h.sched.fire(1)
	}
	h.m.Foreground(h.clock.now())
	assert.Equal(t, 90, h.m.Snapshot().Remaining)
}

func TestForegroundWhenStoppedIsNoOp(t *testing.T) {
	h := newHarness(t, Durations{Focus: 100 * time.Second})
	h.m.Background(h.clock.now())
	h.clock.advance(70 * time.Second)
	h.m.Foreground(h.clock.now())
	assert.Equal(t, 100, h.m.Snapshot().Remaining)
}

func TestNotifierFailureDoesNotBlockCompletion(t *testing.T) {
	h := newHarness(t, shortDurations())
	h.notify.err = errors.New("audio denied")
	h.m.Start()
	h.sched.fire(3)

	snap := h.m.Snapshot()
	assert.Equal(t, 1, snap.Completed)
	assert.Equal(t, ShortBreak, snap.Mode)
}

func TestAddTask(t *testing.T) {
	h := newHarness(t, Durations{})

	added, err := h.m.AddTask("  Write report ")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = h.m.AddTask("Write report")
	require.NoError(t, err)
	assert.False(t, added, "duplicate is a no-op")

	added, _ = h.m.AddTask("   ")
	assert.False(t, added, "blank is a no-op")

	h.m.AddTask("Review")
	assert.Equal(t, []string{"Write report", "Review"}, h.m.Tasks())
	assert.Equal(t, []string{"Write report", "Review"}, h.disp.tasks)

	stored, _ := h.store.LoadTasks()
	assert.Equal(t, []string{"Write report", "Review"}, stored)
}

func TestSelectTask(t *testing.T) {
	h := newHarness(t, Durations{})
	h.m.AddTask("A")

	require.NoError(t, h.m.SelectTask("A"))
	assert.Equal(t, "A", h.m.CurrentTask())

	err := h.m.SelectTask("B")
	assert.ErrorIs(t, err, ErrUnknownTask)
	assert.Equal(t, "A", h.m.CurrentTask())

	require.NoError(t, h.m.SelectTask(""))
	assert.Empty(t, h.m.CurrentTask())
}

func TestLoadsPersistedState(t *testing.T) {
	s := store.NewMapStore()
	s.SaveTasks([]string{"A", "B", "A", " "})
	s.SaveSessions([]store.SessionRecord{
		{Task: "A", Date: time.Date(2026, 10, 15, 0, 0, 0, 0, time.Local), Minutes: 25},
	})
	disp := &fakeDisplay{}
	m := New(Config{
		Storage: s,
		Display: disp,
		Now:     func() time.Time { return time.Date(2026, 10, 16, 12, 0, 0, 0, time.Local) },
	})

	assert.Equal(t, []string{"A", "B"}, m.Tasks())
	assert.Len(t, m.Sessions(), 1)
	require.Len(t, disp.history, 1)
	assert.Equal(t, "25m", disp.history[0].Duration)
}

func TestStorageFailuresDegradeToEmpty(t *testing.T) {
	m := New(Config{Storage: failingStorage{}})
	assert.Empty(t, m.Tasks())
	assert.Empty(t, m.Sessions())

	added, err := m.AddTask("A")
	assert.True(t, added)
	assert.Error(t, err)
	assert.Equal(t, []string{"A"}, m.Tasks(), "in-memory list stays authoritative")
}

func TestSetDurationsIdleClock(t *testing.T) {
	h := newHarness(t, Durations{})
	h.m.SetDurations(shortDurations())
	assert.Equal(t, 3, h.m.Snapshot().Remaining)
	assert.Equal(t, "00:03", h.disp.time)
}

func TestSetDurationsKeepsPausedPeriod(t *testing.T) {
	h := newHarness(t, shortDurations())
	h.m.Start()
	h.sched.fire(1)
	h.m.Stop()

	h.m.SetDurations(DefaultDurations())
	assert.Equal(t, 2, h.m.Snapshot().Remaining)

	h.m.Reset()
	assert.Equal(t, 1500, h.m.Snapshot().Remaining)
}

func TestDurationsFallBackToDefaults(t *testing.T) {
	d := Durations{Focus: 500 * time.Millisecond, LongBreakEvery: -1}.withDefaults()
	assert.Equal(t, DefaultDurations(), d)
}

func TestFromSettings(t *testing.T) {
	d := FromSettings(store.DefaultTimerSettings())
	assert.Equal(t, DefaultDurations(), d)
}

func TestModeLabels(t *testing.T) {
	assert.Empty(t, Focus.Label())
	assert.Equal(t, "Break Time", ShortBreak.Label())
	assert.Equal(t, "Long Break", LongBreak.Label())
	assert.Equal(t, "long_break", LongBreak.String())
}
