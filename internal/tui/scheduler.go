package tui

import (
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/tomato/internal/session"
)

// Scheduler delivers periodic callbacks through the Bubble Tea event loop.
// A ticker goroutine posts a scheduledMsg; App.Update runs the callback,
// so the machine is only ever touched from Update.
type Scheduler struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Attach connects the scheduler to a running program. Ticks fired before
// Attach are dropped.
func (s *Scheduler) Attach(p *tea.Program) {
	s.attach(p.Send)
}

func (s *Scheduler) attach(send func(tea.Msg)) {
	s.mu.Lock()
	s.send = send
	s.mu.Unlock()
}

type job struct {
	fn        func()
	done      chan struct{}
	cancelled atomic.Bool
}

type scheduledMsg struct {
	job *job
}

// run calls the callback unless the job was cancelled while the message
// was queued.
func (m scheduledMsg) run() bool {
	if m.job.cancelled.Load() {
		return false
	}
	m.job.fn()
	return true
}

func (s *Scheduler) Every(period time.Duration, fn func()) session.Cancel {
	j := &job{fn: fn, done: make(chan struct{})}
	ticker := time.NewTicker(period)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-j.done:
				return
			case <-ticker.C:
				if j.cancelled.Load() {
					return
				}
				s.post(scheduledMsg{job: j})
			}
		}
	}()

	return func() {
		if j.cancelled.CompareAndSwap(false, true) {
			close(j.done)
		}
	}
}

func (s *Scheduler) post(msg tea.Msg) {
	s.mu.Lock()
	send := s.send
	s.mu.Unlock()
	if send != nil {
		send(msg)
	}
}
