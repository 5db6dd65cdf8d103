package input

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/FengmingYu-tech/JobSyncd/pkg/workspace"
)

// Signals maps process signals to control actions. SIGINT resumes a paused
// workspace and quits a running one.
type Signals struct {
	ctl  Controller
	quit func()

	ch       chan os.Signal
	stopOnce sync.Once
	done     chan struct{}
}

func NewSignals(ctl Controller, quit func()) *Signals {
	return &Signals{
		ctl:  ctl,
		quit: quit,
		ch:   make(chan os.Signal, 16),
		done: make(chan struct{}),
	}
}

// Start subscribes to the signals and handles them on a goroutine.
func (s *Signals) Start() {
	signal.Notify(s.ch, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGURG)
	go func() {
		for {
			select {
			case <-s.done:
				return
			case sig := <-s.ch:
				s.handle(sig)
			}
		}
	}()
}

func (s *Signals) Stop() {
	s.stopOnce.Do(func() {
		signal.Stop(s.ch)
		close(s.done)
	})
}

func (s *Signals) handle(sig os.Signal) {
	switch sig {
	case syscall.SIGURG:
		// runtime preemption signal, ignored
	case syscall.SIGINT:
		if st := s.ctl.State(); st != workspace.StateRunning {
			s.ctl.Resume()
			return
		}
		s.ctl.Log("interrupted, quitting")
		s.quit()
	case syscall.SIGTERM, syscall.SIGQUIT:
		s.quit()
	}
}
