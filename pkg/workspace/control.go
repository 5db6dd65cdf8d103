package workspace

import (
	"context"
	"time"
)

// State 执行控制状态
type State int

const (
	StateRunning     State = iota // 正常运行
	StatePaused                   // 已暂停，被跟踪函数调用前阻塞
	StateStepPending              // 放行一次调用后回到暂停
)

func (s State) String() string {
	switch s {
	case StatePaused:
		return "paused"
	case StateStepPending:
		return "stepping"
	default:
		return "running"
	}
}

// State 返回当前执行控制状态
func (w *Workspace) State() State {
	w.mu.Lock()
	defer w.unlock()
	return w.state
}

// Pause 暂停执行，任何状态都会进入暂停
func (w *Workspace) Pause() {
	w.mu.Lock()
	w.state = StatePaused
	w.appendLog(KindPause, "⏸ paused (c continue, s step, q quit)")
	w.unlock()
	w.nudge()
}

// Resume 继续执行，已在运行时不做任何事
func (w *Workspace) Resume() {
	w.mu.Lock()
	if w.state == StateRunning {
		w.unlock()
		return
	}
	w.state = StateRunning
	w.appendLog(KindInfo, "▶ resumed")
	w.unlock()
	w.nudge()
}

// Step 单步执行：放行恰好一次被跟踪的调用，随后回到暂停
func (w *Workspace) Step() {
	w.mu.Lock()
	w.state = StateStepPending
	w.appendLog(KindInfo, "step: next call will run, then pause")
	w.unlock()
	w.nudge()
}

// breakpointHit 命中断点：运行中则进入暂停，已暂停保持不变，单步中仍放行命中断点的这次调用
func (w *Workspace) breakpointHit() {
	w.mu.Lock()
	if w.state != StateRunning {
		w.unlock()
		return
	}
	w.state = StatePaused
	w.appendLog(KindPause, "⏸ paused at breakpoint (c continue, s step, q quit)")
	w.unlock()
	w.nudge()
}

// admit 尝试放行一次调用，单步状态会被消耗掉
func (w *Workspace) admit() bool {
	w.mu.Lock()
	defer w.unlock()
	switch w.state {
	case StateRunning:
		return true
	case StateStepPending:
		w.state = StatePaused
		return true
	default:
		return false
	}
}

// wait 暂停期间阻塞调用方，按poll间隔轮询，ctx先结束则返回ctx.Err()
func (w *Workspace) wait(ctx context.Context) error {
	if w.admit() {
		return nil
	}

	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()
	for {
		w.nudge()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if w.admit() {
			return nil
		}
	}
}
