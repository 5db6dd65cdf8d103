package workspace

import (
	"sort"
	"time"
)

// Snapshot is a point-in-time copy of the workspace. It shares no mutable
// containers with the workspace; Variable values are the published values
// themselves.
type Snapshot struct {
	Session     string
	Taken       time.Time
	State       State
	Variables   map[string]Variable
	Watched     []string // sorted
	Stack       []Frame  // oldest first
	Log         []LogEntry
	Breakpoints []BreakpointInfo // registration order

	CurrentFunction string
	CurrentFile     string
	CurrentLine     int
}

// Snapshot copies the workspace state.
func (w *Workspace) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := Snapshot{
		Session:     w.id,
		Taken:       time.Now(),
		State:       w.state,
		Variables:   make(map[string]Variable, len(w.variables)),
		Watched:     make([]string, 0, len(w.watched)),
		Stack:       w.stack.snapshot(),
		Log:         w.log.snapshot(),
		Breakpoints: make([]BreakpointInfo, 0, len(w.breakpoints)),
	}
	for k, v := range w.variables {
		s.Variables[k] = v
	}
	for k := range w.watched {
		s.Watched = append(s.Watched, k)
	}
	sort.Strings(s.Watched)
	for _, bp := range w.breakpoints {
		s.Breakpoints = append(s.Breakpoints, bp.info())
	}
	for i := range s.Stack {
		s.Stack[i].Args = copyArgs(s.Stack[i].Args)
	}
	if top, ok := w.stack.last(); ok {
		s.CurrentFunction = top.Function
		s.CurrentFile = top.File
		s.CurrentLine = top.Line
	}
	return s
}

func copyArgs(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// VariableNames returns the variable names in sorted order.
func (s Snapshot) VariableNames() []string {
	names := make([]string, 0, len(s.Variables))
	for k := range s.Variables {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Depth returns the display stack depth.
func (s Snapshot) Depth() int {
	return len(s.Stack)
}
