package workspace

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultStackCapacity = 30
	DefaultLogCapacity   = 100
	DefaultPollInterval  = 50 * time.Millisecond
)

var (
	ErrNoBreakpoint = errors.New("breakpoint not existed")
)

// Options configures a Workspace. Zero values select the defaults.
type Options struct {
	StackCapacity int
	LogCapacity   int
	PollInterval  time.Duration
	Logger        *slog.Logger
}

// Workspace owns all debug state of one process: variables, watches, the
// display call stack, the execution log, breakpoints and the control state.
// Every field is guarded by mu.
type Workspace struct {
	id     string
	poll   time.Duration
	logger *slog.Logger

	mu          sync.Mutex
	variables   map[string]Variable
	watched     map[string]struct{}
	stack       *ring[Frame]
	log         *ring[LogEntry]
	breakpoints Breakpoints
	state       State
	pending     []LogEntry // appended under mu, written to logger by unlock

	refresh chan struct{}
}

// New creates a workspace in the running state.
func New(opts Options) *Workspace {
	if opts.StackCapacity <= 0 {
		opts.StackCapacity = DefaultStackCapacity
	}
	if opts.LogCapacity <= 0 {
		opts.LogCapacity = DefaultLogCapacity
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	id := uuid.NewString()
	return &Workspace{
		id:        id,
		poll:      opts.PollInterval,
		logger:    opts.Logger.With(slog.String("session", id)),
		variables: make(map[string]Variable),
		watched:   make(map[string]struct{}),
		stack:     newRing[Frame](opts.StackCapacity),
		log:       newRing[LogEntry](opts.LogCapacity),
		state:     StateRunning,
		refresh:   make(chan struct{}, 1),
	}
}

// ID returns the session id of this workspace.
func (w *Workspace) ID() string {
	return w.id
}

// Updates delivers a signal whenever the workspace wants the display
// refreshed before the next regular tick. Signals are coalesced.
func (w *Workspace) Updates() <-chan struct{} {
	return w.refresh
}

func (w *Workspace) nudge() {
	select {
	case w.refresh <- struct{}{}:
	default:
	}
}

// Log appends an informational entry to the execution log.
func (w *Workspace) Log(format string, args ...any) {
	w.mu.Lock()
	w.appendLog(KindInfo, fmt.Sprintf(format, args...))
	w.unlock()
}

// appendLog must be called with mu held. The entry reaches the logger once
// mu is released through unlock.
func (w *Workspace) appendLog(kind LogKind, msg string) {
	e := LogEntry{Message: msg, Kind: kind, Time: time.Now()}
	w.log.push(e)
	w.pending = append(w.pending, e)
}

// unlock releases mu, then hands the entries appended while it was held to
// the logger. Handler I/O never runs inside the critical section.
func (w *Workspace) unlock() {
	pending := w.pending
	w.pending = nil
	w.mu.Unlock()

	for _, e := range pending {
		w.logger.Debug(e.Message, slog.String("kind", e.Kind.String()))
	}
}

// UpdateVariable records value under name, overwriting any previous record.
func (w *Workspace) UpdateVariable(name string, value any, location string) {
	now := time.Now()

	w.mu.Lock()
	defer w.unlock()

	old, existed := w.variables[name]
	changed := !valueEqual(old.Value, value)
	if !existed {
		changed = value != nil
	}
	w.variables[name] = Variable{
		Name:      name,
		Value:     value,
		Type:      fmt.Sprintf("%T", value),
		Location:  location,
		UpdatedAt: now,
		Changed:   changed,
	}

	if _, ok := w.watched[name]; ok && changed {
		w.appendLog(KindWatch, fmt.Sprintf("watched %s = %s", name, short(value)))
		return
	}
	w.appendLog(KindInfo, fmt.Sprintf("set %s = %s", name, short(value)))
}

// valueEqual compares published values. Uncomparable or exotic values that
// make DeepEqual panic are treated as different.
func valueEqual(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return reflect.DeepEqual(a, b)
}

// Variable returns the current record for name.
func (w *Workspace) Variable(name string) (Variable, bool) {
	w.mu.Lock()
	defer w.unlock()
	v, ok := w.variables[name]
	return v, ok
}

// Watch flags name for change highlighting.
func (w *Workspace) Watch(name string) {
	w.mu.Lock()
	defer w.unlock()
	w.watched[name] = struct{}{}
	w.appendLog(KindInfo, fmt.Sprintf("watching %s", name))
}

// Unwatch removes name from the watch set.
func (w *Workspace) Unwatch(name string) {
	w.mu.Lock()
	defer w.unlock()
	delete(w.watched, name)
	w.appendLog(KindInfo, fmt.Sprintf("stopped watching %s", name))
}

// Watching reports whether name is in the watch set.
func (w *Workspace) Watching(name string) bool {
	w.mu.Lock()
	defer w.unlock()
	_, ok := w.watched[name]
	return ok
}

// pushCall records a call entry; the oldest frame is evicted when full.
func (w *Workspace) pushCall(f Frame) {
	w.mu.Lock()
	defer w.unlock()
	w.stack.push(f)
	w.appendLog(KindCall, fmt.Sprintf("→ call %s", f.Function))
}

// popCall removes the frame with the given id. Frames already evicted from
// the bounded stack are ignored.
func (w *Workspace) popCall(id uint64, function string) {
	w.mu.Lock()
	defer w.unlock()
	w.stack.removeLast(func(f Frame) bool { return f.ID == id })
	w.appendLog(KindReturn, fmt.Sprintf("← return %s", function))
}

// Depth returns the number of frames on the display stack.
func (w *Workspace) Depth() int {
	w.mu.Lock()
	defer w.unlock()
	return w.stack.len()
}

// AddBreakpoint registers a breakpoint on key. pred may be nil.
func (w *Workspace) AddBreakpoint(key string, pred Predicate) *Breakpoint {
	bp := newBreakpoint(key, pred)

	w.mu.Lock()
	defer w.unlock()
	w.breakpoints = append(w.breakpoints, bp)
	w.appendLog(KindInfo, fmt.Sprintf("breakpoint %d added: %s", bp.ID, key))
	return bp
}

// AddBreakpointCond registers a breakpoint whose predicate is the compiled
// condition expression cond. An empty cond adds an unconditional breakpoint.
func (w *Workspace) AddBreakpointCond(key, cond string) (*Breakpoint, error) {
	if cond == "" {
		return w.AddBreakpoint(key, nil), nil
	}
	pred, err := CompileCondition(cond)
	if err != nil {
		return nil, err
	}
	bp := newBreakpoint(key, pred)
	bp.Cond = cond

	w.mu.Lock()
	defer w.unlock()
	w.breakpoints = append(w.breakpoints, bp)
	w.appendLog(KindInfo, fmt.Sprintf("breakpoint %d added: %s if %s", bp.ID, key, cond))
	return bp, nil
}

// HasBreakpoint reports whether any breakpoint is registered on key.
func (w *Workspace) HasBreakpoint(key string) bool {
	w.mu.Lock()
	defer w.unlock()
	for _, bp := range w.breakpoints {
		if bp.Key == key {
			return true
		}
	}
	return false
}

// RemoveBreakpoint deletes every breakpoint registered on key.
func (w *Workspace) RemoveBreakpoint(key string) error {
	w.mu.Lock()
	defer w.unlock()

	kept := w.breakpoints[:0]
	for _, bp := range w.breakpoints {
		if bp.Key != key {
			kept = append(kept, bp)
		}
	}
	removed := len(w.breakpoints) - len(kept)
	for i := len(kept); i < len(w.breakpoints); i++ {
		w.breakpoints[i] = nil
	}
	w.breakpoints = kept
	if removed == 0 {
		return fmt.Errorf("%w: %s", ErrNoBreakpoint, key)
	}
	w.appendLog(KindInfo, fmt.Sprintf("breakpoint removed: %s", key))
	return nil
}

// ClearBreakpoints deletes all breakpoints.
func (w *Workspace) ClearBreakpoints() {
	w.mu.Lock()
	defer w.unlock()
	w.breakpoints = nil
	w.appendLog(KindInfo, "all breakpoints removed")
}

// ToggleBreakpoint flips the enabled flag of the first breakpoint on key and
// returns the new value.
func (w *Workspace) ToggleBreakpoint(key string) (bool, error) {
	w.mu.Lock()
	defer w.unlock()
	for _, bp := range w.breakpoints {
		if bp.Key != key {
			continue
		}
		bp.Enabled = !bp.Enabled
		state := "disabled"
		if bp.Enabled {
			state = "enabled"
		}
		w.appendLog(KindInfo, fmt.Sprintf("breakpoint %s %s", key, state))
		return bp.Enabled, nil
	}
	return false, fmt.Errorf("%w: %s", ErrNoBreakpoint, key)
}

// Evaluate returns the first enabled breakpoint matching fn and args, in
// registration order, or nil. A hit increments the breakpoint's hit count
// and is logged; nothing else is modified.
func (w *Workspace) Evaluate(fn string, args Args) *BreakpointInfo {
	w.mu.Lock()
	candidates := make(Breakpoints, 0, len(w.breakpoints))
	for _, bp := range w.breakpoints {
		if bp.Enabled && bp.matchName(fn) {
			candidates = append(candidates, bp)
		}
	}
	w.unlock()
	sort.Sort(candidates)

	// Predicates are caller code and run outside the lock.
	for _, bp := range candidates {
		hit, err := bp.check(args)
		if !hit {
			continue
		}

		w.mu.Lock()
		if err != nil {
			w.appendLog(KindError, fmt.Sprintf("breakpoint %s condition failed, stopping anyway: %v", bp.Key, err))
		}
		bp.HitCount++
		w.appendLog(KindBreakpoint, fmt.Sprintf("● breakpoint %s hit in %s (hits: %d)", bp.Key, fn, bp.HitCount))
		info := bp.info()
		w.unlock()
		return &info
	}
	return nil
}
