package input

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FengmingYu-tech/JobSyncd/pkg/workspace"
)

// recorder is a Controller that records the calls it receives.
type recorder struct {
	mu          sync.Mutex
	state       workspace.State
	calls       []string
	breakpoints map[string]bool
}

func newRecorder() *recorder {
	return &recorder{breakpoints: map[string]bool{}}
}

func (r *recorder) record(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) Pause()  { r.record("pause") }
func (r *recorder) Resume() { r.record("resume") }
func (r *recorder) Step()   { r.record("step") }

func (r *recorder) State() workspace.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *recorder) AddBreakpoint(key string, pred workspace.Predicate) *workspace.Breakpoint {
	r.mu.Lock()
	r.breakpoints[key] = true
	r.mu.Unlock()
	r.record("break " + key)
	return &workspace.Breakpoint{Key: key, Enabled: true}
}

func (r *recorder) HasBreakpoint(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.breakpoints[key]
}

func (r *recorder) Watch(name string) { r.record("watch " + name) }

func (r *recorder) Log(format string, args ...any) {
	r.record("log " + fmt.Sprintf(format, args...))
}

func TestKeyboard_Dispatch(t *testing.T) {
	ctl := newRecorder()
	var quits int
	k := NewKeyboard(ctl, nil, func() { quits++ }, nil)

	k.serve(strings.NewReader("cSpbBwxq c"))

	assert.Equal(t, []string{
		"resume",
		"step",
		"pause",
		"break fetchMessages",
		"watch emails_count",
		"watch task_result",
	}, ctl.Calls())
	assert.Equal(t, 1, quits, "keys after q are not read")
}

func TestKeyboard_CtrlC(t *testing.T) {
	ctl := newRecorder()
	var quits int
	k := NewKeyboard(ctl, nil, func() { quits++ }, nil)

	k.serve(strings.NewReader(string([]byte{keyCtrlC, 'c'})))
	assert.Equal(t, 1, quits)
	assert.Empty(t, ctl.Calls())
}

func TestKeyboard_Diagnostics(t *testing.T) {
	ctl := newRecorder()
	k := NewKeyboard(ctl, nil, func() {}, nil)
	k.SetDiagnostics(Diagnostics{Breakpoint: "classify", Watches: []string{"status"}})

	k.serve(strings.NewReader("bw"))
	assert.Equal(t, []string{"break classify", "watch status"}, ctl.Calls())
}

func TestKeyboard_NotTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	defer f.Close()

	ctl := newRecorder()
	k := NewKeyboard(ctl, f, func() {}, nil)

	err = k.Start()
	assert.ErrorIs(t, err, ErrNotTerminal)
	require.Len(t, ctl.Calls(), 1)
	assert.Contains(t, ctl.Calls()[0], "keyboard control disabled")

	k.Stop()
	k.Stop()
}

func TestKeyboard_StopLeavesLaterKeys(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	ctl := newRecorder()
	k := NewKeyboard(ctl, r, func() {}, nil)
	require.NoError(t, k.listen())

	_, err = w.Write([]byte("p"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(ctl.Calls()) == 1 }, time.Second, time.Millisecond)

	k.Stop()
	select {
	case <-k.exited:
	case <-time.After(time.Second):
		t.Fatal("reader still blocked after Stop")
	}

	// the next key belongs to whoever reads the terminal next
	_, err = w.Write([]byte("c"))
	require.NoError(t, err)
	buf := make([]byte, 1)
	_, err = r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "c", string(buf))
	assert.Equal(t, []string{"pause"}, ctl.Calls())
}

func TestSignals_Interrupt(t *testing.T) {
	tests := []struct {
		name      string
		state     workspace.State
		wantCalls []string
		wantQuit  bool
	}{
		{"paused resumes", workspace.StatePaused, []string{"resume"}, false},
		{"stepping resumes", workspace.StateStepPending, []string{"resume"}, false},
		{"running quits", workspace.StateRunning, []string{"log interrupted, quitting"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctl := newRecorder()
			ctl.state = tt.state
			var quit bool
			s := NewSignals(ctl, func() { quit = true })

			s.handle(syscall.SIGINT)
			assert.Equal(t, tt.wantCalls, ctl.Calls())
			assert.Equal(t, tt.wantQuit, quit)
		})
	}
}

func TestSignals_TerminateAndIgnore(t *testing.T) {
	ctl := newRecorder()
	var quits int
	s := NewSignals(ctl, func() { quits++ })

	s.handle(syscall.SIGURG)
	assert.Equal(t, 0, quits)
	s.handle(syscall.SIGTERM)
	s.handle(syscall.SIGQUIT)
	assert.Equal(t, 2, quits)
	assert.Empty(t, ctl.Calls())
}

func TestLines_Serve(t *testing.T) {
	ctl := newRecorder()
	var got []string
	l := NewLines(ctl, func(line string) error {
		got = append(got, line)
		if line == "bogus" {
			return errors.New("unknown command")
		}
		return nil
	}, nil)

	in := "break fetchMessages\n\n# comment\n  continue  \nbogus\n"
	require.NoError(t, l.Serve(context.Background(), strings.NewReader(in)))

	assert.Equal(t, []string{"break fetchMessages", "continue", "bogus"}, got)
	assert.Equal(t, []string{`log control "bogus": unknown command`}, ctl.Calls())
}

func TestLines_ServeCancel(t *testing.T) {
	ctl := newRecorder()
	l := NewLines(ctl, func(string) error { return nil }, nil)

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer w.Close()
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- l.Serve(ctx, r) }()

	cancel()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("serve ignored cancellation")
	}
}

func TestLines_ServeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "control")
	require.NoError(t, os.WriteFile(path, []byte("pause\nstep\n"), 0o644))

	ctl := newRecorder()
	var mu sync.Mutex
	var got []string
	l := NewLines(ctl, func(line string) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, line)
		return nil
	}, nil)

	require.NoError(t, l.ServeFile(context.Background(), path))
	assert.Equal(t, []string{"pause", "step"}, got)

	err := l.ServeFile(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
