package workspace

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

const (
	eventually = 2 * time.Second
	tick       = 5 * time.Millisecond
)

func newTestWorkspace() *Workspace {
	return New(Options{PollInterval: time.Millisecond})
}

func TestInstrument_FrameBalance(t *testing.T) {
	w := newTestWorkspace()
	ctx := context.Background()

	var depthInside int
	inner := Instrument(w, "inner", func(ctx context.Context) (int, error) {
		depthInside = w.Depth()
		return 1, nil
	})
	failing := Instrument(w, "failing", func(ctx context.Context) (int, error) {
		return 0, errors.New("boom")
	})
	outer := Instrument(w, "outer", func(ctx context.Context) (string, error) {
		if _, err := inner(ctx); err != nil {
			return "", err
		}
		_, _ = failing(ctx)
		return "ok", nil
	})

	out, err := outer(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 2, depthInside)
	assert.Equal(t, 0, w.Depth())
}

func TestInstrument_PanicPopsFrame(t *testing.T) {
	w := newTestWorkspace()
	fn := Instrument(w, "explode", func(ctx context.Context) (int, error) {
		panic("kaboom")
	})

	assert.PanicsWithValue(t, "kaboom", func() { _, _ = fn(context.Background()) })
	assert.Equal(t, 0, w.Depth())

	log := w.Snapshot().Log
	require.NotEmpty(t, log)
	assert.Equal(t, KindReturn, log[len(log)-1].Kind)
	assert.Equal(t, KindError, log[len(log)-2].Kind)
}

func TestInstrument_ErrorTransparency(t *testing.T) {
	w := newTestWorkspace()
	boom := errors.New("boom")
	fn := Instrument1(w, "fetch", func(ctx context.Context, query string) ([]string, error) {
		return nil, boom
	})

	_, err := fn(context.Background(), "newer_than:1d")
	assert.Same(t, boom, err)
	assert.Equal(t, 0, w.Depth())

	var errs []LogEntry
	for _, e := range w.Snapshot().Log {
		if e.Kind == KindError {
			errs = append(errs, e)
		}
	}
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "boom")

	_, ok := w.Variable("fetch_result")
	assert.False(t, ok)
}

func TestInstrument_ResultVariable(t *testing.T) {
	w := newTestWorkspace()
	classify := Instrument2(w, "agent.(*Sync).classify", func(ctx context.Context, subject, body string) (string, error) {
		return "jobs", nil
	})
	empty := Instrument(w, "lookup", func(ctx context.Context) (*int, error) {
		return nil, nil
	})

	label, err := classify(context.Background(), "Offer", "We'd like to hire you")
	require.NoError(t, err)
	assert.Equal(t, "jobs", label)

	v, ok := w.Variable("classify_result")
	require.True(t, ok)
	assert.Equal(t, "jobs", v.Value)
	assert.Equal(t, "agent.(*Sync).classify", v.Location)

	_, err = empty(context.Background())
	require.NoError(t, err)
	_, ok = w.Variable("lookup_result")
	assert.False(t, ok)
}

func TestInstrument_FrameRecord(t *testing.T) {
	w := newTestWorkspace()
	var frame Frame
	fn := Instrument1(w, "fetch", func(ctx context.Context, query string) (int, error) {
		frame = w.Snapshot().Stack[0]
		return 0, nil
	})

	_, err := fn(context.Background(), "newer_than:1d")
	require.NoError(t, err)
	assert.Equal(t, "fetch", frame.Function)
	assert.Equal(t, "newer_than:1d", frame.Args["arg0"])
	assert.Contains(t, frame.File, "instrument_test.go")
	assert.NotZero(t, frame.Line)
}

func TestInstrument_DefaultName(t *testing.T) {
	w := newTestWorkspace()
	fn := Instrument(w, "", sampleTarget)
	_, err := fn(context.Background())
	require.NoError(t, err)

	_, ok := w.Variable("sampleTarget_result")
	assert.True(t, ok)
}

func sampleTarget(ctx context.Context) (int, error) {
	return 7, nil
}

func TestShortName(t *testing.T) {
	tests := map[string]string{
		"fetch":                           "fetch",
		"agent.fetch":                     "fetch",
		"agent.(*Sync).classify":          "classify",
		"github.com/a/b/pkg/agent.create": "create",
	}
	for in, want := range tests {
		assert.Equal(t, want, ShortName(in), in)
	}
}

func TestCall(t *testing.T) {
	w := newTestWorkspace()
	out, err := w.Call(context.Background(), "notify", Args{Keyword: map[string]any{"to": "me"}},
		func(ctx context.Context) (any, error) { return "sent", nil })
	require.NoError(t, err)
	assert.Equal(t, "sent", out)

	v, ok := w.Variable("notify_result")
	require.True(t, ok)
	assert.Equal(t, "sent", v.Value)
}

// A breakpoint on "sync" stops the call before its body runs; resuming lets
// it finish and publish its variables.
func TestInstrument_BreakpointScenario(t *testing.T) {
	w := newTestWorkspace()
	bp := w.AddBreakpoint("sync", nil)

	var started atomic.Bool
	run := Instrument(w, "sync", func(ctx context.Context) (int, error) {
		started.Store(true)
		w.UpdateVariable("status", "done", "sync")
		return 2, nil
	})

	done := make(chan error, 1)
	go func() {
		_, err := run(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool { return w.State() == StatePaused }, eventually, tick)
	time.Sleep(20 * time.Millisecond)
	assert.False(t, started.Load())
	assert.Equal(t, 1, w.Snapshot().Breakpoints[0].HitCount)
	assert.Equal(t, bp.ID, w.Snapshot().Breakpoints[0].ID)
	assert.Equal(t, 1, w.Depth())

	w.Resume()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(eventually):
		t.Fatal("sync did not complete after resume")
	}

	v, ok := w.Variable("status")
	require.True(t, ok)
	assert.Equal(t, "done", v.Value)
	assert.Equal(t, 0, w.Depth())
	assert.Equal(t, StateRunning, w.State())
}
