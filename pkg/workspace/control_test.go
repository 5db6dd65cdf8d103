package workspace

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func TestControl_Transitions(t *testing.T) {
	w := newTestWorkspace()
	assert.Equal(t, StateRunning, w.State())

	before := len(w.Snapshot().Log)
	w.Resume()
	assert.Equal(t, StateRunning, w.State())
	assert.Len(t, w.Snapshot().Log, before, "resume while running is a no-op")

	w.Pause()
	assert.Equal(t, StatePaused, w.State())
	w.Pause()
	assert.Equal(t, StatePaused, w.State())

	w.Step()
	assert.Equal(t, StateStepPending, w.State())
	assert.Equal(t, "stepping", w.State().String())

	w.Resume()
	assert.Equal(t, StateRunning, w.State())
}

func TestControl_StepAdmitsExactlyOneCall(t *testing.T) {
	w := newTestWorkspace()
	var calls atomic.Int32
	work := Instrument(w, "work", func(ctx context.Context) (int, error) {
		return int(calls.Inc()), nil
	})

	w.Pause()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 3; i++ {
			_, _ = work(context.Background())
		}
	}()

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())

	w.Step()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, eventually, tick)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, StatePaused, w.State())

	w.Step()
	require.Eventually(t, func() bool { return calls.Load() == 2 }, eventually, tick)

	w.Resume()
	select {
	case <-done:
	case <-time.After(eventually):
		t.Fatal("calls did not finish after resume")
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestControl_StepWhileRunning(t *testing.T) {
	w := newTestWorkspace()
	var calls atomic.Int32
	work := Instrument(w, "work", func(ctx context.Context) (int, error) {
		return int(calls.Inc()), nil
	})

	w.Step()
	_, err := work(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatePaused, w.State())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = work(context.Background())
	}()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	w.Resume()
	<-done
	assert.Equal(t, int32(2), calls.Load())
}

func TestControl_BreakpointDuringStepRuns(t *testing.T) {
	w := newTestWorkspace()
	w.AddBreakpoint("work", nil)
	var calls atomic.Int32
	work := Instrument(w, "work", func(ctx context.Context) (int, error) {
		return int(calls.Inc()), nil
	})

	w.Pause()
	w.Step()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = work(context.Background())
	}()

	select {
	case <-done:
	case <-time.After(eventually):
		t.Fatal("stepped call did not run")
	}
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, StatePaused, w.State())
	assert.Equal(t, 1, w.Snapshot().Breakpoints[0].HitCount)
}

func TestControl_ContextCancelWhilePaused(t *testing.T) {
	w := newTestWorkspace()
	var ran atomic.Bool
	work := Instrument(w, "work", func(ctx context.Context) (int, error) {
		ran.Store(true)
		return 1, nil
	})

	w.Pause()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := work(ctx)
		errc <- err
	}()

	require.Eventually(t, func() bool { return w.Depth() == 1 }, eventually, tick)
	cancel()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(eventually):
		t.Fatal("paused call ignored cancellation")
	}
	assert.False(t, ran.Load())
	assert.Equal(t, 0, w.Depth())
	assert.Equal(t, StatePaused, w.State())
}

func TestControl_ConcurrentCallersShareGate(t *testing.T) {
	w := newTestWorkspace()
	var calls atomic.Int32
	work := Instrument(w, "work", func(ctx context.Context) (int, error) {
		return int(calls.Inc()), nil
	})

	w.Pause()
	const n = 8
	done := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		go func() {
			_, _ = work(context.Background())
			done <- struct{}{}
		}()
	}
	require.Eventually(t, func() bool { return w.Depth() == n }, eventually, tick)
	assert.Equal(t, int32(0), calls.Load())

	w.Resume()
	for i := 0; i < n; i++ {
		select {
		case <-done:
		case <-time.After(eventually):
			t.Fatal("caller still blocked after resume")
		}
	}
	assert.Equal(t, int32(n), calls.Load())
	assert.Equal(t, 0, w.Depth())
}
