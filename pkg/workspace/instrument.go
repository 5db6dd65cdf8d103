package workspace

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"time"

	"go.uber.org/atomic"
)

var (
	frameSeqNo = atomic.NewUint64(0)
)

// callerDepth is the runtime.Caller depth of instrumented code as seen from
// invoke: invoke <- wrapper closure (or Call) <- caller.
const callerDepth = 2

// Instrument wraps fn so that every invocation is recorded on the call
// stack, checked against breakpoints and gated by the execution control.
// An empty name uses the runtime symbol name of fn.
func Instrument[R any](w *Workspace, name string, fn func(context.Context) (R, error)) func(context.Context) (R, error) {
	if name == "" {
		name = funcName(fn)
	}
	return func(ctx context.Context) (R, error) {
		return invoke(ctx, w, name, Args{}, fn)
	}
}

// Instrument1 is Instrument for a function taking one argument.
func Instrument1[A, R any](w *Workspace, name string, fn func(context.Context, A) (R, error)) func(context.Context, A) (R, error) {
	if name == "" {
		name = funcName(fn)
	}
	return func(ctx context.Context, a A) (R, error) {
		return invoke(ctx, w, name, Args{Positional: []any{a}}, func(ctx context.Context) (R, error) {
			return fn(ctx, a)
		})
	}
}

// Instrument2 is Instrument for a function taking two arguments.
func Instrument2[A, B, R any](w *Workspace, name string, fn func(context.Context, A, B) (R, error)) func(context.Context, A, B) (R, error) {
	if name == "" {
		name = funcName(fn)
	}
	return func(ctx context.Context, a A, b B) (R, error) {
		return invoke(ctx, w, name, Args{Positional: []any{a, b}}, func(ctx context.Context) (R, error) {
			return fn(ctx, a, b)
		})
	}
}

// Call runs fn as an instrumented invocation named name with the given
// arguments, for call sites that do not fit the Instrument helpers.
func (w *Workspace) Call(ctx context.Context, name string, args Args, fn func(context.Context) (any, error)) (any, error) {
	return invoke(ctx, w, name, args, fn)
}

func invoke[R any](ctx context.Context, w *Workspace, name string, args Args, fn func(context.Context) (R, error)) (R, error) {
	frame := Frame{
		ID:        frameSeqNo.Add(1),
		Function:  name,
		Args:      argSnapshot(args),
		EnteredAt: time.Now(),
	}
	if _, file, line, ok := runtime.Caller(callerDepth); ok {
		frame.File, frame.Line = file, line
	}

	w.pushCall(frame)
	defer func() {
		if r := recover(); r != nil {
			w.callFailed(name, fmt.Errorf("panic: %v", r))
			w.popCall(frame.ID, name)
			panic(r)
		}
	}()

	if w.Evaluate(name, args) != nil {
		w.breakpointHit()
	}

	if err := w.wait(ctx); err != nil {
		w.callFailed(name, err)
		w.popCall(frame.ID, name)
		var zero R
		return zero, err
	}

	result, err := fn(ctx)
	if err != nil {
		w.callFailed(name, err)
		w.popCall(frame.ID, name)
		return result, err
	}

	if !isNil(result) {
		w.UpdateVariable(ShortName(name)+"_result", result, name)
	}
	w.popCall(frame.ID, name)
	return result, nil
}

func (w *Workspace) callFailed(name string, err error) {
	w.mu.Lock()
	defer w.unlock()
	w.appendLog(KindError, fmt.Sprintf("✗ %s failed: %v", name, err))
}

// ShortName strips the package and receiver qualifiers from a function
// identifier: "agent.(*Sync).fetch" -> "fetch".
func ShortName(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}

func funcName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return "unknown"
	}
	if f := runtime.FuncForPC(v.Pointer()); f != nil {
		return f.Name()
	}
	return "unknown"
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
