package workspace

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// maxValueLen bounds argument strings kept on a frame and values quoted in
// log messages.
const maxValueLen = 50

// Variable is one published workspace variable.
type Variable struct {
	Name      string
	Value     any
	Type      string
	Location  string
	UpdatedAt time.Time
	Changed   bool
}

// Frame is a recorded invocation on the display call stack.
type Frame struct {
	ID        uint64
	Function  string
	Args      map[string]string
	File      string
	Line      int
	EnteredAt time.Time
}

// Location returns "file:line", or "" when the caller is unknown.
func (f Frame) Location() string {
	if f.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", f.File, f.Line)
}

// LogKind classifies execution log entries for display.
type LogKind int

const (
	KindInfo LogKind = iota
	KindCall
	KindReturn
	KindBreakpoint
	KindPause
	KindWatch
	KindError
)

func (k LogKind) String() string {
	switch k {
	case KindCall:
		return "call"
	case KindReturn:
		return "return"
	case KindBreakpoint:
		return "breakpoint"
	case KindPause:
		return "pause"
	case KindWatch:
		return "watch"
	case KindError:
		return "error"
	default:
		return "info"
	}
}

// LogEntry is one line of the execution log.
type LogEntry struct {
	Message string
	Kind    LogKind
	Time    time.Time
}

// truncate shortens s to n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// short formats v for frames and log messages.
func short(v any) string {
	return truncate(fmt.Sprint(v), maxValueLen)
}

// argSnapshot renders call arguments as name -> truncated string.
func argSnapshot(args Args) map[string]string {
	out := make(map[string]string, len(args.Positional)+len(args.Keyword))
	for i, v := range args.Positional {
		out[fmt.Sprintf("arg%d", i)] = short(v)
	}
	for k, v := range args.Keyword {
		out[k] = short(v)
	}
	return out
}
