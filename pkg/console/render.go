package console

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/FengmingYu-tech/JobSyncd/pkg/workspace"
)

const (
	logTail     = 30 // execution log lines shown
	valueWidth  = 60
	defaultCols = 100
)

// Render draws every panel of s for a terminal cols wide.
func Render(s workspace.Snapshot, cols int, keyboard bool) string {
	if cols <= 0 {
		cols = defaultCols
	}
	full := cols - 2
	half := full/2 - 1
	if half < 30 {
		half = full
	}

	top := joinPanels(half, full,
		panel("Variables", renderVariables(s), half),
		panel("Watched", renderWatched(s), half),
	)
	mid := joinPanels(half, full,
		panel("Call Stack", renderStack(s), half),
		panel("Current State", renderCurrent(s), half),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		renderHeader(s),
		top,
		mid,
		panel("Execution Log", renderLog(s), full),
		panel("Breakpoints", renderBreakpoints(s), full),
		renderFooter(keyboard),
	)
}

func joinPanels(half, full int, left, right string) string {
	if half == full {
		return lipgloss.JoinVertical(lipgloss.Left, left, right)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func panel(title, body string, width int) string {
	content := titleStyle.Render(title) + "\n" + body
	return panelStyle.Width(width).Render(content)
}

func renderHeader(s workspace.Snapshot) string {
	return fmt.Sprintf("%s  %s  %s",
		headerStyle.Render("jobsyncd debug workspace"),
		mutedStyle.Render("session "+shortID(s.Session)),
		stateStyle(s.State).Render(strings.ToUpper(s.State.String())),
	)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func renderVariables(s workspace.Snapshot) string {
	names := s.VariableNames()
	if len(names) == 0 {
		return mutedStyle.Render("(none)")
	}
	var b strings.Builder
	for _, name := range names {
		v := s.Variables[name]
		line := fmt.Sprintf("%s = %s", name, clip(fmt.Sprint(v.Value), valueWidth))
		if v.Changed {
			line = changedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("  " + mutedStyle.Render(v.Type))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderWatched(s workspace.Snapshot) string {
	if len(s.Watched) == 0 {
		return mutedStyle.Render("(none)")
	}
	var b strings.Builder
	for _, name := range s.Watched {
		v, ok := s.Variables[name]
		if !ok {
			fmt.Fprintf(&b, "%s = %s\n", name, mutedStyle.Render("undefined"))
			continue
		}
		line := fmt.Sprintf("%s = %s", name, clip(fmt.Sprint(v.Value), valueWidth))
		if v.Changed {
			line = changedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderStack(s workspace.Snapshot) string {
	if len(s.Stack) == 0 {
		return mutedStyle.Render("(empty)")
	}
	var b strings.Builder
	for i := len(s.Stack) - 1; i >= 0; i-- {
		f := s.Stack[i]
		fmt.Fprintf(&b, "#%d %s", len(s.Stack)-1-i, f.Function)
		if f.File != "" {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("  %s:%d", filepath.Base(f.File), f.Line)))
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderCurrent(s workspace.Snapshot) string {
	fn, loc := s.CurrentFunction, ""
	if fn == "" {
		fn = "-"
	}
	if s.CurrentFile != "" {
		loc = fmt.Sprintf("%s:%d", filepath.Base(s.CurrentFile), s.CurrentLine)
	} else {
		loc = "-"
	}
	return strings.Join([]string{
		"function:  " + fn,
		"location:  " + loc,
		fmt.Sprintf("variables: %d", len(s.Variables)),
		fmt.Sprintf("depth:     %d", s.Depth()),
		"state:     " + stateStyle(s.State).Render(s.State.String()),
	}, "\n")
}

func renderLog(s workspace.Snapshot) string {
	entries := s.Log
	if len(entries) > logTail {
		entries = entries[len(entries)-logTail:]
	}
	if len(entries) == 0 {
		return mutedStyle.Render("(empty)")
	}
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(mutedStyle.Render(e.Time.Format("15:04:05.000")))
		b.WriteString(" ")
		b.WriteString(kindStyle(e.Kind).Render(e.Message))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderBreakpoints(s workspace.Snapshot) string {
	if len(s.Breakpoints) == 0 {
		return mutedStyle.Render("(none)")
	}
	var b strings.Builder
	for _, bp := range s.Breakpoints {
		mark := "●"
		if !bp.Enabled {
			mark = "○"
		}
		fmt.Fprintf(&b, "%s %d %s  hits: %d", mark, bp.ID, bp.Key, bp.HitCount)
		if bp.Cond != "" {
			b.WriteString(mutedStyle.Render("  if " + bp.Cond))
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderFooter(keyboard bool) string {
	if !keyboard {
		return footerStyle.Render("keyboard disabled: Ctrl+C resumes when paused, quits when running")
	}
	return footerStyle.Render("[c] continue  [s] step  [p] pause  [b] break  [w] watch  [q] quit")
}

func clip(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
