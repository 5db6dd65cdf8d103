// Package input turns user actions into execution control calls. Every
// source only talks to a Controller; none of them touch workspace state
// directly.
package input

import (
	"errors"

	"github.com/FengmingYu-tech/JobSyncd/pkg/workspace"
)

var (
	ErrNotTerminal = errors.New("stdin is not a terminal")
)

// Controller is the control surface input sources drive.
type Controller interface {
	Pause()
	Resume()
	Step()
	State() workspace.State
	AddBreakpoint(key string, pred workspace.Predicate) *workspace.Breakpoint
	HasBreakpoint(key string) bool
	Watch(name string)
	Log(format string, args ...any)
}

var _ Controller = (*workspace.Workspace)(nil)

// Diagnostics names the breakpoint and watches the `b` and `w` keys add.
type Diagnostics struct {
	Breakpoint string
	Watches    []string
}

// DefaultDiagnostics targets the mail fetch stage of the sync workflow.
func DefaultDiagnostics() Diagnostics {
	return Diagnostics{
		Breakpoint: "fetchMessages",
		Watches:    []string{"emails_count", "task_result"},
	}
}
