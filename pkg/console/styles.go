package console

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/FengmingYu-tech/JobSyncd/pkg/workspace"
)

var (
	colorPrimary = lipgloss.Color("39")  // blue
	colorOK      = lipgloss.Color("42")  // green
	colorWarn    = lipgloss.Color("214") // orange
	colorError   = lipgloss.Color("196") // red
	colorMuted   = lipgloss.Color("245") // gray
	colorWatch   = lipgloss.Color("201") // magenta

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	titleStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	panelStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	changedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorWarn)
	footerStyle  = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)

	stateStyles = map[workspace.State]lipgloss.Style{
		workspace.StateRunning:     lipgloss.NewStyle().Bold(true).Foreground(colorOK),
		workspace.StatePaused:      lipgloss.NewStyle().Bold(true).Foreground(colorError),
		workspace.StateStepPending: lipgloss.NewStyle().Bold(true).Foreground(colorWarn),
	}

	kindStyles = map[workspace.LogKind]lipgloss.Style{
		workspace.KindInfo:       lipgloss.NewStyle(),
		workspace.KindCall:       lipgloss.NewStyle().Foreground(colorPrimary),
		workspace.KindReturn:     mutedStyle,
		workspace.KindBreakpoint: lipgloss.NewStyle().Bold(true).Foreground(colorError),
		workspace.KindPause:      lipgloss.NewStyle().Foreground(colorWarn),
		workspace.KindWatch:      lipgloss.NewStyle().Bold(true).Foreground(colorWatch),
		workspace.KindError:      lipgloss.NewStyle().Foreground(colorError),
	}
)

func stateStyle(s workspace.State) lipgloss.Style {
	if st, ok := stateStyles[s]; ok {
		return st
	}
	return lipgloss.NewStyle()
}

func kindStyle(k workspace.LogKind) lipgloss.Style {
	if st, ok := kindStyles[k]; ok {
		return st
	}
	return lipgloss.NewStyle()
}
