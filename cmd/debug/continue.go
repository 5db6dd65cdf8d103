package debug

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FengmingYu-tech/JobSyncd/pkg/workspace"
)

var continueCmd = &cobra.Command{
	Use:   "continue",
	Short: "运行到下个断点",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupCtrlFlow,
	},
	Aliases: []string{"c"},
	Run: func(cmd *cobra.Command, args []string) {
		ws := CurrentSession.ws
		if ws.State() == workspace.StateRunning {
			fmt.Fprintln(cmd.OutOrStdout(), "already running")
			return
		}
		ws.Resume()
		fmt.Fprintln(cmd.OutOrStdout(), "continue ok")
	},
}

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "在下一次函数调用前暂停",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupCtrlFlow,
	},
	Aliases: []string{"p"},
	Run: func(cmd *cobra.Command, args []string) {
		CurrentSession.ws.Pause()
		fmt.Fprintln(cmd.OutOrStdout(), "paused")
	},
}

func init() {
	debugRootCmd.AddCommand(continueCmd)
	debugRootCmd.AddCommand(pauseCmd)
}
