package debug

import (
	"fmt"

	"github.com/spf13/cobra"
)

var stepCmd = &cobra.Command{
	Use:     "step",
	Short:   "执行一次被跟踪的函数调用，然后暂停",
	Aliases: []string{"s", "next", "n"},
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupCtrlFlow,
	},
	Run: func(cmd *cobra.Command, args []string) {
		ws := CurrentSession.ws
		ws.Step()

		fmt.Fprint(cmd.OutOrStdout(), "single step ok")
		if s := ws.Snapshot(); s.CurrentFunction != "" {
			fmt.Fprintf(cmd.OutOrStdout(), ", current function: %s", s.CurrentFunction)
		}
		fmt.Fprintln(cmd.OutOrStdout())
	},
}

func init() {
	debugRootCmd.AddCommand(stepCmd)
}
