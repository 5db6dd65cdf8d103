package debug

import (
	"fmt"

	"github.com/spf13/cobra"
)

var breaksCmd = &cobra.Command{
	Use:     "breaks",
	Short:   "列出所有断点",
	Long:    "列出所有断点",
	Aliases: []string{"bs", "breakpoints"},
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupBreakpoints,
	},
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		bps := CurrentSession.ws.Snapshot().Breakpoints
		if len(bps) == 0 {
			fmt.Fprintln(out, "no breakpoints")
			return
		}
		for _, b := range bps {
			state := "enabled"
			if !b.Enabled {
				state = "disabled"
			}
			fmt.Fprintf(out, "breakpoint[%d] %-20s %-8s hits:%d", b.ID, b.Key, state, b.HitCount)
			if b.Cond != "" {
				fmt.Fprintf(out, " if %s", b.Cond)
			}
			fmt.Fprintln(out)
		}
	},
}

func init() {
	debugRootCmd.AddCommand(breaksCmd)
}
