package debug

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var backtraceCmd = &cobra.Command{
	Use:     "bt",
	Short:   "打印调用栈信息",
	Aliases: []string{"backtrace"},
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupInfo,
	},
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		stack := CurrentSession.ws.Snapshot().Stack
		if len(stack) == 0 {
			fmt.Fprintln(out, "no active calls")
			return
		}

		// newest first, #0 is the call about to run or running
		idx := 0
		for i := len(stack) - 1; i >= 0; i-- {
			f := stack[i]
			fmt.Fprintf(out, "#%d call:%s pos:%s", idx, f.Function, f.Location())
			if a := formatArgs(f.Args); a != "" {
				fmt.Fprintf(out, " args:(%s)", a)
			}
			fmt.Fprintln(out)
			idx++
		}
	},
}

func init() {
	debugRootCmd.AddCommand(backtraceCmd)
}

func formatArgs(args map[string]string) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, args[k]))
	}
	return strings.Join(parts, ", ")
}
