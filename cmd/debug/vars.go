package debug

import (
	"fmt"

	"github.com/spf13/cobra"
)

var varsCmd = &cobra.Command{
	Use:   "vars",
	Short: "列出所有变量，*表示最近一次更新改变了值",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupInfo,
	},
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		s := CurrentSession.ws.Snapshot()
		if len(s.Variables) == 0 {
			fmt.Fprintln(out, "no variables")
			return
		}

		watched := map[string]bool{}
		for _, name := range s.Watched {
			watched[name] = true
		}

		for _, name := range s.VariableNames() {
			v := s.Variables[name]
			mark := " "
			if v.Changed {
				mark = "*"
			}
			if watched[name] {
				mark += "w"
			} else {
				mark += " "
			}
			fmt.Fprintf(out, "%s %-20s %-16s %s  @%s\n", mark, name, v.Type, clip(fmt.Sprint(v.Value), 60), v.Location)
		}
	},
}

var watchCmd = &cobra.Command{
	Use:     "watch <var>...",
	Short:   "监视变量，值变化时在日志中高亮",
	Aliases: []string{"w"},
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupInfo,
	},
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range args {
			CurrentSession.ws.Watch(name)
			fmt.Fprintf(cmd.OutOrStdout(), "watching %s\n", name)
		}
	},
}

var unwatchCmd = &cobra.Command{
	Use:   "unwatch <var>...",
	Short: "取消监视变量",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupInfo,
	},
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range args {
			CurrentSession.ws.Unwatch(name)
		}
	},
}

func init() {
	debugRootCmd.AddCommand(varsCmd)
	debugRootCmd.AddCommand(watchCmd)
	debugRootCmd.AddCommand(unwatchCmd)
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
