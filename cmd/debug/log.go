package debug

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "查看执行日志",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupInfo,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := cmd.Flags().GetInt("n")
		if err != nil {
			return err
		}

		entries := CurrentSession.ws.Snapshot().Log
		if n > 0 && len(entries) > n {
			entries = entries[len(entries)-n:]
		}
		for _, e := range entries {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %-10s %s\n", e.Time.Format("15:04:05.000"), e.Kind, e.Message)
		}
		return nil
	},
}

func init() {
	debugRootCmd.AddCommand(logCmd)

	logCmd.Flags().IntP("n", "n", 20, "显示最近的n条日志，0表示全部")
}
