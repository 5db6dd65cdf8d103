package debug

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear <function>",
	Short: "清除指定函数上的断点",
	Long:  `清除指定函数上的所有断点`,
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupBreakpoints,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return errors.New("参数错误")
		}

		// 移除断点
		if err := CurrentSession.ws.RemoveBreakpoint(args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "移除断点成功")
		return nil
	},
}

func init() {
	debugRootCmd.AddCommand(clearCmd)
}
