package debug

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var breakCmd = &cobra.Command{
	Use:   "break <function>",
	Short: "在函数调用处添加断点",
	Long: `在被跟踪的函数调用处添加断点，函数调用前暂停执行。

<function>可以是完整函数名，也可以是函数名的一部分:
- fetchMessages      匹配 fetchMessages
- fetch              匹配 fetchMessages、prefetch等

--cond 指定条件表达式，可以访问 args、kwargs、arg0..argN:
- break createTask --cond 'arg0.Label == "offer"'`,
	Aliases: []string{"b", "breakpoint"},
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupBreakpoints,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return errors.New("参数错误")
		}

		cond, err := cmd.Flags().GetString("cond")
		if err != nil {
			return err
		}

		bp, err := CurrentSession.ws.AddBreakpointCond(args[0], cond)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "add breakpoint %d at %s\n", bp.ID, bp.Key)
		return nil
	},
}

func init() {
	debugRootCmd.AddCommand(breakCmd)

	breakCmd.Flags().StringP("cond", "c", "", "断点条件表达式")
}
