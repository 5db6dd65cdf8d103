package debug

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var toggleCmd = &cobra.Command{
	Use:     "toggle <function>",
	Short:   "启用或禁用断点",
	Aliases: []string{"t"},
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupBreakpoints,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return errors.New("参数错误")
		}

		enabled, err := CurrentSession.ws.ToggleBreakpoint(args[0])
		if err != nil {
			return err
		}
		state := "disabled"
		if enabled {
			state = "enabled"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "breakpoint %s %s\n", args[0], state)
		return nil
	},
}

func init() {
	debugRootCmd.AddCommand(toggleCmd)
}
