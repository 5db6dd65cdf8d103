package debug

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var printCmd = &cobra.Command{
	Use:   "print <var> [path]",
	Short: "打印变量值",
	Long: `打印变量值，可以用gjson路径选取结构化变量的一部分:

  print result
  print result task_ids.0
  print fetchMessages_result #.subject`,
	Aliases: []string{"pr"},
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupInfo,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("need variable name")
		}

		v, ok := CurrentSession.ws.Variable(args[0])
		if !ok {
			return fmt.Errorf("variable %s not found", args[0])
		}

		out := cmd.OutOrStdout()
		dat, err := json.Marshal(v.Value)
		if err != nil {
			// not representable as JSON, fall back to the Go formatting
			fmt.Fprintf(out, "%s (%s) = %v\n", v.Name, v.Type, v.Value)
			return nil
		}

		if len(args) == 1 {
			fmt.Fprintf(out, "%s (%s) = %s\n", v.Name, v.Type, gjson.ParseBytes(dat).Get("@pretty").String())
			return nil
		}

		res := gjson.GetBytes(dat, args[1])
		if !res.Exists() {
			return fmt.Errorf("path %s not found in %s", args[1], v.Name)
		}
		fmt.Fprintf(out, "%s.%s = %s\n", v.Name, args[1], res.Raw)
		return nil
	},
}

func init() {
	debugRootCmd.AddCommand(printCmd)
}
