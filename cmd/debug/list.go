package debug

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list [file:lineno]",
	Short:   "查看源码信息",
	Long:    "查看源码信息，不指定位置时显示当前函数调用处附近的源码",
	Aliases: []string{"l"},
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupSource,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			file   string
			lineno int
			err    error
		)

		// parse location
		if len(args) != 0 {
			file, lineno, err = parseFileLineno(args[0])
			if err != nil {
				return err
			}
		} else {
			s := CurrentSession.ws.Snapshot()
			if s.CurrentFile == "" {
				return errors.New("no current location, nothing is being called")
			}
			file, lineno = s.CurrentFile, s.CurrentLine
			fmt.Fprintf(cmd.OutOrStdout(), "%s called at %s:%d\n", s.CurrentFunction, file, lineno)
		}

		// print lines
		return listFileLines(cmd.OutOrStdout(), file, lineno, 5)
	},
}

func init() {
	debugRootCmd.AddCommand(listCmd)
}

// listFileLines prints rng lines around the 1-based lineno
func listFileLines(out io.Writer, file string, lineno, rng int) error {
	lines, offset, err := listFile(file, lineno, rng)
	if err != nil {
		return fmt.Errorf("list file err: %v", err)
	}

	// use 1-based counter
	idx := offset + 1
	for _, ln := range lines {
		if idx != lineno {
			fmt.Fprintf(out, "%-4s\t%d\t%s\n", "", idx, ln)
		} else {
			fmt.Fprintf(out, "%-4s\t%d\t%s\n", "=>", idx, ln)
		}
		idx++
	}
	return nil
}

// must be form file:lineno, like main.go:100
func parseFileLineno(s string) (file string, lineno int, err error) {
	i := strings.LastIndex(s, ":")
	if i <= 0 {
		err = fmt.Errorf("invalid location: %s, must be file:lineno", s)
		return
	}

	file = s[:i]
	v, err := strconv.Atoi(s[i+1:])
	if err != nil || v <= 0 {
		err = fmt.Errorf("invalid location: %s, must be file:lineno", s)
		return
	}
	lineno = v
	return
}

// return value `offset` is zero-based counter
func listFile(file string, lineno, rng int) (lines []string, offset int, err error) {
	dat, err := os.ReadFile(file)
	if err != nil {
		err = fmt.Errorf("read file err: %v", err)
		return
	}

	raw := strings.Split(string(dat), "\n")
	count := len(raw)

	begin := lineno - 1 - rng
	if begin < 0 {
		begin = 0
	}
	if begin > count {
		return
	}

	end := lineno + rng
	if end > count {
		end = count
	}

	return raw[begin:end], begin, nil
}
