package debug

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/FengmingYu-tech/JobSyncd/pkg/workspace"
)

const (
	cmdGroupAnnotation = "cmd_group_annotation"

	cmdGroupBreakpoints = "1-breaks"
	cmdGroupSource      = "2-source"
	cmdGroupCtrlFlow    = "3-execute"
	cmdGroupInfo        = "4-info"
	cmdGroupOthers      = "5-other"
	cmdGroupCobra       = "other"

	cmdGroupDelimiter = "-"

	prefix    = "jobsyncd> "
	descShort = "jobsyncd interactive debugging commands"
)

var debugRootCmd = &cobra.Command{
	Use:           "help [command]",
	Short:         descShort,
	SilenceUsage:  true,
	SilenceErrors: true,

	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
}

var (
	CurrentSession *DebugSession

	// execMu 串行化对debugRootCmd的使用
	execMu sync.Mutex
)

// DebugSession 调试会话
type DebugSession struct {
	done   chan bool
	prefix string
	root   *cobra.Command
	liner  *liner.State
	last   string

	ws  *workspace.Workspace
	out io.Writer

	stopOnce sync.Once
	defers   []func()

	lmu    sync.Mutex // guards liner and closed
	closed bool
}

// NewDebugSession 创建一个debug专用的交互管理器，命令输出写到out
func NewDebugSession(ws *workspace.Workspace, out io.Writer) *DebugSession {
	if out == nil {
		out = os.Stdout
	}

	fn := func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		// 描述信息
		fmt.Fprintln(w, cmd.Short)
		fmt.Fprintln(w)

		// 使用信息
		fmt.Fprintln(w, cmd.Use)
		fmt.Fprintln(w, cmd.Flags().FlagUsages())

		// 命令分组
		if cmd == debugRootCmd {
			fmt.Fprintln(w, helpMessageByGroups(cmd))
		}
	}
	debugRootCmd.SetHelpFunc(fn)

	return &DebugSession{
		done:   make(chan bool),
		prefix: prefix,
		root:   debugRootCmd,
		last:   "",
		ws:     ws,
		out:    out,
	}
}

// Workspace 返回会话控制的工作区
func (s *DebugSession) Workspace() *workspace.Workspace {
	return s.ws
}

// Start 运行交互循环，直到exit、Ctrl+D或Stop
func (s *DebugSession) Start() {
	l := liner.NewLiner()
	l.SetCompleter(completer)
	l.SetTabCompletionStyle(liner.TabPrints)
	l.SetCtrlCAborts(true)

	s.lmu.Lock()
	s.liner = l
	s.lmu.Unlock()

	defer func() {
		s.Close()
		for idx := len(s.defers) - 1; idx >= 0; idx-- {
			s.defers[idx]()
		}
	}()

	for {
		select {
		case <-s.done:
			return
		default:
		}

		txt, err := l.Prompt(s.prefix)
		if errors.Is(err, liner.ErrPromptAborted) {
			// 提示符下Ctrl+C放行暂停中的工作流
			if s.ws.State() != workspace.StateRunning {
				s.ws.Resume()
			} else {
				fmt.Fprintln(s.out, "use `exit` to quit")
			}
			continue
		}
		if err != nil {
			// Ctrl+D返回io.EOF
			s.Stop()
			continue
		}

		txt = strings.TrimSpace(txt)
		if len(txt) != 0 {
			s.last = txt
			l.AppendHistory(txt)
		} else {
			txt = s.last
		}
		if txt == "" {
			continue
		}

		if err := s.Exec(txt); err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
}

// Exec 执行一行调试命令，可并发调用，控制通道和提示符共用同一棵命令树
func (s *DebugSession) Exec(line string) error {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil
	}

	execMu.Lock()
	defer execMu.Unlock()

	prev := CurrentSession
	CurrentSession = s
	defer func() { CurrentSession = prev }()

	resetFlags(s.root)
	s.root.SetOut(s.out)
	s.root.SetErr(s.out)
	s.root.SetArgs(args)
	_, err := s.root.ExecuteC()
	return err
}

// resetFlags 把上一行命令设置的选项恢复为默认值
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	}
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func (s *DebugSession) AtExit(fn func()) *DebugSession {
	s.defers = append(s.defers, fn)
	return s
}

// Close 恢复终端设置，可重复调用，会话未启动时不做任何事
func (s *DebugSession) Close() {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	if s.liner == nil || s.closed {
		return
	}
	s.closed = true
	s.liner.Close()
}

// Stop 在当前命令结束后退出交互循环
func (s *DebugSession) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// Done 会话结束后关闭
func (s *DebugSession) Done() <-chan bool {
	return s.done
}

func completer(line string) []string {
	cmds := []string{}
	for _, c := range debugRootCmd.Commands() {
		// complete cmd
		if strings.HasPrefix(c.Use, line) {
			cmds = append(cmds, strings.Split(c.Use, " ")[0])
		}
		// complete cmd's aliases
		for _, alias := range c.Aliases {
			if strings.HasPrefix(alias, line) {
				cmds = append(cmds, alias)
			}
		}
	}
	return cmds
}

// helpMessageByGroups 将各个命令按照分组归类，再展示帮助信息
func helpMessageByGroups(cmd *cobra.Command) string {

	// key:group, val:sorted commands in same group
	groups := map[string][]string{}
	for _, c := range cmd.Commands() {
		// 如果没有指定命令分组，放入other组
		groupName, ok := c.Annotations[cmdGroupAnnotation]
		if !ok {
			groupName = cmdGroupCobra
		}

		groupCmds := append(groups[groupName], fmt.Sprintf("  %-16s:%s", c.Name(), c.Short))
		sort.Strings(groupCmds)
		groups[groupName] = groupCmds
	}

	if len(groups[cmdGroupCobra]) != 0 {
		groups[cmdGroupOthers] = append(groups[cmdGroupOthers], groups[cmdGroupCobra]...)
	}
	delete(groups, cmdGroupCobra)

	// 按照分组名进行排序
	groupNames := []string{}
	for k := range groups {
		groupNames = append(groupNames, k)
	}
	sort.Strings(groupNames)

	// 按照group分组，并对组内命令进行排序
	buf := bytes.Buffer{}
	for _, groupName := range groupNames {
		group := strings.Split(groupName, cmdGroupDelimiter)[1]
		buf.WriteString(fmt.Sprintf("- [%s]\n", group))

		for _, cmd := range groups[groupName] {
			buf.WriteString(fmt.Sprintf("%s\n", cmd))
		}
		buf.WriteString("\n")
	}
	return buf.String()
}
