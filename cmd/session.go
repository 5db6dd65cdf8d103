package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/FengmingYu-tech/JobSyncd/cmd/debug"
	"github.com/FengmingYu-tech/JobSyncd/pkg/agent"
	"github.com/FengmingYu-tech/JobSyncd/pkg/console"
	"github.com/FengmingYu-tech/JobSyncd/pkg/input"
	"github.com/FengmingYu-tech/JobSyncd/pkg/logging"
	"github.com/FengmingYu-tech/JobSyncd/pkg/mail"
	"github.com/FengmingYu-tech/JobSyncd/pkg/workspace"
)

// console modes
const (
	consoleLive  = "live"
	consoleShell = "shell"
	consoleNone  = "none"
)

var defaultWatches = []string{"status", "result"}

// sessionFlags are the debugger flags shared by run and demo.
type sessionFlags struct {
	breaks  []string
	watches []string
	console string
	control string
	pause   bool
}

func (f *sessionFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringArrayVarP(&f.breaks, "break", "b", nil, "add a breakpoint, `function` or function:condition (repeatable)")
	fs.StringSliceVarP(&f.watches, "watch", "w", nil, "watch variables, besides status and result")
	fs.StringVar(&f.console, "console", consoleLive, "console mode: live, shell or none")
	fs.StringVar(&f.control, "control", "", "read debugger commands line by line from this file or fifo")
	fs.BoolVar(&f.pause, "pause", false, "start paused, before the first call")
}

func (f *sessionFlags) validate() error {
	switch f.console {
	case consoleLive, consoleShell, consoleNone:
	default:
		return fmt.Errorf("invalid console mode %q, want live, shell or none", f.console)
	}
	for _, spec := range f.breaks {
		if key, _ := parseBreak(spec); key == "" {
			return fmt.Errorf("invalid breakpoint %q", spec)
		}
	}
	return nil
}

// parseBreak splits "function:condition". Function names never contain a
// colon, so the condition may.
func parseBreak(spec string) (key, cond string) {
	key, cond, _ = strings.Cut(spec, ":")
	return strings.TrimSpace(key), strings.TrimSpace(cond)
}

// session is the debug environment of one sync run.
type session struct {
	flags    *sessionFlags
	settings settings
	out      io.Writer

	logger *slog.Logger
	ws     *workspace.Workspace
	shell  *debug.DebugSession
	exit   func(code int)

	mu       sync.Mutex
	keyboard *input.Keyboard
	con      *console.Console

	cancel context.CancelFunc
}

func newSession(f *sessionFlags, s settings, out io.Writer) (*session, func() error, error) {
	if err := f.validate(); err != nil {
		return nil, nil, err
	}

	logCfg := s.Log
	if f.console == consoleLive && logCfg.File == "" {
		// the live console owns the terminal
		logCfg.Output = io.Discard
	}
	logger, closeLog, err := logging.New(logCfg)
	if err != nil {
		return nil, nil, err
	}

	opts := s.workspaceOptions()
	opts.Logger = logging.WithComponent(logger, "workspace")
	ws := workspace.New(opts)
	logger = logger.With(logging.Session(ws.ID()))

	for _, spec := range f.breaks {
		key, cond := parseBreak(spec)
		if _, err := ws.AddBreakpointCond(key, cond); err != nil {
			closeLog()
			return nil, nil, fmt.Errorf("breakpoint %q: %w", spec, err)
		}
	}
	for _, name := range append(append([]string{}, defaultWatches...), f.watches...) {
		if name = strings.TrimSpace(name); name != "" {
			ws.Watch(name)
		}
	}

	shellOut := io.Discard
	if f.console == consoleShell {
		shellOut = out
	}

	return &session{
		flags:    f,
		settings: s,
		out:      out,
		logger:   logger,
		ws:       ws,
		shell:    debug.NewDebugSession(ws, shellOut),
		exit:     os.Exit,
	}, closeLog, nil
}

// quit terminates the process at once for q, Ctrl+C and TERM/QUIT. The
// terminal is released first; wrapped calls still in flight are abandoned.
func (s *session) quit() {
	s.logger.Info("quit requested")

	s.mu.Lock()
	kb, con := s.keyboard, s.con
	s.mu.Unlock()
	if kb != nil {
		kb.Stop()
	}
	if con != nil {
		con.Stop()
	}
	s.shell.Close()
	s.exit(0)
}

// abort cancels the run; used for `exit` over the control channel.
func (s *session) abort() {
	s.logger.Info("abort requested")
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *session) setDevices(kb *input.Keyboard, con *console.Console) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keyboard, s.con = kb, con
}

func (s *session) keyboardSource() *input.Keyboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keyboard
}

// run executes wf under the configured console and input devices.
func (s *session) run(ctx context.Context, wf *agent.Workflow) (agent.Result, error) {
	ctx, s.cancel = context.WithCancel(ctx)
	defer s.cancel()

	if s.flags.pause {
		s.ws.Pause()
	}

	signals := input.NewSignals(s.ws, s.quit)
	signals.Start()
	defer signals.Stop()

	if s.flags.control != "" {
		lines := input.NewLines(s.ws, s.shell.Exec, logging.WithComponent(s.logger, "control"))
		go func() {
			if err := lines.ServeFile(ctx, s.flags.control); err != nil && !errors.Is(err, context.Canceled) {
				s.ws.Log("control channel closed: %v", err)
				s.logger.Warn("control channel closed", logging.Err(err))
			}
		}()
		s.ws.Log("💡 reading debugger commands from %s", s.flags.control)
	}

	switch s.flags.console {
	case consoleLive:
		return s.runLive(ctx, wf)
	case consoleShell:
		return s.runShell(ctx, wf)
	default:
		return s.runHeadless(ctx, wf)
	}
}

func (s *session) runHeadless(ctx context.Context, wf *agent.Workflow) (agent.Result, error) {
	s.watchExit(ctx)
	s.watchConfig()
	return wf.Run(ctx)
}

func (s *session) runLive(ctx context.Context, wf *agent.Workflow) (agent.Result, error) {
	con := console.New(s.ws, console.Options{Out: s.out, Refresh: s.settings.RefreshInterval})

	kb := input.NewKeyboard(s.ws, os.Stdin, s.quit, logging.WithComponent(s.logger, "keyboard"))
	kb.SetDiagnostics(s.settings.Diagnostics)
	s.setDevices(kb, con)
	err := kb.Start()
	con.SetKeyboard(err == nil)
	if err == nil {
		s.ws.Log("💡 keys: c continue, s step, p pause, b breakpoint, w watch, q quit")
	} else {
		s.ws.Log("💡 keyboard disabled, Ctrl+C resumes a paused run")
	}

	s.watchExit(ctx)
	s.watchConfig()

	con.Start()
	res, runErr := wf.Run(ctx)
	kb.Stop()
	con.Stop()
	return res, runErr
}

func (s *session) runShell(ctx context.Context, wf *agent.Workflow) (agent.Result, error) {
	type outcome struct {
		res agent.Result
		err error
	}
	ch := make(chan outcome, 1)

	s.ws.Log("💡 debugger shell ready, type help for commands")
	s.watchConfig()

	go func() {
		res, err := wf.Run(ctx)
		if err != nil {
			fmt.Fprintf(s.out, "\nsync failed: %v\n", err)
		} else {
			fmt.Fprintf(s.out, "\nsync finished: %s\n", res)
		}
		ch <- outcome{res, err}
	}()

	debug.CurrentSession = s.shell.AtExit(debug.Cleanup)
	debug.CurrentSession.Start()

	// leaving the shell ends the run
	s.cancel()
	o := <-ch
	return o.res, o.err
}

// watchExit aborts the run when `exit` arrives over the control channel.
func (s *session) watchExit(ctx context.Context) {
	go func() {
		select {
		case <-s.shell.Done():
			s.abort()
		case <-ctx.Done():
		}
	}()
}

// watchConfig reloads the keyboard diagnostics when the config file changes.
func (s *session) watchConfig() {
	if viper.ConfigFileUsed() == "" {
		return
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		d := diagnostics(viper.GetViper())
		if kb := s.keyboardSource(); kb != nil {
			kb.SetDiagnostics(d)
		}
		s.ws.Log("config %s reloaded, b adds %s, w watches %s", filepath.Base(e.Name), d.Breakpoint, strings.Join(d.Watches, ","))
		s.logger.Info("config reloaded", logging.Key(e.Name), slog.String("op", e.Op.String()))
	})
	viper.WatchConfig()
}

// runWorkflow is the shared body of run and demo.
func runWorkflow(cmd *cobra.Command, f *sessionFlags, fetcher mail.Fetcher) error {
	st := loadSettings(viper.GetViper())

	s, closeLog, err := newSession(f, st, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeLog()

	sink, closeSink, err := openSink(st.TasksFile, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeSink()

	wf := agent.New(s.ws, fetcher, agent.NewKeywordClassifier(), sink, agent.Options{
		Query: st.Query,
		Limit: st.Limit,
	})

	s.logger.Info("sync started", slog.String("query", st.Query), slog.Int("limit", st.Limit))
	res, err := s.run(cmd.Context(), wf)
	switch {
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(cmd.OutOrStdout(), "sync aborted")
		s.logger.Info("sync aborted")
		return nil
	case err != nil:
		s.logger.Error("sync failed", logging.Err(err))
		return err
	}

	s.logger.Info("sync finished", slog.Int("fetched", res.Fetched), slog.Int("created", res.Created))
	if f.console != consoleShell {
		fmt.Fprintf(cmd.OutOrStdout(), "sync finished: %s\n", res)
		if st.TasksFile != "-" && res.Created > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "tasks appended to %s\n", st.TasksFile)
		}
	}
	return nil
}

// openSink opens the task file for appending. "-" writes to out.
func openSink(path string, out io.Writer) (agent.Sink, func() error, error) {
	if path == "-" {
		return agent.NewJSONLSink(out), func() error { return nil }, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create task dir: %w", err)
		}
	}
	fout, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open task file: %w", err)
	}
	return agent.NewJSONLSink(fout), fout.Close, nil
}
