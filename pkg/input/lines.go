package input

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/FengmingYu-tech/JobSyncd/pkg/logging"
)

// Executor runs one command line, e.g. "break fetchMessages".
type Executor func(line string) error

// Lines reads newline separated commands from an out-of-band channel.
// Blank lines and lines starting with # are skipped.
type Lines struct {
	ctl    Controller
	exec   Executor
	logger *slog.Logger
}

func NewLines(ctl Controller, exec Executor, logger *slog.Logger) *Lines {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Lines{ctl: ctl, exec: exec, logger: logging.WithComponent(logger, "control")}
}

// Serve executes lines from r until EOF or ctx ends. Command errors are
// reported to the execution log and do not stop the loop.
func (l *Lines) Serve(ctx context.Context, r io.Reader) error {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return <-errc
			}
			l.run(line)
		}
	}
}

func (l *Lines) run(line string) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}
	if err := l.exec(line); err != nil {
		l.ctl.Log("control %q: %v", line, err)
		l.logger.Debug("control command failed", slog.String("line", line), logging.Err(err))
	}
}

// ServeFile opens path (typically a named pipe) read-write, so the channel
// stays open while no writer is attached, and serves it until ctx ends.
func (l *Lines) ServeFile(ctx context.Context, path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open control channel: %w", err)
	}
	defer f.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			f.Close()
		case <-stop:
		}
	}()

	l.logger.Info("control channel open", slog.String("path", path))
	if err := l.Serve(ctx, f); err != nil && ctx.Err() == nil {
		return fmt.Errorf("read control channel: %w", err)
	}
	return nil
}
