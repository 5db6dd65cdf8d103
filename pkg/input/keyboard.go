package input

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/muesli/cancelreader"
	"golang.org/x/term"

	"github.com/FengmingYu-tech/JobSyncd/pkg/logging"
)

const keyCtrlC = 3

// Keyboard maps single keys to control actions: c continue, s step, p pause,
// b add the diagnostic breakpoint, w add the diagnostic watches, q quit.
type Keyboard struct {
	ctl    Controller
	in     *os.File
	quit   func()
	logger *slog.Logger

	mu   sync.Mutex
	diag Diagnostics

	raw      *term.State
	reader   cancelreader.CancelReader
	stopOnce sync.Once
	done     chan struct{}
	exited   chan struct{}
}

// NewKeyboard creates a keyboard source reading in. quit is called for q
// and Ctrl+C; it is expected to release the screen and exit.
func NewKeyboard(ctl Controller, in *os.File, quit func(), logger *slog.Logger) *Keyboard {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Keyboard{
		ctl:    ctl,
		in:     in,
		quit:   quit,
		logger: logging.WithComponent(logger, "keyboard"),
		diag:   DefaultDiagnostics(),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
}

// SetDiagnostics replaces the names used by the b and w keys.
func (k *Keyboard) SetDiagnostics(d Diagnostics) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.diag = d
}

func (k *Keyboard) diagnostics() Diagnostics {
	k.mu.Lock()
	defer k.mu.Unlock()
	d := k.diag
	d.Watches = append([]string(nil), k.diag.Watches...)
	return d
}

// Start puts the terminal in raw mode and starts reading keys. It returns
// ErrNotTerminal, after logging once, when input is not interactive; the
// rest of the program keeps running without keyboard control.
func (k *Keyboard) Start() error {
	fd := int(k.in.Fd())
	if !term.IsTerminal(fd) {
		k.ctl.Log("keyboard control disabled: %v", ErrNotTerminal)
		k.logger.Warn("keyboard control disabled", logging.Err(ErrNotTerminal))
		return ErrNotTerminal
	}

	raw, err := term.MakeRaw(fd)
	if err != nil {
		k.ctl.Log("keyboard control disabled: %v", err)
		k.logger.Warn("enter raw mode failed", logging.Err(err))
		return err
	}
	k.raw = raw

	if err := k.listen(); err != nil {
		_ = term.Restore(fd, raw)
		k.logger.Warn("keyboard reader failed", logging.Err(err))
		return err
	}
	return nil
}

// listen starts reading keys through a reader that Stop can cancel, so no
// key typed after Stop is consumed.
func (k *Keyboard) listen() error {
	cr, err := cancelreader.NewReader(k.in)
	if err != nil {
		return err
	}
	k.reader = cr
	go func() {
		defer close(k.exited)
		defer cr.Close()
		k.serve(cr)
	}()
	return nil
}

// Stop cancels the pending read and restores the terminal.
func (k *Keyboard) Stop() {
	k.stopOnce.Do(func() {
		close(k.done)
		if k.reader != nil {
			k.reader.Cancel()
		}
		if k.raw != nil {
			_ = term.Restore(int(k.in.Fd()), k.raw)
		}
	})
}

func (k *Keyboard) serve(r io.Reader) {
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		select {
		case <-k.done:
			return
		default:
		}
		if err != nil {
			if err != io.EOF && !errors.Is(err, cancelreader.ErrCanceled) {
				k.logger.Debug("read key failed", logging.Err(err))
			}
			return
		}
		if n == 0 {
			continue
		}
		if !k.handle(buf[0]) {
			return
		}
	}
}

// handle dispatches one key; it returns false after a quit key.
func (k *Keyboard) handle(b byte) bool {
	if b == keyCtrlC {
		k.doQuit()
		return false
	}

	switch strings.ToLower(string(rune(b))) {
	case "c":
		k.ctl.Resume()
	case "s":
		k.ctl.Step()
	case "p":
		k.ctl.Pause()
	case "b":
		d := k.diagnostics()
		if d.Breakpoint != "" && !k.ctl.HasBreakpoint(d.Breakpoint) {
			k.ctl.AddBreakpoint(d.Breakpoint, nil)
		}
	case "w":
		for _, name := range k.diagnostics().Watches {
			k.ctl.Watch(name)
		}
	case "q":
		k.doQuit()
		return false
	}
	return true
}

func (k *Keyboard) doQuit() {
	k.Stop()
	if k.quit != nil {
		k.quit()
	}
}
