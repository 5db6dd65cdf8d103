// Package console is the live render sink: it redraws the workspace panels
// on a fixed interval and whenever the workspace asks for a refresh.
package console

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/FengmingYu-tech/JobSyncd/pkg/workspace"
)

const (
	DefaultRefresh = 250 * time.Millisecond

	altScreenOn  = "\x1b[?1049h\x1b[?25l"
	altScreenOff = "\x1b[?25h\x1b[?1049l"
	clearScreen  = "\x1b[H\x1b[2J"
)

// Source is what the console renders.
type Source interface {
	Snapshot() workspace.Snapshot
	Updates() <-chan struct{}
}

// Options configures a Console.
type Options struct {
	Out      io.Writer     // nil means os.Stdout
	Refresh  time.Duration // zero means DefaultRefresh
	Keyboard bool          // keyboard control active, changes the footer hints
}

// Console is the live debug screen.
type Console struct {
	src     Source
	out     io.Writer
	refresh time.Duration

	mu       sync.Mutex
	keyboard bool
	started  bool

	stopOnce sync.Once
	done     chan struct{}
	exited   chan struct{}
}

func New(src Source, opts Options) *Console {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Refresh <= 0 {
		opts.Refresh = DefaultRefresh
	}
	return &Console{
		src:      src,
		out:      opts.Out,
		refresh:  opts.Refresh,
		keyboard: opts.Keyboard,
		done:     make(chan struct{}),
		exited:   make(chan struct{}),
	}
}

// SetKeyboard updates the footer once keyboard availability is known.
func (c *Console) SetKeyboard(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keyboard = on
}

// Start switches to the alternate screen and starts redrawing. Calling it
// twice has no effect.
func (c *Console) Start() {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	io.WriteString(c.out, altScreenOn)
	go c.loop()
}

// Stop ends redrawing and restores the normal screen. It is idempotent and
// safe to call from any goroutine, including signal and key handlers.
func (c *Console) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)

		c.mu.Lock()
		started := c.started
		c.mu.Unlock()
		if !started {
			return
		}
		<-c.exited
		io.WriteString(c.out, altScreenOff)
	})
}

func (c *Console) loop() {
	defer close(c.exited)

	ticker := time.NewTicker(c.refresh)
	defer ticker.Stop()

	c.draw()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
		case <-c.src.Updates():
		}
		c.draw()
	}
}

func (c *Console) draw() {
	c.mu.Lock()
	keyboard := c.keyboard
	c.mu.Unlock()

	frame := Render(c.src.Snapshot(), c.width(), keyboard)
	// the keyboard puts the terminal in raw mode, which needs explicit CRs
	frame = strings.ReplaceAll(frame, "\n", "\r\n")
	io.WriteString(c.out, clearScreen+frame+"\r\n")
}

func (c *Console) width() int {
	if f, ok := c.out.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil {
			return w
		}
	}
	return defaultCols
}
