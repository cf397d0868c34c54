package output

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Console renders a live, single-line status display during a session.
//
// On a TTY the line is rewritten in place with carriage returns and colored
// with ANSI escapes; on a plain writer (CI logs, pipes) each update is
// printed as its own line without color.
type Console struct {
	w        io.Writer
	isTTY    bool
	useColor bool
	quiet    bool

	mu      sync.Mutex
	started bool
}

// ConsoleConfig configures a Console.
type ConsoleConfig struct {
	// Writer defaults to os.Stdout.
	Writer io.Writer

	// Quiet suppresses live updates; only Banner and Done print.
	Quiet bool

	// ForceColors and ForceTTY override detection, mainly for tests.
	ForceColors bool
	ForceTTY    bool
}

// NewConsole creates a console renderer.
func NewConsole(cfg ConsoleConfig) *Console {
	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}

	tty := cfg.ForceTTY || writerIsTerminal(cfg.Writer)
	return &Console{
		w:        cfg.Writer,
		isTTY:    tty,
		useColor: cfg.ForceColors || (tty && !color.NoColor),
		quiet:    cfg.Quiet,
	}
}

func writerIsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Banner prints the session header.
func (c *Console) Banner(name string, frequency int, cacheEnabled bool, window time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if name == "" {
		name = "cachepulse session"
	}
	fmt.Fprintf(c.w, "%s  (window %s, %d req/tick, cache %s)\n",
		c.bold(name), window, frequency, c.onOff(cacheEnabled))
}

// Update renders the current stats. Safe to call from a reporter loop.
func (c *Console) Update(s Stats) {
	if c.quiet {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	line := c.statsLine(s)
	if c.isTTY {
		fmt.Fprintf(c.w, "\r\033[K%s", line)
		c.started = true
		return
	}
	fmt.Fprintln(c.w, line)
}

// Done terminates the live line and prints a final summary.
func (c *Console) Done(s Stats) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isTTY && c.started {
		fmt.Fprintln(c.w)
	}
	fmt.Fprintf(c.w, "%s  %s\n", c.bold("done"), c.statsLine(s))
}

func (c *Console) statsLine(s Stats) string {
	avg := "avg --"
	if d, ok := s.Average(); ok {
		avg = fmt.Sprintf("avg %s", c.green(d.String()))
	}

	return fmt.Sprintf("[%s] %s req/tick  cache %s  reqs %d  samples %d  %s  hit/miss %d/%d",
		s.Elapsed.Round(time.Second),
		c.cyan(fmt.Sprintf("%d", s.Frequency)),
		c.onOff(s.CacheEnabled),
		s.Requests,
		s.Samples,
		avg,
		s.CacheHits,
		s.CacheMisses,
	)
}

func (c *Console) onOff(enabled bool) string {
	if enabled {
		return c.green("on")
	}
	return c.yellow("off")
}

func (c *Console) bold(s string) string {
	if !c.useColor {
		return s
	}
	return color.New(color.Bold).Sprint(s)
}

func (c *Console) green(s string) string {
	if !c.useColor {
		return s
	}
	return color.GreenString(s)
}

func (c *Console) yellow(s string) string {
	if !c.useColor {
		return s
	}
	return color.YellowString(s)
}

func (c *Console) cyan(s string) string {
	if !c.useColor {
		return s
	}
	return color.CyanString(s)
}
