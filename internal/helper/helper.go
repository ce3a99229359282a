// Package helper implements the process that runs inside a spawned
// terminal instance during live capture. It reads banner payloads from
// a data pipe, paints them, waits for the terminal's own report
// responses to quiesce, and signals screenshot readiness on a ready
// pipe. One payload is in flight at a time; a zero-length payload is
// the shutdown sentinel.
package helper

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/jquast/modem.xyz/internal/fifo"
	"github.com/jquast/modem.xyz/schema"
	"pkt.systems/pslog"
)

// ReadyToken is the fixed literal written to the ready pipe once the
// terminal is in a screenshot-safe state.
const ReadyToken = "ready"

// State identifies a step of the helper's cycle.
type State int

// Helper states, in cycle order.
const (
	StateIdle State = iota
	StateResetting
	StateDisplaying
	StateDraining
	StateSignaling
	StateShutdown
)

// String names the state for logs.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResetting:
		return "resetting"
	case StateDisplaying:
		return "displaying"
	case StateDraining:
		return "draining"
	case StateSignaling:
		return "signaling"
	case StateShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Config parameterizes a helper session.
type Config struct {
	// DataPipe is the path of the pipe payloads arrive on.
	DataPipe string
	// ReadyPipe is the path of the pipe the ready token is written to.
	ReadyPipe string
	// Title is the session's fixed window title, re-applied after every
	// reset so the screenshot tool can find the window.
	Title string
	// SettleWindow is the per-read drain timeout. A drain read that
	// times out with nothing available is the only signal that
	// rendering has stabilized; there is no completion event from the
	// terminal. Heuristic: too short risks signaling before bursty
	// output finishes, too long slows every cycle.
	SettleWindow time.Duration
	// MaxDrain caps total drain time per cycle. Payloads that provoke
	// unbounded terminal responses would otherwise drain forever;
	// exceeding the cap is a session-level protocol error.
	MaxDrain time.Duration
	// Out is the terminal's output stream (normally stdout).
	Out io.Writer
	// In is the terminal's input stream (normally stdin), drained for
	// report responses and used for echo suppression.
	In *os.File
	// Log receives per-cycle diagnostics.
	Log pslog.Logger
}

// DefaultSettleWindow mirrors the tens-of-milliseconds settle period
// that works for local terminal emulators.
const DefaultSettleWindow = 20 * time.Millisecond

// DefaultMaxDrain bounds a single cycle's drain loop.
const DefaultMaxDrain = 2 * time.Second

// Helper owns the terminal-resident side of the capture protocol.
type Helper struct {
	cfg   Config
	state State
	count int
}

// New constructs a Helper, filling config defaults.
func New(cfg Config) *Helper {
	if cfg.SettleWindow <= 0 {
		cfg.SettleWindow = DefaultSettleWindow
	}
	if cfg.MaxDrain <= 0 {
		cfg.MaxDrain = DefaultMaxDrain
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.In == nil {
		cfg.In = os.Stdin
	}
	if cfg.Log == nil {
		cfg.Log = pslog.Ctx(context.Background())
	}
	return &Helper{cfg: cfg, state: StateIdle}
}

// State returns the helper's current state.
func (h *Helper) State() State {
	return h.state
}

// Cycles returns the number of completed payload cycles.
func (h *Helper) Cycles() int {
	return h.count
}

// Run executes the helper loop until the shutdown sentinel arrives or a
// pipe becomes unusable. A dead peer is fatal: the helper terminates
// rather than looping forever, and the controller detects the exit.
func (h *Helper) Run() error {
	log := h.cfg.Log.With("title", h.cfg.Title)
	log.Info("helper started",
		"data_pipe", h.cfg.DataPipe,
		"ready_pipe", h.cfg.ReadyPipe,
		"settle_window", h.cfg.SettleWindow,
		"max_drain", h.cfg.MaxDrain,
	)

	// Initial invariant state: no echoed keystrokes, fixed title, no
	// visible cursor. Holds for the session's lifetime except inside
	// resetAndRestore.
	h.suppressEcho()
	h.setTitle()
	h.hideCursor()

	for {
		h.state = StateIdle
		payload, err := fifo.ReadMessage(h.cfg.DataPipe)
		if err != nil {
			log.Error("data pipe unreadable", "err", err)
			return fmt.Errorf("read data pipe: %w", err)
		}
		if schema.BannerPayload(payload).IsSentinel() {
			h.state = StateShutdown
			log.Info("sentinel received, shutting down", "cycles", h.count)
			return nil
		}

		h.count++
		log.Debug("banner received", "cycle", h.count, "bytes", len(payload))

		if err := h.runCycle(payload); err != nil {
			log.Error("cycle failed", "cycle", h.count, "err", err)
			return err
		}
	}
}

// runCycle takes one non-empty payload from Resetting through Signaling.
func (h *Helper) runCycle(payload []byte) error {
	h.state = StateResetting
	h.resetAndRestore()

	h.state = StateDisplaying
	if _, err := h.cfg.Out.Write(payload); err != nil {
		return fmt.Errorf("display payload: %w", err)
	}
	// The payload's own escape sequences may have re-enabled the
	// cursor; re-assert invisibility after the payload, not only in
	// the reset.
	h.hideCursor()

	h.state = StateDraining
	if err := h.drain(); err != nil {
		return err
	}

	h.state = StateSignaling
	if err := fifo.WriteToken(h.cfg.ReadyPipe, ReadyToken); err != nil {
		return fmt.Errorf("%w: %v", schema.ErrPipeClosed, err)
	}
	return nil
}

// resetAndRestore is the single atomic reset operation: a hard reset
// re-enables input echo and clears the window title, so the invariant
// state is re-applied immediately, with no caller able to observe the
// intermediate unprotected state.
func (h *Helper) resetAndRestore() {
	// Reset attributes, clear screen, home cursor, hide cursor.
	io.WriteString(h.cfg.Out, "\x1b[m\x1b[2J\x1b[H\x1b[?25l")
	h.suppressEcho()
	h.setTitle()
}

// setTitle sets the window title via OSC 0.
func (h *Helper) setTitle() {
	fmt.Fprintf(h.cfg.Out, "\x1b]0;%s\a", h.cfg.Title)
}

// hideCursor makes the text cursor invisible (DECTCEM reset).
func (h *Helper) hideCursor() {
	io.WriteString(h.cfg.Out, "\x1b[?25l")
}

// suppressEcho clears the ECHO bit on the input terminal so report
// responses never appear on screen. No-op when In is not a terminal
// (tests drive the helper over plain pipes).
func (h *Helper) suppressEcho() {
	fd := int(h.cfg.In.Fd())
	if !term.IsTerminal(fd) {
		return
	}
	tio, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		h.cfg.Log.Warn("termios read failed", "err", err)
		return
	}
	tio.Lflag &^= unix.ECHO
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, tio); err != nil {
		h.cfg.Log.Warn("termios write failed", "err", err)
	}
}
