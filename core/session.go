package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"pkt.systems/pslog"

	"github.com/jquast/modem.xyz/internal/fifo"
	"github.com/jquast/modem.xyz/internal/xcapture"
	"github.com/jquast/modem.xyz/schema"
)

// Session timeout defaults. A stuck helper must fail the banner, never
// block the run.
const (
	DefaultPayloadTimeout = 5 * time.Second
	DefaultReadyTimeout   = 30 * time.Second
	DefaultPostReadyDelay = 200 * time.Millisecond
)

// retryDelays backs off between re-grabs when a screenshot is
// pixel-identical to the previous capture (compositor not repainted yet).
var retryDelays = []time.Duration{
	150 * time.Millisecond,
	300 * time.Millisecond,
	500 * time.Millisecond,
	750 * time.Millisecond,
	time.Second,
}

// SessionConfig parameterizes one terminal session.
type SessionConfig struct {
	Group         FontGroup
	Columns       int
	Rows          int
	FontSize      int
	EastAsianWide bool
	// Label names the session in window titles and logs; distinct
	// geometry variants of a group get distinct labels.
	Label string
	// HelperCommand is the argv prefix that runs the session helper
	// inside the terminal; the data pipe, ready pipe, and window title
	// are appended.
	HelperCommand []string

	CheckDupes     bool
	PayloadTimeout time.Duration
	ReadyTimeout   time.Duration
	PostReadyDelay time.Duration
}

// Session owns one terminal window with a resident helper and renders
// banners through it. One payload is in flight at a time.
type Session struct {
	cfg      SessionConfig
	launcher TerminalLauncher
	capturer WindowCapturer
	display  string

	title     string
	tmpdir    string
	dataPipe  string
	readyPipe string
	windowID  string

	mu      sync.Mutex
	done    chan struct{}
	proc    *os.Process
	lastMD5 string
	stopped bool

	// waitErr has its own lock so the waiter never contends with a
	// capture holding mu.
	waitMu  sync.Mutex
	waitErr error
}

// NewSession fills config defaults and binds the session dependencies.
func NewSession(cfg SessionConfig, launcher TerminalLauncher, capturer WindowCapturer, display string) *Session {
	if cfg.PayloadTimeout <= 0 {
		cfg.PayloadTimeout = DefaultPayloadTimeout
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = DefaultReadyTimeout
	}
	if cfg.PostReadyDelay <= 0 {
		cfg.PostReadyDelay = DefaultPostReadyDelay
	}
	if cfg.Label == "" {
		cfg.Label = string(cfg.Group.Name)
	}
	return &Session{
		cfg:      cfg,
		launcher: launcher,
		capturer: capturer,
		display:  display,
		title:    fmt.Sprintf("render-%d-%s", os.Getpid(), cfg.Label),
	}
}

// Title returns the window title the session's terminal carries.
func (s *Session) Title() string { return s.title }

// Alive reports whether the terminal process still runs.
func (s *Session) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aliveLocked()
}

// Start launches the terminal with the resident helper and locates its
// window. With dupe checking enabled a baseline screenshot of the blank
// terminal seeds staleness detection for the first real banner.
func (s *Session) Start(ctx context.Context) error {
	log := pslog.Ctx(ctx).With("session", s.cfg.Label)

	tmpdir, err := os.MkdirTemp("", "render-"+s.cfg.Label+"-")
	if err != nil {
		return fmt.Errorf("session tmpdir: %w", err)
	}
	s.tmpdir = tmpdir
	s.dataPipe = tmpdir + "/data.fifo"
	s.readyPipe = tmpdir + "/ready.fifo"
	if err := fifo.Mkfifo(s.dataPipe); err != nil {
		os.RemoveAll(tmpdir)
		return fmt.Errorf("data fifo: %w", err)
	}
	if err := fifo.Mkfifo(s.readyPipe); err != nil {
		os.RemoveAll(tmpdir)
		return fmt.Errorf("ready fifo: %w", err)
	}

	argv := append(append([]string{}, s.cfg.HelperCommand...), s.dataPipe, s.readyPipe, s.title)
	cmd := s.launcher.Command(ctx, LaunchSpec{
		Title:         s.title,
		FontFamily:    s.cfg.Group.FontFamily,
		FontSize:      s.cfg.FontSize,
		Columns:       s.cfg.Columns,
		Rows:          s.cfg.Rows,
		EastAsianWide: s.cfg.EastAsianWide,
		Display:       s.display,
		HelperArgv:    argv,
	})
	if err := cmd.Start(); err != nil {
		os.RemoveAll(tmpdir)
		return fmt.Errorf("launch %s: %w", s.launcher.Name(), err)
	}
	// The waiter stores the exit error and closes done, so liveness
	// checks and Stop can all observe the exit.
	done := make(chan struct{})
	go func() {
		err := cmd.Wait()
		s.waitMu.Lock()
		s.waitErr = err
		s.waitMu.Unlock()
		close(done)
	}()
	s.mu.Lock()
	s.done = done
	s.proc = cmd.Process
	s.mu.Unlock()

	findCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	windowID, err := s.capturer.FindWindow(findCtx, s.display, s.title)
	if err != nil {
		s.Stop(ctx)
		return err
	}
	s.windowID = windowID
	log.Debug("session started", "backend", s.launcher.Name(), "window", windowID, "font", s.cfg.Group.FontFamily)

	if s.cfg.CheckDupes {
		time.Sleep(200 * time.Millisecond)
		baseline := s.tmpdir + "/baseline.png"
		if grab, err := s.capturer.Screenshot(ctx, s.display, s.windowID, baseline); err == nil {
			s.lastMD5 = grab.RawMD5
		}
		os.Remove(baseline)
	}
	return nil
}

// Capture renders one banner through the session: payload to the data
// pipe, ready token from the ready pipe, then a window screenshot.
// A blank result means the terminal worked but the banner produced no
// visible content; callers should skip the relaunch escalation.
func (s *Session) Capture(ctx context.Context, payload schema.BannerPayload, outputPath string) (blank bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false, fmt.Errorf("session %s is stopped", s.cfg.Label)
	}
	if payload.IsSentinel() {
		return false, fmt.Errorf("empty payload is the shutdown sentinel, refusing to display it")
	}
	log := pslog.Ctx(ctx).With("session", s.cfg.Label)

	if err := fifo.WriteMessage(ctx, s.dataPipe, payload, s.cfg.PayloadTimeout); err != nil {
		if errors.Is(err, fifo.ErrNoReader) && !s.aliveLocked() {
			return false, fmt.Errorf("%w: %v", schema.ErrHelperExited, err)
		}
		return false, fmt.Errorf("payload write: %w", err)
	}

	if _, err := fifo.AwaitToken(ctx, s.readyPipe, s.cfg.ReadyTimeout); err != nil {
		if errors.Is(err, fifo.ErrTimeout) {
			return false, fmt.Errorf("%w after %s", schema.ErrSessionStuck, s.cfg.ReadyTimeout)
		}
		return false, fmt.Errorf("ready wait: %w", err)
	}

	// The token says the helper finished painting; give the terminal a
	// beat to composite before reading the framebuffer.
	s.capturer.Raise(ctx, s.display, s.windowID)
	time.Sleep(s.cfg.PostReadyDelay)

	grab, err := s.capturer.Screenshot(ctx, s.display, s.windowID, outputPath)
	if err != nil {
		return false, err
	}
	grab = s.retryStaleFrame(ctx, grab, outputPath, log)
	if s.cfg.CheckDupes {
		s.lastMD5 = grab.RawMD5
	}

	return s.classify(grab, outputPath)
}

// retryStaleFrame re-grabs with backoff while the raw screenshot is
// pixel-identical to the previous capture. The raw image is compared
// because fuzz-based cropping shifts boundaries on identical content.
func (s *Session) retryStaleFrame(ctx context.Context, grab xcapture.Grab, outputPath string, log pslog.Logger) xcapture.Grab {
	if !s.cfg.CheckDupes || s.lastMD5 == "" || grab.RawMD5 == "" || grab.RawMD5 != s.lastMD5 {
		return grab
	}
	for _, delay := range retryDelays {
		time.Sleep(delay)
		s.capturer.Raise(ctx, s.display, s.windowID)
		regrab, err := s.capturer.Screenshot(ctx, s.display, s.windowID, outputPath)
		if err != nil {
			continue
		}
		grab = regrab
		if grab.RawMD5 != s.lastMD5 {
			return grab
		}
		log.Warn("screenshot identical to previous capture, retrying", "delay", delay)
	}
	return grab
}

// classify separates poison-escape corruption from legitimately sparse
// banners. A tiny crop out of a full-size raw grab means the content
// was blank; a tiny raw grab means escape sequences shrank the window.
func (s *Session) classify(grab xcapture.Grab, outputPath string) (bool, error) {
	w, h := xcapture.PNGDimensions(outputPath)
	if w <= 0 || h <= 0 || w >= 20 || h >= 20 {
		return false, nil
	}
	if grab.RawWidth >= 100 && grab.RawHeight >= 100 {
		os.Remove(outputPath)
		return true, schema.ErrBlankCapture
	}
	return false, fmt.Errorf("%w: render too small (%dx%d), likely poison escape", schema.ErrCaptureFailed, w, h)
}

// Stop sends the shutdown sentinel exactly once and waits for the
// terminal to exit, escalating to SIGTERM then SIGKILL.
func (s *Session) Stop(ctx context.Context) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	done := s.done
	proc := s.proc
	s.mu.Unlock()

	log := pslog.Ctx(ctx).With("session", s.cfg.Label)
	if s.dataPipe != "" {
		if err := fifo.SendSentinel(ctx, s.dataPipe, 2*time.Second); err != nil {
			log.Debug("sentinel not delivered", "err", err)
		}
	}
	if done != nil && proc != nil {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			proc.Signal(syscall.SIGTERM)
			select {
			case <-done:
			case <-time.After(2 * time.Second):
				proc.Kill()
				<-done
			}
		}
	}
	if s.tmpdir != "" {
		os.RemoveAll(s.tmpdir)
	}
	s.waitMu.Lock()
	exitErr := s.waitErr
	s.waitMu.Unlock()
	log.Debug("session stopped", "exit", exitErr)
}

func (s *Session) aliveLocked() bool {
	if s.done == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}
