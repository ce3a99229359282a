package core

import (
	"context"
	"os/exec"

	"pkt.systems/pslog"

	"github.com/jquast/modem.xyz/internal/xcapture"
	"github.com/jquast/modem.xyz/schema"
)

// LaunchSpec describes the terminal window a session needs.
type LaunchSpec struct {
	Title         string
	FontFamily    string
	FontSize      int
	Columns       int
	Rows          int
	EastAsianWide bool
	Display       string
	// HelperArgv is the command the terminal runs: the session helper
	// with its data pipe, ready pipe, and window title.
	HelperArgv []string
}

// TerminalLauncher builds the launch command for a terminal backend.
type TerminalLauncher interface {
	Name() string
	Command(ctx context.Context, spec LaunchSpec) *exec.Cmd
	Available() bool
}

// WindowCapturer finds and screenshots terminal windows on a display.
type WindowCapturer interface {
	FindWindow(ctx context.Context, display, title string) (string, error)
	Raise(ctx context.Context, display, windowID string)
	Move(ctx context.Context, display, windowID string, x, y int) error
	Screenshot(ctx context.Context, display, windowID, outputPath string) (xcapture.Grab, error)
}

// DisplayServer provides the X display sessions render on.
type DisplayServer interface {
	Display() string
	Stop(ctx context.Context)
}

// EventSink receives capture lifecycle events from the pool.
type EventSink interface {
	OnCaptureEvent(event schema.CaptureEvent)
}

// PoolDeps captures the pool's dependencies.
type PoolDeps struct {
	Launcher TerminalLauncher
	Capturer WindowCapturer
	Display  DisplayServer
	Events   EventSink
	Logger   pslog.Logger
}

// X11Capturer implements WindowCapturer with the xcapture tools.
type X11Capturer struct{}

func (X11Capturer) FindWindow(ctx context.Context, display, title string) (string, error) {
	return xcapture.FindWindow(ctx, display, title)
}

func (X11Capturer) Raise(ctx context.Context, display, windowID string) {
	xcapture.Raise(ctx, display, windowID)
}

func (X11Capturer) Move(ctx context.Context, display, windowID string, x, y int) error {
	return xcapture.Move(ctx, display, windowID, x, y)
}

func (X11Capturer) Screenshot(ctx context.Context, display, windowID, outputPath string) (xcapture.Grab, error) {
	return xcapture.Screenshot(ctx, display, windowID, outputPath)
}
