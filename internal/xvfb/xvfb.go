// Package xvfb manages a virtual X11 display so terminal windows render
// off-screen during capture runs.
package xvfb

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"pkt.systems/pslog"

	"github.com/jquast/modem.xyz/schema"
)

// Display number probe range. Stale /tmp/.X*-lock files make a number
// unusable, so a wide range is scanned.
const (
	firstDisplay = 99
	lastDisplay  = 199
)

// The screen must hold every terminal window side by side; windows are
// placed in a row and captured from the framebuffer.
const screenGeometry = "32000x16384x24"

// Server is a running Xvfb instance.
type Server struct {
	Display string

	cmd  *exec.Cmd
	done chan struct{}
}

// Start launches Xvfb on the first free display between :99 and :199.
func Start(ctx context.Context) (*Server, error) {
	if _, err := exec.LookPath("Xvfb"); err != nil {
		return nil, fmt.Errorf("%w: Xvfb not found, install xvfb", schema.ErrDisplayUnavailable)
	}
	log := pslog.Ctx(ctx)
	for num := firstDisplay; num <= lastDisplay; num++ {
		display := fmt.Sprintf(":%d", num)
		if _, err := os.Stat(fmt.Sprintf("/tmp/.X%d-lock", num)); err == nil {
			continue
		}
		cmd := exec.Command("Xvfb", display, "-screen", "0", screenGeometry)
		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("%w: %v", schema.ErrDisplayUnavailable, err)
		}
		done := make(chan struct{})
		go func() {
			cmd.Wait()
			close(done)
		}()
		// Xvfb holds the display once it wins the race for this
		// number; a loser exits immediately.
		select {
		case <-done:
			continue
		case <-time.After(500 * time.Millisecond):
		}
		log.Debug("xvfb started", "display", display)
		return &Server{Display: display, cmd: cmd, done: done}, nil
	}
	return nil, fmt.Errorf("%w: no free display in :%d-:%d, check for stale /tmp/.X*-lock files",
		schema.ErrDisplayUnavailable, firstDisplay, lastDisplay)
}

// Stop terminates the Xvfb process.
func (s *Server) Stop(ctx context.Context) {
	if s == nil || s.cmd == nil || s.cmd.Process == nil {
		return
	}
	s.cmd.Process.Kill()
	<-s.done
	s.cmd = nil
	pslog.Ctx(ctx).Debug("xvfb stopped", "display", s.Display)
}
