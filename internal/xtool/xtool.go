// Package xtool runs the X11 command-line tools the capture pipeline
// leans on (xdotool, xwd, convert, Xvfb) with a shared environment and
// consistent logging.
package xtool

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"pkt.systems/pslog"
)

// Run executes an external tool against the given X display and returns
// its combined output.
func Run(ctx context.Context, display, tool string, args ...string) (string, error) {
	log := pslog.Ctx(ctx).With("tool", tool, "display", display, "args", strings.Join(args, " "))
	log.Trace("tool run start")
	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.Env = displayEnv(display)
	output, err := cmd.CombinedOutput()
	if err != nil {
		preview := strings.TrimSpace(string(output))
		truncated := false
		if len(preview) > 200 {
			preview = preview[:200]
			truncated = true
		}
		log.Warn("tool run failed", "err", err, "output", preview, "truncated", truncated)
		return string(output), fmt.Errorf("%s %s failed: %w (%s)", tool, strings.Join(args, " "), err, preview)
	}
	log.Trace("tool run ok", "output_len", len(output))
	return string(output), nil
}

// Available reports whether tool resolves on PATH.
func Available(tool string) bool {
	_, err := exec.LookPath(tool)
	return err == nil
}

// displayEnv copies the process environment with DISPLAY overridden.
func displayEnv(display string) []string {
	env := os.Environ()
	if display == "" {
		return env
	}
	out := make([]string, 0, len(env)+1)
	for _, kv := range env {
		if strings.HasPrefix(kv, "DISPLAY=") {
			continue
		}
		out = append(out, kv)
	}
	return append(out, "DISPLAY="+display)
}
