package termlaunch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/jquast/modem.xyz/core"
	"github.com/jquast/modem.xyz/internal/xtool"
)

// Kitty launches one kitty window per session, configured via
// --override flags.
type Kitty struct{}

// Name implements core.TerminalLauncher.
func (Kitty) Name() string { return "kitty" }

// Available implements core.TerminalLauncher.
func (Kitty) Available() bool { return xtool.Available("kitty") }

// Command implements core.TerminalLauncher.
func (Kitty) Command(ctx context.Context, spec core.LaunchSpec) *exec.Cmd {
	args := []string{
		"--title=" + spec.Title,
		"--override=font_family=" + spec.FontFamily,
		fmt.Sprintf("--override=font_size=%d", spec.FontSize),
		fmt.Sprintf("--override=initial_window_width=%dc", spec.Columns),
		fmt.Sprintf("--override=initial_window_height=%dc", spec.Rows),
		"--override=remember_window_size=no",
		"--override=hide_window_decorations=yes",
		"--override=scrollback_lines=0",
		"--override=cursor_shape=block",
		"--override=cursor_blink_interval=0",
		"--override=confirm_os_window_close=0",
		"--override=bold_is_bright=yes",
		"--override=window_padding_width=0",
		"--override=placement_strategy=top-left",
		"--override=background=" + defaultBackground,
		"--override=foreground=" + defaultForeground,
	}
	for idx, color := range palette {
		args = append(args, fmt.Sprintf("--override=color%d=%s", idx, color))
	}
	args = append(args, "--")
	args = append(args, spec.HelperArgv...)

	cmd := exec.CommandContext(ctx, "kitty", args...)
	cmd.Env = overrideDisplay(os.Environ(), spec.Display)
	return cmd
}

// overrideDisplay returns env with DISPLAY replaced when set.
func overrideDisplay(env []string, display string) []string {
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
