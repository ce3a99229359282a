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

// Wezterm launches one wezterm window per session, configured via
// --config flags. The IBM VGA group gets a Unicode fallback font so
// mixed-charset banners render; CJK sessions add a wide fallback and
// treat ambiguous-width characters as wide.
type Wezterm struct{}

const cjkFallbackFont = "Noto Sans Mono CJK SC"

// Name implements core.TerminalLauncher.
func (Wezterm) Name() string { return "wezterm" }

// Available implements core.TerminalLauncher.
func (Wezterm) Available() bool { return xtool.Available("wezterm") }

// Command implements core.TerminalLauncher.
func (Wezterm) Command(ctx context.Context, spec core.LaunchSpec) *exec.Cmd {
	fallbacks := []string{spec.FontFamily, "Hack"}
	if spec.EastAsianWide {
		fallbacks = append(fallbacks, cjkFallbackFont)
	}
	quoted := make([]string, len(fallbacks))
	for i, f := range fallbacks {
		quoted[i] = fmt.Sprintf("%q", f)
	}

	args := []string{
		"--config", fmt.Sprintf("font=wezterm.font_with_fallback({%s})", strings.Join(quoted, ", ")),
		"--config", fmt.Sprintf("font_size=%d", spec.FontSize),
		"--config", fmt.Sprintf("initial_cols=%d", spec.Columns),
		"--config", fmt.Sprintf("initial_rows=%d", spec.Rows),
		"--config", "enable_tab_bar=false",
		"--config", "scrollback_lines=0",
		"--config", `bold_brightens_ansi_colors="BrightOnly"`,
		"--config", fmt.Sprintf("treat_east_asian_ambiguous_width_as_wide=%t", spec.EastAsianWide),
		"--config", "window_padding={left=0, right=0, top=0, bottom=0}",
		"--config", `default_cursor_style="SteadyBlock"`,
		"--config", "window_close_confirmation=\"NeverPrompt\"",
		"--config", weztermColors(),
	}
	args = append(args, "start", "--always-new-process", "--no-auto-connect", "--")
	args = append(args, spec.HelperArgv...)

	cmd := exec.CommandContext(ctx, "wezterm", args...)
	cmd.Env = overrideDisplay(os.Environ(), spec.Display)
	return cmd
}

// weztermColors renders the CGA palette as a Lua colors table.
func weztermColors() string {
	ansi := make([]string, 8)
	brights := make([]string, 8)
	for i := 0; i < 8; i++ {
		ansi[i] = fmt.Sprintf("%q", palette[i])
		brights[i] = fmt.Sprintf("%q", palette[i+8])
	}
	return fmt.Sprintf("colors={foreground=%q, background=%q, ansi={%s}, brights={%s}}",
		defaultForeground, defaultBackground,
		strings.Join(ansi, ", "), strings.Join(brights, ", "))
}
