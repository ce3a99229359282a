// Package termlaunch builds launch commands for the terminal emulators
// that can host a capture session. Both backends are configured
// entirely from the command line so no config files touch the user's
// environment.
package termlaunch

import (
	"fmt"
	"strings"

	"github.com/jquast/modem.xyz/core"
	"github.com/jquast/modem.xyz/internal/xtool"
)

// palette is the CGA color scheme applied to every capture terminal,
// matching what classic ANSI art expects.
var palette = [16]string{
	"#000000", "#aa0000", "#00aa00", "#aa5500",
	"#0000aa", "#aa00aa", "#00aaaa", "#aaaaaa",
	"#555555", "#ff5555", "#55ff55", "#ffff55",
	"#5555ff", "#ff55ff", "#55ffff", "#ffffff",
}

const (
	defaultForeground = "#aaaaaa"
	defaultBackground = "#000000"
)

// Backends returns the backend names in preference order.
func Backends() []string {
	return []string{"kitty", "wezterm"}
}

// ByName returns the launcher for a backend name, or an error listing
// the valid choices. An empty name selects kitty.
func ByName(name string) (core.TerminalLauncher, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "kitty":
		return Kitty{}, nil
	case "wezterm":
		return Wezterm{}, nil
	}
	return nil, fmt.Errorf("unknown terminal backend %q (valid: %s)", name, strings.Join(Backends(), ", "))
}

// Detect picks the first installed backend.
func Detect() (core.TerminalLauncher, error) {
	for _, name := range Backends() {
		if xtool.Available(name) {
			return ByName(name)
		}
	}
	return nil, fmt.Errorf("no terminal backend found (install one of: %s)", strings.Join(Backends(), ", "))
}
