package appconfig

import (
	"os"
	"path/filepath"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int           `mapstructure:"config_version" yaml:"config_version"`
	OutputDir     string        `mapstructure:"output_dir" yaml:"output_dir"`
	StateDir      string        `mapstructure:"state_dir" yaml:"state_dir"`
	Capture       CaptureConfig `mapstructure:"capture" yaml:"capture"`
	Helper        HelperConfig  `mapstructure:"helper" yaml:"helper"`
	Render        RenderConfig  `mapstructure:"render" yaml:"render"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// CaptureConfig controls the live terminal capture pipeline.
type CaptureConfig struct {
	Backend               string `mapstructure:"backend" yaml:"backend"`
	Columns               int    `mapstructure:"columns" yaml:"columns"`
	Rows                  int    `mapstructure:"rows" yaml:"rows"`
	FontSize              int    `mapstructure:"font_size" yaml:"font_size"`
	PayloadTimeoutSeconds int    `mapstructure:"payload_timeout_seconds" yaml:"payload_timeout_seconds"`
	ReadyTimeoutSeconds   int    `mapstructure:"ready_timeout_seconds" yaml:"ready_timeout_seconds"`
	PostReadyDelayMS      int    `mapstructure:"post_ready_delay_ms" yaml:"post_ready_delay_ms"`
	CheckDupes            bool   `mapstructure:"check_dupes" yaml:"check_dupes"`
	CRTEffects            bool   `mapstructure:"crt_effects" yaml:"crt_effects"`
}

// HelperConfig controls the terminal-resident session helper.
type HelperConfig struct {
	SettleWindowMS int `mapstructure:"settle_window_ms" yaml:"settle_window_ms"`
	MaxDrainMS     int `mapstructure:"max_drain_ms" yaml:"max_drain_ms"`
}

// RenderConfig provides defaults for the direct rasterizer.
type RenderConfig struct {
	Font      string `mapstructure:"font" yaml:"font"`
	Scale     int    `mapstructure:"scale" yaml:"scale"`
	Bits      int    `mapstructure:"bits" yaml:"bits"`
	Columns   int    `mapstructure:"columns" yaml:"columns"`
	Mode      string `mapstructure:"mode" yaml:"mode"`
	IceColors bool   `mapstructure:"ice_colors" yaml:"ice_colors"`
	Workers   int    `mapstructure:"workers" yaml:"workers"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		OutputDir:     filepath.Join(home, ".modemxyz", "banners"),
		StateDir:      filepath.Join(home, ".modemxyz", "state"),
		Capture: CaptureConfig{
			Backend:               "kitty",
			Columns:               80,
			Rows:                  70,
			FontSize:              12,
			PayloadTimeoutSeconds: 5,
			ReadyTimeoutSeconds:   30,
			PostReadyDelayMS:      200,
			CheckDupes:            true,
			CRTEffects:            false,
		},
		Helper: HelperConfig{
			SettleWindowMS: 20,
			MaxDrainMS:     2000,
		},
		Render: RenderConfig{
			Font:    "cp437",
			Scale:   1,
			Workers: 4,
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".modemxyz", "config.yaml"), nil
}
