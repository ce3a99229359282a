package appconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from the provided path. If path is empty, uses DefaultConfigPath.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("output_dir", cfg.OutputDir)
	v.SetDefault("state_dir", cfg.StateDir)
	v.SetDefault("capture.backend", cfg.Capture.Backend)
	v.SetDefault("capture.columns", cfg.Capture.Columns)
	v.SetDefault("capture.rows", cfg.Capture.Rows)
	v.SetDefault("capture.font_size", cfg.Capture.FontSize)
	v.SetDefault("capture.payload_timeout_seconds", cfg.Capture.PayloadTimeoutSeconds)
	v.SetDefault("capture.ready_timeout_seconds", cfg.Capture.ReadyTimeoutSeconds)
	v.SetDefault("capture.post_ready_delay_ms", cfg.Capture.PostReadyDelayMS)
	v.SetDefault("capture.check_dupes", cfg.Capture.CheckDupes)
	v.SetDefault("capture.crt_effects", cfg.Capture.CRTEffects)
	v.SetDefault("helper.settle_window_ms", cfg.Helper.SettleWindowMS)
	v.SetDefault("helper.max_drain_ms", cfg.Helper.MaxDrainMS)
	v.SetDefault("render.font", cfg.Render.Font)
	v.SetDefault("render.scale", cfg.Render.Scale)
	v.SetDefault("render.bits", cfg.Render.Bits)
	v.SetDefault("render.columns", cfg.Render.Columns)
	v.SetDefault("render.mode", cfg.Render.Mode)
	v.SetDefault("render.ice_colors", cfg.Render.IceColors)
	v.SetDefault("render.workers", cfg.Render.Workers)

	configLoaded := false
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if os.IsNotExist(err) {
				err = nil
			} else {
				return Config{}, err
			}
		}
	} else {
		configLoaded = true
	}

	if configLoaded {
		// InConfig looks only at the parsed file; IsSet would see the
		// registered default and never fire.
		if !v.InConfig("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	expandConfigEnv(&cfg)
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	switch cfg.Capture.Backend {
	case "kitty", "wezterm":
	default:
		return fmt.Errorf("unsupported capture.backend %q (valid: kitty, wezterm)", cfg.Capture.Backend)
	}
	switch cfg.Render.Bits {
	case 0, 8, 9:
	default:
		return fmt.Errorf("render.bits must be 8 or 9, got %d", cfg.Render.Bits)
	}
	if cfg.Capture.Columns <= 0 || cfg.Capture.Rows <= 0 {
		return fmt.Errorf("capture.columns and capture.rows must be positive")
	}
	if cfg.Helper.SettleWindowMS <= 0 || cfg.Helper.MaxDrainMS <= 0 {
		return fmt.Errorf("helper.settle_window_ms and helper.max_drain_ms must be positive")
	}
	if cfg.Helper.MaxDrainMS < cfg.Helper.SettleWindowMS {
		return fmt.Errorf("helper.max_drain_ms must be at least helper.settle_window_ms")
	}
	return nil
}

func expandConfigEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.OutputDir = expandEnv(cfg.OutputDir)
	cfg.StateDir = expandEnv(cfg.StateDir)
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := lookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

func lookupEnv(key string) (string, bool) {
	if val, ok := os.LookupEnv(key); ok {
		return val, true
	}
	switch key {
	case "UID":
		return fmt.Sprintf("%d", os.Getuid()), true
	case "GID":
		return fmt.Sprintf("%d", os.Getgid()), true
	}
	return "", false
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
