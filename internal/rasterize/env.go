package rasterize

import (
	"os"
	"strconv"

	"github.com/jquast/modem.xyz/schema"
)

// Environment variables recognized by the render command. Malformed
// scale/bits/columns values are accepted as parsed and passed through;
// malformed mode values are silently ignored.
const (
	EnvFont      = "ANSIART_FONT"
	EnvScale     = "ANSIART_SCALE"
	EnvBits      = "ANSIART_BITS"
	EnvColumns   = "ANSIART_COLUMNS"
	EnvMode      = "ANSIART_MODE"
	EnvIceColors = "ANSIART_ICECOLORS"
)

// OptionsFromEnv assembles RenderOptions from the process environment.
func OptionsFromEnv() schema.RenderOptions {
	var opts schema.RenderOptions
	opts.Font = os.Getenv(EnvFont)
	if val := os.Getenv(EnvScale); val != "" {
		opts.Scale, _ = strconv.Atoi(val)
	}
	if val := os.Getenv(EnvBits); val != "" {
		opts.Bits, _ = strconv.Atoi(val)
	}
	if val := os.Getenv(EnvColumns); val != "" {
		opts.Columns, _ = strconv.Atoi(val)
	}
	if val := os.Getenv(EnvMode); val != "" {
		if mode, ok := schema.ParseRenderMode(val); ok {
			opts.Mode = mode
		}
	}
	opts.IceColors = os.Getenv(EnvIceColors) == "1"
	return opts
}
