package rasterize

import (
	"image/color"

	headlessterm "github.com/danielgatis/go-headless-term"

	"github.com/jquast/modem.xyz/schema"
)

// cgaPalette is the CGA/VGA 16-color palette classic DOS art assumes.
// The engine's default xterm palette renders the same art with subtly
// wrong hues (e.g. brown vs olive), so the low 16 entries are replaced.
var cgaPalette = [16]color.RGBA{
	{0x00, 0x00, 0x00, 0xff}, // black
	{0xaa, 0x00, 0x00, 0xff}, // red
	{0x00, 0xaa, 0x00, 0xff}, // green
	{0xaa, 0x55, 0x00, 0xff}, // brown
	{0x00, 0x00, 0xaa, 0xff}, // blue
	{0xaa, 0x00, 0xaa, 0xff}, // magenta
	{0x00, 0xaa, 0xaa, 0xff}, // cyan
	{0xaa, 0xaa, 0xaa, 0xff}, // light gray
	{0x55, 0x55, 0x55, 0xff}, // dark gray
	{0xff, 0x55, 0x55, 0xff}, // bright red
	{0x55, 0xff, 0x55, 0xff}, // bright green
	{0xff, 0xff, 0x55, 0xff}, // yellow
	{0x55, 0x55, 0xff, 0xff}, // bright blue
	{0xff, 0x55, 0xff, 0xff}, // bright magenta
	{0x55, 0xff, 0xff, 0xff}, // bright cyan
	{0xff, 0xff, 0xff, 0xff}, // white
}

// workbenchPalette holds the Amiga Workbench 1.x scheme.
var workbenchPalette = [4]color.RGBA{
	{0xaa, 0xaa, 0xaa, 0xff}, // gray
	{0x00, 0x00, 0x00, 0xff}, // black
	{0xff, 0xff, 0xff, 0xff}, // white
	{0x00, 0x55, 0xaa, 0xff}, // blue
}

// modeColors resolves the palette and default colors for a render mode.
func modeColors(mode schema.RenderMode) (palette [256]color.RGBA, fg, bg color.RGBA) {
	palette = headlessterm.DefaultPalette
	for i, c := range cgaPalette {
		palette[i] = c
	}
	fg = cgaPalette[7]
	bg = cgaPalette[0]

	switch mode {
	case schema.ModeCED:
		// Black-on-gray print-style rendering.
		fg = cgaPalette[0]
		bg = cgaPalette[7]
	case schema.ModeTransparent:
		bg = color.RGBA{0, 0, 0, 0}
	case schema.ModeWorkbench:
		for i := range workbenchPalette {
			palette[i] = workbenchPalette[i]
			palette[i+8] = workbenchPalette[i]
		}
		fg = workbenchPalette[1]
		bg = workbenchPalette[0]
	}
	return palette, fg, bg
}
