package rasterize

import (
	"image"
	"image/color"

	headlessterm "github.com/danielgatis/go-headless-term"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// snapshot paints the terminal grid into an RGBA image, one
// cellWidth x cellHeight block per cell. Glyphs come from the fixed
// 7x13 bitmap face; bold on one of the eight base colors selects the
// matching high-intensity palette entry, the way CGA hardware did.
func snapshot(term *headlessterm.Terminal, cellWidth, cellHeight int, palette [256]color.RGBA, defaultFG, defaultBG color.RGBA) *image.RGBA {
	rows, cols := term.Rows(), term.Cols()
	width, height := cols*cellWidth, rows*cellHeight
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, defaultBG)
		}
	}

	face := basicfont.Face7x13
	ascent := face.Metrics().Ascent.Ceil()

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			cell := term.Cell(row, col)
			if cell == nil || cell.IsWideSpacer() {
				continue
			}
			x := col * cellWidth
			y := row * cellHeight

			fg := resolveCellColor(cell.Fg, true, palette, defaultFG, defaultBG)
			bg := resolveCellColor(cell.Bg, false, palette, defaultFG, defaultBG)
			if cell.HasFlag(headlessterm.CellFlagBold) {
				fg = brighten(cell.Fg, fg, palette)
			}
			if cell.HasFlag(headlessterm.CellFlagReverse) {
				fg, bg = bg, fg
			}
			if cell.HasFlag(headlessterm.CellFlagDim) {
				fg = dimmed(fg)
			}

			for py := 0; py < cellHeight; py++ {
				for px := 0; px < cellWidth; px++ {
					img.SetRGBA(x+px, y+py, bg)
				}
			}

			ch := cell.Char
			if ch == 0 || ch == ' ' || cell.HasFlag(headlessterm.CellFlagHidden) {
				continue
			}
			drawer := &font.Drawer{
				Dst:  img,
				Src:  image.NewUniform(fg),
				Face: face,
				Dot:  fixed.P(x, y+ascent),
			}
			drawer.DrawString(string(ch))

			if cell.HasFlag(headlessterm.CellFlagUnderline) {
				uy := y + ascent + 2
				for px := 0; px < cellWidth && uy < height; px++ {
					img.SetRGBA(x+px, uy, fg)
				}
			}
			if cell.HasFlag(headlessterm.CellFlagStrike) {
				sy := y + cellHeight/2
				for px := 0; px < cellWidth; px++ {
					img.SetRGBA(x+px, sy, fg)
				}
			}
		}
	}
	return img
}

// resolveCellColor maps the engine's cell color representations onto
// the active palette.
func resolveCellColor(c color.Color, fg bool, palette [256]color.RGBA, defaultFG, defaultBG color.RGBA) color.RGBA {
	switch v := c.(type) {
	case nil:
	case color.RGBA:
		return v
	case *headlessterm.IndexedColor:
		if v.Index >= 0 && v.Index < 256 {
			return palette[v.Index]
		}
	case *headlessterm.NamedColor:
		return resolveNamedCellColor(v.Name, fg, palette, defaultFG, defaultBG)
	default:
		r, g, b, a := c.RGBA()
		return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
	}
	if fg {
		return defaultFG
	}
	return defaultBG
}

func resolveNamedCellColor(name int, fg bool, palette [256]color.RGBA, defaultFG, defaultBG color.RGBA) color.RGBA {
	switch {
	case name >= 0 && name < 16:
		return palette[name]
	case name == headlessterm.NamedColorForeground:
		return defaultFG
	case name == headlessterm.NamedColorBackground:
		return defaultBG
	case name == headlessterm.NamedColorCursor:
		return defaultFG
	case name >= headlessterm.NamedColorDimBlack && name <= headlessterm.NamedColorDimWhite:
		return dimmed(palette[name-headlessterm.NamedColorDimBlack])
	case name == headlessterm.NamedColorBrightForeground:
		return palette[15]
	case name == headlessterm.NamedColorDimForeground:
		return dimmed(defaultFG)
	default:
		if fg {
			return defaultFG
		}
		return defaultBG
	}
}

// brighten maps a bold base color (indexes 0-7) to its bright variant.
// Truecolor and already-bright cells pass through unchanged.
func brighten(src color.Color, resolved color.RGBA, palette [256]color.RGBA) color.RGBA {
	switch v := src.(type) {
	case *headlessterm.IndexedColor:
		if v.Index >= 0 && v.Index < 8 {
			return palette[v.Index+8]
		}
	case *headlessterm.NamedColor:
		if v.Name >= 0 && v.Name < 8 {
			return palette[v.Name+8]
		}
	}
	return resolved
}

func dimmed(c color.RGBA) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * 0.66),
		G: uint8(float64(c.G) * 0.66),
		B: uint8(float64(c.B) * 0.66),
		A: c.A,
	}
}
