// Package crt post-processes captured banners to resemble the CRT
// monitors the source platforms were designed for: non-square pixel
// aspect correction, phosphor bloom, and scanlines.
package crt

import (
	"image"
	"image/png"
	"math"
	"os"

	"golang.org/x/image/draw"
)

// Options controls the CRT pass.
type Options struct {
	// NativeHeight is the bitmap font's native pixel height; one
	// scanline is drawn per native pixel row.
	NativeHeight int
	// FontSize is the terminal font point size the capture used. At
	// 96 DPI a cell is FontSize*96/72 pixels tall.
	FontSize int
}

// StretchAspect corrects for non-square pixel aspect ratios by
// stretching the image vertically with point sampling, e.g. 1.2 for
// C64 output (320x200 on a 4:3 CRT).
func StretchAspect(img image.Image, aspect float64) *image.RGBA {
	b := img.Bounds()
	h := int(math.Round(float64(b.Dy()) * aspect))
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), h))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Apply upscales the image 2x and overlays bloom and scanlines at the
// final resolution.
func Apply(img image.Image, opts Options) *image.RGBA {
	nativeHeight := opts.NativeHeight
	if nativeHeight <= 0 {
		nativeHeight = 16
	}
	fontSize := opts.FontSize
	if fontSize <= 0 {
		fontSize = 12
	}

	b := img.Bounds()
	doubled := image.NewRGBA(image.Rect(0, 0, b.Dx()*2, b.Dy()*2))
	draw.NearestNeighbor.Scale(doubled, doubled.Bounds(), img, b, draw.Src, nil)

	bloomed := bloom(doubled)
	overlayScanlines(bloomed, scanlinePeriod(fontSize, nativeHeight))
	return bloomed
}

// ApplyFileAspectOnly stretches a PNG in place without bloom or
// scanlines, for runs with CRT effects disabled.
func ApplyFileAspectOnly(path string, aspect float64) error {
	if aspect <= 0 || aspect == 1 {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	img, err := png.Decode(f)
	f.Close()
	if err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(out, StretchAspect(img, aspect)); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// ApplyFile runs the CRT pass on a PNG in place.
func ApplyFile(path string, aspect float64, opts Options) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	img, err := png.Decode(f)
	f.Close()
	if err != nil {
		return err
	}

	if aspect > 0 && aspect != 1 {
		img = StretchAspect(img, aspect)
	}
	result := Apply(img, opts)

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(out, result); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// scanlinePeriod is the 2x-pixel distance between scanlines: one per
// native bitmap row. At 96 DPI a 1x cell is fontSize*4/3 pixels tall,
// doubled and divided across the font's native rows.
func scanlinePeriod(fontSize, nativeHeight int) float64 {
	return float64(fontSize) * 8.0 / (3.0 * float64(nativeHeight))
}

// bloom brightens the image with a blurred copy of itself (screen
// blend), approximating phosphor glow around lit pixels.
func bloom(img *image.RGBA) *image.RGBA {
	blurred := boxBlur(img, 2)
	b := img.Bounds()
	out := image.NewRGBA(b)
	const strength = 0.67
	for i := 0; i < len(img.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			base := float64(img.Pix[i+c])
			glow := float64(blurred.Pix[i+c]) * strength
			// Screen blend keeps highlights from clipping hard.
			v := 255 - (255-base)*(255-glow)/255
			if v > 255 {
				v = 255
			}
			out.Pix[i+c] = uint8(v)
		}
		out.Pix[i+3] = img.Pix[i+3]
	}
	return out
}

// boxBlur runs a separable box blur of the given radius.
func boxBlur(img *image.RGBA, radius int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	tmp := image.NewRGBA(b)
	out := image.NewRGBA(b)

	// Horizontal pass.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum [4]int
			count := 0
			for dx := -radius; dx <= radius; dx++ {
				xx := x + dx
				if xx < 0 || xx >= w {
					continue
				}
				o := y*img.Stride + xx*4
				for c := 0; c < 4; c++ {
					sum[c] += int(img.Pix[o+c])
				}
				count++
			}
			o := y*tmp.Stride + x*4
			for c := 0; c < 4; c++ {
				tmp.Pix[o+c] = uint8(sum[c] / count)
			}
		}
	}

	// Vertical pass.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum [4]int
			count := 0
			for dy := -radius; dy <= radius; dy++ {
				yy := y + dy
				if yy < 0 || yy >= h {
					continue
				}
				o := yy*tmp.Stride + x*4
				for c := 0; c < 4; c++ {
					sum[c] += int(tmp.Pix[o+c])
				}
				count++
			}
			o := y*out.Stride + x*4
			for c := 0; c < 4; c++ {
				out.Pix[o+c] = uint8(sum[c] / count)
			}
		}
	}
	return out
}

// overlayScanlines darkens horizontal bands in place. The dark band is
// narrower than the period so bright gaps remain between raster rows.
func overlayScanlines(img *image.RGBA, period float64) {
	if period < 1 {
		return
	}
	b := img.Bounds()
	bandHalf := period * 0.20
	flatHalf := int(math.Round(bandHalf * 0.5))
	edge := int(math.Round(bandHalf * 0.5))
	peakAlpha := math.Min(255, 50+40*(8.0/math.Max(period, 1)))

	total := int(float64(b.Dy())/period) + 1
	for i := 0; i < total; i++ {
		cy := int(math.Round(float64(i) * period))
		for offset := -flatHalf - edge; offset <= flatHalf+edge; offset++ {
			y := cy + offset
			if y < 0 || y >= b.Dy() {
				continue
			}
			d := offset
			if d < 0 {
				d = -d
			}
			var alpha float64
			switch {
			case d <= flatHalf:
				alpha = peakAlpha
			case edge > 0:
				t := float64(d-flatHalf) / float64(edge+1)
				alpha = peakAlpha * (1.0 - t)
			}
			if alpha <= 0 {
				continue
			}
			darkenRow(img, y, alpha/255.0)
		}
	}
}

// darkenRow alpha-composites a black line over row y.
func darkenRow(img *image.RGBA, y int, alpha float64) {
	b := img.Bounds()
	keep := 1.0 - alpha
	for x := 0; x < b.Dx(); x++ {
		o := y*img.Stride + x*4
		for c := 0; c < 3; c++ {
			img.Pix[o+c] = uint8(float64(img.Pix[o+c]) * keep)
		}
	}
}
