package crt

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestStretchAspect(t *testing.T) {
	img := solid(320, 200, color.RGBA{255, 0, 0, 255})
	out := StretchAspect(img, 1.2)
	if out.Bounds().Dx() != 320 {
		t.Errorf("width = %d, want 320", out.Bounds().Dx())
	}
	if out.Bounds().Dy() != 240 {
		t.Errorf("height = %d, want 240", out.Bounds().Dy())
	}
	if got := out.RGBAAt(100, 100); got.R != 255 || got.G != 0 {
		t.Errorf("stretched pixel = %v", got)
	}
}

func TestApplyDoublesDimensions(t *testing.T) {
	img := solid(80, 50, color.RGBA{0, 170, 0, 255})
	out := Apply(img, Options{NativeHeight: 16, FontSize: 12})
	if out.Bounds().Dx() != 160 || out.Bounds().Dy() != 100 {
		t.Errorf("bounds = %v, want 160x100", out.Bounds())
	}
}

func TestApplyDarkensScanlineRows(t *testing.T) {
	img := solid(40, 40, color.RGBA{200, 200, 200, 255})
	out := Apply(img, Options{NativeHeight: 16, FontSize: 12})

	// Scanline centers fall every fontSize*8/(3*16) = 2 pixels, so the
	// output must contain rows darker than the brightest row.
	rowMean := func(y int) float64 {
		var sum int
		for x := 0; x < out.Bounds().Dx(); x++ {
			sum += int(out.RGBAAt(x, y).G)
		}
		return float64(sum) / float64(out.Bounds().Dx())
	}
	brightest, darkest := 0.0, 255.0
	for y := 0; y < out.Bounds().Dy(); y++ {
		m := rowMean(y)
		brightest = math.Max(brightest, m)
		darkest = math.Min(darkest, m)
	}
	if darkest >= brightest {
		t.Errorf("no scanline contrast: darkest=%v brightest=%v", darkest, brightest)
	}
}

func TestScanlinePeriod(t *testing.T) {
	if got := scanlinePeriod(12, 16); got != 2.0 {
		t.Errorf("period(12,16) = %v, want 2", got)
	}
	if got := scanlinePeriod(12, 8); got != 4.0 {
		t.Errorf("period(12,8) = %v, want 4", got)
	}
}

func TestBloomPreservesBlack(t *testing.T) {
	img := solid(20, 20, color.RGBA{0, 0, 0, 255})
	out := bloom(img)
	if got := out.RGBAAt(10, 10); got.R != 0 || got.G != 0 || got.B != 0 {
		t.Errorf("black bloomed to %v", got)
	}
}
