package rasterize

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/jquast/modem.xyz/schema"
)

func TestResolveFontCaseInsensitive(t *testing.T) {
	for _, tc := range []struct {
		name string
		want schema.FontID
	}{
		{"cp437", schema.FontCP437},
		{"CP437", schema.FontCP437},
		{"Cp866", schema.FontCP866},
		{"topaz", schema.FontTopaz},
		{"  terminus  ", schema.FontTerminus},
		{"", schema.FontCP437},
		{"no-such-font", schema.FontCP437},
		{"cp437_80x50", schema.FontCP437_80x50},
	} {
		got := ResolveFont(context.Background(), tc.name)
		if got.ID != tc.want {
			t.Errorf("ResolveFont(%q) = %s, want %s", tc.name, got.ID, tc.want)
		}
	}
}

func TestResolveFontGeometry(t *testing.T) {
	if spec := ResolveFont(context.Background(), "cp437"); spec.CellHeight != 16 {
		t.Errorf("cp437 cell height = %d, want 16", spec.CellHeight)
	}
	if spec := ResolveFont(context.Background(), "cp437_80x50"); spec.CellHeight != 8 {
		t.Errorf("cp437_80x50 cell height = %d, want 8", spec.CellHeight)
	}
	if spec := ResolveFont(context.Background(), "topaz500"); spec.CellHeight != 8 {
		t.Errorf("topaz500 cell height = %d, want 8", spec.CellHeight)
	}
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv(EnvFont, "topaz")
	t.Setenv(EnvScale, "2")
	t.Setenv(EnvBits, "9")
	t.Setenv(EnvColumns, "40")
	t.Setenv(EnvMode, "ced")
	t.Setenv(EnvIceColors, "1")

	opts := OptionsFromEnv()
	if opts.Font != "topaz" {
		t.Errorf("font = %q", opts.Font)
	}
	if opts.Scale != 2 || opts.Bits != 9 || opts.Columns != 40 {
		t.Errorf("scale/bits/columns = %d/%d/%d", opts.Scale, opts.Bits, opts.Columns)
	}
	if opts.Mode != schema.ModeCED {
		t.Errorf("mode = %q", opts.Mode)
	}
	if !opts.IceColors {
		t.Error("ice colors not enabled")
	}
}

func TestOptionsFromEnvIgnoresBadMode(t *testing.T) {
	t.Setenv(EnvMode, "plasma")
	if opts := OptionsFromEnv(); opts.Mode != schema.ModeNormal {
		t.Errorf("mode = %q, want normal", opts.Mode)
	}
}

func TestRewriteIceColors(t *testing.T) {
	for _, tc := range []struct {
		name string
		in   string
		want string
	}{
		{
			name: "blink background becomes bright",
			in:   "\x1b[5;41mX",
			want: "\x1b[101mX",
		},
		{
			name: "blink persists across sequences",
			in:   "\x1b[5m\x1b[44mX",
			want: "\x1b[m\x1b[104mX",
		},
		{
			name: "reset clears blink",
			in:   "\x1b[5m\x1b[0m\x1b[44mX",
			want: "\x1b[m\x1b[0m\x1b[44mX",
		},
		{
			name: "sgr 25 clears blink",
			in:   "\x1b[5m\x1b[25;40mX",
			want: "\x1b[m\x1b[25;40mX",
		},
		{
			name: "foregrounds untouched",
			in:   "\x1b[5;31;42mX",
			want: "\x1b[31;102mX",
		},
		{
			name: "non-sgr passthrough",
			in:   "\x1b[2J\x1b[H plain",
			want: "\x1b[2J\x1b[H plain",
		},
		{
			name: "plain text untouched",
			in:   "no escapes here",
			want: "no escapes here",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := rewriteIceColors([]byte(tc.in))
			if string(got) != tc.want {
				t.Errorf("rewrite(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestRenderBadGeometryFailsAtRenderStage(t *testing.T) {
	var buf bytes.Buffer
	for _, tc := range []struct {
		name string
		opts schema.RenderOptions
	}{
		{"bad bits", schema.RenderOptions{Bits: 7}},
		{"negative scale", schema.RenderOptions{Scale: -1}},
		{"negative columns", schema.RenderOptions{Columns: -80}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Render(context.Background(), []byte("X"), &buf, tc.opts)
			if err == nil {
				t.Fatal("expected error")
			}
			if schema.StageOf(err) != schema.StageRender {
				t.Fatalf("stage = %q, want render (err=%v)", schema.StageOf(err), err)
			}
		})
	}
}

func TestRenderPaletteColors(t *testing.T) {
	for _, tc := range []struct {
		name    string
		payload string
		want    color.RGBA
	}{
		{"red foreground", "\x1b[31mX", color.RGBA{0xaa, 0x00, 0x00, 0xff}},
		{"bold maps to bright", "\x1b[1;31mX", color.RGBA{0xff, 0x55, 0x55, 0xff}},
		{"blue background", "\x1b[44m  ", color.RGBA{0x00, 0x00, 0xaa, 0xff}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if _, err := Render(context.Background(), []byte(tc.payload), &buf, schema.RenderOptions{}); err != nil {
				t.Fatalf("render: %v", err)
			}
			img, err := png.Decode(&buf)
			if err != nil {
				t.Fatalf("decode png: %v", err)
			}
			if !containsColor(img, tc.want) {
				t.Errorf("no %v pixel in rendered image", tc.want)
			}
		})
	}
}

func containsColor(img image.Image, want color.RGBA) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			if uint8(r>>8) == want.R && uint8(g>>8) == want.G && uint8(bl>>8) == want.B && uint8(a>>8) == want.A {
				return true
			}
		}
	}
	return false
}

func TestRenderGeometry(t *testing.T) {
	var buf bytes.Buffer
	res, err := Render(context.Background(), []byte("HELLO"), &buf, schema.RenderOptions{
		Columns: 80,
		Scale:   2,
		Bits:    9,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if want := 80 * 9 * 2; res.Width != want {
		t.Errorf("width = %d, want %d", res.Width, want)
	}
	if res.CellWidth != 9 || res.CellHeight != 16 {
		t.Errorf("cell = %dx%d, want 9x16", res.CellWidth, res.CellHeight)
	}
	cfg, err := png.DecodeConfig(&buf)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if cfg.Width != res.Width || cfg.Height != res.Height {
		t.Errorf("png %dx%d, result %dx%d", cfg.Width, cfg.Height, res.Width, res.Height)
	}
}

func TestRenderFileStages(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "banner.ans")
	out := filepath.Join(dir, "banner.png")

	// Missing input fails at load.
	_, err := RenderFile(context.Background(), in, out, schema.RenderOptions{})
	if schema.StageOf(err) != schema.StageLoad {
		t.Fatalf("stage = %q, want load (err=%v)", schema.StageOf(err), err)
	}

	if err := os.WriteFile(in, []byte("\x1b[1;33mBBS\x1b[0m\r\n"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	res, err := RenderFile(context.Background(), in, out, schema.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if res.Width == 0 || res.Height == 0 {
		t.Fatalf("zero geometry: %+v", res)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	if _, err := png.DecodeConfig(f); err != nil {
		t.Fatalf("output is not a png: %v", err)
	}

	// Unwritable output directory fails at save.
	_, err = RenderFile(context.Background(), in, filepath.Join(dir, "nope", "x.png"), schema.RenderOptions{})
	if schema.StageOf(err) != schema.StageSave {
		t.Fatalf("stage = %q, want save (err=%v)", schema.StageOf(err), err)
	}
	var re *schema.RenderError
	if !errors.As(err, &re) {
		t.Fatalf("error is not a RenderError: %v", err)
	}
}
