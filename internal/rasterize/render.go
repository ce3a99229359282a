package rasterize

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"time"

	headlessterm "github.com/danielgatis/go-headless-term"
	"golang.org/x/image/draw"
	"pkt.systems/pslog"

	"github.com/jquast/modem.xyz/schema"
)

// DefaultColumns is the screen width assumed when options leave it unset.
const DefaultColumns = 80

const initialRows = 25

// Result reports the geometry of a completed render.
type Result struct {
	Width      int
	Height     int
	CellWidth  int
	CellHeight int
	Font       schema.FontID
}

// RenderFile rasterizes the ANSI art at inputPath into a PNG at
// outputPath. Failures carry the pipeline stage that broke (init, load,
// render, save) so batch callers can report per-banner diagnostics.
func RenderFile(ctx context.Context, inputPath, outputPath string, opts schema.RenderOptions) (Result, error) {
	start := time.Now()
	log := pslog.Ctx(ctx).With("input", inputPath)

	payload, err := os.ReadFile(inputPath)
	if err != nil {
		return Result{}, schema.NewRenderError(schema.StageLoad, "", err)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return Result{}, schema.NewRenderError(schema.StageSave, "", err)
	}

	res, err := Render(ctx, payload, out, opts)
	if err != nil {
		out.Close()
		os.Remove(outputPath)
		return Result{}, err
	}
	if err := out.Close(); err != nil {
		os.Remove(outputPath)
		return Result{}, schema.NewRenderError(schema.StageSave, "", err)
	}

	log.Debug("rendered banner",
		"output", outputPath,
		"font", string(res.Font),
		"width", res.Width,
		"height", res.Height,
		"duration", time.Since(start))
	return res, nil
}

// Render rasterizes payload and writes the PNG to w.
func Render(ctx context.Context, payload []byte, w io.Writer, opts schema.RenderOptions) (Result, error) {
	font := ResolveFont(ctx, opts.Font)

	cols := opts.Columns
	if cols == 0 {
		cols = DefaultColumns
	}
	if cols < 0 {
		return Result{}, schema.NewRenderError(schema.StageRender,
			fmt.Sprintf("columns must be positive, got %d", cols), nil)
	}

	cellWidth := font.CellWidth
	switch opts.Bits {
	case 0:
	case 8, 9:
		cellWidth = opts.Bits
	default:
		return Result{}, schema.NewRenderError(schema.StageRender,
			fmt.Sprintf("bits must be 8 or 9, got %d", opts.Bits), nil)
	}

	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}
	if scale < 0 {
		return Result{}, schema.NewRenderError(schema.StageRender,
			fmt.Sprintf("scale must be positive, got %d", scale), nil)
	}

	if opts.IceColors {
		payload = rewriteIceColors(payload)
	}

	term := headlessterm.New(
		headlessterm.WithSize(initialRows, cols),
		headlessterm.WithAutoResize(),
	)
	if _, err := term.Write(payload); err != nil {
		return Result{}, schema.NewRenderError(schema.StageLoad, "", err)
	}

	palette, fg, bg := modeColors(opts.Mode)
	img := snapshot(term, cellWidth, font.CellHeight, palette, fg, bg)
	if img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return Result{}, schema.NewRenderError(schema.StageRender, "empty canvas", nil)
	}

	final := image.Image(img)
	if scale > 1 {
		final = upscale(img, scale)
	}

	if err := png.Encode(w, final); err != nil {
		return Result{}, schema.NewRenderError(schema.StageSave, "", err)
	}

	return Result{
		Width:      final.Bounds().Dx(),
		Height:     final.Bounds().Dy(),
		CellWidth:  cellWidth,
		CellHeight: font.CellHeight,
		Font:       font.ID,
	}, nil
}

// upscale enlarges img by an integer factor with nearest-neighbor
// sampling, keeping pixel-art edges crisp.
func upscale(img *image.RGBA, factor int) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
