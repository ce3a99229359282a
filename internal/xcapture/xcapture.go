// Package xcapture grabs terminal window screenshots on an X11 display.
// It shells out to xdotool for window discovery and stacking, xwd for
// the actual grab, and ImageMagick convert for PNG conversion and
// content cropping.
package xcapture

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"image/png"
	"io"
	"os"
	"strconv"
	"strings"

	"pkt.systems/pslog"

	"github.com/jquast/modem.xyz/internal/xtool"
	"github.com/jquast/modem.xyz/schema"
)

// Required lists the tools this package shells out to.
var Required = []string{"xdotool", "xwd", "convert"}

// Content crop padding in pixels. The left edge is never trimmed so
// indented art keeps its margin.
const (
	padTop    = 1
	padBottom = 3
	padRight  = 3
)

// Grab describes the raw (uncropped) screenshot that was taken.
type Grab struct {
	RawWidth  int
	RawHeight int
	RawMD5    string
}

// FindWindow locates a window by exact title match and returns its X11
// window id. xdotool's --sync flag blocks until the window exists, so
// this also serves as the launch barrier for a freshly started terminal.
func FindWindow(ctx context.Context, display, title string) (string, error) {
	out, err := xtool.Run(ctx, display, "xdotool", "search", "--sync", "--name", "^"+title+"$")
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", schema.ErrWindowNotFound, title, err)
	}
	ids := strings.Fields(out)
	if len(ids) == 0 {
		return "", fmt.Errorf("%w: %q", schema.ErrWindowNotFound, title)
	}
	return ids[0], nil
}

// Raise brings the window to the top of the stacking order. Without a
// window manager XGetImage reads the screen framebuffer, so an obscured
// window yields another window's pixels.
func Raise(ctx context.Context, display, windowID string) {
	if _, err := xtool.Run(ctx, display, "xdotool", "windowraise", windowID); err != nil {
		pslog.Ctx(ctx).Warn("windowraise failed", "window", windowID, "err", err)
	}
}

// Move places the window at the given screen coordinates.
func Move(ctx context.Context, display, windowID string, x, y int) error {
	_, err := xtool.Run(ctx, display, "xdotool", "windowmove", windowID,
		strconv.Itoa(x), strconv.Itoa(y))
	return err
}

// Screenshot grabs the window into a PNG at outputPath, then crops it
// to content bounds. The returned Grab carries the pre-crop geometry
// and digest: the fuzz-based crop shifts boundaries on identical
// content, so staleness comparison must use the raw image.
func Screenshot(ctx context.Context, display, windowID, outputPath string) (Grab, error) {
	// xwd instead of ImageMagick import: plain XGetImage avoids the
	// EAGAIN failures XShmGetImage triggers on Xvfb.
	xwdPath := outputPath + ".xwd"
	defer os.Remove(xwdPath)
	if _, err := xtool.Run(ctx, display, "xwd", "-id", windowID, "-silent", "-out", xwdPath); err != nil {
		return Grab{}, fmt.Errorf("%w: %v", schema.ErrCaptureFailed, err)
	}
	if _, err := xtool.Run(ctx, display, "convert", xwdPath, outputPath); err != nil {
		return Grab{}, fmt.Errorf("%w: %v", schema.ErrCaptureFailed, err)
	}

	var grab Grab
	grab.RawWidth, grab.RawHeight = PNGDimensions(outputPath)
	if digest, err := FileMD5(outputPath); err == nil {
		grab.RawMD5 = digest
	}

	cropToContent(ctx, outputPath)
	return grab, nil
}

// cropToContent trims background on top, right, and bottom. Failure is
// tolerated: the uncropped screenshot is still a valid capture.
func cropToContent(ctx context.Context, path string) {
	out, err := xtool.Run(ctx, "", "convert", path,
		"-fuzz", "1%", "-trim", "-format", "%X %Y %w %h", "info:")
	if err != nil {
		return
	}
	w, h, y, ok := cropBox(out)
	if !ok {
		return
	}
	geometry := fmt.Sprintf("%dx%d+0+%d", w, h, y)
	if _, err := xtool.Run(ctx, "", "convert", path, "-crop", geometry, "+repage", path); err != nil {
		pslog.Ctx(ctx).Warn("content crop failed", "path", path, "err", err)
	}
}

// cropBox derives the crop geometry from convert's trim report,
// preserving the left margin and padding the other three edges.
func cropBox(trimReport string) (w, h, y int, ok bool) {
	parts := strings.Fields(strings.TrimSpace(trimReport))
	if len(parts) != 4 {
		return 0, 0, 0, false
	}
	vals := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimPrefix(p, "+"))
		if err != nil {
			return 0, 0, 0, false
		}
		vals[i] = v
	}
	xOff, yOff, trimW, trimH := vals[0], vals[1], vals[2], vals[3]
	y = yOff - padTop
	if y < 0 {
		y = 0
	}
	w = xOff + trimW + padRight
	h = yOff + trimH + padBottom - y
	if w <= 0 || h <= 0 {
		return 0, 0, 0, false
	}
	return w, h, y, true
}

// PNGDimensions reads the pixel dimensions of a PNG file, returning
// zeros when the file is missing or malformed.
func PNGDimensions(path string) (w, h int) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

// FileMD5 returns the hex MD5 digest of a file's contents.
func FileMD5(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Available reports whether every required tool resolves on PATH.
func Available() error {
	var missing []string
	for _, tool := range Required {
		if !xtool.Available(tool) {
			missing = append(missing, tool)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing tools: %s", strings.Join(missing, ", "))
	}
	return nil
}
