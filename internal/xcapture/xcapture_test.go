package xcapture

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestCropBox(t *testing.T) {
	for _, tc := range []struct {
		name    string
		report  string
		w, h, y int
		ok      bool
	}{
		{
			// Content at (4,10) sized 640x200: keep the left margin,
			// pad one row above and three right/below.
			name:   "interior content",
			report: "+4 +10 640 200",
			w:      4 + 640 + 3,
			h:      10 + 200 + 3 - 9,
			y:      9,
			ok:     true,
		},
		{
			name:   "content at origin clamps top pad",
			report: "+0 +0 100 50",
			w:      103,
			h:      53,
			y:      0,
			ok:     true,
		},
		{
			name:   "trailing newline tolerated",
			report: "+2 +5 30 40\n",
			w:      35,
			h:      44,
			y:      4,
			ok:     true,
		},
		{name: "empty report", report: "", ok: false},
		{name: "short report", report: "+4 +10 640", ok: false},
		{name: "garbage", report: "a b c d", ok: false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w, h, y, ok := cropBox(tc.report)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if !ok {
				return
			}
			if w != tc.w || h != tc.h || y != tc.y {
				t.Errorf("crop = %dx%d+0+%d, want %dx%d+0+%d", w, h, y, tc.w, tc.h, tc.y)
			}
		})
	}
}

func TestPNGDimensions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "probe.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 640, 400))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	f.Close()

	if w, h := PNGDimensions(path); w != 640 || h != 400 {
		t.Errorf("dimensions = %dx%d, want 640x400", w, h)
	}
	if w, h := PNGDimensions(filepath.Join(dir, "missing.png")); w != 0 || h != 0 {
		t.Errorf("missing file dimensions = %dx%d, want zeros", w, h)
	}

	bad := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(bad, []byte("not a png"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if w, h := PNGDimensions(bad); w != 0 || h != 0 {
		t.Errorf("malformed file dimensions = %dx%d, want zeros", w, h)
	}
}

func TestFileMD5(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	digest, err := FileMD5(path)
	if err != nil {
		t.Fatalf("md5: %v", err)
	}
	if digest != "900150983cd24fb0d6963f7d28e17f72" {
		t.Errorf("digest = %s", digest)
	}
	if _, err := FileMD5(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}
