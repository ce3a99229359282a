package core

import (
	"testing"

	"github.com/jquast/modem.xyz/schema"
)

func TestGroupForEncoding(t *testing.T) {
	for enc, want := range map[string]schema.FontGroupName{
		"cp437":      schema.GroupIBMVGA,
		"CP437-art":  schema.GroupIBMVGA,
		"koi8-r":     schema.GroupIBMVGA,
		"big5":       schema.GroupIBMVGA,
		"amiga":      schema.GroupTopaz,
		"topaz":      schema.GroupTopaz,
		"petscii":    schema.GroupPETSCII,
		"atascii":    schema.GroupATASCII,
		"atarist":    schema.GroupATASCII,
		"ebcdic":     schema.GroupIBMVGA,
		"":           schema.GroupIBMVGA,
	} {
		if got := GroupForEncoding(schema.EncodingName(enc)); got.Name != want {
			t.Errorf("GroupForEncoding(%q) = %s, want %s", enc, got.Name, want)
		}
	}
}

func TestGroupGeometry(t *testing.T) {
	petscii := GroupByName(schema.GroupPETSCII)
	if petscii.Columns != 40 {
		t.Errorf("petscii columns = %d, want 40", petscii.Columns)
	}
	if petscii.AspectRatio != 1.2 {
		t.Errorf("petscii aspect = %v, want 1.2", petscii.AspectRatio)
	}
	if petscii.NativeHeight != 8 {
		t.Errorf("petscii native height = %d, want 8", petscii.NativeHeight)
	}

	atascii := GroupByName(schema.GroupATASCII)
	if atascii.Columns != 40 || atascii.AspectRatio != 1.25 {
		t.Errorf("atascii geometry = %dc/%v", atascii.Columns, atascii.AspectRatio)
	}

	vga := GroupByName(schema.GroupIBMVGA)
	if vga.Columns != 0 || vga.AspectRatio != 0 {
		t.Errorf("ibm_vga should keep default geometry, got %dc/%v", vga.Columns, vga.AspectRatio)
	}
	if vga.NativeHeight != 16 {
		t.Errorf("ibm_vga native height = %d, want 16", vga.NativeHeight)
	}
}

func TestGroupByNameUnknownFallsBack(t *testing.T) {
	if got := GroupByName("vt52"); got.Name != schema.GroupIBMVGA {
		t.Errorf("unknown group = %s, want ibm_vga", got.Name)
	}
}

func TestSessionLabel(t *testing.T) {
	for _, tc := range []struct {
		cols, rows int
		cjk        bool
		want       string
	}{
		{80, 70, false, "ibm_vga"},
		{40, 70, false, "ibm_vga-40"},
		{80, 50, false, "ibm_vga-50r"},
		{80, 70, true, "ibm_vga-cjk"},
		{132, 50, true, "ibm_vga-132-50r-cjk"},
	} {
		got := sessionLabel(schema.GroupIBMVGA, tc.cols, tc.rows, tc.cjk, 70)
		if got != tc.want {
			t.Errorf("sessionLabel(%d,%d,%v) = %q, want %q", tc.cols, tc.rows, tc.cjk, got, tc.want)
		}
	}
}
