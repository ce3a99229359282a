package encodings

import (
	"bytes"
	"testing"

	"github.com/jquast/modem.xyz/schema"
)

func TestDecodePassthroughLeavesBytesAlone(t *testing.T) {
	raw := []byte{0x1b, '[', '3', '1', 'm', 0xb0, 0xb1, 0xb2, 0xdb}
	for _, name := range []string{"cp437", "CP437-art", "petscii", "atascii", "amiga", "", "unknown"} {
		if got := Decode(raw, schema.EncodingName(name)); !bytes.Equal(got, raw) {
			t.Errorf("Decode(%q) mutated passthrough bytes", name)
		}
	}
}

func TestDecodeKOI8R(t *testing.T) {
	// "ПРИВЕТ" in KOI8-R.
	raw := []byte{0xf0, 0xf2, 0xe9, 0xf7, 0xe5, 0xf4}
	got := Decode(raw, "koi8-r")
	if string(got) != "ПРИВЕТ" {
		t.Errorf("Decode koi8-r = %q", got)
	}
}

func TestDecodeLatin1(t *testing.T) {
	raw := []byte{'c', 'a', 'f', 0xe9}
	if got := Decode(raw, "latin-1"); string(got) != "café" {
		t.Errorf("Decode latin-1 = %q", got)
	}
}

func TestDecodeUnknownEncodingIsIdentity(t *testing.T) {
	raw := []byte{0x80, 0x81}
	if got := Decode(raw, "ebcdic-cp-us"); !bytes.Equal(got, raw) {
		t.Errorf("unknown encoding mutated bytes: %x", got)
	}
}

func TestIsEastAsian(t *testing.T) {
	for name, want := range map[string]bool{
		"big5":      true,
		"Shift-JIS": true,
		"euc_kr":    true,
		"gb2312":    true,
		"cp437":     false,
		"latin_1":   false,
		"":          false,
	} {
		if got := IsEastAsian(schema.EncodingName(name)); got != want {
			t.Errorf("IsEastAsian(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestKnown(t *testing.T) {
	for name, want := range map[string]bool{
		"cp866":   true,
		"petscii": true,
		"utf-8":   true,
		"klingon": false,
	} {
		if got := Known(schema.EncodingName(name)); got != want {
			t.Errorf("Known(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestMeasure(t *testing.T) {
	cols, rows := Measure("\x1b[1;33mshort\x1b[0m\nlonger line\r\n")
	if cols != 11 {
		t.Errorf("cols = %d, want 11", cols)
	}
	if rows != 2 {
		t.Errorf("rows = %d, want 2", rows)
	}
}

func TestMeasureWideRunes(t *testing.T) {
	cols, _ := Measure("漢字")
	if cols != 4 {
		t.Errorf("cols = %d, want 4", cols)
	}
}
