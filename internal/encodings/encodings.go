// Package encodings maps server encoding labels to byte decoders and
// answers the routing questions the capture pipeline asks about them:
// which ones the bitmap fonts render natively, and which ones need
// ambiguous-width characters treated as wide.
package encodings

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"

	"github.com/jquast/modem.xyz/schema"
)

// decoders maps normalized encoding names to their decoder source.
var decoders = map[schema.EncodingName]encoding.Encoding{
	"cp437":          charmap.CodePage437,
	"cp850":          charmap.CodePage850,
	"cp852":          charmap.CodePage852,
	"cp855":          charmap.CodePage855,
	"cp858":          charmap.CodePage858,
	"cp860":          charmap.CodePage860,
	"cp862":          charmap.CodePage862,
	"cp863":          charmap.CodePage863,
	"cp865":          charmap.CodePage865,
	"cp866":          charmap.CodePage866,
	"koi8_r":         charmap.KOI8R,
	"latin_1":        charmap.ISO8859_1,
	"iso_8859_1":     charmap.ISO8859_1,
	"iso_8859_2":     charmap.ISO8859_2,
	"big5":           traditionalchinese.Big5,
	"gbk":            simplifiedchinese.GBK,
	"gb2312":         simplifiedchinese.GBK,
	"shift_jis":      japanese.ShiftJIS,
	"euc_jp":         japanese.EUCJP,
	"euc_kr":         korean.EUCKR,
}

// passthrough names encodings whose bytes the terminal fonts interpret
// directly. Transcoding them would destroy the glyph mapping the bitmap
// font provides.
var passthrough = map[schema.EncodingName]bool{
	"cp437":     true,
	"cp437_art": true,
	"amiga":     true,
	"topaz":     true,
	"petscii":   true,
	"atascii":   true,
	"atarist":   true,
	"ascii":     true,
	"utf_8":     true,
	"unknown":   true,
	"":          true,
}

// eastAsian names the CJK encodings that need ambiguous-width
// characters rendered two cells wide.
var eastAsian = map[schema.EncodingName]bool{
	"big5":      true,
	"gbk":       true,
	"gb2312":    true,
	"shift_jis": true,
	"euc_jp":    true,
	"euc_kr":    true,
}

// IsEastAsian reports whether name is a CJK encoding.
func IsEastAsian(name schema.EncodingName) bool {
	return eastAsian[schema.NormalizeEncoding(string(name))]
}

// IsPassthrough reports whether the payload bytes should reach the
// terminal untranscoded.
func IsPassthrough(name schema.EncodingName) bool {
	return passthrough[schema.NormalizeEncoding(string(name))]
}

// Decode converts payload from the named server encoding to UTF-8.
// Passthrough and unrecognized encodings return the payload unchanged;
// undecodable byte runs degrade to replacement characters rather than
// failing the banner.
func Decode(payload []byte, name schema.EncodingName) []byte {
	normalized := schema.NormalizeEncoding(string(name))
	if passthrough[normalized] {
		return payload
	}
	enc, ok := decoders[normalized]
	if !ok {
		return payload
	}
	decoded, err := enc.NewDecoder().Bytes(payload)
	if err != nil {
		return payload
	}
	return decoded
}

// Known reports whether name resolves to a decoder or passthrough.
func Known(name schema.EncodingName) bool {
	normalized := schema.NormalizeEncoding(string(name))
	if passthrough[normalized] {
		return true
	}
	_, ok := decoders[normalized]
	return ok
}

// stripControls drops ANSI escape sequences and C0 controls other than
// newline so width measurement sees only printable content.
func stripControls(text string) []string {
	var lines []string
	var cur strings.Builder
	inEscape := false
	for _, r := range text {
		switch {
		case inEscape:
			if r >= 0x40 && r <= 0x7e && r != '[' {
				inEscape = false
			}
		case r == 0x1b:
			inEscape = true
		case r == '\n':
			lines = append(lines, cur.String())
			cur.Reset()
		case r < 0x20 || r == 0x7f:
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}
