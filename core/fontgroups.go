package core

import (
	"github.com/jquast/modem.xyz/internal/encodings"
	"github.com/jquast/modem.xyz/schema"
)

// FontGroup describes one terminal font family and the server encodings
// it renders. Each group gets its own terminal instance: bitmap fonts
// cannot be swapped per banner without disturbing window geometry.
type FontGroup struct {
	Name schema.FontGroupName
	// FontFamily is the fontconfig family name the terminal loads.
	FontFamily string
	// NativeHeight is the font's native bitmap pixel height, used for
	// scanline placement in CRT post-processing.
	NativeHeight int
	// Columns overrides the default terminal width; zero keeps it.
	Columns int
	// AspectRatio corrects for non-square pixels on CRT platforms;
	// zero means square.
	AspectRatio float64
	// Encodings this group handles (normalized names).
	Encodings map[schema.EncodingName]bool
}

var fontGroups = []FontGroup{
	{
		Name:         schema.GroupIBMVGA,
		FontFamily:   "Px IBM VGA8",
		NativeHeight: 16,
		Encodings: encodingSet(
			"cp437", "cp437_art",
			"cp737", "cp775", "cp850", "cp852", "cp855",
			"cp857", "cp860", "cp861", "cp862", "cp863",
			"cp865", "cp866", "cp869", "koi8_r", "unknown",
			"ascii", "latin_1", "iso_8859_1", "iso_8859_1:1987",
			"iso_8859_2", "utf_8", "big5", "gbk", "shift_jis", "euc_kr",
		),
	},
	{
		Name:         schema.GroupTopaz,
		FontFamily:   "Topaz a600a1200a400",
		NativeHeight: 16,
		Encodings:    encodingSet("amiga", "topaz"),
	},
	{
		Name:         schema.GroupPETSCII,
		FontFamily:   "Bescii Mono",
		NativeHeight: 8,
		Columns:      40,
		AspectRatio:  1.2, // C64 320x200 on a 4:3 CRT
		Encodings:    encodingSet("petscii"),
	},
	{
		Name:         schema.GroupATASCII,
		FontFamily:   "EightBit Atari",
		NativeHeight: 8,
		Columns:      40,
		AspectRatio:  1.25, // Atari 320x192 on a 4:3 CRT
		Encodings:    encodingSet("atarist", "atascii"),
	},
}

func encodingSet(names ...schema.EncodingName) map[schema.EncodingName]bool {
	set := make(map[schema.EncodingName]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// GroupForEncoding routes a server encoding to its font group. Unknown
// encodings land in the IBM VGA group, which has Unicode fallback.
func GroupForEncoding(name schema.EncodingName) FontGroup {
	normalized := schema.NormalizeEncoding(string(name))
	for _, g := range fontGroups {
		if g.Encodings[normalized] {
			return g
		}
	}
	return fontGroups[0]
}

// GroupByName returns the named group, defaulting to IBM VGA.
func GroupByName(name schema.FontGroupName) FontGroup {
	for _, g := range fontGroups {
		if g.Name == name {
			return g
		}
	}
	return fontGroups[0]
}

// IsEastAsian reports whether the encoding needs ambiguous-width
// characters rendered wide (a separate cjk terminal instance).
func IsEastAsian(name schema.EncodingName) bool {
	return encodings.IsEastAsian(name)
}
