package rasterize

import (
	"context"
	"strings"

	"github.com/jquast/modem.xyz/schema"
	"pkt.systems/pslog"
)

// FontSpec describes the cell geometry of a font in the fixed set.
// The engine draws glyphs into cells of this size; Bits overrides the
// width (8 or 9 pixel cells) and Scale multiplies the final image.
type FontSpec struct {
	ID         schema.FontID
	CellWidth  int
	CellHeight int
}

// fontTable is the fixed enumerated font set. Keys are the canonical
// (uppercase) identifiers.
var fontTable = map[schema.FontID]FontSpec{
	schema.FontCP437:           {ID: schema.FontCP437, CellWidth: 8, CellHeight: 16},
	schema.FontCP437_80x50:     {ID: schema.FontCP437_80x50, CellWidth: 8, CellHeight: 8},
	schema.FontCP737:           {ID: schema.FontCP737, CellWidth: 8, CellHeight: 16},
	schema.FontCP775:           {ID: schema.FontCP775, CellWidth: 8, CellHeight: 16},
	schema.FontCP850:           {ID: schema.FontCP850, CellWidth: 8, CellHeight: 16},
	schema.FontCP852:           {ID: schema.FontCP852, CellWidth: 8, CellHeight: 16},
	schema.FontCP855:           {ID: schema.FontCP855, CellWidth: 8, CellHeight: 16},
	schema.FontCP857:           {ID: schema.FontCP857, CellWidth: 8, CellHeight: 16},
	schema.FontCP860:           {ID: schema.FontCP860, CellWidth: 8, CellHeight: 16},
	schema.FontCP861:           {ID: schema.FontCP861, CellWidth: 8, CellHeight: 16},
	schema.FontCP862:           {ID: schema.FontCP862, CellWidth: 8, CellHeight: 16},
	schema.FontCP863:           {ID: schema.FontCP863, CellWidth: 8, CellHeight: 16},
	schema.FontCP865:           {ID: schema.FontCP865, CellWidth: 8, CellHeight: 16},
	schema.FontCP866:           {ID: schema.FontCP866, CellWidth: 8, CellHeight: 16},
	schema.FontCP869:           {ID: schema.FontCP869, CellWidth: 8, CellHeight: 16},
	schema.FontTerminus:        {ID: schema.FontTerminus, CellWidth: 8, CellHeight: 16},
	schema.FontSpleen:          {ID: schema.FontSpleen, CellWidth: 8, CellHeight: 16},
	schema.FontMicroKnight:     {ID: schema.FontMicroKnight, CellWidth: 8, CellHeight: 16},
	schema.FontMicroKnightPlus: {ID: schema.FontMicroKnightPlus, CellWidth: 8, CellHeight: 16},
	schema.FontMoSoul:          {ID: schema.FontMoSoul, CellWidth: 8, CellHeight: 16},
	schema.FontPotNoodle:       {ID: schema.FontPotNoodle, CellWidth: 8, CellHeight: 16},
	schema.FontTopaz:           {ID: schema.FontTopaz, CellWidth: 8, CellHeight: 16},
	schema.FontTopazPlus:       {ID: schema.FontTopazPlus, CellWidth: 8, CellHeight: 16},
	schema.FontTopaz500:        {ID: schema.FontTopaz500, CellWidth: 8, CellHeight: 8},
	schema.FontTopaz500Plus:    {ID: schema.FontTopaz500Plus, CellWidth: 8, CellHeight: 8},
}

// ResolveFont maps a symbolic font name to its spec, case-insensitively.
// An empty name is the documented CP437 default and resolves silently;
// an unrecognized name falls back to CP437 with a warning, never
// failing the render.
func ResolveFont(ctx context.Context, name string) FontSpec {
	if strings.TrimSpace(name) == "" {
		return fontTable[schema.FontCP437]
	}
	canonical := schema.FontID(strings.ToUpper(strings.TrimSpace(name)))
	if spec, ok := fontTable[canonical]; ok {
		return spec
	}
	pslog.Ctx(ctx).Warn("unknown font, using CP437", "font", name)
	return fontTable[schema.FontCP437]
}

// Fonts returns the canonical identifiers of the fixed font set.
func Fonts() []schema.FontID {
	ids := make([]schema.FontID, 0, len(fontTable))
	for id := range fontTable {
		ids = append(ids, id)
	}
	return ids
}
