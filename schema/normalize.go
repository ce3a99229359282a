package schema

import "strings"

// NormalizeEncoding canonicalizes a server encoding name: trimmed,
// lowercase, hyphens folded to underscores. "CP437-Art" and "cp437_art"
// normalize to the same name.
func NormalizeEncoding(encoding string) EncodingName {
	normalized := strings.ToLower(strings.TrimSpace(encoding))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	return EncodingName(normalized)
}

// ParseRenderMode maps a mode string to a RenderMode. Unrecognized or
// empty values are silently ignored and report ok=false, leaving the
// caller at the normal default.
func ParseRenderMode(value string) (RenderMode, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(ModeCED):
		return ModeCED, true
	case string(ModeTransparent):
		return ModeTransparent, true
	case string(ModeWorkbench):
		return ModeWorkbench, true
	case string(ModeNormal):
		return ModeNormal, true
	default:
		return ModeNormal, false
	}
}
